package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagetagz/pagetagz-server/internal/errors"
)

func newGatewayAgainst(t *testing.T, handler http.HandlerFunc) *HTTPGateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw, err := NewHTTPGateway(server.URL, "test-token")
	require.NoError(t, err)
	return gw
}

func TestHTTPGateway_ListTags(t *testing.T) {
	gw := newGatewayAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tags/", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"t1","name":"Work","bookmark_count":3}]}`))
	})

	tags, err := gw.ListTags(context.Background())

	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Work", tags[0].Name)
	assert.Equal(t, 3, tags[0].BookmarkCount)
}

func TestHTTPGateway_ListBookmarksPassesTagFilter(t *testing.T) {
	gw := newGatewayAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "t1", r.URL.Query().Get("tag"))
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"b1","url":"https://go.dev","tag_ids":["t1"]}]}`))
	})

	bookmarks, err := gw.ListBookmarks(context.Background(), "t1")

	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, []string{"t1"}, bookmarks[0].TagIDs)
}

// The error body's code survives decoding so callers can branch, e.g.
// rendering DUPLICATE_TAG as a field-level form error.
func TestHTTPGateway_ErrorEnvelopeBecomesCodedError(t *testing.T) {
	gw := newGatewayAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"DUPLICATE_TAG","message":"a tag with this name already exists"}}`))
	})

	_, err := gw.CreateTag(context.Background(), CreateTagRequest{Name: "Work"})

	require.Error(t, err)
	assert.Equal(t, errors.CodeDuplicateTag, errors.CodeOf(err))
	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "a tag with this name already exists", domainErr.Message)
}

func TestHTTPGateway_RecordClick(t *testing.T) {
	gw := newGatewayAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bookmarks/b1/click", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{"bookmark_id":"b1","click_count":7}}`))
	})

	count, err := gw.RecordClick(context.Background(), "b1")

	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestHTTPGateway_NoContentResponses(t *testing.T) {
	gw := newGatewayAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, gw.RecordClickBatch(context.Background(), []string{"b1"}))
	assert.NoError(t, gw.DeleteTag(context.Background(), "t1"))
	assert.NoError(t, gw.Logout(context.Background()))
}

func TestHTTPGateway_CheckURLNullData(t *testing.T) {
	gw := newGatewayAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://example.com", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	bookmark, err := gw.CheckURL(context.Background(), "https://example.com")

	require.NoError(t, err)
	assert.Nil(t, bookmark)
}
