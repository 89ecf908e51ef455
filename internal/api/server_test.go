package api

import (
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	"github.com/pagetagz/pagetagz-server/internal/search"
	"github.com/pagetagz/pagetagz-server/internal/service"
	"github.com/pagetagz/pagetagz-server/internal/sse"
	"github.com/pagetagz/pagetagz-server/internal/store"
	"github.com/pagetagz/pagetagz-server/internal/store/sqlite"
)

// setupTestServer creates a server backed by a temp database and a real
// search index.
func setupTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tmpDir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx, err := search.NewIndex(search.Options{DataPath: tmpDir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	st.SetSearchIndexer(search.NewStoreIndexer(idx))

	sseManager := sse.NewManager(logger)

	sessions := service.NewSessionService(st, logger)
	tags := service.NewTagService(st, sseManager, logger)
	bookmarks := service.NewBookmarkService(st, sseManager, idx, nil, logger)

	server := NewServer(Config{
		Sessions:       sessions,
		Tags:           tags,
		Bookmarks:      bookmarks,
		Pages:          nil,
		SSE:            sseManager,
		Logger:         logger,
		AllowedOrigins: []string{"*"},
	})
	return server, st
}

// doRequest performs a request against the server and decodes the envelope.
func doRequest(t *testing.T, server *Server, method, path, token string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	var envelope map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func TestHealthCheck(t *testing.T) {
	server, _ := setupTestServer(t)

	rec, envelope := doRequest(t, server, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope["success"])
}

func TestRequireAuth_MissingToken(t *testing.T) {
	server, _ := setupTestServer(t)

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/tags/", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	errBody, ok := envelope["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", errBody["code"])
}

func TestRequireAuth_BadToken(t *testing.T) {
	server, _ := setupTestServer(t)

	rec, _ := doRequest(t, server, http.MethodGet, "/api/v1/tags/", "not-a-real-token", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCurrentUser(t *testing.T) {
	server, st := setupTestServer(t)
	token := newTestSession(t, server, st)

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/users/me", token, "")

	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test@example.com", data["email"])
}

func TestLogout(t *testing.T) {
	server, st := setupTestServer(t)
	token := newTestSession(t, server, st)

	rec, _ := doRequest(t, server, http.MethodPost, "/api/v1/auth/logout", token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Token no longer works.
	rec, _ = doRequest(t, server, http.MethodGet, "/api/v1/users/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logging out again is not an error.
	rec2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	server.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusNoContent, rec2.Code)
}

func TestTagLifecycle(t *testing.T) {
	server, st := setupTestServer(t)
	token := newTestSession(t, server, st)

	// Create.
	rec, envelope := doRequest(t, server, http.MethodPost, "/api/v1/tags/", token,
		`{"name":"Work","description":"work stuff"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := envelope["data"].(map[string]any)
	tagID := created["id"].(string)
	assert.Equal(t, "Work", created["name"])

	// Duplicate name.
	rec, envelope = doRequest(t, server, http.MethodPost, "/api/v1/tags/", token,
		`{"name":"Work"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	errBody := envelope["error"].(map[string]any)
	assert.Equal(t, "DUPLICATE_TAG", errBody["code"])

	// List.
	rec, envelope = doRequest(t, server, http.MethodGet, "/api/v1/tags/", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := envelope["data"].([]any)
	assert.Len(t, list, 1)

	// Update.
	rec, envelope = doRequest(t, server, http.MethodPatch, "/api/v1/tags/"+tagID, token,
		`{"name":"Projects"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Projects", envelope["data"].(map[string]any)["name"])

	// Delete.
	rec, _ = doRequest(t, server, http.MethodDelete, "/api/v1/tags/"+tagID, token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, envelope = doRequest(t, server, http.MethodGet, "/api/v1/tags/"+tagID, token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "TAG_NOT_FOUND", envelope["error"].(map[string]any)["code"])
}

func TestCreateTag_ValidationError(t *testing.T) {
	server, st := setupTestServer(t)
	token := newTestSession(t, server, st)

	rec, envelope := doRequest(t, server, http.MethodPost, "/api/v1/tags/", token, `{"name":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := envelope["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
	details, ok := errBody["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "name")
}

func TestBookmarkLifecycle(t *testing.T) {
	server, st := setupTestServer(t)
	token := newTestSession(t, server, st)
	tagID := createTag(t, server, token, "Reading")

	// Create.
	rec, envelope := doRequest(t, server, http.MethodPost, "/api/v1/bookmarks/", token,
		`{"url":"https://go.dev/blog","title":"Go Blog","tag_ids":["`+tagID+`"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := envelope["data"].(map[string]any)
	bookmarkID := created["id"].(string)
	assert.Equal(t, "Go Blog", created["title"])

	// Duplicate URL conflicts.
	rec, envelope = doRequest(t, server, http.MethodPost, "/api/v1/bookmarks/", token,
		`{"url":"https://go.dev/blog","tag_ids":["`+tagID+`"]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_BOOKMARK", envelope["error"].(map[string]any)["code"])

	// Check finds it.
	rec, envelope = doRequest(t, server, http.MethodGet, "/api/v1/bookmarks/check?url=https%3A%2F%2Fgo.dev%2Fblog", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bookmarkID, envelope["data"].(map[string]any)["id"])

	// Check misses for an unsaved URL.
	rec, envelope = doRequest(t, server, http.MethodGet, "/api/v1/bookmarks/check?url=https%3A%2F%2Fexample.org", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, envelope["data"])

	// Update swaps title.
	rec, envelope = doRequest(t, server, http.MethodPatch, "/api/v1/bookmarks/"+bookmarkID, token,
		`{"title":"The Go Blog","tag_ids":["`+tagID+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The Go Blog", envelope["data"].(map[string]any)["title"])

	// Click increments.
	rec, envelope = doRequest(t, server, http.MethodPost, "/api/v1/bookmarks/"+bookmarkID+"/click", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, envelope["data"].(map[string]any)["click_count"])

	// Batch clicks skip stale IDs.
	rec, _ = doRequest(t, server, http.MethodPost, "/api/v1/bookmarks/click-batch", token,
		`{"bookmark_ids":["`+bookmarkID+`","bm-ghost"]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, envelope = doRequest(t, server, http.MethodGet, "/api/v1/bookmarks/"+bookmarkID, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, envelope["data"].(map[string]any)["click_count"])

	// Delete.
	rec, _ = doRequest(t, server, http.MethodDelete, "/api/v1/bookmarks/"+bookmarkID, token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, envelope = doRequest(t, server, http.MethodGet, "/api/v1/bookmarks/"+bookmarkID, token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "BOOKMARK_NOT_FOUND", envelope["error"].(map[string]any)["code"])
}

func TestCreateBookmark_RequiresTags(t *testing.T) {
	server, st := setupTestServer(t)
	token := newTestSession(t, server, st)

	rec, envelope := doRequest(t, server, http.MethodPost, "/api/v1/bookmarks/", token,
		`{"url":"https://example.com","tag_ids":[]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", envelope["error"].(map[string]any)["code"])
}

func TestListBookmarks_TagFilter(t *testing.T) {
	server, st := setupTestServer(t)
	token := newTestSession(t, server, st)
	workID := createTag(t, server, token, "Work")
	newsID := createTag(t, server, token, "News")

	rec, _ := doRequest(t, server, http.MethodPost, "/api/v1/bookmarks/", token,
		`{"url":"https://work.example.com","tag_ids":["`+workID+`"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = doRequest(t, server, http.MethodPost, "/api/v1/bookmarks/", token,
		`{"url":"https://news.example.com","tag_ids":["`+newsID+`"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/bookmarks/?tag="+workID, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := envelope["data"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "https://work.example.com", list[0].(map[string]any)["url"])

	rec, envelope = doRequest(t, server, http.MethodGet, "/api/v1/bookmarks/", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, envelope["data"].([]any), 2)
}

func TestSearch(t *testing.T) {
	server, st := setupTestServer(t)
	token := newTestSession(t, server, st)
	tagID := createTag(t, server, token, "Go")

	rec, _ := doRequest(t, server, http.MethodPost, "/api/v1/bookmarks/", token,
		`{"url":"https://go.dev/doc","title":"Go Documentation","tag_ids":["`+tagID+`"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/search?q=documentation", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]any)
	assert.EqualValues(t, 1, data["total"])
}

func TestSearch_BadLimit(t *testing.T) {
	server, st := setupTestServer(t)
	token := newTestSession(t, server, st)

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/search?q=x&limit=bogus", token, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", envelope["error"].(map[string]any)["code"])
}

// newTestSession creates a user in the store and a session for it.
func newTestSession(t *testing.T, server *Server, st store.Store) string {
	t.Helper()

	ctx := context.Background()
	user := &domain.User{
		ID:        "user-api-test",
		Email:     "test@example.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateUser(ctx, user))

	sess, err := server.sessions.CreateSession(ctx, user)
	require.NoError(t, err)
	return sess.Token
}

// createTag creates a tag over HTTP and returns its ID.
func createTag(t *testing.T, server *Server, token, name string) string {
	t.Helper()

	rec, envelope := doRequest(t, server, http.MethodPost, "/api/v1/tags/", token,
		`{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	return envelope["data"].(map[string]any)["id"].(string)
}
