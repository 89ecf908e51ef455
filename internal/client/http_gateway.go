package client

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	"github.com/pagetagz/pagetagz-server/internal/errors"
	"github.com/pagetagz/pagetagz-server/internal/pagemeta"
	"github.com/pagetagz/pagetagz-server/internal/search"
)

const gatewayTimeout = 30 * time.Second

// HTTPGateway talks to the PageTagz server API on behalf of one
// authenticated user. It implements Gateway plus the mutation calls the
// popup and options pages drive directly.
type HTTPGateway struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewHTTPGateway creates a gateway for the server at baseURL using the
// given session token.
func NewHTTPGateway(baseURL, token string) (*HTTPGateway, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	return &HTTPGateway{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: gatewayTimeout},
	}, nil
}

// wireError mirrors the envelope's error body.
type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// envelope mirrors the server's uniform response wrapper.
type envelope[T any] struct {
	Data    T          `json:"data"`
	Error   *wireError `json:"error"`
	Message string     `json:"message"`
	Success bool       `json:"success"`
}

// do issues a request with auth and an optional JSON body.
func (g *HTTPGateway) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	u := *g.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return g.http.Do(req)
}

// decode reads an envelope and converts a failure body into a coded
// error the caller can branch on.
func decode[T any](resp *http.Response) (T, error) {
	defer resp.Body.Close() //nolint:errcheck

	var zero T
	if resp.StatusCode == http.StatusNoContent {
		return zero, nil
	}

	var env envelope[T]
	if err := json.UnmarshalRead(resp.Body, &env); err != nil {
		return zero, fmt.Errorf("decoding response: %w", err)
	}
	if env.Error != nil {
		return zero, &errors.Error{
			Code:    errors.Code(env.Error.Code),
			Message: env.Error.Message,
			Details: env.Error.Details,
		}
	}
	if !env.Success {
		return zero, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return env.Data, nil
}

// ListTags implements Gateway.
func (g *HTTPGateway) ListTags(ctx context.Context) ([]domain.Tag, error) {
	resp, err := g.do(ctx, http.MethodGet, "/api/v1/tags/", nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[[]domain.Tag](resp)
}

// ListBookmarks implements Gateway. An empty tagID lists everything.
func (g *HTTPGateway) ListBookmarks(ctx context.Context, tagID string) ([]domain.Bookmark, error) {
	var query url.Values
	if tagID != "" {
		query = url.Values{"tag": {tagID}}
	}
	resp, err := g.do(ctx, http.MethodGet, "/api/v1/bookmarks/", query, nil)
	if err != nil {
		return nil, err
	}
	return decode[[]domain.Bookmark](resp)
}

type clickResult struct {
	BookmarkID string `json:"bookmark_id"`
	ClickCount int    `json:"click_count"`
}

// RecordClick implements Gateway.
func (g *HTTPGateway) RecordClick(ctx context.Context, bookmarkID string) (int, error) {
	resp, err := g.do(ctx, http.MethodPost, "/api/v1/bookmarks/"+bookmarkID+"/click", nil, nil)
	if err != nil {
		return 0, err
	}
	result, err := decode[clickResult](resp)
	if err != nil {
		return 0, err
	}
	return result.ClickCount, nil
}

// RecordClickBatch implements Gateway.
func (g *HTTPGateway) RecordClickBatch(ctx context.Context, bookmarkIDs []string) error {
	resp, err := g.do(ctx, http.MethodPost, "/api/v1/bookmarks/click-batch", nil,
		map[string]any{"bookmark_ids": bookmarkIDs})
	if err != nil {
		return err
	}
	_, err = decode[struct{}](resp)
	return err
}

// CreateTagRequest is the payload for CreateTag and UpdateTag.
type CreateTagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateTag creates a tag and returns the server's copy.
func (g *HTTPGateway) CreateTag(ctx context.Context, req CreateTagRequest) (domain.Tag, error) {
	resp, err := g.do(ctx, http.MethodPost, "/api/v1/tags/", nil, req)
	if err != nil {
		return domain.Tag{}, err
	}
	return decode[domain.Tag](resp)
}

// UpdateTag renames or re-describes a tag.
func (g *HTTPGateway) UpdateTag(ctx context.Context, tagID string, req CreateTagRequest) (domain.Tag, error) {
	resp, err := g.do(ctx, http.MethodPatch, "/api/v1/tags/"+tagID, nil, req)
	if err != nil {
		return domain.Tag{}, err
	}
	return decode[domain.Tag](resp)
}

// DeleteTag deletes a tag; its bookmark links cascade server-side.
func (g *HTTPGateway) DeleteTag(ctx context.Context, tagID string) error {
	resp, err := g.do(ctx, http.MethodDelete, "/api/v1/tags/"+tagID, nil, nil)
	if err != nil {
		return err
	}
	_, err = decode[struct{}](resp)
	return err
}

// CreateBookmarkRequest is the payload for CreateBookmark.
type CreateBookmarkRequest struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	TagIDs      []string `json:"tag_ids"`
	IconURL     string   `json:"icon_url,omitempty"`
}

// UpdateBookmarkRequest is the payload for UpdateBookmark.
type UpdateBookmarkRequest struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	TagIDs      []string `json:"tag_ids"`
}

// CreateBookmark saves a bookmark and returns the server's copy.
func (g *HTTPGateway) CreateBookmark(ctx context.Context, req CreateBookmarkRequest) (domain.Bookmark, error) {
	resp, err := g.do(ctx, http.MethodPost, "/api/v1/bookmarks/", nil, req)
	if err != nil {
		return domain.Bookmark{}, err
	}
	return decode[domain.Bookmark](resp)
}

// UpdateBookmark edits a bookmark and returns the server's copy.
func (g *HTTPGateway) UpdateBookmark(ctx context.Context, bookmarkID string, req UpdateBookmarkRequest) (domain.Bookmark, error) {
	resp, err := g.do(ctx, http.MethodPatch, "/api/v1/bookmarks/"+bookmarkID, nil, req)
	if err != nil {
		return domain.Bookmark{}, err
	}
	return decode[domain.Bookmark](resp)
}

// DeleteBookmark deletes a bookmark.
func (g *HTTPGateway) DeleteBookmark(ctx context.Context, bookmarkID string) error {
	resp, err := g.do(ctx, http.MethodDelete, "/api/v1/bookmarks/"+bookmarkID, nil, nil)
	if err != nil {
		return err
	}
	_, err = decode[struct{}](resp)
	return err
}

// CheckURL reports whether rawURL is already saved; nil when it is not.
func (g *HTTPGateway) CheckURL(ctx context.Context, rawURL string) (*domain.Bookmark, error) {
	resp, err := g.do(ctx, http.MethodGet, "/api/v1/bookmarks/check", url.Values{"url": {rawURL}}, nil)
	if err != nil {
		return nil, err
	}
	return decode[*domain.Bookmark](resp)
}

// Search runs a server-side full-text query over the user's bookmarks.
func (g *HTTPGateway) Search(ctx context.Context, query, tagID string) (search.Result, error) {
	values := url.Values{"q": {query}}
	if tagID != "" {
		values.Set("tag", tagID)
	}
	resp, err := g.do(ctx, http.MethodGet, "/api/v1/search", values, nil)
	if err != nil {
		return search.Result{}, err
	}
	return decode[search.Result](resp)
}

// CapturePage asks the server to read a page's metadata for form
// prefill.
func (g *HTTPGateway) CapturePage(ctx context.Context, pageURL string) (pagemeta.Metadata, error) {
	resp, err := g.do(ctx, http.MethodPost, "/api/v1/pages/capture", nil,
		map[string]string{"url": pageURL})
	if err != nil {
		return pagemeta.Metadata{}, err
	}
	return decode[pagemeta.Metadata](resp)
}

// Logout revokes the session behind this gateway's token.
func (g *HTTPGateway) Logout(ctx context.Context) error {
	resp, err := g.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	_, err = decode[struct{}](resp)
	return err
}
