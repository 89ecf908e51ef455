package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagetagz/pagetagz-server/internal/http/response"
	"github.com/pagetagz/pagetagz-server/internal/service"
)

type createBookmarkRequest struct {
	URL         string   `json:"url" validate:"required,max=2048"`
	Title       string   `json:"title" validate:"max=512"`
	Description string   `json:"description" validate:"max=2000"`
	TagIDs      []string `json:"tag_ids" validate:"required,min=1"`
	IconURL     string   `json:"icon_url" validate:"omitempty,url"`
}

type updateBookmarkRequest struct {
	Title       string   `json:"title" validate:"max=512"`
	Description string   `json:"description" validate:"max=2000"`
	TagIDs      []string `json:"tag_ids" validate:"required,min=1"`
}

type clickBatchRequest struct {
	BookmarkIDs []string `json:"bookmark_ids" validate:"required,min=1"`
}

type clickResponse struct {
	BookmarkID string `json:"bookmark_id"`
	ClickCount int    `json:"click_count"`
}

// handleListBookmarks lists the user's bookmarks, optionally filtered by ?tag=.
func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.bookmarks.ListBookmarks(r.Context(), getUserID(r.Context()), r.URL.Query().Get("tag"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, bookmarks, s.logger)
}

func (s *Server) handleGetBookmark(w http.ResponseWriter, r *http.Request) {
	bookmark, err := s.bookmarks.GetBookmark(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, bookmark, s.logger)
}

// handleCheckBookmark reports whether ?url= is already saved. The body
// is the bookmark when it exists and null when it does not, so the
// extension popup can render its toggle state from one call.
func (s *Server) handleCheckBookmark(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		response.BadRequest(w, "url query parameter is required", s.logger)
		return
	}

	bookmark, err := s.bookmarks.CheckURL(r.Context(), getUserID(r.Context()), rawURL)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, bookmark, s.logger)
}

func (s *Server) handleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	var req createBookmarkRequest
	if !s.decode(w, r, &req) {
		return
	}

	bookmark, err := s.bookmarks.CreateBookmark(r.Context(), getUserID(r.Context()), service.CreateBookmarkInput{
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		TagIDs:      req.TagIDs,
		IconURL:     req.IconURL,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, bookmark, s.logger)
}

func (s *Server) handleUpdateBookmark(w http.ResponseWriter, r *http.Request) {
	var req updateBookmarkRequest
	if !s.decode(w, r, &req) {
		return
	}

	bookmark, err := s.bookmarks.UpdateBookmark(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id"), service.UpdateBookmarkInput{
		Title:       req.Title,
		Description: req.Description,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, bookmark, s.logger)
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	if err := s.bookmarks.DeleteBookmark(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleClick records a visit and returns the new count.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	bookmarkID := chi.URLParam(r, "id")

	count, err := s.bookmarks.RecordClick(r.Context(), getUserID(r.Context()), bookmarkID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, clickResponse{BookmarkID: bookmarkID, ClickCount: count}, s.logger)
}

// handleClickBatch flushes clicks the extension queued while offline.
// Stale IDs are skipped, not failed, so one deleted bookmark cannot
// wedge the whole queue.
func (s *Server) handleClickBatch(w http.ResponseWriter, r *http.Request) {
	var req clickBatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.bookmarks.RecordClicks(r.Context(), getUserID(r.Context()), req.BookmarkIDs); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleBookmarkIcon serves the cached favicon as a PNG. The blur hash
// rides along in a header so clients can paint a placeholder.
func (s *Server) handleBookmarkIcon(w http.ResponseWriter, r *http.Request) {
	icon, err := s.bookmarks.Icon(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if icon.BlurHash != "" {
		w.Header().Set("X-Blurhash", icon.BlurHash)
	}
	if _, err := w.Write(icon.PNG); err != nil {
		s.logger.Debug("Failed to write icon response", "error", err)
	}
}
