package api

import (
	"net/http"

	"github.com/pagetagz/pagetagz-server/internal/http/response"
)

type capturePageRequest struct {
	URL string `json:"url" validate:"required,url,max=2048"`
}

// handleCapturePage fetches a page's title, description and icon URL so
// the extension can prefill the save form. Rate limited per user.
func (s *Server) handleCapturePage(w http.ResponseWriter, r *http.Request) {
	var req capturePageRequest
	if !s.decode(w, r, &req) {
		return
	}

	meta, err := s.pages.Capture(r.Context(), getUserID(r.Context()), req.URL)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, meta, s.logger)
}
