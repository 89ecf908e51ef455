package api

import (
	"net/http"
	"strconv"

	"github.com/pagetagz/pagetagz-server/internal/http/response"
	"github.com/pagetagz/pagetagz-server/internal/search"
)

const maxSearchLimit = 200

// handleSearch runs a full-text query over the user's bookmarks.
// Query parameters: q, tag, limit, offset, sort (relevance|recent|clicks|title).
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := search.DefaultParams(getUserID(r.Context()))
	params.Query = q.Get("q")
	params.TagID = q.Get("tag")

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			response.BadRequest(w, "limit must be a positive integer", s.logger)
			return
		}
		params.Limit = min(limit, maxSearchLimit)
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			response.BadRequest(w, "offset must be a non-negative integer", s.logger)
			return
		}
		params.Offset = offset
	}
	if sortBy := q.Get("sort"); sortBy != "" {
		switch sortBy {
		case "relevance", "recent", "clicks", "title":
			params.SortBy = sortBy
		default:
			response.BadRequest(w, "sort must be one of relevance, recent, clicks, title", s.logger)
			return
		}
	}

	result, err := s.bookmarks.Search(r.Context(), params)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}
