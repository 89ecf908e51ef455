package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagetagz/pagetagz-server/internal/http/response"
)

type createTagRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=500"`
}

type updateTagRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=500"`
}

// handleListTags returns all of the user's tags with bookmark counts.
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.ListTags(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, tags, s.logger)
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := s.tags.GetTag(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, tag, s.logger)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if !s.decode(w, r, &req) {
		return
	}

	tag, err := s.tags.CreateTag(r.Context(), getUserID(r.Context()), req.Name, req.Description)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, tag, s.logger)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	var req updateTagRequest
	if !s.decode(w, r, &req) {
		return
	}

	tag, err := s.tags.UpdateTag(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, tag, s.logger)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.tags.DeleteTag(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// decode unmarshals and validates a JSON request body. On failure it
// has already written the error response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return false
	}
	if err := s.validator.Validate(dst); err != nil {
		response.HandleError(w, err, s.logger)
		return false
	}
	return true
}
