package api

import (
	"net/http"

	"github.com/pagetagz/pagetagz-server/internal/http/response"
)

// handleLogout revokes the session named by the bearer token.
// Revoking an already-revoked token succeeds so the extension can
// retry logout without special casing.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		response.Unauthorized(w, "authentication required", s.logger)
		return
	}

	if err := s.sessions.RevokeSession(r.Context(), token); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleGetCurrentUser returns the authenticated user's profile.
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "authentication required", s.logger)
		return
	}

	response.Success(w, user, s.logger)
}
