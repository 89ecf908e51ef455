package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	"github.com/pagetagz/pagetagz-server/internal/http/response"
)

type contextKey string

const (
	contextKeyUserID contextKey = "userID"
	contextKeyUser   contextKey = "user"
)

// requireAuth validates the bearer token and attaches the user to the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.sessions.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			response.Unauthorized(w, "authentication required", s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, user.ID)
		ctx = context.WithValue(ctx, contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header.
// The event stream also accepts ?token= because EventSource cannot set headers.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// getUserID retrieves the authenticated user ID from the context.
func getUserID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyUserID).(string)
	return id
}

// getUser retrieves the authenticated user from the context.
func getUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(contextKeyUser).(*domain.User)
	return user
}
