// Package service orchestrates domain operations between the HTTP layer
// and the store, translating store sentinels into coded domain errors and
// emitting SSE events on mutations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	domainerrors "github.com/pagetagz/pagetagz-server/internal/errors"
	"github.com/pagetagz/pagetagz-server/internal/id"
	"github.com/pagetagz/pagetagz-server/internal/store"
)

// sessionTTL is how long an issued token stays valid.
const sessionTTL = 30 * 24 * time.Hour

// SessionService manages opaque bearer tokens for the browser extension.
// Tokens are random UUIDs looked up in the store on every request.
type SessionService struct {
	store  store.Store
	logger *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(st store.Store, logger *slog.Logger) *SessionService {
	return &SessionService{store: st, logger: logger}
}

// SessionResponse carries the token back to the client exactly once,
// at creation time.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// CreateSession issues a new bearer token for the user.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User) (*SessionResponse, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, domainerrors.Database("create session", err)
	}

	s.logger.Info("session created", "session_id", sessionID, "user_id", user.ID)

	return &SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		UserID:    user.ID,
	}, nil
}

// Authenticate resolves a bearer token to its user.
// Expired or unknown tokens return an unauthorized error.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domainerrors.Unauthorized("missing token")
	}

	session, err := s.store.GetSessionByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthorized("invalid token")
	}
	if err != nil {
		return nil, domainerrors.Database("look up session", err)
	}

	if session.IsExpired() {
		// Best effort cleanup; the sweeper catches stragglers.
		if delErr := s.store.DeleteSession(ctx, session.ID); delErr != nil {
			s.logger.Warn("failed to delete expired session", "session_id", session.ID, "error", delErr)
		}
		return nil, domainerrors.Unauthorized("token expired")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthorized("user no longer exists")
	}
	if err != nil {
		return nil, domainerrors.Database("look up user", err)
	}

	return user, nil
}

// RevokeSession deletes the session belonging to a token.
func (s *SessionService) RevokeSession(ctx context.Context, token string) error {
	session, err := s.store.GetSessionByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil // Already gone
	}
	if err != nil {
		return domainerrors.Database("look up session", err)
	}

	if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return domainerrors.Database("delete session", err)
	}

	s.logger.Info("session revoked", "session_id", session.ID)
	return nil
}

// StartCleanup runs an hourly sweep of expired sessions until ctx ends.
func (s *SessionService) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.store.DeleteExpiredSessions(ctx)
			if err != nil {
				s.logger.Warn("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("expired sessions removed", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
