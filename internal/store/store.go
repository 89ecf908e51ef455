// Package store defines the persistence interface for the PageTagz server.
package store

import (
	"context"

	"github.com/pagetagz/pagetagz-server/internal/domain"
)

// EventEmitter is the interface for emitting extension-bridge events.
// The store uses this to broadcast changes without depending on the SSE
// implementation.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer is the interface for updating the full-text index.
// The store uses this to keep search in sync without depending on the
// search implementation.
type SearchIndexer interface {
	IndexBookmark(ctx context.Context, b *domain.Bookmark) error
	DeleteBookmark(ctx context.Context, bookmarkID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexBookmark is a no-op.
func (NoopSearchIndexer) IndexBookmark(context.Context, *domain.Bookmark) error { return nil }

// DeleteBookmark is a no-op.
func (NoopSearchIndexer) DeleteBookmark(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store defines the interface for all persistence operations.
// Every read and mutation is scoped to an owning user; implementations
// must never return cross-user rows.
type Store interface {
	// Lifecycle
	Close() error
	SetSearchIndexer(indexer SearchIndexer)
	SetEventEmitter(emitter EventEmitter)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSessionByToken(ctx context.Context, token string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error)
	GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error)
	ListTags(ctx context.Context, userID string) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, tag *domain.Tag) error
	DeleteTag(ctx context.Context, userID, tagID string) error

	// Bookmarks
	CreateBookmark(ctx context.Context, bookmark *domain.Bookmark) error
	GetBookmark(ctx context.Context, userID, bookmarkID string) (*domain.Bookmark, error)
	GetBookmarkByURL(ctx context.Context, userID, url string) (*domain.Bookmark, error)
	ListBookmarks(ctx context.Context, userID string) ([]*domain.Bookmark, error)
	ListBookmarksByTag(ctx context.Context, userID, tagID string) ([]*domain.Bookmark, error)
	UpdateBookmark(ctx context.Context, bookmark *domain.Bookmark) error
	SetBookmarkTags(ctx context.Context, userID, bookmarkID string, tagIDs []string) error
	DeleteBookmark(ctx context.Context, userID, bookmarkID string) error
	IncrementClickCount(ctx context.Context, userID, bookmarkID string) (int, error)
	IncrementClickCounts(ctx context.Context, userID string, bookmarkIDs []string) error
	SetBookmarkIcon(ctx context.Context, userID, bookmarkID, icon string) error
}
