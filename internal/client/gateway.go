// Package client implements the extension-side data store: an in-memory
// cache of the signed-in user's tags and the bookmarks for the selected
// tag, kept consistent under confirm-then-apply mutations without
// re-fetching full state.
package client

import (
	"context"

	"github.com/pagetagz/pagetagz-server/internal/domain"
)

// Gateway is the network boundary the store depends on. Implementations
// are scoped to one authenticated user; the store never sees cross-user
// data.
type Gateway interface {
	// ListTags returns the user's tags ordered newest-first with
	// resolved bookmark counts.
	ListTags(ctx context.Context) ([]domain.Tag, error)

	// ListBookmarks returns the bookmarks linked to tagID with resolved
	// tag IDs. An empty tagID lists all of the user's bookmarks.
	ListBookmarks(ctx context.Context, tagID string) ([]domain.Bookmark, error)

	// RecordClick confirms a single visit and returns the new count.
	RecordClick(ctx context.Context, bookmarkID string) (int, error)

	// RecordClickBatch confirms a batch of visits. Stale IDs are
	// skipped server-side, never failed.
	RecordClickBatch(ctx context.Context, bookmarkIDs []string) error
}

// Notifier receives non-fatal, user-facing notifications. Fetch
// failures surface here; the cache keeps its last-known-good state.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string) { f(message) }

// NoopNotifier discards all notifications.
type NoopNotifier struct{}

// Notify implements Notifier as a no-op.
func (NoopNotifier) Notify(string) {}
