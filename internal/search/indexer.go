package search

import (
	"context"

	"github.com/pagetagz/pagetagz-server/internal/domain"
)

// StoreIndexer adapts Index to the store.SearchIndexer interface so the
// persistence layer can keep the full-text index in sync on mutations.
type StoreIndexer struct {
	index *Index
}

// NewStoreIndexer wraps an Index for store integration.
func NewStoreIndexer(index *Index) *StoreIndexer {
	return &StoreIndexer{index: index}
}

// IndexBookmark adds or replaces a bookmark in the index.
func (si *StoreIndexer) IndexBookmark(_ context.Context, b *domain.Bookmark) error {
	return si.index.IndexDocument(BookmarkToDocument(b))
}

// DeleteBookmark removes a bookmark from the index.
func (si *StoreIndexer) DeleteBookmark(_ context.Context, bookmarkID string) error {
	return si.index.DeleteDocument(bookmarkID)
}
