package client

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pagetagz/pagetagz-server/internal/domain"
)

// searchDebounceDelay matches the popup's input debounce.
const searchDebounceDelay = 300 * time.Millisecond

// Store is the in-memory cache of one user's tags and the bookmarks for
// the currently selected tag. Mutation operators are confirm-then-apply:
// the caller performs the server call first and applies the cache
// transform only after the server reported success, so no rollback
// logic exists.
//
// Invariants held after every operator:
//   - every tag's BookmarkCount tracks the number of the user's
//     bookmarks linked to it, even though only the selected tag's
//     bookmarks are materialized
//   - filteredBookmarks holds exactly the bookmarks whose TagIDs include
//     selectedTagID (all bookmarks when the selection is empty)
//   - searchResults is recomputed whenever filteredBookmarks or the
//     query changes, never mutated directly
//   - no tag or bookmark appears twice in any cache slice
type Store struct {
	gateway  Gateway
	notifier Notifier
	logger   *slog.Logger

	mu                sync.Mutex
	userTags          []domain.Tag
	filteredBookmarks []domain.Bookmark
	searchResults     []domain.Bookmark
	selectedTagID     string // "" is the "all bookmarks" sentinel
	searchQuery       string
	isLoading         bool

	// fetchToken orders bookmark fetches: a response is applied only if
	// its token is still the latest issued, so the newest selection wins
	// regardless of network completion order.
	fetchToken   uint64
	needsRefetch bool

	debouncer *Debouncer
}

// NewStore creates a store bound to the given gateway. A nil notifier
// discards notifications.
func NewStore(gateway Gateway, notifier Notifier, logger *slog.Logger) *Store {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		gateway:      gateway,
		notifier:     notifier,
		logger:       logger,
		isLoading:    true,
		needsRefetch: true,
		debouncer:    NewDebouncer(searchDebounceDelay),
	}
}

// Initialize loads the user's tags and selects the first one when
// nothing is selected yet. Fails soft: a fetch failure leaves the tag
// list empty and surfaces a notification instead of an error.
func (s *Store) Initialize(ctx context.Context) {
	tags, err := s.gateway.ListTags(ctx)

	s.mu.Lock()
	s.isLoading = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("Failed to load tags", "error", err)
		s.notifier.Notify("Failed to load tags")
		return
	}
	s.userTags = tags

	var first string
	if len(tags) > 0 && s.selectedTagID == "" {
		first = tags[0].ID
	}
	s.mu.Unlock()

	if first != "" {
		s.SelectTag(ctx, first)
	}
}

// SelectTag switches the view to tagID ("" for all bookmarks) and
// replaces filteredBookmarks from the server. Re-selecting the current
// tag with a fresh view is a no-op. Concurrent selections race on
// completion order, so each fetch carries a token and stale responses
// are discarded: the latest selection always wins.
func (s *Store) SelectTag(ctx context.Context, tagID string) {
	s.mu.Lock()
	if tagID == s.selectedTagID && !s.needsRefetch {
		s.mu.Unlock()
		return
	}
	s.selectedTagID = tagID
	s.isLoading = true
	s.fetchToken++
	token := s.fetchToken
	s.mu.Unlock()

	bookmarks, err := s.gateway.ListBookmarks(ctx, tagID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.fetchToken {
		// A later selection superseded this fetch.
		return
	}
	s.isLoading = false
	if err != nil {
		// The view still holds the previous tag's list; flag it stale so
		// re-selecting the same tag retries instead of short-circuiting.
		s.needsRefetch = true
		s.logger.Warn("Failed to load bookmarks", "tag", tagID, "error", err)
		s.notifier.Notify("Failed to load bookmarks")
		return
	}
	s.filteredBookmarks = bookmarks
	s.needsRefetch = false
	s.recomputeSearchLocked()
}

// AddBookmark applies a confirmed bookmark creation: the bookmark is
// prepended to the view when it belongs there, and every linked tag's
// count goes up by one. Not idempotent: the caller must apply each
// server confirmation exactly once.
func (s *Store) AddBookmark(bookmark domain.Bookmark, tagIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookmark.TagIDs = slices.Clone(tagIDs)
	if s.selectedTagID == "" || slices.Contains(tagIDs, s.selectedTagID) {
		s.filteredBookmarks = append([]domain.Bookmark{bookmark}, s.filteredBookmarks...)
	}
	for _, tagID := range tagIDs {
		s.adjustCountLocked(tagID, 1, false)
	}
	s.recomputeSearchLocked()
}

// RemoveBookmark applies a confirmed deletion. Counts are adjusted from
// the bookmark's last known tag set in the cache; when the bookmark was
// never materialized the whole call is a no-op.
func (s *Store) RemoveBookmark(bookmarkID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(bookmarkID)
	if idx < 0 {
		return
	}
	tagIDs := s.filteredBookmarks[idx].TagIDs
	s.filteredBookmarks = slices.Delete(s.filteredBookmarks, idx, idx+1)
	for _, tagID := range tagIDs {
		s.adjustCountLocked(tagID, -1, false)
	}
	s.recomputeSearchLocked()
}

// BookmarkPatch is a partial bookmark update. Nil fields are untouched.
type BookmarkPatch struct {
	Title       *string
	URL         *string
	Description *string
	Icon        *string
}

func (p BookmarkPatch) apply(b *domain.Bookmark) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.URL != nil {
		b.URL = *p.URL
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Icon != nil {
		b.Icon = *p.Icon
	}
}

// UpdateBookmark applies a confirmed edit. View membership follows the
// new tag set: losing the selected tag removes the bookmark from the
// view, gaining it prepends the bookmark, and otherwise the cached copy
// is replaced in place. Tag counts are adjusted globally for every
// added and removed tag, independent of view membership; counts only
// drift when the bookmark's prior tag state was never observed by this
// cache, an accepted gap since the old tag set is read from the cache
// rather than re-fetched.
func (s *Store) UpdateBookmark(bookmarkID string, patch BookmarkPatch, newTagIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(bookmarkID)
	var oldTagIDs []string
	if idx >= 0 {
		oldTagIDs = s.filteredBookmarks[idx].TagIDs
	}
	removedTags := difference(oldTagIDs, newTagIDs)
	addedTags := difference(newTagIDs, oldTagIDs)

	if s.selectedTagID != "" && slices.Contains(removedTags, s.selectedTagID) {
		// Losing the selected tag means losing visibility, whatever
		// else changed.
		if idx >= 0 {
			s.filteredBookmarks = slices.Delete(s.filteredBookmarks, idx, idx+1)
		}
	} else {
		shouldShow := s.selectedTagID == "" || slices.Contains(newTagIDs, s.selectedTagID)
		switch {
		case shouldShow && idx >= 0:
			b := s.filteredBookmarks[idx]
			patch.apply(&b)
			b.TagIDs = slices.Clone(newTagIDs)
			s.filteredBookmarks[idx] = b
		case shouldShow:
			b := domain.Bookmark{ID: bookmarkID, TagIDs: slices.Clone(newTagIDs)}
			patch.apply(&b)
			s.filteredBookmarks = append([]domain.Bookmark{b}, s.filteredBookmarks...)
		case idx >= 0:
			s.filteredBookmarks = slices.Delete(s.filteredBookmarks, idx, idx+1)
		}
	}

	// Counts are global, not view-scoped, so they move even when the
	// bookmark itself is not shown.
	for _, tagID := range removedTags {
		s.adjustCountLocked(tagID, -1, false)
	}
	for _, tagID := range addedTags {
		s.adjustCountLocked(tagID, 1, true)
	}
	s.recomputeSearchLocked()
}

// AddTag applies a confirmed tag creation. The first tag ever is
// auto-selected; its view is empty by construction, no fetch needed.
func (s *Store) AddTag(tag domain.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.userTags {
		if t.ID == tag.ID {
			return
		}
	}
	tag.BookmarkCount = 0
	wasEmpty := len(s.userTags) == 0
	s.userTags = append(s.userTags, tag)
	if wasEmpty {
		s.selectedTagID = tag.ID
		s.filteredBookmarks = nil
		s.needsRefetch = false
		s.recomputeSearchLocked()
	}
}

// TagPatch is a partial tag update. Nil fields are untouched.
type TagPatch struct {
	Name        *string
	Description *string
}

// UpdateTag merges a confirmed tag edit in place. Bookmark caches are
// unaffected.
func (s *Store) UpdateTag(tagID string, patch TagPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.userTags {
		if s.userTags[i].ID != tagID {
			continue
		}
		if patch.Name != nil {
			s.userTags[i].Name = *patch.Name
		}
		if patch.Description != nil {
			s.userTags[i].Description = *patch.Description
		}
		return
	}
}

// RemoveTag applies a confirmed tag deletion. Removing the selected tag
// moves the selection to the first remaining tag, or clears it when no
// tags are left; the bookmark view is cleared either way because the old
// list belongs to the dead selection and must be refetched.
func (s *Store) RemoveTag(tagID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userTags = slices.DeleteFunc(s.userTags, func(t domain.Tag) bool {
		return t.ID == tagID
	})

	if tagID != s.selectedTagID {
		return
	}
	if len(s.userTags) > 0 {
		s.selectedTagID = s.userTags[0].ID
	} else {
		s.selectedTagID = ""
	}
	s.filteredBookmarks = nil
	s.needsRefetch = true
	s.recomputeSearchLocked()
}

// SetSearchQuery updates the query and recomputes searchResults.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searchQuery = query
	s.recomputeSearchLocked()
}

// SetSearchQueryDebounced updates the query after the input has been
// quiet for the debounce window. Rapid typing resets the timer.
func (s *Store) SetSearchQueryDebounced(query string) {
	s.debouncer.Debounce(func() {
		s.SetSearchQuery(query)
	})
}

// RecordClick confirms a visit with the server and mirrors the returned
// count into the cache.
func (s *Store) RecordClick(ctx context.Context, bookmarkID string) {
	count, err := s.gateway.RecordClick(ctx, bookmarkID)
	if err != nil {
		s.logger.Warn("Failed to record click", "bookmark", bookmarkID, "error", err)
		s.notifier.Notify("Failed to record click")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOfLocked(bookmarkID); idx >= 0 {
		s.filteredBookmarks[idx].ClickCount = count
		s.recomputeSearchLocked()
	}
}

// OpenAllURLs returns the URLs of the current view, newest first, for
// the "open all tabs" command, and confirms a click for each. The URL
// list is returned even when the click batch fails; clicks are
// best-effort.
func (s *Store) OpenAllURLs(ctx context.Context) []string {
	s.mu.Lock()
	urls := make([]string, 0, len(s.filteredBookmarks))
	ids := make([]string, 0, len(s.filteredBookmarks))
	for _, b := range s.filteredBookmarks {
		urls = append(urls, b.URL)
		ids = append(ids, b.ID)
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	if err := s.gateway.RecordClickBatch(ctx, ids); err != nil {
		s.logger.Warn("Failed to record click batch", "error", err)
		s.notifier.Notify("Failed to record clicks")
		return urls
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.filteredBookmarks {
		s.filteredBookmarks[i].ClickCount++
	}
	s.recomputeSearchLocked()
	return urls
}

// Close releases the debounce timer.
func (s *Store) Close() {
	s.debouncer.Cancel()
}

// UserTags returns a copy of the cached tags.
func (s *Store) UserTags() []domain.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.userTags)
}

// FilteredBookmarks returns a copy of the bookmarks for the current
// selection.
func (s *Store) FilteredBookmarks() []domain.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.filteredBookmarks)
}

// SearchResults returns a copy of the bookmarks matching the current
// query. Empty while the query is blank; the presentation layer shows
// FilteredBookmarks directly in that case.
func (s *Store) SearchResults() []domain.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.searchResults)
}

// SelectedTagID returns the current selection, "" for the all view.
func (s *Store) SelectedTagID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedTagID
}

// SearchQuery returns the current query text.
func (s *Store) SearchQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchQuery
}

// IsLoading reports whether a tag or bookmark fetch is in flight.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

func (s *Store) indexOfLocked(bookmarkID string) int {
	return slices.IndexFunc(s.filteredBookmarks, func(b domain.Bookmark) bool {
		return b.ID == bookmarkID
	})
}

// adjustCountLocked moves a tag's bookmark count by delta, floored at
// zero. With createMissing, a tag the cache has never seen is created
// at zero first so the count still lands; the entry is filled in when
// the tag list is next refreshed.
func (s *Store) adjustCountLocked(tagID string, delta int, createMissing bool) {
	for i := range s.userTags {
		if s.userTags[i].ID != tagID {
			continue
		}
		s.userTags[i].BookmarkCount = max(s.userTags[i].BookmarkCount+delta, 0)
		return
	}
	if createMissing && delta > 0 {
		s.userTags = append(s.userTags, domain.Tag{ID: tagID, BookmarkCount: delta})
	}
}

// difference returns the elements of a not present in b, in order.
func difference(a, b []string) []string {
	var out []string
	for _, v := range a {
		if !slices.Contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}
