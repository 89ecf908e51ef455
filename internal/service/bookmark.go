package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	domainerrors "github.com/pagetagz/pagetagz-server/internal/errors"
	"github.com/pagetagz/pagetagz-server/internal/icons"
	"github.com/pagetagz/pagetagz-server/internal/id"
	"github.com/pagetagz/pagetagz-server/internal/search"
	"github.com/pagetagz/pagetagz-server/internal/sse"
	"github.com/pagetagz/pagetagz-server/internal/store"
)

// iconFetchTimeout bounds the background favicon fetch spawned on create.
const iconFetchTimeout = 30 * time.Second

// BookmarkService orchestrates bookmark CRUD, click tracking and search.
type BookmarkService struct {
	store       store.Store
	emitter     store.EventEmitter
	searchIndex *search.Index
	icons       *icons.Service
	logger      *slog.Logger
}

// NewBookmarkService creates a new bookmark service.
// searchIndex and iconService may be nil; search and icon lookups then
// report unavailable instead of failing at startup.
func NewBookmarkService(
	st store.Store,
	emitter store.EventEmitter,
	searchIndex *search.Index,
	iconService *icons.Service,
	logger *slog.Logger,
) *BookmarkService {
	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}
	return &BookmarkService{
		store:       st,
		emitter:     emitter,
		searchIndex: searchIndex,
		icons:       iconService,
		logger:      logger,
	}
}

// CreateBookmarkInput is the payload for CreateBookmark.
type CreateBookmarkInput struct {
	URL         string
	Title       string
	Description string
	TagIDs      []string
	// IconURL is where the favicon lives, usually discovered by capture.
	// Empty means fall back to /favicon.ico on the bookmark's host.
	IconURL string
}

// UpdateBookmarkInput is the payload for UpdateBookmark.
type UpdateBookmarkInput struct {
	Title       string
	Description string
	TagIDs      []string
}

// ListBookmarks returns the user's bookmarks, optionally filtered to one
// tag, newest first.
func (s *BookmarkService) ListBookmarks(ctx context.Context, userID, tagID string) ([]*domain.Bookmark, error) {
	var (
		bookmarks []*domain.Bookmark
		err       error
	)
	if tagID == "" {
		bookmarks, err = s.store.ListBookmarks(ctx, userID)
	} else {
		bookmarks, err = s.store.ListBookmarksByTag(ctx, userID, tagID)
	}
	if err != nil {
		return nil, domainerrors.Database("list bookmarks", err)
	}
	return bookmarks, nil
}

// GetBookmark returns one bookmark by ID.
func (s *BookmarkService) GetBookmark(ctx context.Context, userID, bookmarkID string) (*domain.Bookmark, error) {
	bookmark, err := s.store.GetBookmark(ctx, userID, bookmarkID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.BookmarkNotFound(fmt.Sprintf("bookmark %s not found", bookmarkID))
	}
	if err != nil {
		return nil, domainerrors.Database("get bookmark", err)
	}
	return bookmark, nil
}

// CheckURL reports whether the user already bookmarked a URL.
// Returns nil without error when the URL is unknown.
func (s *BookmarkService) CheckURL(ctx context.Context, userID, rawURL string) (*domain.Bookmark, error) {
	bookmark, err := s.store.GetBookmarkByURL(ctx, userID, rawURL)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domainerrors.Database("check url", err)
	}
	return bookmark, nil
}

// CreateBookmark creates a bookmark under at least one tag.
// The favicon fetch happens in the background so saving stays fast.
func (s *BookmarkService) CreateBookmark(ctx context.Context, userID string, input CreateBookmarkInput) (*domain.Bookmark, error) {
	rawURL := strings.TrimSpace(input.URL)
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, domainerrors.Validation("a valid http(s) url is required")
	}
	if len(input.TagIDs) == 0 {
		return nil, domainerrors.Validation("at least one tag is required")
	}

	// Every referenced tag must exist and belong to the user.
	for _, tagID := range input.TagIDs {
		if _, err := s.store.GetTag(ctx, userID, tagID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.TagNotFound(fmt.Sprintf("tag %s not found", tagID))
			}
			return nil, domainerrors.Database("verify tag", err)
		}
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = rawURL
	}

	bookmarkID, err := id.Generate(id.PrefixBookmark)
	if err != nil {
		return nil, fmt.Errorf("generate bookmark id: %w", err)
	}

	now := time.Now()
	bookmark := &domain.Bookmark{
		ID:          bookmarkID,
		UserID:      userID,
		URL:         rawURL,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		TagIDs:      input.TagIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateBookmark(ctx, bookmark); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.DuplicateBookmark(fmt.Sprintf("url %q is already bookmarked", rawURL))
		case errors.Is(err, store.ErrInvalidInput):
			return nil, domainerrors.Validation("at least one tag is required")
		default:
			return nil, domainerrors.Database("create bookmark", err)
		}
	}

	s.emitter.Emit(sse.NewBookmarkEvent(sse.EventBookmarkCreated, userID, bookmark))
	s.logger.Info("bookmark created", "bookmark_id", bookmark.ID, "user_id", userID, "url", rawURL)

	s.fetchIconAsync(userID, bookmark.ID, parsed, input.IconURL)

	return bookmark, nil
}

// UpdateBookmark edits a bookmark's title, description and tag set.
func (s *BookmarkService) UpdateBookmark(ctx context.Context, userID, bookmarkID string, input UpdateBookmarkInput) (*domain.Bookmark, error) {
	if len(input.TagIDs) == 0 {
		return nil, domainerrors.Validation("at least one tag is required")
	}
	for _, tagID := range input.TagIDs {
		if _, err := s.store.GetTag(ctx, userID, tagID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.TagNotFound(fmt.Sprintf("tag %s not found", tagID))
			}
			return nil, domainerrors.Database("verify tag", err)
		}
	}

	bookmark, err := s.GetBookmark(ctx, userID, bookmarkID)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		bookmark.Title = title
	}
	bookmark.Description = strings.TrimSpace(input.Description)
	bookmark.TagIDs = input.TagIDs
	bookmark.Touch()

	if err := s.store.UpdateBookmark(ctx, bookmark); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.BookmarkNotFound(fmt.Sprintf("bookmark %s not found", bookmarkID))
		}
		return nil, domainerrors.Database("update bookmark", err)
	}

	s.emitter.Emit(sse.NewBookmarkEvent(sse.EventBookmarkUpdated, userID, bookmark))
	s.logger.Info("bookmark updated", "bookmark_id", bookmarkID, "user_id", userID)

	return bookmark, nil
}

// DeleteBookmark removes a bookmark.
func (s *BookmarkService) DeleteBookmark(ctx context.Context, userID, bookmarkID string) error {
	if err := s.store.DeleteBookmark(ctx, userID, bookmarkID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.BookmarkNotFound(fmt.Sprintf("bookmark %s not found", bookmarkID))
		}
		return domainerrors.Database("delete bookmark", err)
	}

	s.emitter.Emit(sse.NewBookmarkDeletedEvent(userID, bookmarkID))
	s.logger.Info("bookmark deleted", "bookmark_id", bookmarkID, "user_id", userID)

	return nil
}

// RecordClick increments a bookmark's click count and returns the new count.
func (s *BookmarkService) RecordClick(ctx context.Context, userID, bookmarkID string) (int, error) {
	count, err := s.store.IncrementClickCount(ctx, userID, bookmarkID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, domainerrors.BookmarkNotFound(fmt.Sprintf("bookmark %s not found", bookmarkID))
	}
	if err != nil {
		return 0, domainerrors.Database("record click", err)
	}

	s.emitter.Emit(sse.NewBookmarkClickedEvent(userID, bookmarkID, int64(count)))

	return count, nil
}

// RecordClicks increments counts for a batch of bookmarks, used by the
// "open all" action. Unknown IDs are skipped.
func (s *BookmarkService) RecordClicks(ctx context.Context, userID string, bookmarkIDs []string) error {
	if len(bookmarkIDs) == 0 {
		return nil
	}
	if err := s.store.IncrementClickCounts(ctx, userID, bookmarkIDs); err != nil {
		return domainerrors.Database("record clicks", err)
	}
	return nil
}

// Search runs a full-text query over the user's bookmarks.
func (s *BookmarkService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if s.searchIndex == nil {
		return nil, domainerrors.Database("search index unavailable", nil)
	}
	result, err := s.searchIndex.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.Database("search bookmarks", err)
	}
	return result, nil
}

// Icon returns the cached favicon for a bookmark's host.
func (s *BookmarkService) Icon(ctx context.Context, userID, bookmarkID string) (*icons.Icon, error) {
	if s.icons == nil {
		return nil, domainerrors.BookmarkNotFound("icon service unavailable")
	}

	bookmark, err := s.GetBookmark(ctx, userID, bookmarkID)
	if err != nil {
		return nil, err
	}
	if bookmark.Icon == "" {
		return nil, domainerrors.BookmarkNotFound("icon not available yet")
	}

	icon, err := s.icons.Cached(bookmark.Icon)
	if errors.Is(err, icons.ErrNotCached) {
		return nil, domainerrors.BookmarkNotFound("icon not available yet")
	}
	if err != nil {
		return nil, domainerrors.Database("read icon cache", err)
	}
	return icon, nil
}

// Reindex rebuilds the search index from the store. Called at startup so
// search survives index format changes.
func (s *BookmarkService) Reindex(ctx context.Context, userIDs []string) error {
	if s.searchIndex == nil {
		return nil
	}

	var docs []*search.BookmarkDocument
	for _, userID := range userIDs {
		bookmarks, err := s.store.ListBookmarks(ctx, userID)
		if err != nil {
			return domainerrors.Database("list bookmarks for reindex", err)
		}
		for _, b := range bookmarks {
			docs = append(docs, search.BookmarkToDocument(b))
		}
	}

	if err := s.searchIndex.IndexDocuments(docs); err != nil {
		return domainerrors.Database("reindex bookmarks", err)
	}

	s.logger.Info("search reindex complete", "documents", len(docs))
	return nil
}

// fetchIconAsync resolves and caches the favicon for a new bookmark, then
// records the cache key on the bookmark row. Failures only log; the
// bookmark simply renders without an icon.
func (s *BookmarkService) fetchIconAsync(userID, bookmarkID string, pageURL *url.URL, iconURL string) {
	if s.icons == nil {
		return
	}

	host := strings.TrimPrefix(pageURL.Hostname(), "www.")
	if iconURL == "" {
		iconURL = pageURL.Scheme + "://" + pageURL.Host + "/favicon.ico"
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), iconFetchTimeout)
		defer cancel()

		if _, err := s.icons.Get(ctx, host, iconURL); err != nil {
			s.logger.Debug("favicon fetch failed", "host", host, "error", err)
			return
		}

		if err := s.store.SetBookmarkIcon(ctx, userID, bookmarkID, host); err != nil {
			s.logger.Warn("failed to record bookmark icon", "bookmark_id", bookmarkID, "error", err)
		}
	}()
}
