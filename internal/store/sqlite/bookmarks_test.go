package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	"github.com/pagetagz/pagetagz-server/internal/store"
)

// makeTestBookmark creates a domain.Bookmark with sensible defaults.
// The referenced tags must already exist.
func makeTestBookmark(bookmarkID, userID, url string, tagIDs []string) *domain.Bookmark {
	now := time.Now()
	return &domain.Bookmark{
		ID:        bookmarkID,
		UserID:    userID,
		URL:       url,
		Title:     "Example",
		TagIDs:    tagIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// setupBookmarkTest creates a user with two tags.
func setupBookmarkTest(t *testing.T) (*Store, *domain.User) {
	t.Helper()
	s := newTestStore(t)
	user := makeTestUser(t, s)
	ctx := context.Background()
	if err := s.CreateTag(ctx, makeTestTag("tag-1", user.ID, "Work")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := s.CreateTag(ctx, makeTestTag("tag-2", user.ID, "News")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	return s, user
}

func TestCreateAndGetBookmark(t *testing.T) {
	s, user := setupBookmarkTest(t)
	ctx := context.Background()

	b := makeTestBookmark("bm-1", user.ID, "https://github.com", []string{"tag-1", "tag-2"})
	b.Title = "GitHub"
	b.Description = "Where code lives"

	if err := s.CreateBookmark(ctx, b); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	got, err := s.GetBookmark(ctx, user.ID, "bm-1")
	if err != nil {
		t.Fatalf("GetBookmark: %v", err)
	}

	if got.URL != b.URL {
		t.Errorf("URL: got %q, want %q", got.URL, b.URL)
	}
	if got.Title != "GitHub" {
		t.Errorf("Title: got %q, want %q", got.Title, "GitHub")
	}
	if got.ClickCount != 0 {
		t.Errorf("ClickCount: got %d, want 0", got.ClickCount)
	}
	if len(got.TagIDs) != 2 {
		t.Fatalf("TagIDs: got %v, want 2 entries", got.TagIDs)
	}
}

func TestCreateBookmark_NoTags(t *testing.T) {
	s, user := setupBookmarkTest(t)

	b := makeTestBookmark("bm-1", user.ID, "https://example.com", nil)
	err := s.CreateBookmark(context.Background(), b)
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateBookmark_DuplicateURL(t *testing.T) {
	s, user := setupBookmarkTest(t)
	ctx := context.Background()

	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-1", user.ID, "https://example.com", []string{"tag-1"})); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	err := s.CreateBookmark(ctx, makeTestBookmark("bm-2", user.ID, "https://example.com", []string{"tag-2"}))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// The failed insert must not leave orphaned tag links behind.
	var links int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM bookmark_tags WHERE bookmark_id = 'bm-2'`).Scan(&links); err != nil {
		t.Fatalf("count links: %v", err)
	}
	if links != 0 {
		t.Errorf("expected 0 orphaned links, got %d", links)
	}
}

func TestGetBookmarkByURL(t *testing.T) {
	s, user := setupBookmarkTest(t)
	ctx := context.Background()

	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-1", user.ID, "https://example.com", []string{"tag-1"})); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	got, err := s.GetBookmarkByURL(ctx, user.ID, "https://example.com")
	if err != nil {
		t.Fatalf("GetBookmarkByURL: %v", err)
	}
	if got.ID != "bm-1" {
		t.Errorf("ID: got %q, want bm-1", got.ID)
	}

	_, err = s.GetBookmarkByURL(ctx, user.ID, "https://missing.example.com")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListBookmarksByTag(t *testing.T) {
	s, user := setupBookmarkTest(t)
	ctx := context.Background()

	work := makeTestBookmark("bm-work", user.ID, "https://work.example.com", []string{"tag-1"})
	work.CreatedAt = time.Now().Add(-time.Hour)
	both := makeTestBookmark("bm-both", user.ID, "https://both.example.com", []string{"tag-1", "tag-2"})
	news := makeTestBookmark("bm-news", user.ID, "https://news.example.com", []string{"tag-2"})

	for _, b := range []*domain.Bookmark{work, both, news} {
		if err := s.CreateBookmark(ctx, b); err != nil {
			t.Fatalf("CreateBookmark %s: %v", b.ID, err)
		}
	}

	got, err := s.ListBookmarksByTag(ctx, user.ID, "tag-1")
	if err != nil {
		t.Fatalf("ListBookmarksByTag: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bookmarks, got %d", len(got))
	}
	// Newest first.
	if got[0].ID != "bm-both" || got[1].ID != "bm-work" {
		t.Errorf("order: got [%s, %s], want [bm-both, bm-work]", got[0].ID, got[1].ID)
	}
	// Tag IDs are fully resolved, not just the filter tag.
	if len(got[0].TagIDs) != 2 {
		t.Errorf("bm-both TagIDs: got %v, want 2 entries", got[0].TagIDs)
	}
}

func TestListBookmarks_All(t *testing.T) {
	s, user := setupBookmarkTest(t)
	ctx := context.Background()

	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-1", user.ID, "https://a.example.com", []string{"tag-1"})); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}
	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-2", user.ID, "https://b.example.com", []string{"tag-2"})); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	got, err := s.ListBookmarks(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListBookmarks: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 bookmarks, got %d", len(got))
	}
}

func TestUpdateBookmark_ReplacesTags(t *testing.T) {
	s, user := setupBookmarkTest(t)
	ctx := context.Background()

	b := makeTestBookmark("bm-1", user.ID, "https://example.com", []string{"tag-1"})
	if err := s.CreateBookmark(ctx, b); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	b.Title = "Updated"
	b.TagIDs = []string{"tag-2"}
	b.Touch()
	if err := s.UpdateBookmark(ctx, b); err != nil {
		t.Fatalf("UpdateBookmark: %v", err)
	}

	got, err := s.GetBookmark(ctx, user.ID, "bm-1")
	if err != nil {
		t.Fatalf("GetBookmark: %v", err)
	}
	if got.Title != "Updated" {
		t.Errorf("Title: got %q, want Updated", got.Title)
	}
	if len(got.TagIDs) != 1 || got.TagIDs[0] != "tag-2" {
		t.Errorf("TagIDs: got %v, want [tag-2]", got.TagIDs)
	}
}

func TestUpdateBookmark_NotFound(t *testing.T) {
	s, user := setupBookmarkTest(t)

	b := makeTestBookmark("bm-ghost", user.ID, "https://ghost.example.com", []string{"tag-1"})
	err := s.UpdateBookmark(context.Background(), b)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBookmark(t *testing.T) {
	s, user := setupBookmarkTest(t)
	ctx := context.Background()

	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-1", user.ID, "https://example.com", []string{"tag-1"})); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	if err := s.DeleteBookmark(ctx, user.ID, "bm-1"); err != nil {
		t.Fatalf("DeleteBookmark: %v", err)
	}

	_, err := s.GetBookmark(ctx, user.ID, "bm-1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Links cascaded.
	var links int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM bookmark_tags WHERE bookmark_id = 'bm-1'`).Scan(&links); err != nil {
		t.Fatalf("count links: %v", err)
	}
	if links != 0 {
		t.Errorf("expected 0 links after cascade, got %d", links)
	}
}

func TestIncrementClickCount(t *testing.T) {
	s, user := setupBookmarkTest(t)
	ctx := context.Background()

	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-1", user.ID, "https://example.com", []string{"tag-1"})); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	count, err := s.IncrementClickCount(ctx, user.ID, "bm-1")
	if err != nil {
		t.Fatalf("IncrementClickCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count: got %d, want 1", count)
	}

	count, err = s.IncrementClickCount(ctx, user.ID, "bm-1")
	if err != nil {
		t.Fatalf("IncrementClickCount: %v", err)
	}
	if count != 2 {
		t.Errorf("count: got %d, want 2", count)
	}

	_, err = s.IncrementClickCount(ctx, user.ID, "bm-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementClickCounts_Batch(t *testing.T) {
	s, user := setupBookmarkTest(t)
	ctx := context.Background()

	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-1", user.ID, "https://a.example.com", []string{"tag-1"})); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}
	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-2", user.ID, "https://b.example.com", []string{"tag-1"})); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	// Stale IDs are skipped, not errors.
	if err := s.IncrementClickCounts(ctx, user.ID, []string{"bm-1", "bm-2", "bm-stale"}); err != nil {
		t.Fatalf("IncrementClickCounts: %v", err)
	}

	for _, bookmarkID := range []string{"bm-1", "bm-2"} {
		got, err := s.GetBookmark(ctx, user.ID, bookmarkID)
		if err != nil {
			t.Fatalf("GetBookmark: %v", err)
		}
		if got.ClickCount != 1 {
			t.Errorf("%s ClickCount: got %d, want 1", bookmarkID, got.ClickCount)
		}
	}
}
