package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	"github.com/pagetagz/pagetagz-server/internal/store"
)

// makeTestTag creates a domain.Tag with sensible defaults for testing.
func makeTestTag(tagID, userID, name string) *domain.Tag {
	now := time.Now()
	return &domain.Tag{
		ID:        tagID,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := makeTestUser(t, s)

	tag := makeTestTag("tag-1", user.ID, "Work")
	tag.Description = "Work-related pages"

	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTag(ctx, user.ID, "tag-1")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}

	if got.ID != tag.ID {
		t.Errorf("ID: got %q, want %q", got.ID, tag.ID)
	}
	if got.Name != tag.Name {
		t.Errorf("Name: got %q, want %q", got.Name, tag.Name)
	}
	if got.Description != tag.Description {
		t.Errorf("Description: got %q, want %q", got.Description, tag.Description)
	}
	if got.BookmarkCount != 0 {
		t.Errorf("BookmarkCount: got %d, want 0", got.BookmarkCount)
	}

	// Timestamps round-trip through RFC3339Nano.
	if got.CreatedAt.Unix() != tag.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, tag.CreatedAt)
	}
}

func TestCreateTag_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := makeTestUser(t, s)

	if err := s.CreateTag(ctx, makeTestTag("tag-1", user.ID, "Work")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	err := s.CreateTag(ctx, makeTestTag("tag-2", user.ID, "Work"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateTag_SameNameDifferentUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := makeTestUser(t, s)
	bob := makeTestUser(t, s)

	if err := s.CreateTag(ctx, makeTestTag("tag-a", alice.ID, "Work")); err != nil {
		t.Fatalf("CreateTag alice: %v", err)
	}
	// Name uniqueness is per user, not global.
	if err := s.CreateTag(ctx, makeTestTag("tag-b", bob.ID, "Work")); err != nil {
		t.Errorf("CreateTag bob: %v", err)
	}
}

func TestGetTag_NotFound(t *testing.T) {
	s := newTestStore(t)
	user := makeTestUser(t, s)

	_, err := s.GetTag(context.Background(), user.ID, "tag-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTag_WrongUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := makeTestUser(t, s)
	bob := makeTestUser(t, s)

	if err := s.CreateTag(ctx, makeTestTag("tag-1", alice.ID, "Work")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	_, err := s.GetTag(ctx, bob.ID, "tag-1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for cross-user read, got %v", err)
	}
}

func TestListTags_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := makeTestUser(t, s)

	older := makeTestTag("tag-old", user.ID, "Old")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := makeTestTag("tag-new", user.ID, "New")

	if err := s.CreateTag(ctx, older); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := s.CreateTag(ctx, newer); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	tags, err := s.ListTags(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	if tags[0].ID != "tag-new" || tags[1].ID != "tag-old" {
		t.Errorf("expected newest-first order, got [%s, %s]", tags[0].ID, tags[1].ID)
	}
}

func TestListTags_Empty(t *testing.T) {
	s := newTestStore(t)
	user := makeTestUser(t, s)

	tags, err := s.ListTags(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if tags == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(tags) != 0 {
		t.Errorf("expected 0 tags, got %d", len(tags))
	}
}

func TestListTags_BookmarkCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := makeTestUser(t, s)

	if err := s.CreateTag(ctx, makeTestTag("tag-1", user.ID, "Work")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := s.CreateTag(ctx, makeTestTag("tag-2", user.ID, "News")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	b := makeTestBookmark("bm-1", user.ID, "https://example.com", []string{"tag-1", "tag-2"})
	if err := s.CreateBookmark(ctx, b); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}
	b2 := makeTestBookmark("bm-2", user.ID, "https://example.org", []string{"tag-1"})
	if err := s.CreateBookmark(ctx, b2); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	tags, err := s.ListTags(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}

	counts := map[string]int{}
	for _, tag := range tags {
		counts[tag.ID] = tag.BookmarkCount
	}
	if counts["tag-1"] != 2 {
		t.Errorf("tag-1 count: got %d, want 2", counts["tag-1"])
	}
	if counts["tag-2"] != 1 {
		t.Errorf("tag-2 count: got %d, want 1", counts["tag-2"])
	}
}

func TestUpdateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := makeTestUser(t, s)

	tag := makeTestTag("tag-1", user.ID, "Work")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	tag.Name = "Projects"
	tag.Description = "Renamed"
	tag.Touch()
	if err := s.UpdateTag(ctx, tag); err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}

	got, err := s.GetTag(ctx, user.ID, "tag-1")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if got.Name != "Projects" {
		t.Errorf("Name: got %q, want %q", got.Name, "Projects")
	}
	if got.Description != "Renamed" {
		t.Errorf("Description: got %q, want %q", got.Description, "Renamed")
	}
}

func TestUpdateTag_NotFound(t *testing.T) {
	s := newTestStore(t)
	user := makeTestUser(t, s)

	tag := makeTestTag("tag-ghost", user.ID, "Ghost")
	err := s.UpdateTag(context.Background(), tag)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTag_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := makeTestUser(t, s)

	if err := s.CreateTag(ctx, makeTestTag("tag-1", user.ID, "Work")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	other := makeTestTag("tag-2", user.ID, "News")
	if err := s.CreateTag(ctx, other); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	other.Name = "Work"
	err := s.UpdateTag(ctx, other)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestDeleteTag_CascadesLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := makeTestUser(t, s)

	if err := s.CreateTag(ctx, makeTestTag("tag-1", user.ID, "Work")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := s.CreateTag(ctx, makeTestTag("tag-2", user.ID, "News")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	b := makeTestBookmark("bm-1", user.ID, "https://example.com", []string{"tag-1", "tag-2"})
	if err := s.CreateBookmark(ctx, b); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	if err := s.DeleteTag(ctx, user.ID, "tag-1"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	// The bookmark survives with the remaining tag.
	got, err := s.GetBookmark(ctx, user.ID, "bm-1")
	if err != nil {
		t.Fatalf("GetBookmark: %v", err)
	}
	if len(got.TagIDs) != 1 || got.TagIDs[0] != "tag-2" {
		t.Errorf("TagIDs: got %v, want [tag-2]", got.TagIDs)
	}
}

func TestDeleteTag_CascadesOnFreshConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := makeTestUser(t, s)

	if err := s.CreateTag(ctx, makeTestTag("tag-1", user.ID, "Work")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	b := makeTestBookmark("bm-1", user.ID, "https://example.com", []string{"tag-1"})
	if err := s.CreateBookmark(ctx, b); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}

	// Pin a connection so the delete runs on a different, freshly opened
	// one. foreign_keys must hold there too or the cascade silently
	// skips, leaving orphaned link rows that inflate bookmark counts.
	pinned, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatalf("pin connection: %v", err)
	}
	defer pinned.Close()

	if err := s.DeleteTag(ctx, user.ID, "tag-1"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	var orphans int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookmark_tags WHERE tag_id = ?`, "tag-1").Scan(&orphans)
	if err != nil {
		t.Fatalf("count bookmark_tags: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected 0 bookmark_tags rows after delete, got %d", orphans)
	}

	got, err := s.GetBookmark(ctx, user.ID, "bm-1")
	if err != nil {
		t.Fatalf("GetBookmark: %v", err)
	}
	if len(got.TagIDs) != 0 {
		t.Errorf("TagIDs: got %v, want none", got.TagIDs)
	}
}

func TestDeleteTag_NotFound(t *testing.T) {
	s := newTestStore(t)
	user := makeTestUser(t, s)

	err := s.DeleteTag(context.Background(), user.ID, "tag-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
