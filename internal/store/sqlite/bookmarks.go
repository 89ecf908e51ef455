package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	"github.com/pagetagz/pagetagz-server/internal/store"
)

// bookmarkColumns is the ordered list of columns selected in bookmark
// queries. Must match the scan order in scanBookmark.
const bookmarkColumns = `id, user_id, url, title, description, icon, click_count, created_at, updated_at`

func scanBookmark(scanner interface{ Scan(dest ...any) error }) (*domain.Bookmark, error) {
	var b domain.Bookmark

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&b.ID,
		&b.UserID,
		&b.URL,
		&b.Title,
		&b.Description,
		&b.Icon,
		&b.ClickCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// CreateBookmark inserts a bookmark and its tag links in one transaction.
// Returns store.ErrAlreadyExists when the user already has this URL and
// store.ErrInvalidInput when no tags are given (domain rule: a bookmark
// always carries at least one tag).
func (s *Store) CreateBookmark(ctx context.Context, b *domain.Bookmark) error {
	if len(b.TagIDs) == 0 {
		return store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookmarks (id, user_id, url, title, description, icon, click_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.UserID,
		b.URL,
		b.Title,
		b.Description,
		b.Icon,
		b.ClickCount,
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := insertBookmarkTags(ctx, tx, b.ID, b.TagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if err := s.searchIndexer.IndexBookmark(ctx, b); err != nil && s.logger != nil {
		s.logger.Warn("failed to index bookmark", "bookmark_id", b.ID, "error", err)
	}
	return nil
}

// GetBookmark retrieves a bookmark by ID with resolved tag IDs, scoped
// to its owner. Returns store.ErrNotFound if it does not exist.
func (s *Store) GetBookmark(ctx context.Context, userID, bookmarkID string) (*domain.Bookmark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ? AND user_id = ?`,
		bookmarkID, userID)

	b, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.resolveTagIDs(ctx, []*domain.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookmarkByURL retrieves a bookmark by its exact URL, scoped to its
// owner. Returns store.ErrNotFound if no such bookmark exists.
func (s *Store) GetBookmarkByURL(ctx context.Context, userID, url string) (*domain.Bookmark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = ? AND url = ?`,
		userID, url)

	b, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.resolveTagIDs(ctx, []*domain.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookmarks returns all of a user's bookmarks, newest first, with
// resolved tag IDs.
func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]*domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	return s.collectBookmarks(ctx, rows)
}

// ListBookmarksByTag returns the user's bookmarks linked to the given
// tag, newest first, with resolved tag IDs.
func (s *Store) ListBookmarksByTag(ctx context.Context, userID, tagID string) ([]*domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookmarkColumns+` FROM bookmarks
		WHERE user_id = ?
		  AND id IN (SELECT bookmark_id FROM bookmark_tags WHERE tag_id = ?)
		ORDER BY created_at DESC`,
		userID, tagID)
	if err != nil {
		return nil, err
	}
	return s.collectBookmarks(ctx, rows)
}

// collectBookmarks drains rows and resolves tag IDs for the batch.
func (s *Store) collectBookmarks(ctx context.Context, rows *sql.Rows) ([]*domain.Bookmark, error) {
	defer rows.Close()

	var bookmarks []*domain.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if bookmarks == nil {
		return []*domain.Bookmark{}, nil
	}
	if err := s.resolveTagIDs(ctx, bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// resolveTagIDs fills TagIDs for a batch of bookmarks in a single query.
func (s *Store) resolveTagIDs(ctx context.Context, bookmarks []*domain.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Bookmark, len(bookmarks))
	placeholders := make([]string, 0, len(bookmarks))
	args := make([]any, 0, len(bookmarks))
	for _, b := range bookmarks {
		b.TagIDs = []string{}
		byID[b.ID] = b
		placeholders = append(placeholders, "?")
		args = append(args, b.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT bookmark_id, tag_id FROM bookmark_tags
		WHERE bookmark_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY created_at ASC`,
		args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var bookmarkID, tagID string
		if err := rows.Scan(&bookmarkID, &tagID); err != nil {
			return err
		}
		if b, ok := byID[bookmarkID]; ok {
			b.TagIDs = append(b.TagIDs, tagID)
		}
	}
	return rows.Err()
}

// UpdateBookmark updates a bookmark's mutable fields and replaces its
// tag links in one transaction.
// Returns store.ErrNotFound if the bookmark does not exist for this
// user, store.ErrAlreadyExists on a URL collision, and
// store.ErrInvalidInput when the new tag set is empty.
func (s *Store) UpdateBookmark(ctx context.Context, b *domain.Bookmark) error {
	if len(b.TagIDs) == 0 {
		return store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE bookmarks SET url = ?, title = ?, description = ?, icon = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		b.URL,
		b.Title,
		b.Description,
		b.Icon,
		formatTime(b.UpdatedAt),
		b.ID,
		b.UserID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	// Replace tag links: delete existing, then re-insert.
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmark_tags WHERE bookmark_id = ?`, b.ID); err != nil {
		return err
	}
	if err := insertBookmarkTags(ctx, tx, b.ID, b.TagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if err := s.searchIndexer.IndexBookmark(ctx, b); err != nil && s.logger != nil {
		s.logger.Warn("failed to re-index bookmark", "bookmark_id", b.ID, "error", err)
	}
	return nil
}

// SetBookmarkTags replaces the tag links for a bookmark.
// Returns store.ErrNotFound if the bookmark does not exist for this
// user and store.ErrInvalidInput when tagIDs is empty.
func (s *Store) SetBookmarkTags(ctx context.Context, userID, bookmarkID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Ownership check before touching links.
	var owner string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM bookmarks WHERE id = ?`, bookmarkID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmark_tags WHERE bookmark_id = ?`, bookmarkID); err != nil {
		return err
	}
	if err := insertBookmarkTags(ctx, tx, bookmarkID, tagIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteBookmark removes a bookmark; bookmark_tags rows cascade.
// Returns store.ErrNotFound if the bookmark does not exist for this user.
func (s *Store) DeleteBookmark(ctx context.Context, userID, bookmarkID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, bookmarkID, userID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := s.searchIndexer.DeleteBookmark(ctx, bookmarkID); err != nil && s.logger != nil {
		s.logger.Warn("failed to remove bookmark from index", "bookmark_id", bookmarkID, "error", err)
	}
	return nil
}

// IncrementClickCount bumps a bookmark's click count by one and returns
// the new value. Returns store.ErrNotFound for unknown bookmarks.
func (s *Store) IncrementClickCount(ctx context.Context, userID, bookmarkID string) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE bookmarks SET click_count = click_count + 1
		WHERE id = ? AND user_id = ?
		RETURNING click_count`,
		bookmarkID, userID)

	var count int
	err := row.Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementClickCounts bumps click counts for a batch of bookmarks.
// Unknown IDs are skipped silently; the batch endpoint is best-effort
// by design ("open all tabs" should never fail on a stale ID).
func (s *Store) IncrementClickCounts(ctx context.Context, userID string, bookmarkIDs []string) error {
	if len(bookmarkIDs) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(bookmarkIDs))
	args := make([]any, 0, len(bookmarkIDs)+1)
	args = append(args, userID)
	for _, id := range bookmarkIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE bookmarks SET click_count = click_count + 1
		WHERE user_id = ? AND id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	return err
}

// SetBookmarkIcon records the favicon cache key for a bookmark.
// Stale IDs are fine; icon fetching is async and the bookmark may be
// gone by the time the fetch completes.
func (s *Store) SetBookmarkIcon(ctx context.Context, userID, bookmarkID, icon string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE bookmarks SET icon = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		icon, formatTime(time.Now()), bookmarkID, userID)
	return err
}

// insertBookmarkTags inserts bookmark_tags rows inside a transaction.
func insertBookmarkTags(ctx context.Context, tx *sql.Tx, bookmarkID string, tagIDs []string) error {
	now := formatTime(time.Now())
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bookmark_tags (bookmark_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			bookmarkID,
			tagID,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert bookmark_tag: %w", err)
		}
	}
	return nil
}
