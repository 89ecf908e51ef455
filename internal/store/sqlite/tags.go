package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	"github.com/pagetagz/pagetagz-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// The bookmark_count subquery keeps the derived count consistent with
// bookmark_tags without a second round trip. Must match the scan order
// in scanTag.
const tagColumns = `
	t.id, t.user_id, t.name, t.description,
	(SELECT COUNT(*) FROM bookmark_tags bt WHERE bt.tag_id = t.id) AS bookmark_count,
	t.created_at, t.updated_at`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.Description,
		&t.BookmarkCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag.
// Returns store.ErrAlreadyExists when the user already has a tag with
// the same name.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		t.Name,
		t.Description,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTag retrieves a tag by ID, scoped to its owner.
// Returns store.ErrNotFound if the tag does not exist for this user.
func (s *Store) GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags t WHERE t.id = ? AND t.user_id = ?`,
		tagID, userID)

	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagByName retrieves a tag by its exact name, scoped to its owner.
// Returns store.ErrNotFound if no such tag exists.
func (s *Store) GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags t WHERE t.user_id = ? AND t.name = ?`,
		userID, name)

	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTags returns all of a user's tags, newest first, each with its
// derived bookmark count.
func (s *Store) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags t WHERE t.user_id = ? ORDER BY t.created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

// UpdateTag updates a tag's name and description.
// Returns store.ErrNotFound if the tag does not exist for this user and
// store.ErrAlreadyExists if the new name collides with another tag.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Name,
		t.Description,
		formatTime(t.UpdatedAt),
		t.ID,
		t.UserID,
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
	return nil
}

// DeleteTag removes a tag. bookmark_tags rows cascade; the bookmarks
// themselves are untouched.
// Returns store.ErrNotFound if the tag does not exist for this user.
func (s *Store) DeleteTag(ctx context.Context, userID, tagID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND user_id = ?`, tagID, userID)
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
	return nil
}
