package domain

import "time"

// Tag is a user-defined label applied to bookmarks.
// Tags are scoped to their owner; Name is unique per user.
type Tag struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	// BookmarkCount is the number of the owner's bookmarks currently
	// linked to this tag. Derived from bookmark_tags, never stored.
	BookmarkCount int       `json:"bookmark_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// BookmarkTag is the many-to-many link between bookmarks and tags.
// Both sides are owned by the same user; rows cascade on delete.
type BookmarkTag struct {
	BookmarkID string    `json:"bookmark_id"`
	TagID      string    `json:"tag_id"`
	CreatedAt  time.Time `json:"created_at"`
}
