package domain

import "time"

// Bookmark is a saved URL with metadata, owned by exactly one user.
// URL is unique per user. A bookmark is always linked to at least one
// tag; the link set lives in bookmark_tags and is resolved into TagIDs
// when bookmarks are read.
type Bookmark struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Icon is the favicon cache key (host), empty until the icon
	// pipeline has fetched one.
	Icon string `json:"icon,omitempty"`
	// ClickCount only ever grows, except when the bookmark is deleted.
	ClickCount int       `json:"click_count"`
	TagIDs     []string  `json:"tag_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (b *Bookmark) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// HasTag reports whether the bookmark is linked to the given tag.
func (b *Bookmark) HasTag(tagID string) bool {
	for _, id := range b.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}
