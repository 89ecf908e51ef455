// Package search provides full-text bookmark search using Bleve.
// The index is server-wide; every query is scoped to a single user via
// an exact-match filter on the user_id field.
package search

import (
	"net/url"
	"strings"

	"github.com/pagetagz/pagetagz-server/internal/domain"
)

// BookmarkDocument is the document structure for the Bleve index.
type BookmarkDocument struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Host        string   `json:"host,omitempty"`
	Description string   `json:"description,omitempty"`
	TagIDs      []string `json:"tag_ids,omitempty"`
	ClickCount  int64    `json:"click_count"`
	CreatedAt   int64    `json:"created_at"` // Unix millis
	UpdatedAt   int64    `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *BookmarkDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":          d.ID,
		"user_id":     d.UserID,
		"title":       d.Title,
		"url":         d.URL,
		"click_count": d.ClickCount,
		"created_at":  d.CreatedAt,
		"updated_at":  d.UpdatedAt,
	}

	if d.Host != "" {
		m["host"] = d.Host
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.TagIDs) > 0 {
		m["tag_ids"] = d.TagIDs
	}

	return m
}

// BookmarkToDocument converts a domain Bookmark to a BookmarkDocument.
// The host is extracted so "github" matches bookmarks on github.com even
// when the title says something else.
func BookmarkToDocument(b *domain.Bookmark) *BookmarkDocument {
	doc := &BookmarkDocument{
		ID:          b.ID,
		UserID:      b.UserID,
		Title:       b.Title,
		URL:         b.URL,
		Description: b.Description,
		TagIDs:      b.TagIDs,
		ClickCount:  int64(b.ClickCount),
		CreatedAt:   b.CreatedAt.UnixMilli(),
		UpdatedAt:   b.UpdatedAt.UnixMilli(),
	}

	if u, err := url.Parse(b.URL); err == nil {
		doc.Host = strings.TrimPrefix(u.Hostname(), "www.")
	}

	return doc
}
