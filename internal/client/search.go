package client

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pagetagz/pagetagz-server/internal/domain"
)

// recomputeSearchLocked rederives searchResults from the current view
// and query. Called by every operator that changes either input.
func (s *Store) recomputeSearchLocked() {
	s.searchResults = filterBookmarks(s.filteredBookmarks, s.searchQuery)
}

// filterBookmarks returns the bookmarks matching query with a
// case-insensitive substring test over title, URL and description.
// A blank query yields no results by convention; callers fall back to
// the unfiltered view.
func filterBookmarks(bookmarks []domain.Bookmark, query string) []domain.Bookmark {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	q := normalizeQuery(query)
	var results []domain.Bookmark
	for _, b := range bookmarks {
		if bookmarkMatches(b, q) {
			results = append(results, b)
		}
	}
	return results
}

func bookmarkMatches(b domain.Bookmark, query string) bool {
	if strings.Contains(normalizeQuery(b.Title), query) {
		return true
	}
	if strings.Contains(normalizeQuery(b.URL), query) {
		return true
	}
	// An empty description never matches a non-empty query.
	return b.Description != "" && strings.Contains(normalizeQuery(b.Description), query)
}

// normalizeQuery folds case and applies NFC so composed and decomposed
// forms of the same text compare equal.
func normalizeQuery(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
