package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search query. UserID is mandatory; the index holds
// every user's bookmarks and the filter keeps results private.
type Params struct {
	UserID string
	Query  string

	// Optional filter to a single tag
	TagID string

	// Pagination
	Limit  int
	Offset int

	// Sorting: "relevance", "recent", "clicks", "title"
	SortBy string

	Highlight bool
}

// DefaultParams returns sensible defaults.
func DefaultParams(userID string) Params {
	return Params{
		UserID:    userID,
		Limit:     50,
		Offset:    0,
		SortBy:    "relevance",
		Highlight: true,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single matching bookmark.
type Hit struct {
	ID          string            `json:"id"`
	Score       float64           `json:"score"`
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Host        string            `json:"host,omitempty"`
	Description string            `json:"description,omitempty"`
	TagIDs      []string          `json:"tag_ids,omitempty"`
	ClickCount  int64             `json:"click_count"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query scoped to params.UserID.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.UserID == "" {
		return nil, fmt.Errorf("search: user id required")
	}

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	addSorting(searchRequest, params)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("description")
		searchRequest.Highlight.AddField("url")
	}

	searchRequest.Fields = []string{
		"id", "title", "url", "host", "description", "tag_ids", "click_count",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if t, ok := hit.Fields["title"].(string); ok {
			h.Title = t
		}
		if u, ok := hit.Fields["url"].(string); ok {
			h.URL = u
		}
		if host, ok := hit.Fields["host"].(string); ok {
			h.Host = host
		}
		if d, ok := hit.Fields["description"].(string); ok {
			h.Description = d
		}
		if c, ok := hit.Fields["click_count"].(float64); ok {
			h.ClickCount = int64(c)
		}
		// Stored multi-value fields come back as either string or []any
		switch tags := hit.Fields["tag_ids"].(type) {
		case string:
			h.TagIDs = []string{tags}
		case []interface{}:
			for _, t := range tags {
				if ts, ok := t.(string); ok {
					h.TagIDs = append(h.TagIDs, ts)
				}
			}
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
// The user filter is a conjunction term so no query shape can escape it.
func buildSearchQuery(params Params) query.Query {
	userFilter := bleve.NewTermQuery(params.UserID)
	userFilter.SetField("user_id")

	queries := []query.Query{userFilter}

	if params.Query != "" {
		textQueries := []query.Query{}

		// Title match with highest boost
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		// Host match beats a buried path-segment match
		hostMatch := bleve.NewMatchQuery(params.Query)
		hostMatch.SetField("host")
		hostMatch.SetBoost(2.0)
		textQueries = append(textQueries, hostMatch)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		urlMatch := bleve.NewMatchQuery(params.Query)
		urlMatch.SetField("url")
		urlMatch.SetBoost(0.5)
		textQueries = append(textQueries, urlMatch)

		// Fuzzy matching for typo tolerance on title
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for type-ahead (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.TagID != "" {
		tagQuery := bleve.NewTermQuery(params.TagID)
		tagQuery.SetField("tag_ids")
		queries = append(queries, tagQuery)
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params Params) {
	switch params.SortBy {
	case "recent":
		req.SortBy([]string{"-created_at"})
	case "clicks":
		req.SortBy([]string{"-click_count", "-_score"})
	case "title":
		req.SortBy([]string{"title"})
	default:
		// Relevance (score) is default
		req.SortBy([]string{"-_score"})
	}
}
