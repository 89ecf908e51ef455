package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for bookmark documents.
//
// Titles and descriptions get English stemming; URLs and hosts use the
// simple analyzer so path segments and domains tokenize without stemming.
// user_id and tag_ids are keyword fields for exact filtering.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Title - primary search target, boosted at query time
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Description - searchable, stored for result snippets
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = true
	descFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// URL - no stemming, path segments should match literally
	urlFieldMapping := bleve.NewTextFieldMapping()
	urlFieldMapping.Analyzer = simple.Name
	urlFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("url", urlFieldMapping)

	// Host - searchable without the noise of the full URL
	hostFieldMapping := bleve.NewTextFieldMapping()
	hostFieldMapping.Analyzer = simple.Name
	hostFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("host", hostFieldMapping)

	// --- Keyword fields (exact match) ---

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	userIDFieldMapping := bleve.NewTextFieldMapping()
	userIDFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("user_id", userIDFieldMapping)

	tagIDsFieldMapping := bleve.NewTextFieldMapping()
	tagIDsFieldMapping.Analyzer = keyword.Name
	tagIDsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tag_ids", tagIDsFieldMapping)

	// --- Numeric fields (sorting) ---

	clickCountFieldMapping := bleve.NewNumericFieldMapping()
	clickCountFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("click_count", clickCountFieldMapping)

	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	updatedAtFieldMapping := bleve.NewNumericFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
