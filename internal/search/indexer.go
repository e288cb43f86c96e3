package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Indexer is the keyword index over function documents.
type Indexer struct {
	bleveIndex bleve.Index
	mu         sync.RWMutex
}

// NewIndexer creates a new search indexer with in-memory Bleve index.
func NewIndexer() (*Indexer, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	return &Indexer{bleveIndex: index}, nil
}

// buildIndexMapping creates the Bleve index mapping.
func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Name is stored verbatim for retrieval but not analyzed.
	nameFieldMapping := bleve.NewKeywordFieldMapping()
	nameFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Words is the name split on underscores ("list_files" → "list files").
	wordsFieldMapping := bleve.NewTextFieldMapping()
	wordsFieldMapping.Analyzer = en.AnalyzerName
	docMapping.AddFieldMappingsAt("words", wordsFieldMapping)

	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// IndexDocuments replaces the indexed documents with docs.
func (i *Indexer) IndexDocuments(docs []Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	existing, err := i.allIDs()
	if err != nil {
		return err
	}

	batch := i.bleveIndex.NewBatch()
	for _, id := range existing {
		batch.Delete(id)
	}

	for _, doc := range docs {
		fields := map[string]interface{}{
			"name":        doc.Name,
			"words":       strings.ReplaceAll(doc.Name, "_", " "),
			"description": doc.Text,
		}
		if err := batch.Index(doc.Name, fields); err != nil {
			return fmt.Errorf("failed to index function %s: %w", doc.Name, err)
		}
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index functions: %w", err)
	}

	return nil
}

// allIDs lists every document ID. Callers hold i.mu.
func (i *Indexer) allIDs() ([]string, error) {
	count, err := i.bleveIndex.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get doc count: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	results, err := i.bleveIndex.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed functions: %w", err)
	}

	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Count returns the total number of indexed functions.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	docCount, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}

	return docCount, nil
}

// Close closes the index and releases resources.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}

	return nil
}

// buildMatchQuery matches the prompt against the name words and the
// description, weighting the name higher.
func (i *Indexer) buildMatchQuery(searchText string) query.Query {
	words := bleve.NewMatchQuery(searchText)
	words.SetField("words")
	words.SetBoost(2.0)

	desc := bleve.NewMatchQuery(searchText)
	desc.SetField("description")

	return bleve.NewDisjunctionQuery(words, desc)
}
