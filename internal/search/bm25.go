package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

// SearchBM25 performs BM25 keyword search using Bleve.
func (i *Indexer) SearchBM25(query string, limit int) ([]SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	searchRequest := bleve.NewSearchRequestOptions(i.buildMatchQuery(query), limit, 0, false)
	searchRequest.Fields = []string{"name", "description"}

	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	return convertBleveResults(results), nil
}

// GetAll retrieves all indexed functions (up to limit).
func (i *Indexer) GetAll(limit int) ([]SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	searchRequest := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), limit, 0, false)
	searchRequest.Fields = []string{"name", "description"}
	searchRequest.SortBy([]string{"name"})

	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	return convertBleveResults(results), nil
}

// convertBleveResults converts Bleve search results to our SearchResult format.
func convertBleveResults(results *bleve.SearchResult) []SearchResult {
	searchResults := make([]SearchResult, 0, len(results.Hits))

	for _, hit := range results.Hits {
		name, _ := hit.Fields["name"].(string)
		if name == "" {
			name = hit.ID
		}
		description, _ := hit.Fields["description"].(string)

		searchResults = append(searchResults, SearchResult{
			Name:        name,
			Description: description,
			Score:       hit.Score,
		})
	}

	return searchResults
}
