/*
Package search resolves prompts to automation functions.

Each function's description is embedded once when the index is built; a
prompt resolves to the function with the highest cosine similarity, provided
it clears the similarity threshold. When the embedder is unavailable at query
time, resolution falls back to BM25 keyword search over the same documents.
*/
package search

// NoMatch is the function name reported when nothing clears the threshold.
const NoMatch = "none"

// Resolution methods reported in Match.Method.
const (
	MethodSemantic = "semantic"
	MethodBM25     = "bm25"
)

// Document is the text indexed for one function.
type Document struct {
	Name string
	Text string
}

// Match is the outcome of resolving a prompt.
type Match struct {
	Function string  `json:"function"`
	Score    float64 `json:"score"`
	Method   string  `json:"method"`
}

// Matched reports whether a function was found.
func (m Match) Matched() bool {
	return m.Function != "" && m.Function != NoMatch
}

// SearchResult represents a single keyword search hit with relevance score.
type SearchResult struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}
