package domain

// Document is a single corpus unit created at ingest time.
// Text is the concatenation of the source row's free-text fields;
// Metadata carries the remaining labeled columns (source, date, answer, sphere).
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
	Vector   []float32 // filled by the ingest pipeline, never exposed to the user
}

// SearchResult is a single retrieval hit.
// Similarity is 1 - cosine distance, in [-1, 1].
type SearchResult struct {
	ID         string
	Document   string
	Metadata   map[string]string
	Similarity float64
}

// SearchResponse is the retriever output for one query.
// Results are ordered by descending similarity (ascending cosine distance).
type SearchResponse struct {
	Query   string
	Results []SearchResult
}
