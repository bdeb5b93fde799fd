// Package models defines core data structures for search results, documents, chunks, and answers.
package models

// WebResult is a single organic search result.
type WebResult struct {
	Link  string `json:"link"`
	Title string `json:"title"`
}

// ExtractedDocument holds the plain text extracted from one web result.
// Text may be empty: extraction failure is represented as emptiness, not absence.
type ExtractedDocument struct {
	ID          string `json:"id" db:"id"`
	SourceURL   string `json:"source_url" db:"source_url"`
	Title       string `json:"title" db:"title"`
	ContentType string `json:"content_type" db:"content_type"`
	// Strategy names the extraction strategy that produced Text, empty when none did.
	Strategy string `json:"strategy,omitempty" db:"strategy"`
	Text     string `json:"-" db:"-"`
}

// DocumentChunk is a bounded segment of a document's text, the unit of retrieval.
type DocumentChunk struct {
	ID         string `json:"id" db:"id"`
	DocumentID string `json:"document_id" db:"document_id"`
	SourceURL  string `json:"source_url" db:"source_url"`
	Ordinal    int    `json:"ordinal" db:"ordinal"`
	Content    string `json:"content" db:"content"`
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk *DocumentChunk `json:"chunk"`
	Score float64        `json:"score"`
	Rank  int            `json:"rank"`
}
