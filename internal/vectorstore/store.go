// Package vectorstore abstracts the vector index behind a Store interface.
// Adapters own their distance metric: every Hit they return carries a
// similarity already normalised to [0,1], higher meaning more relevant.
package vectorstore

import "context"

// Metadata keys attached to every stored chunk.
const (
	MetaDocID       = "doc_id"
	MetaTitle       = "title"
	MetaSource      = "source"
	MetaPosition    = "position"
	MetaContentType = "content_type"
)

// Record is one chunk to index.
type Record struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// Hit is one ranked query result.
type Hit struct {
	ID         string
	Text       string
	Similarity float64
	Metadata   map[string]string
}

// Store is the vector index consumed by the retrieval pipeline.
type Store interface {
	// Add indexes the given records. Callers add all records of one
	// document in a single call, so a failure leaves no partial document.
	Add(ctx context.Context, records []Record) error

	// Query returns up to n hits ranked most-similar first.
	Query(ctx context.Context, embedding []float32, n int) ([]Hit, error)

	// Count reports the number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// DeleteDocument removes every chunk derived from the given document.
	DeleteDocument(ctx context.Context, docID string) error
}
