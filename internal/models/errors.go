package models

import "errors"

// Failures in the embedding/retrieval path are hard errors: an answer built
// on a failed retrieval would look misleadingly clean. Generation failures
// are recovered locally by the orchestrator and never surface as errors.
var (
	// ErrEmbeddingFailure means the embedding model could not produce a
	// vector. No fallback vector is fabricated.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrRetrievalFailure means the vector store query failed.
	ErrRetrievalFailure = errors.New("retrieval failure")
)
