// Package retriever turns a question into ranked, threshold-filtered
// retrieval results.
package retriever

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"ragserve/internal/embedding"
	"ragserve/internal/models"
	"ragserve/internal/vectorstore"
)

// overFetchFactor requests extra candidates from the store so threshold
// filtering does not require a second query.
const overFetchFactor = 3

type Retriever struct {
	store    vectorstore.Store
	embedder embedding.Embedder
}

func New(store vectorstore.Store, embedder embedding.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve embeds the query, fetches candidates and returns at most
// maxChunks results with similarity >= threshold, most-similar first. Ties
// keep the store's order. An empty result is a valid state, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, maxChunks int, threshold float64) ([]models.RetrievedResult, error) {
	if maxChunks <= 0 {
		return nil, nil
	}

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.Query(ctx, queryEmbedding, maxChunks*overFetchFactor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRetrievalFailure, err)
	}

	results := make([]models.RetrievedResult, 0, maxChunks)
	for _, hit := range hits {
		if hit.Similarity < threshold {
			continue
		}
		results = append(results, toResult(hit))
		if len(results) == maxChunks {
			break
		}
	}

	log.Debug().
		Str("query", query).
		Int("candidates", len(hits)).
		Int("results", len(results)).
		Float64("threshold", threshold).
		Msg("retrieval done")
	return results, nil
}

func toResult(hit vectorstore.Hit) models.RetrievedResult {
	position, _ := strconv.Atoi(hit.Metadata[vectorstore.MetaPosition])
	return models.RetrievedResult{
		Chunk: models.Chunk{
			ID:       hit.ID,
			DocID:    hit.Metadata[vectorstore.MetaDocID],
			Text:     hit.Text,
			Position: position,
			CharLen:  len(hit.Text),
		},
		Similarity: hit.Similarity,
		Title:      hit.Metadata[vectorstore.MetaTitle],
		Source:     hit.Metadata[vectorstore.MetaSource],
	}
}
