package vectorstore

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"ragserve/internal/config"
)

const chromemCompress = false

// ChromemStore is the default Store, backed by an embedded chromem-go
// database (persistent on disk or in-memory).
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

var _ Store = (*ChromemStore)(nil)

// NewChromemStore opens or creates the configured collection.
func NewChromemStore(cfg *config.VectorConfig) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, chromemCompress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", cfg.Collection, err)
	}

	log.Debug().
		Str("path", cfg.Path).
		Str("collection", cfg.Collection).
		Bool("in_memory", cfg.InMemory).
		Int("chunks", collection.Count()).
		Msg("chromem store ready")
	return &ChromemStore{db: db, collection: collection}, nil
}

func (s *ChromemStore) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Text,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, embedding []float32, n int) ([]Hit, error) {
	// chromem rejects nResults above the collection size.
	if count := s.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		// chromem reports cosine similarity already in [0,1]; clamp to be
		// safe against float noise.
		sim := float64(r.Similarity)
		if sim < 0 {
			sim = 0
		} else if sim > 1 {
			sim = 1
		}
		hits[i] = Hit{
			ID:         r.ID,
			Text:       r.Content,
			Similarity: sim,
			Metadata:   r.Metadata,
		}
	}
	return hits, nil
}

func (s *ChromemStore) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

func (s *ChromemStore) DeleteDocument(ctx context.Context, docID string) error {
	if err := s.collection.Delete(ctx, map[string]string{MetaDocID: docID}, nil); err != nil {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}
	return nil
}
