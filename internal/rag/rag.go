// Package rag coordinates the retrieval pipeline: document ingestion on the
// write path, and retrieve → build context → generate on the read path.
package rag

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog/log"

	"ragserve/internal/chunker"
	"ragserve/internal/config"
	"ragserve/internal/contextbuilder"
	"ragserve/internal/embedding"
	"ragserve/internal/helper"
	"ragserve/internal/llmservice"
	"ragserve/internal/models"
	"ragserve/internal/retriever"
	"ragserve/internal/vectorstore"
)

type RAG struct {
	store     vectorstore.Store
	embedder  embedding.Embedder
	retriever *retriever.Retriever
	builder   *contextbuilder.Builder
	llm       llmservice.Client
	cfg       *config.Config
}

func NewRAG(store vectorstore.Store, embedder embedding.Embedder, llm llmservice.Client, cfg *config.Config) *RAG {
	return &RAG{
		store:     store,
		embedder:  embedder,
		retriever: retriever.New(store, embedder),
		builder:   contextbuilder.New(cfg.RAG.DedupOverlap),
		llm:       llm,
		cfg:       cfg,
	}
}

// QueryOptions overrides the configured defaults for a single query. Zero
// or negative fields fall back to the config; overrides never leak into
// other concurrent queries.
type QueryOptions struct {
	MaxChunks           int
	SimilarityThreshold float64
	MaxContextTokens    int
}

func (r *RAG) options(opts QueryOptions) QueryOptions {
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = r.cfg.RAG.MaxChunks
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = r.cfg.RAG.SimilarityThreshold
	}
	if opts.MaxContextTokens <= 0 {
		opts.MaxContextTokens = r.cfg.RAG.MaxContextTokens
	}
	return opts
}

// Query answers a question against the indexed documents.
//
// Retrieval and embedding failures are returned as errors. A failing
// language model is not: retrieval already succeeded at that point, so the
// result carries a fixed degraded answer instead.
func (r *RAG) Query(ctx context.Context, question string, opts QueryOptions) (*models.QueryResult, error) {
	opts = r.options(opts)

	count, err := r.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count: %v", models.ErrRetrievalFailure, err)
	}
	if count == 0 {
		log.Info().Msg("no documents indexed, short-circuiting")
		return &models.QueryResult{
			Answer:  models.NoDocumentsAnswer,
			Sources: []models.Source{},
		}, nil
	}

	results, err := r.retriever.Retrieve(ctx, question, opts.MaxChunks, opts.SimilarityThreshold)
	if err != nil {
		return nil, err
	}

	bundle := r.builder.Build(results, opts.MaxContextTokens)

	messages := buildPrompt(question, bundle.Text)
	answer := models.DegradedAnswer
	degraded := true
	if r.llm.HealthCheck(ctx) {
		answer, err = r.llm.Chat(ctx, messages)
		if err != nil {
			log.Warn().Err(err).Msg("generation failed, returning degraded answer")
			answer = models.DegradedAnswer
		} else {
			degraded = false
		}
	} else {
		log.Warn().Msg("llm unhealthy, returning degraded answer")
	}

	sources := []models.Source{}
	if !degraded {
		for _, res := range bundle.UsedChunks {
			sources = append(sources, models.Source{
				Title: res.Title,
				Score: math.Round(res.Similarity*100) / 100,
			})
		}
	}

	return &models.QueryResult{
		Answer:          answer,
		Sources:         sources,
		ContextUsed:     len(bundle.UsedChunks),
		ContextTokens:   bundle.TokenCount,
		EfficiencyRatio: bundle.EfficiencyRatio,
	}, nil
}

// buildPrompt composes the chat messages. When no context survived
// retrieval the prompt says so explicitly, so the model can decline or
// answer from general knowledge instead of hallucinating sourced claims.
func buildPrompt(question, contextText string) []llmservice.Message {
	user := fmt.Sprintf(models.NoContextPromptTemplate, question)
	if contextText != "" {
		user = fmt.Sprintf(models.RAGPromptTemplate, contextText, question)
	}
	return []llmservice.Message{
		{Role: "system", Content: models.SystemPromptTemplate},
		{Role: "user", Content: user},
	}
}

// AddDocuments chunks, embeds and indexes the given documents. Each
// document is written in a single store call, so a failure never leaves a
// partially indexed document. Returns a status summary.
func (r *RAG) AddDocuments(ctx context.Context, docs []models.Document) (string, error) {
	added, chunks, skipped := 0, 0, 0
	for _, doc := range docs {
		texts := chunker.Chunk(doc.Content, r.cfg.RAG.ChunkSize, r.cfg.RAG.ChunkOverlap)
		if len(texts) == 0 {
			skipped++
			continue
		}

		docID := doc.ID
		if docID == "" {
			id, err := helper.GenerateUUID()
			if err != nil {
				return "", fmt.Errorf("generate doc id: %w", err)
			}
			docID = id
		}

		vectors, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return "", fmt.Errorf("embed document %q: %w", doc.Title, err)
		}

		records := make([]vectorstore.Record, len(texts))
		for i, text := range texts {
			records[i] = vectorstore.Record{
				ID:        fmt.Sprintf("%s-%d", docID, i),
				Text:      text,
				Embedding: vectors[i],
				Metadata: map[string]string{
					vectorstore.MetaDocID:       docID,
					vectorstore.MetaTitle:       doc.Title,
					vectorstore.MetaSource:      doc.Source,
					vectorstore.MetaContentType: doc.ContentType,
					vectorstore.MetaPosition:    strconv.Itoa(i),
				},
			}
		}

		if err := r.store.Add(ctx, records); err != nil {
			return "", fmt.Errorf("index document %q: %w", doc.Title, err)
		}
		added++
		chunks += len(records)
		log.Info().Str("doc_id", docID).Str("title", doc.Title).Int("chunks", len(records)).Msg("document indexed")
	}

	return fmt.Sprintf("added %d documents (%d chunks), skipped %d empty", added, chunks, skipped), nil
}

// DeleteDocument removes a document and all its derived chunks.
func (r *RAG) DeleteDocument(ctx context.Context, docID string) error {
	return r.store.DeleteDocument(ctx, docID)
}

// CountChunks reports the number of indexed chunks.
func (r *RAG) CountChunks(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}
