// Package pgvector provides a Postgres/pgvector-backed vector store for
// deployments that already run Postgres instead of the embedded database.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"ragserve/internal/config"
	"ragserve/internal/vectorstore"
)

type chunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            string    `bun:"id,pk"`
	DocID         string    `bun:"doc_id,notnull"`
	Title         string    `bun:"title"`
	Source        string    `bun:"source"`
	ContentType   string    `bun:"content_type"`
	Position      int       `bun:"position,notnull"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	Distance      float64   `bun:"distance,scanonly"`
}

// Store implements vectorstore.Store on top of bun.
type Store struct {
	db *bun.DB
}

var _ vectorstore.Store = (*Store)(nil)

// Connect opens the configured Postgres connection. Driver "postgres" uses
// lib/pq and expects credentials in the DSN; anything else uses pgdriver
// with the password applied separately.
func Connect(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == "postgres" {
		return sql.Open("postgres", cfg.DSN)
	}
	return sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	)), nil
}

// New wraps an open connection in a Store.
func New(sqldb *sql.DB, debug bool) *Store {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db}
}

// Init creates the pgvector extension and the chunks table.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*chunkRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create chunks table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Add(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]chunkRow, len(records))
	for i, r := range records {
		position, _ := strconv.Atoi(r.Metadata[vectorstore.MetaPosition])
		rows[i] = chunkRow{
			ID:          r.ID,
			DocID:       r.Metadata[vectorstore.MetaDocID],
			Title:       r.Metadata[vectorstore.MetaTitle],
			Source:      r.Metadata[vectorstore.MetaSource],
			ContentType: r.Metadata[vectorstore.MetaContentType],
			Position:    position,
			Content:     r.Text,
			Embedding:   r.Embedding,
		}
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, embedding []float32, n int) ([]vectorstore.Hit, error) {
	if n <= 0 {
		return nil, nil
	}
	vec := vectorLiteral(embedding)

	var rows []chunkRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("id", "doc_id", "title", "source", "content_type", "position", "content").
		ColumnExpr("embedding <=> ?::vector AS distance", vec).
		OrderExpr("embedding <=> ?::vector", vec).
		Limit(n).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	hits := make([]vectorstore.Hit, len(rows))
	for i, row := range rows {
		// Cosine distance is in [0,2]; 1-d maps it onto the [0,1]
		// similarity convention, clamped against float noise.
		sim := 1 - row.Distance
		if sim < 0 {
			sim = 0
		} else if sim > 1 {
			sim = 1
		}
		hits[i] = vectorstore.Hit{
			ID:         row.ID,
			Text:       row.Content,
			Similarity: sim,
			Metadata: map[string]string{
				vectorstore.MetaDocID:       row.DocID,
				vectorstore.MetaTitle:       row.Title,
				vectorstore.MetaSource:      row.Source,
				vectorstore.MetaContentType: row.ContentType,
				vectorstore.MetaPosition:    strconv.Itoa(row.Position),
			},
		}
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*chunkRow)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	if _, err := s.db.NewDelete().Model((*chunkRow)(nil)).Where("doc_id = ?", docID).Exec(ctx); err != nil {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}
	return nil
}

// vectorLiteral renders an embedding in pgvector's input format.
func vectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
