package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ragserve/internal/config"
	"ragserve/internal/embedding"
	"ragserve/internal/helper"
	"ragserve/internal/llmservice"
	"ragserve/internal/models"
	"ragserve/internal/parser"
	"ragserve/internal/rag"
	"ragserve/internal/vectorstore"
	"ragserve/internal/vectorstore/pgvector"
)

const defaultConfigPath = "./configs/config.yaml"

var (
	configPath string
	cfg        *config.Config
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	root := &cobra.Command{
		Use:   "ragserve",
		Short: "Local retrieval-augmented generation over your documents",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Missing .env is fine; env vars may come from the shell.
			_ = godotenv.Load()
			var err error
			cfg, err = config.Load(configPath)
			return err
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the config file")

	root.AddCommand(newAddCmd(), newQueryCmd(), newDeleteCmd(), newStatusCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>...",
		Short: "Parse files and index them for retrieval",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRAG(cmd.Context())
			if err != nil {
				return err
			}

			docs := make([]models.Document, 0, len(args))
			for _, path := range args {
				doc, err := parser.ParseFile(path)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}

			summary, err := r.AddDocuments(cmd.Context(), docs)
			if err != nil {
				return err
			}
			fmt.Println(summary)
			return nil
		},
	}
}

func newQueryCmd() *cobra.Command {
	var maxChunks, maxTokens int
	var threshold float64

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Answer a question from the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRAG(cmd.Context())
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			result, err := r.Query(cmd.Context(), question, rag.QueryOptions{
				MaxChunks:           maxChunks,
				SimilarityThreshold: threshold,
				MaxContextTokens:    maxTokens,
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s\n\n", result.Answer)
			helper.PrettyPrint(result)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxChunks, "max-chunks", 0, "max chunks to retrieve (0 = config default)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "similarity threshold (0 = config default)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "context token budget (0 = config default)")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <doc-id>",
		Short: "Remove a document and all its chunks from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRAG(cmd.Context())
			if err != nil {
				return err
			}
			if err := r.DeleteDocument(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted document %s\n", args[0])
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index size and effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore(cmd.Context())
			if err != nil {
				return err
			}
			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("indexed chunks: %d\n", count)
			helper.PrettyPrint(cfg.RAG)
			return nil
		},
	}
}

func buildRAG(ctx context.Context) (*rag.RAG, error) {
	store, err := newStore(ctx)
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, err
	}
	cached := embedding.NewCachingEmbedder(embedder, embedding.NewMemoryCache())

	llm, err := llmservice.New(&cfg.ChatLLM)
	if err != nil {
		return nil, err
	}

	return rag.NewRAG(store, cached, llm, cfg), nil
}

func newStore(ctx context.Context) (vectorstore.Store, error) {
	switch cfg.Vector.Backend {
	case "pgvector":
		sqldb, err := pgvector.Connect(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		store := pgvector.New(sqldb, cfg.Database.Debug)
		if err := store.Init(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "", "chromem":
		return vectorstore.NewChromemStore(&cfg.Vector)
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.Vector.Backend)
	}
}
