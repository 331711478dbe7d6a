package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkondo/blogd/internal/config"
	"github.com/mkondo/blogd/internal/embedder"
	"github.com/mkondo/blogd/internal/ingest"
	"github.com/mkondo/blogd/internal/llm"
	"github.com/mkondo/blogd/internal/repository/postgres"
	"github.com/mkondo/blogd/internal/store"
	"github.com/mkondo/blogd/internal/vectorstore"
)

var (
	contentDir string
	cacheDir   string
	force      bool
)

var rootCmd = &cobra.Command{
	Use:   "blogctl",
	Short: "Manage the blog content index",
	Long: `blogctl runs the offline side of the blog service: it scans markdown
posts, summarizes them, embeds the summaries and writes the results to
PostgreSQL and Qdrant so the server can answer related-post queries.`,
	SilenceUsage: true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Summarize and index all posts under the content directory",
	Long: `Walks the content directory, summarizes each markdown post and indexes
the summary embedding. Posts whose files have not changed since the
last run are skipped unless --force is given.`,
	RunE: runIngest,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the content directory and re-index posts on change",
	Long: `Runs an initial ingest, then watches the content directory and
re-indexes a post whenever its file is created or written.`,
	RunE: runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&contentDir, "content-dir", "", "directory containing markdown posts (defaults to CONTENT_DIR)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "directory for ingestion cache stamps (defaults to CACHE_DIR)")
	ingestCmd.Flags().BoolVar(&force, "force", false, "re-index posts even when their files are unchanged")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildPipeline wires the ingestion pipeline from configuration. The
// returned closer releases the database and vector store connections.
func buildPipeline(ctx context.Context) (*ingest.Pipeline, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if contentDir != "" {
		cfg.ContentDir = contentDir
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	vectorStore, err := vectorstore.NewQdrantStore(ctx, cfg.QdrantGRPCURL, cfg.QdrantCollection)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	if err := vectorStore.EnsureCollection(ctx, cfg.EmbeddingDimension); err != nil {
		vectorStore.Close()
		db.Close()
		return nil, nil, err
	}

	embed := embedder.NewMixedbreadEmbedder(embedder.MixedbreadConfig{
		BaseURL:   cfg.MixedbreadURL,
		APIKey:    cfg.MixedbreadAPIKey,
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
	})
	summarizer := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaSummarizeModel),
	)

	docStore := store.New(postgres.NewBlogRepo(db), vectorStore, slog.Default())
	pipeline := ingest.NewPipeline(docStore, summarizer, embed, ingest.PipelineConfig{
		ContentDir:     cfg.ContentDir,
		CacheDir:       cfg.CacheDir,
		SummarizeModel: cfg.OllamaSummarizeModel,
		Force:          force,
	}, slog.Default())

	closer := func() {
		vectorStore.Close()
		db.Close()
	}
	return pipeline, closer, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pipeline, closer, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer closer()

	stats, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Scanned %d posts: %d indexed, %d skipped, %d failed (%s)\n",
		stats.Scanned, stats.Processed, stats.Skipped, stats.Failed, stats.Elapsed.Round(time.Millisecond))
	if stats.Failed > 0 {
		return fmt.Errorf("%d posts failed to index", stats.Failed)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pipeline, closer, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer closer()

	if _, err := pipeline.Run(ctx); err != nil {
		return fmt.Errorf("initial ingest failed: %w", err)
	}

	watcher := ingest.NewWatcher(pipeline, pipeline.ContentDir(), slog.Default())
	cmd.Printf("Watching %s for changes...\n", pipeline.ContentDir())
	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
