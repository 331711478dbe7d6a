package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkondo/blogd/internal/config"
	"github.com/mkondo/blogd/internal/embedder"
	"github.com/mkondo/blogd/internal/ingest"
	"github.com/mkondo/blogd/internal/llm"
	"github.com/mkondo/blogd/internal/repository/postgres"
	"github.com/mkondo/blogd/internal/reranker"
	"github.com/mkondo/blogd/internal/server"
	"github.com/mkondo/blogd/internal/service"
	"github.com/mkondo/blogd/internal/store"
	"github.com/mkondo/blogd/internal/vectorstore"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting blog service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
		"rerank_enabled", cfg.RerankEnabled,
	)

	// Initialize PostgreSQL
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	slog.Info("connected to PostgreSQL")

	blogRepo := postgres.NewBlogRepo(db)

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(ctx, cfg.QdrantGRPCURL, cfg.QdrantCollection)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer vectorStore.Close()
	if err := vectorStore.EnsureCollection(ctx, cfg.EmbeddingDimension); err != nil {
		return err
	}
	slog.Info("connected to Qdrant", "collection", cfg.QdrantCollection)

	// Initialize Mixedbread embedder and reranker
	embed := embedder.NewMixedbreadEmbedder(embedder.MixedbreadConfig{
		BaseURL:   cfg.MixedbreadURL,
		APIKey:    cfg.MixedbreadAPIKey,
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
	})
	slog.Info("initialized embedder", "model", cfg.EmbeddingModel)

	var rerank reranker.Reranker
	if cfg.RerankEnabled {
		rerank = reranker.NewMixedbreadReranker(reranker.MixedbreadConfig{
			BaseURL: cfg.MixedbreadURL,
			APIKey:  cfg.MixedbreadAPIKey,
			Model:   cfg.RerankModel,
		})
		slog.Info("initialized reranker", "model", cfg.RerankModel)
	}

	// Initialize Ollama summarizer (used by the admin reingest endpoint)
	summarizer := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaSummarizeModel),
	)

	// Initialize document store and services
	docStore := store.New(blogRepo, vectorStore, slog.Default())
	blogSvc := service.NewBlogService(blogRepo)
	relatedSvc := service.NewRelatedService(docStore, embed, rerank, service.RelatedConfig{
		TopK:          cfg.RelatedTopK,
		TopN:          cfg.RelatedTopN,
		RerankEnabled: cfg.RerankEnabled,
		StageTimeout:  cfg.RelatedStageTimeout,
	}, slog.Default())

	pipeline := ingest.NewPipeline(docStore, summarizer, embed, ingest.PipelineConfig{
		ContentDir:     cfg.ContentDir,
		CacheDir:       cfg.CacheDir,
		SummarizeModel: cfg.OllamaSummarizeModel,
	}, slog.Default())

	// Create HTTP server
	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"}, // Configure in production
		AdminAPIKey:    cfg.AdminAPIKey,
	}, server.Services{
		Blogs:    blogSvc,
		Related:  relatedSvc,
		Ingestor: pipeline,
	})

	// Start server
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
