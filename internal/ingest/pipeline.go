// Package ingest implements the offline ingestion pipeline: scan a markdown
// corpus, summarize each stale post, embed the summary in document mode and
// upsert content plus vector into the document store.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkondo/blogd/internal/embedder"
	"github.com/mkondo/blogd/internal/llm"
	"github.com/mkondo/blogd/internal/repository"
	"github.com/mkondo/blogd/internal/store"
)

// PipelineConfig holds configuration for the ingestion pipeline
type PipelineConfig struct {
	// ContentDir is the root directory scanned for markdown posts.
	ContentDir string

	// CacheDir holds per-file freshness markers.
	CacheDir string

	// SummarizeModel overrides the summarization model (empty = client default).
	SummarizeModel string

	// Force reprocesses every post regardless of freshness markers.
	Force bool
}

// Stats contains counters for one pipeline run
type Stats struct {
	Scanned   int
	Skipped   int
	Processed int
	Failed    int
	Elapsed   time.Duration
}

// Pipeline orchestrates the ingestion process
type Pipeline struct {
	docs       store.DocumentStore
	summarizer llm.LLM
	embedder   embedder.Embedder
	config     PipelineConfig
	logger     *slog.Logger
}

// NewPipeline creates a new ingestion pipeline
func NewPipeline(docs store.DocumentStore, summarizer llm.LLM, embed embedder.Embedder, config PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		docs:       docs,
		summarizer: summarizer,
		embedder:   embed,
		config:     config,
		logger:     logger,
	}
}

// ContentDir returns the root directory the pipeline scans for posts.
func (p *Pipeline) ContentDir() string {
	return p.config.ContentDir
}

// Run scans the content directory and processes every stale post. A failure
// on one post is counted and logged without aborting the batch; the run
// itself fails only when the corpus cannot be scanned at all.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	startTime := time.Now()
	stats := &Stats{}

	files, err := p.findPosts()
	if err != nil {
		return nil, fmt.Errorf("failed to scan content dir: %w", err)
	}
	p.logger.Info("found blog posts", "count", len(files), "dir", p.config.ContentDir)

	for _, file := range files {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		stats.Scanned++

		fresh, err := p.isFresh(file)
		if err == nil && fresh && !p.config.Force {
			stats.Skipped++
			continue
		}

		if err := p.processFile(ctx, file); err != nil {
			p.logger.Error("failed to process post", "file", file, "error", err)
			stats.Failed++
			continue
		}

		if err := p.markProcessed(file); err != nil {
			p.logger.Warn("failed to write freshness marker", "file", file, "error", err)
		}
		stats.Processed++
	}

	stats.Elapsed = time.Since(startTime)
	p.logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"skipped", stats.Skipped,
		"processed", stats.Processed,
		"failed", stats.Failed,
		"elapsed", stats.Elapsed,
	)

	return stats, nil
}

// ProcessPath ingests a single markdown file, bypassing the freshness check.
// Used by watch mode, where the change event already implies staleness.
func (p *Pipeline) ProcessPath(ctx context.Context, path string) error {
	if err := p.processFile(ctx, path); err != nil {
		return err
	}
	if err := p.markProcessed(path); err != nil {
		p.logger.Warn("failed to write freshness marker", "file", path, "error", err)
	}
	return nil
}

// findPosts walks the content directory collecting markdown files.
func (p *Pipeline) findPosts() ([]string, error) {
	var files []string
	err := filepath.WalkDir(p.config.ContentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if isMarkdown(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".mdx"
}

// processFile runs one post through summarize, embed and upsert.
func (p *Pipeline) processFile(ctx context.Context, file string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	fm, body, err := ParseFrontmatter(string(raw))
	if err != nil {
		return err
	}

	p.logger.Info("processing post", "slug", fm.Slug, "title", fm.Title)

	summary, err := p.summarizer.Generate(ctx, body, llm.GenerateOptions{
		Model:        p.config.SummarizeModel,
		SystemPrompt: summarizePrompt,
		Temperature:  0.2,
		MaxTokens:    1024,
	})
	if err != nil {
		return fmt.Errorf("failed to summarize %s: %w", fm.Slug, err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Errorf("empty summary for %s", fm.Slug)
	}

	// Embeddings always derive from the summary, never the raw body.
	vector, err := p.embedder.Embed(ctx, summary, embedder.ModeDocument)
	if err != nil {
		return fmt.Errorf("failed to embed %s: %w", fm.Slug, err)
	}

	blog := &repository.Blog{
		Slug:      fm.Slug,
		Title:     fm.Title,
		Content:   summary,
		Embedding: vector,
	}
	if err := p.docs.Upsert(ctx, blog); err != nil {
		return fmt.Errorf("failed to store %s: %w", fm.Slug, err)
	}

	return nil
}

// cacheMarker is the freshness marker written after a successful ingest.
type cacheMarker struct {
	Generated time.Time `json:"generated"`
}

func (p *Pipeline) cachePath(file string) string {
	return filepath.Join(p.config.CacheDir, filepath.Base(file)+".json")
}

// isFresh reports whether the post was ingested after its last modification.
func (p *Pipeline) isFresh(file string) (bool, error) {
	fileInfo, err := os.Stat(file)
	if err != nil {
		return false, err
	}

	cacheInfo, err := os.Stat(p.cachePath(file))
	if err != nil {
		return false, err
	}

	return cacheInfo.ModTime().After(fileInfo.ModTime()), nil
}

func (p *Pipeline) markProcessed(file string) error {
	if err := os.MkdirAll(p.config.CacheDir, 0o755); err != nil {
		return err
	}

	marker, err := json.Marshal(cacheMarker{Generated: time.Now()})
	if err != nil {
		return err
	}

	return os.WriteFile(p.cachePath(file), marker, 0o644)
}
