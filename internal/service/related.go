// Package service orchestrates the blog domain: content listing and the
// related-posts retrieval pipeline.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkondo/blogd/internal/embedder"
	"github.com/mkondo/blogd/internal/reranker"
	"github.com/mkondo/blogd/internal/store"
)

const (
	// DefaultTopK is the candidate count fetched from the vector index.
	DefaultTopK = 5

	// DefaultTopN is the result count after reranking.
	DefaultTopN = 3

	// DefaultStageTimeout bounds each external call in the pipeline.
	DefaultStageTimeout = 10 * time.Second
)

// RelatedPost is one entry in the related-posts list.
type RelatedPost struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// RelatedConfig configures the related-posts pipeline.
type RelatedConfig struct {
	// TopK is how many candidates to retrieve from the vector index.
	TopK int

	// TopN is how many results to keep after reranking.
	TopN int

	// RerankEnabled toggles the cross-encoder reranking stage. When false
	// the retriever's distance order is served directly.
	RerankEnabled bool

	// StageTimeout bounds each external call (embed, retrieve, rerank).
	StageTimeout time.Duration
}

// RelatedService finds posts semantically related to a given post.
//
// The pipeline is a straight-line sequence: resolve the post, embed its
// stored summary in query mode, retrieve top-K nearest candidates, rerank
// them with a cross-encoder, then project, self-exclude and return. The
// service holds no mutable state and is safe for concurrent use.
type RelatedService struct {
	store    store.DocumentStore
	embedder embedder.Embedder
	reranker reranker.Reranker
	cfg      RelatedConfig
	logger   *slog.Logger
}

// NewRelatedService creates the related-posts pipeline. The reranker may be
// nil only when cfg.RerankEnabled is false.
func NewRelatedService(docs store.DocumentStore, embed embedder.Embedder, rerank reranker.Reranker, cfg RelatedConfig, logger *slog.Logger) *RelatedService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = DefaultStageTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RelatedService{
		store:    docs,
		embedder: embed,
		reranker: rerank,
		cfg:      cfg,
		logger:   logger,
	}
}

// Related returns up to TopN posts related to the post with the given slug.
// The post itself never appears in its own results. An empty list is a
// valid outcome, not an error.
func (s *RelatedService) Related(ctx context.Context, slug string) ([]RelatedPost, error) {
	// Resolve. The stored content is the ingestion-time summary, which is
	// what the document-mode embeddings in the index were derived from.
	blog, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	// Embed the summary in query mode. Re-embedding (rather than reusing
	// the stored document-mode vector) keeps the query on the primed query
	// side of the embedding space.
	vector, err := runStage(ctx, s.cfg.StageTimeout, func(ctx context.Context) ([]float32, error) {
		return s.embedder.Embed(ctx, blog.Content, embedder.ModeQuery)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query for %s: %w", slug, err)
	}

	// Retrieve top-K candidates.
	candidates, err := runStage(ctx, s.cfg.StageTimeout, func(ctx context.Context) ([]store.Candidate, error) {
		return s.store.TopKByVector(ctx, vector, s.cfg.TopK)
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []RelatedPost{}, nil
	}

	// Rerank the candidate texts, then project the returned indices back
	// onto the candidate records in their new order.
	ordered := candidates
	if s.cfg.RerankEnabled && s.reranker != nil {
		texts := make([]string, len(candidates))
		for i, c := range candidates {
			texts[i] = c.Content
		}

		ranked, err := runStage(ctx, s.cfg.StageTimeout, func(ctx context.Context) ([]reranker.RankedDocument, error) {
			return s.reranker.Rerank(ctx, blog.Content, texts, s.cfg.TopN)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to rerank candidates for %s: %w", slug, err)
		}

		ordered = make([]store.Candidate, 0, len(ranked))
		for _, r := range ranked {
			ordered = append(ordered, candidates[r.Index])
		}
	}

	// Self-exclusion is applied after reranking. K exceeds N, so the self
	// match cannot starve the list on its own.
	results := make([]RelatedPost, 0, s.cfg.TopN)
	for _, c := range ordered {
		if c.Slug == slug {
			continue
		}
		results = append(results, RelatedPost{Slug: c.Slug, Title: c.Title})
		if len(results) == s.cfg.TopN {
			break
		}
	}

	return results, nil
}

// runStage runs one pipeline stage under a timeout. A stage that times out
// fails exactly like any other failure of that stage.
func runStage[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(stageCtx)
}
