// Package store exposes a single document store seam over the split
// persistence layout: post content lives in PostgreSQL, embeddings live in
// Qdrant. Callers see one abstraction and never learn which side holds what.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mkondo/blogd/internal/repository"
	"github.com/mkondo/blogd/internal/vectorstore"
)

// Candidate is a similarity hit joined back to its content row. Candidates
// live for a single retrieval call and are never cached.
type Candidate struct {
	ID      uuid.UUID
	Slug    string
	Title   string
	Content string
	Score   float32
}

// DocumentStore is the persistence seam for the related-content pipeline.
type DocumentStore interface {
	// GetBySlug retrieves a post's content row.
	GetBySlug(ctx context.Context, slug string) (*repository.Blog, error)

	// Upsert persists a post's content row and, when an embedding is
	// present, its vector index entry.
	Upsert(ctx context.Context, blog *repository.Blog) error

	// TopKByVector returns up to k candidates nearest to the query vector,
	// most similar first, each joined to its content row.
	TopKByVector(ctx context.Context, vector []float32, k int) ([]Candidate, error)
}

// Store implements DocumentStore over a blog repository and a vector store.
type Store struct {
	repo    repository.BlogRepository
	vectors vectorstore.VectorStore
	logger  *slog.Logger
}

// New creates a document store over the given repository and vector store.
func New(repo repository.BlogRepository, vectors vectorstore.VectorStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{repo: repo, vectors: vectors, logger: logger}
}

// GetBySlug retrieves a post's content row.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*repository.Blog, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Upsert persists the content row first, then mirrors the embedding into the
// vector index under the row's ID. The row ID is the join key on the way
// back out of similarity search.
func (s *Store) Upsert(ctx context.Context, blog *repository.Blog) error {
	if err := s.repo.Upsert(ctx, blog); err != nil {
		return err
	}

	if blog.Embedding == nil {
		return nil
	}

	point := vectorstore.Point{
		ID:     blog.ID.String(),
		Vector: blog.Embedding,
		Payload: map[string]string{
			"slug":  blog.Slug,
			"title": blog.Title,
		},
	}
	if err := s.vectors.Upsert(ctx, []vectorstore.Point{point}); err != nil {
		return fmt.Errorf("failed to index embedding for %s: %w", blog.Slug, err)
	}

	return nil
}

// TopKByVector queries the vector index and joins each hit back to its
// content row. A hit whose row is missing means the index is out of sync
// with the content store; the entry is logged and omitted rather than
// failing the whole retrieval, so the remaining valid candidates still
// reach the caller.
func (s *Store) TopKByVector(ctx context.Context, vector []float32, k int) ([]Candidate, error) {
	hits, err := s.vectors.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			s.logger.Warn("vector index returned malformed point id",
				"point_id", hit.ID, "error", err)
			continue
		}

		blog, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("vector index out of sync: no content row for point",
					"point_id", hit.ID, "slug", hit.Payload["slug"])
				continue
			}
			return nil, fmt.Errorf("failed to resolve candidate %s: %w", hit.ID, err)
		}

		candidates = append(candidates, Candidate{
			ID:      blog.ID,
			Slug:    blog.Slug,
			Title:   blog.Title,
			Content: blog.Content,
			Score:   hit.Score,
		})
	}

	return candidates, nil
}

// Ensure Store implements DocumentStore
var _ DocumentStore = (*Store)(nil)
