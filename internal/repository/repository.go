// Package repository defines the blog domain model and its data access interface.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Blog represents a single blog post.
//
// Content holds the summarized text the embedding was derived from, not the
// raw markdown body: summaries keep heterogeneous post lengths within the
// embedding model's context window and normalize them into comparable
// semantic signal. Embedding is nil until the post has been ingested.
type Blog struct {
	ID        uuid.UUID
	Slug      string
	Title     string
	Content   string
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BlogTitle is a listing projection of a blog post (sidebar navigation data).
type BlogTitle struct {
	Slug  string
	Title string
}

// BlogRepository defines operations for blog persistence
type BlogRepository interface {
	// GetBySlug retrieves a blog post by its slug.
	GetBySlug(ctx context.Context, slug string) (*Blog, error)

	// GetByID retrieves a blog post by its row ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Blog, error)

	// Upsert inserts or updates a blog post keyed by slug. On insert the
	// generated row ID is written back to blog.ID.
	Upsert(ctx context.Context, blog *Blog) error

	// ListTitles returns slug and title for all posts, newest first.
	ListTitles(ctx context.Context) ([]BlogTitle, error)
}
