package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mkondo/blogd/internal/repository"
)

// BlogRepo implements repository.BlogRepository
type BlogRepo struct {
	db *DB
}

// NewBlogRepo creates a new blog repository
func NewBlogRepo(db *DB) *BlogRepo {
	return &BlogRepo{db: db}
}

// GetBySlug retrieves a blog post by its slug
func (r *BlogRepo) GetBySlug(ctx context.Context, slug string) (*repository.Blog, error) {
	query := `
		SELECT id, slug, title, content, embedding, created_at, updated_at
		FROM blogs
		WHERE slug = $1
	`
	return r.scanBlog(ctx, query, slug)
}

// GetByID retrieves a blog post by its row ID
func (r *BlogRepo) GetByID(ctx context.Context, id uuid.UUID) (*repository.Blog, error) {
	query := `
		SELECT id, slug, title, content, embedding, created_at, updated_at
		FROM blogs
		WHERE id = $1
	`
	return r.scanBlog(ctx, query, id)
}

func (r *BlogRepo) scanBlog(ctx context.Context, query string, args ...any) (*repository.Blog, error) {
	var blog repository.Blog

	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&blog.ID, &blog.Slug, &blog.Title, &blog.Content, &blog.Embedding,
		&blog.CreatedAt, &blog.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}

	return &blog, nil
}

// Upsert inserts or updates a blog post keyed by slug
func (r *BlogRepo) Upsert(ctx context.Context, blog *repository.Blog) error {
	if blog.ID == uuid.Nil {
		blog.ID = uuid.New()
	}
	now := time.Now()
	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = now
	}
	blog.UpdatedAt = now

	query := `
		INSERT INTO blogs (id, slug, title, content, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE
		SET title = EXCLUDED.title,
		    content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		blog.ID, blog.Slug, blog.Title, blog.Content, blog.Embedding,
		blog.CreatedAt, blog.UpdatedAt).Scan(&blog.ID, &blog.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert blog: %w", err)
	}
	return nil
}

// ListTitles returns slug and title for all posts, newest first
func (r *BlogRepo) ListTitles(ctx context.Context) ([]repository.BlogTitle, error) {
	query := `SELECT slug, title FROM blogs ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer rows.Close()

	var titles []repository.BlogTitle
	for rows.Next() {
		var t repository.BlogTitle
		if err := rows.Scan(&t.Slug, &t.Title); err != nil {
			return nil, fmt.Errorf("failed to scan blog title: %w", err)
		}
		titles = append(titles, t)
	}

	return titles, rows.Err()
}

// Ensure BlogRepo implements the interface
var _ repository.BlogRepository = (*BlogRepo)(nil)
