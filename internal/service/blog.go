package service

import (
	"context"

	"github.com/mkondo/blogd/internal/repository"
)

// BlogService serves post content and listings to the presentation layer.
type BlogService struct {
	repo repository.BlogRepository
}

// NewBlogService creates a new BlogService
func NewBlogService(repo repository.BlogRepository) *BlogService {
	return &BlogService{repo: repo}
}

// Get returns the post with the given slug.
func (s *BlogService) Get(ctx context.Context, slug string) (*repository.Blog, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// ListTitles returns slug and title for all posts, newest first.
func (s *BlogService) ListTitles(ctx context.Context) ([]repository.BlogTitle, error) {
	return s.repo.ListTitles(ctx)
}
