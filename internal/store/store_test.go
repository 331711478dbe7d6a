package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mkondo/blogd/internal/repository"
	"github.com/mkondo/blogd/internal/vectorstore"
)

type fakeRepo struct {
	blogs   map[uuid.UUID]*repository.Blog
	upserts int
}

func newFakeRepo(blogs ...*repository.Blog) *fakeRepo {
	r := &fakeRepo{blogs: make(map[uuid.UUID]*repository.Blog)}
	for _, b := range blogs {
		r.blogs[b.ID] = b
	}
	return r
}

func (r *fakeRepo) GetBySlug(ctx context.Context, slug string) (*repository.Blog, error) {
	for _, b := range r.blogs {
		if b.Slug == slug {
			return b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*repository.Blog, error) {
	if b, ok := r.blogs[id]; ok {
		return b, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) Upsert(ctx context.Context, blog *repository.Blog) error {
	if blog.ID == uuid.Nil {
		blog.ID = uuid.New()
	}
	r.blogs[blog.ID] = blog
	r.upserts++
	return nil
}

func (r *fakeRepo) ListTitles(ctx context.Context) ([]repository.BlogTitle, error) {
	var titles []repository.BlogTitle
	for _, b := range r.blogs {
		titles = append(titles, repository.BlogTitle{Slug: b.Slug, Title: b.Title})
	}
	return titles, nil
}

type fakeVectors struct {
	hits      []vectorstore.ScoredPoint
	points    []vectorstore.Point
	searchErr error
}

func (v *fakeVectors) EnsureCollection(ctx context.Context, dimension int) error { return nil }

func (v *fakeVectors) Upsert(ctx context.Context, points []vectorstore.Point) error {
	v.points = append(v.points, points...)
	return nil
}

func (v *fakeVectors) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.ScoredPoint, error) {
	if v.searchErr != nil {
		return nil, v.searchErr
	}
	if len(v.hits) > topK {
		return v.hits[:topK], nil
	}
	return v.hits, nil
}

func (v *fakeVectors) Delete(ctx context.Context, ids []string) error { return nil }

func TestStore_TopKByVector_JoinsContentRows(t *testing.T) {
	a := &repository.Blog{ID: uuid.New(), Slug: "post-a", Title: "Post A", Content: "summary a"}
	b := &repository.Blog{ID: uuid.New(), Slug: "post-b", Title: "Post B", Content: "summary b"}

	vectors := &fakeVectors{hits: []vectorstore.ScoredPoint{
		{ID: a.ID.String(), Score: 0.9},
		{ID: b.ID.String(), Score: 0.7},
	}}

	s := New(newFakeRepo(a, b), vectors, nil)

	candidates, err := s.TopKByVector(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("TopKByVector failed: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Slug != "post-a" || candidates[1].Slug != "post-b" {
		t.Errorf("unexpected candidate order: %+v", candidates)
	}
	if candidates[0].Content != "summary a" {
		t.Errorf("expected joined content, got %q", candidates[0].Content)
	}
}

func TestStore_TopKByVector_SkipsMissingRows(t *testing.T) {
	// A vector hit with no matching content row is an index-out-of-sync
	// fault; the entry is omitted and the rest still returned.
	a := &repository.Blog{ID: uuid.New(), Slug: "post-a", Title: "Post A", Content: "summary a"}
	orphan := uuid.New()

	vectors := &fakeVectors{hits: []vectorstore.ScoredPoint{
		{ID: orphan.String(), Score: 0.95},
		{ID: a.ID.String(), Score: 0.8},
	}}

	s := New(newFakeRepo(a), vectors, nil)

	candidates, err := s.TopKByVector(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("TopKByVector failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate after skipping orphan, got %d", len(candidates))
	}
	if candidates[0].Slug != "post-a" {
		t.Errorf("unexpected candidate %+v", candidates[0])
	}
}

func TestStore_TopKByVector_SearchErrorPropagates(t *testing.T) {
	vectors := &fakeVectors{searchErr: errors.New("qdrant unreachable")}
	s := New(newFakeRepo(), vectors, nil)

	if _, err := s.TopKByVector(context.Background(), []float32{1}, 5); err == nil {
		t.Error("expected search error to propagate, not be converted to empty results")
	}
}

func TestStore_Upsert_IndexesEmbedding(t *testing.T) {
	repo := newFakeRepo()
	vectors := &fakeVectors{}
	s := New(repo, vectors, nil)

	blog := &repository.Blog{
		Slug:      "post-a",
		Title:     "Post A",
		Content:   "summary a",
		Embedding: []float32{0.1, 0.2},
	}
	if err := s.Upsert(context.Background(), blog); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if repo.upserts != 1 {
		t.Errorf("expected 1 content upsert, got %d", repo.upserts)
	}
	if len(vectors.points) != 1 {
		t.Fatalf("expected 1 indexed point, got %d", len(vectors.points))
	}
	if vectors.points[0].ID != blog.ID.String() {
		t.Errorf("point ID should be the row ID, got %s", vectors.points[0].ID)
	}
	if vectors.points[0].Payload["slug"] != "post-a" {
		t.Errorf("expected slug payload, got %v", vectors.points[0].Payload)
	}
}

func TestStore_Upsert_NoEmbeddingSkipsIndex(t *testing.T) {
	repo := newFakeRepo()
	vectors := &fakeVectors{}
	s := New(repo, vectors, nil)

	blog := &repository.Blog{Slug: "post-a", Title: "Post A", Content: "summary a"}
	if err := s.Upsert(context.Background(), blog); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if len(vectors.points) != 0 {
		t.Errorf("expected no indexed points without embedding, got %d", len(vectors.points))
	}
}
