package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mkondo/blogd/internal/embedder"
	"github.com/mkondo/blogd/internal/llm"
	"github.com/mkondo/blogd/internal/repository"
	"github.com/mkondo/blogd/internal/store"
)

type fakeSummarizer struct {
	calls int
}

func (f *fakeSummarizer) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	f.calls++
	return "SUMMARY: " + prompt, nil
}

type fakeEmbedder struct {
	calls     int
	lastMode  embedder.Mode
	lastInput string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, mode embedder.Mode) ([]float32, error) {
	f.calls++
	f.lastMode = mode
	f.lastInput = text
	return []float32{0.1, 0.2}, nil
}

func (f *fakeEmbedder) Dimension() int    { return 2 }
func (f *fakeEmbedder) ModelName() string { return "fake" }

type fakeDocStore struct {
	upserts []*repository.Blog
}

func (f *fakeDocStore) GetBySlug(ctx context.Context, slug string) (*repository.Blog, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeDocStore) Upsert(ctx context.Context, blog *repository.Blog) error {
	if blog.ID == uuid.Nil {
		blog.ID = uuid.New()
	}
	f.upserts = append(f.upserts, blog)
	return nil
}

func (f *fakeDocStore) TopKByVector(ctx context.Context, vector []float32, k int) ([]store.Candidate, error) {
	return nil, nil
}

func writePost(t *testing.T, dir, name, slug, title, body string) string {
	t.Helper()
	content := "---\ntitle: " + title + "\nslug: " + slug + "\n---\n" + body + "\n"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write post: %v", err)
	}
	return path
}

func newTestPipeline(t *testing.T, contentDir string) (*Pipeline, *fakeDocStore, *fakeSummarizer, *fakeEmbedder) {
	t.Helper()
	docs := &fakeDocStore{}
	sum := &fakeSummarizer{}
	emb := &fakeEmbedder{}
	cfg := PipelineConfig{
		ContentDir: contentDir,
		CacheDir:   filepath.Join(t.TempDir(), "cache"),
	}
	return NewPipeline(docs, sum, emb, cfg, nil), docs, sum, emb
}

func TestPipeline_ProcessesNewPosts(t *testing.T) {
	contentDir := t.TempDir()
	writePost(t, contentDir, "first.mdx", "first-post", "First Post", "hello world")
	writePost(t, contentDir, "second.md", "second-post", "Second Post", "more words")

	p, docs, sum, emb := newTestPipeline(t, contentDir)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Scanned != 2 || stats.Processed != 2 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(docs.upserts) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(docs.upserts))
	}
	if sum.calls != 2 || emb.calls != 2 {
		t.Errorf("expected 2 summarize and 2 embed calls, got %d and %d", sum.calls, emb.calls)
	}

	// The stored content and the embedded text are the summary, not the raw body.
	first := docs.upserts[0]
	if first.Content == "hello world" {
		t.Error("stored content should be the summary, not the raw body")
	}
	if emb.lastInput == "more words" {
		t.Error("embedded text should be the summary, not the raw body")
	}
	if emb.lastMode != embedder.ModeDocument {
		t.Errorf("ingestion must embed in document mode, got %v", emb.lastMode)
	}
}

func TestPipeline_IdempotentRerun(t *testing.T) {
	// Re-running against an unchanged corpus must trigger no provider calls
	// and no store writes.
	contentDir := t.TempDir()
	writePost(t, contentDir, "post.mdx", "post", "Post", "body")

	p, docs, sum, emb := newTestPipeline(t, contentDir)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Freshness markers compare mtimes; make sure the marker is newer.
	time.Sleep(10 * time.Millisecond)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if stats.Skipped != 1 || stats.Processed != 0 {
		t.Errorf("expected everything skipped on rerun, got %+v", stats)
	}
	if sum.calls != 1 || emb.calls != 1 {
		t.Errorf("expected no extra provider calls, got summarize=%d embed=%d", sum.calls, emb.calls)
	}
	if len(docs.upserts) != 1 {
		t.Errorf("expected no extra upserts, got %d", len(docs.upserts))
	}
}

func TestPipeline_ForceReprocesses(t *testing.T) {
	contentDir := t.TempDir()
	writePost(t, contentDir, "post.mdx", "post", "Post", "body")

	docs := &fakeDocStore{}
	sum := &fakeSummarizer{}
	emb := &fakeEmbedder{}
	cacheDir := filepath.Join(t.TempDir(), "cache")

	p := NewPipeline(docs, sum, emb, PipelineConfig{ContentDir: contentDir, CacheDir: cacheDir}, nil)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	forced := NewPipeline(docs, sum, emb, PipelineConfig{ContentDir: contentDir, CacheDir: cacheDir, Force: true}, nil)
	stats, err := forced.Run(context.Background())
	if err != nil {
		t.Fatalf("forced run failed: %v", err)
	}

	if stats.Processed != 1 {
		t.Errorf("expected forced reprocess, got %+v", stats)
	}
	if sum.calls != 2 {
		t.Errorf("expected 2 summarize calls after force, got %d", sum.calls)
	}
}

func TestPipeline_BadFrontmatterCounted(t *testing.T) {
	contentDir := t.TempDir()
	writePost(t, contentDir, "good.mdx", "good", "Good", "body")
	if err := os.WriteFile(filepath.Join(contentDir, "bad.mdx"), []byte("no frontmatter here"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, docs, _, _ := newTestPipeline(t, contentDir)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Failed != 1 || stats.Processed != 1 {
		t.Errorf("expected 1 failed and 1 processed, got %+v", stats)
	}
	if len(docs.upserts) != 1 {
		t.Errorf("expected only the good post stored, got %d", len(docs.upserts))
	}
}

func TestPipeline_IgnoresNonMarkdown(t *testing.T) {
	contentDir := t.TempDir()
	writePost(t, contentDir, "post.mdx", "post", "Post", "body")
	if err := os.WriteFile(filepath.Join(contentDir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, _, _, _ := newTestPipeline(t, contentDir)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Scanned != 1 {
		t.Errorf("expected 1 scanned file, got %d", stats.Scanned)
	}
}
