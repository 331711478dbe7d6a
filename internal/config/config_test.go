package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.QdrantCollection != "blogs" {
		t.Errorf("QdrantCollection = %q, want %q", cfg.QdrantCollection, "blogs")
	}
	if cfg.EmbeddingDimension != 1024 {
		t.Errorf("EmbeddingDimension = %d, want 1024", cfg.EmbeddingDimension)
	}
	if cfg.RelatedTopK != 5 {
		t.Errorf("RelatedTopK = %d, want 5", cfg.RelatedTopK)
	}
	if cfg.RelatedTopN != 3 {
		t.Errorf("RelatedTopN = %d, want 3", cfg.RelatedTopN)
	}
	if !cfg.RerankEnabled {
		t.Error("RerankEnabled = false, want true")
	}
	if cfg.RelatedStageTimeout != 10*time.Second {
		t.Errorf("RelatedStageTimeout = %v, want 10s", cfg.RelatedStageTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RELATED_TOP_K", "8")
	t.Setenv("RERANK_ENABLED", "false")
	t.Setenv("RELATED_STAGE_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.HTTPPort)
	}
	if cfg.RelatedTopK != 8 {
		t.Errorf("RelatedTopK = %d, want 8", cfg.RelatedTopK)
	}
	if cfg.RerankEnabled {
		t.Error("RerankEnabled = true, want false")
	}
	if cfg.RelatedStageTimeout != 2*time.Second {
		t.Errorf("RelatedStageTimeout = %v, want 2s", cfg.RelatedStageTimeout)
	}
}
