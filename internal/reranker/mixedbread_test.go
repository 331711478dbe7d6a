package reranker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRerankServer(t *testing.T, data []map[string]any, lastReq *rerankRequest) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/reranking" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(lastReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestMixedbreadReranker_Rerank(t *testing.T) {
	var lastReq rerankRequest
	server := newRerankServer(t, []map[string]any{
		{"index": 2, "score": 0.95},
		{"index": 0, "score": 0.42},
	}, &lastReq)
	defer server.Close()

	r := NewMixedbreadReranker(MixedbreadConfig{BaseURL: server.URL, APIKey: "test-key"})

	docs := []string{"doc a", "doc b", "doc c"}
	ranked, err := r.Rerank(context.Background(), "query text", docs, 2)
	if err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}

	if len(ranked) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ranked))
	}
	if ranked[0].Index != 2 || ranked[1].Index != 0 {
		t.Errorf("unexpected order: %+v", ranked)
	}
	if ranked[0].Score != 0.95 {
		t.Errorf("expected score 0.95, got %f", ranked[0].Score)
	}

	if lastReq.Query != "query text" {
		t.Errorf("unexpected query %q", lastReq.Query)
	}
	if lastReq.TopK != 2 {
		t.Errorf("expected top_k 2, got %d", lastReq.TopK)
	}
	if lastReq.ReturnInput {
		t.Error("expected return_input to be false")
	}
}

func TestMixedbreadReranker_EmptyInput(t *testing.T) {
	r := NewMixedbreadReranker(MixedbreadConfig{BaseURL: "http://unused"})

	ranked, err := r.Rerank(context.Background(), "query", nil, 3)
	if err != nil {
		t.Fatalf("expected no error for empty input, got %v", err)
	}
	if ranked != nil {
		t.Errorf("expected nil result, got %v", ranked)
	}
}

func TestMixedbreadReranker_TopNClamped(t *testing.T) {
	var lastReq rerankRequest
	server := newRerankServer(t, []map[string]any{{"index": 0, "score": 0.5}}, &lastReq)
	defer server.Close()

	r := NewMixedbreadReranker(MixedbreadConfig{BaseURL: server.URL})

	// topN larger than the candidate set is clamped, not rejected.
	if _, err := r.Rerank(context.Background(), "q", []string{"only doc"}, 10); err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}
	if lastReq.TopK != 1 {
		t.Errorf("expected clamped top_k 1, got %d", lastReq.TopK)
	}
}

func TestMixedbreadReranker_IndexOutOfRange(t *testing.T) {
	var lastReq rerankRequest
	server := newRerankServer(t, []map[string]any{{"index": 7, "score": 0.9}}, &lastReq)
	defer server.Close()

	r := NewMixedbreadReranker(MixedbreadConfig{BaseURL: server.URL})

	if _, err := r.Rerank(context.Background(), "q", []string{"a", "b"}, 2); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestMixedbreadReranker_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	r := NewMixedbreadReranker(MixedbreadConfig{BaseURL: server.URL})

	if _, err := r.Rerank(context.Background(), "q", []string{"a"}, 1); err == nil {
		t.Error("expected error on API failure")
	}
}
