// Package reranker provides re-ranking of vector retrieval candidates.
//
// Re-ranking uses cross-encoder scoring to improve retrieval precision by
// evaluating query-document pairs together rather than independently.
//
// # Trade-offs
//
// Reranking is a config option (Config.RerankEnabled).
//
//   - Latency: Adds an extra API round trip per related-posts request
//   - Quality: Significantly better relevance when top-k vector results have similar scores
//   - Cost: One reranking API call per request
//
// Enable reranking for use cases where relevance matters more than speed.
package reranker

import "context"

// RankedDocument is a candidate reordered by the reranking pass.
type RankedDocument struct {
	// Index points into the input document slice.
	Index int

	// Score is the cross-encoder relevance score.
	Score float32
}

// Reranker defines the interface for re-ranking retrieval candidates.
type Reranker interface {
	// Rerank scores each document against the query and returns the most
	// relevant ones in descending score order, truncated to topN. Indices in
	// the result refer to positions in the documents slice.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RankedDocument, error)
}
