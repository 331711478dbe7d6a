// Package vectorstore provides interfaces and implementations for vector similarity search.
package vectorstore

import (
	"context"
)

// Point represents a stored blog embedding with its payload
type Point struct {
	ID      string
	Vector  []float32 // Dense vector from embedding model
	Payload map[string]string
}

// ScoredPoint represents a similarity search hit from the vector store
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]string
}

// VectorStore defines the interface for vector storage operations
type VectorStore interface {
	// EnsureCollection creates the backing collection if it does not exist
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts or updates points in the vector store
	Upsert(ctx context.Context, points []Point) error

	// Search performs similarity search, most similar first
	Search(ctx context.Context, vector []float32, topK int) ([]ScoredPoint, error)

	// Delete removes points by their IDs
	Delete(ctx context.Context, ids []string) error
}
