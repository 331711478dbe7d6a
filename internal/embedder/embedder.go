// Package embedder provides interfaces and implementations for text embedding.
package embedder

import "context"

// Mode selects the instructional priming applied to an embedding request.
//
// Document and query vectors live in the same space only when both sides
// are primed consistently; mixing unprimed document embeddings with primed
// query embeddings degrades similarity search.
type Mode int

const (
	// ModeDocument primes the model for indexing blog summaries.
	ModeDocument Mode = iota

	// ModeQuery primes the model for similarity queries.
	ModeQuery
)

// String returns the mode name for logging.
func (m Mode) String() string {
	switch m {
	case ModeDocument:
		return "document"
	case ModeQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Embedder defines the interface for text embedding services.
type Embedder interface {
	// Embed generates an embedding vector for a single text input.
	// The mode controls which instructional prompt primes the model.
	Embed(ctx context.Context, text string, mode Mode) ([]float32, error)

	// Dimension returns the dimensionality of the embedding vectors.
	Dimension() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
