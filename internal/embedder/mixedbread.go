package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultMixedbreadBaseURL is the default Mixedbread API base URL.
	DefaultMixedbreadBaseURL = "https://api.mixedbread.ai"

	// DefaultMixedbreadModel is the default embedding model.
	DefaultMixedbreadModel = "mixedbread-ai/mxbai-embed-large-v1"

	// DefaultMixedbreadDimension is the embedding dimension for mxbai-embed-large-v1.
	DefaultMixedbreadDimension = 1024
)

const (
	// documentPrompt primes embeddings generated for indexing blog summaries.
	documentPrompt = "Generate embeddings for the given blog post. This embedding is going to be used for a recommendation system."

	// queryPrompt primes embeddings generated for similarity queries.
	queryPrompt = "Represent this blog post for searching relevant blog posts in a recommendation system."
)

// MixedbreadConfig holds configuration for the Mixedbread embedder.
type MixedbreadConfig struct {
	// BaseURL is the Mixedbread API base URL (default: https://api.mixedbread.ai).
	BaseURL string

	// APIKey is the Mixedbread API key.
	APIKey string

	// Model is the embedding model to use (default: mxbai-embed-large-v1).
	Model string

	// Dimension is the embedding dimension (default: 1024).
	Dimension int

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// MixedbreadEmbedder implements the Embedder interface using Mixedbread's API.
type MixedbreadEmbedder struct {
	baseURL   string
	apiKey    string
	model     string
	dimension int
	client    *http.Client
}

// mixedbreadRequest represents the request body for the embeddings API.
type mixedbreadRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Prompt     string   `json:"prompt,omitempty"`
	Normalized bool     `json:"normalized"`
}

// mixedbreadResponse represents the response from the embeddings API.
type mixedbreadResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewMixedbreadEmbedder creates a new Mixedbread embedder with the given configuration.
func NewMixedbreadEmbedder(cfg MixedbreadConfig) *MixedbreadEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultMixedbreadBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultMixedbreadModel
	}

	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = DefaultMixedbreadDimension
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &MixedbreadEmbedder{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     model,
		dimension: dimension,
		client:    client,
	}
}

// Embed generates an embedding vector for a single text input.
// No fallback is attempted on failure: a synthetic (e.g. zero) vector would
// silently corrupt the index's notion of similarity.
func (e *MixedbreadEmbedder) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	reqBody := mixedbreadRequest{
		Model:      e.model,
		Input:      []string{text},
		Prompt:     promptForMode(mode),
		Normalized: true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/embeddings", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mixedbread API error (status %d): %s", resp.StatusCode, string(body))
	}

	var mbResp mixedbreadResponse
	if err := json.NewDecoder(resp.Body).Decode(&mbResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(mbResp.Data) == 0 || len(mbResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned from mixedbread")
	}

	// Convert float64 to float32
	embedding := make([]float32, len(mbResp.Data[0].Embedding))
	for i, v := range mbResp.Data[0].Embedding {
		embedding[i] = float32(v)
	}

	return embedding, nil
}

// Dimension returns the dimensionality of the embedding vectors.
func (e *MixedbreadEmbedder) Dimension() int {
	return e.dimension
}

// ModelName returns the name of the embedding model being used.
func (e *MixedbreadEmbedder) ModelName() string {
	return e.model
}

func promptForMode(mode Mode) string {
	if mode == ModeQuery {
		return queryPrompt
	}
	return documentPrompt
}

// Ensure MixedbreadEmbedder implements Embedder interface.
var _ Embedder = (*MixedbreadEmbedder)(nil)
