package reranker

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

	// DefaultMixedbreadModel is the default reranking model.
	DefaultMixedbreadModel = "mixedbread-ai/mxbai-rerank-large-v1"
)

// MixedbreadConfig holds configuration for the Mixedbread reranker.
type MixedbreadConfig struct {
	// BaseURL is the Mixedbread API base URL (default: https://api.mixedbread.ai).
	BaseURL string

	// APIKey is the Mixedbread API key.
	APIKey string

	// Model is the reranking model to use (default: mxbai-rerank-large-v1).
	Model string

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// MixedbreadReranker implements the Reranker interface using Mixedbread's
// cross-encoder reranking API.
type MixedbreadReranker struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// rerankRequest represents the request body for the reranking API.
type rerankRequest struct {
	Model       string   `json:"model"`
	Query       string   `json:"query"`
	Input       []string `json:"input"`
	TopK        int      `json:"top_k"`
	ReturnInput bool     `json:"return_input"`
}

// rerankResponse represents the response from the reranking API.
type rerankResponse struct {
	Data []struct {
		Index int     `json:"index"`
		Score float32 `json:"score"`
	} `json:"data"`
}

// NewMixedbreadReranker creates a new Mixedbread reranker with the given configuration.
func NewMixedbreadReranker(cfg MixedbreadConfig) *MixedbreadReranker {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultMixedbreadBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultMixedbreadModel
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &MixedbreadReranker{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   model,
		client:  client,
	}
}

// Rerank scores each document against the query using the cross-encoder model.
func (r *MixedbreadReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]RankedDocument, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	reqBody := rerankRequest{
		Model:       r.model,
		Query:       query,
		Input:       documents,
		TopK:        topN,
		ReturnInput: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/reranking", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mixedbread API error (status %d): %s", resp.StatusCode, string(body))
	}

	var rrResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rrResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	ranked := make([]RankedDocument, 0, len(rrResp.Data))
	for _, d := range rrResp.Data {
		// Indices outside the input range indicate a malformed response;
		// dropping them here would mask the fault.
		if d.Index < 0 || d.Index >= len(documents) {
			return nil, fmt.Errorf("rerank response index %d out of range [0, %d)", d.Index, len(documents))
		}
		ranked = append(ranked, RankedDocument{Index: d.Index, Score: d.Score})
	}

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return ranked, nil
}

// Ensure MixedbreadReranker implements Reranker interface.
var _ Reranker = (*MixedbreadReranker)(nil)
