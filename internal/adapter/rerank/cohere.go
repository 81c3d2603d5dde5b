package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"lexrag/internal/port"
)

// CohereReranker scores query-passage pairs using Cohere's rerank API.
type CohereReranker struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

type cohereRerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
	TopN      int      `json:"top_n,omitempty"`
}

type cohereRerankResponse struct {
	Results []cohereRerankResult `json:"results"`
}

type cohereRerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// NewCohereReranker creates a new Cohere reranker. An empty endpoint selects
// the public API.
func NewCohereReranker(apiKeyEnv, model, endpoint string, timeoutSeconds int) (*CohereReranker, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	if model == "" {
		model = "rerank-english-v3.0"
	}
	if endpoint == "" {
		endpoint = "https://api.cohere.ai/v1/rerank"
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	return &CohereReranker{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}, nil
}

// Score rates every passage against the query. Cohere returns all documents
// when top_n is omitted, so the result covers the full input.
func (r *CohereReranker) Score(ctx context.Context, query string, passages []string) ([]port.RerankedResult, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	// Cohere caps a single request at 1000 documents.
	const maxDocs = 1000
	if len(passages) > maxDocs {
		passages = passages[:maxDocs]
	}

	reqBody := cohereRerankRequest{
		Query:     query,
		Documents: passages,
		Model:     r.model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank API returned status %d: %s", resp.StatusCode, string(body))
	}

	var rerankResp cohereRerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	scored := make([]port.RerankedResult, 0, len(rerankResp.Results))
	for _, res := range rerankResp.Results {
		if res.Index < 0 || res.Index >= len(passages) {
			return nil, fmt.Errorf("rerank result index %d out of range", res.Index)
		}
		scored = append(scored, port.RerankedResult{
			Index: res.Index,
			Score: res.RelevanceScore,
		})
	}

	return scored, nil
}

// ModelName returns the model name.
func (r *CohereReranker) ModelName() string {
	return r.model
}
