package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lexrag/internal/port"
)

// TEIReranker scores query-passage pairs against a text-embeddings-inference
// style /rerank endpoint serving a cross-encoder model.
type TEIReranker struct {
	endpoint string
	model    string
	client   *http.Client
}

type teiRerankRequest struct {
	Query    string   `json:"query"`
	Texts    []string `json:"texts"`
	Truncate bool     `json:"truncate"`
}

type teiRerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewTEIReranker creates a reranker client for the given endpoint.
func NewTEIReranker(endpoint, model string, timeoutSeconds int) (*TEIReranker, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rerank endpoint must not be empty")
	}
	if model == "" {
		model = "BAAI/bge-reranker-v2-m3"
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	return &TEIReranker{
		endpoint: endpoint,
		model:    model,
		client: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}, nil
}

// Score rates every passage against the query. Results map back to inputs
// via Index.
func (r *TEIReranker) Score(ctx context.Context, query string, passages []string) ([]port.RerankedResult, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	reqBody := teiRerankRequest{
		Query:    query,
		Texts:    passages,
		Truncate: true,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.endpoint+"/rerank", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var results []teiRerankResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	scored := make([]port.RerankedResult, 0, len(results))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(passages) {
			return nil, fmt.Errorf("rerank result index %d out of range", res.Index)
		}
		scored = append(scored, port.RerankedResult{
			Index: res.Index,
			Score: res.Score,
		})
	}

	return scored, nil
}

// ModelName returns the model name.
func (r *TEIReranker) ModelName() string {
	return r.model
}
