package port

import "context"

// Generator produces a grounded answer from a chat model.
type Generator interface {
	// Generate runs one chat completion with a system and a user message.
	// A quota or throttling failure is reported as a rate-limited provider
	// error so callers can degrade instead of failing the query.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// Reranker scores query-passage pairs for relevance.
type Reranker interface {
	// Score rates every passage against the query. The returned slice maps
	// back to inputs via Index; its own order is unspecified. Scoring is a
	// pure function of the inputs.
	Score(ctx context.Context, query string, passages []string) ([]RerankedResult, error)

	// ModelName returns the name of the reranking model.
	ModelName() string
}

// RerankedResult is one scored passage.
type RerankedResult struct {
	Index int     // Original index in the input slice
	Score float64 // Relevance score (higher is better)
}
