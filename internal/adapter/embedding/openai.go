package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"lexrag/internal/domain"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. The corpus
// is indexed with bge-m3, so by default this points at a local server (TEI,
// Ollama) exposing that model behind the /v1/embeddings API.
//
// The serving model truncates input at its own token limit (8192 for bge-m3);
// that policy is inherited, not enforced here.
type OpenAIEmbedder struct {
	api       *openai.Client
	model     string
	dimension int
	batchSize int
	log       *zap.Logger
}

// NewOpenAIEmbedder creates an embedder against the public OpenAI API or a
// compatible baseURL override.
func NewOpenAIEmbedder(apiKeyEnv, model, baseURL string, batchSize, timeoutSeconds int, log *zap.Logger) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return newEmbedder(apiKey, model, baseURL, batchSize, timeoutSeconds, log), nil
}

// NewOllamaEmbedder creates an embedder against a local Ollama server.
func NewOllamaEmbedder(model, baseURL string, batchSize, timeoutSeconds int, log *zap.Logger) (*OpenAIEmbedder, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	// Ollama ignores the key but the client requires one.
	return newEmbedder("ollama", model, baseURL, batchSize, timeoutSeconds, log), nil
}

func newEmbedder(apiKey, model, baseURL string, batchSize, timeoutSeconds int, log *zap.Logger) *OpenAIEmbedder {
	dimension := 1024
	switch model {
	case "bge-m3":
		dimension = 1024
	case "nomic-embed-text":
		dimension = 768
	case "mxbai-embed-large":
		dimension = 1024
	case "all-minilm":
		dimension = 384
	case "text-embedding-3-small", "text-embedding-ada-002":
		dimension = 1536
	case "text-embedding-3-large":
		dimension = 3072
	}

	if batchSize <= 0 {
		batchSize = 64
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}

	return &OpenAIEmbedder{
		api:       openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
		log:       log,
	}
}

// Embed generates one unit-length vector per input text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var all [][]float32
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vecs...)
	}
	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, wrapEmbedError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}

	for _, v := range vecs {
		if len(v) != e.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: model %s expects %d, got %d", e.model, e.dimension, len(v))
		}
		Normalize(v)
	}
	return vecs, nil
}

func wrapEmbedError(err error) error {
	pe := &domain.ProviderError{
		Provider: "embedding",
		Message:  err.Error(),
		Err:      err,
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.HTTPStatusCode
		if code, ok := apiErr.Code.(string); ok {
			pe.Code = code
		}
		pe.Message = apiErr.Message
		pe.RateLimited = apiErr.HTTPStatusCode == http.StatusTooManyRequests || pe.Code == "insufficient_quota"
	}
	return pe
}

// Normalize scales v to unit length in place. Zero vectors are left as is.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// MockEmbedder produces deterministic unit vectors without any network
// dependency. Useful for tests and offline smoke runs.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = make([]float32, e.dimension)
		for j, r := range texts[i] {
			if j >= e.dimension {
				break
			}
			vecs[i][j] = float32(r) / 1000.0
		}
		if texts[i] == "" && e.dimension > 0 {
			vecs[i][0] = 1
		}
		Normalize(vecs[i])
	}
	return vecs, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
