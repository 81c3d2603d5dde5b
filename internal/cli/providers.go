package cli

import (
	"fmt"

	"lexrag/internal/adapter/embedding"
	"lexrag/internal/adapter/generate"
	"lexrag/internal/adapter/rerank"
	"lexrag/internal/adapter/store"
	"lexrag/internal/port"
	"lexrag/internal/usecase"
)

// newStore validates the startup configuration and connects to Weaviate.
// Config and credential problems are fatal here, before any query runs.
func newStore() (*store.WeaviateStore, error) {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return store.NewWeaviateStore(
		cfg.WeaviateURL(),
		cfg.WeaviateAPIKey(),
		cfg.Weaviate.Collection,
		cfg.Weaviate.TimeoutSeconds,
		GetLogger(),
	)
}

// newEmbedderFactory defers embedder construction to first use so an
// interactive session pays the setup cost once, on the first query.
func newEmbedderFactory() usecase.EmbedderFactory {
	cfg := GetConfig()
	log := GetLogger()
	return func() (port.Embedder, error) {
		e := cfg.Embedding
		switch e.Provider {
		case "openai":
			return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.BatchSize, e.TimeoutSeconds, log)
		case "ollama":
			return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.BatchSize, e.TimeoutSeconds, log)
		case "mock":
			return embedding.NewMockEmbedder(e.Dimension), nil
		default:
			return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
		}
	}
}

func newRerankerFactory() usecase.RerankerFactory {
	cfg := GetConfig()
	return func() (port.Reranker, error) {
		r := cfg.Rerank
		switch r.Provider {
		case "tei":
			return rerank.NewTEIReranker(r.Endpoint, r.Model, r.TimeoutSeconds)
		case "cohere":
			return rerank.NewCohereReranker(r.APIKeyEnv, r.Model, "", r.TimeoutSeconds)
		default:
			return nil, fmt.Errorf("unsupported rerank provider: %s", r.Provider)
		}
	}
}

func newGenerator() (port.Generator, error) {
	g := GetConfig().Generation
	return generate.NewOpenAIGenerator(g.APIKeyEnv, g.Model, g.BaseURL, g.TimeoutSeconds, GetLogger())
}
