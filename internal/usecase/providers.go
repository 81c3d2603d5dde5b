package usecase

import (
	"fmt"
	"sync"

	"lexrag/internal/port"
)

// EmbedderFactory constructs the embedding provider on first use.
type EmbedderFactory func() (port.Embedder, error)

// RerankerFactory constructs the reranking provider on first use.
type RerankerFactory func() (port.Reranker, error)

// ProviderCache lazily constructs the embedding and reranking providers and
// retains them for the life of the process. Initialization runs exactly once
// even under concurrent first calls, and the outcome (instance or error)
// sticks; model and HTTP client setup cost is paid once per session.
type ProviderCache struct {
	newEmbedder EmbedderFactory
	newReranker RerankerFactory

	embedOnce sync.Once
	embedder  port.Embedder
	embedErr  error

	rerankOnce sync.Once
	reranker   port.Reranker
	rerankErr  error
}

func NewProviderCache(newEmbedder EmbedderFactory, newReranker RerankerFactory) *ProviderCache {
	return &ProviderCache{
		newEmbedder: newEmbedder,
		newReranker: newReranker,
	}
}

// Embedder returns the process-wide embedding provider.
func (p *ProviderCache) Embedder() (port.Embedder, error) {
	p.embedOnce.Do(func() {
		if p.newEmbedder == nil {
			p.embedErr = fmt.Errorf("no embedder configured")
			return
		}
		p.embedder, p.embedErr = p.newEmbedder()
	})
	return p.embedder, p.embedErr
}

// Reranker returns the process-wide reranking provider.
func (p *ProviderCache) Reranker() (port.Reranker, error) {
	p.rerankOnce.Do(func() {
		if p.newReranker == nil {
			p.rerankErr = fmt.Errorf("no reranker configured")
			return
		}
		p.reranker, p.rerankErr = p.newReranker()
	})
	return p.reranker, p.rerankErr
}
