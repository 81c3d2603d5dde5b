package port

import (
	"context"

	"lexrag/internal/domain"
)

// Searcher is the read side of the vector store.
type Searcher interface {
	// HybridSearch fuses sparse and dense retrieval over the collection.
	// Vector must be in the corpus embedding space. An empty result is a
	// valid outcome, not an error.
	HybridSearch(ctx context.Context, query string, vector []float32, limit int) ([]domain.ScoredPassage, error)

	// NearestNeighbor runs pure dense retrieval.
	NearestNeighbor(ctx context.Context, vector []float32, limit int) ([]domain.ScoredPassage, error)

	// Ready reports whether the store is reachable and serving.
	Ready(ctx context.Context) error
}

// CorpusWriter is the ingest side of the vector store.
type CorpusWriter interface {
	// EnsureSchema creates the collection when absent. With recreate set it
	// drops and recreates, discarding all objects.
	EnsureSchema(ctx context.Context, recreate bool) error

	// UpsertBatch writes chunks with their vectors. Chunk IDs are stable, so
	// re-running an ingest overwrites rather than duplicates.
	UpsertBatch(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Count returns the number of objects in the collection.
	Count(ctx context.Context) (int, error)
}
