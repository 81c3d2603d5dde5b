package port

import "context"

// Embedder generates vector embeddings for text.
//
// Vectors must come from the same model and normalization that produced the
// corpus index; mixing embedding spaces silently breaks retrieval.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns one L2-normalized vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
