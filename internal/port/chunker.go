package port

import "lexrag/internal/domain"

type Chunker interface {
	Chunk(name string, data []byte) ([]domain.Chunk, error)
}
