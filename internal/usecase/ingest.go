package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lexrag/internal/adapter/fs"
	"lexrag/internal/domain"
	"lexrag/internal/port"
)

// IngestUseCase builds the corpus: discover constitution JSON sources, chunk
// them, embed the chunk texts with the same model the query path uses, and
// upsert everything into the collection.
type IngestUseCase struct {
	walker   *fs.Walker
	chunker  port.Chunker
	embedder port.Embedder
	writer   port.CorpusWriter
	batch    int
	log      *zap.Logger
}

func NewIngestUseCase(
	walker *fs.Walker,
	chunker port.Chunker,
	embedder port.Embedder,
	writer port.CorpusWriter,
	batchSize int,
	log *zap.Logger,
) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &IngestUseCase{
		walker:   walker,
		chunker:  chunker,
		embedder: embedder,
		writer:   writer,
		batch:    batchSize,
		log:      log,
	}
}

// IngestResult contains the results of an ingest run.
type IngestResult struct {
	FilesProcessed int
	ChunksCreated  int
	ChunksStored   int
	Errors         []string
}

// ProgressFunc reports chunk upload progress.
type ProgressFunc func(done, total int)

// Ingest processes every matching source under root. A file that fails to
// parse is recorded and skipped; it does not abort the run. Embedding or
// store failures do abort, returning the partial result alongside the error.
func (u *IngestUseCase) Ingest(ctx context.Context, root string, recreate bool, progress ProgressFunc) (*IngestResult, error) {
	result := &IngestResult{}

	files, err := u.walker.Discover(root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover sources: %w", err)
	}
	if len(files) == 0 {
		return result, nil
	}

	var chunks []domain.Chunk
	for _, path := range files {
		data, err := fs.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read %s: %v", path, err))
			continue
		}
		fileChunks, err := u.chunker.Chunk(path, data)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to chunk %s: %v", path, err))
			continue
		}
		chunks = append(chunks, fileChunks...)
		result.FilesProcessed++
	}

	result.ChunksCreated = len(chunks)
	if len(chunks) == 0 {
		return result, nil
	}

	if err := u.writer.EnsureSchema(ctx, recreate); err != nil {
		return result, fmt.Errorf("failed to ensure collection schema: %w", err)
	}

	for i := 0; i < len(chunks); i += u.batch {
		end := min(i+u.batch, len(chunks))
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, ch := range batch {
			texts[j] = ch.Passage.Content
		}

		vectors, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return result, fmt.Errorf("embedding batch failed: %w", err)
		}

		if err := u.writer.UpsertBatch(ctx, batch, vectors); err != nil {
			return result, fmt.Errorf("failed to store batch: %w", err)
		}

		result.ChunksStored += len(batch)
		if progress != nil {
			progress(result.ChunksStored, len(chunks))
		}
	}

	u.log.Info("ingest complete",
		zap.Int("files", result.FilesProcessed),
		zap.Int("chunks", result.ChunksStored),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}
