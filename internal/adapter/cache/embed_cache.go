package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"lexrag/internal/port"
)

var bucketEmbeddings = []byte("embeddings")

// EmbedCache persists embeddings across ingest runs so unchanged chunks are
// never re-embedded. Entries are keyed by model and text, so switching the
// embedding model naturally misses.
type EmbedCache struct {
	db *bbolt.DB
}

type storedEmbedding struct {
	Model  string    `json:"m"`
	Vector []float32 `json:"v"`
}

// OpenEmbedCache opens (or creates) the cache database at path.
func OpenEmbedCache(path string) (*EmbedCache, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embeddings bucket: %w", err)
	}

	return &EmbedCache{db: db}, nil
}

// Close closes the underlying database.
func (c *EmbedCache) Close() error {
	return c.db.Close()
}

func cacheKey(model, text string) []byte {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return []byte(hex.EncodeToString(sum[:16]))
}

// Get returns the cached vector for (model, text), if present.
func (c *EmbedCache) Get(model, text string) ([]float32, bool) {
	var vec []float32

	_ = c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return nil
		}
		raw := b.Get(cacheKey(model, text))
		if raw == nil {
			return nil
		}
		var stored storedEmbedding
		if err := json.Unmarshal(raw, &stored); err != nil {
			return nil // Skip corrupted entries
		}
		if stored.Model != model {
			return nil
		}
		vec = stored.Vector
		return nil
	})

	return vec, vec != nil
}

// Put stores the vector for (model, text).
func (c *EmbedCache) Put(model, text string, vec []float32) error {
	data, err := json.Marshal(storedEmbedding{Model: model, Vector: vec})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return fmt.Errorf("embeddings bucket not found")
		}
		return b.Put(cacheKey(model, text), data)
	})
}

// CachedEmbedder wraps an embedder with the persistent cache. Only texts
// missing from the cache reach the underlying provider.
type CachedEmbedder struct {
	embedder port.Embedder
	cache    *EmbedCache
}

func NewCachedEmbedder(embedder port.Embedder, cache *EmbedCache) *CachedEmbedder {
	return &CachedEmbedder{
		embedder: embedder,
		cache:    cache,
	}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vec, hit := e.cache.Get(e.embedder.ModelName(), text); hit {
			vecs[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vecs, nil
	}

	fresh, err := e.embedder.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missing))
	}

	for j, vec := range fresh {
		vecs[missingIdx[j]] = vec
		if err := e.cache.Put(e.embedder.ModelName(), missing[j], vec); err != nil {
			return nil, fmt.Errorf("failed to cache embedding: %w", err)
		}
	}

	return vecs, nil
}

func (e *CachedEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

func (e *CachedEmbedder) ModelName() string {
	return e.embedder.ModelName()
}
