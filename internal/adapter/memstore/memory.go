package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"lexrag/internal/domain"
)

// hybridAlpha mirrors the fusion weight the Weaviate store uses.
const hybridAlpha = 0.5

// MemoryStore keeps the corpus in process memory. It approximates the remote
// store closely enough for offline demos and tests: dense scoring is cosine
// similarity, sparse scoring is query term overlap, hybrid fuses the two with
// the same alpha as the remote side. Results are deterministic; ties keep
// insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	chunks  map[string]domain.Chunk
	vectors map[string][]float32
	order   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chunks:  make(map[string]domain.Chunk),
		vectors: make(map[string][]float32),
	}
}

// Ready always succeeds; there is nothing remote to wait for.
func (s *MemoryStore) Ready(context.Context) error {
	return nil
}

// EnsureSchema clears the corpus when recreate is set.
func (s *MemoryStore) EnsureSchema(_ context.Context, recreate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if recreate {
		s.chunks = make(map[string]domain.Chunk)
		s.vectors = make(map[string][]float32)
		s.order = nil
	}
	return nil
}

// UpsertBatch stores chunks with their vectors, keyed by chunk ID.
func (s *MemoryStore) UpsertBatch(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ch := range chunks {
		if _, exists := s.chunks[ch.ID]; !exists {
			s.order = append(s.order, ch.ID)
		}
		s.chunks[ch.ID] = ch
		s.vectors[ch.ID] = vectors[i]
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// HybridSearch fuses cosine similarity with query term overlap.
func (s *MemoryStore) HybridSearch(_ context.Context, query string, vector []float32, limit int) ([]domain.ScoredPassage, error) {
	terms := queryTerms(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]domain.ScoredPassage, 0, len(s.order))
	for _, id := range s.order {
		ch := s.chunks[id]
		dense := cosine(vector, s.vectors[id])
		sparse := termOverlap(terms, ch.Passage.Content)
		scored = append(scored, domain.ScoredPassage{
			Passage: ch.Passage,
			Score:   hybridAlpha*dense + (1-hybridAlpha)*sparse,
		})
	}

	return topByScore(scored, limit), nil
}

// NearestNeighbor ranks by cosine similarity alone.
func (s *MemoryStore) NearestNeighbor(_ context.Context, vector []float32, limit int) ([]domain.ScoredPassage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]domain.ScoredPassage, 0, len(s.order))
	for _, id := range s.order {
		ch := s.chunks[id]
		scored = append(scored, domain.ScoredPassage{
			Passage: ch.Passage,
			Score:   cosine(vector, s.vectors[id]),
		})
	}

	return topByScore(scored, limit), nil
}

func topByScore(scored []domain.ScoredPassage, limit int) []domain.ScoredPassage {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	if len(scored) == 0 {
		return nil
	}
	return scored
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func queryTerms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// termOverlap is the fraction of query terms appearing in the content.
func termOverlap(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
