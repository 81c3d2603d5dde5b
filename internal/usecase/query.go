package usecase

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"lexrag/internal/domain"
	"lexrag/internal/port"
)

// NoResultsNotice is shown when retrieval finds no candidates.
const NoResultsNotice = "No results found. Please try a different query."

// RateLimitedNotice is shown when generation is out of quota and the raw
// context is returned instead of an answer.
const RateLimitedNotice = "Answer generation is rate limited or out of quota. Showing the retrieved context instead."

// QueryUseCase runs the retrieval and answering pipeline. Each call is
// independent; the only state shared across queries is the provider cache.
type QueryUseCase struct {
	providers *ProviderCache
	searcher  port.Searcher
	generator port.Generator
	limit     int
	rerank    bool
	log       *zap.Logger
}

// NewQueryUseCase creates the pipeline. limit bounds hybrid candidates;
// reranking reorders them but never changes the count.
func NewQueryUseCase(
	providers *ProviderCache,
	searcher port.Searcher,
	generator port.Generator,
	limit int,
	rerank bool,
	log *zap.Logger,
) *QueryUseCase {
	if limit <= 0 {
		limit = 5
	}
	return &QueryUseCase{
		providers: providers,
		searcher:  searcher,
		generator: generator,
		limit:     limit,
		rerank:    rerank,
		log:       log,
	}
}

// Retrieve embeds the query, runs hybrid search and reranks the candidates.
// An empty result means the corpus had nothing; the reranker is not invoked
// then.
func (u *QueryUseCase) Retrieve(ctx context.Context, query string) ([]domain.ScoredPassage, error) {
	embedder, err := u.providers.Embedder()
	if err != nil {
		return nil, fmt.Errorf("embedder unavailable: %w", err)
	}

	vecs, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected one query vector, got %d", len(vecs))
	}

	candidates, err := u.searcher.HybridSearch(ctx, query, vecs[0], u.limit)
	if err != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	u.log.Debug("hybrid search done",
		zap.Int("candidates", len(candidates)),
		zap.Bool("rerank", u.rerank))

	if !u.rerank {
		return candidates, nil
	}
	return u.rerankCandidates(ctx, query, candidates)
}

// rerankCandidates scores every candidate with the cross-encoder and sorts
// by score descending. The sort is stable, so ties keep the hybrid order.
func (u *QueryUseCase) rerankCandidates(ctx context.Context, query string, candidates []domain.ScoredPassage) ([]domain.ScoredPassage, error) {
	reranker, err := u.providers.Reranker()
	if err != nil {
		return nil, fmt.Errorf("reranker unavailable: %w", err)
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Passage.Content
	}

	results, err := reranker.Score(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("reranking failed: %w", err)
	}

	scores := make([]float64, len(candidates))
	for _, r := range results {
		if r.Index >= 0 && r.Index < len(scores) {
			scores[r.Index] = r.Score
		}
	}

	scored := make([]domain.ScoredPassage, len(candidates))
	for i, c := range candidates {
		scored[i] = domain.ScoredPassage{Passage: c.Passage, Score: scores[i]}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored, nil
}

// Ask runs the full pipeline and composes a grounded answer. Quota failures
// on generation degrade to returning the raw context; everything else fails
// the query.
func (u *QueryUseCase) Ask(ctx context.Context, query string) (domain.Answer, error) {
	passages, err := u.Retrieve(ctx, query)
	if err != nil {
		return domain.Answer{}, err
	}

	if len(passages) == 0 {
		return domain.Answer{
			Outcome: domain.OutcomeNoResults,
			Notice:  NoResultsNotice,
		}, nil
	}

	contextText := BuildContext(passages)

	prompt, err := QuestionPrompt(contextText, query)
	if err != nil {
		return domain.Answer{}, err
	}

	text, err := u.generator.Generate(ctx, SystemPrompt(), prompt)
	if err != nil {
		if domain.IsRateLimited(err) {
			u.log.Warn("generation rate limited, returning raw context", zap.Error(err))
			return domain.Answer{
				Outcome:  domain.OutcomeContextOnly,
				Notice:   RateLimitedNotice,
				Context:  contextText,
				Passages: passages,
			}, nil
		}
		return domain.Answer{}, fmt.Errorf("answer generation failed: %w", err)
	}

	return domain.Answer{
		Outcome:  domain.OutcomeAnswered,
		Text:     text,
		Context:  contextText,
		Passages: passages,
	}, nil
}

// SearchNearest embeds the query and runs dense-only retrieval. Generation
// is never involved; this is the offline smoke path for the corpus.
func (u *QueryUseCase) SearchNearest(ctx context.Context, query string) ([]domain.ScoredPassage, error) {
	embedder, err := u.providers.Embedder()
	if err != nil {
		return nil, fmt.Errorf("embedder unavailable: %w", err)
	}

	vecs, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected one query vector, got %d", len(vecs))
	}

	return u.searcher.NearestNeighbor(ctx, vecs[0], u.limit)
}
