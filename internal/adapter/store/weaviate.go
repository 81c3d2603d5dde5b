package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.uber.org/zap"

	"lexrag/internal/domain"
)

// hybridAlpha balances sparse and dense retrieval in hybrid search. 0.5
// weighs both equally; the corpus is tuned against this value.
const hybridAlpha float32 = 0.5

// WeaviateStore talks to a Weaviate cluster holding the constitution
// collection. All calls carry an explicit timeout.
type WeaviateStore struct {
	client  *weaviate.Client
	class   string
	timeout time.Duration
	log     *zap.Logger
}

// NewWeaviateStore connects to the cluster at rawURL. The URL may omit the
// scheme; https is assumed then.
func NewWeaviateStore(rawURL, apiKey, collection string, timeoutSeconds int, log *zap.Logger) (*WeaviateStore, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("weaviate URL must not be empty")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 15
	}

	scheme, host, err := parseEndpoint(rawURL)
	if err != nil {
		return nil, err
	}

	cfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if apiKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: apiKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	return &WeaviateStore{
		client:  client,
		class:   collection,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		log:     log,
	}, nil
}

// parseEndpoint splits a cluster URL into scheme and host.
func parseEndpoint(raw string) (scheme, host string, err error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid weaviate URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid weaviate URL %q: no host", raw)
	}
	return u.Scheme, u.Host, nil
}

// Ready reports whether the cluster is reachable and serving.
func (s *WeaviateStore) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate readiness check failed: %w", err)
	}
	if !ready {
		return fmt.Errorf("weaviate is not ready, check credentials and endpoint")
	}
	return nil
}

var passageFields = []graphql.Field{
	{Name: "title"},
	{Name: "content"},
	{Name: "article"},
	{Name: "chapter"},
	{Name: "section"},
}

// HybridSearch fuses BM25 and vector retrieval over the collection.
func (s *WeaviateStore) HybridSearch(ctx context.Context, query string, vector []float32, limit int) ([]domain.ScoredPassage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fields := append([]graphql.Field{}, passageFields...)
	fields = append(fields, graphql.Field{
		Name:   "_additional",
		Fields: []graphql.Field{{Name: "score"}},
	})

	hybrid := s.client.GraphQL().HybridArgumentBuilder().
		WithQuery(query).
		WithVector(vector).
		WithAlpha(hybridAlpha)

	resp, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(fields...).
		WithHybrid(hybrid).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", err)
	}

	return decodePassages(resp, s.class)
}

// NearestNeighbor runs pure dense retrieval.
func (s *WeaviateStore) NearestNeighbor(ctx context.Context, vector []float32, limit int) ([]domain.ScoredPassage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fields := append([]graphql.Field{}, passageFields...)
	fields = append(fields, graphql.Field{
		Name:   "_additional",
		Fields: []graphql.Field{{Name: "certainty"}, {Name: "distance"}},
	})

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	resp, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbor search failed: %w", err)
	}

	return decodePassages(resp, s.class)
}

// decodePassages unpacks a GraphQL Get response into scored passages. An
// absent or empty result list is a valid empty outcome.
func decodePassages(resp *models.GraphQLResponse, class string) ([]domain.ScoredPassage, error) {
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			if e != nil {
				msgs = append(msgs, e.Message)
			}
		}
		return nil, fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
	}

	get, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed graphql response: missing Get block")
	}

	raw, ok := get[class].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	passages := make([]domain.ScoredPassage, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		passages = append(passages, domain.ScoredPassage{
			Passage: domain.Passage{
				Title:   stringProp(obj, "title"),
				Content: stringProp(obj, "content"),
				Chapter: stringProp(obj, "chapter"),
				Section: stringProp(obj, "section"),
				Article: stringProp(obj, "article"),
			},
			Score: additionalScore(obj),
		})
	}

	return passages, nil
}

func stringProp(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

// additionalScore extracts a higher-is-better score from the _additional
// block. Hybrid search reports score as a string, nearVector reports
// certainty and distance.
func additionalScore(obj map[string]interface{}) float64 {
	add, ok := obj["_additional"].(map[string]interface{})
	if !ok {
		return 0
	}
	switch v := add["score"].(type) {
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case float64:
		return v
	}
	if c, ok := add["certainty"].(float64); ok {
		return c
	}
	if d, ok := add["distance"].(float64); ok {
		return 1 - d
	}
	return 0
}

// EnsureSchema creates the collection when absent. The vectorizer is none:
// vectors are produced client side with the corpus embedding model.
func (s *WeaviateStore) EnsureSchema(ctx context.Context, recreate bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(s.class).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check class existence: %w", err)
	}

	if exists && recreate {
		if err := s.client.Schema().ClassDeleter().WithClassName(s.class).Do(ctx); err != nil {
			return fmt.Errorf("failed to delete class %s: %w", s.class, err)
		}
		exists = false
		s.log.Info("dropped collection", zap.String("class", s.class))
	}

	if exists {
		return nil
	}

	class := &models.Class{
		Class:      s.class,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "title", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "article", DataType: []string{"text"}},
			{Name: "chapter", DataType: []string{"text"}},
			{Name: "section", DataType: []string{"text"}},
			{Name: "slug", DataType: []string{"text"}},
			{Name: "year", DataType: []string{"int"}},
		},
	}

	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", s.class, err)
	}
	s.log.Info("created collection", zap.String("class", s.class))
	return nil
}

// UpsertBatch writes chunks with their vectors. IDs are deterministic, so
// re-ingesting the same source overwrites in place.
func (s *WeaviateStore) UpsertBatch(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	objects := make([]*models.Object, len(chunks))
	for i, ch := range chunks {
		props := map[string]interface{}{
			"title":   ch.Passage.Title,
			"content": ch.Passage.Content,
			"slug":    ch.Slug,
			"year":    ch.Year,
		}
		// Optional fields stay absent rather than empty, mirroring how the
		// query side treats missing metadata.
		if ch.Passage.Chapter != "" {
			props["chapter"] = ch.Passage.Chapter
		}
		if ch.Passage.Section != "" {
			props["section"] = ch.Passage.Section
		}
		if ch.Passage.Article != "" {
			props["article"] = ch.Passage.Article
		}

		objects[i] = &models.Object{
			Class:      s.class,
			ID:         strfmt.UUID(ch.ID),
			Properties: props,
			Vector:     models.C11yVector(vectors[i]),
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("batch upsert failed: %w", err)
	}

	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch upsert rejected object %s: %s", r.ID, r.Result.Errors.Error[0].Message)
		}
	}

	return nil
}

// Count returns the number of objects in the collection.
func (s *WeaviateStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.GraphQL().Aggregate().
		WithClassName(s.class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("aggregate count failed: %w", err)
	}
	if len(resp.Errors) > 0 && resp.Errors[0] != nil {
		return 0, fmt.Errorf("aggregate count failed: %s", resp.Errors[0].Message)
	}

	agg, ok := resp.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("malformed aggregate response")
	}
	rows, ok := agg[s.class].([]interface{})
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("malformed aggregate response")
	}
	meta, ok := row["meta"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("malformed aggregate response")
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0, fmt.Errorf("malformed aggregate response")
	}
	return int(count), nil
}

// Collection returns the collection name the store is bound to.
func (s *WeaviateStore) Collection() string {
	return s.class
}
