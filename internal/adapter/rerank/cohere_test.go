package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCohereRerankerScore(t *testing.T) {
	t.Setenv("COHERE_API_KEY", "test-key")

	var gotReq cohereRerankRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(cohereRerankResponse{
			Results: []cohereRerankResult{
				{Index: 0, RelevanceScore: 0.34},
				{Index: 1, RelevanceScore: 0.81},
			},
		})
	}))
	defer server.Close()

	r, err := NewCohereReranker("COHERE_API_KEY", "", server.URL, 5)
	if err != nil {
		t.Fatalf("NewCohereReranker() error = %v", err)
	}

	results, err := r.Score(context.Background(), "q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if gotReq.Model != "rerank-english-v3.0" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if len(gotReq.Documents) != 2 {
		t.Errorf("request documents = %v", gotReq.Documents)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[1].Index != 1 || results[1].Score != 0.81 {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestCohereRerankerMissingKey(t *testing.T) {
	if _, err := NewCohereReranker("COHERE_TEST_KEY_THAT_IS_UNSET", "", "", 5); err == nil {
		t.Error("missing API key should fail construction")
	}
}

func TestCohereRerankerAPIError(t *testing.T) {
	t.Setenv("COHERE_API_KEY", "test-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid model"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	r, err := NewCohereReranker("COHERE_API_KEY", "bogus", server.URL, 5)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Score(context.Background(), "q", []string{"p"}); err == nil {
		t.Error("Score() should surface API errors")
	}
}
