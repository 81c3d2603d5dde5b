package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"lexrag/internal/domain"
)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func chatHandler(t *testing.T, gotReq *chatRequest, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		})
	}
}

func newTestGenerator(t *testing.T, baseURL string) *OpenAIGenerator {
	t.Helper()
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	g, err := NewOpenAIGenerator("TEST_OPENAI_KEY", "gpt-3.5-turbo", baseURL, 5, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOpenAIGenerator() error = %v", err)
	}
	return g
}

func TestGenerateForwardsBothMessages(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(chatHandler(t, &gotReq, "Article 8 covers it."))
	defer server.Close()

	g := newTestGenerator(t, server.URL)

	text, err := g.Generate(context.Background(), "you are grounded", "Context:\nstuff\n\nQuestion: what?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "Article 8 covers it." {
		t.Errorf("Generate() = %q", text)
	}

	if gotReq.Model != "gpt-3.5-turbo" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "you are grounded" {
		t.Errorf("system message = %+v", gotReq.Messages[0])
	}
	if gotReq.Messages[1].Role != "user" || gotReq.Messages[1].Content != "Context:\nstuff\n\nQuestion: what?" {
		t.Errorf("user message = %+v", gotReq.Messages[1])
	}
}

func TestGenerateRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	g := newTestGenerator(t, server.URL)

	_, err := g.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Generate() should fail on 429")
	}
	if !domain.IsRateLimited(err) {
		t.Errorf("429 should classify as rate limited: %v", err)
	}
}

func TestGenerateQuotaCodeOnOtherStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "You exceeded your current quota", "type": "insufficient_quota", "code": "insufficient_quota"}}`))
	}))
	defer server.Close()

	g := newTestGenerator(t, server.URL)

	_, err := g.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Generate() should fail")
	}
	if !domain.IsRateLimited(err) {
		t.Errorf("insufficient_quota code should classify as rate limited regardless of status: %v", err)
	}
}

func TestGenerateServerErrorNotRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "The server had an error", "type": "server_error"}}`))
	}))
	defer server.Close()

	g := newTestGenerator(t, server.URL)

	_, err := g.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Generate() should fail on 500")
	}
	if domain.IsRateLimited(err) {
		t.Errorf("500 must not classify as rate limited: %v", err)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	g := newTestGenerator(t, server.URL)

	_, err := g.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Generate() should fail when no choices come back")
	}
	if domain.IsRateLimited(err) {
		t.Errorf("empty choices must not classify as rate limited: %v", err)
	}
}

func TestNewOpenAIGeneratorMissingKey(t *testing.T) {
	if _, err := NewOpenAIGenerator("OPENAI_TEST_KEY_THAT_IS_UNSET", "", "", 5, zap.NewNop()); err == nil {
		t.Error("missing API key should fail construction")
	}
}
