package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"lexrag/internal/domain"
)

// OpenAIGenerator produces grounded answers with a chat completion model.
type OpenAIGenerator struct {
	api   *openai.Client
	model string
	log   *zap.Logger
}

// NewOpenAIGenerator creates a generator against the OpenAI API or a
// compatible baseURL override.
func NewOpenAIGenerator(apiKeyEnv, model, baseURL string, timeoutSeconds int, log *zap.Logger) (*OpenAIGenerator, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}

	return &OpenAIGenerator{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
		log:   log,
	}, nil
}

// Generate runs one chat completion with a system and a user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", wrapGenerateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ProviderError{Provider: "generate", Message: "completion returned no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

// wrapGenerateError classifies the client error structurally. Quota
// exhaustion and throttling become rate-limited provider errors; message
// text is never inspected.
func wrapGenerateError(err error) error {
	pe := &domain.ProviderError{
		Provider: "generate",
		Message:  err.Error(),
		Err:      err,
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.HTTPStatusCode
		if code, ok := apiErr.Code.(string); ok {
			pe.Code = code
		}
		pe.Message = apiErr.Message
		pe.RateLimited = apiErr.HTTPStatusCode == http.StatusTooManyRequests || pe.Code == "insufficient_quota"
		return pe
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		pe.StatusCode = reqErr.HTTPStatusCode
		pe.RateLimited = reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return pe
}

// ModelName returns the model name.
func (g *OpenAIGenerator) ModelName() string {
	return g.model
}
