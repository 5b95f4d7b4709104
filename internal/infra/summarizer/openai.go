package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"threatfeed/internal/resilience/circuitbreaker"
	"threatfeed/internal/usecase/brief"
	"threatfeed/internal/utils/text"
)

// OpenAI implements brief.Generator using the Chat Completions API.
type OpenAI struct {
	client *openai.Client
	model  string
	guard  *guard
}

// NewOpenAI creates an OpenAI generator. cfg.BaseURL, when set, must include
// the API version path, for example "https://api.openai.com/v1".
func NewOpenAI(cfg Config, opts ...Option) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	o := &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.model(),
		guard:  newGuard(ProviderOpenAI, circuitbreaker.ProviderConfig(ProviderOpenAI), cfg, opts),
	}

	o.guard.logger.Info("Initialized OpenAI generator",
		slog.String("model", o.model))

	return o
}

// Name implements brief.Generator.
func (o *OpenAI) Name() string { return ProviderOpenAI }

// Configured implements brief.Generator.
func (o *OpenAI) Configured() bool { return true }

// Generate sends prompt as a single user message.
func (o *OpenAI) Generate(ctx context.Context, prompt string, opts brief.GenerateOptions) (string, error) {
	return o.guard.run(ctx, func(ctx context.Context) (string, error) {
		return o.doGenerate(ctx, prompt, opts)
	})
}

// doGenerate performs the actual API call without retry or circuit breaker.
func (o *OpenAI) doGenerate(ctx context.Context, prompt string, opts brief.GenerateOptions) (string, error) {
	requestID := uuid.New().String()
	logger := o.guard.logger

	logger.DebugContext(ctx, "Starting generation",
		slog.String("request_id", requestID),
		slog.String("provider", ProviderOpenAI),
		slog.Int("prompt_length", text.CountRunes(prompt)),
		slog.Int("max_tokens", opts.MaxTokens))

	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})

	duration := time.Since(start)

	if err != nil {
		logger.ErrorContext(ctx, "Generation failed",
			slog.String("request_id", requestID),
			slog.String("provider", ProviderOpenAI),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", classifyOpenAIError(err)
	}

	// Validate response structure (safety check to prevent panic on array access)
	if len(resp.Choices) == 0 {
		logger.ErrorContext(ctx, "OpenAI API returned empty response",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		return "", fmt.Errorf("openai api returned empty response")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("openai api returned empty content")
	}

	logger.InfoContext(ctx, "Generation completed",
		slog.String("request_id", requestID),
		slog.String("provider", ProviderOpenAI),
		slog.Int("output_length", text.CountRunes(out)),
		slog.Duration("duration", duration))

	return out, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return httpStatusError(ProviderOpenAI, apiErr.HTTPStatusCode, "", err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return httpStatusError(ProviderOpenAI, reqErr.HTTPStatusCode, "", err)
	}
	return fmt.Errorf("openai api error: %w", err)
}
