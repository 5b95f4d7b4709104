package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"threatfeed/internal/resilience/circuitbreaker"
	"threatfeed/internal/usecase/brief"
	"threatfeed/internal/utils/text"
)

// Claude implements brief.Generator using Anthropic's Messages API.
type Claude struct {
	client anthropic.Client
	model  string
	guard  *guard
}

// NewClaude creates a Claude generator. SDK-level retries are disabled since
// the guard owns the retry policy.
func NewClaude(cfg Config, opts ...Option) *Claude {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}

	c := &Claude{
		client: anthropic.NewClient(reqOpts...),
		model:  cfg.model(),
		guard:  newGuard(ProviderClaude, circuitbreaker.ProviderConfig(ProviderClaude), cfg, opts),
	}

	c.guard.logger.Info("Initialized Claude generator",
		slog.String("model", c.model))

	return c
}

// Name implements brief.Generator.
func (c *Claude) Name() string { return ProviderClaude }

// Configured implements brief.Generator.
func (c *Claude) Configured() bool { return true }

// Generate sends prompt as a single user message.
func (c *Claude) Generate(ctx context.Context, prompt string, opts brief.GenerateOptions) (string, error) {
	return c.guard.run(ctx, func(ctx context.Context) (string, error) {
		return c.doGenerate(ctx, prompt, opts)
	})
}

// doGenerate performs the actual API call without retry or circuit breaker.
func (c *Claude) doGenerate(ctx context.Context, prompt string, opts brief.GenerateOptions) (string, error) {
	requestID := uuid.New().String()
	logger := c.guard.logger

	logger.DebugContext(ctx, "Starting generation",
		slog.String("request_id", requestID),
		slog.String("provider", ProviderClaude),
		slog.Int("prompt_length", text.CountRunes(prompt)),
		slog.Int("max_tokens", opts.MaxTokens))

	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(opts.MaxTokens),
		Temperature: anthropic.Float(opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})

	duration := time.Since(start)

	if err != nil {
		logger.ErrorContext(ctx, "Generation failed",
			slog.String("request_id", requestID),
			slog.String("provider", ProviderClaude),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))

		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			retryAfter := ""
			if apiErr.Response != nil {
				retryAfter = apiErr.Response.Header.Get("Retry-After")
			}
			return "", httpStatusError(ProviderClaude, apiErr.StatusCode, retryAfter, err)
		}
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(textBlock.Text)
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		logger.ErrorContext(ctx, "Claude API returned empty response",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		return "", fmt.Errorf("claude api returned empty response")
	}

	logger.InfoContext(ctx, "Generation completed",
		slog.String("request_id", requestID),
		slog.String("provider", ProviderClaude),
		slog.Int("output_length", text.CountRunes(out)),
		slog.Duration("duration", duration))

	return out, nil
}
