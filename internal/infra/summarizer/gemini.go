package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"threatfeed/internal/resilience/circuitbreaker"
	"threatfeed/internal/usecase/brief"
	"threatfeed/internal/utils/text"
)

// Gemini implements brief.Generator using Google's Generative Language API.
type Gemini struct {
	client *genai.Client
	model  string
	guard  *guard
}

// NewGemini creates a Gemini generator. Close releases the client.
func NewGemini(ctx context.Context, cfg Config, opts ...Option) (*Gemini, error) {
	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &Gemini{
		client: client,
		model:  cfg.model(),
		guard:  newGuard(ProviderGemini, circuitbreaker.ProviderConfig(ProviderGemini), cfg, opts),
	}

	g.guard.logger.Info("Initialized Gemini generator",
		slog.String("model", g.model))

	return g, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Name implements brief.Generator.
func (g *Gemini) Name() string { return ProviderGemini }

// Configured implements brief.Generator.
func (g *Gemini) Configured() bool { return true }

// Generate sends prompt as a single text part.
func (g *Gemini) Generate(ctx context.Context, prompt string, opts brief.GenerateOptions) (string, error) {
	return g.guard.run(ctx, func(ctx context.Context) (string, error) {
		return g.doGenerate(ctx, prompt, opts)
	})
}

// doGenerate performs the actual API call without retry or circuit breaker.
func (g *Gemini) doGenerate(ctx context.Context, prompt string, opts brief.GenerateOptions) (string, error) {
	requestID := uuid.New().String()
	logger := g.guard.logger

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(float32(opts.Temperature))
	model.SetMaxOutputTokens(int32(opts.MaxTokens))

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	duration := time.Since(start)

	if err != nil {
		logger.ErrorContext(ctx, "Generation failed",
			slog.String("request_id", requestID),
			slog.String("provider", ProviderGemini),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", classifyGeminiError(err)
	}

	out, err := responseText(resp)
	if err != nil {
		logger.ErrorContext(ctx, "Gemini API returned empty response",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		return "", err
	}

	logger.InfoContext(ctx, "Generation completed",
		slog.String("request_id", requestID),
		slog.String("provider", ProviderGemini),
		slog.Int("output_length", text.CountRunes(out)),
		slog.Duration("duration", duration))

	return out, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("no text in Gemini response")
	}
	return out, nil
}

// grpcToHTTP maps the status codes the API reports to their HTTP equivalents.
var grpcToHTTP = map[codes.Code]int{
	codes.ResourceExhausted: http.StatusTooManyRequests,
	codes.Unavailable:       http.StatusServiceUnavailable,
	codes.Internal:          http.StatusInternalServerError,
	codes.DeadlineExceeded:  http.StatusGatewayTimeout,
	codes.InvalidArgument:   http.StatusBadRequest,
	codes.PermissionDenied:  http.StatusForbidden,
	codes.Unauthenticated:   http.StatusUnauthorized,
}

func classifyGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code > 0 {
		return httpStatusError(ProviderGemini, gerr.Code, gerr.Header.Get("Retry-After"), err)
	}
	if st, ok := status.FromError(err); ok {
		if code, found := grpcToHTTP[st.Code()]; found {
			return httpStatusError(ProviderGemini, code, "", err)
		}
	}
	return fmt.Errorf("gemini api error: %w", err)
}
