package summarizer

import (
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"

	"threatfeed/internal/resilience/retry"
)

// Supported provider names.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return openai.GPT4oMini
	case ProviderGemini:
		return "gemini-1.5-flash"
	default:
		return string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
}

// Config holds the settings of the selected provider.
type Config struct {
	// Provider is one of ProviderClaude, ProviderOpenAI or ProviderGemini.
	Provider string

	// APIKey is the provider credential. Empty leaves the generator unconfigured.
	APIKey string

	// Model is the provider model identifier.
	Model string

	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string

	// Timeout bounds one Generate call, retries included.
	Timeout time.Duration

	// RequestsPerSecond and Burst shape the outbound token bucket.
	// A non-positive RequestsPerSecond disables limiting.
	RequestsPerSecond float64
	Burst             int

	// Retry is the retry policy. A zero MaxAttempts selects retry.AIAPIConfig.
	Retry retry.Config
}

// DefaultConfig returns the Claude configuration without a credential.
func DefaultConfig() Config {
	return Config{
		Provider:          ProviderClaude,
		Model:             DefaultModel(ProviderClaude),
		Timeout:           60 * time.Second,
		RequestsPerSecond: 1,
		Burst:             3,
		Retry:             retry.AIAPIConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderClaude, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q (want %s, %s or %s)", c.Provider, ProviderClaude, ProviderOpenAI, ProviderGemini)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	if c.RequestsPerSecond > 0 && c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 when rate limiting, got %d", c.Burst)
	}

	return nil
}

func (c Config) model() string {
	if c.Model == "" {
		return DefaultModel(c.Provider)
	}
	return c.Model
}

func (c Config) retryConfig() retry.Config {
	if c.Retry.MaxAttempts == 0 {
		return retry.AIAPIConfig()
	}
	return c.Retry
}
