package brief

import "context"

// GenerateOptions tunes a single completion.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// Generator produces text from a prompt using a hosted language model.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Name identifies the provider, for example "claude".
	Name() string

	// Configured reports whether a credential is present.
	Configured() bool
}
