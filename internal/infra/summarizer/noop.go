package summarizer

import (
	"context"

	"threatfeed/internal/usecase/brief"
)

// Noop is the generator used when no credential is configured.
// Every call fails with brief.ErrGeneratorUnavailable.
type Noop struct {
	provider string
}

// NewNoop creates a Noop generator standing in for provider.
func NewNoop(provider string) *Noop {
	return &Noop{provider: provider}
}

// Name returns the provider this generator stands in for.
func (n *Noop) Name() string { return n.provider }

// Configured always returns false.
func (n *Noop) Configured() bool { return false }

// Generate always returns brief.ErrGeneratorUnavailable.
func (n *Noop) Generate(context.Context, string, brief.GenerateOptions) (string, error) {
	return "", brief.ErrGeneratorUnavailable
}
