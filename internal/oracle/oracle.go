// Package oracle wraps external LLM text generation. The engine treats
// the oracle as an unreliable collaborator: timeouts and malformed
// output are recoverable conditions, never fatal.
package oracle

import (
	"context"
	"time"
)

// Tier selects the model class for a generation call.
type Tier string

const (
	// TierFast serves preprocessing calls: query rewrite, HyDE
	// documents, and re-rank scoring.
	TierFast Tier = "fast"

	// TierSynthesis serves final answer generation.
	TierSynthesis Tier = "synthesis"
)

// Default per-tier timeouts.
const (
	DefaultFastTimeout      = 15 * time.Second
	DefaultSynthesisTimeout = 60 * time.Second
)

// GenerateOptions configures a single generation call.
type GenerateOptions struct {
	// Tier picks the model; zero value means TierFast.
	Tier Tier

	// Timeout bounds the call. Zero uses the tier default.
	Timeout time.Duration
}

// Oracle is the external text-generation capability.
type Oracle interface {
	// Generate produces text for the prompt. Callers must treat
	// timeouts and malformed output as recoverable.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Available reports whether the oracle can serve calls right now.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// Unavailable is an Oracle that always fails. Used when no generation
// backend is configured; every consumer degrades to its fallback path.
type Unavailable struct{}

// Generate always returns an unavailability error.
func (Unavailable) Generate(context.Context, string, GenerateOptions) (string, error) {
	return "", ErrOracleDown
}

// Available always returns false.
func (Unavailable) Available(context.Context) bool { return false }

// Close is a no-op.
func (Unavailable) Close() error { return nil }

var _ Oracle = Unavailable{}
