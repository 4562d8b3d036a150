// Package llm provides the hosted LLM providers used for query reformulation
// and streaming answer generation.
package llm

import (
	"context"
	"fmt"

	"github.com/askweb/askweb/internal/config"
	"go.uber.org/zap"
)

// Fragment is one unit of generated answer text. A Fragment with a non-nil
// Err terminates the stream; no further fragments follow it.
type Fragment struct {
	Text string
	Err  error
}

// Provider is a hosted LLM endpoint.
type Provider interface {
	// Generate runs one non-streaming completion and returns the full text.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream opens a streaming completion. The returned channel
	// yields answer fragments in generation order and is closed when the
	// upstream connection ends; concatenating every Text reconstructs the
	// full answer. An error opening the stream is returned directly, a
	// failure mid-stream arrives as a Fragment with Err set.
	GenerateStream(ctx context.Context, prompt string) (<-chan Fragment, error)
}

// New constructs the provider selected by llm.provider.
func New(cfg config.LLMConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(cfg, logger), nil
	case "openai":
		return NewOpenAI(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
