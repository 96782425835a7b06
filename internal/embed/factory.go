package embed

import (
	"context"
	"log/slog"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/config"
)

// NewFromConfig builds the configured embedder wrapped in an LRU cache.
// Provider "ollama" falls back to the static embedder when the daemon
// is unreachable, so ingestion never hard-fails on a missing provider.
func NewFromConfig(ctx context.Context, cfg config.EmbeddingsConfig) Embedder {
	var inner Embedder

	switch cfg.Provider {
	case "static":
		inner = NewStaticEmbedder()
	default:
		ollama := NewOllamaEmbedder(OllamaConfig{
			Host:       cfg.OllamaHost,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
		})
		if ollama.Available(ctx) {
			inner = ollama
		} else {
			slog.Warn("embedder_fallback",
				slog.String("provider", "ollama"),
				slog.String("fallback", "static"))
			_ = ollama.Close()
			inner = NewStaticEmbedder()
		}
	}

	return NewCachedEmbedder(inner, cfg.CacheSize)
}
