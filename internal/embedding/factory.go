package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

// New builds the embedder selected by cfg.Provider, wrapped in the configured cache.
// A cache path selects the persistent bbolt cache; otherwise cache_size selects the in-memory LRU.
func New(cfg *config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	var inner Embedder
	switch cfg.Provider {
	case config.EmbeddingProviderOpenAI:
		e, err := NewOpenAIEmbedder(OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			BatchSize: cfg.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		inner = e
	case config.EmbeddingProviderONNX:
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		inner = e
	case config.EmbeddingProviderHash:
		inner = NewHashEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	switch {
	case cfg.CachePath != "":
		store, err := OpenBoltCache(cfg.CachePath, logger)
		if err != nil {
			_ = inner.Close()
			return nil, err
		}
		return NewCached(inner, store), nil
	case cfg.CacheSize > 0:
		return NewCached(inner, NewEmbeddingCache(cfg.CacheSize)), nil
	default:
		return inner, nil
	}
}
