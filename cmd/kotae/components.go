package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/fetch"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/render"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/usage"
	"github.com/hyperjump/kotae/internal/websearch"
)

// Components holds all initialized application components.
type Components struct {
	Pipeline *pipeline.Pipeline
	Storage  storage.Storage // nil when run history is disabled
	Embedder embedding.Embedder
	Tracker  *usage.Tracker
	logger   *zap.Logger
}

// Close releases the embedder (and its cache) and the history database.
func (c *Components) Close() {
	if c.Embedder != nil {
		if err := c.Embedder.Close(); err != nil {
			c.logger.Warn("embedder close failed", zap.Error(err))
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil {
			c.logger.Warn("storage close failed", zap.Error(err))
		}
	}
}

// openStorage opens the run history database, or returns nil when history is disabled.
func openStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.Storage.DatabasePath == "" {
		return nil, nil
	}
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return st, nil
}

// newRenderer returns the headless renderer, or nil when the rendered fallback is disabled.
// A nil interface (not a nil *ChromeRenderer) keeps the strategy out of the chain.
func newRenderer(cfg *config.Config, logger *zap.Logger) extract.Renderer {
	if !cfg.Render.EnabledOrDefault() {
		return nil
	}
	return render.NewChromeRenderer(&cfg.Render, cfg.Fetch.UserAgent, render.WithLogger(logger))
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, extra ...pipeline.Option) (*Components, error) {
	searcher, err := websearch.NewSerpAPI(&cfg.Search, websearch.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	filter, err := websearch.NewHostFilter(cfg.Search.ExcludeHosts)
	if err != nil {
		return nil, fmt.Errorf("search.exclude_hosts: %w", err)
	}
	model, err := llm.NewOpenAIChat(&cfg.LLM, llm.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewHTTPFetcher(&cfg.Fetch, fetch.WithLogger(logger))
	extractor := extract.NewExtractor(fetcher, newRenderer(cfg, logger),
		extract.WithLogger(logger),
		extract.WithTempDir(cfg.Fetch.TempDir),
	)
	chunker := indexer.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.OverlapOrDefault())

	embedder, err := embedding.New(&cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	store, err := openStorage(cfg)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	tracker := usage.New()
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithHostFilter(filter),
		pipeline.WithTracker(tracker),
		pipeline.WithMaxResults(cfg.Search.MaxResults),
		pipeline.WithConcurrency(cfg.Fetch.Concurrency),
		pipeline.WithTopK(cfg.Retrieval.TopK),
		pipeline.WithBatchSize(cfg.Embedding.BatchSize),
	}
	if store != nil {
		opts = append(opts, pipeline.WithStorage(store))
	}
	opts = append(opts, extra...)

	return &Components{
		Pipeline: pipeline.New(searcher, extractor, chunker, embedder, model, opts...),
		Storage:  store,
		Embedder: embedder,
		Tracker:  tracker,
		logger:   logger,
	}, nil
}
