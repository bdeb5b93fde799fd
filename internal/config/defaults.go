package config

import "time"

// Defaults that other packages refer to.
const (
	DefaultSearchEngine     = "google"
	DefaultMaxResults       = 1
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultTopK             = 4
	DefaultLLMModel         = "gpt-4-1106-preview"
	DefaultTemperature      = 0.2
	DefaultEmbeddingModel   = "text-embedding-3-small"
	DefaultSettleDelay      = 5 * time.Second
	SettleModeQuiescence    = "quiescence"
	SettleModeFixed         = "fixed"
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderONNX   = "onnx"
	EmbeddingProviderHash   = "hash"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Search.Provider == "" {
		cfg.Search.Provider = "serpapi"
	}
	if cfg.Search.Engine == "" {
		cfg.Search.Engine = DefaultSearchEngine
	}
	cfg.Search.APIKey = resolveSecret(cfg.Search.APIKey, "SERP_API_KEY")
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = DefaultMaxResults
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 20 * time.Second
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "kotae/1.0"
	}
	if cfg.Fetch.MaxBodyBytes == 0 {
		cfg.Fetch.MaxBodyBytes = 20 << 20
	}
	if cfg.Fetch.Concurrency == 0 {
		cfg.Fetch.Concurrency = 4
	}
	if cfg.Render.SettleMode == "" {
		cfg.Render.SettleMode = SettleModeQuiescence
	}
	if cfg.Render.SettleDelay == 0 {
		cfg.Render.SettleDelay = DefaultSettleDelay
	}
	if cfg.Render.PollInterval == 0 {
		cfg.Render.PollInterval = 250 * time.Millisecond
	}
	if cfg.Render.QuietPeriod == 0 {
		cfg.Render.QuietPeriod = time.Second
	}
	if cfg.Render.NavTimeout == 0 {
		cfg.Render.NavTimeout = 30 * time.Second
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = DefaultChunkSize
	}
	overlap := cfg.Chunking.OverlapOrDefault()
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= cfg.Chunking.ChunkSize {
		overlap = cfg.Chunking.ChunkSize / 5
	}
	cfg.Chunking.ChunkOverlap = &overlap
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = EmbeddingProviderOpenAI
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultEmbeddingModel
	}
	cfg.Embedding.APIKey = resolveSecret(cfg.Embedding.APIKey, "OPENAI_API_KEY")
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 512
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	cfg.LLM.APIKey = resolveSecret(cfg.LLM.APIKey, "OPENAI_API_KEY")
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 120 * time.Second
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
}
