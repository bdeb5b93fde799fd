package models

import "time"

// TokenUsage counts tokens consumed by language model calls.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int `json:"total_tokens" db:"total_tokens"`
}

// Add returns the field-wise sum of u and other.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// IsZero reports whether no tokens were counted.
func (u TokenUsage) IsZero() bool {
	return u == TokenUsage{}
}

// Answer is the model's generated text together with the context it was conditioned on.
type Answer struct {
	Question string         `json:"question"`
	Text     string         `json:"text"`
	Context  []*ScoredChunk `json:"context"`
	Usage    TokenUsage     `json:"usage"`
}

// RunResult is the outcome of one question answered end to end.
type RunResult struct {
	ID         string               `json:"id"`
	Query      string               `json:"query"`
	Question   string               `json:"question"`
	Results    []WebResult          `json:"results"`
	Documents  []*ExtractedDocument `json:"documents"`
	ChunkCount int                  `json:"chunk_count"`
	Answer     *Answer              `json:"answer"`
	// Usage is the usage of this run only; process totals live in usage.Tracker.
	Usage     TokenUsage `json:"usage"`
	CreatedAt time.Time  `json:"created_at"`
	Duration  int64      `json:"duration_ms"`
}

// RunSummary is a stored run without its documents and context.
type RunSummary struct {
	ID        string     `json:"id"`
	Query     string     `json:"query"`
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Usage     TokenUsage `json:"usage"`
	CreatedAt time.Time  `json:"created_at"`
}
