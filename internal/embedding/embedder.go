// Package embedding turns text into vectors: OpenAI, local ONNX, and hashing embedders plus caching.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Model identifies the embedding model; vectors from different models are not comparable.
	Model() string
	Close() error
}
