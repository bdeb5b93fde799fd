package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Index is an immutable similarity index over the chunks of one run.
// It is built once by Build and only queried afterwards.
type Index struct {
	embedder embedding.Embedder
	vectors  *vector.MemoryIndex
	chunks   []*models.DocumentChunk // by insertion sequence
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	batchSize int
	logger    *zap.Logger
}

// WithBatchSize bounds the number of texts sent to the embedder per call.
func WithBatchSize(n int) BuildOption {
	return func(o *buildOptions) { o.batchSize = n }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) BuildOption {
	return func(o *buildOptions) { o.logger = l }
}

// Build embeds every chunk and returns the index. Any embedding failure returns an error
// and no index. Zero chunks build an empty index without calling the embedder.
func Build(ctx context.Context, embedder embedding.Embedder, chunks []*models.DocumentChunk, opts ...BuildOption) (*Index, error) {
	o := buildOptions{batchSize: 512}
	for _, opt := range opts {
		opt(&o)
	}
	if o.batchSize <= 0 {
		o.batchSize = 512
	}
	logger := utils.OrNop(o.logger)

	vectors, err := vector.NewMemoryIndex(0)
	if err != nil {
		return nil, err
	}
	idx := &Index{embedder: embedder, vectors: vectors, chunks: append([]*models.DocumentChunk(nil), chunks...)}
	if len(chunks) == 0 {
		logger.Debug("built empty index")
		return idx, nil
	}

	for start := 0; start < len(chunks); start += o.batchSize {
		end := min(start+o.batchSize, len(chunks))
		texts := make([]string, end-start)
		ids := make([]string, end-start)
		for i, ch := range chunks[start:end] {
			texts[i] = ch.Content
			ids[i] = ch.ID
		}
		embeddings, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(embeddings) != len(texts) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors", start, end-1, len(embeddings))
		}
		if err := vectors.Add(ctx, ids, embeddings); err != nil {
			return nil, fmt.Errorf("index chunks %d-%d: %w", start, end-1, err)
		}
	}
	logger.Debug("built index",
		zap.Int("chunks", len(chunks)),
		zap.Int("dimensions", vectors.Dimensions()),
		zap.String("model", embedder.Model()))
	return idx, nil
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int {
	return idx.vectors.Size()
}

// Query returns the k chunks most similar to text, highest score first. Equal scores keep
// document order. An empty index returns an empty slice without calling the embedder.
func (idx *Index) Query(ctx context.Context, text string, k int) ([]*models.ScoredChunk, error) {
	if idx.Size() == 0 || k <= 0 {
		return []*models.ScoredChunk{}, nil
	}
	q, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := idx.vectors.Search(ctx, q, k)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ScoredChunk, len(hits))
	for i, h := range hits {
		out[i] = &models.ScoredChunk{Chunk: idx.chunks[h.Seq], Score: h.Score, Rank: i + 1}
	}
	return out, nil
}
