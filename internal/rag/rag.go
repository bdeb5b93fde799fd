// Package rag answers questions from retrieved context.
package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// DefaultTopK is the number of chunks retrieved when none is configured.
const DefaultTopK = 4

// Retriever returns the chunks most similar to a text.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]*models.ScoredChunk, error)
}

// Answerer retrieves context for a question and asks the chat model once.
type Answerer struct {
	retriever Retriever
	model     llm.ChatModel
	topK      int
	logger    *zap.Logger
}

// Option configures an Answerer.
type Option func(*Answerer)

// WithTopK sets how many chunks are retrieved.
func WithTopK(k int) Option {
	return func(a *Answerer) { a.topK = k }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(a *Answerer) { a.logger = l }
}

// NewAnswerer creates an answerer over retriever and model.
func NewAnswerer(retriever Retriever, model llm.ChatModel, opts ...Option) *Answerer {
	a := &Answerer{retriever: retriever, model: model, topK: DefaultTopK}
	for _, opt := range opts {
		opt(a)
	}
	if a.topK <= 0 {
		a.topK = DefaultTopK
	}
	a.logger = utils.OrNop(a.logger)
	return a
}

// Answer returns the model's text for question exactly as generated, the context it was given
// and the usage of the call. An empty retrieval still produces a call with an empty context.
func (a *Answerer) Answer(ctx context.Context, question string) (*models.Answer, error) {
	chunks, err := a.retriever.Query(ctx, question, a.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	a.logger.Debug("retrieved context", zap.Int("chunks", len(chunks)), zap.Int("top_k", a.topK))
	for _, c := range chunks {
		a.logger.Debug("context chunk",
			zap.Int("rank", c.Rank),
			zap.Float64("score", c.Score),
			zap.String("source", c.Chunk.SourceURL),
			zap.String("preview", utils.Preview(c.Chunk.Content, 80)))
	}

	completion, err := a.model.Complete(ctx, BuildMessages(question, chunks))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &models.Answer{
		Question: question,
		Text:     completion.Text,
		Context:  chunks,
		Usage:    completion.Usage,
	}, nil
}
