// Package pipeline answers a question end to end: search, extract, index, answer.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/usage"
	"github.com/hyperjump/kotae/internal/websearch"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Extractor turns a URL into a document.
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ExtractedDocument, error)
}

// ProgressFunc is called after each extraction finishes. Calls may come from several goroutines
// but never concurrently.
type ProgressFunc func(done, total int, url string)

// Pipeline wires the collaborators of one question. It holds no per-run state, so one Pipeline
// can serve concurrent runs.
type Pipeline struct {
	searcher    websearch.Searcher
	filter      *websearch.HostFilter
	extractor   Extractor
	chunker     *indexer.Chunker
	embedder    embedding.Embedder
	model       llm.ChatModel
	tracker     *usage.Tracker
	store       storage.Storage
	maxResults  int
	concurrency int
	topK        int
	batchSize   int
	progress    ProgressFunc
	logger      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// WithHostFilter drops matching search results before extraction.
func WithHostFilter(f *websearch.HostFilter) Option { return func(p *Pipeline) { p.filter = f } }

// WithStorage persists every finished run.
func WithStorage(s storage.Storage) Option { return func(p *Pipeline) { p.store = s } }

// WithTracker sets the tracker that receives each answer's usage.
func WithTracker(t *usage.Tracker) Option { return func(p *Pipeline) { p.tracker = t } }

// WithProgress sets the extraction progress callback.
func WithProgress(f ProgressFunc) Option { return func(p *Pipeline) { p.progress = f } }

// WithMaxResults bounds how many search results are extracted.
func WithMaxResults(n int) Option { return func(p *Pipeline) { p.maxResults = n } }

// WithConcurrency bounds parallel extractions. 1 extracts sequentially.
func WithConcurrency(n int) Option { return func(p *Pipeline) { p.concurrency = n } }

// WithTopK sets how many chunks are given to the model.
func WithTopK(k int) Option { return func(p *Pipeline) { p.topK = k } }

// WithBatchSize bounds texts per embedding call.
func WithBatchSize(n int) Option { return func(p *Pipeline) { p.batchSize = n } }

// New creates a pipeline.
func New(searcher websearch.Searcher, extractor Extractor, chunker *indexer.Chunker,
	embedder embedding.Embedder, model llm.ChatModel, opts ...Option) *Pipeline {
	p := &Pipeline{
		searcher:    searcher,
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		model:       model,
		maxResults:  1,
		concurrency: 4,
		topK:        rag.DefaultTopK,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracker == nil {
		p.tracker = usage.New()
	}
	if p.concurrency <= 0 {
		p.concurrency = 1
	}
	p.logger = utils.OrNop(p.logger)
	return p
}

// Tracker returns the tracker receiving usage from this pipeline.
func (p *Pipeline) Tracker() *usage.Tracker {
	return p.tracker
}

// Run answers req. Every collaborator error aborts the run; nothing is retried.
func (p *Pipeline) Run(ctx context.Context, req models.AskRequest) (*models.RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	run := &models.RunResult{
		ID:        uuid.New().String(),
		Query:     req.Query,
		Question:  req.Question,
		CreatedAt: started.UTC(),
	}
	logger := p.logger.With(zap.String("run_id", run.ID))
	logger.Debug("query", zap.String("query", req.Query), zap.String("question", req.Question))

	results, err := p.searcher.Search(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if p.filter != nil {
		results = p.filter.Apply(results)
	}
	run.Results = websearch.Limit(results, p.maxResults)
	for _, r := range run.Results {
		logger.Debug("result", zap.String("link", r.Link), zap.String("title", r.Title))
	}

	docs, err := p.extractAll(ctx, run.Results)
	if err != nil {
		return nil, err
	}
	run.Documents = docs

	var chunks []*models.DocumentChunk
	for _, d := range docs {
		chunks = append(chunks, p.chunker.Chunk(d)...)
	}
	run.ChunkCount = len(chunks)

	idx, err := indexer.Build(ctx, p.embedder, chunks,
		indexer.WithBatchSize(p.batchSize), indexer.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	answer, err := rag.NewAnswerer(idx, p.model, rag.WithTopK(p.topK), rag.WithLogger(logger)).
		Answer(ctx, req.Question)
	if err != nil {
		return nil, err
	}
	run.Answer = answer
	run.Usage = answer.Usage
	p.tracker.Add(answer.Usage)
	run.Duration = time.Since(started).Milliseconds()

	if p.store != nil {
		if err := p.store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}
	logger.Debug("run finished",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", run.ChunkCount),
		zap.Int("total_tokens", run.Usage.TotalTokens),
		zap.Int64("duration_ms", run.Duration))
	return run, nil
}

// extractAll extracts results with bounded parallelism. Documents keep the order of results.
func (p *Pipeline) extractAll(ctx context.Context, results []models.WebResult) ([]*models.ExtractedDocument, error) {
	docs := make([]*models.ExtractedDocument, len(results))
	progress := newProgress(len(results), p.progress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, r := range results {
		g.Go(func() error {
			doc, err := p.extractor.Extract(gctx, r.Link)
			if err != nil {
				return fmt.Errorf("extract %s: %w", r.Link, err)
			}
			doc.Title = r.Title
			docs[i] = doc
			p.logger.Debug("extracted",
				zap.String("url", r.Link),
				zap.String("strategy", doc.Strategy),
				zap.Int("text_length", len(doc.Text)))
			progress.step(r.Link)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
