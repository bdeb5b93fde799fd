// Package extract turns fetched web resources into plain text.
package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/docid"
	"github.com/hyperjump/kotae/internal/fetch"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Fetcher downloads a resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Response, error)
}

// Renderer loads a page in a browser and returns the body markup after scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Source is the input handed to each strategy.
type Source struct {
	URL      string
	Response *fetch.Response
}

// Strategy is one way of getting text out of a source. Strategies are tried in order and the
// first non-empty result wins. An error from TryExtract aborts extraction.
type Strategy interface {
	Name() string
	// Accepts reports whether the strategy applies to the lowercased content type.
	Accepts(contentType string) bool
	TryExtract(ctx context.Context, src *Source) (string, error)
}

// Extractor fetches a URL and runs the strategies that accept its content type.
type Extractor struct {
	fetcher    Fetcher
	strategies []Strategy
	logger     *zap.Logger
}

// Option configures an Extractor.
type Option func(*extractorOptions)

type extractorOptions struct {
	logger     *zap.Logger
	tempDir    string
	strategies []Strategy
}

// WithLogger sets a logger for debug output and degraded-extraction warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *extractorOptions) { o.logger = l }
}

// WithTempDir sets the directory PDFs are staged in. Empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(o *extractorOptions) { o.tempDir = dir }
}

// WithStrategies replaces the default strategy chain.
func WithStrategies(s ...Strategy) Option {
	return func(o *extractorOptions) { o.strategies = s }
}

// NewExtractor creates an extractor with the default chain: direct HTML conversion, then the
// rendered-HTML fallback (only when renderer is non-nil), then PDF.
func NewExtractor(fetcher Fetcher, renderer Renderer, opts ...Option) *Extractor {
	var o extractorOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := utils.OrNop(o.logger)
	strategies := o.strategies
	if strategies == nil {
		strategies = []Strategy{&HTMLStrategy{logger: logger}}
		if renderer != nil {
			strategies = append(strategies, &RenderedHTMLStrategy{renderer: renderer, logger: logger})
		}
		strategies = append(strategies, NewPDFStrategy(o.tempDir, logger))
	}
	return &Extractor{fetcher: fetcher, strategies: strategies, logger: logger}
}

// Extract fetches url and returns its text. Text is empty when no strategy produced any.
// Only a fetch failure or a strategy error (temporary file cleanup) is returned.
func (e *Extractor) Extract(ctx context.Context, url string) (*models.ExtractedDocument, error) {
	resp, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	contentType := strings.ToLower(resp.ContentType)
	e.logger.Debug("content type", zap.String("url", url), zap.String("content_type", contentType))

	doc := &models.ExtractedDocument{
		ID:          docid.FromURL(url),
		SourceURL:   url,
		ContentType: resp.ContentType,
	}
	src := &Source{URL: url, Response: resp}

	accepted := false
	for _, s := range e.strategies {
		if !s.Accepts(contentType) {
			continue
		}
		accepted = true
		text, err := s.TryExtract(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("%s extraction of %s: %w", s.Name(), url, err)
		}
		e.logger.Debug("strategy finished",
			zap.String("url", url),
			zap.String("strategy", s.Name()),
			zap.Int("text_length", len(text)))
		if text != "" {
			doc.Text = text
			doc.Strategy = s.Name()
			break
		}
	}

	if !accepted {
		e.logger.Warn("no extractor for content type",
			zap.String("url", url),
			zap.String("content_type", contentType),
			zap.Bool("alert", true))
	} else if doc.Text == "" {
		e.logger.Warn("extraction produced no text", zap.String("url", url))
	}
	return doc, nil
}
