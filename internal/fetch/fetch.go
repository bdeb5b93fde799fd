// Package fetch downloads result pages over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Response is a fetched resource. ContentType is the raw Content-Type header, possibly empty.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// HTTPFetcher issues GET requests with a shared rate limit, a per-request timeout and a body cap.
// It is safe for concurrent use.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	timeout   time.Duration
	maxBody   int64
	logger    *zap.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(f *HTTPFetcher) { f.logger = l }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// NewHTTPFetcher creates a fetcher from cfg. RequestsPerSecond of zero disables rate limiting.
func NewHTTPFetcher(cfg *config.FetchConfig, opts ...Option) *HTTPFetcher {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	f := &HTTPFetcher{
		client:    &http.Client{},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		maxBody:   cfg.MaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = utils.OrNop(f.logger)
	return f
}

// Fetch downloads url. Only transport failures are errors: a non-2xx status is logged and its
// body returned like any other.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if f.maxBody > 0 {
		body = io.LimitReader(resp.Body, f.maxBody+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.maxBody > 0 && int64(len(data)) > f.maxBody {
		f.logger.Warn("body truncated", zap.String("url", url), zap.Int64("max_body_bytes", f.maxBody))
		data = data[:f.maxBody]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("non-success status", zap.String("url", url), zap.Int("status", resp.StatusCode))
	}
	f.logger.Debug("fetched",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Int("bytes", len(data)))

	return &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}
