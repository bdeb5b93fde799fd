// Package render loads pages in a headless browser so script-built content can be extracted.
package render

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/pkg/utils"
)

const bodySizeScript = `document.body ? document.body.innerHTML.length : 0`

// ChromeRenderer renders pages with headless Chrome through the DevTools protocol.
// Every call starts its own browser, so renders share no cookies, cache or storage.
type ChromeRenderer struct {
	execPath   string
	userAgent  string
	navTimeout time.Duration
	settler    Settler
	logger     *zap.Logger
}

// Option configures a ChromeRenderer.
type Option func(*ChromeRenderer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *ChromeRenderer) { r.logger = l }
}

// NewChromeRenderer creates a renderer from cfg. userAgent may be empty.
func NewChromeRenderer(cfg *config.RenderConfig, userAgent string, opts ...Option) *ChromeRenderer {
	r := &ChromeRenderer{
		execPath:   cfg.ExecPath,
		userAgent:  userAgent,
		navTimeout: cfg.NavTimeout,
		settler:    SettlerFromConfig(cfg),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.OrNop(r.logger)
	return r
}

// Render navigates to url, waits for the load event, lets the page settle and returns the
// body's inner HTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if r.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.execPath))
	}
	if r.userAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(r.userAgent))
	}
	// Chrome refuses to start its sandbox as root, which is the norm in containers.
	if os.Geteuid() == 0 {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if r.navTimeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, r.navTimeout+r.settler.Delay)
		defer cancel()
	}

	started := time.Now()
	var body string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return r.settler.Wait(ctx, func(ctx context.Context) (int, error) {
				var n int
				err := chromedp.Evaluate(bodySizeScript, &n).Do(ctx)
				return n, err
			})
		}),
		chromedp.InnerHTML("body", &body, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	r.logger.Debug("rendered page",
		zap.String("url", url),
		zap.Int("html_length", len(body)),
		zap.Duration("elapsed", time.Since(started)))
	return body, nil
}
