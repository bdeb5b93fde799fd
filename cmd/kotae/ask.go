package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
)

type askOptions struct {
	query       string
	results     int
	output      string
	showContext bool
	noProgress  bool
}

func newAskCmd(a *app) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask [flags] <question>",
		Short: "Answer a question from web search results",
		Long: `Search the web, extract and index the top results, and answer the question
from the most relevant passages.

The question is all remaining arguments joined by spaces. By default the question
itself is searched; use --query to search for something else.

Examples:
  kotae ask what is retrieval augmented generation
  kotae ask --results 3 --context "How do tides work?"
  kotae ask --output json "Who wrote Dune?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, a, opts, joinArgs(args))
		},
	}
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "web search query (default: the question)")
	cmd.Flags().IntVarP(&opts.results, "results", "n", 0, "number of search results to read (default: search.max_results)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format: text or json")
	cmd.Flags().BoolVar(&opts.showContext, "context", false, "print the retrieved passages under the answer")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "hide the extraction progress bar")
	return cmd
}

func runAsk(cmd *cobra.Command, a *app, opts askOptions, question string) error {
	format, err := cli.ParseOutputFormat(opts.output)
	if err != nil {
		return err
	}
	if opts.results > 0 {
		a.cfg.Search.MaxResults = opts.results
	}

	var extra []pipeline.Option
	var bar *extractionBar
	if !opts.noProgress {
		bar = newExtractionBar(cmd.ErrOrStderr())
		extra = append(extra, pipeline.WithProgress(bar.update))
	}

	components, err := initializeComponents(a.cfg, a.logger, extra...)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer components.Close()

	ctx, stop := withSignals(cmd.Context())
	defer stop()

	run, err := components.Pipeline.Run(ctx, models.AskRequest{Query: opts.query, Question: question})
	if bar != nil {
		bar.finish()
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	return cli.WriteRun(cmd.OutOrStdout(), run, format, opts.showContext)
}

// extractionBar draws a progress bar once the number of results is known.
type extractionBar struct {
	mu  sync.Mutex
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newExtractionBar(w io.Writer) *extractionBar {
	return &extractionBar{w: w}
}

func (b *extractionBar) update(done, total int, url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		b.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Reading[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(b.w)
			}),
		)
	}
	_ = b.bar.Set(done)
}

func (b *extractionBar) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil && !b.bar.IsFinished() {
		_ = b.bar.Finish()
	}
}

// withSignals returns a context cancelled on SIGINT or SIGTERM.
func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
