// Package cli provides output formatting for the kotae command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named by s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteRun writes the outcome of one question to w. With showContext the retrieved chunks are
// listed under the answer.
func WriteRun(w io.Writer, run *models.RunResult, format OutputFormat, showContext bool) error {
	if format == OutputJSON {
		return writeJSON(w, run)
	}
	if run.Answer != nil {
		fmt.Fprintf(w, "\n%s\n\n", run.Answer.Text)
	}
	if len(run.Results) > 0 {
		fmt.Fprintln(w, "Sources:")
		for i, r := range run.Results {
			if r.Title != "" {
				fmt.Fprintf(w, "  [%d] %s\n      %s\n", i+1, r.Title, r.Link)
			} else {
				fmt.Fprintf(w, "  [%d] %s\n", i+1, r.Link)
			}
		}
		fmt.Fprintln(w)
	}
	if showContext && run.Answer != nil {
		writeContext(w, run.Answer.Context)
	}
	writeUsage(w, run.Usage)
	if run.ID != "" {
		fmt.Fprintf(w, "run: %s (%d chunks, %dms)\n", run.ID, run.ChunkCount, run.Duration)
	}
	return nil
}

func writeContext(w io.Writer, chunks []*models.ScoredChunk) {
	if len(chunks) == 0 {
		fmt.Fprintln(w, "--- No context retrieved ---")
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, "--- Context ---")
	for _, sc := range chunks {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", sc.Rank, sc.Score)
		if sc.Chunk != nil {
			fmt.Fprintf(w, "Source: %s #%d\n", sc.Chunk.SourceURL, sc.Chunk.Ordinal)
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(sc.Chunk.Content, 200))
		}
		fmt.Fprintln(w)
	}
}

func writeUsage(w io.Writer, u models.TokenUsage) {
	fmt.Fprintf(w, "tokens: %d prompt + %d completion = %d total\n",
		u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}

// WriteRuns writes stored run summaries to w, one per line in text format.
func WriteRuns(w io.Writer, runs []*models.RunSummary, format OutputFormat) error {
	if format == OutputJSON {
		if runs == nil {
			runs = []*models.RunSummary{}
		}
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %6d tokens  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Usage.TotalTokens,
			TruncateWords(oneLine(r.Question), 12))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
