// Package indexer splits extracted documents into chunks and builds the per-run retrieval index.
package indexer

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/kotae/internal/docid"
	"github.com/hyperjump/kotae/internal/models"
)

// separators are tried in order: paragraph, line, sentence end, word, then single runes.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " ", ""}

// Chunker splits text into overlapping chunks of at most size runes, preferring
// paragraph, line, sentence, and word boundaries in that order.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. A non-positive size falls back to 1000; an overlap that
// does not fit inside a chunk is reduced to a fifth of the size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk splits doc.Text into chunks with ordinals starting at 0.
// Text that already fits is returned unchanged as a single chunk; blank text yields none.
func (c *Chunker) Chunk(doc *models.ExtractedDocument) []*models.DocumentChunk {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}
	var pieces []string
	if utf8.RuneCountInString(doc.Text) <= c.size {
		pieces = []string{doc.Text}
	} else {
		for _, p := range c.split(doc.Text, separators) {
			if p = strings.TrimSpace(p); p != "" {
				pieces = append(pieces, p)
			}
		}
	}
	chunks := make([]*models.DocumentChunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = &models.DocumentChunk{
			ID:         docid.Chunk(doc.ID, i),
			DocumentID: doc.ID,
			SourceURL:  doc.SourceURL,
			Ordinal:    i,
			Content:    p,
		}
	}
	return chunks
}

func (c *Chunker) split(text string, seps []string) []string {
	sep, rest := "", []string(nil)
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep, rest = s, seps[i+1:]
			break
		}
	}

	var out, fits []string
	for _, piece := range splitKeep(text, sep) {
		if utf8.RuneCountInString(piece) <= c.size {
			fits = append(fits, piece)
			continue
		}
		if len(fits) > 0 {
			out = append(out, c.merge(fits)...)
			fits = nil
		}
		// Only runes are left once rest is empty, and a rune always fits.
		out = append(out, c.split(piece, rest)...)
	}
	if len(fits) > 0 {
		out = append(out, c.merge(fits)...)
	}
	return out
}

// merge joins consecutive pieces greedily up to size runes. When a chunk is emitted,
// trailing pieces totalling at most overlap runes are carried into the next one.
func (c *Chunker) merge(pieces []string) []string {
	var out, cur []string
	total := 0
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if total+n > c.size && len(cur) > 0 {
			out = append(out, strings.Join(cur, ""))
			for total > c.overlap || (total+n > c.size && total > 0) {
				total -= utf8.RuneCountInString(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += n
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, ""))
	}
	return out
}

// splitKeep splits text after each sep so no characters are lost. An empty sep splits into runes.
func splitKeep(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
