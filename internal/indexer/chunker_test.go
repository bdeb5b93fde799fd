package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperjump/kotae/internal/docid"
	"github.com/hyperjump/kotae/internal/models"
)

func doc(text string) *models.ExtractedDocument {
	return &models.ExtractedDocument{ID: "url:abc", SourceURL: "https://example.com", Text: text}
}

func contents(chunks []*models.DocumentChunk) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Content
	}
	return out
}

func TestChunker_ShortTextIsOneChunk(t *testing.T) {
	text := "  Tokyo hosts several countdown events.\n"
	chunks := NewChunker(1000, 200).Chunk(doc(text))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != text {
		t.Errorf("content = %q, want input unchanged", chunks[0].Content)
	}
	if chunks[0].ID != docid.Chunk("url:abc", 0) || chunks[0].SourceURL != "https://example.com" {
		t.Errorf("unexpected chunk identity %+v", chunks[0])
	}
}

func TestChunker_Empty(t *testing.T) {
	c := NewChunker(5, 1)
	for _, text := range []string{"", "   \n\t  "} {
		if chunks := c.Chunk(doc(text)); len(chunks) != 0 {
			t.Errorf("Chunk(%q) returned %d chunks", text, len(chunks))
		}
	}
}

func TestChunker_WordOverlap(t *testing.T) {
	chunks := NewChunker(20, 10).Chunk(doc("aaaa bbbb cccc dddd eeee ffff gggg"))
	want := []string{"aaaa bbbb cccc dddd", "cccc dddd eeee ffff", "eeee ffff gggg"}
	got := contents(chunks)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("chunks = %q, want %q", got, want)
	}
	for i, ch := range chunks {
		if ch.Ordinal != i {
			t.Errorf("chunk %d ordinal = %d", i, ch.Ordinal)
		}
	}
}

func TestChunker_PrefersParagraphs(t *testing.T) {
	chunks := NewChunker(20, 0).Chunk(doc("para one text.\n\npara two text."))
	got := contents(chunks)
	if len(got) != 2 || got[0] != "para one text." || got[1] != "para two text." {
		t.Errorf("chunks = %q", got)
	}
}

func TestChunker_HardCut(t *testing.T) {
	got := contents(NewChunker(4, 0).Chunk(doc("abcdefghij")))
	if strings.Join(got, "|") != "abcd|efgh|ij" {
		t.Errorf("chunks = %q", got)
	}
}

func TestChunker_SizeBoundAndCoverage(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("Sentence number ")
		b.WriteString(strings.Repeat("é", i%7+1))
		b.WriteString(" ends here. ")
		if i%10 == 9 {
			b.WriteString("\n\n")
		}
	}
	text := b.String()
	chunks := NewChunker(100, 20).Chunk(doc(text))
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	joined := strings.Join(contents(chunks), " ")
	for _, ch := range chunks {
		if n := utf8.RuneCountInString(ch.Content); n > 100 {
			t.Errorf("chunk %d has %d runes", ch.Ordinal, n)
		}
	}
	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, word) {
			t.Errorf("word %q lost", word)
		}
	}
}

func TestNewChunker_Clamps(t *testing.T) {
	c := NewChunker(0, -3)
	if c.size != 1000 || c.overlap != 0 {
		t.Errorf("got size=%d overlap=%d", c.size, c.overlap)
	}
	c = NewChunker(10, 10)
	if c.overlap != 2 {
		t.Errorf("overlap = %d, want 2", c.overlap)
	}
}
