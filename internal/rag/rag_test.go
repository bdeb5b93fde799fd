package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
)

type stubRetriever struct {
	chunks []*models.ScoredChunk
	err    error
	gotK   int
}

func (s *stubRetriever) Query(ctx context.Context, text string, k int) ([]*models.ScoredChunk, error) {
	s.gotK = k
	return s.chunks, s.err
}

type stubModel struct {
	text     string
	usage    models.TokenUsage
	err      error
	messages []llm.Message
	calls    int
}

func (m *stubModel) Complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error) {
	m.calls++
	m.messages = messages
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Completion{Text: m.text, Usage: m.usage}, nil
}

func scored(contents ...string) []*models.ScoredChunk {
	out := make([]*models.ScoredChunk, len(contents))
	for i, c := range contents {
		out[i] = &models.ScoredChunk{Chunk: &models.DocumentChunk{Content: c}, Rank: i + 1}
	}
	return out
}

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages("  What about Tokyo? ", scored("first chunk", "second chunk"))
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t,
		"Use the following context to answer the question at the end. If you don't know the answer just say that you don't know. Don't try to make up an answer.\n-----------------------\nfirst chunk\n\nsecond chunk",
		msgs[0].Content)
	assert.Equal(t, llm.RoleUser, msgs[1].Role)
	assert.Equal(t, "  What about Tokyo? ", msgs[1].Content)
}

func TestBuildMessages_NoContext(t *testing.T) {
	msgs := BuildMessages("q", nil)
	assert.True(t, strings.HasSuffix(msgs[0].Content, contextSeparator))
}

func TestAnswer(t *testing.T) {
	r := &stubRetriever{chunks: scored("Tokyo hosts several countdown events")}
	m := &stubModel{text: " Go to Shibuya. ", usage: models.TokenUsage{PromptTokens: 50, CompletionTokens: 20, TotalTokens: 70}}

	ans, err := NewAnswerer(r, m, WithTopK(2)).Answer(context.Background(), "Where?")
	require.NoError(t, err)
	assert.Equal(t, " Go to Shibuya. ", ans.Text)
	assert.Equal(t, "Where?", ans.Question)
	assert.Equal(t, r.chunks, ans.Context)
	assert.Equal(t, 70, ans.Usage.TotalTokens)
	assert.Equal(t, 2, r.gotK)
	assert.Equal(t, 1, m.calls)
	assert.Contains(t, m.messages[0].Content, "Tokyo hosts several countdown events")
}

func TestAnswer_DefaultTopKAndEmptyContext(t *testing.T) {
	r := &stubRetriever{chunks: []*models.ScoredChunk{}}
	m := &stubModel{text: "I don't know."}
	ans, err := NewAnswerer(r, m).Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, r.gotK)
	assert.Equal(t, 1, m.calls)
	assert.Empty(t, ans.Context)
}

func TestAnswer_Errors(t *testing.T) {
	_, err := NewAnswerer(&stubRetriever{err: errors.New("embed failed")}, &stubModel{}).Answer(context.Background(), "q")
	assert.Error(t, err)

	m := &stubModel{err: errors.New("timeout")}
	_, err = NewAnswerer(&stubRetriever{}, m).Answer(context.Background(), "q")
	assert.Error(t, err)
}
