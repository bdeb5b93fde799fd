package rag

import (
	"strings"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
)

// SystemInstruction tells the model to stay within the supplied context.
const SystemInstruction = "Use the following context to answer the question at the end. " +
	"If you don't know the answer just say that you don't know. Don't try to make up an answer."

const contextSeparator = "\n-----------------------\n"

// BuildContext joins chunk contents in the given order, separated by a blank line.
func BuildContext(chunks []*models.ScoredChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Chunk.Content
	}
	return strings.Join(parts, "\n\n")
}

// BuildMessages returns the two-turn prompt: the instruction with the context, then the question as is.
func BuildMessages(question string, chunks []*models.ScoredChunk) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemInstruction + contextSeparator + BuildContext(chunks)},
		{Role: llm.RoleUser, Content: question},
	}
}
