// Package llm talks to chat completion models.
package llm

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Completion is the model output of one call and the tokens that call consumed.
type Completion struct {
	Text  string
	Model string
	Usage models.TokenUsage
}

// ChatModel produces a completion for a conversation. Implementations make exactly one
// model request per call and do not retry.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}
