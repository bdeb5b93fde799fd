package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// ErrNoChoices is returned when the API answers without any completion choice.
var ErrNoChoices = errors.New("chat completion returned no choices")

// OpenAIChat is a ChatModel backed by the OpenAI chat completions API or a compatible server.
type OpenAIChat struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// Option configures OpenAIChat.
type Option func(*chatOptions)

type chatOptions struct {
	logger     *zap.Logger
	httpClient *http.Client
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *chatOptions) { o.logger = l }
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *chatOptions) { o.httpClient = c }
}

// NewOpenAIChat creates a chat model from cfg. The API key is required.
func NewOpenAIChat(cfg *config.LLMConfig, opts ...Option) (*OpenAIChat, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai chat: api key is required")
	}
	var o chatOptions
	for _, opt := range opts {
		opt(&o)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	switch {
	case o.httpClient != nil:
		clientCfg.HTTPClient = o.httpClient
	case cfg.Timeout > 0:
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultLLMModel
	}
	return &OpenAIChat{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: float32(cfg.TemperatureOrDefault()),
		logger:      utils.OrNop(o.logger),
	}, nil
}

// Complete sends messages in one request and returns the first choice verbatim.
// Usage fields the server leaves out count as zero.
func (c *OpenAIChat) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	started := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	usage := models.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	c.logger.Debug("chat completion",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(started)))

	return &Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
		Usage: usage,
	}, nil
}
