// Package openai adapts a go-openai client to llm.ChatFunction.
//
// FromClient wraps a client the caller already built; New builds one from an
// API key (falling back to OPENAI_API_KEY). Only the first choice's message
// content is read from the response.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/bimmerbailey/bodhi/internal/llm"
)

const (
	// DefaultModel matches the model the CLI examples use.
	DefaultModel = "gpt-4o-mini"

	// DefaultTemperature is applied unless WithTemperature overrides it.
	DefaultTemperature float32 = 0.7
)

// Chat implements llm.ChatFunction over the OpenAI chat completions API.
type Chat struct {
	client      *goopenai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

var _ llm.ChatFunction = (*Chat)(nil)

// Option customizes a Chat.
type Option func(*Chat)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *Chat) { c.temperature = t }
}

// WithMaxTokens caps the reply length. Zero leaves the API default.
func WithMaxTokens(n int) Option {
	return func(c *Chat) { c.maxTokens = n }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chat) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// FromClient builds a ChatFunction around an externally constructed client.
// An empty model selects DefaultModel.
func FromClient(client *goopenai.Client, model string, opts ...Option) (*Chat, error) {
	if client == nil {
		return nil, errors.New("openai client cannot be nil")
	}
	if model == "" {
		model = DefaultModel
	}

	c := &Chat{
		client:      client,
		model:       model,
		temperature: DefaultTemperature,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config holds the settings New needs to build its own client.
type Config struct {
	APIKey  string // read from OPENAI_API_KEY if empty
	Model   string
	BaseURL string // for OpenAI-compatible endpoints
	OrgID   string // read from OPENAI_ORG_ID if empty
}

// New creates a client from cfg and wraps it with FromClient.
func New(cfg Config, opts ...Option) (*Chat, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf(
			"openai api key not configured: set OPENAI_API_KEY environment variable or llm.openai.api_key in config",
		)
	}

	clientCfg := goopenai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	orgID := cfg.OrgID
	if orgID == "" {
		orgID = os.Getenv("OPENAI_ORG_ID")
	}
	if orgID != "" {
		clientCfg.OrgID = orgID
	}

	return FromClient(goopenai.NewClientWithConfig(clientCfg), cfg.Model, opts...)
}

// Chat sends the messages as a chat completion request.
func (c *Chat) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if len(messages) == 0 {
		return "", llm.ErrNoMessages
	}

	oaMsgs := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, goopenai.ChatCompletionMessage{
			Role:    convertRole(m.Role),
			Content: m.Content,
		})
	}

	req := goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		Temperature: wireTemperature(c.temperature),
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	c.logger.Debug("sending chat request", "model", c.model, "messages", len(messages))

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("chat request failed", "model", c.model, "error", err)
		return "", wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", llm.ErrInvalidResponse)
	}

	c.logger.Debug("chat request completed",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"total_tokens", resp.Usage.TotalTokens)

	return resp.Choices[0].Message.Content, nil
}

// Model returns the model requests are sent to.
func (c *Chat) Model() string {
	return c.model
}

// convertRole coerces anything unknown to user.
func convertRole(role llm.Role) string {
	switch role {
	case llm.RoleSystem:
		return goopenai.ChatMessageRoleSystem
	case llm.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant
	default:
		return goopenai.ChatMessageRoleUser
	}
}

func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", llm.ErrContextCanceled, err)
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %v", llm.ErrModelNotFound, err)
		case apiErr.HTTPStatusCode == http.StatusUnauthorized:
			return fmt.Errorf("authentication failed (check API key): %w", err)
		case apiErr.HTTPStatusCode == http.StatusBadRequest:
			return fmt.Errorf("%w: %v", llm.ErrInvalidResponse, err)
		}
	}
	return fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
}

// wireTemperature maps zero to the smallest positive float32. The request
// field is omitempty, so a literal zero would be dropped and the API would
// apply its own default.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
