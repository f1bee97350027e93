// Package langchain adapts any langchaingo llms.Model to llm.ChatFunction.
// bodhi uses it for providers that have no native adapter (Anthropic).
package langchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bimmerbailey/bodhi/internal/llm"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// Adapter implements llm.ChatFunction using langchaingo.
type Adapter struct {
	model        llms.Model
	opts         llm.ChatOptions
	providerType string
	logger       *slog.Logger
}

var _ llm.ChatFunction = (*Adapter)(nil)

// New wraps an already constructed llms.Model. providerType is only used
// for logging.
func New(model llms.Model, providerType string, opts llm.ChatOptions, logger *slog.Logger) (*Adapter, error) {
	if model == nil {
		return nil, errors.New("model cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Adapter{
		model:        model,
		opts:         opts,
		providerType: providerType,
		logger:       logger,
	}, nil
}

// AnthropicConfig holds Anthropic/Claude-specific settings.
type AnthropicConfig struct {
	APIKey string // read from ANTHROPIC_API_KEY if empty
	Model  string // e.g. "claude-3-7-sonnet-20250219"
}

// NewAnthropic creates an Anthropic/Claude adapter.
func NewAnthropic(cfg AnthropicConfig, opts llm.ChatOptions, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	apiKey := ResolveAPIKey(cfg.APIKey, "ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf(
			"anthropic api key not configured: set ANTHROPIC_API_KEY environment variable or llm.anthropic.api_key in config",
		)
	}

	model, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic provider: %w", err)
	}

	logger.Info("initialized anthropic provider", "model", cfg.Model)

	if opts.Model == "" {
		opts.Model = cfg.Model
	}
	return New(model, "anthropic", opts, logger)
}

// ResolveAPIKey checks config first, then falls back to environment variable.
// Returns empty string if neither is set.
func ResolveAPIKey(configKey, envVarName string) string {
	if configKey != "" {
		return configKey
	}
	return os.Getenv(envVarName)
}

// Chat sends messages and returns the first choice's text.
func (a *Adapter) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if len(messages) == 0 {
		return "", llm.ErrNoMessages
	}

	a.logger.Debug("sending chat request",
		"provider", a.providerType,
		"model", a.opts.Model,
		"messages", len(messages))

	resp, err := a.model.GenerateContent(ctx, convertMessages(messages), convertOptions(a.opts)...)
	if err != nil {
		a.logger.Error("chat request failed", "provider", a.providerType, "error", err)
		return "", wrapError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", llm.ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	a.logger.Debug("chat request completed",
		"provider", a.providerType,
		"prompt_tokens", getIntFromInfo(choice.GenerationInfo, "PromptTokens"),
		"total_tokens", getIntFromInfo(choice.GenerationInfo, "TotalTokens"))

	return choice.Content, nil
}

// --- Conversion Helpers ---

func convertMessages(messages []llm.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		result[i] = llms.TextParts(convertRole(msg.Role), msg.Content)
	}
	return result
}

func convertRole(role llm.Role) llms.ChatMessageType {
	switch role {
	case llm.RoleSystem:
		return llms.ChatMessageTypeSystem
	case llm.RoleUser:
		return llms.ChatMessageTypeHuman
	case llm.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeGeneric
	}
}

func convertOptions(opts llm.ChatOptions) []llms.CallOption {
	var result []llms.CallOption

	if opts.Model != "" {
		result = append(result, llms.WithModel(opts.Model))
	}
	result = append(result, llms.WithTemperature(float64(opts.Temperature)))
	if opts.MaxTokens > 0 {
		result = append(result, llms.WithMaxTokens(opts.MaxTokens))
	}

	return result
}

func getIntFromInfo(info map[string]any, key string) int {
	if v, ok := info[key].(int); ok {
		return v
	}
	if v, ok := info[key].(float64); ok {
		return int(v)
	}
	return 0
}

// wrapError converts langchaingo errors to our error types.
func wrapError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", llm.ErrContextCanceled, err)
	default:
		return fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}
}
