// Package ollama provides an Ollama-backed llm.ChatFunction.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bimmerbailey/bodhi/internal/llm"
	"github.com/ollama/ollama/api"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "llama3.2"

// Provider implements llm.ChatFunction and llm.HealthChecker for Ollama.
type Provider struct {
	client *api.Client
	config Config
	logger *slog.Logger
}

// Config holds Ollama-specific configuration.
type Config struct {
	// Host is the Ollama API endpoint (e.g., "http://localhost:11434")
	Host string

	// Model is the model to generate with (e.g., "llama3.2")
	Model string

	// Temperature is sent with every request
	Temperature float32

	// MaxTokens maps to num_predict; 0 leaves the server default
	MaxTokens int
}

var (
	_ llm.ChatFunction  = (*Provider)(nil)
	_ llm.HealthChecker = (*Provider)(nil)
)

// New creates a new Ollama provider.
// If cfg.Host is empty, it uses the OLLAMA_HOST environment variable or defaults to http://localhost:11434.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	// Start with environment-based client (respects OLLAMA_HOST)
	client, err := api.ClientFromEnvironment()
	if err != nil {
		logger.Error("failed to create ollama client from environment", "error", err)
		return nil, fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}

	if cfg.Host != "" {
		parsedURL, err := url.Parse(cfg.Host)
		if err != nil {
			logger.Error("invalid ollama host URL", "host", cfg.Host, "error", err)
			return nil, fmt.Errorf("invalid ollama host: %w", err)
		}

		client = api.NewClient(parsedURL, http.DefaultClient)
		logger.Debug("created ollama client with explicit host", "host", cfg.Host)
	} else {
		logger.Debug("created ollama client from environment")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
		logger.Debug("using default model", "model", cfg.Model)
	}

	return &Provider{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// Chat sends messages to Ollama and returns the assistant's reply text.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if len(messages) == 0 {
		return "", llm.ErrNoMessages
	}

	p.logger.Debug("sending chat request",
		"model", p.config.Model,
		"messages", len(messages),
		"temperature", p.config.Temperature)

	ollamaMessages := make([]api.Message, len(messages))
	for i, msg := range messages {
		ollamaMessages[i] = api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := &api.ChatRequest{
		Model:    p.config.Model,
		Messages: ollamaMessages,
		Options: map[string]interface{}{
			"temperature": p.config.Temperature,
		},
		Stream: new(bool), // false - we want complete response
	}
	if p.config.MaxTokens > 0 {
		req.Options["num_predict"] = p.config.MaxTokens
	}

	var response api.ChatResponse
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		p.logger.Error("chat request failed", "error", err, "model", p.config.Model)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", llm.ErrContextCanceled, err)
		}
		return "", fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}

	p.logger.Debug("chat request completed",
		"model", response.Model,
		"prompt_tokens", response.PromptEvalCount,
		"total_tokens", response.PromptEvalCount+response.EvalCount)

	return response.Message.Content, nil
}

// Heartbeat checks if the Ollama service is reachable and healthy.
func (p *Provider) Heartbeat(ctx context.Context) error {
	p.logger.Debug("checking ollama heartbeat")

	if err := p.client.Heartbeat(ctx); err != nil {
		p.logger.Error("ollama heartbeat failed", "error", err)
		return fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}

	p.logger.Debug("ollama heartbeat successful")
	return nil
}

// ModelAvailable checks if a specific model is available (i.e., has been pulled).
func (p *Provider) ModelAvailable(ctx context.Context, model string) (bool, error) {
	p.logger.Debug("checking model availability", "model", model)

	listResp, err := p.client.List(ctx)
	if err != nil {
		p.logger.Error("failed to list models", "error", err)
		return false, fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}

	for _, modelInfo := range listResp.Models {
		if modelInfo.Name == model || modelInfo.Model == model {
			p.logger.Debug("model is available", "model", model)
			return true, nil
		}
	}

	p.logger.Debug("model not found", "model", model, "available_count", len(listResp.Models))
	return false, nil
}

// Model returns the model this provider generates with.
func (p *Provider) Model() string {
	return p.config.Model
}
