// Package gemini adapts the Google Gen AI SDK to llm.ChatFunction.
// Both the Gemini API (api key) and Vertex AI (project + location) backends
// are supported.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/bimmerbailey/bodhi/internal/llm"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Backend names accepted in Config.Backend.
const (
	BackendGeminiAPI = "gemini"
	BackendVertexAI  = "vertex"
)

// generator is the slice of *genai.Models the adapter calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds Gemini-specific settings.
type Config struct {
	APIKey   string // read from GEMINI_API_KEY or GOOGLE_API_KEY if empty
	Model    string
	Backend  string // "gemini" (default) or "vertex"
	Project  string // vertex only
	Location string // vertex only

	Temperature float32
	MaxTokens   int
}

// Provider implements llm.ChatFunction using genai.
type Provider struct {
	models generator
	config Config
	logger *slog.Logger
}

var _ llm.ChatFunction = (*Provider)(nil)

// New creates a genai client for the configured backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	clientCfg := &genai.ClientConfig{}
	switch strings.ToLower(cfg.Backend) {
	case "", BackendGeminiAPI:
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf(
				"gemini api key not configured: set GEMINI_API_KEY environment variable or llm.gemini.api_key in config",
			)
		}
		clientCfg.APIKey = apiKey
		clientCfg.Backend = genai.BackendGeminiAPI
	case BackendVertexAI:
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("llm.gemini.project and llm.gemini.location must be set for the vertex backend")
		}
		clientCfg.Project = cfg.Project
		clientCfg.Location = cfg.Location
		clientCfg.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("unknown gemini backend %q (want %q or %q)", cfg.Backend, BackendGeminiAPI, BackendVertexAI)
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	logger.Info("initialized gemini provider", "model", modelOrDefault(cfg.Model), "backend", cfg.Backend)
	return newWithGenerator(client.Models, cfg, logger), nil
}

func newWithGenerator(g generator, cfg Config, logger *slog.Logger) *Provider {
	cfg.Model = modelOrDefault(cfg.Model)
	return &Provider{models: g, config: cfg, logger: logger}
}

func modelOrDefault(model string) string {
	if model == "" {
		return DefaultModel
	}
	return model
}

// Chat sends messages to Gemini. System messages are folded into the
// system instruction; everything else becomes conversation contents.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if len(messages) == 0 {
		return "", llm.ErrNoMessages
	}

	contents, system := convertMessages(messages)

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if p.config.Temperature > 0 {
		temp := p.config.Temperature
		cfg.Temperature = &temp
	}
	if p.config.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.config.MaxTokens)
	}

	p.logger.Debug("sending chat request", "model", p.config.Model, "messages", len(messages))

	res, err := p.models.GenerateContent(ctx, p.config.Model, contents, cfg)
	if err != nil {
		p.logger.Error("chat request failed", "model", p.config.Model, "error", err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", llm.ErrContextCanceled, err)
		}
		return "", fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}
	if res == nil || len(res.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", llm.ErrInvalidResponse)
	}

	return res.Text(), nil
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.config.Model
}

func convertMessages(messages []llm.Message) ([]*genai.Content, string) {
	var (
		contents []*genai.Content
		system   []string
	)
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, strings.Join(system, "\n\n")
}
