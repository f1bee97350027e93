// Package provider builds the llm.ChatFunction that bodhi commands run
// against, from configuration.
//
// The factory lives outside the llm package so that adapters and middleware
// can both import llm without a cycle.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/bodhi/internal/config"
	"github.com/bimmerbailey/bodhi/internal/llm"
	"github.com/bimmerbailey/bodhi/internal/llm/gemini"
	"github.com/bimmerbailey/bodhi/internal/llm/langchain"
	"github.com/bimmerbailey/bodhi/internal/llm/middleware"
	"github.com/bimmerbailey/bodhi/internal/llm/ollama"
	"github.com/bimmerbailey/bodhi/internal/llm/openai"
)

// Supported provider names.
const (
	Ollama    = "ollama"
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Gemini    = "gemini"
	Echo      = "echo"
)

// modelLister is implemented by backends that can report which models are
// installed locally.
type modelLister interface {
	ModelAvailable(ctx context.Context, model string) (bool, error)
}

// Provider is a configured chat backend with its middleware applied.
type Provider struct {
	name   string
	model  string
	chat   llm.ChatFunction
	health llm.HealthChecker
	models modelLister
}

var (
	_ llm.ChatFunction  = (*Provider)(nil)
	_ llm.HealthChecker = (*Provider)(nil)
)

// New creates the provider named by cfg.LLM.Provider and wraps it with the
// middleware cfg enables. Order from the outside in: tracing, rate limit,
// circuit breaker, timeout.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	name := strings.ToLower(cfg.LLM.Provider)
	logger.Debug("creating llm provider", "type", name)

	p := &Provider{name: name}
	var base llm.ChatFunction

	switch name {
	case Ollama:
		op, err := ollama.New(ollama.Config{
			Host:        cfg.LLM.Ollama.Host,
			Model:       cfg.LLM.Ollama.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, logger)
		if err != nil {
			return nil, err
		}
		base, p.health, p.models, p.model = op, op, op, op.Model()

	case OpenAI:
		oc, err := openai.New(openai.Config{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
			OrgID:   cfg.LLM.OpenAI.OrgID,
		},
			openai.WithTemperature(cfg.LLM.Temperature),
			openai.WithMaxTokens(cfg.LLM.MaxTokens),
			openai.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		logger.Info("initialized openai provider", "model", oc.Model())
		base, p.model = oc, oc.Model()

	case Anthropic:
		ac, err := langchain.NewAnthropic(langchain.AnthropicConfig{
			APIKey: cfg.LLM.Anthropic.APIKey,
			Model:  cfg.LLM.Anthropic.Model,
		}, llm.ChatOptions{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, logger)
		if err != nil {
			return nil, err
		}
		base, p.model = ac, cfg.LLM.Anthropic.Model

	case Gemini:
		gc, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.LLM.Gemini.APIKey,
			Model:       cfg.LLM.Gemini.Model,
			Backend:     cfg.LLM.Gemini.Backend,
			Project:     cfg.LLM.Gemini.Project,
			Location:    cfg.LLM.Gemini.Location,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, logger)
		if err != nil {
			return nil, err
		}
		base, p.model = gc, gc.Model()

	case Echo:
		base, p.model = llm.Echo(), Echo

	case "":
		return nil, errors.New("llm provider not specified in configuration")

	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: %s)", name,
			strings.Join([]string{Ollama, OpenAI, Anthropic, Gemini, Echo}, ", "))
	}

	p.chat = middleware.Chain(base, stack(name, cfg, logger)...)
	return p, nil
}

// stack returns the middleware cfg enables, outermost first.
func stack(name string, cfg *config.Config, logger *slog.Logger) []middleware.Middleware {
	var mws []middleware.Middleware
	if cfg.Tracing.Enabled {
		mws = append(mws, middleware.Tracing(name))
	}
	if cfg.LLM.RateLimit.Enabled {
		mws = append(mws, middleware.RateLimit(cfg.LLM.RateLimit))
	}
	if cfg.LLM.CircuitBreaker.Enabled {
		mws = append(mws, middleware.CircuitBreaker(name, cfg.LLM.CircuitBreaker, logger))
	}
	if cfg.LLM.Timeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.LLM.Timeout))
	}
	return mws
}

// Chat sends messages through the middleware stack to the backend.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return p.chat.Chat(ctx, messages)
}

// Heartbeat checks the backend when it supports health checks and is a
// no-op otherwise.
func (p *Provider) Heartbeat(ctx context.Context) error {
	if p.health == nil {
		return nil
	}
	return p.health.Heartbeat(ctx)
}

// ModelAvailable reports whether the configured model is installed. Backends
// that cannot tell report true.
func (p *Provider) ModelAvailable(ctx context.Context) (bool, error) {
	if p.models == nil {
		return true, nil
	}
	return p.models.ModelAvailable(ctx, p.model)
}

// Name returns the provider name, e.g. "ollama".
func (p *Provider) Name() string {
	return p.name
}

// Model returns the model the provider generates with.
func (p *Provider) Model() string {
	return p.model
}
