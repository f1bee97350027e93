// Package config provides configuration types and helpers for bodhi.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application-wide configuration.
type Config struct {
	Format    string          `mapstructure:"format"`
	Verbose   bool            `mapstructure:"verbose"`
	Domain    string          `mapstructure:"domain"`
	Templates TemplatesConfig `mapstructure:"templates"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// TemplatesConfig overrides the built-in prompt templates. Inline text and a
// file path are mutually exclusive for each pass.
type TemplatesConfig struct {
	Analysis     string `mapstructure:"analysis"`
	Response     string `mapstructure:"response"`
	AnalysisFile string `mapstructure:"analysis_file"`
	ResponseFile string `mapstructure:"response_file"`
}

// LLMConfig holds configuration for LLM providers.
type LLMConfig struct {
	// Provider selects which LLM to use: "ollama", "openai", "anthropic", "gemini", "echo"
	Provider string `mapstructure:"provider"`

	// Global settings applied to all providers
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"` // per invocation, 0 = none

	// Provider-specific configuration
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`

	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host  string `mapstructure:"host"`  // API endpoint
	Model string `mapstructure:"model"` // Default model name
}

// OpenAIConfig holds OpenAI-specific settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`  // Optional: read from OPENAI_API_KEY if empty
	Model   string `mapstructure:"model"`    // e.g., "gpt-4o", "gpt-4o-mini"
	BaseURL string `mapstructure:"base_url"` // Optional: for compatible endpoints
	OrgID   string `mapstructure:"org_id"`   // Optional: organization ID
}

// AnthropicConfig holds Anthropic/Claude-specific settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"` // Optional: read from ANTHROPIC_API_KEY if empty
	Model  string `mapstructure:"model"`   // e.g. "claude-3-7-sonnet-20250219"
}

// GeminiConfig holds Google Gen AI settings.
type GeminiConfig struct {
	APIKey   string `mapstructure:"api_key"`  // Optional: read from GEMINI_API_KEY if empty
	Model    string `mapstructure:"model"`    // e.g. "gemini-2.5-flash"
	Backend  string `mapstructure:"backend"`  // "gemini" or "vertex"
	Project  string `mapstructure:"project"`  // vertex only
	Location string `mapstructure:"location"` // vertex only
}

// CircuitBreakerConfig configures the breaker placed around the provider.
type CircuitBreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures"` // consecutive failures before opening
	Timeout     time.Duration `mapstructure:"timeout"`      // open -> half-open
	Interval    time.Duration `mapstructure:"interval"`     // closed-state count reset
}

// RateLimitConfig throttles invocations of the provider.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"` // "stdout" or "noop"
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

var (
	validFormats   = []string{"text", "json", "yaml"}
	validDomains   = []string{"medical", "general"}
	validProviders = []string{"ollama", "openai", "anthropic", "gemini", "echo"}
	validExporters = []string{"", "stdout", "noop"}
)

// Validate checks enumerated fields and numeric ranges. Provider-specific
// credentials are checked later by the provider constructors.
func (c *Config) Validate() error {
	if c.Format != "" && !oneOf(c.Format, validFormats) {
		return fmt.Errorf("%w: format %q (must be one of: %s)", ErrInvalidConfig, c.Format, strings.Join(validFormats, ", "))
	}
	if c.Domain != "" && !oneOf(c.Domain, validDomains) {
		return fmt.Errorf("%w: domain %q (must be one of: %s)", ErrInvalidConfig, c.Domain, strings.Join(validDomains, ", "))
	}
	if c.LLM.Provider != "" && !oneOf(c.LLM.Provider, validProviders) {
		return fmt.Errorf("%w: llm.provider %q (must be one of: %s)", ErrInvalidConfig, c.LLM.Provider, strings.Join(validProviders, ", "))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("%w: llm.temperature %v out of range [0, 2]", ErrInvalidConfig, c.LLM.Temperature)
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("%w: llm.max_tokens must not be negative", ErrInvalidConfig)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("%w: llm.timeout must not be negative", ErrInvalidConfig)
	}
	if c.LLM.RateLimit.Enabled && c.LLM.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: llm.rate_limit.requests_per_second must be positive", ErrInvalidConfig)
	}
	if !oneOf(c.Tracing.Exporter, validExporters) {
		return fmt.Errorf("%w: tracing.exporter %q (must be stdout or noop)", ErrInvalidConfig, c.Tracing.Exporter)
	}
	if c.Templates.Analysis != "" && c.Templates.AnalysisFile != "" {
		return fmt.Errorf("%w: templates.analysis and templates.analysis_file are mutually exclusive", ErrInvalidConfig)
	}
	if c.Templates.Response != "" && c.Templates.ResponseFile != "" {
		return fmt.Errorf("%w: templates.response and templates.response_file are mutually exclusive", ErrInvalidConfig)
	}
	return nil
}

// Resolve returns the analysis and response template text, reading the
// file variants when set. An empty result means "use the built-in default".
func (t TemplatesConfig) Resolve() (analysis, response string, err error) {
	analysis, err = inlineOrFile(t.Analysis, t.AnalysisFile)
	if err != nil {
		return "", "", fmt.Errorf("reading analysis template: %w", err)
	}
	response, err = inlineOrFile(t.Response, t.ResponseFile)
	if err != nil {
		return "", "", fmt.Errorf("reading response template: %w", err)
	}
	return analysis, response, nil
}

func inlineOrFile(inline, path string) (string, error) {
	if path == "" {
		return inline, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func oneOf(s string, valid []string) bool {
	for _, v := range valid {
		if s == v {
			return true
		}
	}
	return false
}
