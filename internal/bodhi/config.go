package bodhi

import (
	"errors"
	"fmt"

	"github.com/bimmerbailey/bodhi/internal/prompt"
)

// Config selects the domain and the templates for both passes. It is built
// once with NewConfig and never changes afterwards; copies share nothing
// mutable.
type Config struct {
	domain           prompt.Domain
	analysisTemplate string
	responseTemplate string
	customAnalysis   bool
	customResponse   bool
}

// Option customizes a Config under construction.
type Option func(*configBuilder)

type configBuilder struct {
	domain   prompt.Domain
	analysis string
	response string
}

// WithDomain selects the built-in template pair. The default is
// prompt.DomainMedical.
func WithDomain(d prompt.Domain) Option {
	return func(b *configBuilder) { b.domain = d }
}

// WithAnalysisTemplate overrides the Pass 1 template. It must contain
// {input}. An empty string keeps the domain default.
func WithAnalysisTemplate(tmpl string) Option {
	return func(b *configBuilder) { b.analysis = tmpl }
}

// WithResponseTemplate overrides the Pass 2 template. It must contain
// {input} and {analysis}. An empty string keeps the domain default.
// A custom response template disables medical response routing.
func WithResponseTemplate(tmpl string) Option {
	return func(b *configBuilder) { b.response = tmpl }
}

// NewConfig resolves defaults and validates supplied templates. Any
// violation is reported as a *ConfigError before generation can start.
func NewConfig(opts ...Option) (Config, error) {
	b := configBuilder{domain: prompt.DomainMedical}
	for _, opt := range opts {
		opt(&b)
	}

	if !b.domain.Valid() {
		return Config{}, &ConfigError{
			Field:  "domain",
			Reason: fmt.Sprintf("unknown domain %q (must be medical or general)", b.domain),
		}
	}

	cfg := Config{
		domain:           b.domain,
		analysisTemplate: prompt.DefaultAnalysisTemplate(b.domain),
		responseTemplate: prompt.DefaultResponseTemplate(b.domain),
	}

	if b.analysis != "" {
		if err := prompt.CheckAnalysisTemplate(b.analysis); err != nil {
			return Config{}, templateError("analysis_template", err)
		}
		cfg.analysisTemplate = b.analysis
		cfg.customAnalysis = true
	}

	if b.response != "" {
		if err := prompt.CheckResponseTemplate(b.response); err != nil {
			return Config{}, templateError("response_template", err)
		}
		cfg.responseTemplate = b.response
		cfg.customResponse = true
	}

	return cfg, nil
}

func templateError(field string, err error) *ConfigError {
	cfgErr := &ConfigError{Field: field, Err: err}
	var pe *prompt.PlaceholderError
	if errors.As(err, &pe) {
		cfgErr.Missing = pe.Missing
	}
	return cfgErr
}

// DefaultConfig returns the medical domain with built-in templates.
func DefaultConfig() Config {
	cfg, _ := NewConfig()
	return cfg
}

// Domain returns the configured domain.
func (c Config) Domain() prompt.Domain { return c.domain }

// AnalysisTemplate returns the resolved Pass 1 template.
func (c Config) AnalysisTemplate() string { return c.analysisTemplate }

// ResponseTemplate returns the resolved Pass 2 template. With the medical
// default in effect this is the unrouted variant; the template actually
// used depends on the analysis.
func (c Config) ResponseTemplate() string { return c.responseTemplate }

// CustomAnalysis reports whether the Pass 1 template was supplied.
func (c Config) CustomAnalysis() bool { return c.customAnalysis }

// CustomResponse reports whether the Pass 2 template was supplied.
func (c Config) CustomResponse() bool { return c.customResponse }

// IsZero reports whether c was never built by NewConfig.
func (c Config) IsZero() bool { return c.domain == "" }

// responseFor picks the Pass 2 template for an analysis.
func (c Config) responseFor(analysis string) (string, prompt.Route) {
	if c.customResponse {
		return c.responseTemplate, prompt.Route{}
	}
	return prompt.RouteResponse(c.domain, analysis)
}
