package bodhi

import (
	"context"
	"log/slog"
	"time"

	"github.com/bimmerbailey/bodhi/internal/llm"
	"github.com/bimmerbailey/bodhi/internal/prompt"
)

// Orchestrator sequences the two passes around a ChatFunction.
type Orchestrator struct {
	chat   llm.ChatFunction
	cfg    Config
	logger *slog.Logger
}

// New creates an Orchestrator. A zero Config selects DefaultConfig; a nil
// logger discards all records.
func New(chat llm.ChatFunction, cfg Config, logger *slog.Logger) (*Orchestrator, error) {
	if chat == nil {
		return nil, &ConfigError{Field: "chat", Reason: "chat function cannot be nil"}
	}
	if cfg.IsZero() {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{chat: chat, cfg: cfg, logger: logger}, nil
}

// Config returns the configuration in use.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// CompleteOption adjusts a single Complete call.
type CompleteOption func(*completeOptions)

type completeOptions struct {
	twoPass bool
}

// SinglePass forwards the prompt directly to one invocation, bypassing the
// analysis template.
func SinglePass() CompleteOption {
	return TwoPass(false)
}

// TwoPass selects two-pass (true, the default) or single-pass mode.
func TwoPass(enabled bool) CompleteOption {
	return func(c *completeOptions) { c.twoPass = enabled }
}

// Complete answers p. In two-pass mode it invokes the ChatFunction exactly
// twice; in single-pass mode exactly once. Results are never cached and
// failures are never retried.
func (o *Orchestrator) Complete(ctx context.Context, p string, opts ...CompleteOption) (*CompletionResult, error) {
	input, err := normalizePrompt(p)
	if err != nil {
		return nil, err
	}
	return o.complete(ctx, input, opts)
}

// CompleteMessages is Complete for a message list. The non-empty contents
// are joined with newlines to form the prompt.
func (o *Orchestrator) CompleteMessages(ctx context.Context, msgs []llm.Message, opts ...CompleteOption) (*CompletionResult, error) {
	input, err := flattenMessages(msgs)
	if err != nil {
		return nil, err
	}
	return o.complete(ctx, input, opts)
}

// Analyze runs Pass 1 only and returns the analysis text. The messages sent
// are identical to those Complete sends for Pass 1.
func (o *Orchestrator) Analyze(ctx context.Context, p string) (string, error) {
	input, err := normalizePrompt(p)
	if err != nil {
		return "", err
	}
	analysis, _, err := o.analyze(ctx, input)
	return analysis, err
}

// AnalyzeMessages is Analyze for a message list.
func (o *Orchestrator) AnalyzeMessages(ctx context.Context, msgs []llm.Message) (string, error) {
	input, err := flattenMessages(msgs)
	if err != nil {
		return "", err
	}
	analysis, _, err := o.analyze(ctx, input)
	return analysis, err
}

// AnalysisMessages renders the Pass 1 conversation for p without invoking
// the ChatFunction.
func (o *Orchestrator) AnalysisMessages(p string) ([]llm.Message, error) {
	input, err := normalizePrompt(p)
	if err != nil {
		return nil, err
	}
	return prompt.AnalysisMessages(o.cfg.domain, o.cfg.analysisTemplate, input), nil
}

func (o *Orchestrator) complete(ctx context.Context, input string, opts []CompleteOption) (*CompletionResult, error) {
	co := completeOptions{twoPass: true}
	for _, opt := range opts {
		opt(&co)
	}

	if !co.twoPass {
		return o.singlePass(ctx, input)
	}

	analysis, d1, err := o.analyze(ctx, input)
	if err != nil {
		return nil, err
	}

	tmpl, route := o.cfg.responseFor(analysis)
	content, d2, err := o.invoke(ctx, 2, prompt.ResponseMessages(o.cfg.domain, tmpl, input, analysis))
	if err != nil {
		return nil, &GenerationError{Pass: 2, Analysis: analysis, Err: err}
	}

	if !route.IsZero() {
		o.logger.Debug("routed response", "task_type", route.Task, "audience", route.Audience)
	}

	return &CompletionResult{
		Content:  content,
		Analysis: analysis,
		Metadata: Metadata{
			PassDurations: []time.Duration{d1, d2},
			Domain:        o.cfg.domain,
			TwoPass:       true,
			Route:         route,
		},
	}, nil
}

func (o *Orchestrator) singlePass(ctx context.Context, input string) (*CompletionResult, error) {
	content, d, err := o.invoke(ctx, 1, prompt.DirectMessages(input))
	if err != nil {
		return nil, &GenerationError{Pass: 1, Err: err}
	}
	return &CompletionResult{
		Content: content,
		Metadata: Metadata{
			PassDurations: []time.Duration{d},
			Domain:        o.cfg.domain,
			TwoPass:       false,
		},
	}, nil
}

func (o *Orchestrator) analyze(ctx context.Context, input string) (string, time.Duration, error) {
	msgs := prompt.AnalysisMessages(o.cfg.domain, o.cfg.analysisTemplate, input)
	analysis, d, err := o.invoke(ctx, 1, msgs)
	if err != nil {
		return "", d, &GenerationError{Pass: 1, Err: err}
	}
	return analysis, d, nil
}

// invoke makes one ChatFunction call. A context that is already done is
// reported without calling out.
func (o *Orchestrator) invoke(ctx context.Context, pass int, msgs []llm.Message) (string, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	start := time.Now()
	reply, err := o.chat.Chat(ctx, msgs)
	elapsed := time.Since(start)

	if err != nil {
		o.logger.Debug("pass failed", "pass", pass, "duration", elapsed, "domain", o.cfg.domain, "error", err)
		return "", elapsed, err
	}

	o.logger.Debug("pass completed", "pass", pass, "duration", elapsed, "domain", o.cfg.domain, "reply_bytes", len(reply))
	return reply, elapsed, nil
}
