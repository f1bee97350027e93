// Package middleware wraps an llm.ChatFunction with caller-side policies:
// per-invocation timeout, circuit breaking, rate limiting and tracing.
// None of the wrappers retries; a failed invocation fails once.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/bimmerbailey/bodhi/internal/config"
	"github.com/bimmerbailey/bodhi/internal/llm"
	"github.com/bimmerbailey/bodhi/internal/tracer"
)

// Middleware decorates a ChatFunction.
type Middleware func(llm.ChatFunction) llm.ChatFunction

// Chain applies mws to next. The first middleware is the outermost.
func Chain(next llm.ChatFunction, mws ...Middleware) llm.ChatFunction {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}

// Timeout bounds every invocation by d. A non-positive d is a no-op.
func Timeout(d time.Duration) Middleware {
	return func(next llm.ChatFunction) llm.ChatFunction {
		if d <= 0 {
			return next
		}
		return llm.ChatFunc(func(ctx context.Context, messages []llm.Message) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Chat(ctx, messages)
		})
	}
}

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// Breaker is a ChatFunction guarded by a circuit breaker. When the wrapped
// function fails repeatedly the circuit opens and calls fail fast with
// llm.ErrProviderUnavailable without reaching the provider.
type Breaker struct {
	name    string
	next    llm.ChatFunction
	breaker *gobreaker.CircuitBreaker[string]
}

var _ llm.ChatFunction = (*Breaker)(nil)

// NewBreaker wraps next. Zero-valued settings fall back to defaults.
// A failure is not counted when the caller's own context is done; deadlines
// imposed further down the chain, such as Timeout, count as failures.
func NewBreaker(name string, next llm.ChatFunction, cfg config.CircuitBreakerConfig, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm:" + name,
		MaxRequests: 1, // one probe in half-open
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			var done *callerDone
			return err == nil || errors.As(err, &done)
		},
	})

	return &Breaker{name: name, next: next, breaker: cb}
}

// CircuitBreaker returns a Middleware that builds a Breaker.
func CircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) Middleware {
	return func(next llm.ChatFunction) llm.ChatFunction {
		return NewBreaker(name, next, cfg, logger)
	}
}

// Chat routes the invocation through the circuit breaker.
func (b *Breaker) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	reply, err := b.breaker.Execute(func() (string, error) {
		reply, err := b.next.Chat(ctx, messages)
		if err != nil && ctx.Err() != nil {
			return "", &callerDone{err: err}
		}
		return reply, err
	})
	if err != nil {
		var done *callerDone
		if errors.As(err, &done) {
			return "", done.err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: provider %q circuit open: %w", llm.ErrProviderUnavailable, b.name, err)
		}
		return "", err
	}
	return reply, nil
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

// callerDone marks a failure caused by the caller abandoning the call.
type callerDone struct{ err error }

func (e *callerDone) Error() string { return e.err.Error() }
func (e *callerDone) Unwrap() error { return e.err }

// RateLimit delays each invocation until the limiter admits it. Waiting
// honors ctx; a canceled wait never reaches the provider.
func RateLimit(cfg config.RateLimitConfig) Middleware {
	return func(next llm.ChatFunction) llm.ChatFunction {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)

		return llm.ChatFunc(func(ctx context.Context, messages []llm.Message) (string, error) {
			if err := limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("%w: rate limit wait: %v", llm.ErrContextCanceled, err)
			}
			return next.Chat(ctx, messages)
		})
	}
}

// Tracing opens an "llm.chat" span around every invocation.
func Tracing(provider string) Middleware {
	return func(next llm.ChatFunction) llm.ChatFunction {
		return llm.ChatFunc(func(ctx context.Context, messages []llm.Message) (string, error) {
			ctx, span := tracer.StartSpan(ctx, "llm.chat")
			defer span.End()

			span.SetAttributes(
				tracer.StringAttr("llm.provider", provider),
				tracer.IntAttr("llm.messages", len(messages)),
			)

			reply, err := next.Chat(ctx, messages)
			if err != nil {
				tracer.RecordError(span, err)
				return "", err
			}

			span.SetAttributes(tracer.IntAttr("llm.reply_bytes", len(reply)))
			tracer.SetOK(span)
			return reply, nil
		})
	}
}
