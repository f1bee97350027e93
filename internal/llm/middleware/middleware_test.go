package middleware

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/bimmerbailey/bodhi/internal/config"
	"github.com/bimmerbailey/bodhi/internal/llm"
)

var question = []llm.Message{{Role: llm.RoleUser, Content: "q"}}

// countingChat counts invocations and returns err when set.
type countingChat struct {
	calls int
	reply string
	err   error
}

func (c *countingChat) Chat(ctx context.Context, _ []llm.Message) (string, error) {
	c.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.reply, c.err
}

// hungChat blocks until its context is done.
type hungChat struct {
	calls int
}

func (h *hungChat) Chat(ctx context.Context, _ []llm.Message) (string, error) {
	h.calls++
	<-ctx.Done()
	return "", ctx.Err()
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next llm.ChatFunction) llm.ChatFunction {
			return llm.ChatFunc(func(ctx context.Context, msgs []llm.Message) (string, error) {
				order = append(order, name)
				return next.Chat(ctx, msgs)
			})
		}
	}

	chat := Chain(&countingChat{reply: "ok"}, tag("outer"), tag("inner"))
	reply, err := chat.Chat(context.Background(), question)
	if err != nil || reply != "ok" {
		t.Fatalf("Chat() = %q, %v", reply, err)
	}
	if want := []string{"outer", "inner"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestChainNoMiddleware(t *testing.T) {
	inner := &countingChat{reply: "ok"}
	if got := Chain(inner); got != llm.ChatFunction(inner) {
		t.Error("Chain() without middleware should return next unchanged")
	}
}

func TestTimeout(t *testing.T) {
	_, err := Timeout(10*time.Millisecond)(&hungChat{}).Chat(context.Background(), question)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Chat() error = %v, want DeadlineExceeded", err)
	}
}

func TestTimeoutDisabled(t *testing.T) {
	inner := &countingChat{reply: "ok"}
	if got := Timeout(0)(inner); got != llm.ChatFunction(inner) {
		t.Error("Timeout(0) should return next unchanged")
	}
}

func TestBreakerPassesThrough(t *testing.T) {
	b := NewBreaker("echo", &countingChat{reply: "ok"}, config.CircuitBreakerConfig{}, slog.Default())

	reply, err := b.Chat(context.Background(), question)
	if err != nil || reply != "ok" {
		t.Fatalf("Chat() = %q, %v", reply, err)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", b.State())
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	inner := &countingChat{err: errors.New("provider error")}
	b := NewBreaker("flaky", inner, config.CircuitBreakerConfig{
		MaxFailures: 3,
		Timeout:     5 * time.Second,
		Interval:    60 * time.Second,
	}, slog.Default())

	for i := 0; i < 3; i++ {
		_, err := b.Chat(context.Background(), question)
		if err == nil || !strings.Contains(err.Error(), "provider error") {
			t.Fatalf("call %d error = %v, want provider error", i, err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}

	_, err := b.Chat(context.Background(), question)
	if !errors.Is(err, llm.ErrProviderUnavailable) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Chat() on open circuit error = %v", err)
	}
	if !strings.Contains(err.Error(), "circuit open") {
		t.Errorf("error %q should mention the open circuit", err)
	}
	if inner.calls != 3 {
		t.Errorf("provider called %d times, want 3 (open circuit fails fast)", inner.calls)
	}
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	inner := &countingChat{err: errors.New("down")}
	b := NewBreaker("recovering", inner, config.CircuitBreakerConfig{
		MaxFailures: 1,
		Timeout:     20 * time.Millisecond,
	}, slog.Default())

	if _, err := b.Chat(context.Background(), question); err == nil {
		t.Fatal("first call should fail")
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}

	time.Sleep(40 * time.Millisecond)
	inner.err = nil
	inner.reply = "back"

	reply, err := b.Chat(context.Background(), question)
	if err != nil || reply != "back" {
		t.Fatalf("Chat() after recovery = %q, %v", reply, err)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", b.State())
	}
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
		want error
	}{
		{
			name: "canceled",
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx, cancel
			},
			want: context.Canceled,
		},
		{
			name: "caller deadline",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 5*time.Millisecond)
			},
			want: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBreaker("caller", &hungChat{}, config.CircuitBreakerConfig{MaxFailures: 1}, nil)

			ctx, cancel := tt.ctx()
			defer cancel()

			if _, err := b.Chat(ctx, question); !errors.Is(err, tt.want) {
				t.Fatalf("Chat() error = %v, want %v", err, tt.want)
			}
			if b.State() != gobreaker.StateClosed {
				t.Errorf("State() = %v, want closed", b.State())
			}
		})
	}
}

func TestBreakerTripsOnInnerTimeout(t *testing.T) {
	hung := &hungChat{}
	chat := Chain(hung,
		CircuitBreaker("hung", config.CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute}, nil),
		Timeout(5*time.Millisecond),
	)

	for i := 0; i < 5; i++ {
		_, _ = chat.Chat(context.Background(), question)
	}
	if hung.calls != 2 {
		t.Errorf("provider called %d times, want 2 before the circuit opens", hung.calls)
	}

	_, err := chat.Chat(context.Background(), question)
	if !errors.Is(err, llm.ErrProviderUnavailable) {
		t.Errorf("Chat() error = %v, want ErrProviderUnavailable", err)
	}
}

func TestBreakerNilLogger(t *testing.T) {
	b := NewBreaker("quiet", &countingChat{err: errors.New("x")}, config.CircuitBreakerConfig{MaxFailures: 1}, nil)
	if _, err := b.Chat(context.Background(), question); err == nil {
		t.Fatal("Chat() should fail")
	}
	if b.State() != gobreaker.StateOpen {
		t.Errorf("State() = %v, want open", b.State())
	}
}

func TestRateLimit(t *testing.T) {
	inner := &countingChat{reply: "ok"}
	chat := RateLimit(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1000, Burst: 2})(inner)

	for i := 0; i < 3; i++ {
		if _, err := chat.Chat(context.Background(), question); err != nil {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRateLimitCanceledWait(t *testing.T) {
	inner := &countingChat{reply: "ok"}
	chat := RateLimit(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1})(inner)

	if _, err := chat.Chat(context.Background(), question); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := chat.Chat(ctx, question); !errors.Is(err, llm.ErrContextCanceled) {
		t.Errorf("Chat() error = %v, want ErrContextCanceled", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, throttled call must not reach the provider", inner.calls)
	}
}

func TestTracingRecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	if _, err := Tracing("echo")(&countingChat{reply: "hello"}).Chat(context.Background(), question); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if _, err := Tracing("echo")(&countingChat{err: errors.New("boom")}).Chat(context.Background(), question); err == nil {
		t.Fatal("Chat() should fail")
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}

	if spans[0].Name() != "llm.chat" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", spans[0].Status().Code)
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	for key, want := range map[string]string{"llm.provider": "echo", "llm.messages": "1", "llm.reply_bytes": "5"} {
		if attrs[key] != want {
			t.Errorf("attribute %s = %q, want %q", key, attrs[key], want)
		}
	}

	if spans[1].Status().Code != codes.Error || spans[1].Status().Description != "boom" {
		t.Errorf("failed span status = %+v", spans[1].Status())
	}
}
