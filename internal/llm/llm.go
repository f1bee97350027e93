// Package llm defines the text-generation capability that bodhi wraps.
//
// The only thing the rest of the application needs from a language model is
// a [ChatFunction]: an ordered list of role-tagged messages in, a single text
// reply out. Provider-specific clients live in subpackages (ollama, openai,
// gemini, langchain) and implement ChatFunction; this package imports none of
// them.
//
// Example usage:
//
//	chat := llm.ChatFunc(func(ctx context.Context, msgs []llm.Message) (string, error) {
//	    return myClient.Generate(ctx, msgs)
//	})
//
//	reply, err := chat.Chat(ctx, []llm.Message{
//	    {Role: llm.RoleSystem, Content: "You are a careful clinical assistant."},
//	    {Role: llm.RoleUser, Content: "I have had a headache for a week."},
//	})
package llm

import (
	"context"
	"errors"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender: "system", "user", or "assistant"
	Role Role `json:"role" yaml:"role"`

	// Content is the message text
	Content string `json:"content" yaml:"content"`
}

// ChatFunction is the generation capability: it maps an ordered message list
// to one text reply. Implementations used from multiple goroutines must be
// safe for concurrent use.
type ChatFunction interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// ChatFunc adapts an ordinary function to the ChatFunction interface.
type ChatFunc func(ctx context.Context, messages []Message) (string, error)

// Chat calls f(ctx, messages).
func (f ChatFunc) Chat(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// HealthChecker is implemented by ChatFunctions that can cheaply verify the
// backing service is reachable before any generation is attempted.
type HealthChecker interface {
	Heartbeat(ctx context.Context) error
}

// ChatOptions configures generation for adapters that expose sampling knobs.
// The zero value means provider defaults.
type ChatOptions struct {
	// Model specifies which model to use (e.g., "llama3.2", "gpt-4o-mini")
	Model string

	// Temperature controls randomness (0.0 = deterministic, 2.0 = very random)
	Temperature float32

	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int
}

// Common errors returned by ChatFunction adapters.
var (
	// ErrProviderUnavailable indicates the LLM provider is not reachable
	ErrProviderUnavailable = errors.New("llm provider is not reachable")

	// ErrModelNotFound indicates the requested model is not available
	ErrModelNotFound = errors.New("requested model is not available")

	// ErrInvalidResponse indicates the provider returned an invalid response
	ErrInvalidResponse = errors.New("provider returned invalid response")

	// ErrContextCanceled indicates the operation was canceled via context
	ErrContextCanceled = errors.New("operation was canceled")

	// ErrNoMessages is returned when an adapter is called with an empty list
	ErrNoMessages = errors.New("messages cannot be empty")
)

// LastUserContent returns the content of the last user message, or "" if the
// list has none.
func LastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// Echo returns a ChatFunction that replies with the content of the last user
// message. It backs the "echo" provider and is handy for offline runs.
func Echo() ChatFunction {
	return ChatFunc(func(ctx context.Context, messages []Message) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", errors.Join(ErrContextCanceled, err)
		}
		if len(messages) == 0 {
			return "", ErrNoMessages
		}
		return LastUserContent(messages), nil
	})
}
