package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bimmerbailey/bodhi/internal/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestNew verifies provider creation with various configurations.
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config with host",
			config: Config{
				Host:  "http://localhost:11434",
				Model: "llama3.2",
			},
			wantErr: false,
		},
		{
			name: "empty model uses default",
			config: Config{
				Host: "http://localhost:11434",
			},
			wantErr: false,
		},
		{
			name: "invalid host URL",
			config: Config{
				Host: "://invalid-url",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := New(tt.config, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && provider == nil {
				t.Error("New() returned nil provider without error")
			}
			if !tt.wantErr && provider.Model() == "" {
				t.Error("Model should have default value")
			}
		})
	}
}

// TestNewNilLogger verifies that nil logger is rejected.
func TestNewNilLogger(t *testing.T) {
	_, err := New(Config{Host: "http://localhost:11434"}, nil)
	if err == nil {
		t.Error("New() should reject nil logger")
	}
}

// TestChat verifies the Chat method with a mock Ollama server.
func TestChat(t *testing.T) {
	var gotMessages []map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if msgs, ok := req["messages"].([]interface{}); ok {
			for _, m := range msgs {
				gotMessages = append(gotMessages, m.(map[string]interface{}))
			}
		}

		response := map[string]interface{}{
			"model":             req["model"],
			"message":           map[string]string{"role": "assistant", "content": "Test response"},
			"done":              true,
			"prompt_eval_count": 10,
			"eval_count":        20,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	provider, err := New(Config{Host: server.URL, Model: "test-model"}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	reply, err := provider.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "persona"},
		{Role: llm.RoleUser, Content: "Hello"},
	})
	if err != nil {
		t.Fatalf("Chat() failed: %v", err)
	}

	if reply != "Test response" {
		t.Errorf("Chat() = %q, want %q", reply, "Test response")
	}
	if len(gotMessages) != 2 {
		t.Fatalf("server saw %d messages, want 2", len(gotMessages))
	}
	if gotMessages[0]["role"] != "system" || gotMessages[1]["role"] != "user" {
		t.Errorf("message order not preserved: %v", gotMessages)
	}
}

// TestChatEmptyMessages verifies that Chat rejects empty message list.
func TestChatEmptyMessages(t *testing.T) {
	provider, err := New(Config{Host: "http://localhost:11434"}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Chat(context.Background(), []llm.Message{})
	if !errors.Is(err, llm.ErrNoMessages) {
		t.Errorf("Chat() error = %v, want ErrNoMessages", err)
	}
}

// TestChatServerError verifies that server failures map to ErrProviderUnavailable.
func TestChatServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model crashed"})
	}))
	defer server.Close()

	provider, err := New(Config{Host: server.URL}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if !errors.Is(err, llm.ErrProviderUnavailable) {
		t.Errorf("Chat() error = %v, want ErrProviderUnavailable", err)
	}
}

// TestChatOptions verifies that temperature and max tokens reach the server.
func TestChatOptions(t *testing.T) {
	var options map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		options, _ = req["options"].(map[string]interface{})

		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":   req["model"],
			"message": map[string]string{"content": "response"},
			"done":    true,
		})
	}))
	defer server.Close()

	provider, err := New(Config{Host: server.URL, Model: "m", Temperature: 0.5, MaxTokens: 100}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "test"}}); err != nil {
		t.Fatalf("Chat() failed: %v", err)
	}

	if temp, ok := options["temperature"].(float64); !ok || temp != 0.5 {
		t.Errorf("temperature = %v, want 0.5", options["temperature"])
	}
	if n, ok := options["num_predict"].(float64); !ok || n != 100 {
		t.Errorf("num_predict = %v, want 100", options["num_predict"])
	}
}

// TestHeartbeat verifies the Heartbeat method.
func TestHeartbeat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ollama is running"))
		}
	}))
	defer server.Close()

	provider, err := New(Config{Host: server.URL}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if err := provider.Heartbeat(context.Background()); err != nil {
		t.Errorf("Heartbeat() should succeed, got error: %v", err)
	}
}

// TestModelAvailable verifies the ModelAvailable method.
func TestModelAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			response := map[string]interface{}{
				"models": []map[string]interface{}{
					{"name": "llama3.2:latest", "model": "llama3.2"},
					{"name": "medllama2:latest", "model": "medllama2"},
				},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(response)
		}
	}))
	defer server.Close()

	provider, err := New(Config{Host: server.URL}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	tests := []struct {
		model     string
		available bool
	}{
		{"llama3.2", true},
		{"llama3.2:latest", true},
		{"medllama2", true},
		{"nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			available, err := provider.ModelAvailable(context.Background(), tt.model)
			if err != nil {
				t.Fatalf("ModelAvailable() error: %v", err)
			}
			if available != tt.available {
				t.Errorf("ModelAvailable(%q) = %v, want %v", tt.model, available, tt.available)
			}
		})
	}
}
