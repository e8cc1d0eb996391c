package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scholarqa/internal/domain"
	"github.com/kailas-cloud/scholarqa/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

func messageResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"id":          "msg_01",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-3-5-haiku-latest",
		"stop_reason": "end_turn",
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
		"usage": map[string]interface{}{
			"input_tokens":  200,
			"output_tokens": 90,
		},
	}
}

func TestCompleter_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("unexpected api key header: %s", r.Header.Get("X-Api-Key"))
		}

		var req struct {
			Model     string `json:"model"`
			MaxTokens int64  `json:"max_tokens"`
			System    []struct {
				Text string `json:"text"`
			} `json:"system"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.System) != 1 || req.System[0].Text == "" {
			t.Errorf("expected a system block, got %+v", req.System)
		}
		if req.MaxTokens != 1000 {
			t.Errorf("expected max_tokens 1000, got %d", req.MaxTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse("Grounded answer with citations."))
	}))
	defer server.Close()

	c := NewCompleter(&Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-3-5-haiku-latest",
		Logger:  zap.NewNop(),
	})

	result, err := c.Complete(context.Background(), domain.CompletionRequest{
		Prompt:       "Context...\nUser question: what drives volatility?",
		SystemPrompt: "You are an expert research analyst.",
		Temperature:  0.2,
		MaxTokens:    1000,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Text != "Grounded answer with citations." {
		t.Errorf("unexpected answer text: %q", result.Text)
	}
	if result.PromptTokens != 200 || result.CompletionTokens != 90 || result.TotalTokens != 290 {
		t.Errorf("unexpected usage: %+v", result)
	}
}

func TestCompleter_APIErrorWrapsSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "api_error", "message": "overloaded"}}`))
	}))
	defer server.Close()

	c := NewCompleter(&Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-3-5-haiku-latest",
		Logger:  zap.NewNop(),
	})

	_, err := c.Complete(context.Background(), domain.CompletionRequest{
		Prompt: "p", SystemPrompt: "s", Temperature: 0.2, MaxTokens: 100,
	})
	if !errors.Is(err, domain.ErrCompletionUnavailable) {
		t.Fatalf("expected ErrCompletionUnavailable, got %v", err)
	}
}
