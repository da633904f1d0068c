package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/sashabaranov/go-openai"
)

func sampleRequest() SelectRequest {
	return SelectRequest{
		RawText: "The BMS shall stop charging within 200ms.",
		Candidates: map[model.SlotName][]string{
			model.SlotAnchor:      {"bms"},
			model.SlotConstraints: {"within 200ms", "200ms"},
		},
	}
}

func openAIServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
			t.Error("Expected JSON response format")
		}

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
			},
			Usage: openai.Usage{TotalTokens: 42},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProvider_Select_Success(t *testing.T) {
	server := openAIServer(t, `{"Anchor": "bms", "Constraints": ["200ms"]}`)
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Model: "gpt-4o-mini"}, nil)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Select(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if got := resp.Selection[model.SlotAnchor].Spans; len(got) != 1 || got[0] != "bms" {
		t.Errorf("Unexpected Anchor selection: %v", got)
	}
	if got := resp.Selection[model.SlotConstraints].Spans; len(got) != 1 || got[0] != "200ms" {
		t.Errorf("Unexpected Constraints selection: %v", got)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("Expected 42 tokens, got %d", resp.TokensUsed)
	}
}

func TestOpenAIProvider_Select_MalformedContent(t *testing.T) {
	server := openAIServer(t, "I think the anchor is the BMS.")
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL}, nil)

	_, err := provider.Select(context.Background(), sampleRequest())
	if !errors.Is(err, ErrMalformedSelection) {
		t.Errorf("Expected ErrMalformedSelection, got %v", err)
	}
}

func TestOpenAIProvider_Select_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL}, nil)

	if _, err := provider.Select(context.Background(), sampleRequest()); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}, nil); err == nil {
		t.Error("Expected error without API key")
	}
}
