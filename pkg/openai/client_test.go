package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChat(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/chat/completions")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])
		msgs := body["messages"].([]any)
		assert.Len(t, msgs, 2)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": "  Acme trained 100 people.  "},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{"prompt_tokens": 80, "completion_tokens": 20, "total_tokens": 100},
		})
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: ts.URL + "/v1"})
	temp := 0.3
	resp, err := client.CreateChat(context.Background(), ChatRequest{
		Model:       "gpt-4o",
		MaxTokens:   256,
		System:      "You write impact reports.",
		Prompt:      "Hello",
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "chatcmpl-1", resp.ID)
	assert.Equal(t, "Acme trained 100 people.", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, int64(80), resp.Usage.InputTokens)
	assert.Equal(t, int64(20), resp.Usage.OutputTokens)
}

func TestCreateChat_RateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"error": map[string]any{
				"message": "Rate limit reached",
				"type":    "requests",
				"code":    "rate_limit_exceeded",
			},
		})
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: ts.URL + "/v1"})
	_, err := client.CreateChat(context.Background(), ChatRequest{Model: "gpt-4o", Prompt: "Hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai: create chat completion")
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
}

func TestCreateChat_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}}) //nolint:errcheck
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: ts.URL + "/v1"})
	_, err := client.CreateChat(context.Background(), ChatRequest{Model: "gpt-4o", Prompt: "Hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestStatusCode_NoResponse(t *testing.T) {
	assert.Equal(t, 0, StatusCode(assert.AnError))
}
