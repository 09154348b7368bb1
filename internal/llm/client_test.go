package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, content string, capture *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}

		resp := openai.ChatCompletionResponse{
			ID:    "cmpl-test",
			Model: "test-model",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewClient("http://localhost:8000/v1", "key")
		assert.Equal(t, "gpt-4o-mini", c.Model)
		assert.Equal(t, 4096, c.MaxTokens)
	})

	t.Run("options override defaults", func(t *testing.T) {
		c := NewClient("http://localhost:8000/v1/", "key",
			WithModel("custom"),
			WithMaxTokens(512),
			WithTemperature(0.1),
			WithTimeout(5*time.Second),
		)
		assert.Equal(t, "custom", c.Model)
		assert.Equal(t, 512, c.MaxTokens)
		assert.Equal(t, 0.1, c.Temperature)
		assert.Equal(t, "http://localhost:8000/v1", c.BaseURL, "trailing slash trimmed")
	})
}

func TestComplete(t *testing.T) {
	t.Run("returns first choice content", func(t *testing.T) {
		var captured openai.ChatCompletionRequest
		srv := completionServer(t, "audit output", &captured)
		defer srv.Close()

		c := NewClient(srv.URL, "key", WithModel("test-model"), WithMaxTokens(100))
		out, err := c.Complete(context.Background(), "audit this")
		require.NoError(t, err)
		assert.Equal(t, "audit output", out)

		assert.Equal(t, "test-model", captured.Model)
		assert.Equal(t, 100, captured.MaxTokens)
		require.Len(t, captured.Messages, 1)
		assert.Equal(t, "audit this", captured.Messages[0].Content)
	})

	t.Run("no choices is empty, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "cmpl-test", "choices": []}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "key")
		out, err := c.Complete(context.Background(), "audit this")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("server error propagates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "key")
		_, err := c.Complete(context.Background(), "audit this")
		assert.Error(t, err)
	})
}
