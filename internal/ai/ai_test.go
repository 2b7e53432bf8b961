package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eduwrite/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutKey(t *testing.T) {
	gen, err := New(config.AIConfig{APIKey: "   "})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, gen)
}

func TestPromptUserMessage(t *testing.T) {
	p := Prompt{Topic: "Gravity", ContentType: "Quiz", Level: "Beginner"}
	assert.Equal(t, "Topic: Gravity\nContent Type: Quiz\nLevel: Beginner", p.UserMessage())
}

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestOpenAIGeneratorGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "llama-3.3-70b-versatile",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Gravity pulls."}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	gen, err := New(config.AIConfig{APIKey: "test-key", BaseURL: srv.URL + "/", Model: "llama-3.3-70b-versatile", Temperature: 0.7})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), Prompt{Topic: "Gravity", ContentType: "Explanation", Level: "Intermediate"})
	require.NoError(t, err)
	assert.Equal(t, "Gravity pulls.", out)

	assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 0.0001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, SystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "Topic: Gravity")
}

func TestOpenAIGeneratorNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
	}))
	defer srv.Close()

	gen, err := New(config.AIConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), Prompt{Topic: "x"})
	assert.Error(t, err)
}

func TestOpenAIGeneratorTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	gen, err := New(config.AIConfig{APIKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), Prompt{Topic: "x"})
	assert.Error(t, err)
}

func TestOpenAIGeneratorTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	gen, err := New(config.AIConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = gen.Generate(context.Background(), Prompt{Topic: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
