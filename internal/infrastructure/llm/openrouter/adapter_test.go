package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/logger"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertResponseMessage_WithContent(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "Hello, world!",
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Equal(t, "Hello, world!", result.Content)
}

func TestConvertResponseMessage_DefaultsRole(t *testing.T) {
	result := convertResponseMessage(openai.ChatCompletionMessage{Content: "[]"})

	assert.Equal(t, entity.RoleAssistant, result.Role)
}

func TestConvertMessages_SkipsEmpty(t *testing.T) {
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: "You plan UI steps."},
		{Role: entity.RoleUser, Content: "   "},
		{Role: entity.RoleUser, Content: "Create a project"},
	}

	result := convertMessages(messages)

	require.Len(t, result, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, result[0].Role)
	assert.Equal(t, "Create a project", result[1].Content)
}

func TestChat_RoundTrip(t *testing.T) {
	var got openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: "test-model",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: `[{"action_type":"wait"}]`},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	defer server.Close()

	cfg := DefaultConfig("test-key", "test-model")
	cfg.BaseURL = server.URL
	cfg.Logger = logger.NewNop()
	adapter := NewOpenRouterAdapter(cfg)

	resp, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages:    []entity.Message{{Role: entity.RoleUser, Content: "plan"}},
		Temperature: 0.3,
		MaxTokens:   500,
	})
	require.NoError(t, err)

	assert.Equal(t, `[{"action_type":"wait"}]`, resp.Message.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 0.001)
}

func TestChat_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig("k", "m")
	cfg.BaseURL = server.URL
	cfg.RequestsPerMinute = 0

	_, err := NewOpenRouterAdapter(cfg).Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "plan"}},
	})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestChat_RateLimitHonoursContext(t *testing.T) {
	cfg := DefaultConfig("k", "m")
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.RequestsPerMinute = 1
	adapter := NewOpenRouterAdapter(cfg)
	adapter.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.Chat(ctx, output.ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}
