package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

var _ output.LLMPort = (*OpenRouterAdapter)(nil)

var ErrEmptyResponse = errors.New("no choices in response")

type OpenRouterAdapter struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	logger  output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// RequestsPerMinute throttles outgoing completions. Zero disables it.
	RequestsPerMinute int
	Logger            output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:            apiKey,
		Model:             model,
		BaseURL:           "https://openrouter.ai/api/v1",
		RequestsPerMinute: 30,
	}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}

	var payload struct {
		Model    string `json:"model"`
		Messages []any  `json:"messages"`
	}
	_ = json.Unmarshal(bodyBytes, &payload)

	t.logger.Debug("LLM request",
		"method", req.Method,
		"url", req.URL.String(),
		"model", payload.Model,
		"messages", len(payload.Messages),
		"bytes", len(bodyBytes),
	)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("LLM transport error", "error", err)
		return resp, err
	}

	t.logger.Debug("LLM response", "status", resp.Status)
	return resp, nil
}

func NewOpenRouterAdapter(cfg Config) *OpenRouterAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	if cfg.Logger != nil {
		config.HTTPClient = &http.Client{
			Transport: &loggingTransport{
				base:   http.DefaultTransport,
				logger: cfg.Logger,
			},
		}
	}

	a := &OpenRouterAdapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
	if cfg.RequestsPerMinute > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), 1)
	}
	return a
}

func (a *OpenRouterAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    convertMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	if a.logger != nil {
		a.logger.Debug("Chat completion received",
			"model", resp.Model,
			"promptTokens", resp.Usage.PromptTokens,
			"completionTokens", resp.Usage.CompletionTokens,
			"finishReason", resp.Choices[0].FinishReason,
		)
	}

	return &output.ChatResponse{
		Message:      convertResponseMessage(resp.Choices[0].Message),
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return result
}

func convertResponseMessage(msg openai.ChatCompletionMessage) entity.Message {
	role := entity.MessageRole(msg.Role)
	if role == "" {
		role = entity.RoleAssistant
	}
	return entity.Message{
		Role:    role,
		Content: msg.Content,
	}
}
