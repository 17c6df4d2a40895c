// Package langchain serves LLMPort through langchaingo so any provider it
// supports can stand in for the planner and validator oracle.
package langchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

var _ output.LLMPort = (*Adapter)(nil)

var ErrEmptyResponse = errors.New("no choices in response")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

type Adapter struct {
	model  llms.Model
	name   string
	logger output.LoggerPort
}

func NewAdapter(cfg Config) (*Adapter, error) {
	opts := []lcopenai.Option{
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}

	model, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}
	return NewWithModel(model, cfg.Model, cfg.Logger), nil
}

// NewWithModel wraps an already constructed langchaingo model.
func NewWithModel(model llms.Model, name string, logger output.LoggerPort) *Adapter {
	return &Adapter{model: model, name: name, logger: logger}
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	var opts []llms.CallOption
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(float64(req.Temperature)))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := a.model.GenerateContent(ctx, convertMessages(req.Messages), opts...)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	if a.logger != nil {
		a.logger.Debug("Langchain completion received",
			"model", a.name,
			"stopReason", choice.StopReason,
			"length", len(choice.Content))
	}

	return &output.ChatResponse{
		Message:      entity.Message{Role: entity.RoleAssistant, Content: choice.Content},
		FinishReason: choice.StopReason,
	}, nil
}

func convertMessages(messages []entity.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		result = append(result, llms.TextParts(chatType(msg.Role), msg.Content))
	}
	return result
}

func chatType(role entity.MessageRole) schema.ChatMessageType {
	switch role {
	case entity.RoleSystem:
		return schema.ChatMessageTypeSystem
	case entity.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
