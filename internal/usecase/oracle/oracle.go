// Package oracle is the single entry point for language-model calls. Each
// role (planner, validator) supplies its own template and data.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/prompts"
)

var ErrEmptyAnswer = errors.New("oracle returned empty answer")

type Config struct {
	Temperature float32
	MaxTokens   int
}

func DefaultConfig() Config {
	return Config{Temperature: 0.2, MaxTokens: 2000}
}

type Oracle struct {
	llm output.LLMPort
	cfg Config
	log output.LoggerPort
}

func New(llm output.LLMPort, cfg Config, log output.LoggerPort) *Oracle {
	return &Oracle{llm: llm, cfg: cfg, log: log}
}

// Ask renders tmpl with data and returns the model's raw text answer.
func (o *Oracle) Ask(ctx context.Context, name, tmpl string, data any) (string, error) {
	prompt, err := prompts.Render(name, tmpl, data)
	if err != nil {
		return "", err
	}

	o.log.Debug("Asking oracle", "role", name, "promptLength", len(prompt))

	resp, err := o.llm.Chat(ctx, output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: prompts.SystemPrompt},
			{Role: entity.RoleUser, Content: prompt},
		},
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s oracle call: %w", name, err)
	}

	answer := strings.TrimSpace(resp.Message.Content)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	if resp.FinishReason == "length" {
		o.log.Warn("Oracle answer truncated at token limit", "role", name, "maxTokens", o.cfg.MaxTokens)
	}
	return answer, nil
}
