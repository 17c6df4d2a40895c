package output

import (
	"context"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
)

// LLMPort is a single-turn chat completion. Implementations return an
// error rather than an empty message.
type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Temperature float32
	// MaxTokens caps the completion length. Zero leaves it to the provider.
	MaxTokens int
}

type ChatResponse struct {
	Message entity.Message
	// FinishReason is the provider's stop reason, e.g. "stop" or "length".
	FinishReason string
}
