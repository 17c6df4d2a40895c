package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeModel struct {
	got     []llms.MessageContent
	opts    llms.CallOptions
	content string
	err     error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.got = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.content == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.content, StopReason: "stop"}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestConvertMessages_MapsRoles(t *testing.T) {
	result := convertMessages([]entity.Message{
		{Role: entity.RoleSystem, Content: "sys"},
		{Role: entity.RoleUser, Content: "user"},
		{Role: entity.RoleAssistant, Content: "ai"},
	})

	require.Len(t, result, 3)
	assert.Equal(t, schema.ChatMessageTypeSystem, result[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, result[1].Role)
	assert.Equal(t, schema.ChatMessageTypeAI, result[2].Role)
	assert.Equal(t, llms.TextContent{Text: "user"}, result[1].Parts[0])
}

func TestChat_PassesOptions(t *testing.T) {
	model := &fakeModel{content: `{"valid": true}`}
	adapter := NewWithModel(model, "fake", nil)

	resp, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages:    []entity.Message{{Role: entity.RoleUser, Content: "check"}},
		Temperature: 0.5,
		MaxTokens:   200,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"valid": true}`, resp.Message.Content)
	assert.Equal(t, entity.RoleAssistant, resp.Message.Role)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.InDelta(t, 0.5, model.opts.Temperature, 0.001)
	assert.Equal(t, 200, model.opts.MaxTokens)
	require.Len(t, model.got, 1)
}

func TestChat_Errors(t *testing.T) {
	_, err := NewWithModel(&fakeModel{}, "fake", nil).Chat(context.Background(), output.ChatRequest{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	boom := errors.New("boom")
	_, err = NewWithModel(&fakeModel{err: boom}, "fake", nil).Chat(context.Background(), output.ChatRequest{})
	assert.ErrorIs(t, err, boom)
}
