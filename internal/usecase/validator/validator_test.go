package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/logger"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/prompts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOracle struct {
	answer string
	err    error
	data   prompts.ValidationData
}

func (s *stubOracle) Ask(_ context.Context, _, _ string, data any) (string, error) {
	s.data, _ = data.(prompts.ValidationData)
	return s.answer, s.err
}

func TestParseValidation_ValidJSON(t *testing.T) {
	result := parseValidation(`{
  "valid": true,
  "issues": ["spinner still visible"],
  "ready_to_proceed": false
}`)

	if !result.Valid {
		t.Error("Expected valid=true")
	}
	if result.ReadyToProceed {
		t.Error("Expected ready_to_proceed=false")
	}
	if len(result.Issues) != 1 || result.Issues[0] != "spinner still visible" {
		t.Errorf("Expected one issue, got %v", result.Issues)
	}
}

func TestParseValidation_WithTextAround(t *testing.T) {
	result := parseValidation("Here's my check:\n\n{\"valid\": false, \"ready_to_proceed\": false}\n\nHope this helps!")

	assert.False(t, result.Valid)
	assert.NotNil(t, result.Issues)
}

func TestParseValidation_KeywordFallback(t *testing.T) {
	result := parseValidation("The state is valid: true and the page is ready to proceed.")
	assert.True(t, result.Valid)
	assert.True(t, result.ReadyToProceed)
	assert.Empty(t, result.Issues)

	result = parseValidation("Something looks off.")
	assert.False(t, result.Valid)
	assert.False(t, result.ReadyToProceed)
	assert.Equal(t, []string{"Validation unclear"}, result.Issues)
}

func TestValidate_PassesContext(t *testing.T) {
	oracle := &stubOracle{answer: `{"valid": true, "issues": [], "ready_to_proceed": true}`}
	v := New(oracle, logger.NewNop())

	result, err := v.Validate(context.Background(), Request{
		Task:        "Create a project",
		Step:        3,
		Total:       6,
		Description: "Open the dialog",
		URL:         "https://app.example.com",
		Modals:      []entity.Modal{{Text: "New project"}, {Text: "Tips"}},
		VisibleText: "Projects",
	})
	require.NoError(t, err)

	assert.True(t, result.ReadyToProceed)
	assert.Equal(t, "New project | Tips", oracle.data.Modals)
	assert.Equal(t, 6, oracle.data.Total)
}

func TestValidate_OracleError(t *testing.T) {
	v := New(&stubOracle{err: errors.New("timeout")}, logger.NewNop())

	result, err := v.Validate(context.Background(), Request{})

	assert.Error(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"timeout"}, result.Issues)
}

func TestModalSummary_Empty(t *testing.T) {
	assert.Equal(t, "none", modalSummary(nil))
}
