// Package validator asks the language model whether the page looks ready
// for the next step.
package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/htmlclean"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/prompts"
)

const visibleTextBudget = 3000

type Asker interface {
	Ask(ctx context.Context, name, tmpl string, data any) (string, error)
}

type Request struct {
	Task        string
	Step        int
	Total       int
	Description string
	URL         string
	Modals      []entity.Modal
	VisibleText string
}

type Validator struct {
	oracle Asker
	logger output.LoggerPort
}

func New(oracle Asker, logger output.LoggerPort) *Validator {
	return &Validator{
		oracle: oracle,
		logger: logger,
	}
}

// Validate never fails the caller: an oracle error comes back as an invalid
// result carrying the error text, alongside the error itself.
func (v *Validator) Validate(ctx context.Context, req Request) (entity.StateValidation, error) {
	answer, err := v.oracle.Ask(ctx, "validation", prompts.ValidationTemplate, prompts.ValidationData{
		Task:        req.Task,
		Step:        req.Step,
		Total:       req.Total,
		Description: req.Description,
		URL:         req.URL,
		Modals:      modalSummary(req.Modals),
		VisibleText: htmlclean.Truncate(req.VisibleText, visibleTextBudget),
	})
	if err != nil {
		return entity.StateValidation{Issues: []string{err.Error()}}, fmt.Errorf("state validation: %w", err)
	}

	result := parseValidation(answer)

	v.logger.Info("State validation completed",
		"step", req.Step,
		"valid", result.Valid,
		"ready_to_proceed", result.ReadyToProceed,
		"issues_count", len(result.Issues),
	)

	return result, nil
}

// parseValidation reads the first {...} span as JSON, falling back to
// keyword spotting when the model answered in prose.
func parseValidation(response string) entity.StateValidation {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end > start {
		var result entity.StateValidation
		if err := json.Unmarshal([]byte(response[start:end+1]), &result); err == nil {
			if result.Issues == nil {
				result.Issues = []string{}
			}
			return result
		}
	}

	lower := strings.ToLower(response)
	valid := strings.Contains(lower, "valid") && strings.Contains(lower, "true")
	result := entity.StateValidation{
		Valid:          valid,
		Issues:         []string{},
		ReadyToProceed: strings.Contains(lower, "ready") && strings.Contains(lower, "proceed"),
	}
	if !valid {
		result.Issues = []string{"Validation unclear"}
	}
	return result
}

func modalSummary(modals []entity.Modal) string {
	if len(modals) == 0 {
		return "none"
	}
	texts := make([]string, 0, len(modals))
	for _, m := range modals {
		texts = append(texts, htmlclean.Truncate(m.Text, 80))
	}
	return strings.Join(texts, " | ")
}
