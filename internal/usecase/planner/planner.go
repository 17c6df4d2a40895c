// Package planner turns a task and the current page into an ordered list of
// navigation steps by asking the language model and repairing its answer.
package planner

import (
	"context"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/htmlclean"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/prompts"
)

const DefaultHTMLBudget = 15000

// Asker renders a prompt template and returns the model's raw answer.
type Asker interface {
	Ask(ctx context.Context, name, tmpl string, data any) (string, error)
}

type PlanRequest struct {
	Task      string
	URL       string
	HTML      string
	Structure *entity.PageStructure
}

type Config struct {
	HTMLBudget         int
	InsertDynamicWaits bool
}

func DefaultConfig() Config {
	return Config{HTMLBudget: DefaultHTMLBudget, InsertDynamicWaits: true}
}

type Planner struct {
	oracle Asker
	cfg    Config
	log    output.LoggerPort
}

func New(oracle Asker, cfg Config, log output.LoggerPort) *Planner {
	if cfg.HTMLBudget <= 0 {
		cfg.HTMLBudget = DefaultHTMLBudget
	}
	return &Planner{oracle: oracle, cfg: cfg, log: log}
}

// Plan asks the oracle for steps. An oracle failure or an answer that no
// extraction tier understands yields an empty plan and a nil error.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) ([]entity.NavigationStep, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	workflowType := DetectWorkflowType(req.Task)
	p.log.Info("Planning navigation", "task", req.Task, "url", req.URL, "workflowType", workflowType, "htmlLength", len(req.HTML))

	answer, err := p.oracle.Ask(ctx, "navigation", prompts.NavigationTemplate, prompts.NavigationData{
		Task:      req.Task,
		URL:       req.URL,
		HTML:      htmlclean.Truncate(req.HTML, p.cfg.HTMLBudget),
		Structure: req.Structure,
	})
	if err != nil {
		p.log.Warn("Planner oracle failed, continuing with empty plan", "error", err)
		return nil, nil
	}

	steps := p.Parse(answer)
	if p.cfg.InsertDynamicWaits {
		steps = insertDynamicWaits(steps)
	}

	p.log.Info("Navigation plan ready", "steps", len(steps))
	return steps, nil
}

// Parse runs the extraction tiers in order and returns the first non-empty
// validated plan.
func (p *Planner) Parse(answer string) []entity.NavigationStep {
	for _, t := range tiers {
		raw := t.extract(answer)
		if len(raw) == 0 {
			continue
		}
		steps := p.validateSteps(raw)
		if len(steps) == 0 {
			p.log.Debug("Extraction tier produced no valid steps", "tier", t.name, "raw", len(raw))
			continue
		}
		p.log.Debug("Parsed navigation plan", "tier", t.name, "steps", len(steps))
		return steps
	}

	p.log.Warn("Could not extract any steps from planner answer", "length", len(answer))
	return nil
}
