// Package workflow runs one task end to end: authentication check, a single
// plan, the step loop with capture decisions, and the final result.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/input"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/capture"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/planner"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/validator"

	"github.com/google/uuid"
)

var _ input.TaskExecutor = (*Workflow)(nil)

// ErrStepFailed wraps a step that still failed after its retry.
var ErrStepFailed = errors.New("critical step failed")

type Gate interface {
	Ensure(ctx context.Context, appURL string) (entity.AuthStatus, error)
}

type Planner interface {
	Plan(ctx context.Context, req planner.PlanRequest) ([]entity.NavigationStep, error)
}

type Validator interface {
	Validate(ctx context.Context, req validator.Request) (entity.StateValidation, error)
}

type Config struct {
	MaxSteps      int
	ValidateEvery int
	RetryDelay    time.Duration
	// SettleDelay is slept after every step before the capture decision.
	SettleDelay time.Duration
	ContextTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxSteps:      50,
		ValidateEvery: 3,
		RetryDelay:    time.Second,
		SettleDelay:   500 * time.Millisecond,
		ContextTTL:    time.Hour,
	}
}

// Deps are the collaborators of one run. All of them are bound to the same
// browser session.
type Deps struct {
	Gate      Gate
	Planner   Planner
	Executor  output.ActionExecutorPort
	Prober    output.PageProberPort
	Shots     output.ScreenshotPort
	Validator Validator
	Store     output.ContextStorePort
	Metadata  output.MetadataPort
	Logger    output.LoggerPort
}

type Workflow struct {
	deps Deps
	cfg  Config
	log  output.LoggerPort
}

func New(deps Deps, cfg Config) *Workflow {
	def := DefaultConfig()
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = def.MaxSteps
	}
	if cfg.ValidateEvery <= 0 {
		cfg.ValidateEvery = def.ValidateEvery
	}
	if cfg.ContextTTL <= 0 {
		cfg.ContextTTL = def.ContextTTL
	}
	return &Workflow{deps: deps, cfg: cfg, log: deps.Logger}
}

// run carries the per-execution state that is not part of the public
// WorkflowState record.
type run struct {
	state  *entity.WorkflowState
	engine *capture.Engine
	log    output.LoggerPort
}

// Execute runs req to completion. The result is never nil; err is set when
// the run failed and matches result.Error.
func (w *Workflow) Execute(ctx context.Context, req entity.TaskRequest) (*entity.WorkflowResult, error) {
	state := entity.NewWorkflowState(uuid.NewString(), req)
	r := &run{
		state:  state,
		engine: capture.NewEngine(),
		log: w.log.WithFields(map[string]any{
			"run_id": state.RunID,
			"app":    req.AppName,
			"task":   req.TaskName,
		}),
	}

	r.log.Info("Workflow started", "query", req.TaskQuery, "url", req.AppURL)

	w.execute(ctx, r)

	// Cleanup probes must run even when ctx was cancelled.
	final := context.WithoutCancel(ctx)
	w.finalCapture(final, r)
	w.finish(r)
	w.saveMetadata(r)

	result := w.result(final, r)
	r.log.Info("Workflow finished",
		"success", result.Success,
		"stepsCompleted", result.StepsCompleted,
		"screenshots", len(result.Screenshots),
		"error", result.Error)

	return result, state.Err
}

func (w *Workflow) execute(ctx context.Context, r *run) {
	state := r.state

	status, err := w.deps.Gate.Ensure(ctx, state.AppURL)
	if err != nil {
		w.event(ctx, r, "auth_failed", map[string]any{
			"error":           err.Error(),
			"requires_login":  status.RequiresLogin,
			"oauth_providers": status.OAuthProviders,
		}, false)
		state.Err = fmt.Errorf("authentication: %w", err)
		return
	}

	w.captureUIState(ctx, r, "initial")
	w.screenshotStep(ctx, r, nil, true)

	if err := w.plan(ctx, r); err != nil {
		state.Err = err
		return
	}
	if len(state.Steps) == 0 {
		r.log.Warn("No navigation steps generated, task may already be complete")
		state.Completed = true
		return
	}

	state.Phase = entity.PhaseExecuting
	w.loop(ctx, r)
}

func (w *Workflow) plan(ctx context.Context, r *run) error {
	state := r.state

	html, err := w.deps.Prober.PageHTML(ctx)
	if err != nil {
		r.log.Warn("Could not read page HTML for planning", "error", err)
	}
	structure := w.deps.Prober.Structure(ctx)

	steps, err := w.deps.Planner.Plan(ctx, planner.PlanRequest{
		Task:      state.TaskQuery,
		URL:       w.deps.Prober.CurrentURL(ctx),
		HTML:      html,
		Structure: &structure,
	})
	if err != nil {
		return fmt.Errorf("planning: %w", err)
	}

	state.Steps = steps
	w.event(ctx, r, "plan_created", map[string]any{"steps": len(steps)}, true)
	return nil
}

func (w *Workflow) loop(ctx context.Context, r *run) {
	state := r.state

	for {
		if state.Cursor >= len(state.Steps) {
			state.Completed = true
			return
		}
		if state.Cursor >= w.cfg.MaxSteps {
			r.log.Warn("Step ceiling reached", "maxSteps", w.cfg.MaxSteps, "planned", len(state.Steps))
			state.Completed = true
			return
		}
		if err := ctx.Err(); err != nil {
			state.Err = err
			return
		}

		step, _ := state.CurrentStep()
		err := w.runStep(ctx, r, step)

		if err == nil {
			if serr := sleep(ctx, w.cfg.SettleDelay); serr != nil {
				err = serr
			}
		}
		w.screenshotStep(ctx, r, &step, false)

		if err != nil {
			state.Err = err
			return
		}

		if state.Cursor%w.cfg.ValidateEvery == 0 {
			w.validate(ctx, r, step)
		}
		w.syncContext(ctx, r)
	}
}

func (w *Workflow) finish(r *run) {
	state := r.state
	if state.Err != nil {
		state.Phase = entity.PhaseFailed
		state.Completed = false
		w.event(context.Background(), r, "workflow_failed", map[string]any{"error": state.Err.Error()}, false)
		return
	}
	state.Phase = entity.PhaseCompleted
	state.Completed = true
}

func (w *Workflow) saveMetadata(r *run) {
	state := r.state
	descriptions, _ := FilterDescriptions(state.StepDescriptions)
	meta := entity.WorkflowMetadata{
		RunID:               state.RunID,
		TaskQuery:           state.TaskQuery,
		AppURL:              state.AppURL,
		AppName:             state.AppName,
		TaskName:            state.TaskName,
		Completed:           state.Completed,
		Error:               state.ErrorString(),
		TotalSteps:          len(state.Steps),
		StepsCompleted:      state.Cursor,
		Screenshots:         nonNil(state.Screenshots),
		StepDescriptions:    nonNil(descriptions),
		RawStepDescriptions: nonNil(state.StepDescriptions),
		ExecutionTime:       time.Since(state.StartedAt).Seconds(),
		ModalsDetected:      len(state.DetectedModals),
		FormsFilled:         len(state.FormInteractions),
		UIStatesCaptured:    len(state.UIStates),
		ExecutionLog:        state.ExecutionLog,
	}

	path, err := w.deps.Metadata.WriteWorkflowMetadata(state.AppName, state.TaskName, meta)
	if err != nil {
		r.log.Error("Failed to save workflow metadata", "error", err)
		return
	}
	r.log.Info("Workflow metadata saved", "path", path)
}

func (w *Workflow) result(ctx context.Context, r *run) *entity.WorkflowResult {
	state := r.state
	descriptions, remap := FilterDescriptions(state.StepDescriptions)

	metas := make([]entity.ScreenshotMeta, 0, len(state.Screenshots))
	for _, path := range state.Screenshots {
		idx := -1
		if raw, ok := state.ScreenshotStep[path]; ok && raw >= 0 && raw < len(remap) {
			idx = remap[raw]
		}
		metas = append(metas, entity.ScreenshotMeta{Path: path, StepIndex: idx, StepNumber: idx + 1})
	}

	return &entity.WorkflowResult{
		RunID:              state.RunID,
		Success:            state.Completed && state.Err == nil,
		Screenshots:        nonNil(state.Screenshots),
		ScreenshotMetadata: metas,
		StepDescriptions:   nonNil(descriptions),
		StepsCompleted:     state.Cursor,
		Error:              state.ErrorString(),
		FinalURL:           w.deps.Prober.CurrentURL(ctx),
		UIStatesCaptured:   len(state.UIStates),
		ModalsDetected:     len(state.DetectedModals),
		FormsFilled:        len(state.FormInteractions),
		ExecutionTime:      time.Since(state.StartedAt).Seconds(),
	}
}

func (w *Workflow) event(ctx context.Context, r *run, name string, details map[string]any, success bool) {
	r.state.ExecutionLog = append(r.state.ExecutionLog, entity.ExecutionEvent{
		Timestamp: time.Now(),
		Step:      r.state.Cursor,
		Event:     name,
		Details:   details,
		URL:       w.deps.Prober.CurrentURL(ctx),
		Success:   success,
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
