package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/contextstore"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/validator"
)

var preClickWords = []string{"new", "create", "add", "open"}

// runStep executes the step under the cursor. Soft failures advance the
// cursor and return nil; a returned error ends the run.
func (w *Workflow) runStep(ctx context.Context, r *run, step entity.NavigationStep) error {
	state := r.state
	log := r.log.WithField("step", state.Cursor+1)

	log.Info("Executing step",
		"action", step.ActionType,
		"selector", step.Selector,
		"description", step.Description,
		"of", len(state.Steps))

	if step.ActionType == entity.ActionClick && mentions(step.Description, preClickWords) {
		w.captureUIState(ctx, r, "pre_click")
	}

	before := r.lastState()
	ok, err := w.attempt(ctx, r, step, before)
	if err != nil || !ok && !step.ActionType.Soft() {
		log.Warn("Step failed, retrying once", "action", step.ActionType, "error", err)
		w.event(ctx, r, "step_retry", map[string]any{"selector": step.Selector, "error": errString(err)}, false)
		if serr := sleep(ctx, w.cfg.RetryDelay); serr != nil {
			return serr
		}
		ok, err = w.attempt(ctx, r, step, before)
	}

	state.CurrentActionType = step.ActionType
	state.CurrentActionSuccess = ok && err == nil

	details := map[string]any{
		"selector":    step.Selector,
		"description": step.Description,
	}

	if err != nil || !ok && !step.ActionType.Soft() {
		if err == nil {
			err = fmt.Errorf("%s on %q did not take effect", step.ActionType, step.Selector)
		}
		details["error"] = err.Error()
		w.event(ctx, r, "step_failed_"+string(step.ActionType), details, false)
		log.Error("Critical step failed", "action", step.ActionType, "error", err)
		return fmt.Errorf("%w: %s %q: %w", ErrStepFailed, step.ActionType, step.Description, err)
	}

	if !ok {
		details["soft_failure"] = true
		w.event(ctx, r, "step_failed_"+string(step.ActionType), details, false)
		log.Warn("Step failed, continuing", "action", step.ActionType)
	} else {
		w.event(ctx, r, "step_executed_"+string(step.ActionType), details, true)
		if step.ActionType == entity.ActionType {
			state.FormInteractions = append(state.FormInteractions, entity.FormInteraction{
				Step:     state.Cursor,
				Selector: step.Selector,
				Text:     step.Text,
			})
		}
	}

	state.Cursor++
	return nil
}

// attempt runs the action once, captures the resulting UI state and checks
// that clicks and typing had a visible effect. ok=false with a nil error
// for a click means the cascade was exhausted; for a click whose effect
// could not be confirmed it means validation failed.
func (w *Workflow) attempt(ctx context.Context, r *run, step entity.NavigationStep, before *entity.PageStateSnapshot) (bool, error) {
	ok, err := w.deps.Executor.Execute(ctx, step)
	after := w.captureUIState(ctx, r, "post_"+string(step.ActionType))
	if err != nil {
		return false, err
	}
	if !ok {
		// Soft exhaustion of a click is not retried.
		return false, nil
	}

	switch step.ActionType {
	case entity.ActionClick:
		if w.clickTookEffect(ctx, step, before, after) {
			return true, nil
		}
		return false, fmt.Errorf("click on %q had no visible effect and the element is disabled", step.Selector)
	case entity.ActionType:
		value, found := w.deps.Prober.FieldValue(ctx, step.Selector)
		if found && strings.Contains(strings.ToLower(value), strings.ToLower(strings.TrimSpace(step.Text))) {
			return true, nil
		}
		return false, fmt.Errorf("typed text not found in %q", step.Selector)
	default:
		return true, nil
	}
}

// clickTookEffect looks for independent evidence that the click worked. A
// click with no observable change only counts as failed when the target is
// disabled. A modal counts only when it was not open before the click.
func (w *Workflow) clickTookEffect(ctx context.Context, step entity.NavigationStep, before *entity.PageStateSnapshot, after entity.PageStateSnapshot) bool {
	if len(after.Modals) > 0 && (before == nil || len(after.Modals) > len(before.Modals) || after.ModalText() != before.ModalText()) {
		return true
	}
	if before != nil && (after.URL != before.URL || after.Hash != before.Hash) {
		return true
	}
	if w.deps.Prober.MenuVisible(ctx) {
		return true
	}
	return !w.deps.Prober.ElementDisabled(ctx, step.Selector)
}

// captureUIState probes the page, appends the snapshot to the run record and
// returns it.
func (w *Workflow) captureUIState(ctx context.Context, r *run, label string) entity.PageStateSnapshot {
	snap := w.deps.Prober.Snapshot(ctx)
	snap.Label = label

	state := r.state
	state.UIStates = append(state.UIStates, snap)
	state.DetectedModals = append(state.DetectedModals, snap.Modals...)

	w.event(ctx, r, "ui_state_capture", map[string]any{
		"context":     label,
		"has_modals":  len(snap.Modals) > 0,
		"has_forms":   len(snap.Forms) > 0,
		"html_length": w.deps.Prober.HTMLLength(ctx),
	}, true)
	return snap
}

func (r *run) lastState() *entity.PageStateSnapshot {
	if n := len(r.state.UIStates); n > 0 {
		s := r.state.UIStates[n-1]
		return &s
	}
	return nil
}

func (w *Workflow) validate(ctx context.Context, r *run, step entity.NavigationStep) {
	state := r.state
	snap := r.lastState()
	req := validator.Request{
		Task:        state.TaskQuery,
		Step:        state.Cursor,
		Total:       len(state.Steps),
		Description: step.Description,
	}
	if snap != nil {
		req.URL = snap.URL
		req.Modals = snap.Modals
		req.VisibleText = snap.VisibleText
	}

	result, err := w.deps.Validator.Validate(ctx, req)
	if err != nil {
		r.log.Warn("State validation failed to run", "error", err)
		return
	}
	if !result.Valid {
		w.event(ctx, r, "validation_failed", map[string]any{"issues": result.Issues}, false)
		r.log.Warn("State validation reported issues", "issues", result.Issues)
	}
}

func (w *Workflow) syncContext(ctx context.Context, r *run) {
	state := r.state
	data := map[string]any{
		"step":        state.Cursor,
		"screenshots": state.Screenshots,
		"url":         w.deps.Prober.CurrentURL(ctx),
		"ui_states":   len(state.UIStates),
		"modals":      len(state.DetectedModals),
		"forms":       len(state.FormInteractions),
	}
	key := contextstore.StepKey(state.RunID, state.Cursor)
	if err := w.deps.Store.Save(ctx, key, data, w.cfg.ContextTTL); err != nil {
		r.log.Debug("Context sync failed", "key", key, "error", err)
	}
}

func mentions(s string, words []string) bool {
	s = strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
