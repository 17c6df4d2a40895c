package workflow

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/capture"
)

const (
	initialDescription = "Start: Open the application"
	modalSuffix        = " (A popup or menu appeared)"
	formSuffix         = " (Entered information)"

	duplicateSimilarity = 0.7
)

var (
	quotedText = regexp.MustCompile(`['"]([^'"]+)['"]`)
	typedText  = regexp.MustCompile(`type\s+(?:text|value|input)[\s:]*['"]?([^'"]+)['"]?`)
)

// screenshotStep appends the description for the iteration that just ran
// and asks the capture engine whether to take a screenshot of it. step is
// nil for the initial state.
func (w *Workflow) screenshotStep(ctx context.Context, r *run, step *entity.NavigationStep, force bool) {
	state := r.state

	description := initialDescription
	if step != nil {
		description = w.describe(r, *step)
	}
	state.StepDescriptions = append(state.StepDescriptions, description)
	index := len(state.StepDescriptions) - 1

	in := capture.Input{
		StepIndex: index,
		Action:    state.CurrentActionType,
		Success:   state.CurrentActionSuccess,
		Force:     force,
	}
	if step != nil {
		in.Description = step.Description
	}
	if snap := r.lastState(); snap != nil {
		in.Snapshot = *snap
	}

	decision := r.engine.ShouldCapture(in)
	if !decision.Capture {
		r.log.Info("Screenshot skipped", "index", index, "score", decision.Score, "reason", decision.Reason)
		w.event(ctx, r, "screenshot_skipped", map[string]any{
			"reason":      decision.Reason,
			"score":       decision.Score,
			"description": description,
			"action_type": state.CurrentActionType,
		}, true)
		return
	}

	w.takeScreenshot(ctx, r, index, step, in.Snapshot, decision)
}

// finalCapture makes sure the last narrated state has a screenshot.
func (w *Workflow) finalCapture(ctx context.Context, r *run) {
	state := r.state
	last := len(state.StepDescriptions) - 1
	if last <= 0 {
		return
	}
	for _, idx := range state.ScreenshotStep {
		if idx == last {
			return
		}
	}

	snap := w.captureUIState(ctx, r, "final")
	decision := r.engine.ShouldCapture(capture.Input{StepIndex: last, Snapshot: snap, Force: true})
	w.takeScreenshot(ctx, r, last, nil, snap, decision)
}

func (w *Workflow) takeScreenshot(ctx context.Context, r *run, index int, step *entity.NavigationStep, snap entity.PageStateSnapshot, decision entity.CaptureDecision) {
	state := r.state

	req := entity.ScreenshotRequest{
		AppName:  state.AppName,
		TaskName: state.TaskName,
		Step:     index,
		Modals:   snap.Modals,
	}
	if step != nil && step.ActionType != entity.ActionWait && step.ActionType != entity.ActionNavigate {
		req.Highlight = step.Selector
	}

	rec, err := w.deps.Shots.Capture(ctx, req)
	if err != nil {
		r.log.Error("Screenshot failed", "index", index, "error", err)
		w.event(ctx, r, "screenshot_error", map[string]any{"error": err.Error()}, false)
		return
	}

	r.engine.Record(snap)
	state.Screenshots = append(state.Screenshots, rec.Path)
	state.ScreenshotStep[rec.Path] = index

	w.event(ctx, r, "screenshot_captured", map[string]any{
		"path":        rec.Path,
		"score":       decision.Score,
		"reason":      decision.Reason,
		"cropped":     rec.Cropped,
		"step_index":  index,
		"action_type": state.CurrentActionType,
	}, true)
}

// describe narrates step in guide language, noting a dialog that was not
// there before and text that was entered.
func (w *Workflow) describe(r *run, step entity.NavigationStep) string {
	state := r.state
	text := SimplifyDescription(step.ActionType, step.Description)

	if n := len(state.UIStates); n > 0 {
		after := state.UIStates[n-1]
		var before string
		if n > 1 {
			before = state.UIStates[n-2].ModalText()
		}
		for _, m := range after.Modals {
			if m.Text != "" && !strings.Contains(before, m.Text) {
				text += modalSuffix
				break
			}
		}
	}

	if step.ActionType == entity.ActionType && state.CurrentActionSuccess {
		text += formSuffix
	}
	return text
}

// SimplifyDescription rewrites a planner description into short user
// guide phrasing.
func SimplifyDescription(action entity.Action, description string) string {
	lower := strings.ToLower(description)

	switch action {
	case entity.ActionClick:
		if m := quotedText.FindStringSubmatch(description); m != nil {
			return "Click on '" + m[1] + "'"
		}
		simple := strings.NewReplacer("Click", "Click on", "click", "Click on").Replace(description)
		simple = strings.ReplaceAll(simple, "Click on on", "Click on")
		return truncate(simple, 60)
	case entity.ActionWait:
		switch {
		case strings.Contains(lower, "dropdown"), strings.Contains(lower, "menu"):
			return "Wait for the menu to appear"
		case strings.Contains(lower, "dynamic"), strings.Contains(lower, "content"):
			return "Wait for the page to load"
		case strings.Contains(lower, "appear"):
			return "Wait for the element to appear"
		default:
			return "Wait a moment"
		}
	case entity.ActionType:
		if m := typedText.FindStringSubmatch(lower); m != nil {
			return "Type '" + truncate(strings.TrimSpace(m[1]), 30) + "'"
		}
		return "Enter text"
	case entity.ActionSelect:
		return "Select an option"
	case entity.ActionHover:
		return "Hover over the element"
	case entity.ActionScroll:
		return "Scroll to view more content"
	}

	simple := strings.NewReplacer("After ", "", "after ", "").Replace(description)
	if utf8.RuneCountInString(simple) > 80 {
		return truncate(simple, 77) + "..."
	}
	return simple
}

// FilterDescriptions drops descriptions that repeat the last kept one. remap
// maps every input index to the index of the kept description that stands
// for it.
func FilterDescriptions(descriptions []string) (kept []string, remap []int) {
	remap = make([]int, len(descriptions))
	var last string
	for i, d := range descriptions {
		norm := normalizeDescription(d)
		if i > 0 && isDuplicate(norm, last) {
			remap[i] = len(kept) - 1
			continue
		}
		kept = append(kept, d)
		remap[i] = len(kept) - 1
		last = norm
	}
	return kept, remap
}

func normalizeDescription(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.ReplaceAll(d, strings.ToLower(modalSuffix), "")
	d = strings.ReplaceAll(d, strings.ToLower(formSuffix), "")
	return strings.TrimSpace(d)
}

func isDuplicate(a, b string) bool {
	if a == b {
		return true
	}
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return false
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter)/float64(union) >= duplicateSimilarity
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		set[f] = true
	}
	return set
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
