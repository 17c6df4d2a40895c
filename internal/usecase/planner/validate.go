package planner

import (
	"regexp"
	"strings"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
)

var placeholderAttr = regexp.MustCompile(`(?i)placeholder[=:]["']([^"']+)["']`)

var dynamicContentWords = []string{"new", "create", "add", "open", "show", "filter"}

// validateSteps normalises raw steps and drops the ones the executor
// cannot run.
func (p *Planner) validateSteps(raw []rawStep) []entity.NavigationStep {
	steps := make([]entity.NavigationStep, 0, len(raw))
	for i, r := range raw {
		action, ok := entity.ParseAction(r.str("action_type"))
		if !ok {
			p.log.Debug("Dropping step with unknown action", "index", i, "action", r.str("action_type"))
			continue
		}

		step := entity.NavigationStep{
			ActionType:  action,
			Selector:    strings.TrimSpace(r.str("selector")),
			Description: strings.TrimSpace(r.str("description")),
			Text:        r.str("text"),
			Options:     strings.TrimSpace(r.str("options")),
			URL:         strings.TrimSpace(r.str("url")),
			WaitTime:    entity.DefaultWaitSeconds,
		}
		if secs, ok := r.int("wait_time"); ok && secs > 0 {
			step.WaitTime = secs
		}

		if step.Selector == "" && action != entity.ActionWait && !(action == entity.ActionNavigate && step.URL != "") {
			p.log.Debug("Dropping step without selector", "index", i, "action", action)
			continue
		}

		if action == entity.ActionType && strings.TrimSpace(step.Text) == "" {
			step.Text = PlaceholderText(step.Selector, step.Description)
			p.log.Debug("Generated placeholder text", "selector", step.Selector, "text", step.Text)
		}

		steps = append(steps, step)
	}
	return steps
}

// PlaceholderText invents guide-friendly input for a type step whose text
// the model left empty.
func PlaceholderText(selector, description string) string {
	sel := strings.ToLower(selector)
	desc := strings.ToLower(description)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(sel, w) || strings.Contains(desc, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("name", "title"):
		switch {
		case has("task"):
			return "Your task name"
		case has("project"):
			return "Project name"
		default:
			return "Your name"
		}
	case has("description"):
		return "Description"
	case has("task"):
		return "Your task name"
	case has("project"):
		return "Project name"
	case has("goal"):
		return "Your goal"
	case has("email", "e-mail"):
		return "your.email@example.com"
	case has("url", "link", "website"):
		return "https://example.com"
	case has("comment", "note", "message"):
		return "Your comment"
	}

	if m := placeholderAttr.FindStringSubmatch(selector); m != nil {
		return m[1]
	}
	return "Your text"
}

// insertDynamicWaits adds a short wait after clicks that usually open
// dialogs or load content.
func insertDynamicWaits(steps []entity.NavigationStep) []entity.NavigationStep {
	out := make([]entity.NavigationStep, 0, len(steps))
	for i, step := range steps {
		out = append(out, step)
		if step.ActionType != entity.ActionClick || !mentionsAny(step.Description, dynamicContentWords) {
			continue
		}
		if i+1 < len(steps) && steps[i+1].ActionType == entity.ActionWait {
			continue
		}
		out = append(out, entity.NavigationStep{
			ActionType:  entity.ActionWait,
			WaitTime:    entity.DefaultWaitSeconds,
			Description: "Wait for dynamic content to load",
		})
	}
	return out
}

// DetectWorkflowType labels a task for logging.
func DetectWorkflowType(task string) string {
	t := strings.ToLower(task)
	switch {
	case mentionsAny(t, []string{"create", "new", "add"}):
		switch {
		case strings.Contains(t, "project"):
			return "create_project"
		case strings.Contains(t, "repository"), strings.Contains(t, "repo"):
			return "create_repository"
		case strings.Contains(t, "task"), strings.Contains(t, "issue"):
			return "create_task"
		case strings.Contains(t, "database"), strings.Contains(t, "table"):
			return "create_database"
		default:
			return "create_generic"
		}
	case mentionsAny(t, []string{"filter", "search", "find"}):
		return "filter_search"
	case mentionsAny(t, []string{"settings", "preferences", "configure"}):
		return "settings_navigation"
	case mentionsAny(t, []string{"edit", "update", "modify"}):
		return "edit_workflow"
	case mentionsAny(t, []string{"delete", "remove"}):
		return "delete_workflow"
	default:
		return "generic_navigation"
	}
}

func mentionsAny(s string, words []string) bool {
	s = strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
