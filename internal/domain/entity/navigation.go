package entity

import "strings"

// Action is the kind of UI interaction a NavigationStep performs.
type Action string

const (
	ActionClick    Action = "click"
	ActionType     Action = "type"
	ActionWait     Action = "wait"
	ActionSelect   Action = "select"
	ActionHover    Action = "hover"
	ActionScroll   Action = "scroll"
	ActionNavigate Action = "navigate"
)

const DefaultWaitSeconds = 2

// NavigationStep is one UI action proposed by the planner.
type NavigationStep struct {
	ActionType  Action `json:"action_type"`
	Selector    string `json:"selector"`
	Description string `json:"description"`
	Text        string `json:"text,omitempty"`
	WaitTime    int    `json:"wait_time,omitempty"`
	Options     string `json:"options,omitempty"`
	URL         string `json:"url,omitempty"`
}

func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionClick, ActionType, ActionWait, ActionSelect, ActionHover, ActionScroll, ActionNavigate:
		return a, true
	default:
		return a, false
	}
}

// Soft reports whether a failed action of this kind lets the run continue.
func (a Action) Soft() bool {
	return a != ActionType && a != ActionNavigate
}
