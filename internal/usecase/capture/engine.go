// Package capture decides whether the page state after a step deserves a
// screenshot.
package capture

import (
	"fmt"
	"strings"
	"sync"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
)

var baseReward = map[entity.Action]float64{
	entity.ActionNavigate: 1.0,
	entity.ActionType:     0.9,
	entity.ActionClick:    0.6,
	entity.ActionSelect:   0.5,
	entity.ActionScroll:   0.3,
	entity.ActionHover:    0.2,
	entity.ActionWait:     0.1,
}

var milestoneWords = []string{"create", "submit", "confirm", "save", "finish"}

const (
	hashChangedBonus = 0.4
	urlChangedBonus  = 0.5
	newModalBonus    = 0.6
	formBonus        = 0.5
	milestoneBonus   = 0.3

	duplicatePenalty = 0.1
	idleWaitPenalty  = 0.2

	defaultThreshold = 0.5
	eagerThreshold   = 0.4
	waitThreshold    = 0.7

	recentStates = 3
)

// Input is the context of one step as seen after it ran.
type Input struct {
	StepIndex   int
	Action      entity.Action
	Success     bool
	Description string
	Snapshot    entity.PageStateSnapshot
	Force       bool
}

// Engine scores steps against the last captured state. One Engine per run.
type Engine struct {
	mu       sync.Mutex
	lastHash string
	lastURL  string
	recent   []string
}

func NewEngine() *Engine {
	return &Engine{}
}

// ShouldCapture scores in and applies the action's threshold. It does not
// change the engine; call Record once the screenshot is taken.
func (e *Engine) ShouldCapture(in Input) entity.CaptureDecision {
	e.mu.Lock()
	defer e.mu.Unlock()

	score := e.score(in)

	if in.Force {
		return entity.CaptureDecision{Capture: true, Score: score, Reason: "forced"}
	}
	if in.StepIndex == 0 {
		return entity.CaptureDecision{Capture: true, Score: score, Reason: "initial state"}
	}

	threshold := Threshold(in.Action)
	return entity.CaptureDecision{
		Capture: score >= threshold,
		Score:   score,
		Reason:  fmt.Sprintf("score %.2f vs threshold %.2f", score, threshold),
	}
}

// Record remembers snap as the most recent captured state.
func (e *Engine) Record(snap entity.PageStateSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastHash = snap.Hash
	e.lastURL = snap.URL
	e.recent = append(e.recent, strings.ToLower(snap.VisibleText+" "+snap.ModalText()))
	if len(e.recent) > recentStates {
		e.recent = e.recent[len(e.recent)-recentStates:]
	}
}

func (e *Engine) score(in Input) float64 {
	snap := in.Snapshot

	score := baseReward[in.Action]
	if !in.Success {
		score /= 2
	}

	hashChanged := e.lastHash == "" || snap.Hash != e.lastHash
	urlChanged := e.lastURL != "" && snap.URL != e.lastURL

	if hashChanged {
		score += hashChangedBonus
	}
	if urlChanged {
		score += urlChangedBonus
	}
	if e.hasNewModal(snap.Modals) {
		score += newModalBonus
	}
	if len(snap.Forms) > 0 {
		score += formBonus
	}
	if mentionsMilestone(in.Description) {
		score += milestoneBonus
	}

	if !hashChanged {
		score *= duplicatePenalty
		if in.Action == entity.ActionWait && !urlChanged {
			score *= idleWaitPenalty
		}
	}

	return clamp(score)
}

// hasNewModal reports a visible modal whose text none of the recent
// captured states already contain.
func (e *Engine) hasNewModal(modals []entity.Modal) bool {
	for _, m := range modals {
		text := strings.ToLower(strings.TrimSpace(m.Text))
		if text == "" {
			continue
		}
		seen := false
		for _, state := range e.recent {
			if strings.Contains(state, text) {
				seen = true
				break
			}
		}
		if !seen {
			return true
		}
	}
	return false
}

// Threshold is the minimum score at which action is captured.
func Threshold(action entity.Action) float64 {
	switch action {
	case entity.ActionType, entity.ActionNavigate:
		return eagerThreshold
	case entity.ActionWait:
		return waitThreshold
	default:
		return defaultThreshold
	}
}

func mentionsMilestone(description string) bool {
	d := strings.ToLower(description)
	for _, w := range milestoneWords {
		if strings.Contains(d, w) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
