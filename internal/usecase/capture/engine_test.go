package capture

import (
	"testing"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func snapshot(url, text string, modals ...entity.Modal) entity.PageStateSnapshot {
	return entity.NewSnapshot(url, "App", text, modals, nil)
}

func TestShouldCapture_InitialStateAlwaysCaptured(t *testing.T) {
	e := NewEngine()

	d := e.ShouldCapture(Input{StepIndex: 0, Action: entity.ActionWait, Success: false, Snapshot: snapshot("https://a", "home")})

	assert.True(t, d.Capture)
	assert.Equal(t, "initial state", d.Reason)
}

func TestShouldCapture_ForceOverridesDuplicate(t *testing.T) {
	e := NewEngine()
	snap := snapshot("https://a", "home")
	e.Record(snap)

	d := e.ShouldCapture(Input{StepIndex: 4, Action: entity.ActionWait, Success: true, Snapshot: snap, Force: true})

	assert.True(t, d.Capture)
	assert.Less(t, d.Score, Threshold(entity.ActionWait))
}

func TestShouldCapture_SuppressesDuplicates(t *testing.T) {
	actions := []entity.Action{
		entity.ActionClick, entity.ActionType, entity.ActionNavigate,
		entity.ActionWait, entity.ActionSelect, entity.ActionHover, entity.ActionScroll,
	}
	modal := entity.Modal{Text: "Create issue"}

	for _, action := range actions {
		t.Run(string(action), func(t *testing.T) {
			e := NewEngine()
			snap := snapshot("https://a/issues", "Issues", modal)
			e.Record(snap)

			d := e.ShouldCapture(Input{
				StepIndex:   3,
				Action:      action,
				Success:     true,
				Description: "Save and confirm",
				Snapshot:    snap,
			})

			assert.False(t, d.Capture, d.Reason)
		})
	}
}

func TestShouldCapture_IdleWaitIsNearZero(t *testing.T) {
	e := NewEngine()
	snap := snapshot("https://a", "home")
	e.Record(snap)

	d := e.ShouldCapture(Input{StepIndex: 2, Action: entity.ActionWait, Success: true, Snapshot: snap})

	assert.InDelta(t, 0.1*0.1*0.2, d.Score, 1e-9)
}

func TestShouldCapture_ChangedStateScores(t *testing.T) {
	e := NewEngine()
	e.Record(snapshot("https://a/projects", "Projects"))

	click := e.ShouldCapture(Input{
		StepIndex: 1,
		Action:    entity.ActionClick,
		Success:   true,
		Snapshot:  snapshot("https://a/projects", "Projects New project", entity.Modal{Text: "New project"}),
	})
	assert.True(t, click.Capture)
	assert.Equal(t, 1.0, click.Score)

	failedHover := e.ShouldCapture(Input{
		StepIndex: 1,
		Action:    entity.ActionHover,
		Success:   false,
		Snapshot:  snapshot("https://a/projects", "Projects hovered"),
	})
	assert.InDelta(t, 0.1+0.4, failedHover.Score, 1e-9)
	assert.True(t, failedHover.Capture)

	wait := e.ShouldCapture(Input{
		StepIndex: 1,
		Action:    entity.ActionWait,
		Success:   true,
		Snapshot:  snapshot("https://a/projects", "Projects loading"),
	})
	assert.InDelta(t, 0.5, wait.Score, 1e-9)
	assert.False(t, wait.Capture, "waits need a stronger signal")
}

func TestShouldCapture_ModalAlreadySeenEarnsNoBonus(t *testing.T) {
	e := NewEngine()
	e.Record(snapshot("https://a", "Dashboard Invite teammates"))

	d := e.ShouldCapture(Input{
		StepIndex: 2,
		Action:    entity.ActionScroll,
		Success:   true,
		Snapshot:  snapshot("https://a", "Dashboard", entity.Modal{Text: "Invite teammates"}),
	})

	assert.InDelta(t, 0.3+0.4, d.Score, 1e-9)
}

func TestShouldCapture_URLChangeAndMilestone(t *testing.T) {
	e := NewEngine()
	e.Record(snapshot("https://a/new", "form"))

	d := e.ShouldCapture(Input{
		StepIndex:   5,
		Action:      entity.ActionSelect,
		Success:     false,
		Description: "Select status",
		Snapshot:    snapshot("https://a/list", "list"),
	})

	assert.Equal(t, 1.0, d.Score)
	assert.True(t, d.Capture)
}

func TestRecord_KeepsRecentWindow(t *testing.T) {
	e := NewEngine()
	for _, text := range []string{"one", "two", "three", "four"} {
		e.Record(snapshot("https://a", text))
	}

	assert.Len(t, e.recent, recentStates)
	assert.True(t, e.hasNewModal([]entity.Modal{{Text: "one"}}))
	assert.False(t, e.hasNewModal([]entity.Modal{{Text: "Four"}}))
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 0.4, Threshold(entity.ActionType))
	assert.Equal(t, 0.4, Threshold(entity.ActionNavigate))
	assert.Equal(t, 0.7, Threshold(entity.ActionWait))
	assert.Equal(t, 0.5, Threshold(entity.ActionClick))
}
