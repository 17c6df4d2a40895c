package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateHash_Stable(t *testing.T) {
	a := StateHash("https://app.test/", "Projects\nNew project", "Create issue", 1)
	b := StateHash("https://app.test/", "Projects\nNew project", "Create issue", 1)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestStateHash_SingleCharChangeInPrefix(t *testing.T) {
	text := strings.Repeat("a", HashTextPrefix)
	changed := []rune(text)
	changed[HashTextPrefix-1] = 'b'

	assert.NotEqual(t,
		StateHash("https://app.test/", text, "", 0),
		StateHash("https://app.test/", string(changed), "", 0),
	)
}

func TestStateHash_IgnoresTextBeyondPrefix(t *testing.T) {
	prefix := strings.Repeat("x", HashTextPrefix)

	assert.Equal(t,
		StateHash("u", prefix+"tail one", "", 0),
		StateHash("u", prefix+"tail two", "", 0),
	)
}

func TestStateHash_SensitiveToEachComponent(t *testing.T) {
	base := StateHash("u", "text", "modal", 1)

	assert.NotEqual(t, base, StateHash("v", "text", "modal", 1))
	assert.NotEqual(t, base, StateHash("u", "text", "modal!", 1))
	assert.NotEqual(t, base, StateHash("u", "text", "modal", 2))
}

func TestNewSnapshot_HashesModalText(t *testing.T) {
	modals := []Modal{{Selector: "[role='dialog']", Text: "Create"}, {Selector: ".modal", Text: " issue"}}
	s := NewSnapshot("https://app.test/", "App", "body", modals, nil)

	assert.Equal(t, "Create issue", s.ModalText())
	assert.Equal(t, StateHash("https://app.test/", "body", "Create issue", 0), s.Hash)
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction(" CLICK ")
	assert.True(t, ok)
	assert.Equal(t, ActionClick, a)

	_, ok = ParseAction("drag")
	assert.False(t, ok)
}

func TestAction_Soft(t *testing.T) {
	assert.True(t, ActionClick.Soft())
	assert.True(t, ActionScroll.Soft())
	assert.False(t, ActionType.Soft())
	assert.False(t, ActionNavigate.Soft())
}
