package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvService_Getters(t *testing.T) {
	t.Setenv("UISTATE_TEST_BOOL", "true")
	t.Setenv("UISTATE_TEST_INT", "42")
	t.Setenv("UISTATE_TEST_FLOAT", "0.75")
	t.Setenv("UISTATE_TEST_BAD", "nope")

	e := &EnvService{}

	assert.True(t, e.GetBool("UISTATE_TEST_BOOL", false))
	assert.False(t, e.GetBool("UISTATE_TEST_BAD", false))
	assert.Equal(t, 42, e.GetInt("UISTATE_TEST_INT", 1))
	assert.Equal(t, 1, e.GetInt("UISTATE_TEST_BAD", 1))
	assert.Equal(t, 0.75, e.GetFloat("UISTATE_TEST_FLOAT", 0))
	assert.Equal(t, "fallback", e.GetWithDefault("UISTATE_TEST_MISSING", "fallback"))
}

func TestEnvService_GetDuration(t *testing.T) {
	e := &EnvService{}

	t.Setenv("UISTATE_TEST_DUR", "90s")
	assert.Equal(t, 90*time.Second, e.GetDuration("UISTATE_TEST_DUR", time.Second))

	t.Setenv("UISTATE_TEST_DUR", "3")
	assert.Equal(t, 3*time.Second, e.GetDuration("UISTATE_TEST_DUR", time.Second))

	t.Setenv("UISTATE_TEST_DUR", "soon")
	assert.Equal(t, time.Second, e.GetDuration("UISTATE_TEST_DUR", time.Second))
}
