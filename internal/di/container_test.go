package di

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/browser/rod"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/llm/langchain"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/llm/openrouter"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/logger"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLM_Providers(t *testing.T) {
	log := logger.NewNop()

	llm, err := newLLM(Config{LLMAPIKey: "k", LLMModel: "m"}, log)
	require.NoError(t, err)
	assert.IsType(t, &openrouter.OpenRouterAdapter{}, llm)

	llm, err = newLLM(Config{LLMProvider: "LangChain", LLMAPIKey: "k", LLMModel: "m"}, log)
	require.NoError(t, err)
	assert.IsType(t, &langchain.Adapter{}, llm)

	_, err = newLLM(Config{LLMProvider: "carrier-pigeon"}, log)
	assert.ErrorContains(t, err, "carrier-pigeon")
}

func TestNewContainer(t *testing.T) {
	dir := t.TempDir()

	c, err := NewContainer(Config{
		LLMAPIKey: "k",
		LLMModel:  "m",
		DataDir:   dir,
		LogDir:    dir,
		LogLevel:  "debug",
		TaskName:  "create_project",
	}, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, dir, c.Layout.Root)
	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.workflow(nil))
}

func TestScreenshotConfig(t *testing.T) {
	c := &Container{cfg: Config{ScreenshotFormat: "JPEG", ScreenshotQuality: 70}}
	cfg := c.screenshotConfig()
	assert.Equal(t, proto.PageCaptureScreenshotFormatJpeg, cfg.CaptureFormat)
	assert.Equal(t, 70, cfg.Quality)

	c = &Container{}
	assert.Equal(t, proto.PageCaptureScreenshotFormatPng, c.screenshotConfig().CaptureFormat)
}

func TestNewContainer_BadProvider(t *testing.T) {
	_, err := NewContainer(Config{LLMProvider: "nope", LogDir: t.TempDir()}, nil)
	assert.Error(t, err)
}

func TestContainer_ExecuteLaunchFailureWritesMetadata(t *testing.T) {
	dir := t.TempDir()
	c, err := NewContainer(Config{LLMAPIKey: "k", LLMModel: "m", DataDir: dir, LogDir: dir}, nil)
	require.NoError(t, err)
	defer c.Close()

	launchErr := errors.New("chrome not found")
	c.newBrowser = func(context.Context, rod.BrowserConfig, output.LoggerPort) (*rod.BrowserAdapter, error) {
		return nil, launchErr
	}

	req := entity.TaskRequest{
		TaskQuery: "Create a project",
		AppURL:    "https://app.example.com",
		AppName:   "linear",
		TaskName:  "create_project",
	}
	result, err := c.Execute(context.Background(), req)

	require.ErrorIs(t, err, launchErr)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.RunID)

	data, err := os.ReadFile(c.Layout.WorkflowMetadataPath(req.AppName, req.TaskName))
	require.NoError(t, err)

	var meta entity.WorkflowMetadata
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, result.RunID, meta.RunID)
	assert.Equal(t, "Create a project", meta.TaskQuery)
	assert.False(t, meta.Completed)
	assert.Contains(t, meta.Error, "chrome not found")
	assert.Empty(t, meta.Screenshots)
	require.Len(t, meta.ExecutionLog, 1)
	assert.Equal(t, "browser_launch_failed", meta.ExecutionLog[0].Event)
}
