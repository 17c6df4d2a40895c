package rod

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/artifacts"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/logger"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Headless)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.False(t, cfg.NoSandbox, "Should be secure by default")
	assert.Empty(t, cfg.StateFile)
}

func TestBrowserAdapter_NavigateAndClose(t *testing.T) {
	adapter, server := newTestSession(t, BasicHTML)

	assert.Equal(t, server.URL+"/", adapter.CurrentURL())
	assert.True(t, adapter.IsReady())

	assert.ErrorIs(t, adapter.Navigate(context.Background(), "ftp://example.com"), ErrInvalidURL)

	require.NoError(t, adapter.Close())
	assert.False(t, adapter.IsReady())
	assert.NoError(t, adapter.Close(), "second close is a no-op")
}

func TestBrowserAdapter_PersistsCookies(t *testing.T) {
	adapter, _ := newTestSession(t, BasicHTML)
	adapter.cfg.StateFile = filepath.Join(t.TempDir(), "state", "cookies.json")

	_, err := adapter.Page().Eval(`() => { document.cookie = 'session=abc; path=/'; }`)
	require.NoError(t, err)
	require.NoError(t, adapter.Close())

	data, err := os.ReadFile(adapter.cfg.StateFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session")
}

func TestScreenshotter_CaptureWithHighlight(t *testing.T) {
	adapter, _ := newTestSession(t, InteractiveHTML)
	layout := artifacts.NewLayout(t.TempDir())
	shooter := NewScreenshotter(adapter, layout, DefaultScreenshotConfig(), logger.NewNop())

	rec, err := shooter.Capture(context.Background(), entity.ScreenshotRequest{
		AppName:   "demo",
		TaskName:  "click button",
		Step:      1,
		Highlight: "#btn",
	})
	require.NoError(t, err)

	assert.True(t, rec.Cropped)
	require.NotNil(t, rec.Clip)
	assert.FileExists(t, rec.Path)
	assert.FileExists(t, rec.MetadataPath)
	assert.Equal(t, layout.ScreenshotPath("demo", "click button", 1), rec.Path)

	rec, err = shooter.Capture(context.Background(), entity.ScreenshotRequest{AppName: "demo", TaskName: "click button", Step: 2})
	require.NoError(t, err)
	assert.False(t, rec.Cropped)
}

func TestScreenshotter_JPEGCaptureSavedAsPNG(t *testing.T) {
	adapter, _ := newTestSession(t, BasicHTML)
	layout := artifacts.NewLayout(t.TempDir())
	cfg := DefaultScreenshotConfig()
	cfg.CaptureFormat = proto.PageCaptureScreenshotFormatJpeg
	cfg.Quality = 60
	shooter := NewScreenshotter(adapter, layout, cfg, logger.NewNop())

	rec, err := shooter.Capture(context.Background(), entity.ScreenshotRequest{AppName: "demo", TaskName: "jpeg", Step: 0})
	require.NoError(t, err)

	data, err := os.ReadFile(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}
