package rod

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/logger"

	"github.com/stretchr/testify/require"
)

// newTestSession starts a headless browser pointed at a page serving html.
// Browser tests are skipped with -short.
func newTestSession(t *testing.T, html string) (*BrowserAdapter, *httptest.Server) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, html)
	}))
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.Headless = true
	cfg.NoSandbox = true

	adapter, err := NewBrowserAdapter(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	require.NoError(t, adapter.Navigate(context.Background(), server.URL))
	return adapter, server
}

func testExecutor(adapter *BrowserAdapter) *Executor {
	cfg := DefaultExecutorConfig()
	cfg.StrategyTimeout = time.Second
	cfg.AttachTimeout = 500 * time.Millisecond
	cfg.SettleTimeout = 300 * time.Millisecond
	cfg.TypeDelay = 0
	return NewExecutor(adapter, cfg, logger.NewNop())
}
