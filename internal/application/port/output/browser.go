package output

import (
	"context"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
)

// BrowserPort is the session-level view of the browser.
type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	WaitStable(ctx context.Context) error
	Headless() bool
	Close() error
}

// ActionExecutorPort runs a single NavigationStep against the live page.
// A false result with a nil error is a soft failure.
type ActionExecutorPort interface {
	Execute(ctx context.Context, step entity.NavigationStep) (bool, error)
}

// PageProberPort answers read-only questions about the live page. Probe
// failures surface as empty results, never as errors, except where an
// error return is declared.
type PageProberPort interface {
	CurrentURL(ctx context.Context) string
	Title(ctx context.Context) string
	VisibleText(ctx context.Context) string
	PageHTML(ctx context.Context) (string, error)
	HTMLLength(ctx context.Context) int
	Structure(ctx context.Context) entity.PageStructure

	DetectModals(ctx context.Context) []entity.Modal
	DetectForms(ctx context.Context) []entity.Form
	Snapshot(ctx context.Context) entity.PageStateSnapshot

	MenuVisible(ctx context.Context) bool
	ElementExists(ctx context.Context, selector string) bool
	ElementDisabled(ctx context.Context, selector string) bool
	FieldValue(ctx context.Context, selector string) (string, bool)

	LoginState(ctx context.Context) entity.AuthStatus
	UserIndicatorsVisible(ctx context.Context) bool
}

type ScreenshotPort interface {
	Capture(ctx context.Context, req entity.ScreenshotRequest) (*entity.ScreenshotRecord, error)
}
