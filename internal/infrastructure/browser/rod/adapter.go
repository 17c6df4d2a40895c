package rod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

var ErrInvalidURL = errors.New("invalid url")

const (
	defaultTimeout    = 10 * time.Second
	defaultSlowMotion = 0
)

// BrowserAdapter owns one browser process and its single working page.
type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	cfg      BrowserConfig
	log      output.LoggerPort
	closed   bool
}

type BrowserConfig struct {
	Headless       bool
	SlowMotion     time.Duration
	Timeout        time.Duration
	NoSandbox      bool
	DevTools       bool
	WindowWidth    int
	WindowHeight   int
	StateFile      string
	StableFor      time.Duration
	StableDeadline time.Duration
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:       true,
		SlowMotion:     defaultSlowMotion,
		Timeout:        defaultTimeout,
		NoSandbox:      false,
		DevTools:       false,
		WindowWidth:    1440,
		WindowHeight:   900,
		StableFor:      500 * time.Millisecond,
		StableDeadline: 5 * time.Second,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig, log output.LoggerPort) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	}

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		_ = proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.WindowWidth,
			Height:            cfg.WindowHeight,
			DeviceScaleFactor: 1,
		}.Call(page)
	}

	b := &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
		cfg:      cfg,
		log:      log,
	}
	b.restoreState()

	return b, nil
}

// Page exposes the working page to the executor, prober and screenshotter.
func (b *BrowserAdapter) Page() *rod.Page {
	return b.page
}

func (b *BrowserAdapter) Headless() bool {
	return b.cfg.Headless
}

func (b *BrowserAdapter) IsReady() bool {
	return !b.closed && b.page != nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}

	p := b.page.Context(ctx).Timeout(b.timeout * 3)
	defer p.CancelTimeout()

	if err := p.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load failed: %w", err)
	}

	_ = b.WaitStable(ctx)
	return nil
}

// WaitStable waits until the DOM stops changing for StableFor, giving up
// silently after StableDeadline.
func (b *BrowserAdapter) WaitStable(ctx context.Context) error {
	p := b.page.Context(ctx).Timeout(b.cfg.StableDeadline)
	defer p.CancelTimeout()

	if err := p.WaitStable(b.cfg.StableFor); err != nil {
		b.debug("page did not settle", "error", err)
		return nil
	}
	return nil
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close persists cookies when a state file is configured, then shuts the
// browser down. Safe to call more than once.
func (b *BrowserAdapter) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	b.saveState()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	return err
}

func (b *BrowserAdapter) saveState() {
	if b.cfg.StateFile == "" || b.page == nil {
		return
	}

	res, err := proto.NetworkGetCookies{}.Call(b.page)
	if err != nil {
		b.debug("could not read cookies", "error", err)
		return
	}

	data, err := json.Marshal(res.Cookies)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(b.cfg.StateFile), 0o755); err != nil {
		b.debug("could not create state dir", "error", err)
		return
	}
	if err := os.WriteFile(b.cfg.StateFile, data, 0o600); err != nil {
		b.debug("could not write browser state", "error", err)
	}
}

func (b *BrowserAdapter) restoreState() {
	if b.cfg.StateFile == "" {
		return
	}

	data, err := os.ReadFile(b.cfg.StateFile)
	if err != nil {
		return
	}

	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		b.debug("browser state file is corrupt", "error", err)
		return
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite,
			Priority: c.Priority,
		})
	}
	if len(params) > 0 {
		_ = b.page.SetCookies(params)
	}
}

func (b *BrowserAdapter) debug(msg string, args ...any) {
	if b.log != nil {
		b.log.Debug(msg, args...)
	}
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	case "about":
		if raw == "about:blank" {
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
}
