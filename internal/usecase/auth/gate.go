// Package auth checks, once per run, that the session can reach the app
// without a login wall.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
)

var (
	ErrHeadlessLogin    = errors.New("login required but browser is headless")
	ErrLoginTimeout     = errors.New("timed out waiting for login")
	ErrNotAuthenticated = errors.New("authentication verification failed")
)

// Session is the part of the browser the gate drives.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitStable(ctx context.Context) error
	Headless() bool
}

// Prober is the part of the page prober the gate reads.
type Prober interface {
	CurrentURL(ctx context.Context) string
	LoginState(ctx context.Context) entity.AuthStatus
	UserIndicatorsVisible(ctx context.Context) bool
}

// Notifier tells the person at the browser that a manual login is needed.
type Notifier interface {
	NotifyLoginRequired(ctx context.Context, status entity.AuthStatus, maxWait time.Duration)
}

type Config struct {
	MaxWait      time.Duration
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{MaxWait: 300 * time.Second, PollInterval: 3 * time.Second}
}

type Gate struct {
	session  Session
	prober   Prober
	notifier Notifier
	cfg      Config
	log      output.LoggerPort
}

var _ Session = (output.BrowserPort)(nil)
var _ Prober = (output.PageProberPort)(nil)

func NewGate(session Session, prober Prober, cfg Config, log output.LoggerPort) *Gate {
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultConfig().MaxWait
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	return &Gate{session: session, prober: prober, cfg: cfg, log: log}
}

// WithNotifier sets who is told about a login wall in a headed session.
func (g *Gate) WithNotifier(n Notifier) *Gate {
	g.notifier = n
	return g
}

// Ensure opens appURL and returns nil once the app is usable. A login wall
// in a headless session fails immediately; a headed session waits for the
// user to sign in.
func (g *Gate) Ensure(ctx context.Context, appURL string) (entity.AuthStatus, error) {
	status, err := g.Check(ctx, appURL)
	if err != nil {
		return status, err
	}

	if status.RequiresLogin {
		g.log.Info("Authentication required", "url", status.URL, "oauthProviders", status.OAuthProviders)
		if g.session.Headless() {
			return status, ErrHeadlessLogin
		}
		if g.notifier != nil {
			g.notifier.NotifyLoginRequired(ctx, status, g.cfg.MaxWait)
		}
		if err := g.AwaitLogin(ctx); err != nil {
			return status, err
		}
	}

	if !g.Verify(ctx) {
		return status, ErrNotAuthenticated
	}
	return status, nil
}

// Check navigates to appURL and reports the login signals found there.
func (g *Gate) Check(ctx context.Context, appURL string) (entity.AuthStatus, error) {
	if err := g.session.Navigate(ctx, appURL); err != nil {
		return entity.AuthStatus{URL: appURL}, fmt.Errorf("open app: %w", err)
	}

	status := g.prober.LoginState(ctx)
	g.log.Debug("Login state probed",
		"url", status.URL,
		"isLoginPage", status.IsLoginPage,
		"email", status.HasEmailField,
		"password", status.HasPasswordField)
	return status, nil
}

// AwaitLogin polls until the user has signed in, MaxWait elapses or ctx is
// done.
func (g *Gate) AwaitLogin(ctx context.Context) error {
	initial := g.prober.CurrentURL(ctx)
	g.log.Info("Waiting for manual login", "url", initial, "maxWait", g.cfg.MaxWait)

	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()

	deadline := time.NewTimer(g.cfg.MaxWait)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrLoginTimeout
		case <-ticker.C:
		}

		if g.loggedIn(ctx, initial) {
			g.log.Info("Login completed", "url", g.prober.CurrentURL(ctx))
			if err := g.session.WaitStable(ctx); err != nil {
				g.log.Debug("Page did not settle after login", "error", err)
			}
			return nil
		}
	}
}

func (g *Gate) loggedIn(ctx context.Context, initial string) bool {
	current := g.prober.CurrentURL(ctx)
	if current != initial && !g.prober.LoginState(ctx).RequiresLogin {
		return true
	}
	return g.prober.UserIndicatorsVisible(ctx)
}

// Verify reports whether the current page is past any login wall.
func (g *Gate) Verify(ctx context.Context) bool {
	return !g.prober.LoginState(ctx).RequiresLogin
}
