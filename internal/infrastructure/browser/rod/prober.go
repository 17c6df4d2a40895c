package rod

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/htmlclean"

	"github.com/go-rod/rod"
)

var _ output.PageProberPort = (*Prober)(nil)

var loginPathPatterns = []string{
	"/login", "/signin", "/sign-in", "/auth", "/signup", "/register",
	"/accounts", "/session", "/sso",
}

var oauthProviders = []string{"google", "github", "microsoft", "apple", "gitlab", "slack", "okta"}

var userIndicatorSelectors = []string{
	"summary[aria-label*='profile' i]", "button[aria-label*='account' i]",
	"[data-testid*='user']", ".user-avatar", ".profile-menu",
	"img[alt*='avatar' i]", "[aria-label*='user menu' i]",
}

// Prober reads page state. It never scrolls, clicks or types.
type Prober struct {
	session *BrowserAdapter
	timeout time.Duration
	clean   *htmlclean.CleanConfig
	log     output.LoggerPort
}

func NewProber(session *BrowserAdapter, log output.LoggerPort) *Prober {
	return &Prober{
		session: session,
		timeout: 5 * time.Second,
		clean:   &htmlclean.DefaultCleanConfig,
		log:     log,
	}
}

func (pr *Prober) page(ctx context.Context) (*rod.Page, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, pr.timeout)
	return pr.session.page.Context(ctx), cancel
}

func (pr *Prober) CurrentURL(ctx context.Context) string {
	p, cancel := pr.page(ctx)
	defer cancel()

	info, err := p.Info()
	if err != nil {
		pr.log.Debug("Probe url failed", "error", err)
		return ""
	}
	return info.URL
}

func (pr *Prober) Title(ctx context.Context) string {
	p, cancel := pr.page(ctx)
	defer cancel()

	info, err := p.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

func (pr *Prober) VisibleText(ctx context.Context) string {
	p, cancel := pr.page(ctx)
	defer cancel()

	res, err := p.Eval(visibleTextScript)
	if err != nil {
		pr.log.Debug("Probe text failed", "error", err)
		return ""
	}
	return res.Value.Str()
}

// HTMLLength is the length of the full document markup, or 0 when the page
// cannot be read.
func (pr *Prober) HTMLLength(ctx context.Context) int {
	p, cancel := pr.page(ctx)
	defer cancel()

	res, err := p.Eval(htmlLengthScript)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// PageHTML returns the cleaned body markup.
func (pr *Prober) PageHTML(ctx context.Context) (string, error) {
	p, cancel := pr.page(ctx)
	defer cancel()

	raw, err := p.HTML()
	if err != nil {
		return "", err
	}
	return htmlclean.Clean(raw, pr.clean), nil
}

func (pr *Prober) Structure(ctx context.Context) entity.PageStructure {
	p, cancel := pr.page(ctx)
	defer cancel()

	raw, err := p.HTML()
	if err != nil {
		return entity.PageStructure{}
	}
	s, err := htmlclean.AnalyzeStructure(raw)
	if err != nil {
		pr.log.Debug("Structure analysis failed", "error", err)
	}
	return s
}

func (pr *Prober) DetectModals(ctx context.Context) []entity.Modal {
	p, cancel := pr.page(ctx)
	defer cancel()

	modals, err := queryModals(p)
	if err != nil {
		pr.log.Debug("Modal detection failed", "error", err)
		return nil
	}
	return modals
}

func (pr *Prober) DetectForms(ctx context.Context) []entity.Form {
	p, cancel := pr.page(ctx)
	defer cancel()

	res, err := p.Eval(formsScript)
	if err != nil {
		pr.log.Debug("Form detection failed", "error", err)
		return nil
	}
	var forms []entity.Form
	if err := json.Unmarshal([]byte(res.Value.String()), &forms); err != nil {
		pr.log.Debug("Form detection returned bad payload", "error", err)
		return nil
	}
	return forms
}

func (pr *Prober) Snapshot(ctx context.Context) entity.PageStateSnapshot {
	return entity.NewSnapshot(
		pr.CurrentURL(ctx),
		pr.Title(ctx),
		pr.VisibleText(ctx),
		pr.DetectModals(ctx),
		pr.DetectForms(ctx),
	)
}

func (pr *Prober) MenuVisible(ctx context.Context) bool {
	p, cancel := pr.page(ctx)
	defer cancel()

	res, err := p.Eval(menuVisibleScript, menuContainers)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

func (pr *Prober) ElementExists(ctx context.Context, selector string) bool {
	p, cancel := pr.page(ctx)
	defer cancel()

	el, err := ParseSelector(selector).resolve(p)
	return err == nil && el != nil
}

func (pr *Prober) ElementDisabled(ctx context.Context, selector string) bool {
	p, cancel := pr.page(ctx)
	defer cancel()

	el, err := ParseSelector(selector).resolve(p)
	if err != nil || el == nil {
		return false
	}
	res, err := el.Eval(disabledScript)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// FieldValue reads the value of selector, falling back to the first filled
// input inside a visible form container.
func (pr *Prober) FieldValue(ctx context.Context, selector string) (string, bool) {
	p, cancel := pr.page(ctx)
	defer cancel()

	return readFieldValue(p, ParseSelector(selector))
}

func (pr *Prober) LoginState(ctx context.Context) entity.AuthStatus {
	status := entity.AuthStatus{URL: pr.CurrentURL(ctx)}
	status.IsLoginPage = IsLoginURL(status.URL)

	p, cancel := pr.page(ctx)
	defer cancel()

	res, err := p.Eval(loginStateScript, oauthProviders)
	if err == nil {
		var signals struct {
			Email     bool     `json:"email"`
			Password  bool     `json:"password"`
			Providers []string `json:"providers"`
		}
		if err := json.Unmarshal([]byte(res.Value.String()), &signals); err == nil {
			status.HasEmailField = signals.Email
			status.HasPasswordField = signals.Password
			status.OAuthProviders = signals.Providers
		}
	} else {
		pr.log.Debug("Login probe failed", "error", err)
	}

	if status.HasPasswordField && status.HasEmailField {
		status.IsLoginPage = true
	}
	status.RequiresLogin = status.IsLoginPage
	return status
}

func (pr *Prober) UserIndicatorsVisible(ctx context.Context) bool {
	p, cancel := pr.page(ctx)
	defer cancel()

	res, err := p.Eval(menuVisibleScript, userIndicatorSelectors)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// IsLoginURL reports whether the path of rawURL looks like an auth page.
func IsLoginURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, pattern := range loginPathPatterns {
		if path == pattern || strings.HasPrefix(path, pattern+"/") || strings.HasSuffix(path, pattern) {
			return true
		}
	}
	return false
}

func queryModals(p *rod.Page) ([]entity.Modal, error) {
	res, err := p.Eval(modalsScript, modalContainers)
	if err != nil {
		return nil, err
	}
	var modals []entity.Modal
	if err := json.Unmarshal([]byte(res.Value.String()), &modals); err != nil {
		return nil, err
	}
	return modals, nil
}
