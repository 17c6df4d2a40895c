package rod

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"

	"github.com/go-rod/rod"
)

var _ output.ActionExecutorPort = (*Executor)(nil)

var (
	ErrTypeExhausted   = errors.New("all typing strategies failed")
	ErrUnknownAction   = errors.New("unknown action type")
	errElementNotFound = errors.New("element not found")
)

var modalContainers = []string{
	"[role='dialog']", "[aria-modal='true']", ".modal", ".dialog", ".popup",
	"[class*='modal']", "[class*='dialog']", "[class*='popup']", "[class*='overlay']",
}

var formContainers = []string{
	"[role='dialog']", "[aria-modal='true']", "[role='modal']", ".modal",
	"[class*='modal']", "[class*='dialog']", "[class*='form']", "form",
}

var menuContainers = []string{
	"[role='menu']", "[role='listbox']", ".dropdown-menu", "[class*='menu']",
	"[class*='dropdown']", "[class*='popup']", "[aria-expanded='true']",
}

type ExecutorConfig struct {
	StrategyTimeout    time.Duration
	AttachTimeout      time.Duration
	SettleTimeout      time.Duration
	TypeDelay          time.Duration
	WaitPoll           time.Duration
	DOMChangeThreshold int
	ClearBeforeType    bool
}

func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		StrategyTimeout:    3 * time.Second,
		AttachTimeout:      3 * time.Second,
		SettleTimeout:      2 * time.Second,
		TypeDelay:          20 * time.Millisecond,
		WaitPoll:           500 * time.Millisecond,
		DOMChangeThreshold: 1000,
		ClearBeforeType:    true,
	}
}

// Executor performs UI actions against the session page. It keeps a
// per-selector failure count for its own session and is not safe for
// concurrent use, matching the one-action-at-a-time page model.
type Executor struct {
	session  *BrowserAdapter
	cfg      ExecutorConfig
	log      output.LoggerPort
	failures map[string]int
}

func NewExecutor(session *BrowserAdapter, cfg ExecutorConfig, log output.LoggerPort) *Executor {
	return &Executor{
		session:  session,
		cfg:      cfg,
		log:      log,
		failures: make(map[string]int),
	}
}

func (e *Executor) Execute(ctx context.Context, step entity.NavigationStep) (bool, error) {
	log := e.log.WithFields(map[string]any{"action": step.ActionType, "selector": step.Selector})
	log.Debug("Executing action", "description", step.Description)

	switch step.ActionType {
	case entity.ActionClick:
		return e.Click(ctx, step.Selector), nil
	case entity.ActionType:
		if err := e.Type(ctx, step.Selector, step.Text); err != nil {
			return false, err
		}
		return true, nil
	case entity.ActionWait:
		wait := step.WaitTime
		if wait <= 0 {
			wait = entity.DefaultWaitSeconds
		}
		e.Wait(ctx, time.Duration(wait)*time.Second)
		return true, nil
	case entity.ActionSelect:
		option := step.Options
		if option == "" {
			option = step.Text
		}
		return e.Select(ctx, step.Selector, option), nil
	case entity.ActionHover:
		return e.Hover(ctx, step.Selector), nil
	case entity.ActionScroll:
		return e.Scroll(ctx, step.Selector), nil
	case entity.ActionNavigate:
		target := step.URL
		if target == "" {
			target = step.Selector
		}
		if err := e.Navigate(ctx, target); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownAction, step.ActionType)
	}
}

// Failures returns how many times clicks on selector exhausted every strategy.
func (e *Executor) Failures(selector string) int {
	return e.failures[selector]
}

func (e *Executor) Navigate(ctx context.Context, url string) error {
	return e.session.Navigate(ctx, url)
}

// Wait polls instead of sleeping: it returns early once a new modal shows
// up or the document size moves by more than DOMChangeThreshold.
func (e *Executor) Wait(ctx context.Context, d time.Duration) {
	p := e.session.page.Context(ctx)
	baseModals := len(e.modals(p))
	baseLen := e.htmlLength(p)

	deadline := time.Now().Add(d)
	ticker := time.NewTicker(e.cfg.WaitPoll)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n := len(e.modals(p)); n > baseModals {
			e.log.Debug("Wait ended early, modal appeared", "modals", n)
			return
		}
		if l := e.htmlLength(p); abs(l-baseLen) > e.cfg.DOMChangeThreshold {
			e.log.Debug("Wait ended early, DOM changed", "delta", l-baseLen)
			return
		}
	}
}

func (e *Executor) Select(ctx context.Context, selector, option string) bool {
	sel := ParseSelector(selector)
	err := e.withTimeout(ctx, e.cfg.StrategyTimeout, func(p *rod.Page) error {
		el, err := e.find(p, sel)
		if err != nil {
			return err
		}
		if err := el.Select([]string{option}, true, rod.SelectorTypeText); err == nil {
			return nil
		}
		res, err := el.Eval(selectByValueScript, option)
		if err != nil {
			return err
		}
		if !res.Value.Bool() {
			return fmt.Errorf("option %q not found", option)
		}
		return nil
	})
	if err != nil {
		e.log.Warn("Select failed", "selector", selector, "option", option, "error", err)
		return false
	}
	return true
}

func (e *Executor) Hover(ctx context.Context, selector string) bool {
	sel := ParseSelector(selector)
	err := e.withTimeout(ctx, e.cfg.StrategyTimeout, func(p *rod.Page) error {
		el, err := e.find(p, sel)
		if err != nil {
			return err
		}
		return el.Hover()
	})
	if err != nil {
		e.log.Warn("Hover failed", "selector", selector, "error", err)
		return false
	}
	return true
}

// Scroll brings selector into view, or scrolls to the page bottom when the
// selector is empty.
func (e *Executor) Scroll(ctx context.Context, selector string) bool {
	if strings.TrimSpace(selector) == "" {
		_, err := e.session.page.Context(ctx).Eval(scrollBottomScript)
		return err == nil
	}

	sel := ParseSelector(selector)
	err := e.withTimeout(ctx, e.cfg.StrategyTimeout, func(p *rod.Page) error {
		el, err := e.find(p, sel)
		if err != nil {
			return err
		}
		if err := el.ScrollIntoView(); err != nil {
			_, jsErr := el.Eval(scrollIntoViewScript)
			return jsErr
		}
		return nil
	})
	if err != nil {
		e.log.Warn("Scroll failed", "selector", selector, "error", err)
		return false
	}
	return true
}

func (e *Executor) withTimeout(ctx context.Context, d time.Duration, fn func(p *rod.Page) error) error {
	p := e.session.page.Context(ctx).Timeout(d)
	defer p.CancelTimeout()
	return fn(p)
}

func (e *Executor) find(p *rod.Page, sel Selector) (*rod.Element, error) {
	el, err := sel.resolve(p)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, fmt.Errorf("%w: %s", errElementNotFound, sel.Raw)
	}
	return el, nil
}

func (e *Executor) settle(ctx context.Context) {
	p := e.session.page.Context(ctx)
	_ = p.WaitIdle(e.cfg.SettleTimeout)
}

func (e *Executor) modals(p *rod.Page) []entity.Modal {
	modals, err := queryModals(p)
	if err != nil {
		return nil
	}
	return modals
}

func (e *Executor) htmlLength(p *rod.Page) int {
	res, err := p.Eval(htmlLengthScript)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
