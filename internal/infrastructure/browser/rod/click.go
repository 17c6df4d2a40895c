package rod

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

type clickStrategy struct {
	name string
	run  func(ctx context.Context, sel Selector) error
}

var errNotInViewport = errors.New("element not in viewport after scroll")

var synonyms = map[string][]string{
	"new":     {"create", "add", "make"},
	"create":  {"new", "add", "make"},
	"add":     {"create", "new", "make"},
	"make":    {"create", "new", "add"},
	"submit":  {"save", "confirm", "create"},
	"save":    {"submit", "confirm", "update"},
	"confirm": {"submit", "save"},
}

// Click runs the click cascade and reports whether any strategy landed.
// Exhausting every strategy is logged, never returned as an error.
func (e *Executor) Click(ctx context.Context, selector string) bool {
	sel := ParseSelector(selector)
	strategies := []clickStrategy{
		{"script", e.clickScript},
		{"locator", e.clickLocator},
		{"handle", e.clickHandle},
		{"coordinates", e.clickCoordinates},
		{"alternatives", e.clickAlternatives},
		{"menu_text", e.clickMenuText},
	}

	for _, s := range strategies {
		if ctx.Err() != nil {
			break
		}
		err := s.run(ctx, sel)
		if err == nil {
			delete(e.failures, selector)
			e.log.Debug("Click succeeded", "selector", selector, "strategy", s.name)
			return true
		}
		e.log.Debug("Click strategy failed", "selector", selector, "strategy", s.name, "error", err)
	}

	e.failures[selector]++
	e.log.Warn("All click strategies failed", "selector", selector, "failures", e.failures[selector])
	return false
}

func (e *Executor) clickScript(ctx context.Context, sel Selector) error {
	err := e.withTimeout(ctx, e.cfg.StrategyTimeout, func(p *rod.Page) error {
		el, err := e.find(p, sel)
		if err != nil {
			return err
		}
		res, err := el.Eval(clickScript)
		if err != nil {
			return err
		}
		if !res.Value.Bool() {
			return errNotInViewport
		}
		return nil
	})
	if err == nil {
		e.settle(ctx)
	}
	return err
}

// clickLocator forces a pointer event sequence onto a visible element. The
// events go to the element itself, so overlays covering it do not matter.
func (e *Executor) clickLocator(ctx context.Context, sel Selector) error {
	if !sel.Balanced() {
		return fmt.Errorf("malformed selector %q", sel.Raw)
	}
	err := e.withTimeout(ctx, e.cfg.StrategyTimeout, func(p *rod.Page) error {
		el, err := e.find(p, sel)
		if err != nil {
			return err
		}
		visible, err := el.Visible()
		if err != nil {
			return err
		}
		if !visible {
			return fmt.Errorf("element %q is not visible", sel.Raw)
		}
		_ = el.ScrollIntoView()
		_, err = el.Eval(forcedClickScript)
		return err
	})
	if err == nil {
		e.settle(ctx)
	}
	return err
}

// clickHandle waits for the element to attach, clicks, and returns at once.
func (e *Executor) clickHandle(ctx context.Context, sel Selector) error {
	return e.withTimeout(ctx, e.cfg.AttachTimeout, func(p *rod.Page) error {
		var (
			el  *rod.Element
			err error
		)
		switch {
		case sel.PlainCSS():
			el, err = p.Element(sel.Parts[0].CSS)
		case len(sel.Parts) == 1 && sel.Parts[0].XPath != "":
			el, err = p.ElementX(sel.Parts[0].XPath)
		default:
			el, err = e.find(p, sel)
		}
		if err != nil {
			return err
		}
		_, err = el.Eval(`function () { this.click(); }`)
		return err
	})
}

func (e *Executor) clickCoordinates(ctx context.Context, sel Selector) error {
	err := e.withTimeout(ctx, e.cfg.StrategyTimeout, func(p *rod.Page) error {
		el, err := e.find(p, sel)
		if err != nil {
			return err
		}
		_ = el.ScrollIntoView()
		shape, err := el.Shape()
		if err != nil {
			return err
		}
		box := shape.Box()
		if box == nil || box.Width == 0 || box.Height == 0 {
			return errors.New("element has no box")
		}
		center := proto.Point{X: box.X + box.Width/2, Y: box.Y + box.Height/2}
		if err := p.Mouse.MoveTo(center); err != nil {
			return err
		}
		return p.Mouse.Click(proto.InputMouseButtonLeft, 1)
	})
	if err == nil {
		e.settle(ctx)
	}
	return err
}

// clickAlternatives retries the script strategy with synonym substitutions
// of the selector, only for candidates that exist right now.
func (e *Executor) clickAlternatives(ctx context.Context, sel Selector) error {
	for _, candidate := range AlternativeSelectors(sel.Raw) {
		alt := ParseSelector(candidate)
		if !e.exists(ctx, alt) {
			continue
		}
		if err := e.clickScript(ctx, alt); err == nil {
			e.log.Info("Clicked alternative selector", "original", sel.Raw, "alternative", candidate)
			return nil
		}
	}
	return errors.New("no alternative selector matched")
}

func (e *Executor) clickMenuText(ctx context.Context, sel Selector) error {
	term := sel.TextTerm()
	if term == "" {
		return errors.New("selector has no text to match")
	}
	err := e.withTimeout(ctx, e.cfg.StrategyTimeout, func(p *rod.Page) error {
		obj, err := p.Evaluate(rod.Eval(menuClickScript, term, menuContainers).ByObject())
		if err != nil {
			return err
		}
		if obj == nil || obj.ObjectID == "" {
			return fmt.Errorf("no menu item matching %q", term)
		}
		el, err := p.ElementFromObject(obj)
		if err != nil {
			return err
		}
		_, err = el.Eval(`function () { this.click(); }`)
		return err
	})
	if err == nil {
		e.settle(ctx)
	}
	return err
}

func (e *Executor) exists(ctx context.Context, sel Selector) bool {
	found := false
	_ = e.withTimeout(ctx, e.cfg.StrategyTimeout, func(p *rod.Page) error {
		el, err := sel.resolve(p)
		found = err == nil && el != nil
		return nil
	})
	return found
}

// AlternativeSelectors swaps common action words for their synonyms,
// preserving the case of the first letter.
func AlternativeSelectors(selector string) []string {
	var out []string
	seen := map[string]bool{selector: true}
	lower := strings.ToLower(selector)

	for word, alts := range synonyms {
		re := regexp.MustCompile(`(?i)\b` + word + `\b`)
		if !re.MatchString(lower) {
			continue
		}
		for _, alt := range alts {
			candidate := re.ReplaceAllStringFunc(selector, func(m string) string {
				return matchCase(m, alt)
			})
			if !seen[candidate] {
				seen[candidate] = true
				out = append(out, candidate)
			}
		}
	}
	sort.Strings(out)
	return out
}

func matchCase(src, word string) string {
	if src == "" || word == "" {
		return word
	}
	if strings.ToUpper(src) == src && len(src) > 1 {
		return strings.ToUpper(word)
	}
	if src[0] >= 'A' && src[0] <= 'Z' {
		return strings.ToUpper(word[:1]) + word[1:]
	}
	return word
}
