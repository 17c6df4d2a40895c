package rod

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

var (
	attrTermRe   = regexp.MustCompile(`(?i)\[(placeholder|name|aria-label|data-testid)\s*[*^$~|]?=\s*["']?([^"'\]]+)["']?`)
	fieldWordsRe = regexp.MustCompile(`(?i)\b(goal|description|name|title|text|input|email|url|comment|message|search|summary)\b`)
)

type typeStrategy struct {
	name string
	run  func(ctx context.Context, sel Selector, text string) error
}

// Type fills a field through a cascade of strategies. Unlike Click, running
// out of strategies is an error the workflow treats as fatal.
func (e *Executor) Type(ctx context.Context, selector, text string) error {
	sel := ParseSelector(selector)
	strategies := []typeStrategy{
		{"direct", e.typeDirect},
		{"handle", e.typeHandle},
		{"container", e.typeInContainer},
		{"any_modal", e.typeInAnyModal},
	}

	for _, s := range strategies {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.run(ctx, sel, text); err != nil {
			e.log.Debug("Type strategy failed", "selector", selector, "strategy", s.name, "error", err)
			continue
		}
		e.log.Debug("Type succeeded", "selector", selector, "strategy", s.name)
		e.verifyTyped(ctx, sel, text)
		return nil
	}

	e.log.Warn("All type strategies failed", "selector", selector)
	return fmt.Errorf("%w: %s", ErrTypeExhausted, selector)
}

func (e *Executor) typeDirect(ctx context.Context, sel Selector, text string) error {
	return e.withTimeout(ctx, e.cfg.StrategyTimeout+e.typingBudget(text), func(p *rod.Page) error {
		el, err := e.find(p, sel)
		if err != nil {
			return err
		}
		return e.typeInto(ctx, p, el, text)
	})
}

func (e *Executor) typeHandle(ctx context.Context, sel Selector, text string) error {
	if !sel.PlainCSS() {
		return fmt.Errorf("handle fill needs a css selector, got %q", sel.Raw)
	}
	return e.withTimeout(ctx, e.cfg.AttachTimeout, func(p *rod.Page) error {
		el, err := p.Element(sel.Parts[0].CSS)
		if err != nil {
			return err
		}
		if e.cfg.ClearBeforeType {
			if err := el.SelectAllText(); err == nil {
				_ = el.Input("")
			}
		}
		return el.Input(text)
	})
}

func (e *Executor) typeInContainer(ctx context.Context, sel Selector, text string) error {
	terms := SearchTerms(sel.Raw)
	return e.typeViaScript(ctx, formContainers, terms, text)
}

func (e *Executor) typeInAnyModal(ctx context.Context, _ Selector, text string) error {
	return e.typeViaScript(ctx, modalContainers, nil, text)
}

func (e *Executor) typeViaScript(ctx context.Context, containers, terms []string, text string) error {
	if terms == nil {
		terms = []string{}
	}
	return e.withTimeout(ctx, e.cfg.StrategyTimeout+e.typingBudget(text), func(p *rod.Page) error {
		obj, err := p.Evaluate(rod.Eval(containerInputScript, containers, terms, textInputSelector).ByObject())
		if err != nil {
			return err
		}
		if obj == nil || obj.ObjectID == "" {
			return fmt.Errorf("no input found in %d container patterns", len(containers))
		}
		el, err := p.ElementFromObject(obj)
		if err != nil {
			return err
		}
		return e.typeInto(ctx, p, el, text)
	})
}

// typeInto focuses el, optionally clears it, inserts text one rune at a
// time and fires input/change so framework state picks it up.
func (e *Executor) typeInto(ctx context.Context, p *rod.Page, el *rod.Element, text string) error {
	_ = el.ScrollIntoView()
	if err := el.Focus(); err != nil {
		return err
	}
	if e.cfg.ClearBeforeType {
		if _, err := el.Eval(clearScript); err != nil {
			return err
		}
	}

	for _, r := range text {
		if err := (proto.InputInsertText{Text: string(r)}).Call(p); err != nil {
			return err
		}
		if e.cfg.TypeDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.cfg.TypeDelay):
			}
		}
	}

	_, err := el.Eval(dispatchInputScript)
	return err
}

func (e *Executor) typingBudget(text string) time.Duration {
	return time.Duration(len([]rune(text))) * (e.cfg.TypeDelay + 10*time.Millisecond)
}

func (e *Executor) verifyTyped(ctx context.Context, sel Selector, text string) {
	value, ok := readFieldValue(e.session.page.Context(ctx), sel)
	if !ok {
		e.log.Debug("Could not read back typed value", "selector", sel.Raw)
		return
	}
	if !strings.Contains(strings.ToLower(value), strings.ToLower(text)) {
		e.log.Warn("Typed value mismatch", "selector", sel.Raw, "expected", text, "actual", value)
	}
}

// SearchTerms derives likely field identifiers from a selector: quoted
// placeholder/name/aria-label/data-testid values first, then field words.
func SearchTerms(selector string) []string {
	var terms []string
	seen := map[string]bool{}
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for _, m := range attrTermRe.FindAllStringSubmatch(selector, -1) {
		add(m[2])
	}
	for _, m := range fieldWordsRe.FindAllStringSubmatch(selector, -1) {
		add(m[1])
	}
	return terms
}

func readFieldValue(p *rod.Page, sel Selector) (string, bool) {
	if el, err := sel.resolve(p); err == nil && el != nil {
		if res, err := el.Eval(valueScript); err == nil {
			return res.Value.Str(), true
		}
	}
	res, err := p.Eval(modalFieldValueScript, formContainers)
	if err != nil {
		return "", false
	}
	v := res.Value.Str()
	return v, v != ""
}
