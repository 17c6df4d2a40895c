package rod

import (
	"regexp"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// SelectorPart is one segment of a ">>" chain.
type SelectorPart struct {
	CSS     string `json:"css,omitempty"`
	XPath   string `json:"xpath,omitempty"`
	Text    string `json:"text,omitempty"`
	Exact   bool   `json:"exact,omitempty"`
	Visible bool   `json:"visible,omitempty"`
}

// Selector is a parsed oracle selector. Oracles emit a mix of CSS, XPath
// and text-matching pseudo classes; rod only understands the first two, so
// text matching is done in page script.
type Selector struct {
	Raw   string
	Parts []SelectorPart
}

var (
	textPseudoRe = regexp.MustCompile(`:(has-text|text-is|text)\(\s*(?:"([^"]*)"|'([^']*)'|([^)]*))\s*\)`)
	visibleRe    = regexp.MustCompile(`:visible\b`)
	quotedRe     = regexp.MustCompile(`["']([^"']+)["']`)
)

func ParseSelector(raw string) Selector {
	s := Selector{Raw: strings.TrimSpace(raw)}
	for _, seg := range strings.Split(s.Raw, ">>") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		s.Parts = append(s.Parts, parsePart(seg))
	}
	return s
}

func parsePart(seg string) SelectorPart {
	switch {
	case strings.HasPrefix(seg, "xpath="):
		return SelectorPart{XPath: strings.TrimPrefix(seg, "xpath=")}
	case strings.HasPrefix(seg, "/"), strings.HasPrefix(seg, "(/"):
		return SelectorPart{XPath: seg}
	case strings.HasPrefix(seg, "text="):
		v := strings.TrimSpace(strings.TrimPrefix(seg, "text="))
		exact := isQuoted(v)
		return SelectorPart{CSS: "*", Text: unquote(v), Exact: exact}
	case strings.HasPrefix(seg, "css="):
		seg = strings.TrimPrefix(seg, "css=")
	}

	var p SelectorPart
	if m := textPseudoRe.FindStringSubmatch(seg); m != nil {
		p.Text = firstNonEmpty(m[2], m[3], strings.TrimSpace(m[4]))
		p.Exact = m[1] == "text-is"
		seg = textPseudoRe.ReplaceAllString(seg, "")
	}
	if visibleRe.MatchString(seg) {
		p.Visible = true
		seg = visibleRe.ReplaceAllString(seg, "")
	}
	p.CSS = strings.TrimSpace(seg)
	if p.CSS == "" {
		p.CSS = "*"
	}
	return p
}

// PlainCSS reports whether rod can query the selector directly.
func (s Selector) PlainCSS() bool {
	return len(s.Parts) == 1 && s.Parts[0].XPath == "" && s.Parts[0].Text == "" && !s.Parts[0].Visible
}

// TextTerm returns the text the selector matches on: a text pseudo class
// first, otherwise the first quoted literal.
func (s Selector) TextTerm() string {
	for _, p := range s.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	if m := quotedRe.FindStringSubmatch(s.Raw); m != nil {
		return m[1]
	}
	return ""
}

// Balanced is a cheap structural sanity check: brackets, parens and quotes pair up.
func (s Selector) Balanced() bool {
	if s.Raw == "" {
		return false
	}
	var square, paren int
	var single, double int
	for _, r := range s.Raw {
		switch r {
		case '[':
			square++
		case ']':
			square--
		case '(':
			paren++
		case ')':
			paren--
		case '\'':
			single++
		case '"':
			double++
		}
		if square < 0 || paren < 0 {
			return false
		}
	}
	return square == 0 && paren == 0 && single%2 == 0 && double%2 == 0
}

// resolve finds the best match without waiting. A nil element with a nil
// error means nothing matched.
func (s Selector) resolve(p *rod.Page) (*rod.Element, error) {
	if len(s.Parts) == 0 {
		return nil, nil
	}
	obj, err := p.Evaluate(rod.Eval(resolveScript, s.Parts).ByObject())
	if err != nil {
		return nil, err
	}
	if obj == nil || obj.ObjectID == "" || obj.Subtype == proto.RuntimeRemoteObjectSubtypeNull {
		return nil, nil
	}
	return p.ElementFromObject(obj)
}

func isQuoted(v string) bool {
	return len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0]
}

func unquote(v string) string {
	if isQuoted(v) {
		return v[1 : len(v)-1]
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
