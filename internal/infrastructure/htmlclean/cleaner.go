package htmlclean

import (
	"strings"

	"golang.org/x/net/html"
)

type CleanConfig struct {
	TagsToRemove  []string
	AttrsToRemove []string
	// KeepAttrs survive the data-*/aria-*/on* purge; planners build
	// selectors from them.
	KeepAttrs        []string
	MaxOutputSize    int
	CustomAttrFilter func(attr html.Attribute) bool
}

var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title", "template",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
	},
	KeepAttrs: []string{
		"aria-label", "aria-modal", "aria-expanded", "aria-haspopup", "data-testid", "data-test",
	},
	MaxOutputSize: 130_000,
}

const truncationNotice = "\n<!-- HTML truncated to fit token limit -->"

// Clean strips markup the planner never needs and returns the body subtree.
// Input that cannot be parsed is returned unchanged.
func Clean(rawHTML string, cfg *CleanConfig) string {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return Truncate(rawHTML, cfg.MaxOutputSize)
	}

	body := findBodyNode(doc)
	if body == nil {
		return Truncate(rawHTML, cfg.MaxOutputSize)
	}

	cleanNode(body, cfg)

	return Truncate(renderNode(body), cfg.MaxOutputSize)
}

func findBodyNode(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBodyNode(c); b != nil {
			return b
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg *CleanConfig) {
	if n.Type == html.CommentNode {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}
	if n.Type != html.ElementNode {
		return
	}

	if isOneOf(n.Data, cfg.TagsToRemove...) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	n.Attr = filterAttributes(n.Attr, cfg)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}
}

func filterAttributes(attrs []html.Attribute, cfg *CleanConfig) []html.Attribute {
	var kept []html.Attribute
	for _, attr := range attrs {
		if shouldRemoveAttr(attr, cfg) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

func shouldRemoveAttr(attr html.Attribute, cfg *CleanConfig) bool {
	key := attr.Key
	if isOneOf(key, cfg.KeepAttrs...) {
		return false
	}
	if isOneOf(key, cfg.AttrsToRemove...) {
		return true
	}
	if strings.HasPrefix(key, "data-") || strings.HasPrefix(key, "aria-") || strings.HasPrefix(key, "on") {
		return true
	}
	if cfg.CustomAttrFilter != nil && cfg.CustomAttrFilter(attr) {
		return true
	}
	return false
}

func renderNode(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}

// Truncate cuts s to maxSize bytes on a rune boundary and appends a marker.
func Truncate(s string, maxSize int) string {
	if maxSize <= 0 || len(s) <= maxSize {
		return s
	}
	cut := maxSize
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationNotice
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
