package htmlclean

import (
	"strings"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

const maxStructureItems = 20

// AnalyzeStructure counts the interactive landmarks of a page. It is used
// for planner context and logging only.
func AnalyzeStructure(rawHTML string) (entity.PageStructure, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return entity.PageStructure{}, err
	}

	s := entity.PageStructure{
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Forms:     doc.Find("form").Length(),
		Modals:    doc.Find(`[role="dialog"], [aria-modal="true"], .modal, [class*="modal"]`).Length(),
		Dropdowns: doc.Find(`select, [role="listbox"], [role="menu"], [aria-haspopup], [class*="dropdown"]`).Length(),
	}

	doc.Find(`button, [role="button"], input[type="submit"]`).Each(func(_ int, sel *goquery.Selection) {
		s.Buttons = appendLabel(s.Buttons, label(sel))
	})
	doc.Find(`nav a, [role="navigation"] a, [role="menuitem"]`).Each(func(_ int, sel *goquery.Selection) {
		s.NavItems = appendLabel(s.NavItems, label(sel))
	})
	doc.Find(`[role="tab"]`).Each(func(_ int, sel *goquery.Selection) {
		s.Tabs = appendLabel(s.Tabs, label(sel))
	})
	doc.Find("h1, h2, h3").Each(func(_ int, sel *goquery.Selection) {
		s.Headings = appendLabel(s.Headings, label(sel))
	})

	return s, nil
}

func label(sel *goquery.Selection) string {
	text := strings.Join(strings.Fields(sel.Text()), " ")
	if text == "" {
		if aria, ok := sel.Attr("aria-label"); ok {
			text = aria
		} else if v, ok := sel.Attr("value"); ok {
			text = v
		}
	}
	if r := []rune(text); len(r) > 60 {
		text = string(r[:60])
	}
	return text
}

func appendLabel(list []string, v string) []string {
	if v == "" || len(list) >= maxStructureItems {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
