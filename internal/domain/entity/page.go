package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// HashTextPrefix is how many runes of visible text feed the state hash.
const HashTextPrefix = 1000

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

type Modal struct {
	Selector string      `json:"selector"`
	Text     string      `json:"text"`
	Box      BoundingBox `json:"bounding_box"`
}

type FormField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Placeholder string `json:"placeholder"`
}

type Form struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []FormField `json:"fields"`
}

// PageStateSnapshot is a point-in-time view of the live page.
type PageStateSnapshot struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Hash        string    `json:"state_hash"`
	VisibleText string    `json:"-"`
	Modals      []Modal   `json:"modals"`
	Forms       []Form    `json:"forms"`
	CapturedAt  time.Time `json:"timestamp"`
	Label       string    `json:"label,omitempty"`
}

// ModalText joins the text of every modal in the snapshot.
func (s PageStateSnapshot) ModalText() string {
	parts := make([]string, 0, len(s.Modals))
	for _, m := range s.Modals {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "")
}

// StateHash fingerprints a page from its url, the visible text prefix,
// the concatenated modal text and the form count. Equal inputs give equal
// hashes; it is a change detector, not an identity.
func StateHash(url, visibleText, modalText string, formCount int) string {
	text := visibleText
	if r := []rune(text); len(r) > HashTextPrefix {
		text = string(r[:HashTextPrefix])
	}

	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(modalText))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(formCount)))
	return hex.EncodeToString(h.Sum(nil))
}

func NewSnapshot(url, title, visibleText string, modals []Modal, forms []Form) PageStateSnapshot {
	s := PageStateSnapshot{
		URL:         url,
		Title:       title,
		VisibleText: visibleText,
		Modals:      modals,
		Forms:       forms,
		CapturedAt:  time.Now(),
	}
	s.Hash = StateHash(url, visibleText, s.ModalText(), len(forms))
	return s
}

// PageStructure summarizes interactive landmarks of a page.
type PageStructure struct {
	Title     string   `json:"title"`
	Buttons   []string `json:"buttons"`
	Forms     int      `json:"forms"`
	Modals    int      `json:"modals"`
	NavItems  []string `json:"nav_items"`
	Dropdowns int      `json:"dropdowns"`
	Tabs      []string `json:"tabs"`
	Headings  []string `json:"headings"`
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
