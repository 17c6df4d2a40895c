package htmlclean

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClean_RemovesScriptStyleAndComments(t *testing.T) {
	in := `
<body>
    <!-- comment -->
    <div id="main">Hello</div>
    <script>alert("hi")</script>
    <style>.x {}</style>
</body>`

	out := Clean(in, &DefaultCleanConfig)

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<style")
	assert.NotContains(t, out, "comment")
	assert.Contains(t, out, `id="main"`)
}

func TestClean_KeepsSelectorAttributes(t *testing.T) {
	in := `
<body>
    <button class="btn" data-testid="new-issue" aria-label="New issue" data-track="x" aria-hidden="true" onclick="go()">New</button>
</body>`

	out := Clean(in, &DefaultCleanConfig)

	assert.Contains(t, out, `data-testid="new-issue"`)
	assert.Contains(t, out, `aria-label="New issue"`)
	assert.Contains(t, out, `class="btn"`)
	assert.NotContains(t, out, "data-track")
	assert.NotContains(t, out, "aria-hidden")
	assert.NotContains(t, out, "onclick")
}

func TestClean_RemovesHeadAndMediaAttributes(t *testing.T) {
	in := `<html><head><meta charset="utf-8"><link rel="stylesheet" href="x.css"></head>
<body><img src="x.jpg" srcset="a,b" loading="lazy" style="color:red"><p>Hi</p></body></html>`

	out := Clean(in, nil)

	assert.NotContains(t, out, "<head")
	assert.NotContains(t, out, "<meta")
	assert.NotContains(t, out, "srcset=")
	assert.NotContains(t, out, "style=")
	assert.Contains(t, out, `src="x.jpg"`)
	assert.Contains(t, out, "<p>Hi</p>")
}

func TestClean_Truncation(t *testing.T) {
	var big strings.Builder
	big.WriteString("<body>")
	for i := 0; i < 20000; i++ {
		big.WriteString("<div>test</div>")
	}
	big.WriteString("</body>")

	out := Clean(big.String(), &DefaultCleanConfig)

	assert.LessOrEqual(t, len(out), DefaultCleanConfig.MaxOutputSize+len(truncationNotice))
	assert.Contains(t, out, "HTML truncated")
}

func TestTruncate_RuneBoundary(t *testing.T) {
	out := Truncate("ааааа", 3)

	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "а"))
	assert.Equal(t, "short", Truncate("short", 100))
}
