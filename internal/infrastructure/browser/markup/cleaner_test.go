package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanHTML_RemovesScriptStyleAndComments(t *testing.T) {
	out := CleanHTML(`
<body>
	<!-- tracking -->
	<div id="main">Hello</div>
	<script>alert("hi")</script>
	<style>.x {}</style>
</body>`, nil)

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<style")
	assert.NotContains(t, out, "tracking")
	assert.Contains(t, out, `id="main"`)
}

func TestCleanHTML_AttributeFilter(t *testing.T) {
	out := CleanHTML(`
<body>
	<a href="https://example.com/apply" class="btn" data-track="1" aria-hidden="true" onclick="go()" style="color:red">Apply</a>
	<button aria-label="Close" data-testid="modal-close">×</button>
</body>`, &DefaultCleanConfig)

	assert.Contains(t, out, `href="https://example.com/apply"`)
	assert.Contains(t, out, `class="btn"`)
	assert.NotContains(t, out, "data-track")
	assert.NotContains(t, out, "aria-hidden")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "style=")

	assert.Contains(t, out, `aria-label="Close"`)
	assert.Contains(t, out, `data-testid="modal-close"`)
}

func TestCleanHTML_RemovesHead(t *testing.T) {
	out := CleanHTML(`<html><head><meta charset="utf-8"><title>Jobs</title></head><body><p>Hi</p></body></html>`, nil)

	assert.NotContains(t, out, "<meta")
	assert.NotContains(t, out, "<title")
	assert.Contains(t, out, "<p>Hi</p>")
}

func TestCleanHTML_Truncation(t *testing.T) {
	var big strings.Builder
	big.WriteString("<body>")
	for i := 0; i < 20000; i++ {
		big.WriteString("<div>test</div>")
	}
	big.WriteString("</body>")

	out := CleanHTML(big.String(), &DefaultCleanConfig)

	assert.LessOrEqual(t, len(out), DefaultCleanConfig.MaxOutputSize+50)
	assert.Contains(t, out, "<!-- truncated -->")
}
