package discovery

import (
	"context"
	"strings"

	"apply-agent/internal/application/port/output"
)

// observation is a cheap fingerprint used to tell whether a click did anything.
type observation struct {
	url     string
	textLen int
	forms   int
}

func observe(ctx context.Context, page output.PagePort) observation {
	obs := observation{url: page.URL()}
	if text, err := page.Text(ctx); err == nil {
		obs.textLen = len(strings.TrimSpace(text))
	}
	if html, err := page.HTML(ctx); err == nil {
		obs.forms = strings.Count(strings.ToLower(html), "<form")
	}
	return obs
}

// changed is a guess: a new URL, a new form, or more than 5% of the text
// appearing or disappearing.
func (o observation) changed(after observation) bool {
	if after.url != o.url || after.forms > o.forms {
		return true
	}
	diff := after.textLen - o.textLen
	if diff < 0 {
		diff = -diff
	}
	base := max(o.textLen, after.textLen)
	return base > 0 && diff*20 > base
}
