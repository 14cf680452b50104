package dialog

import (
	"context"
	"testing"
	"time"

	"apply-agent/internal/infrastructure/browser/browsertest"
	"apply-agent/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobURL = "https://jobs.example.com/123"

func newSweeper() *Sweeper {
	cfg := DefaultConfig()
	cfg.Settle = 0
	cfg.PollInterval = time.Millisecond
	return NewSweeper(cfg, logger.NewNop())
}

func openPage(t *testing.T, site *browsertest.Site) *browsertest.Page {
	t.Helper()
	b := browsertest.NewBrowser(map[string]*browsertest.Site{jobURL: site})
	p, err := b.NewPage(context.Background())
	require.NoError(t, err)
	page := p.(*browsertest.Page)
	require.NoError(t, page.Goto(context.Background(), jobURL))
	return page
}

func removeOnClick(selectors ...string) func(p *browsertest.Page) {
	return func(p *browsertest.Page) {
		for _, sel := range selectors {
			p.Remove(sel)
		}
	}
}

func TestSweep_OneClickPerCategory(t *testing.T) {
	page := openPage(t, &browsertest.Site{
		Elements: map[string][]browsertest.Element{
			"#onetrust-accept-btn-handler":           {{Text: "Accept all"}},
			"button#accept-cookies":                  {{Text: "Accept"}},
			".newsletter-popup .close":               {{Text: "Close"}},
			"#onetrust-banner-sdk":                   {{}},
			"[class*='newsletter'] [class*='close']": {{Text: "Close"}},
		},
		OnClick: map[string]func(p *browsertest.Page){
			"#onetrust-accept-btn-handler": removeOnClick("#onetrust-accept-btn-handler", "#onetrust-banner-sdk", "button#accept-cookies"),
			".newsletter-popup .close":     removeOnClick(".newsletter-popup .close", "[class*='newsletter'] [class*='close']"),
		},
	})

	res := newSweeper().Sweep(context.Background(), page)

	assert.Equal(t, 2, res.Dismissed)
	assert.Equal(t, []string{"cookie_consent", "newsletter_popup"}, res.Categories)
	assert.Equal(t, []string{"#onetrust-accept-btn-handler", ".newsletter-popup .close"}, page.Clicks)
}

func TestSweep_IdempotentOnCleanPage(t *testing.T) {
	page := openPage(t, &browsertest.Site{
		Elements: map[string][]browsertest.Element{
			"#onetrust-accept-btn-handler": {{Text: "Accept"}},
		},
		OnClick: map[string]func(p *browsertest.Page){
			"#onetrust-accept-btn-handler": removeOnClick("#onetrust-accept-btn-handler"),
		},
	})
	s := newSweeper()

	first := s.Sweep(context.Background(), page)
	require.Equal(t, 1, first.Dismissed)
	clicks := page.ClickCount()

	second := s.Sweep(context.Background(), page)
	third := s.Sweep(context.Background(), page)

	assert.Zero(t, second.Dismissed)
	assert.Zero(t, third.Dismissed)
	assert.Equal(t, clicks, page.ClickCount())
}

func TestSweep_SkipsHiddenAndMatchesText(t *testing.T) {
	page := openPage(t, &browsertest.Site{
		Elements: map[string][]browsertest.Element{
			"#onetrust-accept-btn-handler": {{Text: "Accept", Hidden: true}},
			clickable: {
				{Selector: "#apply", Text: "Apply now"},
				{Selector: "#agree", Text: "I agree"},
			},
		},
	})

	res := newSweeper().Sweep(context.Background(), page)

	assert.Equal(t, []string{"#agree"}, page.Clicks)
	assert.Equal(t, []string{"cookie_consent"}, res.Categories)
}

func TestSweep_CloseGlyph(t *testing.T) {
	page := openPage(t, &browsertest.Site{
		Elements: map[string][]browsertest.Element{
			"button, [role='button'], a, span": {
				{Selector: "#menu", Text: "Menu"},
				{Selector: "#x", Text: "×"},
			},
		},
	})

	res := newSweeper().Sweep(context.Background(), page)

	assert.Equal(t, 1, res.Dismissed)
	assert.Equal(t, []string{"#x"}, page.Clicks)
}

func TestDetectRemaining(t *testing.T) {
	page := openPage(t, &browsertest.Site{
		Elements: map[string][]browsertest.Element{
			"[role='dialog']":       {{Selector: "#signup-dialog"}},
			"#CybotCookiebotDialog": {{Hidden: true}},
		},
	})

	assert.Equal(t, []string{"#signup-dialog"}, newSweeper().DetectRemaining(context.Background(), page))
}

func TestWaitUntilReady_ReturnsOnTimeoutWhileLoading(t *testing.T) {
	page := openPage(t, &browsertest.Site{
		Elements: map[string][]browsertest.Element{
			"[class*='spinner']": {{}},
		},
	})

	start := time.Now()
	res := newSweeper().WaitUntilReady(context.Background(), page, 30*time.Millisecond)

	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, res.Dismissed)
}

func TestWaitUntilReady_SweepsAfterLoading(t *testing.T) {
	page := openPage(t, &browsertest.Site{
		Elements: map[string][]browsertest.Element{
			"#onetrust-accept-btn-handler": {{Text: "Accept"}},
			".modal-close":                 {{Text: "Close"}},
		},
		OnClick: map[string]func(p *browsertest.Page){
			"#onetrust-accept-btn-handler": removeOnClick("#onetrust-accept-btn-handler"),
			".modal-close":                 removeOnClick(".modal-close"),
		},
	})

	res := newSweeper().WaitUntilReady(context.Background(), page, time.Second)

	assert.Equal(t, 2, res.Dismissed)
	assert.ElementsMatch(t, []string{"cookie_consent", "modal_close"}, res.Categories)
}
