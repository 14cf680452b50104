package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
)

var _ output.PagePort = (*Page)(nil)

// Element is a scripted DOM element. The zero value is visible and enabled.
type Element struct {
	Selector string
	Tag      string
	Text     string
	Hidden   bool
	Disabled bool
}

// Page is an in-memory tab. Waits never block: an element that is not
// visible right now fails immediately with context.DeadlineExceeded.
type Page struct {
	browser *Browser

	mu       sync.Mutex
	url      string
	site     *Site
	elements map[string][]Element
	closed   bool

	Gotos    []string
	Clicks   []string
	Filled   map[string]string
	Checked  map[string]bool
	Selected map[string]string
	Files    map[string][]string
	Shots    int
}

func newPage(b *Browser) *Page {
	return &Page{
		browser:  b,
		url:      "about:blank",
		site:     &Site{},
		elements: make(map[string][]Element),
		Filled:   make(map[string]string),
		Checked:  make(map[string]bool),
		Selected: make(map[string]string),
		Files:    make(map[string][]string),
	}
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Gotos = append(p.Gotos, url)
	if err := p.browser.GotoErr[url]; err != nil {
		return err
	}
	return p.loadLocked(url)
}

// Navigate switches the page to another scripted site, as a click on a link would.
func (p *Page) Navigate(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.loadLocked(url)
}

func (p *Page) loadLocked(url string) error {
	site, ok := p.browser.Sites[url]
	if !ok {
		return fmt.Errorf("net::ERR_NAME_NOT_RESOLVED at %s", url)
	}
	p.url = url
	p.site = site
	p.elements = make(map[string][]Element, len(site.Elements))
	for sel, els := range site.Elements {
		p.elements[sel] = append([]Element(nil), els...)
	}
	return nil
}

// Remove drops every element registered under selector, e.g. a dismissed dialog.
func (p *Page) Remove(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, selector)
	for key, els := range p.elements {
		kept := els[:0]
		for _, el := range els {
			if el.Selector != selector {
				kept = append(kept, el)
			}
		}
		p.elements[key] = kept
	}
}

// Add registers elements under selector, e.g. a popup that appears late.
func (p *Page) Add(selector string, els ...Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = append(p.elements[selector], els...)
}

// SetText replaces the visible page text, e.g. after a submit.
func (p *Page) SetText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.site = &Site{HTML: p.site.HTML, Text: text, OnClick: p.site.OnClick, Options: p.site.Options}
}

func (p *Page) WaitLoad(ctx context.Context) error { return ctx.Err() }

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.site.HTML, nil
}

func (p *Page) Text(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.site.Text, nil
}

func (p *Page) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Shots++
	return &entity.Screenshot{Data: []byte("jpeg"), Format: "jpeg", Width: 1, Height: 1}, nil
}

func (p *Page) Query(ctx context.Context, selector string) ([]entity.ElementInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	els := p.elements[selector]
	out := make([]entity.ElementInfo, 0, len(els))
	for _, el := range els {
		out = append(out, info(selector, el))
	}
	return out, nil
}

func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.findLocked(selector); ok && !el.Hidden {
		return nil
	}
	return fmt.Errorf("wait for %s: %w", selector, context.DeadlineExceeded)
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	el, ok := p.findLocked(selector)
	if !ok || el.Hidden || el.Disabled {
		p.mu.Unlock()
		return fmt.Errorf("element not clickable: %s", selector)
	}
	p.Clicks = append(p.Clicks, selector)
	hook := p.site.OnClick[selector]
	p.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.actionableLocked(selector); err != nil {
		return err
	}
	p.Filled[selector] = value
	return nil
}

func (p *Page) SetChecked(ctx context.Context, selector string, checked bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.actionableLocked(selector); err != nil {
		return err
	}
	p.Checked[selector] = checked
	return nil
}

func (p *Page) Select(ctx context.Context, selector, value string, by output.SelectBy) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.actionableLocked(selector); err != nil {
		return err
	}
	for _, opt := range p.site.Options[selector] {
		switch {
		case by == output.SelectByValue && opt.Value == value,
			by == output.SelectByLabel && strings.EqualFold(opt.Label, value):
			p.Selected[selector] = opt.Value
			return nil
		}
	}
	if by == output.SelectByRaw {
		p.Selected[selector] = value
		return nil
	}
	return fmt.Errorf("no option %q in %s", value, selector)
}

func (p *Page) SetFiles(ctx context.Context, selector string, paths []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.findLocked(selector); !ok {
		return fmt.Errorf("file input not found: %s", selector)
	}
	p.Files[selector] = paths
	return nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Page) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) ClickCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Clicks)
}

func (p *Page) actionableLocked(selector string) error {
	el, ok := p.findLocked(selector)
	if !ok {
		return fmt.Errorf("element not found: %s", selector)
	}
	if el.Hidden || el.Disabled {
		return fmt.Errorf("element not interactable: %s", selector)
	}
	return nil
}

// findLocked resolves selector either as a query key or as an element's own selector.
func (p *Page) findLocked(selector string) (Element, bool) {
	if els := p.elements[selector]; len(els) > 0 {
		for _, el := range els {
			if !el.Hidden {
				return el, true
			}
		}
		return els[0], true
	}
	for _, els := range p.elements {
		for _, el := range els {
			if el.Selector == selector {
				return el, true
			}
		}
	}
	return Element{}, false
}

func info(query string, el Element) entity.ElementInfo {
	sel := el.Selector
	if sel == "" {
		sel = query
	}
	return entity.ElementInfo{
		Selector: sel,
		Tag:      el.Tag,
		Text:     el.Text,
		Visible:  !el.Hidden,
		Enabled:  !el.Disabled,
	}
}
