// Package browsertest provides scripted in-memory browsers for tests.
package browsertest

import (
	"context"
	"errors"
	"sync"

	"apply-agent/internal/application/port/output"
)

var (
	_ output.BrowserLauncher = (*Launcher)(nil)
	_ output.BrowserPort     = (*Browser)(nil)
)

// Site is the scripted state a page shows after navigating to a URL.
type Site struct {
	HTML     string
	Text     string
	Elements map[string][]Element
	// OnClick runs after an element with the given selector is clicked.
	OnClick map[string]func(p *Page)
	// Options lists <option> value/label pairs per select selector.
	Options map[string][]Option
}

type Option struct {
	Value string
	Label string
}

type Launcher struct {
	Browser   *Browser
	LaunchErr error

	mu       sync.Mutex
	launched int
}

func NewLauncher(b *Browser) *Launcher {
	return &Launcher{Browser: b}
}

func (l *Launcher) Launch(ctx context.Context) (output.BrowserPort, error) {
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	l.mu.Lock()
	l.launched++
	l.mu.Unlock()
	return l.Browser, nil
}

func (l *Launcher) Launched() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launched
}

type Browser struct {
	Sites      map[string]*Site
	NewPageErr error
	// GotoErr fails navigation to the given URLs.
	GotoErr map[string]error

	mu     sync.Mutex
	pages  []*Page
	closed bool
}

func NewBrowser(sites map[string]*Site) *Browser {
	if sites == nil {
		sites = make(map[string]*Site)
	}
	return &Browser{Sites: sites, GotoErr: make(map[string]error)}
}

func (b *Browser) NewPage(ctx context.Context) (output.PagePort, error) {
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("browser closed")
	}
	p := newPage(b)
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Browser) Pages() []*Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Page(nil), b.pages...)
}

// OpenPages counts pages that were never closed.
func (b *Browser) OpenPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, p := range b.pages {
		if !p.IsClosed() {
			n++
		}
	}
	return n
}
