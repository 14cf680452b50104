package output

import (
	"context"

	"apply-agent/internal/domain/entity"
)

// BrowserLauncher starts one browser process; the caller owns Close.
type BrowserLauncher interface {
	Launch(ctx context.Context) (BrowserPort, error)
}

type BrowserPort interface {
	NewPage(ctx context.Context) (PagePort, error)
	Close()
}

// PagePort is one tab. Every blocking call honours ctx deadlines; callers set
// per-operation timeouts with context.WithTimeout.
type PagePort interface {
	Goto(ctx context.Context, url string) error
	WaitLoad(ctx context.Context) error
	URL() string
	HTML(ctx context.Context) (string, error)
	Text(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	// Query returns every element matching a CSS selector. Each returned
	// Selector addresses exactly that element.
	Query(ctx context.Context, selector string) ([]entity.ElementInfo, error)
	WaitVisible(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	SetChecked(ctx context.Context, selector string, checked bool) error
	Select(ctx context.Context, selector, value string, by SelectBy) error
	SetFiles(ctx context.Context, selector string, paths []string) error

	Close() error
}

type SelectBy int

const (
	SelectByValue SelectBy = iota
	SelectByLabel
	SelectByRaw
)
