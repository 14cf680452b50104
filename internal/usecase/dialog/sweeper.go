// Package dialog dismisses cookie banners, permission prompts, modals and
// newsletter popups that sit between an agent and the page it wants.
// Everything here is best effort: failures are logged and swallowed.
package dialog

import (
	"context"
	"strings"
	"time"

	"apply-agent/internal/application/port/output"
)

type Config struct {
	// Settle is the pause after a successful dismissal so close animations finish.
	Settle       time.Duration
	PollInterval time.Duration
	Catalogue    []Category
}

func DefaultConfig() Config {
	return Config{
		Settle:       300 * time.Millisecond,
		PollInterval: 250 * time.Millisecond,
		Catalogue:    DefaultCatalogue,
	}
}

// SweepResult is an audit record of what a sweep clicked.
type SweepResult struct {
	Dismissed  int
	Categories []string
}

func (r *SweepResult) merge(other SweepResult) {
	r.Dismissed += other.Dismissed
	r.Categories = append(r.Categories, other.Categories...)
}

// Sweeper is stateless apart from its configuration and safe to share.
type Sweeper struct {
	cfg    Config
	logger output.LoggerPort
}

func NewSweeper(cfg Config, logger output.LoggerPort) *Sweeper {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.Catalogue == nil {
		cfg.Catalogue = DefaultCatalogue
	}
	return &Sweeper{cfg: cfg, logger: logger.Named("dialog")}
}

// Sweep walks the catalogue once. Within each category only the first
// visible match is clicked, then the sweep moves on to the next category.
func (s *Sweeper) Sweep(ctx context.Context, page output.PagePort) SweepResult {
	var res SweepResult
	for _, cat := range s.cfg.Catalogue {
		if ctx.Err() != nil {
			break
		}
		if s.dismiss(ctx, page, cat) {
			res.Dismissed++
			res.Categories = append(res.Categories, cat.Name)
		}
	}
	if res.Dismissed > 0 {
		s.logger.Info("Dialogs dismissed", "count", res.Dismissed, "categories", res.Categories)
	}
	return res
}

func (s *Sweeper) dismiss(ctx context.Context, page output.PagePort, cat Category) bool {
	for _, loc := range cat.Locators {
		els, err := page.Query(ctx, loc.CSS)
		if err != nil {
			s.logger.Debug("Dialog query failed", "selector", loc.CSS, "error", err)
			continue
		}
		for _, el := range els {
			if !el.Visible {
				continue
			}
			if loc.Text != nil && !loc.Text.MatchString(strings.TrimSpace(el.Text)) {
				continue
			}
			if err := page.Click(ctx, el.Selector); err != nil {
				s.logger.Debug("Dialog click failed", "category", cat.Name, "selector", el.Selector, "error", err)
				continue
			}
			s.pause(ctx, s.cfg.Settle)
			return true
		}
	}
	return false
}

// DetectRemaining lists visible overlay containers. Diagnostic only.
func (s *Sweeper) DetectRemaining(ctx context.Context, page output.PagePort) []string {
	var found []string
	for _, sel := range containerSelectors {
		els, err := page.Query(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if el.Visible {
				found = append(found, el.Selector)
				break
			}
		}
	}
	return found
}

// WaitUntilReady waits for load, sweeps, waits for loading indicators to
// vanish, then sweeps again. It gives up silently once maxWait elapses.
func (s *Sweeper) WaitUntilReady(ctx context.Context, page output.PagePort, maxWait time.Duration) SweepResult {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	if err := page.WaitLoad(ctx); err != nil {
		s.logger.Debug("Page load wait ended early", "error", err)
	}

	res := s.Sweep(ctx, page)

	for ctx.Err() == nil && s.loading(ctx, page) {
		s.pause(ctx, s.cfg.PollInterval)
	}
	if ctx.Err() != nil {
		s.logger.Debug("Readiness wait timed out", "maxWait", maxWait.String())
		return res
	}

	res.merge(s.Sweep(ctx, page))
	return res
}

func (s *Sweeper) loading(ctx context.Context, page output.PagePort) bool {
	for _, sel := range loadingSelectors {
		els, err := page.Query(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if el.Visible {
				return true
			}
		}
	}
	return false
}

func (s *Sweeper) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
