// Package agents holds what the pipeline agents share: timeouts, page
// lifetime, panic recovery, audit screenshots and profile keyword tables.
package agents

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/infrastructure/browser/markup"
)

const (
	NavigationTimeout = 30 * time.Second
	VisibilityTimeout = 8 * time.Second
	SubmitGrace       = 3 * time.Second
	ReadinessTimeout  = 10 * time.Second
)

// Timeouts groups the per-operation limits an agent applies.
type Timeouts struct {
	Navigation time.Duration
	Visibility time.Duration
	Grace      time.Duration
	Readiness  time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation: NavigationTimeout,
		Visibility: VisibilityTimeout,
		Grace:      SubmitGrace,
		Readiness:  ReadinessTimeout,
	}
}

// Guard runs fn and turns a panic into a retryable failure.
func Guard(logger output.LoggerPort, fn func() entity.AgentResult) (res entity.AgentResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Agent panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			res = entity.Failure("agent panicked", fmt.Errorf("panic: %v", r), true)
		}
	}()
	return fn()
}

// OpenPage opens a tab on the shared browser. The returned release func
// must be deferred by the caller.
func OpenPage(ctx context.Context, browser output.BrowserPort, logger output.LoggerPort) (output.PagePort, func(), error) {
	if browser == nil {
		return nil, nil, fmt.Errorf("no browser in request")
	}
	page, err := browser.NewPage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open page: %w", err)
	}
	release := func() {
		if err := page.Close(); err != nil {
			logger.Debug("Page close failed", "error", err)
		}
	}
	return page, release, nil
}

// Goto navigates with the navigation timeout applied.
func Goto(ctx context.Context, page output.PagePort, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := page.Goto(navCtx, url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Recorder captures labelled audit screenshots for one task.
type Recorder struct {
	sink   output.ScreenshotSink
	taskID string
	logger output.LoggerPort
	refs   []string
}

func NewRecorder(sink output.ScreenshotSink, taskID string, logger output.LoggerPort) *Recorder {
	return &Recorder{sink: sink, taskID: taskID, logger: logger}
}

// Capture takes and stores a screenshot. Failures are logged, never returned.
func (r *Recorder) Capture(ctx context.Context, page output.PagePort, label string) {
	if r.sink == nil {
		return
	}
	shot, err := page.Screenshot(ctx)
	if err != nil {
		r.logger.Warn("Screenshot failed", "label", label, "error", err)
		return
	}
	ref, err := r.sink.Save(ctx, r.taskID, label, shot)
	if err != nil {
		r.logger.Warn("Screenshot save failed", "label", label, "error", err)
		return
	}
	r.refs = append(r.refs, ref)
}

func (r *Recorder) Refs() []string {
	return append([]string(nil), r.refs...)
}

// Snapshot assembles what the decision service needs to see about a page.
func Snapshot(ctx context.Context, page output.PagePort, profile *entity.Profile, hint string) (entity.DecisionRequest, error) {
	shot, err := page.Screenshot(ctx)
	if err != nil {
		return entity.DecisionRequest{}, fmt.Errorf("screenshot: %w", err)
	}
	raw, err := page.HTML(ctx)
	if err != nil {
		return entity.DecisionRequest{}, fmt.Errorf("read markup: %w", err)
	}
	return entity.DecisionRequest{
		Screenshot: shot,
		Markup:     markup.CleanHTML(raw, nil),
		URL:        page.URL(),
		Profile:    profile,
		Context:    hint,
	}, nil
}

// PageForms extracts the forms on the current page.
func PageForms(ctx context.Context, page output.PagePort) ([]entity.FormDescriptor, error) {
	raw, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read markup: %w", err)
	}
	return markup.ExtractForms(raw)
}

// LargestForm returns the fields of the form with the most controls.
func LargestForm(forms []entity.FormDescriptor) []entity.FieldDescriptor {
	var best []entity.FieldDescriptor
	for _, f := range forms {
		if len(f.Fields) > len(best) {
			best = f.Fields
		}
	}
	return best
}

// FirstActionable clicks the first visible and enabled element matched by
// any selector, in order. It returns the clicked selector.
func FirstActionable(ctx context.Context, page output.PagePort, selectors []string, accept func(entity.ElementInfo) bool) (string, bool) {
	for _, sel := range selectors {
		els, err := page.Query(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if !el.Actionable() {
				continue
			}
			if accept != nil && !accept(el) {
				continue
			}
			if err := page.Click(ctx, el.Selector); err != nil {
				continue
			}
			return el.Selector, true
		}
	}
	return "", false
}

// Pause waits for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) {
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
