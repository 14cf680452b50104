package discovery

import (
	"context"
	"fmt"
	"strings"

	"apply-agent/internal/application/port/input"
	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/usecase/agents"
	"apply-agent/internal/usecase/dialog"
)

var _ input.AgentExecutor = (*Agent)(nil)

// applyButtonCatalogue is tried in order when the decision service is
// unavailable or unsure.
var applyButtonCatalogue = []string{
	"#apply-button",
	"#applyButton",
	"a[data-testid*='apply']",
	"button[data-testid*='apply']",
	"[data-qa*='apply']",
	"[data-automation-id*='apply']",
	"a.apply-button",
	"button.apply-button",
	".apply-btn",
	"a[aria-label*='Apply']",
	"button[aria-label*='Apply']",
	"a[href*='/apply']",
}

const (
	clickableSelector = "a, button, [role='button'], input[type='submit']"
	maxApplyTextLen   = 50
)

type Config struct {
	Timeouts agents.Timeouts
}

type Agent struct {
	decision output.DecisionPort
	sweeper  *dialog.Sweeper
	sink     output.ScreenshotSink
	logger   output.LoggerPort
	cfg      Config
}

// New builds the discovery agent. decision and sink may be nil.
func New(decision output.DecisionPort, sweeper *dialog.Sweeper, sink output.ScreenshotSink, logger output.LoggerPort, cfg Config) *Agent {
	if cfg.Timeouts == (agents.Timeouts{}) {
		cfg.Timeouts = agents.DefaultTimeouts()
	}
	return &Agent{
		decision: decision,
		sweeper:  sweeper,
		sink:     sink,
		logger:   logger.Named("discovery"),
		cfg:      cfg,
	}
}

func (a *Agent) TaskType() entity.TaskType {
	return entity.TaskTypeSiteDiscovery
}

func (a *Agent) Name() string {
	return "site-discovery"
}

func (a *Agent) Execute(ctx context.Context, req input.AgentRequest) entity.AgentResult {
	return agents.Guard(a.logger, func() entity.AgentResult {
		return a.execute(ctx, req)
	})
}

func (a *Agent) execute(ctx context.Context, req input.AgentRequest) entity.AgentResult {
	task := req.Task
	log := a.logger.WithFields(map[string]any{"task_id": task.ID, "job_id": task.JobID})
	log.Info("Site discovery executing", "url", task.JobURL)

	page, release, err := agents.OpenPage(ctx, req.Browser, log)
	if err != nil {
		return entity.Failure("could not open page", err, true)
	}
	defer release()

	if err := agents.Goto(ctx, page, task.JobURL, a.cfg.Timeouts.Navigation); err != nil {
		log.Warn("Job page unreachable", "error", err)
		return entity.Failure("job page unreachable", err, true)
	}

	rec := agents.NewRecorder(a.sink, task.ID, log)
	result := entity.DiscoveryResult{Accessible: true, NavigationMethod: entity.NavigationNone}

	swept := a.sweeper.WaitUntilReady(ctx, page, a.cfg.Timeouts.Readiness)
	result.DialogsDismissed += swept.Dismissed
	rec.Capture(ctx, page, "landing")

	if fields, ok := a.findForm(ctx, page, agents.LooksLikeApplicationForm); ok {
		log.Info("Application form found on landing page", "fields", len(fields))
		return a.found(page, &result, fields, rec)
	}

	method, navigated := a.navigate(ctx, page, req.Profile, log)
	if !navigated {
		log.Info("No way to an application form found")
		result.ApplicationFormURL = page.URL()
		result.Screenshots = rec.Refs()
		return entity.Succeeded("no application form found", result)
	}
	result.NavigationMethod = method

	swept = a.sweeper.WaitUntilReady(ctx, page, a.cfg.Timeouts.Readiness)
	result.DialogsDismissed += swept.Dismissed
	rec.Capture(ctx, page, "application_page")

	// Having clicked through an apply control, any form asking for contact
	// details is taken as the application.
	fields, ok := a.findForm(ctx, page, func(fields []entity.FieldDescriptor) bool {
		return agents.LooksLikeApplicationForm(fields) || agents.HasContactField(fields)
	})
	if !ok {
		log.Info("Navigated but no application form detected", "url", page.URL(), "method", method)
		result.ApplicationFormURL = page.URL()
		result.Screenshots = rec.Refs()
		return entity.Succeeded("navigated but no application form found", result)
	}

	log.Info("Application form found", "url", page.URL(), "method", method, "fields", len(fields))
	return a.found(page, &result, fields, rec)
}

func (a *Agent) found(page output.PagePort, result *entity.DiscoveryResult, fields []entity.FieldDescriptor, rec *agents.Recorder) entity.AgentResult {
	result.HasApplicationForm = true
	result.ApplicationFormURL = page.URL()
	result.Fields = fields
	result.Screenshots = rec.Refs()
	return entity.Succeeded("application form found", result)
}

func (a *Agent) findForm(ctx context.Context, page output.PagePort, accept func([]entity.FieldDescriptor) bool) ([]entity.FieldDescriptor, bool) {
	forms, err := agents.PageForms(ctx, page)
	if err != nil {
		a.logger.Debug("Form scan failed", "error", err)
		return nil, false
	}
	for _, form := range forms {
		if accept(form.Fields) {
			return form.Fields, true
		}
	}
	return nil, false
}

// navigate tries AI detection, then the static catalogue, then a text scan.
func (a *Agent) navigate(ctx context.Context, page output.PagePort, profile *entity.Profile, log output.LoggerPort) (entity.NavigationMethod, bool) {
	steps := []struct {
		method entity.NavigationMethod
		try    func(context.Context, output.PagePort) bool
	}{
		{entity.NavigationAI, func(ctx context.Context, p output.PagePort) bool { return a.clickDetected(ctx, p, profile, log) }},
		{entity.NavigationCatalogue, a.clickCatalogue},
		{entity.NavigationTextScan, a.clickApplyText},
	}

	for _, step := range steps {
		if ctx.Err() != nil {
			return entity.NavigationNone, false
		}
		before := observe(ctx, page)
		if !step.try(ctx, page) {
			continue
		}
		if err := page.WaitLoad(ctx); err != nil {
			log.Debug("Load wait after click failed", "error", err)
		}
		if before.changed(observe(ctx, page)) {
			return step.method, true
		}
		log.Debug("Click had no visible effect", "method", step.method)
	}
	return entity.NavigationNone, false
}

func (a *Agent) clickDetected(ctx context.Context, page output.PagePort, profile *entity.Profile, log output.LoggerPort) bool {
	if a.decision == nil {
		return false
	}

	detection, err := a.detect(ctx, page, profile)
	if err != nil {
		log.Warn("Apply detection failed", "error", err)
		return false
	}

	if detection.HasDialog && detection.DialogAction.ShouldClick && detection.DialogAction.Selector != "" {
		if err := page.Click(ctx, detection.DialogAction.Selector); err != nil {
			log.Debug("Dialog click failed", "selector", detection.DialogAction.Selector, "error", err)
		} else {
			log.Info("Dialog dismissed on advice", "reason", detection.DialogAction.Reason)
			if again, err := a.detect(ctx, page, profile); err == nil {
				detection = again
			} else {
				log.Warn("Apply detection retry failed", "error", err)
			}
		}
	}

	action := detection.ApplyAction
	if !action.Trusted() {
		log.Info("Apply detection not confident enough", "confidence", action.Confidence, "reason", action.Reason)
		return false
	}

	candidates := append([]string{action.Selector}, action.AlternativeSelectors...)
	for _, sel := range candidates {
		if strings.TrimSpace(sel) == "" {
			continue
		}
		if err := page.Click(ctx, sel); err != nil {
			log.Debug("Apply click failed", "selector", sel, "error", err)
			continue
		}
		log.Info("Clicked apply control", "selector", sel, "confidence", action.Confidence)
		return true
	}
	return false
}

func (a *Agent) detect(ctx context.Context, page output.PagePort, profile *entity.Profile) (*entity.ApplyDetection, error) {
	req, err := agents.Snapshot(ctx, page, profile, "Find the control that starts the job application.")
	if err != nil {
		return nil, err
	}
	detection, err := a.decision.DetectApply(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("detect apply: %w", err)
	}
	return detection, nil
}

func (a *Agent) clickCatalogue(ctx context.Context, page output.PagePort) bool {
	sel, ok := agents.FirstActionable(ctx, page, applyButtonCatalogue, nil)
	if ok {
		a.logger.Info("Clicked catalogue apply control", "selector", sel)
	}
	return ok
}

func (a *Agent) clickApplyText(ctx context.Context, page output.PagePort) bool {
	sel, ok := agents.FirstActionable(ctx, page, []string{clickableSelector}, func(el entity.ElementInfo) bool {
		text := strings.ToLower(strings.TrimSpace(el.Text))
		return len(text) < maxApplyTextLen && strings.Contains(text, "apply")
	})
	if ok {
		a.logger.Info("Clicked apply text match", "selector", sel)
	}
	return ok
}
