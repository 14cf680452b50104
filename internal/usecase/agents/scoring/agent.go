package scoring

import (
	"context"
	"errors"
	"fmt"

	"apply-agent/internal/application/port/input"
	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/usecase/agents"
	"apply-agent/internal/usecase/dialog"
)

var _ input.AgentExecutor = (*Agent)(nil)

var ErrNotApplicationForm = errors.New("page is not an application form")

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

// New builds the scoring agent. Without a decision service every form is
// scored by keyword tables.
func New(decision output.DecisionPort, sweeper *dialog.Sweeper, sink output.ScreenshotSink, logger output.LoggerPort, cfg Config) *Agent {
	if cfg.Timeouts == (agents.Timeouts{}) {
		cfg.Timeouts = agents.DefaultTimeouts()
	}
	return &Agent{
		decision: decision,
		sweeper:  sweeper,
		sink:     sink,
		logger:   logger.Named("scoring"),
		cfg:      cfg,
	}
}

func (a *Agent) TaskType() entity.TaskType {
	return entity.TaskTypeFormScoring
}

func (a *Agent) Name() string {
	return "form-scoring"
}

func (a *Agent) Execute(ctx context.Context, req input.AgentRequest) entity.AgentResult {
	return agents.Guard(a.logger, func() entity.AgentResult {
		return a.execute(ctx, req)
	})
}

func (a *Agent) execute(ctx context.Context, req input.AgentRequest) entity.AgentResult {
	task := req.Task
	log := a.logger.WithFields(map[string]any{"task_id": task.ID, "job_id": task.JobID})

	var payload entity.ScoringPayload
	if err := task.DecodePayload(&payload); err != nil {
		return entity.Failure("invalid scoring payload", err, false)
	}
	formURL := payload.FormURL
	if formURL == "" {
		formURL = task.JobURL
	}
	log.Info("Form scoring executing", "url", formURL, "known_fields", len(payload.Fields))

	page, release, err := agents.OpenPage(ctx, req.Browser, log)
	if err != nil {
		return entity.Failure("could not open page", err, true)
	}
	defer release()

	if err := agents.Goto(ctx, page, formURL, a.cfg.Timeouts.Navigation); err != nil {
		return entity.Failure("form page unreachable", err, true)
	}
	a.sweeper.WaitUntilReady(ctx, page, a.cfg.Timeouts.Readiness)

	rec := agents.NewRecorder(a.sink, task.ID, log)
	rec.Capture(ctx, page, "form")

	if a.decision != nil {
		analysis, err := a.analyze(ctx, page, req.Profile, log)
		if err == nil {
			if !analysis.IsApplicationForm {
				log.Info("Decision service rejected the form", "confidence", analysis.Confidence)
				return entity.Failure("not an application form", ErrNotApplicationForm, false)
			}
			if len(analysis.Fields) == 0 {
				log.Info("Decision service mapped no fields", "confidence", analysis.Confidence)
				return entity.Failure("no form fields found", fmt.Errorf("%w: no fields mapped", ErrNotApplicationForm), false)
			}
			result := Score(analysis)
			log.Info("Form scored", "mode", entity.StrategyModeAI, "confidence", result.Confidence, "can_auto_fill", result.CanAutoFill)
			return entity.Succeeded(result.Reason, result)
		}
		log.Warn("Form analysis failed, using keyword scoring", "error", err)
	}

	fields := payload.Fields
	if len(fields) == 0 {
		forms, err := agents.PageForms(ctx, page)
		if err != nil {
			return entity.Failure("could not read form", err, true)
		}
		fields = agents.LargestForm(forms)
	}
	if len(fields) == 0 {
		return entity.Failure("no form fields found", fmt.Errorf("%w: no fields on page", ErrNotApplicationForm), false)
	}

	result := ScoreLegacy(fields, req.Profile)
	log.Info("Form scored", "mode", entity.StrategyModeLegacy, "confidence", result.Confidence, "can_auto_fill", result.CanAutoFill)
	return entity.Succeeded(result.Reason, result)
}

// analyze asks the decision service once, and once more after a sweep when
// dialogs are still covering the page.
func (a *Agent) analyze(ctx context.Context, page output.PagePort, profile *entity.Profile, log output.LoggerPort) (*entity.FormAnalysis, error) {
	analysis, err := a.requestAnalysis(ctx, page, profile)
	if err != nil {
		return nil, err
	}

	remaining := a.sweeper.DetectRemaining(ctx, page)
	if len(remaining) == 0 {
		return analysis, nil
	}
	log.Info("Dialogs still visible, sweeping and re-analysing", "containers", remaining)
	if a.sweeper.Sweep(ctx, page).Dismissed == 0 {
		return analysis, nil
	}
	again, err := a.requestAnalysis(ctx, page, profile)
	if err != nil {
		log.Warn("Re-analysis failed, keeping first analysis", "error", err)
		return analysis, nil
	}
	return again, nil
}

func (a *Agent) requestAnalysis(ctx context.Context, page output.PagePort, profile *entity.Profile) (*entity.FormAnalysis, error) {
	req, err := agents.Snapshot(ctx, page, profile, "Map every form field to the candidate profile.")
	if err != nil {
		return nil, err
	}
	analysis, err := a.decision.AnalyzeForm(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analyze form: %w", err)
	}
	return analysis, nil
}
