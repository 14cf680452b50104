package filling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"apply-agent/internal/application/port/input"
	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/usecase/agents"
	"apply-agent/internal/usecase/dialog"
)

var _ input.AgentExecutor = (*Agent)(nil)

var (
	ErrNoStrategy    = errors.New("no fill strategy")
	ErrNoSubmit      = errors.New("no submit control found")
	ErrRequiredField = errors.New("required field could not be filled")
)

type Config struct {
	Timeouts agents.Timeouts
}

type Agent struct {
	sweeper    *dialog.Sweeper
	improviser output.ImproviserPort
	sink       output.ScreenshotSink
	logger     output.LoggerPort
	cfg        Config
}

// New builds the fill agent. improviser and sink may be nil.
func New(sweeper *dialog.Sweeper, improviser output.ImproviserPort, sink output.ScreenshotSink, logger output.LoggerPort, cfg Config) *Agent {
	if cfg.Timeouts == (agents.Timeouts{}) {
		cfg.Timeouts = agents.DefaultTimeouts()
	}
	return &Agent{
		sweeper:    sweeper,
		improviser: improviser,
		sink:       sink,
		logger:     logger.Named("filling"),
		cfg:        cfg,
	}
}

func (a *Agent) TaskType() entity.TaskType {
	return entity.TaskTypeFillSubmit
}

func (a *Agent) Name() string {
	return "fill-submit"
}

func (a *Agent) Execute(ctx context.Context, req input.AgentRequest) entity.AgentResult {
	return agents.Guard(a.logger, func() entity.AgentResult {
		return a.execute(ctx, req)
	})
}

func (a *Agent) execute(ctx context.Context, req input.AgentRequest) entity.AgentResult {
	task := req.Task
	log := a.logger.WithFields(map[string]any{"task_id": task.ID, "job_id": task.JobID})

	var payload entity.FillPayload
	if err := task.DecodePayload(&payload); err != nil {
		return entity.Failure("invalid fill payload", err, false)
	}
	formURL := payload.FormURL
	if formURL == "" {
		formURL = task.JobURL
	}
	if payload.Strategy.Empty() && a.improviser == nil {
		return entity.Failure("no fill strategy", ErrNoStrategy, false)
	}
	log.Info("Fill and submit executing", "url", formURL)

	page, release, err := agents.OpenPage(ctx, req.Browser, log)
	if err != nil {
		return entity.Failure("could not open page", err, true)
	}
	defer release()

	if err := agents.Goto(ctx, page, formURL, a.cfg.Timeouts.Navigation); err != nil {
		return entity.Failure("form page unreachable", err, true)
	}
	a.sweeper.WaitUntilReady(ctx, page, a.cfg.Timeouts.Readiness)

	strategy := payload.Strategy
	if strategy.Empty() {
		strategy, err = a.improvise(ctx, page, req.Profile)
		if err != nil {
			log.Warn("Improvised strategy unavailable", "error", err)
			return entity.Failure("no fill strategy", fmt.Errorf("%w: %w", ErrNoStrategy, err), false)
		}
		log.Info("Using improvised strategy", "fields", len(strategy.Fields)+len(strategy.Steps))
	}

	rec := agents.NewRecorder(a.sink, task.ID, log)
	result := entity.FillResult{}
	rec.Capture(ctx, page, "before_fill")

	steps, fillErr := a.fill(ctx, page, strategy, req.Profile, log)
	result.Steps = steps
	rec.Capture(ctx, page, "after_fill")

	if fillErr != nil {
		result.Screenshots = rec.Refs()
		result.FinalURL = page.URL()
		retryable := errors.Is(fillErr, context.DeadlineExceeded)
		log.Warn("Required field failed, not submitting", "error", fillErr, "retryable", retryable)
		return withData(entity.Failure("required field could not be filled", fillErr, retryable), result)
	}

	beforeSubmit := page.URL()
	sel, ok := clickSubmit(ctx, page, strategy.SubmitSelector)
	if !ok {
		result.Screenshots = rec.Refs()
		result.FinalURL = page.URL()
		log.Warn("No submit control found")
		return withData(entity.Failure("no submit control found", ErrNoSubmit, false), result)
	}
	result.Submitted = true
	log.Info("Form submitted", "selector", sel)

	agents.Pause(ctx, a.cfg.Timeouts.Grace)
	if err := page.WaitLoad(ctx); err != nil {
		log.Debug("Load wait after submit failed", "error", err)
	}

	result.Confirmation = ConfirmSubmission(ctx, page, beforeSubmit)
	result.FinalURL = page.URL()
	rec.Capture(ctx, page, "post_submit")
	result.Screenshots = rec.Refs()

	if !result.Confirmation.Likely {
		log.Warn("Submission unconfirmed", "url", result.FinalURL)
		return entity.Succeeded("application submitted, confirmation not detected", result)
	}
	log.Info("Submission confirmed", "reason", result.Confirmation.Reason)
	return entity.Succeeded("application submitted", result)
}

// fill runs every action in order. A failed optional field is recorded and
// skipped; a failed required field stops the run.
func (a *Agent) fill(ctx context.Context, page output.PagePort, strategy *entity.FillStrategy, profile *entity.Profile, log output.LoggerPort) ([]entity.StepOutcome, error) {
	actions := make([]action, 0, len(strategy.Fields)+len(strategy.Steps))
	for _, m := range strategy.Fields {
		actions = append(actions, fromMapping(m))
	}
	for _, s := range strategy.Steps {
		actions = append(actions, fromStep(s))
	}

	outcomes := make([]entity.StepOutcome, 0, len(actions))
	for _, act := range actions {
		outcome := entity.StepOutcome{Selector: act.Selector, Label: act.Label, Required: act.Required}

		err := a.fillOne(ctx, page, act, profile)
		if err == nil {
			outcome.Filled = true
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.Error = err.Error()
		outcomes = append(outcomes, outcome)
		log.Debug("Field not filled", "selector", act.Selector, "type", act.Type, "required", act.Required, "error", err)
		if act.Required {
			return outcomes, fmt.Errorf("%w: %s: %w", ErrRequiredField, act.Selector, err)
		}
	}
	return outcomes, nil
}

func (a *Agent) fillOne(ctx context.Context, page output.PagePort, act action, profile *entity.Profile) error {
	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeouts.Visibility)
	defer cancel()
	if err := page.WaitVisible(waitCtx, act.Selector); err != nil {
		return fmt.Errorf("field not visible: %w", err)
	}
	return dispatch(ctx, page, act, profile)
}

func (a *Agent) improvise(ctx context.Context, page output.PagePort, profile *entity.Profile) (*entity.FillStrategy, error) {
	if a.improviser == nil {
		return nil, ErrNoStrategy
	}
	forms, err := agents.PageForms(ctx, page)
	if err != nil {
		return nil, err
	}
	fields := agents.LargestForm(forms)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no form fields on page")
	}

	strategy, err := a.improviser.Improvise(ctx, fields, profile)
	if err != nil {
		return nil, fmt.Errorf("improvise: %w", err)
	}
	if strategy.Empty() {
		return nil, fmt.Errorf("improviser returned an empty strategy")
	}
	strategy.Mode = entity.StrategyModeImprovised
	strategy.Validated = false
	return strategy, nil
}

func withData(res entity.AgentResult, data any) entity.AgentResult {
	raw, err := json.Marshal(data)
	if err == nil {
		res.Data = raw
	}
	return res
}
