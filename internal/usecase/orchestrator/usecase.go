package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"apply-agent/internal/application/port/input"
	"apply-agent/internal/application/port/output"
	"apply-agent/internal/application/service"
	"apply-agent/internal/domain/entity"
)

const DefaultTaskDelay = 2 * time.Second

var (
	ErrAlreadyRunning = errors.New("a workflow is already running")
	ErrNoAgent        = errors.New("no agent for task type")
)

var _ input.WorkflowRunner = (*UseCase)(nil)

type Config struct {
	// TaskDelay is the pause between two tasks.
	TaskDelay time.Duration
}

func DefaultConfig() Config {
	return Config{TaskDelay: DefaultTaskDelay}
}

// UseCase drives one workflow at a time through discovery, scoring and
// fill tasks, in priority order, on a single goroutine.
type UseCase struct {
	registry *service.AgentRegistry
	logger   output.LoggerPort
	cfg      Config

	mu      sync.Mutex
	running bool
	stop    atomic.Bool
}

func New(registry *service.AgentRegistry, logger output.LoggerPort, cfg Config) *UseCase {
	if cfg.TaskDelay < 0 {
		cfg.TaskDelay = 0
	}
	return &UseCase{
		registry: registry,
		logger:   logger.Named("orchestrator"),
		cfg:      cfg,
	}
}

func (uc *UseCase) Running() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.running
}

// StopWorkflow asks the running loop to exit before its next task.
func (uc *UseCase) StopWorkflow() {
	uc.stop.Store(true)
	uc.logger.Info("Stop requested")
}

func (uc *UseCase) ClearStop() {
	uc.stop.Store(false)
}

// StartWorkflow blocks until the workflow has no pending task left, is
// stopped, or ctx is cancelled. A stop requested before the call is
// honoured at the first loop boundary.
func (uc *UseCase) StartWorkflow(ctx context.Context, wf *entity.Workflow, session input.Session) error {
	uc.mu.Lock()
	if uc.running {
		uc.mu.Unlock()
		return ErrAlreadyRunning
	}
	uc.running = true
	uc.mu.Unlock()

	defer func() {
		uc.mu.Lock()
		uc.running = false
		uc.stop.Store(false)
		uc.mu.Unlock()
	}()

	r := &run{
		uc:      uc,
		wf:      wf,
		store:   session.Store,
		profile: session.Profile,
		logger:  uc.logger.WithField("workflow_id", wf.ID),
	}
	return r.execute(ctx, session.Launcher)
}

type run struct {
	uc      *UseCase
	wf      *entity.Workflow
	store   output.TaskStore
	profile *entity.Profile
	browser output.BrowserPort
	logger  output.LoggerPort
}

func (r *run) execute(ctx context.Context, launcher output.BrowserLauncher) (err error) {
	r.logger.Info("Workflow starting", "query", r.wf.SearchQuery, "total_jobs", r.wf.Counters.TotalJobs)

	browser, err := launcher.Launch(ctx)
	if err != nil {
		r.finish(ctx, entity.WorkflowStatusFailed)
		return fmt.Errorf("launch browser: %w", err)
	}
	r.browser = browser
	defer browser.Close()

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Workflow panicked", "panic", fmt.Sprint(p))
			r.finish(ctx, entity.WorkflowStatusFailed)
			err = fmt.Errorf("workflow panicked: %v", p)
		}
	}()

	if err := r.wf.TransitionTo(entity.WorkflowStatusProcessing); err != nil {
		return err
	}
	if err := r.store.SaveWorkflow(ctx, r.wf); err != nil {
		r.finish(ctx, entity.WorkflowStatusFailed)
		return fmt.Errorf("save workflow: %w", err)
	}
	r.trail(ctx, "orchestrator", entity.LogLevelInfo, "workflow started")

	for !r.uc.stop.Load() && ctx.Err() == nil {
		task, err := r.store.NextPendingTask(ctx, r.wf.ID)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			r.finish(ctx, entity.WorkflowStatusFailed)
			return fmt.Errorf("next pending task: %w", err)
		}
		if task == nil {
			break
		}

		if err := r.process(ctx, task); err != nil {
			r.finish(ctx, entity.WorkflowStatusFailed)
			return err
		}
		pause(ctx, r.uc.cfg.TaskDelay)
	}

	if r.uc.stop.Load() || ctx.Err() != nil {
		r.cancelPending(ctx)
		r.finish(ctx, entity.WorkflowStatusCancelled)
		return nil
	}
	r.finish(ctx, entity.WorkflowStatusCompleted)
	return nil
}

// process runs one task and applies the pipeline rules to its result.
// Only store failures are returned.
func (r *run) process(ctx context.Context, task *entity.Task) error {
	log := r.logger.WithFields(map[string]any{"task_id": task.ID, "task_type": task.Type, "retry": task.CurrentRetry})

	if err := task.Assign(); err != nil {
		return err
	}
	if err := task.Start(); err != nil {
		return err
	}
	if err := r.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	agentName := string(task.Type)
	var result entity.AgentResult
	if agent, ok := r.uc.registry.Get(task.Type); ok {
		agentName = agent.Name()
		log.Info("Dispatching task", "agent", agentName, "url", task.JobURL)
		result = agent.Execute(ctx, input.AgentRequest{Task: task, Browser: r.browser, Profile: r.profile})
	} else {
		log.Error("No agent registered")
		result = entity.Failure("no agent for task type", fmt.Errorf("%w: %s", ErrNoAgent, task.Type), false)
	}

	if result.Success {
		return r.succeed(ctx, task, agentName, result, log)
	}
	return r.fail(ctx, task, agentName, result, log)
}

func (r *run) succeed(ctx context.Context, task *entity.Task, agentName string, result entity.AgentResult, log output.LoggerPort) error {
	if err := task.Complete(result); err != nil {
		return err
	}
	if err := r.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	log.Info("Task completed", "message", result.Message)
	r.trail(ctx, agentName, entity.LogLevelInfo, result.Message)

	next, err := followUp(task, result)
	if err != nil {
		log.Warn("Result could not be interpreted", "error", err)
		r.trail(ctx, agentName, entity.LogLevelWarn, "unreadable result: "+err.Error())
		return nil
	}
	if next != nil {
		if err := r.store.CreateTask(ctx, next); err != nil {
			return fmt.Errorf("create %s task: %w", next.Type, err)
		}
		log.Info("Follow-up task queued", "next_type", next.Type, "next_id", next.ID)
	}

	if task.Type == entity.TaskTypeFillSubmit {
		var fill entity.FillResult
		if err := result.DecodeData(&fill); err != nil {
			log.Warn("Fill result unreadable", "error", err)
		}
		return r.recordApplication(ctx, fill.Submitted)
	}
	return nil
}

func (r *run) fail(ctx context.Context, task *entity.Task, agentName string, result entity.AgentResult, log output.LoggerPort) error {
	if result.Retryable && task.CanRetry() {
		if err := task.Requeue(result); err != nil {
			return err
		}
		if err := r.store.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		log.Warn("Task failed, retrying", "error", result.Error, "attempt", task.CurrentRetry, "max", task.MaxRetries)
		r.trail(ctx, agentName, entity.LogLevelWarn, fmt.Sprintf("%s (retry %d/%d): %s", result.Message, task.CurrentRetry, task.MaxRetries, result.Error))
		return nil
	}

	if err := task.Fail(result); err != nil {
		return err
	}
	if err := r.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	log.Warn("Task failed", "error", result.Error, "retryable", result.Retryable)
	r.trail(ctx, agentName, entity.LogLevelError, fmt.Sprintf("%s: %s", result.Message, result.Error))

	if task.Type == entity.TaskTypeFillSubmit {
		return r.recordApplication(ctx, false)
	}
	return nil
}

func (r *run) recordApplication(ctx context.Context, submitted bool) error {
	r.wf.RecordApplication(submitted)
	if err := r.store.SaveWorkflow(ctx, r.wf); err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	return nil
}

func (r *run) cancelPending(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	tasks, err := r.store.ListTasks(ctx, r.wf.ID)
	if err != nil {
		r.logger.Warn("Could not list tasks to cancel", "error", err)
		return
	}
	for _, task := range tasks {
		if task.Status != entity.TaskStatusPending {
			continue
		}
		if err := task.Cancel(); err != nil {
			continue
		}
		if err := r.store.UpdateTask(ctx, task); err != nil {
			r.logger.Warn("Could not cancel task", "task_id", task.ID, "error", err)
		}
	}
}

// finish persists the final status even when ctx is already cancelled.
func (r *run) finish(ctx context.Context, status entity.WorkflowStatus) {
	ctx = context.WithoutCancel(ctx)
	if err := r.wf.TransitionTo(status); err != nil {
		r.logger.Warn("Final transition rejected", "error", err)
	}
	if err := r.store.SaveWorkflow(ctx, r.wf); err != nil {
		r.logger.Error("Could not save final workflow state", "error", err)
	}
	c := r.wf.Counters
	r.logger.Info("Workflow finished", "status", r.wf.Status,
		"processed", c.ProcessedJobs, "successful", c.SuccessfulApplications, "failed", c.FailedApplications)
	r.trail(ctx, "orchestrator", entity.LogLevelInfo, "workflow "+string(r.wf.Status))
}

// trail appends to the workflow's persisted log. Failures are only logged.
func (r *run) trail(ctx context.Context, agent string, level entity.LogLevel, msg string) {
	entry := entity.LogEntry{
		WorkflowID: r.wf.ID,
		AgentType:  agent,
		Message:    msg,
		Level:      level,
		Timestamp:  time.Now().UTC(),
	}
	if err := r.store.AppendLog(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Debug("Log append failed", "error", err)
	}
}

func pause(ctx context.Context, d time.Duration) {
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
