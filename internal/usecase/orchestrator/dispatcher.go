package orchestrator

import (
	"context"
	"errors"
	"sync"

	"apply-agent/internal/application/port/input"
	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
)

var ErrBusy = errors.New("another workflow is in progress")

// WorkflowRequest is the wire form of a new workflow, shared by the HTTP
// surface and the queue intake.
type WorkflowRequest struct {
	UserID string   `json:"userId"`
	Query  string   `json:"query"`
	URLs   []string `json:"urls"`
}

// Dispatcher seeds workflows and hands them to a single runner. At most one
// workflow is seeded-or-running at a time.
type Dispatcher struct {
	runner  input.WorkflowRunner
	session input.Session
	logger  output.LoggerPort

	slot chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	active bool
}

func NewDispatcher(runner input.WorkflowRunner, session input.Session, logger output.LoggerPort) *Dispatcher {
	return &Dispatcher{
		runner:  runner,
		session: session,
		logger:  logger.Named("dispatcher"),
		slot:    make(chan struct{}, 1),
	}
}

func (d *Dispatcher) Store() output.TaskStore { return d.session.Store }

func (d *Dispatcher) Busy() bool { return len(d.slot) > 0 }

// acquired runs once the slot is held. Stale stop requests are dropped so
// that only stops issued from here on reach the new workflow.
func (d *Dispatcher) acquired() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runner.ClearStop()
	d.active = true
}

func (d *Dispatcher) release() {
	d.mu.Lock()
	d.active = false
	d.mu.Unlock()
	<-d.slot
}

// Submit seeds the workflow and runs it in the background. The returned
// workflow is a snapshot taken before the run starts.
func (d *Dispatcher) Submit(ctx context.Context, req WorkflowRequest) (*entity.Workflow, error) {
	select {
	case d.slot <- struct{}{}:
	default:
		return nil, ErrBusy
	}
	d.acquired()

	wf, err := Seed(ctx, d.session.Store, req.UserID, req.Query, req.URLs)
	if err != nil {
		d.release()
		return nil, err
	}
	snapshot := *wf

	runCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.release()
		if err := d.runner.StartWorkflow(runCtx, wf, d.session); err != nil {
			d.logger.Error("Workflow ended with error", "workflow_id", wf.ID, "error", err)
		}
	}()

	d.logger.Info("Workflow submitted", "workflow_id", wf.ID, "jobs", wf.Counters.TotalJobs)
	return &snapshot, nil
}

// Run seeds the workflow and blocks until it finishes. It waits for a
// running workflow to end first.
func (d *Dispatcher) Run(ctx context.Context, req WorkflowRequest) (*entity.Workflow, error) {
	select {
	case d.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	d.acquired()
	defer d.release()

	wf, err := Seed(ctx, d.session.Store, req.UserID, req.Query, req.URLs)
	if err != nil {
		return nil, err
	}
	return wf, d.runner.StartWorkflow(ctx, wf, d.session)
}

// Stop asks the current workflow to end, including one that is seeded but
// not yet running. It reports false when there is nothing to stop.
func (d *Dispatcher) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return false
	}
	d.runner.StopWorkflow()
	return true
}

// Wait blocks until every submitted workflow has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }
