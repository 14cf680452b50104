package output

import (
	"context"
	"errors"

	"apply-agent/internal/domain/entity"
)

var ErrNotFound = errors.New("not found")

type TaskStore interface {
	SaveWorkflow(ctx context.Context, wf *entity.Workflow) error
	GetWorkflow(ctx context.Context, id string) (*entity.Workflow, error)

	CreateTask(ctx context.Context, task *entity.Task) error
	UpdateTask(ctx context.Context, task *entity.Task) error
	// NextPendingTask returns the pending task with the highest priority,
	// oldest first among equals, or nil when none is pending.
	NextPendingTask(ctx context.Context, workflowID string) (*entity.Task, error)
	ListTasks(ctx context.Context, workflowID string) ([]*entity.Task, error)

	AppendLog(ctx context.Context, entry entity.LogEntry) error
	ListLogs(ctx context.Context, workflowID string, limit int) ([]entity.LogEntry, error)

	Close() error
}
