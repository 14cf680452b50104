package input

import (
	"context"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
)

// Session supplies the per-workflow collaborators.
type Session struct {
	Launcher output.BrowserLauncher
	Store    output.TaskStore
	Profile  *entity.Profile
}

type WorkflowRunner interface {
	StartWorkflow(ctx context.Context, wf *entity.Workflow, session Session) error
	StopWorkflow()
	// ClearStop drops a stop request that no run has consumed yet.
	ClearStop()
	Running() bool
}
