package input

import (
	"context"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
)

// AgentRequest carries everything an agent needs for one task. The browser is
// shared across the workflow; the agent opens and closes its own page on it.
type AgentRequest struct {
	Task    *entity.Task
	Browser output.BrowserPort
	Profile *entity.Profile
}

// AgentExecutor never returns an error: every failure is folded into the result.
type AgentExecutor interface {
	TaskType() entity.TaskType
	Name() string
	Execute(ctx context.Context, req AgentRequest) entity.AgentResult
}
