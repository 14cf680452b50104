package memory

import (
	"context"
	"testing"
	"time"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(t *testing.T, wfID string, typ entity.TaskType, created time.Time) *entity.Task {
	t.Helper()
	task, err := entity.NewTask(wfID, typ, "job", "https://example.com/job", nil)
	require.NoError(t, err)
	task.CreatedAt = created
	return task
}

func TestNextPendingTask_PriorityThenAge(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now()

	discoveryOld := newTask(t, "wf", entity.TaskTypeSiteDiscovery, base)
	scoringNew := newTask(t, "wf", entity.TaskTypeFormScoring, base.Add(2*time.Second))
	scoringOld := newTask(t, "wf", entity.TaskTypeFormScoring, base.Add(time.Second))
	other := newTask(t, "other", entity.TaskTypeFillSubmit, base)
	for _, task := range []*entity.Task{discoveryOld, scoringNew, scoringOld, other} {
		require.NoError(t, s.CreateTask(ctx, task))
	}

	next, err := s.NextPendingTask(ctx, "wf")
	require.NoError(t, err)
	assert.Equal(t, scoringOld.ID, next.ID)

	require.NoError(t, next.Assign())
	require.NoError(t, s.UpdateTask(ctx, next))

	next, err = s.NextPendingTask(ctx, "wf")
	require.NoError(t, err)
	assert.Equal(t, scoringNew.ID, next.ID)
}

func TestNextPendingTask_NoneLeft(t *testing.T) {
	next, err := New().NextPendingTask(context.Background(), "wf")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	task := newTask(t, "wf", entity.TaskTypeSiteDiscovery, time.Now())
	require.NoError(t, s.CreateTask(ctx, task))

	task.Status = entity.TaskStatusFailed
	tasks, err := s.ListTasks(ctx, "wf")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, entity.TaskStatusPending, tasks[0].Status, "unsaved changes stay local")
}

func TestWorkflows(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetWorkflow(ctx, "missing")
	assert.ErrorIs(t, err, output.ErrNotFound)

	wf := entity.NewWorkflow("user", "go developer", 2)
	require.NoError(t, s.SaveWorkflow(ctx, wf))

	got, err := s.GetWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, wf.Counters, got.Counters)
}

func TestLogs(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, s.AppendLog(ctx, entity.LogEntry{WorkflowID: "wf", Message: msg, Level: entity.LogLevelInfo}))
	}

	logs, err := s.ListLogs(ctx, "wf", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "two", logs[0].Message)
	assert.Equal(t, "three", logs[1].Message)

	all, err := s.ListLogs(ctx, "wf", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.Error(t, s.UpdateTask(ctx, &entity.Task{ID: "ghost"}))
}
