// Package memory is a process-local TaskStore for tests and one-shot runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
)

var _ output.TaskStore = (*Store)(nil)

type Store struct {
	mu        sync.RWMutex
	workflows map[string]entity.Workflow
	tasks     map[string]entity.Task
	order     []string
	logs      map[string][]entity.LogEntry
}

func New() *Store {
	return &Store{
		workflows: make(map[string]entity.Workflow),
		tasks:     make(map[string]entity.Task),
		logs:      make(map[string][]entity.LogEntry),
	}
}

func (s *Store) SaveWorkflow(ctx context.Context, wf *entity.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.ID] = *wf
	return nil
}

func (s *Store) GetWorkflow(ctx context.Context, id string) (*entity.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[id]
	if !ok {
		return nil, fmt.Errorf("workflow %s: %w", id, output.ErrNotFound)
	}
	return &wf, nil
}

func (s *Store) CreateTask(ctx context.Context, task *entity.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}
	s.tasks[task.ID] = clone(task)
	s.order = append(s.order, task.ID)
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, task *entity.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; !exists {
		return fmt.Errorf("task %s: %w", task.ID, output.ErrNotFound)
	}
	s.tasks[task.ID] = clone(task)
	return nil
}

func (s *Store) NextPendingTask(ctx context.Context, workflowID string) (*entity.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *entity.Task
	for _, id := range s.order {
		t := s.tasks[id]
		if t.WorkflowID != workflowID || t.Status != entity.TaskStatusPending {
			continue
		}
		if best == nil || t.Priority > best.Priority || (t.Priority == best.Priority && t.CreatedAt.Before(best.CreatedAt)) {
			c := clone(&t)
			best = &c
		}
	}
	return best, nil
}

func (s *Store) ListTasks(ctx context.Context, workflowID string) ([]*entity.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entity.Task
	for _, id := range s.order {
		t := s.tasks[id]
		if t.WorkflowID != workflowID {
			continue
		}
		c := clone(&t)
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) AppendLog(ctx context.Context, entry entity.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[entry.WorkflowID] = append(s.logs[entry.WorkflowID], entry)
	return nil
}

// ListLogs returns the newest limit entries in chronological order. A
// non-positive limit returns everything.
func (s *Store) ListLogs(ctx context.Context, workflowID string, limit int) ([]entity.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logs := s.logs[workflowID]
	if limit > 0 && len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	return append([]entity.LogEntry(nil), logs...), nil
}

func (s *Store) Close() error { return nil }

func clone(t *entity.Task) entity.Task {
	c := *t
	c.Payload = append([]byte(nil), t.Payload...)
	if t.Result != nil {
		r := *t.Result
		c.Result = &r
	}
	return c
}
