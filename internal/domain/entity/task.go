package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeSiteDiscovery TaskType = "site_discovery"
	TaskTypeFormScoring   TaskType = "form_scoring"
	TaskTypeFillSubmit    TaskType = "fill_submit"
)

// Priority is fixed per type. Fill outranks scoring outranks discovery, so a
// job that reached the fill stage is finished before new jobs are discovered.
func (t TaskType) Priority() int {
	switch t {
	case TaskTypeSiteDiscovery:
		return 1
	case TaskTypeFormScoring:
		return 2
	case TaskTypeFillSubmit:
		return 3
	default:
		return 0
	}
}

func (t TaskType) Valid() bool {
	return t.Priority() > 0
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

const DefaultMaxRetries = 3

var (
	ErrTaskImmutable        = errors.New("task is in a terminal state")
	ErrRetryBudgetExhausted = errors.New("task retry budget exhausted")
)

type Task struct {
	ID           string          `json:"id"`
	WorkflowID   string          `json:"workflow_id"`
	Type         TaskType        `json:"type"`
	JobID        string          `json:"job_id"`
	JobURL       string          `json:"job_url"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Priority     int             `json:"priority"`
	MaxRetries   int             `json:"max_retries"`
	CurrentRetry int             `json:"current_retry"`
	Status       TaskStatus      `json:"status"`
	Result       *AgentResult    `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewTask builds a pending task whose payload is the JSON encoding of payload.
func NewTask(workflowID string, typ TaskType, jobID, jobURL string, payload any) (*Task, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("unknown task type %q", typ)
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", typ, err)
		}
		raw = data
	}

	now := time.Now().UTC()
	return &Task{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		Type:       typ,
		JobID:      jobID,
		JobURL:     jobURL,
		Payload:    raw,
		Priority:   typ.Priority(),
		MaxRetries: DefaultMaxRetries,
		Status:     TaskStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// DecodePayload unmarshals the task payload into v. An empty payload leaves v untouched.
func (t *Task) DecodePayload(v any) error {
	if len(t.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", t.Type, err)
	}
	return nil
}

func (t *Task) Assign() error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("assign task %s: %w: %s", t.ID, ErrInvalidTransition, t.Status)
	}
	t.touch(TaskStatusAssigned)
	return nil
}

func (t *Task) Start() error {
	if t.Status != TaskStatusAssigned {
		return fmt.Errorf("start task %s: %w: %s", t.ID, ErrInvalidTransition, t.Status)
	}
	t.touch(TaskStatusInProgress)
	return nil
}

func (t *Task) Complete(result AgentResult) error {
	if t.Status.Terminal() {
		return ErrTaskImmutable
	}
	t.Result = &result
	t.touch(TaskStatusCompleted)
	return nil
}

func (t *Task) Fail(result AgentResult) error {
	if t.Status.Terminal() {
		return ErrTaskImmutable
	}
	t.Result = &result
	t.touch(TaskStatusFailed)
	return nil
}

func (t *Task) Cancel() error {
	if t.Status.Terminal() {
		return ErrTaskImmutable
	}
	t.touch(TaskStatusCancelled)
	return nil
}

// CanRetry reports whether another attempt fits in the retry budget.
func (t *Task) CanRetry() bool {
	return t.CurrentRetry < t.MaxRetries
}

// Requeue puts a failed attempt back to pending with the retry counter bumped.
func (t *Task) Requeue(result AgentResult) error {
	if t.Status.Terminal() {
		return ErrTaskImmutable
	}
	if !t.CanRetry() {
		return ErrRetryBudgetExhausted
	}
	t.CurrentRetry++
	t.Result = &result
	t.touch(TaskStatusPending)
	return nil
}

func (t *Task) touch(status TaskStatus) {
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
}
