package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type WorkflowStatus string

const (
	WorkflowStatusInitializing WorkflowStatus = "initializing"
	WorkflowStatusProcessing   WorkflowStatus = "processing"
	WorkflowStatusCompleted    WorkflowStatus = "completed"
	WorkflowStatusFailed       WorkflowStatus = "failed"
	WorkflowStatusCancelled    WorkflowStatus = "cancelled"
)

func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusFailed || s == WorkflowStatusCancelled
}

var ErrInvalidTransition = errors.New("invalid status transition")

var workflowTransitions = map[WorkflowStatus][]WorkflowStatus{
	WorkflowStatusInitializing: {WorkflowStatusProcessing, WorkflowStatusFailed, WorkflowStatusCancelled},
	WorkflowStatusProcessing:   {WorkflowStatusCompleted, WorkflowStatusFailed, WorkflowStatusCancelled},
}

type WorkflowCounters struct {
	TotalJobs              int `json:"total_jobs"`
	ProcessedJobs          int `json:"processed_jobs"`
	SuccessfulApplications int `json:"successful_applications"`
	FailedApplications     int `json:"failed_applications"`
}

type Workflow struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	SearchQuery string           `json:"search_query"`
	Status      WorkflowStatus   `json:"status"`
	Counters    WorkflowCounters `json:"counters"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func NewWorkflow(userID, searchQuery string, totalJobs int) *Workflow {
	now := time.Now().UTC()
	return &Workflow{
		ID:          uuid.NewString(),
		UserID:      userID,
		SearchQuery: searchQuery,
		Status:      WorkflowStatusInitializing,
		Counters:    WorkflowCounters{TotalJobs: totalJobs},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TransitionTo moves the workflow forward. Terminal states never change again.
func (w *Workflow) TransitionTo(status WorkflowStatus) error {
	if w.Status == status {
		return nil
	}
	for _, allowed := range workflowTransitions[w.Status] {
		if allowed == status {
			w.Status = status
			w.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("workflow %s: %w: %s -> %s", w.ID, ErrInvalidTransition, w.Status, status)
}

// RecordApplication counts a finished fill attempt. ProcessedJobs is capped at TotalJobs.
func (w *Workflow) RecordApplication(submitted bool) {
	if submitted {
		w.Counters.SuccessfulApplications++
	} else {
		w.Counters.FailedApplications++
	}
	if w.Counters.ProcessedJobs < w.Counters.TotalJobs {
		w.Counters.ProcessedJobs++
	}
	w.UpdatedAt = time.Now().UTC()
}
