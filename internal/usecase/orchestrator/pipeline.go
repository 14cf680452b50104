package orchestrator

import (
	"fmt"

	"apply-agent/internal/domain/entity"
)

// followUp returns the next task in the pipeline for a successful result,
// or nil when the job stops here.
func followUp(task *entity.Task, result entity.AgentResult) (*entity.Task, error) {
	switch task.Type {
	case entity.TaskTypeSiteDiscovery:
		var found entity.DiscoveryResult
		if err := result.DecodeData(&found); err != nil {
			return nil, fmt.Errorf("decode discovery result: %w", err)
		}
		if !found.Accessible || !found.HasApplicationForm {
			return nil, nil
		}
		formURL := found.ApplicationFormURL
		if formURL == "" {
			formURL = task.JobURL
		}
		return entity.NewTask(task.WorkflowID, entity.TaskTypeFormScoring, task.JobID, task.JobURL,
			entity.ScoringPayload{FormURL: formURL, Fields: found.Fields})

	case entity.TaskTypeFormScoring:
		var scored entity.ScoringResult
		if err := result.DecodeData(&scored); err != nil {
			return nil, fmt.Errorf("decode scoring result: %w", err)
		}
		if !scored.CanAutoFill || scored.Strategy.Empty() {
			return nil, nil
		}
		var payload entity.ScoringPayload
		if err := task.DecodePayload(&payload); err != nil {
			return nil, err
		}
		formURL := payload.FormURL
		if formURL == "" {
			formURL = task.JobURL
		}
		return entity.NewTask(task.WorkflowID, entity.TaskTypeFillSubmit, task.JobID, task.JobURL,
			entity.FillPayload{FormURL: formURL, Strategy: scored.Strategy})
	}
	return nil, nil
}
