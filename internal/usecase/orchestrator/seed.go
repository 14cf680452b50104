package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	ErrNoJobs        = errors.New("no job urls given")
	ErrInvalidJobURL = errors.New("invalid job url")
)

// Seed creates a workflow with one discovery task per distinct job URL.
// Any malformed URL rejects the whole request. If a task cannot be stored
// the workflow is marked Failed and the tasks created so far are cancelled.
func Seed(ctx context.Context, store output.TaskStore, userID, query string, urls []string) (*entity.Workflow, error) {
	jobs, err := normalizeURLs(urls)
	if err != nil {
		return nil, err
	}

	wf := entity.NewWorkflow(userID, query, len(jobs))
	if err := store.SaveWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("save workflow: %w", err)
	}

	created := make([]*entity.Task, 0, len(jobs))
	for _, jobURL := range jobs {
		task, err := entity.NewTask(wf.ID, entity.TaskTypeSiteDiscovery, JobID(jobURL), jobURL,
			entity.DiscoveryPayload{JobTitle: query})
		if err == nil {
			err = store.CreateTask(ctx, task)
		}
		if err != nil {
			abandon(ctx, store, wf, created)
			return nil, fmt.Errorf("create discovery task: %w", err)
		}
		created = append(created, task)
	}
	return wf, nil
}

// abandon is best effort: the store may be the reason seeding failed.
func abandon(ctx context.Context, store output.TaskStore, wf *entity.Workflow, created []*entity.Task) {
	ctx = context.WithoutCancel(ctx)
	for _, task := range created {
		if task.Cancel() == nil {
			_ = store.UpdateTask(ctx, task)
		}
	}
	if wf.TransitionTo(entity.WorkflowStatusFailed) == nil {
		_ = store.SaveWorkflow(ctx, wf)
	}
}

// JobID is stable for a URL so reruns can be correlated.
func JobID(jobURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(jobURL)).String()
}

func normalizeURLs(urls []string) ([]string, error) {
	seen := make(map[string]bool, len(urls))
	var (
		jobs    []string
		invalid []string
	)
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			invalid = append(invalid, raw)
			continue
		}
		u.Fragment = ""
		key := u.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		jobs = append(jobs, key)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJobURL, strings.Join(invalid, ", "))
	}
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}
	return jobs, nil
}
