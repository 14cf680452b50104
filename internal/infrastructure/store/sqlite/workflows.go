package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
)

func (s *Store) SaveWorkflow(ctx context.Context, wf *entity.Workflow) error {
	c := wf.Counters
	_, err := s.db.ExecContext(ctx, `
INSERT INTO workflows (id, user_id, search_query, status, total_jobs, processed_jobs, successful_applications, failed_applications, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  status=excluded.status,
  total_jobs=excluded.total_jobs,
  processed_jobs=excluded.processed_jobs,
  successful_applications=excluded.successful_applications,
  failed_applications=excluded.failed_applications,
  updated_at=excluded.updated_at`,
		wf.ID, wf.UserID, wf.SearchQuery, wf.Status,
		c.TotalJobs, c.ProcessedJobs, c.SuccessfulApplications, c.FailedApplications,
		toNanos(wf.CreatedAt), toNanos(wf.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save workflow %s: %w", wf.ID, err)
	}
	return nil
}

func (s *Store) GetWorkflow(ctx context.Context, id string) (*entity.Workflow, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, search_query, status, total_jobs, processed_jobs, successful_applications, failed_applications, created_at, updated_at
FROM workflows WHERE id = ?`, id)

	var wf entity.Workflow
	var created, updated int64
	c := &wf.Counters
	err := row.Scan(&wf.ID, &wf.UserID, &wf.SearchQuery, &wf.Status,
		&c.TotalJobs, &c.ProcessedJobs, &c.SuccessfulApplications, &c.FailedApplications,
		&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workflow %s: %w", id, output.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow %s: %w", id, err)
	}
	wf.CreatedAt, wf.UpdatedAt = fromNanos(created), fromNanos(updated)
	return &wf, nil
}

// ListWorkflows returns the most recent workflows first.
func (s *Store) ListWorkflows(ctx context.Context, limit int) ([]*entity.Workflow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM workflows ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*entity.Workflow, 0, len(ids))
	for _, id := range ids {
		wf, err := s.GetWorkflow(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, wf)
	}
	return out, nil
}
