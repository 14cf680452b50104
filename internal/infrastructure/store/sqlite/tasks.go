package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
)

const taskColumns = `id, workflow_id, type, job_id, job_url, payload, priority, max_retries, current_retry, status, result, created_at, updated_at`

func (s *Store) CreateTask(ctx context.Context, t *entity.Task) error {
	result, err := encodeResult(t.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO tasks (`+taskColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.WorkflowID, t.Type, t.JobID, t.JobURL, nullableJSON(t.Payload),
		t.Priority, t.MaxRetries, t.CurrentRetry, t.Status, result,
		toNanos(t.CreatedAt), toNanos(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create task %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, t *entity.Task) error {
	result, err := encodeResult(t.Result)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE tasks SET payload=?, current_retry=?, status=?, result=?, updated_at=?
WHERE id=?`,
		nullableJSON(t.Payload), t.CurrentRetry, t.Status, result, toNanos(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("task %s: %w", t.ID, output.ErrNotFound)
	}
	return nil
}

func (s *Store) NextPendingTask(ctx context.Context, workflowID string) (*entity.Task, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+taskColumns+`
FROM tasks
WHERE workflow_id = ? AND status = ?
ORDER BY priority DESC, created_at ASC, rowid ASC
LIMIT 1`, workflowID, entity.TaskStatusPending)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending task: %w", err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, workflowID string) ([]*entity.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+taskColumns+`
FROM tasks WHERE workflow_id = ?
ORDER BY created_at ASC, rowid ASC`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*entity.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*entity.Task, error) {
	var t entity.Task
	var payload, result sql.NullString
	var created, updated int64
	if err := row.Scan(&t.ID, &t.WorkflowID, &t.Type, &t.JobID, &t.JobURL, &payload,
		&t.Priority, &t.MaxRetries, &t.CurrentRetry, &t.Status, &result,
		&created, &updated); err != nil {
		return nil, err
	}
	if payload.Valid {
		t.Payload = json.RawMessage(payload.String)
	}
	if result.Valid {
		var r entity.AgentResult
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return nil, fmt.Errorf("decode result of task %s: %w", t.ID, err)
		}
		t.Result = &r
	}
	t.CreatedAt, t.UpdatedAt = fromNanos(created), fromNanos(updated)
	return &t, nil
}

func encodeResult(r *entity.AgentResult) (any, error) {
	if r == nil {
		return nil, nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode task result: %w", err)
	}
	return string(raw), nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
