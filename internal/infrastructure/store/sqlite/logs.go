package sqlite

import (
	"context"
	"fmt"

	"apply-agent/internal/domain/entity"
)

func (s *Store) AppendLog(ctx context.Context, e entity.LogEntry) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO logs(workflow_id, agent_type, level, message, ts) VALUES(?, ?, ?, ?, ?)`,
		e.WorkflowID, e.AgentType, e.Level, e.Message, toNanos(e.Timestamp))
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// ListLogs returns the newest limit entries in chronological order. A
// non-positive limit returns everything.
func (s *Store) ListLogs(ctx context.Context, workflowID string, limit int) ([]entity.LogEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT workflow_id, agent_type, level, message, ts FROM (
  SELECT id, workflow_id, agent_type, level, message, ts FROM logs
  WHERE workflow_id = ? ORDER BY id DESC LIMIT ?
) ORDER BY id ASC`, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var out []entity.LogEntry
	for rows.Next() {
		var e entity.LogEntry
		var ts int64
		if err := rows.Scan(&e.WorkflowID, &e.AgentType, &e.Level, &e.Message, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = fromNanos(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
