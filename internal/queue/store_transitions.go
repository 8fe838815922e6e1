package queue

import (
	"context"
	"fmt"
	"time"
)

// ReclaimStale reclassifies jobs persisted as processing to error state.
// A daemon restart cannot resume an in-flight collaborator call; leaving
// these jobs in processing would block the single-flight slot forever.
func (s *Store) ReclaimStale(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, result_json = NULL,
             progress_stage = 'Failed', progress_percent = 0,
             progress_message = ?, updated_at = ?
         WHERE status = ?`,
		StatusError,
		StaleRestartMessage,
		StaleRestartMessage,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// TransitionStatus updates a job's status only when it still has the
// expected current status. Returns false when the job moved underneath the
// caller (e.g. a cancellation raced a stage completion).
func (s *Store) TransitionStatus(ctx context.Context, id int64, from, to Status) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("transition %s -> %s: %w", from, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition rows: %w", err)
	}
	return affected > 0, nil
}
