package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"storycast/internal/config"
)

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewJobParams captures the fields a freshly enqueued job carries.
type NewJobParams struct {
	Kind            Kind
	Prompt          string
	AssistantRef    string
	VoiceRef        string
	TargetDuration  int
	TargetWordCount int
	ForceRegenerate bool
	SourceJobID     int64
}

// NewJob inserts a job in waiting state at the back of the queue.
func (s *Store) NewJob(ctx context.Context, params NewJobParams) (*Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            kind, prompt, assistant_ref, voice_ref, target_duration,
            target_word_count, status, queue_position, force_regenerate,
            source_job_id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?,
            (SELECT COALESCE(MAX(queue_position), 0) + 1 FROM jobs),
            ?, ?, ?, ?)`,
		params.Kind,
		params.Prompt,
		nullableString(params.AssistantRef),
		nullableString(params.VoiceRef),
		params.TargetDuration,
		params.TargetWordCount,
		StatusWaiting,
		boolToInt(params.ForceRegenerate),
		params.SourceJobID,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. Returns nil when no job exists.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update persists changes to an existing job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET kind = ?, prompt = ?, assistant_ref = ?, voice_ref = ?,
             target_duration = ?, target_word_count = ?, status = ?,
             queue_position = ?, script_json = ?, review_approved = ?,
             force_regenerate = ?, source_job_id = ?, result_json = ?,
             error_message = ?, progress_stage = ?, progress_percent = ?,
             progress_message = ?, updated_at = ?, completed_at = ?
         WHERE id = ?`,
		job.Kind,
		job.Prompt,
		nullableString(job.AssistantRef),
		nullableString(job.VoiceRef),
		job.TargetDuration,
		job.TargetWordCount,
		job.Status,
		job.QueuePosition,
		nullableString(job.ScriptJSON),
		boolToInt(job.ReviewApproved),
		boolToInt(job.ForceRegenerate),
		job.SourceJobID,
		nullableString(job.ResultJSON),
		nullableString(job.ErrorMessage),
		nullableString(job.ProgressStage),
		job.ProgressPercent,
		nullableString(job.ProgressMessage),
		job.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(job.CompletedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %d not found", job.ID)
	}
	return nil
}

// List returns jobs in queue order, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY queue_position ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// NextEligible returns the oldest dispatchable job: freshly waiting, or
// parked at the review gate with the review confirmed. Nil when the queue
// has nothing to dispatch.
func (s *Store) NextEligible(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs
         WHERE status = ? OR (status = ? AND review_approved = 1)
         ORDER BY queue_position ASC
         LIMIT 1`,
		StatusWaiting,
		StatusAwaitingReview,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next eligible job: %w", err)
	}
	return job, nil
}

// MoveToTail reassigns a job's queue position behind every other job.
// Retried jobs re-enter dispatch order here, not at their original slot.
func (s *Store) MoveToTail(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET queue_position = (SELECT COALESCE(MAX(queue_position), 0) + 1 FROM jobs),
             updated_at = ?
         WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("move job to tail: %w", err)
	}
	return nil
}

// Remove deletes a job (and its assembly items via cascade).
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove job rows: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all jobs and returns the number deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// ClearCompleted removes completed jobs and returns the number deleted.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// Health aggregates queue counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("queue health: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		switch Status(strings.TrimSpace(statusStr)) {
		case StatusWaiting:
			summary.Waiting = count
		case StatusProcessing:
			summary.Processing = count
		case StatusAwaitingReview:
			summary.AwaitingReview = count
		case StatusCompleted:
			summary.Completed = count
		case StatusError:
			summary.Errored = count
		case StatusCancelled:
			summary.Cancelled = count
		}
	}
	return summary, rows.Err()
}
