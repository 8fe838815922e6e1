package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const assemblyColumns = "id, job_id, artifact_ref, strategy, resolution, fps, progress, current_step, voice_files_json, images_json, created_at, updated_at"

// NewAssemblyItem inserts an assembly tracking record for a video job.
func (s *Store) NewAssemblyItem(ctx context.Context, item *AssemblyItem) (*AssemblyItem, error) {
	if item == nil {
		return nil, errors.New("assembly item is nil")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO assembly_items (
            job_id, artifact_ref, strategy, resolution, fps, progress,
            current_step, voice_files_json, images_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.JobID,
		nullableString(item.ArtifactRef),
		item.Strategy,
		item.Resolution,
		item.FPS,
		item.Progress,
		nullableString(item.CurrentStep),
		nullableString(item.VoiceFilesJSON),
		nullableString(item.ImagesJSON),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assembly item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("assembly item insert id: %w", err)
	}
	return s.AssemblyItemByID(ctx, id)
}

// UpdateAssemblyItem persists progress and artifact changes.
func (s *Store) UpdateAssemblyItem(ctx context.Context, item *AssemblyItem) error {
	if item == nil {
		return errors.New("assembly item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE assembly_items
         SET artifact_ref = ?, strategy = ?, resolution = ?, fps = ?,
             progress = ?, current_step = ?, voice_files_json = ?,
             images_json = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.ArtifactRef),
		item.Strategy,
		item.Resolution,
		item.FPS,
		item.Progress,
		nullableString(item.CurrentStep),
		nullableString(item.VoiceFilesJSON),
		nullableString(item.ImagesJSON),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update assembly item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assembly item rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("assembly item %d not found", item.ID)
	}
	return nil
}

// AssemblyItemByID fetches one assembly item. Returns nil when absent.
func (s *Store) AssemblyItemByID(ctx context.Context, id int64) (*AssemblyItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assemblyColumns+` FROM assembly_items WHERE id = ?`, id)
	item, err := scanAssemblyItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assembly item: %w", err)
	}
	return item, nil
}

// AssemblyItemForJob returns the most recent assembly item for a job, or nil.
func (s *Store) AssemblyItemForJob(ctx context.Context, jobID int64) (*AssemblyItem, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+assemblyColumns+` FROM assembly_items WHERE job_id = ? ORDER BY id DESC LIMIT 1`,
		jobID,
	)
	item, err := scanAssemblyItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("assembly item for job: %w", err)
	}
	return item, nil
}

// ListAssemblyItems returns all assembly items in insertion order.
func (s *Store) ListAssemblyItems(ctx context.Context) ([]*AssemblyItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+assemblyColumns+` FROM assembly_items ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list assembly items: %w", err)
	}
	defer rows.Close()

	var items []*AssemblyItem
	for rows.Next() {
		item, err := scanAssemblyItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assembly item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanAssemblyItem(scanner interface{ Scan(dest ...any) error }) (*AssemblyItem, error) {
	var (
		id          int64
		jobID       int64
		artifactRef sql.NullString
		strategy    string
		resolution  string
		fps         int
		progress    sql.NullFloat64
		currentStep sql.NullString
		voiceFiles  sql.NullString
		images      sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&artifactRef,
		&strategy,
		&resolution,
		&fps,
		&progress,
		&currentStep,
		&voiceFiles,
		&images,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &AssemblyItem{
		ID:             id,
		JobID:          jobID,
		ArtifactRef:    artifactRef.String,
		Strategy:       strategy,
		Resolution:     resolution,
		FPS:            fps,
		Progress:       progress.Float64,
		CurrentStep:    currentStep.String,
		VoiceFilesJSON: voiceFiles.String,
		ImagesJSON:     images.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}
