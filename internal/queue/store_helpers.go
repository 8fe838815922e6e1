package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, kind, prompt, assistant_ref, voice_ref, target_duration, target_word_count, status, queue_position, script_json, review_approved, force_regenerate, source_job_id, result_json, error_message, progress_stage, progress_percent, progress_message, created_at, updated_at, completed_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id              int64
		kindStr         string
		prompt          string
		assistantRef    sql.NullString
		voiceRef        sql.NullString
		targetDuration  sql.NullInt64
		targetWordCount sql.NullInt64
		statusStr       string
		queuePosition   int64
		scriptJSON      sql.NullString
		reviewApproved  sql.NullInt64
		forceRegenerate sql.NullInt64
		sourceJobID     sql.NullInt64
		resultJSON      sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		completedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&kindStr,
		&prompt,
		&assistantRef,
		&voiceRef,
		&targetDuration,
		&targetWordCount,
		&statusStr,
		&queuePosition,
		&scriptJSON,
		&reviewApproved,
		&forceRegenerate,
		&sourceJobID,
		&resultJSON,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		Kind:            Kind(kindStr),
		Prompt:          prompt,
		AssistantRef:    assistantRef.String,
		VoiceRef:        voiceRef.String,
		TargetDuration:  int(targetDuration.Int64),
		TargetWordCount: int(targetWordCount.Int64),
		Status:          Status(statusStr),
		QueuePosition:   queuePosition,
		ScriptJSON:      scriptJSON.String,
		ReviewApproved:  reviewApproved.Int64 != 0,
		ForceRegenerate: forceRegenerate.Int64 != 0,
		SourceJobID:     sourceJobID.Int64,
		ResultJSON:      resultJSON.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			job.CompletedAt = &completed
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
