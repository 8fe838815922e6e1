package api

import (
	"context"
	"fmt"
	"strings"

	"storycast/internal/queue"
	"storycast/internal/script"
	"storycast/internal/services"
)

// ConfirmReview approves a job parked at the review gate, optionally replacing
// the stored script with an edited version. The edited script must keep the
// drafted shape or the confirmation is rejected without touching the job.
func (s *QueueService) ConfirmReview(ctx context.Context, id int64, editedScript string) (*Job, error) {
	job, err := s.loadJob(ctx, id, "confirm review")
	if err != nil {
		return nil, err
	}
	if job.Status != queue.StatusAwaitingReview {
		return nil, services.Wrap(services.ErrValidation, "queue", "confirm review",
			fmt.Sprintf("Job %d is %s, not awaiting review", id, job.Status), nil)
	}

	if edited := strings.TrimSpace(editedScript); edited != "" {
		parsed, err := script.Parse(edited)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "queue", "confirm review",
				"Edited script is not valid JSON; fix it and confirm again", err)
		}
		if err := parsed.Validate(); err != nil {
			return nil, services.Wrap(services.ErrValidation, "queue", "confirm review",
				"Edited script is incomplete; fix it and confirm again", err)
		}
		if !parsed.Drafted() {
			return nil, services.Wrap(services.ErrValidation, "queue", "confirm review",
				"Edited script is incomplete; every segment needs at least one voice block", nil)
		}
		encoded, err := parsed.Encode()
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "queue", "confirm review",
				"Edited script could not be stored", err)
		}
		job.ScriptJSON = encoded
	}

	job.ReviewApproved = true
	job.SetProgress("Review confirmed", "queued for voice synthesis", job.ProgressPercent)
	if err := s.store.Update(ctx, job); err != nil {
		return nil, err
	}
	s.dispatcher.Kick()
	dto := FromJob(job)
	return &dto, nil
}

// AbandonReview rejects a job at the review gate. The job is recorded as
// errored with a fixed message so the decision shows up in queue history and
// the job stays retryable.
func (s *QueueService) AbandonReview(ctx context.Context, id int64) (*Job, error) {
	job, err := s.loadJob(ctx, id, "abandon review")
	if err != nil {
		return nil, err
	}
	if job.Status != queue.StatusAwaitingReview {
		return nil, services.Wrap(services.ErrValidation, "queue", "abandon review",
			fmt.Sprintf("Job %d is %s, not awaiting review", id, job.Status), nil)
	}

	job.SetFailed(queue.ReviewAbandonedMessage)
	job.ReviewApproved = false
	if err := s.store.Update(ctx, job); err != nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}
