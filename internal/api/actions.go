package api

import (
	"context"
	"fmt"

	"storycast/internal/queue"
	"storycast/internal/services"
)

// Retry requeues an errored job at the back of the queue with its error
// cleared. Drafted scripts survive the retry so a voicing failure does not
// force a fresh draft.
func (s *QueueService) Retry(ctx context.Context, id int64) (*Job, error) {
	job, err := s.loadJob(ctx, id, "retry")
	if err != nil {
		return nil, err
	}
	if job.Status != queue.StatusError {
		return nil, services.Wrap(services.ErrValidation, "queue", "retry",
			fmt.Sprintf("Job %d is %s; only errored jobs can be retried", id, job.Status), nil)
	}

	job.Status = queue.StatusWaiting
	job.ErrorMessage = ""
	job.SetProgress("Pending", "waiting to start", 0)
	if err := s.store.Update(ctx, job); err != nil {
		return nil, err
	}
	if err := s.store.MoveToTail(ctx, id); err != nil {
		return nil, err
	}
	s.dispatcher.Kick()

	job, err = s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// Cancel stops a job. Waiting and reviewing jobs are cancelled in place; a
// processing job additionally has its in-flight stage interrupted so the
// scheduler slot frees up immediately.
func (s *QueueService) Cancel(ctx context.Context, id int64) (*Job, error) {
	job, err := s.loadJob(ctx, id, "cancel")
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case queue.StatusProcessing:
		applied, err := s.store.TransitionStatus(ctx, id, queue.StatusProcessing, queue.StatusCancelled)
		if err != nil {
			return nil, err
		}
		if !applied {
			// The job finished or failed between the read and the transition.
			return s.Describe(ctx, id)
		}
		s.dispatcher.RequestCancel(id)
	case queue.StatusWaiting, queue.StatusAwaitingReview:
		job.Status = queue.StatusCancelled
		job.ReviewApproved = false
		job.SetProgress("Cancelled", "cancelled by user", job.ProgressPercent)
		if err := s.store.Update(ctx, job); err != nil {
			return nil, err
		}
	default:
		return nil, services.Wrap(services.ErrValidation, "queue", "cancel",
			fmt.Sprintf("Job %d is already %s", id, job.Status), nil)
	}

	return s.Describe(ctx, id)
}

// Remove deletes a job from the queue. Processing jobs must be cancelled
// first so the in-flight stage is not orphaned.
func (s *QueueService) Remove(ctx context.Context, id int64) error {
	job, err := s.loadJob(ctx, id, "remove")
	if err != nil {
		return err
	}
	if job.Status == queue.StatusProcessing {
		return services.Wrap(services.ErrValidation, "queue", "remove",
			fmt.Sprintf("Job %d is processing; cancel it first", id), nil)
	}
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return services.Wrap(services.ErrNotFound, "queue", "remove",
			fmt.Sprintf("Job %d does not exist", id), nil)
	}
	return nil
}

// Clear removes every job and returns the number removed. An in-flight stage
// result for a removed job is discarded by the workflow manager.
func (s *QueueService) Clear(ctx context.Context) (int64, error) {
	return s.store.Clear(ctx)
}

// ClearCompleted removes terminal jobs only.
func (s *QueueService) ClearCompleted(ctx context.Context) (int64, error) {
	return s.store.ClearCompleted(ctx)
}

// ForceDispatch wakes the scheduler for an immediate dispatch attempt instead
// of waiting out the poll interval. The single-flight rule still holds; a busy
// scheduler picks the kick up after the current job.
func (s *QueueService) ForceDispatch() {
	s.dispatcher.Kick()
}
