package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storycast/internal/logging"
	"storycast/internal/queue"
	"storycast/internal/services"
	"storycast/internal/stage"
)

type pipelineStage struct {
	name    string
	handler stage.Handler
}

// stageFor selects the stage from the job's kind and script state. A podcast
// job with an approved, drafted script always routes to voicing, so a retried
// voicing failure never regenerates the script the user signed off on.
func (m *Manager) stageFor(job *queue.Job) (pipelineStage, bool) {
	switch {
	case job.Kind == queue.KindVideo:
		return pipelineStage{name: "rendering", handler: m.stages.Renderer}, m.stages.Renderer != nil
	case job.ReviewApproved && strings.TrimSpace(job.ScriptJSON) != "":
		return pipelineStage{name: "voicing", handler: m.stages.Voicer}, m.stages.Voicer != nil
	default:
		return pipelineStage{name: "scripting", handler: m.stages.Scripter}, m.stages.Scripter != nil
	}
}

var stageLabeler = cases.Title(language.English)

func deriveStageLabel(name string) string {
	return stageLabeler.String(strings.ReplaceAll(strings.TrimSpace(name), "_", " "))
}

func (m *Manager) processJob(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	stg, ok := m.stageFor(job)
	if !ok {
		logger.Warn("no stage configured for job",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("kind", string(job.Kind)))
		m.waitForWork(ctx)
		return
	}

	applied, err := m.store.TransitionStatus(ctx, job.ID, job.Status, queue.StatusProcessing)
	if err != nil {
		m.setLastError(err)
		logger.Error("failed to transition job to processing", logging.Error(err))
		return
	}
	if !applied {
		// The job changed under us (removed, cancelled, edited); the next
		// loop pass picks whatever is eligible now.
		return
	}
	fresh, err := m.store.GetByID(ctx, job.ID)
	if err != nil || fresh == nil {
		m.setLastError(err)
		logger.Error("failed to reload job after transition", logging.Error(err))
		return
	}
	job = fresh
	job.ProgressStage = deriveStageLabel(stg.name)
	job.ProgressMessage = ""
	job.ProgressPercent = 0

	requestID := uuid.NewString()
	stageCtx := services.WithJobID(ctx, job.ID)
	stageCtx = services.WithStage(stageCtx, stg.name)
	stageCtx = services.WithRequestID(stageCtx, requestID)

	jobCtx, cancelJob := context.WithCancel(stageCtx)
	defer cancelJob()
	m.setCurrent(job.ID, cancelJob)
	defer m.clearCurrent(job.ID)

	stageLogger := logging.WithContext(stageCtx, logger)
	m.executeStage(jobCtx, stageCtx, stageLogger, stg, job)
}

// executeStage runs one stage for one job. jobCtx is cancelled either by
// daemon shutdown or by a user cancel request; in the latter case the slot
// is released immediately and the stage's late result is discarded.
func (m *Manager) executeStage(jobCtx, stageCtx context.Context, logger *slog.Logger, stg pipelineStage, job *queue.Job) {
	start := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("kind", string(job.Kind)))

	if err := stg.handler.Prepare(jobCtx, job); err != nil {
		m.handleStageFailure(stageCtx, logger, stg.name, job, err)
		return
	}
	if err := m.store.Update(stageCtx, job); err != nil {
		m.setLastError(err)
		logger.Error("failed to persist stage preparation", logging.Error(err))
		return
	}
	m.setLastJob(job)

	done := make(chan error, 1)
	go func() {
		done <- stg.handler.Execute(jobCtx, job)
	}()

	var execErr error
	select {
	case execErr = <-done:
	case <-jobCtx.Done():
		if stageCtx.Err() != nil {
			// Daemon shutdown: the job stays processing and is reclaimed
			// on the next start.
			return
		}
		// User cancel: free the slot now, drain the result later.
		logger.Info("job cancelled, releasing slot",
			logging.String(logging.FieldEventType, "job_cancelled"))
		go func() { <-done }()
		return
	}

	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			if stageCtx.Err() == nil {
				logger.Info("job cancelled during stage execution",
					logging.String(logging.FieldEventType, "job_cancelled"))
			}
			return
		}
		m.handleStageFailure(stageCtx, logger, stg.name, job, execErr)
		return
	}

	// A cancel can land between the stage finishing and this persist; the
	// status re-check makes the late result lose.
	current, err := m.store.GetByID(stageCtx, job.ID)
	if err != nil {
		m.setLastError(err)
		logger.Error("failed to re-check job before persisting result", logging.Error(err))
		return
	}
	if current == nil || current.Status != queue.StatusProcessing {
		logger.Info("discarding stage result for job no longer processing",
			logging.String(logging.FieldEventType, "stage_result_discarded"))
		return
	}

	if job.Status == queue.StatusProcessing {
		job.Status = queue.StatusCompleted
	}
	if err := m.store.Update(stageCtx, job); err != nil {
		m.setLastError(err)
		logger.Error("failed to persist stage result", logging.Error(err))
		return
	}
	if job.Status == queue.StatusCompleted {
		m.countProcessed()
	}
	m.setLastJob(job)
	m.Kick()
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(job.Status)),
		logging.Duration("stage_duration", time.Since(start)))
}

func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, stageName string, job *queue.Job, stageErr error) {
	m.setLastError(stageErr)

	message := strings.TrimSpace(services.Details(stageErr).Message)
	if message == "" {
		message = strings.TrimSpace(stageErr.Error())
	}
	if message == "" {
		message = stageName + " failed without error detail"
	}

	// Same discard rule as results: a cancelled job keeps its cancelled
	// status instead of flipping to error.
	current, err := m.store.GetByID(ctx, job.ID)
	if err != nil {
		logger.Error("failed to re-check job before persisting failure", logging.Error(err))
		return
	}
	if current == nil || current.Status != queue.StatusProcessing {
		logger.Info("discarding stage failure for job no longer processing",
			logging.String(logging.FieldEventType, "stage_result_discarded"))
		return
	}

	job.SetFailed(message)
	logger.Error("stage failed",
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_message", message))
	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
		return
	}
	m.countFailed()
	m.setLastJob(job)
	if m.notifier != nil {
		if err := m.notifier.NotifyJobFailed(ctx, job.ID, job.Prompt, message); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	}
}
