package scripting

import (
	"context"
	"strings"
	"sync"

	"log/slog"

	"storycast/internal/config"
	"storycast/internal/logging"
	"storycast/internal/notifications"
	"storycast/internal/queue"
	"storycast/internal/script"
	"storycast/internal/services"
	"storycast/internal/services/llm"
	"storycast/internal/stage"
)

// Scripter runs the structure call and the per-segment draft fan-out,
// leaving the job at the review gate.
type Scripter struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   *llm.Client
	notifier notifications.Service
}

// NewScripter constructs the scripting stage handler using default dependencies.
func NewScripter(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Scripter {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return NewScripterWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewScripterWithDependencies allows injecting collaborators (used in tests).
func NewScripterWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client *llm.Client, notifier notifications.Service) *Scripter {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "scripting"))
	}
	return &Scripter{store: store, cfg: cfg, logger: stageLogger, client: client, notifier: notifier}
}

func (s *Scripter) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)
	if strings.TrimSpace(job.Prompt) == "" {
		return services.Wrap(
			services.ErrValidation, "scripting", "validate inputs",
			"Job has no topic prompt; remove it and enqueue again", nil)
	}
	job.ProgressStage = "Generating script"
	job.ProgressMessage = "Preparing structure call"
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	logger.Info("starting script generation", logging.String("topic", strings.TrimSpace(job.Prompt)))
	return nil
}

func (s *Scripter) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	structure, err := s.client.Structure(ctx, llm.StructureRequest{
		Topic:           job.Prompt,
		AssistantRef:    job.AssistantRef,
		TargetDuration:  job.TargetDuration,
		TargetWordCount: job.TargetWordCount,
	})
	if err != nil {
		return services.Wrap(
			services.ErrExternalService, "scripting", "structure call",
			"Structure service failed; retry the job once the service recovers", err)
	}
	logger.Info("structure received", logging.Int("segments", len(structure.Segments)))
	s.updateProgress(ctx, job, "Drafting segments", 25)

	drafts, err := s.draftAll(ctx, job, structure)
	if err != nil {
		return err
	}

	draft := &script.Script{SharedContext: structure.SharedContext}
	for i, outline := range structure.Segments {
		segment := script.Segment{
			ID:       outline.ID,
			Title:    outline.Title,
			Summary:  outline.Summary,
			Position: i,
		}
		for _, block := range drafts[i].Blocks {
			segment.Blocks = append(segment.Blocks, script.VoiceBlock{
				Name:     block.Name,
				Text:     block.Text,
				VoiceRef: job.VoiceRef,
			})
		}
		draft.Segments = append(draft.Segments, segment)
	}
	if err := draft.Validate(); err != nil {
		return services.Wrap(
			services.ErrExternalService, "scripting", "validate draft",
			"Draft service returned a malformed script", err)
	}
	encoded, err := draft.Encode()
	if err != nil {
		return services.Wrap(services.ErrTransient, "scripting", "encode script", "Failed to encode drafted script", err)
	}

	job.ScriptJSON = encoded
	job.ReviewApproved = false
	job.Status = queue.StatusAwaitingReview
	job.ProgressStage = "Awaiting review"
	job.ProgressMessage = "Draft ready for review"
	job.ProgressPercent = 100
	logger.Info("draft complete, awaiting review", logging.Int("segments", len(draft.Segments)))

	if s.notifier != nil {
		if err := s.notifier.NotifyReviewReady(ctx, job.ID, job.Prompt); err != nil {
			logger.Warn("review notification failed", logging.Error(err))
		}
	}
	return nil
}

// draftAll issues every segment draft concurrently. One failure fails the
// stage; drafted content from succeeded calls is discarded.
func (s *Scripter) draftAll(ctx context.Context, job *queue.Job, structure llm.StructureResult) ([]llm.DraftResult, error) {
	results := make([]llm.DraftResult, len(structure.Segments))
	errs := make([]error, len(structure.Segments))

	var wg sync.WaitGroup
	for i, outline := range structure.Segments {
		wg.Add(1)
		go func(i int, outline llm.SegmentOutline) {
			defer wg.Done()
			result, err := s.client.Draft(ctx, llm.DraftRequest{
				AssistantRef:  job.AssistantRef,
				SharedContext: structure.SharedContext,
				Segment:       outline,
			})
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = result
		}(i, outline)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, services.Wrap(
				services.ErrExternalService, "scripting", "draft fan-out",
				"Draft call failed for segment "+structure.Segments[i].ID+"; the whole draft is discarded", err)
		}
	}
	return results, nil
}

func (s *Scripter) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(s.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy("scripting", "llm.api_key is not configured")
	}
	return stage.Healthy("scripting")
}

func (s *Scripter) updateProgress(ctx context.Context, job *queue.Job, message string, percent float64) {
	job.ProgressMessage = message
	job.ProgressPercent = percent
	if err := s.store.Update(ctx, job); err != nil {
		logging.WithContext(ctx, s.logger).Warn("failed to persist progress", logging.Error(err))
	}
}
