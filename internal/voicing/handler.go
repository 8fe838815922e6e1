package voicing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"log/slog"

	"storycast/internal/config"
	"storycast/internal/logging"
	"storycast/internal/notifications"
	"storycast/internal/queue"
	"storycast/internal/services"
	"storycast/internal/services/tts"
	"storycast/internal/stage"
)

// Voicer synthesizes the approved script into audio files. The whole
// script travels in one batched synthesis call.
type Voicer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   *tts.Client
	notifier notifications.Service
}

// NewVoicer constructs the voicing stage handler using default dependencies.
func NewVoicer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Voicer {
	client := tts.NewClient(tts.Config{
		APIKey:         cfg.TTS.APIKey,
		BaseURL:        cfg.TTS.BaseURL,
		Model:          cfg.TTS.Model,
		Voice:          cfg.TTS.DefaultVoice,
		TimeoutSeconds: cfg.TTS.TimeoutSeconds,
	})
	return NewVoicerWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewVoicerWithDependencies allows injecting collaborators (used in tests).
func NewVoicerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client *tts.Client, notifier notifications.Service) *Voicer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "voicing"))
	}
	return &Voicer{store: store, cfg: cfg, logger: stageLogger, client: client, notifier: notifier}
}

func (v *Voicer) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, v.logger)
	if !job.ReviewApproved {
		return services.Wrap(
			services.ErrValidation, "voicing", "validate inputs",
			"Script review has not been confirmed; voice synthesis requires an approved script", nil)
	}
	if strings.TrimSpace(job.ScriptJSON) == "" {
		return services.Wrap(
			services.ErrValidation, "voicing", "validate inputs",
			"Job has no script; retry the job to regenerate it", nil)
	}
	job.ProgressStage = "Synthesizing voice"
	job.ProgressMessage = "Preparing synthesis call"
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	logger.Info("starting voice synthesis")
	return nil
}

func (v *Voicer) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, v.logger)

	parsed, err := stage.ParseScript(job.ScriptJSON)
	if err != nil {
		return err
	}
	blocks := parsed.VoiceBlocks()
	if len(blocks) == 0 {
		return services.Wrap(
			services.ErrValidation, "voicing", "collect blocks",
			"Approved script has no voice blocks", nil)
	}

	// Block names are only unique within a segment, so the batch is keyed
	// by position as well.
	inputs := make(map[string]tts.BlockInput, len(blocks))
	for i, block := range blocks {
		key := fmt.Sprintf("%03d_%s", i, block.Name)
		voice := block.VoiceRef
		if voice == "" {
			voice = job.VoiceRef
		}
		inputs[key] = tts.BlockInput{Text: block.Text, VoiceRef: voice}
	}

	v.updateProgress(ctx, job, fmt.Sprintf("Synthesizing %d blocks", len(inputs)), 25)
	result, err := v.client.Synthesize(ctx, inputs)
	if err != nil {
		return services.Wrap(
			services.ErrExternalService, "voicing", "synthesize",
			"Voice synthesis failed; retry the job once the service recovers", err)
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return services.Wrap(services.ErrTransient, "voicing", "encode result", "Failed to encode synthesis result", err)
	}
	job.SetCompleted(string(encoded))
	job.ProgressStage = "Completed"
	job.ProgressMessage = fmt.Sprintf("Generated %d audio files", len(result.GeneratedFiles))
	logger.Info("voice synthesis complete", logging.Int("files", len(result.GeneratedFiles)))

	if v.notifier != nil {
		if err := v.notifier.NotifyJobCompleted(ctx, job.ID, string(job.Kind), job.Prompt); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
	return nil
}

func (v *Voicer) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(v.cfg.TTS.APIKey) == "" {
		return stage.Unhealthy("voicing", "tts.api_key is not configured")
	}
	return stage.Healthy("voicing")
}

func (v *Voicer) updateProgress(ctx context.Context, job *queue.Job, message string, percent float64) {
	job.ProgressMessage = message
	job.ProgressPercent = percent
	if err := v.store.Update(ctx, job); err != nil {
		logging.WithContext(ctx, v.logger).Warn("failed to persist progress", logging.Error(err))
	}
}
