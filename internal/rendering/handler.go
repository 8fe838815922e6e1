package rendering

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"log/slog"

	"storycast/internal/config"
	"storycast/internal/effects"
	"storycast/internal/logging"
	"storycast/internal/notifications"
	"storycast/internal/queue"
	"storycast/internal/script"
	"storycast/internal/services"
	"storycast/internal/services/imagegen"
	"storycast/internal/services/renderer"
	"storycast/internal/services/tts"
	"storycast/internal/stage"
)

// Renderer assembles a completed podcast job into a video: it resolves
// image assets, assigns effect sequences, and issues the assembly call.
type Renderer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	images   *imagegen.Client
	assembly *renderer.Client
	notifier notifications.Service
}

// NewRenderer constructs the rendering stage handler using default dependencies.
func NewRenderer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Renderer {
	images := imagegen.NewClient(imagegen.Config{
		APIKey:         cfg.Images.APIKey,
		BaseURL:        cfg.Images.BaseURL,
		Size:           cfg.Images.Size,
		TimeoutSeconds: cfg.Images.TimeoutSeconds,
	})
	assembly := renderer.NewClient(renderer.Config{
		BaseURL:        cfg.Assembly.BaseURL,
		TimeoutSeconds: cfg.Assembly.TimeoutSeconds,
	})
	return NewRendererWithDependencies(cfg, store, logger, images, assembly, notifications.NewService(cfg))
}

// NewRendererWithDependencies allows injecting collaborators (used in tests).
func NewRendererWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, images *imagegen.Client, assembly *renderer.Client, notifier notifications.Service) *Renderer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "rendering"))
	}
	return &Renderer{store: store, cfg: cfg, logger: stageLogger, images: images, assembly: assembly, notifier: notifier}
}

func (r *Renderer) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, r.logger)
	if job.SourceJobID == 0 {
		return services.Wrap(
			services.ErrValidation, "rendering", "validate inputs",
			"Video job has no source podcast job", nil)
	}
	source, err := r.store.GetByID(ctx, job.SourceJobID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "rendering", "load source job", "Failed to load source job", err)
	}
	if source == nil || source.Status != queue.StatusCompleted || source.Kind != queue.KindPodcast {
		return services.Wrap(
			services.ErrValidation, "rendering", "validate inputs",
			fmt.Sprintf("Source job %d is not a completed podcast job", job.SourceJobID), nil)
	}
	job.ProgressStage = "Assembling video"
	job.ProgressMessage = "Preparing assembly"
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	logger.Info("starting video assembly", logging.Int64("source_job", job.SourceJobID))
	return nil
}

func (r *Renderer) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, r.logger)

	source, err := r.store.GetByID(ctx, job.SourceJobID)
	if err != nil || source == nil {
		return services.Wrap(services.ErrTransient, "rendering", "load source job", "Failed to load source job", err)
	}
	parsed, err := stage.ParseScript(source.ScriptJSON)
	if err != nil {
		return err
	}
	voiceFiles, err := voiceFileRefs(source.ResultJSON)
	if err != nil {
		return services.Wrap(
			services.ErrValidation, "rendering", "load voice files",
			"Source job result holds no usable voice files", err)
	}

	strategy := effects.ParseStrategy(r.cfg.Assembly.Strategy)
	item, err := r.store.NewAssemblyItem(ctx, &queue.AssemblyItem{
		JobID:      job.ID,
		Strategy:   string(strategy),
		Resolution: r.cfg.Assembly.Resolution,
		FPS:        r.cfg.Assembly.FPS,
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "rendering", "create assembly item", "Failed to record assembly run", err)
	}

	projectRef := fmt.Sprintf("job-%d", source.ID)
	var blockTexts []string
	for _, block := range parsed.VoiceBlocks() {
		blockTexts = append(blockTexts, block.Text)
	}
	customCount := r.cfg.Images.PerSegment * len(parsed.Segments)

	r.step(ctx, job, item, "resolving images", 20)
	resolved, err := r.images.Resolve(ctx, imagegen.ResolveRequest{
		ProjectRef:      projectRef,
		ContentBlocks:   blockTexts,
		ForceRegenerate: job.ForceRegenerate,
		CustomCount:     customCount,
	})
	if err != nil {
		return services.Wrap(
			services.ErrExternalService, "rendering", "resolve images",
			"Image service failed; retry the job once the service recovers", err)
	}
	logger.Info("images resolved",
		logging.Int("count", len(resolved.Images)),
		logging.Bool("from_cache", resolved.FromCache))

	// Effect sequences are recomputed from scratch for the full image set.
	plan := effects.Plan(strategy, len(resolved.Images))
	assets := make([]script.ImageAsset, len(resolved.Images))
	inputs := make([]renderer.ImageInput, len(resolved.Images))
	for i, image := range resolved.Images {
		names := effects.Names(plan[i])
		assets[i] = script.ImageAsset{
			Filename:      image.Filename,
			PositionIndex: image.PositionIndex,
			SourcePrompt:  image.SourcePrompt,
			Effects:       names,
		}
		inputs[i] = renderer.ImageInput{
			Filename:      image.Filename,
			PositionIndex: image.PositionIndex,
			Effects:       names,
		}
	}
	if encoded, err := script.EncodeAssets(assets); err == nil {
		item.ImagesJSON = encoded
	}
	if encoded, err := json.Marshal(voiceFiles); err == nil {
		item.VoiceFilesJSON = string(encoded)
	}

	r.step(ctx, job, item, "assembling", 60)
	result, err := r.assembly.Assemble(ctx, renderer.AssembleRequest{
		ProjectRef:    projectRef,
		Images:        inputs,
		VoiceFileRefs: voiceFiles,
		Resolution:    r.cfg.Assembly.Resolution,
		FPS:           r.cfg.Assembly.FPS,
		Strategy:      string(strategy),
	})
	if err != nil {
		return services.Wrap(
			services.ErrExternalService, "rendering", "assemble",
			"Assembly service failed; retry the job once the service recovers", err)
	}

	item.ArtifactRef = result.ArtifactRef
	item.CurrentStep = "completed"
	item.Progress = 100
	if err := r.store.UpdateAssemblyItem(ctx, item); err != nil {
		logger.Warn("failed to persist assembly item", logging.Error(err))
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return services.Wrap(services.ErrTransient, "rendering", "encode result", "Failed to encode assembly result", err)
	}
	job.SetCompleted(string(encoded))
	job.ProgressStage = "Completed"
	job.ProgressMessage = fmt.Sprintf("Artifact ready: %s", result.ArtifactRef)
	logger.Info("video assembly complete",
		logging.String("artifact", result.ArtifactRef),
		logging.Float64("duration_seconds", result.DurationSeconds))

	if r.notifier != nil {
		if err := r.notifier.NotifyJobCompleted(ctx, job.ID, string(job.Kind), source.Prompt); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
	return nil
}

func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(r.cfg.Images.APIKey) == "" {
		return stage.Unhealthy("rendering", "images.api_key is not configured")
	}
	if strings.TrimSpace(r.cfg.Assembly.BaseURL) == "" {
		return stage.Unhealthy("rendering", "assembly.base_url is not configured")
	}
	return stage.Healthy("rendering")
}

// step advances both the job progress and the assembly item record.
func (r *Renderer) step(ctx context.Context, job *queue.Job, item *queue.AssemblyItem, step string, percent float64) {
	job.ProgressMessage = step
	job.ProgressPercent = percent
	if err := r.store.Update(ctx, job); err != nil {
		logging.WithContext(ctx, r.logger).Warn("failed to persist progress", logging.Error(err))
	}
	item.CurrentStep = step
	item.Progress = percent
	if err := r.store.UpdateAssemblyItem(ctx, item); err != nil {
		logging.WithContext(ctx, r.logger).Warn("failed to persist assembly item", logging.Error(err))
	}
}

func voiceFileRefs(resultJSON string) ([]string, error) {
	var result tts.SynthesizeResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, err
	}
	if len(result.GeneratedFiles) == 0 {
		return nil, fmt.Errorf("no generated files in result")
	}
	refs := make([]string, len(result.GeneratedFiles))
	for i, file := range result.GeneratedFiles {
		refs[i] = file.Filename
	}
	return refs, nil
}
