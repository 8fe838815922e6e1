package api

import (
	"context"
	"fmt"
	"strings"

	"storycast/internal/config"
	"storycast/internal/queue"
	"storycast/internal/services"
)

// Dispatcher is the slice of the workflow manager the API needs: waking the
// dispatch loop after mutations and interrupting the in-flight job.
type Dispatcher interface {
	Kick()
	RequestCancel(jobID int64) bool
}

// noopDispatcher stands in when no manager is attached (CLI acting on a
// stopped daemon's database).
type noopDispatcher struct{}

func (noopDispatcher) Kick()                    {}
func (noopDispatcher) RequestCancel(int64) bool { return false }

// QueueService exposes validated queue operations returning API DTOs.
type QueueService struct {
	cfg        *config.Config
	store      *queue.Store
	dispatcher Dispatcher
}

// NewQueueService constructs a QueueService around the store and manager.
func NewQueueService(cfg *config.Config, store *queue.Store, dispatcher Dispatcher) *QueueService {
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	return &QueueService{cfg: cfg, store: store, dispatcher: dispatcher}
}

// EnqueueRequest carries the user-supplied fields for a new podcast job.
type EnqueueRequest struct {
	Prompt          string
	AssistantRef    string
	VoiceRef        string
	TargetDuration  int
	TargetWordCount int
}

// Enqueue validates and creates a podcast job. Validation failures never
// create a job.
func (s *QueueService) Enqueue(ctx context.Context, req EnqueueRequest) (*Job, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, services.Wrap(services.ErrValidation, "queue", "enqueue",
			"A topic prompt is required", nil)
	}
	if strings.TrimSpace(s.cfg.LLM.APIKey) == "" {
		return nil, services.Wrap(services.ErrValidation, "queue", "enqueue",
			"llm.api_key is not configured; set STORYCAST_LLM_API_KEY or edit the config file", nil)
	}
	if strings.TrimSpace(s.cfg.TTS.APIKey) == "" {
		return nil, services.Wrap(services.ErrValidation, "queue", "enqueue",
			"tts.api_key is not configured; set STORYCAST_TTS_API_KEY or edit the config file", nil)
	}

	voice := strings.TrimSpace(req.VoiceRef)
	if voice == "" {
		voice = s.cfg.TTS.DefaultVoice
	}
	job, err := s.store.NewJob(ctx, queue.NewJobParams{
		Kind:            queue.KindPodcast,
		Prompt:          strings.TrimSpace(req.Prompt),
		AssistantRef:    strings.TrimSpace(req.AssistantRef),
		VoiceRef:        voice,
		TargetDuration:  req.TargetDuration,
		TargetWordCount: req.TargetWordCount,
	})
	if err != nil {
		return nil, err
	}
	s.dispatcher.Kick()
	dto := FromJob(job)
	return &dto, nil
}

// EnqueueVideo validates and creates a video assembly job for a completed
// podcast job.
func (s *QueueService) EnqueueVideo(ctx context.Context, sourceJobID int64, forceRegenerate bool) (*Job, error) {
	source, err := s.store.GetByID(ctx, sourceJobID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, services.Wrap(services.ErrNotFound, "queue", "enqueue video",
			fmt.Sprintf("Job %d does not exist", sourceJobID), nil)
	}
	if source.Kind != queue.KindPodcast || source.Status != queue.StatusCompleted {
		return nil, services.Wrap(services.ErrValidation, "queue", "enqueue video",
			fmt.Sprintf("Job %d is not a completed podcast job", sourceJobID), nil)
	}
	if strings.TrimSpace(s.cfg.Images.APIKey) == "" {
		return nil, services.Wrap(services.ErrValidation, "queue", "enqueue video",
			"images.api_key is not configured", nil)
	}
	if strings.TrimSpace(s.cfg.Assembly.BaseURL) == "" {
		return nil, services.Wrap(services.ErrValidation, "queue", "enqueue video",
			"assembly.base_url is not configured", nil)
	}

	job, err := s.store.NewJob(ctx, queue.NewJobParams{
		Kind:            queue.KindVideo,
		Prompt:          fmt.Sprintf("assemble video for job %d", sourceJobID),
		SourceJobID:     sourceJobID,
		ForceRegenerate: forceRegenerate,
	})
	if err != nil {
		return nil, err
	}
	s.dispatcher.Kick()
	dto := FromJob(job)
	return &dto, nil
}

// List returns queue jobs filtered by status, in dispatch order.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]Job, error) {
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// Describe fetches a single job. Returns nil when absent.
func (s *QueueService) Describe(ctx context.Context, id int64) (*Job, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// DescribeAssembly fetches the latest assembly record for a video job.
func (s *QueueService) DescribeAssembly(ctx context.Context, jobID int64) (*AssemblyView, error) {
	item, err := s.store.AssemblyItemForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return FromAssemblyItem(item), nil
}

func (s *QueueService) loadJob(ctx context.Context, id int64, op string) (*queue.Job, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "queue", op,
			fmt.Sprintf("Job %d does not exist", id), nil)
	}
	return job, nil
}
