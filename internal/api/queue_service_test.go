package api_test

import (
	"context"
	"errors"
	"testing"

	"storycast/internal/api"
	"storycast/internal/config"
	"storycast/internal/queue"
	"storycast/internal/services"
	"storycast/internal/testsupport"
)

type recordingDispatcher struct {
	kicks   int
	cancels []int64
}

func (d *recordingDispatcher) Kick() { d.kicks++ }

func (d *recordingDispatcher) RequestCancel(id int64) bool {
	d.cancels = append(d.cancels, id)
	return true
}

func newService(t *testing.T, opts ...testsupport.ConfigOption) (*api.QueueService, *queue.Store, *recordingDispatcher, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	dispatcher := &recordingDispatcher{}
	return api.NewQueueService(cfg, store, dispatcher), store, dispatcher, cfg
}

func TestEnqueueCreatesWaitingJobAndKicks(t *testing.T) {
	svc, store, dispatcher, cfg := newService(t)

	job, err := svc.Enqueue(context.Background(), api.EnqueueRequest{
		Prompt:         "the history of lighthouses",
		TargetDuration: 12,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if job.Status != string(queue.StatusWaiting) {
		t.Fatalf("new job status = %s, want waiting", job.Status)
	}
	if job.VoiceRef != cfg.TTS.DefaultVoice {
		t.Fatalf("voice ref = %q, want default %q", job.VoiceRef, cfg.TTS.DefaultVoice)
	}
	if dispatcher.kicks != 1 {
		t.Fatalf("expected one dispatcher kick, got %d", dispatcher.kicks)
	}

	stored, err := store.GetByID(context.Background(), job.ID)
	if err != nil || stored == nil {
		t.Fatalf("job not persisted: %v", err)
	}
}

func TestEnqueueValidationNeverCreatesJob(t *testing.T) {
	tests := []struct {
		name string
		opts []testsupport.ConfigOption
		req  api.EnqueueRequest
	}{
		{
			name: "empty prompt",
			req:  api.EnqueueRequest{Prompt: "   "},
		},
		{
			name: "missing llm key",
			opts: []testsupport.ConfigOption{func(cfg *config.Config) { cfg.LLM.APIKey = "" }},
			req:  api.EnqueueRequest{Prompt: "a topic"},
		},
		{
			name: "missing tts key",
			opts: []testsupport.ConfigOption{func(cfg *config.Config) { cfg.TTS.APIKey = "" }},
			req:  api.EnqueueRequest{Prompt: "a topic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, dispatcher, _ := newService(t, tt.opts...)

			if _, err := svc.Enqueue(context.Background(), tt.req); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			jobs, err := store.List(context.Background())
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(jobs) != 0 {
				t.Fatalf("validation failure created %d job(s)", len(jobs))
			}
			if dispatcher.kicks != 0 {
				t.Fatal("validation failure must not kick the dispatcher")
			}
		})
	}
}

func TestEnqueueVideoRequiresCompletedPodcastSource(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.EnqueueVideo(ctx, 999, false); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	source := testsupport.NewPodcastJob(t, store, "still drafting")
	if _, err := svc.EnqueueVideo(ctx, source.ID, false); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for incomplete source, got %v", err)
	}

	source.SetCompleted(`{"generated_files":[]}`)
	if err := store.Update(ctx, source); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	video, err := svc.EnqueueVideo(ctx, source.ID, true)
	if err != nil {
		t.Fatalf("EnqueueVideo failed: %v", err)
	}
	if video.Kind != string(queue.KindVideo) || video.SourceJobID != source.ID {
		t.Fatalf("unexpected video job: %#v", video)
	}
	if !video.ForceRegenerate {
		t.Fatal("force regenerate flag not forwarded")
	}
}

func TestEnqueueVideoRequiresAssemblyConfig(t *testing.T) {
	svc, store, _, _ := newService(t, func(cfg *config.Config) {
		cfg.Images.APIKey = ""
	})
	ctx := context.Background()

	source := testsupport.NewPodcastJob(t, store, "done")
	source.SetCompleted(`{"generated_files":[]}`)
	if err := store.Update(ctx, source); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := svc.EnqueueVideo(ctx, source.ID, false); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDescribeReturnsNilForUnknownJob(t *testing.T) {
	svc, _, _, _ := newService(t)
	job, err := svc.Describe(context.Background(), 42)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil for unknown job, got %#v", job)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()

	waiting := testsupport.NewPodcastJob(t, store, "waiting")
	done := testsupport.NewPodcastJob(t, store, "done")
	done.SetCompleted(`{}`)
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	jobs, err := svc.List(ctx, queue.StatusWaiting)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != waiting.ID {
		t.Fatalf("unexpected filtered list: %#v", jobs)
	}
}

func TestForceDispatchKicksScheduler(t *testing.T) {
	svc, _, dispatcher, _ := newService(t)

	svc.ForceDispatch()
	if dispatcher.kicks != 1 {
		t.Fatalf("expected one dispatcher kick, got %d", dispatcher.kicks)
	}
}
