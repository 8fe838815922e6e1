package workflow_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"storycast/internal/logging"
	"storycast/internal/notifications"
	"storycast/internal/queue"
	"storycast/internal/services"
	"storycast/internal/stage"
	"storycast/internal/testsupport"
	"storycast/internal/workflow"
)

type fakeStage struct {
	name       string
	prepareErr error
	execute    func(ctx context.Context, job *queue.Job) error
}

func (f *fakeStage) Prepare(ctx context.Context, job *queue.Job) error {
	return f.prepareErr
}

func (f *fakeStage) Execute(ctx context.Context, job *queue.Job) error {
	if f.execute == nil {
		job.SetCompleted(`{}`)
		return nil
	}
	return f.execute(ctx, job)
}

func (f *fakeStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(f.name)
}

func draftingStage(concurrent, violations *atomic.Int64) *fakeStage {
	return &fakeStage{
		name: "scripting",
		execute: func(ctx context.Context, job *queue.Job) error {
			if concurrent.Add(1) > 1 {
				violations.Add(1)
			}
			defer concurrent.Add(-1)
			time.Sleep(20 * time.Millisecond)
			job.ScriptJSON = `{"segments":[{"id":"s1","title":"t","position":0,"blocks":[{"name":"b","text":"x"}]}]}`
			job.ReviewApproved = false
			job.Status = queue.StatusAwaitingReview
			return nil
		},
	}
}

func completingStage(name string) *fakeStage {
	return &fakeStage{
		name: name,
		execute: func(ctx context.Context, job *queue.Job) error {
			job.SetCompleted(`{"generated_files":[]}`)
			return nil
		},
	}
}

func newManager(t *testing.T, stages workflow.StageSet) (*workflow.Manager, *queue.Store) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := workflow.NewManagerWithStages(cfg, store, logging.NewNop(), notifications.NewService(cfg), stages)
	return manager, store
}

func startManager(t *testing.T, manager *workflow.Manager) {
	t.Helper()
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(manager.Stop)
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	job, _ := store.GetByID(context.Background(), id)
	t.Fatalf("job %d never reached %s, last seen %#v", id, want, job)
	return nil
}

func TestManagerProcessesJobsOneAtATime(t *testing.T) {
	var concurrent, violations atomic.Int64
	manager, store := newManager(t, workflow.StageSet{
		Scripter: draftingStage(&concurrent, &violations),
		Voicer:   completingStage("voicing"),
		Renderer: completingStage("rendering"),
	})

	a := testsupport.NewPodcastJob(t, store, "job a")
	b := testsupport.NewPodcastJob(t, store, "job b")
	startManager(t, manager)
	manager.Kick()

	jobA := waitForStatus(t, store, a.ID, queue.StatusAwaitingReview)
	jobB := waitForStatus(t, store, b.ID, queue.StatusAwaitingReview)

	if violations.Load() != 0 {
		t.Fatalf("observed %d concurrent executions; expected a single flight", violations.Load())
	}
	if jobA.ScriptJSON == "" || jobB.ScriptJSON == "" {
		t.Fatal("expected drafted scripts on both jobs")
	}
	if jobA.ReviewApproved || jobB.ReviewApproved {
		t.Fatal("review gate must not be pre-approved")
	}
}

func TestManagerDispatchesApprovedReviewToVoicing(t *testing.T) {
	var voiced atomic.Int64
	voicer := &fakeStage{
		name: "voicing",
		execute: func(ctx context.Context, job *queue.Job) error {
			voiced.Add(1)
			job.SetCompleted(`{"generated_files":[{"filename":"a.mp3","block_name":"b"}]}`)
			return nil
		},
	}
	manager, store := newManager(t, workflow.StageSet{
		Scripter: &fakeStage{name: "scripting"},
		Voicer:   voicer,
		Renderer: completingStage("rendering"),
	})

	job := testsupport.NewPodcastJob(t, store, "approved")
	job.Status = queue.StatusAwaitingReview
	job.ReviewApproved = true
	job.ScriptJSON = `{"segments":[{"id":"s1","title":"t","position":0,"blocks":[{"name":"b","text":"x"}]}]}`
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	startManager(t, manager)
	manager.Kick()

	done := waitForStatus(t, store, job.ID, queue.StatusCompleted)
	if voiced.Load() != 1 {
		t.Fatalf("expected one voicing execution, got %d", voiced.Load())
	}
	if done.ResultJSON == "" || done.CompletedAt == nil {
		t.Fatalf("expected result payload and completion time: %#v", done)
	}
}

func TestManagerRetriedVoicingJobKeepsApprovedScript(t *testing.T) {
	approvedScript := `{"segments":[{"id":"s1","title":"t","position":0,"blocks":[{"name":"b","text":"edited by hand"}]}]}`
	var scripted, voiced atomic.Int64
	scripter := &fakeStage{
		name: "scripting",
		execute: func(ctx context.Context, job *queue.Job) error {
			scripted.Add(1)
			job.ScriptJSON = `{"segments":[{"id":"fresh","title":"t","position":0,"blocks":[{"name":"b","text":"regenerated"}]}]}`
			job.ReviewApproved = false
			job.Status = queue.StatusAwaitingReview
			return nil
		},
	}
	voicer := &fakeStage{
		name: "voicing",
		execute: func(ctx context.Context, job *queue.Job) error {
			voiced.Add(1)
			job.SetCompleted(`{"generated_files":[{"filename":"a.mp3","block_name":"b"}]}`)
			return nil
		},
	}
	manager, store := newManager(t, workflow.StageSet{
		Scripter: scripter,
		Voicer:   voicer,
		Renderer: completingStage("rendering"),
	})

	// A voicing failure followed by a user retry leaves the job waiting with
	// its approved script intact.
	job := testsupport.NewPodcastJob(t, store, "retried after voicing failure")
	job.Status = queue.StatusWaiting
	job.ReviewApproved = true
	job.ScriptJSON = approvedScript
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	startManager(t, manager)
	manager.Kick()

	done := waitForStatus(t, store, job.ID, queue.StatusCompleted)
	if scripted.Load() != 0 {
		t.Fatalf("scripting ran %d times; the approved script must not be regenerated", scripted.Load())
	}
	if voiced.Load() != 1 {
		t.Fatalf("expected one voicing execution, got %d", voiced.Load())
	}
	if done.ScriptJSON != approvedScript {
		t.Fatalf("approved script was replaced:\n got %q\nwant %q", done.ScriptJSON, approvedScript)
	}
}

func TestManagerDispatchesVideoJobsToRendering(t *testing.T) {
	var rendered atomic.Int64
	renderer := &fakeStage{
		name: "rendering",
		execute: func(ctx context.Context, job *queue.Job) error {
			rendered.Add(1)
			job.SetCompleted(`{"artifact_ref":"renders/x.mp4"}`)
			return nil
		},
	}
	manager, store := newManager(t, workflow.StageSet{
		Scripter: &fakeStage{name: "scripting"},
		Voicer:   completingStage("voicing"),
		Renderer: renderer,
	})

	source := testsupport.NewPodcastJob(t, store, "done")
	source.SetCompleted(`{"generated_files":[]}`)
	if err := store.Update(context.Background(), source); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	video := testsupport.NewVideoJob(t, store, source.ID)

	startManager(t, manager)
	manager.Kick()

	waitForStatus(t, store, video.ID, queue.StatusCompleted)
	if rendered.Load() != 1 {
		t.Fatalf("expected one rendering execution, got %d", rendered.Load())
	}
}

func TestManagerPersistsFailureMessageVerbatim(t *testing.T) {
	failing := &fakeStage{
		name: "scripting",
		execute: func(ctx context.Context, job *queue.Job) error {
			return services.Wrap(
				services.ErrExternalService, "scripting", "structure call",
				"Structure service failed; retry the job once the service recovers", nil)
		},
	}
	manager, store := newManager(t, workflow.StageSet{
		Scripter: failing,
		Voicer:   completingStage("voicing"),
		Renderer: completingStage("rendering"),
	})

	job := testsupport.NewPodcastJob(t, store, "doomed")
	startManager(t, manager)
	manager.Kick()

	failed := waitForStatus(t, store, job.ID, queue.StatusError)
	want := "scripting: structure call: Structure service failed; retry the job once the service recovers"
	if failed.ErrorMessage != want {
		t.Fatalf("error message mismatch:\n got %q\nwant %q", failed.ErrorMessage, want)
	}
}

func TestManagerCancelReleasesSlotAndDiscardsResult(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int64
	scripter := &fakeStage{
		name: "scripting",
		execute: func(ctx context.Context, job *queue.Job) error {
			if calls.Add(1) == 1 {
				<-release
				// Late result for a job the user already cancelled.
				job.Status = queue.StatusAwaitingReview
				job.ScriptJSON = `{"segments":[{"id":"s1","title":"t","position":0,"blocks":[{"name":"b","text":"x"}]}]}`
				return nil
			}
			job.Status = queue.StatusAwaitingReview
			return nil
		},
	}
	manager, store := newManager(t, workflow.StageSet{
		Scripter: scripter,
		Voicer:   completingStage("voicing"),
		Renderer: completingStage("rendering"),
	})

	victim := testsupport.NewPodcastJob(t, store, "cancelled mid-flight")
	startManager(t, manager)
	manager.Kick()

	waitForStatus(t, store, victim.ID, queue.StatusProcessing)

	ctx := context.Background()
	applied, err := store.TransitionStatus(ctx, victim.ID, queue.StatusProcessing, queue.StatusCancelled)
	if err != nil || !applied {
		t.Fatalf("cancel transition failed: applied=%v err=%v", applied, err)
	}
	manager.RequestCancel(victim.ID)

	// The slot must free up while the cancelled stage is still blocked.
	successor := testsupport.NewPodcastJob(t, store, "next in line")
	manager.Kick()
	waitForStatus(t, store, successor.ID, queue.StatusAwaitingReview)

	close(release)
	time.Sleep(50 * time.Millisecond)

	cancelled, err := store.GetByID(ctx, victim.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if cancelled.Status != queue.StatusCancelled {
		t.Fatalf("late result must not resurrect the job, got %s", cancelled.Status)
	}
	if cancelled.ScriptJSON != "" {
		t.Fatal("late draft content must be discarded")
	}
}

func TestManagerReclaimsStaleProcessingOnStart(t *testing.T) {
	manager, store := newManager(t, workflow.StageSet{
		Scripter: &fakeStage{name: "scripting"},
		Voicer:   completingStage("voicing"),
		Renderer: completingStage("rendering"),
	})

	orphan := testsupport.NewPodcastJob(t, store, "interrupted")
	orphan.Status = queue.StatusProcessing
	if err := store.Update(context.Background(), orphan); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	startManager(t, manager)

	reclaimed := waitForStatus(t, store, orphan.ID, queue.StatusError)
	if reclaimed.ErrorMessage != queue.StaleRestartMessage {
		t.Fatalf("unexpected reclaim message: %q", reclaimed.ErrorMessage)
	}
}

func TestManagerStatusReportsStageHealth(t *testing.T) {
	manager, _ := newManager(t, workflow.StageSet{
		Scripter: &fakeStage{name: "scripting"},
		Voicer:   &fakeStage{name: "voicing"},
		Renderer: &fakeStage{name: "rendering"},
	})

	summary := manager.Status(context.Background())
	if summary.Running {
		t.Fatal("manager not started yet")
	}
	if len(summary.StageHealth) != 3 {
		t.Fatalf("expected 3 stage health entries, got %#v", summary.StageHealth)
	}
	for name, health := range summary.StageHealth {
		if !health.Ready {
			t.Fatalf("stage %s unexpectedly unhealthy", name)
		}
	}
}
