package testsupport

import (
	"context"
	"testing"

	"storycast/internal/config"
	"storycast/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewPodcastJob enqueues a podcast job for tests using the provided store.
func NewPodcastJob(t testing.TB, store *queue.Store, prompt string) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), queue.NewJobParams{
		Kind:            queue.KindPodcast,
		Prompt:          prompt,
		AssistantRef:    "asst-test",
		VoiceRef:        "alloy",
		TargetDuration:  10,
		TargetWordCount: 1500,
	})
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}

// NewVideoJob enqueues a video job referencing a completed podcast job.
func NewVideoJob(t testing.TB, store *queue.Store, sourceJobID int64) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), queue.NewJobParams{
		Kind:        queue.KindVideo,
		Prompt:      "assemble video",
		SourceJobID: sourceJobID,
	})
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
