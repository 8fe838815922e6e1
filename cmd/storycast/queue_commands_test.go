package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"storycast/internal/queue"
	"storycast/internal/testsupport"
)

func TestAddQueuesJob(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"add", "a short history of lighthouses"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Queued job 1")

	job, err := env.store.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if job == nil {
		t.Fatal("job was not created")
	}
	if job.Status != queue.StatusWaiting {
		t.Fatalf("expected waiting, got %s", job.Status)
	}
	if job.Prompt != "a short history of lighthouses" {
		t.Fatalf("unexpected prompt %q", job.Prompt)
	}
}

func TestAddRejectsEmptyPrompt(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"add", "   "}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "prompt") {
		t.Fatalf("expected prompt validation error, got %v", err)
	}
}

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	testsupport.NewPodcastJob(t, env.store, "alpha topic")
	beta := testsupport.NewPodcastJob(t, env.store, "beta topic")
	beta.SetFailed("draft generation failed")
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("mark beta errored: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "waiting")
	requireContains(t, out, "error")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "alpha topic")
	requireContains(t, out, "beta topic")
}

func TestQueueListJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewPodcastJob(t, env.store, "alpha topic")
	testsupport.NewPodcastJob(t, env.store, "beta topic")

	out, _, err := runCLI(t, []string{"queue", "list", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}

	var jobs []map[string]any
	if err := json.Unmarshal([]byte(out), &jobs); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	for _, job := range jobs {
		if _, ok := job["id"]; !ok {
			t.Fatal("missing 'id' key in JSON job")
		}
		if _, ok := job["status"]; !ok {
			t.Fatal("missing 'status' key in JSON job")
		}
	}
}

func TestQueueListStatusFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	testsupport.NewPodcastJob(t, env.store, "alpha topic")
	beta := testsupport.NewPodcastJob(t, env.store, "beta topic")
	beta.SetFailed("draft generation failed")
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("mark beta errored: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "list", "--status", "error"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list --status error: %v", err)
	}
	requireContains(t, out, "beta topic")
	if strings.Contains(out, "alpha topic") {
		t.Fatalf("waiting job leaked into errored listing:\n%s", out)
	}
}

func TestQueueShow(t *testing.T) {
	env := setupCLITestEnv(t)

	job := testsupport.NewPodcastJob(t, env.store, "alpha topic")

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", job.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Job %d (podcast)", job.ID))
	requireContains(t, out, "alpha topic")
	requireContains(t, out, "waiting")
}

func TestQueueShowJSONNotFound(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "show", "9999"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestQueueRetryRequeuesErroredJob(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	job := testsupport.NewPodcastJob(t, env.store, "alpha topic")
	job.SetFailed("voice synthesis failed")
	if err := env.store.Update(ctx, job); err != nil {
		t.Fatalf("mark errored: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry", fmt.Sprintf("%d", job.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Job %d requeued", job.ID))

	updated, err := env.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if updated.Status != queue.StatusWaiting {
		t.Fatalf("expected waiting, got %s", updated.Status)
	}
	if updated.ErrorMessage != "" {
		t.Fatalf("expected cleared error, got %q", updated.ErrorMessage)
	}
}

func TestQueueCancelWaitingJob(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	job := testsupport.NewPodcastJob(t, env.store, "alpha topic")

	out, _, err := runCLI(t, []string{"queue", "cancel", fmt.Sprintf("%d", job.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue cancel: %v", err)
	}
	requireContains(t, out, "cancelled")

	updated, err := env.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if updated.Status != queue.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
}

func TestQueueRemoveAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	alpha := testsupport.NewPodcastJob(t, env.store, "alpha topic")
	beta := testsupport.NewPodcastJob(t, env.store, "beta topic")
	beta.SetCompleted(`{"artifact":"episode.mp3"}`)
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("mark beta completed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "remove", fmt.Sprintf("%d", alpha.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Job %d removed", alpha.ID))

	out, _, err = runCLI(t, []string{"queue", "clear", "--completed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear --completed: %v", err)
	}
	requireContains(t, out, "Cleared 1 completed jobs")

	remaining, err := env.store.List(ctx)
	if err != nil {
		t.Fatalf("list remaining: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty queue, got %d jobs", len(remaining))
	}
}

func TestQueueRetryInvalidID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "retry", "abc"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid job id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestQueueCommandsFallBackToStore(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewPodcastJob(t, env.store, "alpha topic")

	// A socket nobody listens on forces the direct store path.
	deadSocket := filepath.Join(t.TempDir(), "missing.sock")
	out, _, err := runCLI(t, []string{"queue", "list"}, deadSocket, env.configPath)
	if err != nil {
		t.Fatalf("queue list without daemon: %v", err)
	}
	requireContains(t, out, "alpha topic")

	out, _, err = runCLI(t, []string{"add", "offline enqueue"}, deadSocket, env.configPath)
	if err != nil {
		t.Fatalf("add without daemon: %v", err)
	}
	requireContains(t, out, "Queued job")
}
