package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storycast/internal/queue"
	"storycast/internal/testsupport"
)

const draftedScript = `{"segments":[{"id":"s1","title":"Opening","position":0,` +
	`"blocks":[{"name":"narration","text":"hello"}]}]}`

func parkJobAtReview(t *testing.T, env *cliTestEnv) *queue.Job {
	t.Helper()
	job := testsupport.NewPodcastJob(t, env.store, "drafted topic")
	job.Status = queue.StatusAwaitingReview
	job.ScriptJSON = draftedScript
	if err := env.store.Update(context.Background(), job); err != nil {
		t.Fatalf("park job at review: %v", err)
	}
	return job
}

func TestReviewListShowsPendingJobs(t *testing.T) {
	env := setupCLITestEnv(t)
	parkJobAtReview(t, env)

	out, _, err := runCLI(t, []string{"review", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("review list: %v", err)
	}
	requireContains(t, out, "drafted topic")
	requireContains(t, out, "awaiting_review")
}

func TestReviewListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"review", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("review list: %v", err)
	}
	requireContains(t, out, "No jobs awaiting review")
}

func TestReviewShowPrintsScript(t *testing.T) {
	env := setupCLITestEnv(t)
	job := parkJobAtReview(t, env)

	out, _, err := runCLI(t, []string{"review", "show", fmt.Sprintf("%d", job.ID), "--script-only"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("review show: %v", err)
	}
	requireContains(t, out, `"segments"`)
	requireContains(t, out, "Opening")
}

func TestReviewConfirmApprovesJob(t *testing.T) {
	env := setupCLITestEnv(t)
	job := parkJobAtReview(t, env)

	out, _, err := runCLI(t, []string{"review", "confirm", fmt.Sprintf("%d", job.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("review confirm: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Job %d approved", job.ID))

	updated, err := env.store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if !updated.ReviewApproved {
		t.Fatal("review not marked approved")
	}
}

func TestReviewConfirmWithEditedScript(t *testing.T) {
	env := setupCLITestEnv(t)
	job := parkJobAtReview(t, env)

	edited := `{"segments":[{"id":"s1","title":"Opening","position":0,` +
		`"blocks":[{"name":"narration","text":"hello again"}]}]}`
	scriptPath := filepath.Join(t.TempDir(), "edited.json")
	if err := os.WriteFile(scriptPath, []byte(edited), 0o644); err != nil {
		t.Fatalf("write edited script: %v", err)
	}

	out, _, err := runCLI(t, []string{"review", "confirm", fmt.Sprintf("%d", job.ID), "--script", scriptPath}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("review confirm --script: %v", err)
	}
	requireContains(t, out, "approved with edited script")

	updated, err := env.store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if !strings.Contains(updated.ScriptJSON, "hello again") {
		t.Fatal("edited script was not persisted")
	}
}

func TestReviewRejectFailsJob(t *testing.T) {
	env := setupCLITestEnv(t)
	job := parkJobAtReview(t, env)

	out, _, err := runCLI(t, []string{"review", "reject", fmt.Sprintf("%d", job.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("review reject: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Job %d rejected", job.ID))

	updated, err := env.store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if updated.Status != queue.StatusError {
		t.Fatalf("expected error status, got %s", updated.Status)
	}
	if updated.ErrorMessage != queue.ReviewAbandonedMessage {
		t.Fatalf("expected abandonment message, got %q", updated.ErrorMessage)
	}
}

func TestReviewConfirmRejectsNonReviewJob(t *testing.T) {
	env := setupCLITestEnv(t)
	job := testsupport.NewPodcastJob(t, env.store, "still waiting")

	_, _, err := runCLI(t, []string{"review", "confirm", fmt.Sprintf("%d", job.ID)}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error confirming a waiting job")
	}
}
