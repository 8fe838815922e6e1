package main

import (
	"testing"

	"storycast/internal/testsupport"
)

func TestStatusWithoutRunningWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon")
	requireContains(t, out, "Not running")
	requireContains(t, out, "Queue Status")
	requireContains(t, out, "Queue is empty")
}

func TestStartThenStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon started")

	testsupport.NewPodcastJob(t, env.store, "status check topic")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running")
	requireContains(t, out, "Stage Health")
	requireContains(t, out, "waiting")
}

func TestStartIsIdempotent(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("first start: %v", err)
	}
	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	requireContains(t, out, "Daemon already running")
}
