package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"storycast/internal/daemon"
	"storycast/internal/ipc"
	"storycast/internal/logging"
	"storycast/internal/queue"
	"storycast/internal/testsupport"
	"storycast/internal/workflow"
)

func newIPCPair(t *testing.T) (*ipc.Client, *queue.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	manager := workflow.NewManager(cfg, store, logging.NewNop())
	d, err := daemon.New(cfg, store, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socketPath := filepath.Join(cfg.Paths.DataDir, "storycastd.sock")
	server, err := ipc.NewServer(ctx, socketPath, d, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(socketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, store
}

func TestIPCStartStatusStop(t *testing.T) {
	client, _ := newIPCPair(t)

	started, err := client.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !started.Started {
		t.Fatalf("daemon did not start: %s", started.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Running {
		t.Fatal("status should report running")
	}
	if status.PID <= 0 || status.QueueDBPath == "" {
		t.Fatalf("incomplete status: %#v", status)
	}
	if len(status.StageHealth) != 3 {
		t.Fatalf("expected 3 stage health entries, got %#v", status.StageHealth)
	}

	stopped, err := client.Stop()
	if err != nil || !stopped.Stopped {
		t.Fatalf("Stop failed: %v %#v", err, stopped)
	}
}

func TestIPCQueueRoundTrip(t *testing.T) {
	client, _ := newIPCPair(t)

	added, err := client.QueueAdd(ipc.QueueAddRequest{
		Prompt:         "a short history of semaphores",
		TargetDuration: 8,
	})
	if err != nil {
		t.Fatalf("QueueAdd failed: %v", err)
	}
	if added.Job.Status != string(queue.StatusWaiting) {
		t.Fatalf("new job status = %s", added.Job.Status)
	}

	list, err := client.QueueList(nil)
	if err != nil || len(list.Jobs) != 1 {
		t.Fatalf("QueueList: err=%v jobs=%#v", err, list)
	}

	described, err := client.QueueDescribe(added.Job.ID)
	if err != nil {
		t.Fatalf("QueueDescribe failed: %v", err)
	}
	if described.Job.Prompt != "a short history of semaphores" {
		t.Fatalf("unexpected job: %#v", described.Job)
	}

	cancelled, err := client.QueueCancel(added.Job.ID)
	if err != nil {
		t.Fatalf("QueueCancel failed: %v", err)
	}
	if cancelled.Job.Status != string(queue.StatusCancelled) {
		t.Fatalf("cancel status = %s", cancelled.Job.Status)
	}

	removed, err := client.QueueRemove(added.Job.ID)
	if err != nil || !removed.Removed {
		t.Fatalf("QueueRemove: err=%v resp=%#v", err, removed)
	}
}

func TestIPCQueueAddValidationError(t *testing.T) {
	client, _ := newIPCPair(t)

	_, err := client.QueueAdd(ipc.QueueAddRequest{Prompt: "   "})
	if err == nil {
		t.Fatal("expected validation error over IPC")
	}
	if !strings.Contains(err.Error(), "prompt") {
		t.Fatalf("error should mention the prompt: %v", err)
	}
}

func TestIPCReviewConfirm(t *testing.T) {
	client, store := newIPCPair(t)

	job := testsupport.NewPodcastJob(t, store, "drafted")
	job.Status = queue.StatusAwaitingReview
	job.ScriptJSON = `{"segments":[{"id":"s1","title":"t","position":0,` +
		`"blocks":[{"name":"narration","text":"hello"}]}]}`
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	confirmed, err := client.ReviewConfirm(job.ID, "")
	if err != nil {
		t.Fatalf("ReviewConfirm failed: %v", err)
	}
	if !confirmed.Job.ReviewApproved {
		t.Fatal("review not approved")
	}

	rejectable := testsupport.NewPodcastJob(t, store, "second draft")
	rejectable.Status = queue.StatusAwaitingReview
	rejectable.ScriptJSON = job.ScriptJSON
	if err := store.Update(context.Background(), rejectable); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	rejected, err := client.ReviewReject(rejectable.ID)
	if err != nil {
		t.Fatalf("ReviewReject failed: %v", err)
	}
	if rejected.Job.Status != string(queue.StatusError) {
		t.Fatalf("reject status = %s", rejected.Job.Status)
	}
}

func TestIPCForceDispatchAndLogTail(t *testing.T) {
	client, _ := newIPCPair(t)

	dispatched, err := client.ForceDispatch()
	if err != nil {
		t.Fatalf("ForceDispatch failed: %v", err)
	}
	if !dispatched.Triggered {
		t.Fatal("dispatch not acknowledged")
	}

	// Nothing has logged yet; an absent log file is not an error.
	tail, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("LogTail failed: %v", err)
	}
	if len(tail.Lines) != 0 {
		t.Fatalf("expected no log lines, got %#v", tail.Lines)
	}
}
