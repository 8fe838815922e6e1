package main

import (
	"context"
	"strings"

	"storycast/internal/api"
	"storycast/internal/ipc"
	"storycast/internal/queue"
)

// queueAPI abstracts queue operations so commands work both against a
// running daemon (IPC) and directly against the store when it is down.
type queueAPI interface {
	Add(ctx context.Context, req api.EnqueueRequest) (*api.Job, error)
	AddVideo(ctx context.Context, sourceJobID int64, forceRegenerate bool) (*api.Job, error)
	List(ctx context.Context, statuses []string) ([]api.Job, error)
	Describe(ctx context.Context, id int64) (*api.Job, error)
	Retry(ctx context.Context, id int64) (*api.Job, error)
	Cancel(ctx context.Context, id int64) (*api.Job, error)
	Remove(ctx context.Context, id int64) error
	Clear(ctx context.Context, completedOnly bool) (int64, error)
	ConfirmReview(ctx context.Context, id int64, editedScript string) (*api.Job, error)
	RejectReview(ctx context.Context, id int64) (*api.Job, error)
	Counts(ctx context.Context) (map[string]int, error)
}

// withQueue runs fn against the daemon when reachable, otherwise against the
// queue database directly.
func (c *commandContext) withQueue(fn func(q queueAPI) error) error {
	client, err := ipc.Dial(c.socketPath())
	if err == nil {
		defer client.Close()
		return fn(&queueIPCAdapter{client: client})
	}

	cfg, cfgErr := c.ensureConfig()
	if cfgErr != nil {
		return cfgErr
	}
	store, openErr := queue.Open(cfg)
	if openErr != nil {
		return openErr
	}
	defer store.Close()
	return fn(&queueStoreAdapter{
		store:   store,
		service: api.NewQueueService(cfg, store, nil),
	})
}

// --- IPC adapter ---

type queueIPCAdapter struct {
	client *ipc.Client
}

func (a *queueIPCAdapter) Add(_ context.Context, req api.EnqueueRequest) (*api.Job, error) {
	resp, err := a.client.QueueAdd(ipc.QueueAddRequest{
		Prompt:          req.Prompt,
		AssistantRef:    req.AssistantRef,
		VoiceRef:        req.VoiceRef,
		TargetDuration:  req.TargetDuration,
		TargetWordCount: req.TargetWordCount,
	})
	if err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

func (a *queueIPCAdapter) AddVideo(_ context.Context, sourceJobID int64, forceRegenerate bool) (*api.Job, error) {
	resp, err := a.client.QueueAddVideo(ipc.QueueAddVideoRequest{
		SourceJobID:     sourceJobID,
		ForceRegenerate: forceRegenerate,
	})
	if err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

func (a *queueIPCAdapter) List(_ context.Context, statuses []string) ([]api.Job, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (a *queueIPCAdapter) Describe(_ context.Context, id int64) (*api.Job, error) {
	resp, err := a.client.QueueDescribe(id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, nil
		}
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return &resp.Job, nil
}

func (a *queueIPCAdapter) Retry(_ context.Context, id int64) (*api.Job, error) {
	resp, err := a.client.QueueRetry(id)
	if err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

func (a *queueIPCAdapter) Cancel(_ context.Context, id int64) (*api.Job, error) {
	resp, err := a.client.QueueCancel(id)
	if err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

func (a *queueIPCAdapter) Remove(_ context.Context, id int64) error {
	_, err := a.client.QueueRemove(id)
	return err
}

func (a *queueIPCAdapter) Clear(_ context.Context, completedOnly bool) (int64, error) {
	resp, err := a.client.QueueClear(completedOnly)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *queueIPCAdapter) ConfirmReview(_ context.Context, id int64, editedScript string) (*api.Job, error) {
	resp, err := a.client.ReviewConfirm(id, editedScript)
	if err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

func (a *queueIPCAdapter) RejectReview(_ context.Context, id int64) (*api.Job, error) {
	resp, err := a.client.ReviewReject(id)
	if err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

func (a *queueIPCAdapter) Counts(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueCounts, nil
}

// --- Store adapter ---

type queueStoreAdapter struct {
	store   *queue.Store
	service *api.QueueService
}

func (a *queueStoreAdapter) Add(ctx context.Context, req api.EnqueueRequest) (*api.Job, error) {
	return a.service.Enqueue(ctx, req)
}

func (a *queueStoreAdapter) AddVideo(ctx context.Context, sourceJobID int64, forceRegenerate bool) (*api.Job, error) {
	return a.service.EnqueueVideo(ctx, sourceJobID, forceRegenerate)
}

func (a *queueStoreAdapter) List(ctx context.Context, statuses []string) ([]api.Job, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	return a.service.List(ctx, filters...)
}

func (a *queueStoreAdapter) Describe(ctx context.Context, id int64) (*api.Job, error) {
	return a.service.Describe(ctx, id)
}

func (a *queueStoreAdapter) Retry(ctx context.Context, id int64) (*api.Job, error) {
	return a.service.Retry(ctx, id)
}

func (a *queueStoreAdapter) Cancel(ctx context.Context, id int64) (*api.Job, error) {
	return a.service.Cancel(ctx, id)
}

func (a *queueStoreAdapter) Remove(ctx context.Context, id int64) error {
	return a.service.Remove(ctx, id)
}

func (a *queueStoreAdapter) Clear(ctx context.Context, completedOnly bool) (int64, error) {
	if completedOnly {
		return a.service.ClearCompleted(ctx)
	}
	return a.service.Clear(ctx)
}

func (a *queueStoreAdapter) ConfirmReview(ctx context.Context, id int64, editedScript string) (*api.Job, error) {
	return a.service.ConfirmReview(ctx, id, editedScript)
}

func (a *queueStoreAdapter) RejectReview(ctx context.Context, id int64) (*api.Job, error) {
	return a.service.AbandonReview(ctx, id)
}

func (a *queueStoreAdapter) Counts(ctx context.Context) (map[string]int, error) {
	health, err := a.store.Health(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int{
		string(queue.StatusWaiting):        health.Waiting,
		string(queue.StatusProcessing):     health.Processing,
		string(queue.StatusAwaitingReview): health.AwaitingReview,
		string(queue.StatusCompleted):      health.Completed,
		string(queue.StatusError):          health.Errored,
		string(queue.StatusCancelled):      health.Cancelled,
	}, nil
}
