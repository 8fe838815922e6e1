package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"storycast/internal/config"
	"storycast/internal/logging"
	"storycast/internal/notifications"
	"storycast/internal/queue"
	"storycast/internal/rendering"
	"storycast/internal/scripting"
	"storycast/internal/stage"
	"storycast/internal/voicing"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Scripter stage.Handler
	Voicer   stage.Handler
	Renderer stage.Handler
}

// Manager coordinates queue processing using the registered stage handlers.
type Manager struct {
	cfg           *config.Config
	store         *queue.Store
	logger        *slog.Logger
	notifier      notifications.Service
	stages        StageSet
	pollInterval  time.Duration
	retryInterval time.Duration

	wake chan struct{}

	mu            sync.RWMutex
	running       bool
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	lastErr       error
	lastJob       *queue.Job
	currentJobID  int64
	currentCancel context.CancelFunc

	queueActive bool
	queueStart  time.Time
	processed   int
	failed      int
}

// NewManager constructs a workflow manager with the default stage handlers.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithStages(cfg, store, logger, notifications.NewService(cfg), StageSet{
		Scripter: scripting.NewScripter(cfg, store, logger),
		Voicer:   voicing.NewVoicer(cfg, store, logger),
		Renderer: rendering.NewRenderer(cfg, store, logger),
	})
}

// NewManagerWithStages allows injecting stage handlers and the notifier
// (used in tests).
func NewManagerWithStages(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, stages StageSet) *Manager {
	return &Manager{
		cfg:           cfg,
		store:         store,
		logger:        logger,
		notifier:      notifier,
		stages:        stages,
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		wake:          make(chan struct{}, 1),
	}
}

// Start begins background processing. Jobs left processing by an earlier
// run are reclaimed before the loop starts dispatching.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.stages.Scripter == nil || m.stages.Voicer == nil || m.stages.Renderer == nil {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	if reclaimed, err := m.store.ReclaimStale(ctx); err != nil {
		m.logger.Warn("reclaim stale processing failed; stuck jobs may remain", logging.Error(err))
	} else if reclaimed > 0 {
		m.logger.Info("reclaimed stale processing jobs", logging.Int64("count", reclaimed))
	}

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Kick wakes the dispatch loop after a queue mutation. Safe to call from
// any goroutine; a pending wake coalesces with new ones.
func (m *Manager) Kick() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// RequestCancel interrupts the named job if it is the one currently
// processing. The caller is responsible for the status transition; the
// in-flight stage result is discarded when it eventually arrives.
func (m *Manager) RequestCancel(jobID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentJobID != jobID || m.currentCancel == nil {
		return false
	}
	m.currentCancel()
	return true
}

func (m *Manager) setCurrent(jobID int64, cancel context.CancelFunc) {
	m.mu.Lock()
	m.currentJobID = jobID
	m.currentCancel = cancel
	m.mu.Unlock()
}

func (m *Manager) clearCurrent(jobID int64) {
	m.mu.Lock()
	if m.currentJobID == jobID {
		m.currentJobID = 0
		m.currentCancel = nil
	}
	m.mu.Unlock()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	if job != nil {
		snapshot := *job
		m.lastJob = &snapshot
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
