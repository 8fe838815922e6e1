package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"storycast/internal/api"
	"storycast/internal/config"
	"storycast/internal/logging"
	"storycast/internal/notifications"
	"storycast/internal/queue"
	"storycast/internal/workflow"
)

// Daemon coordinates background processing and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	queueSvc *api.QueueService
	logPath  string

	lockPath string
	lock     *flock.Flock

	apiSrv *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "storycastd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		logPath:  filepath.Join(cfg.Paths.LogDir, "storycast.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.queueSvc = api.NewQueueService(cfg, store, wf)

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiSrv = srv
	return d, nil
}

// Start acquires the daemon lock and launches the workflow manager and the
// HTTP status server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another storycast daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.apiSrv.start(d.ctx); err != nil {
		d.workflow.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("storycast daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiSrv.stop()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("storycast daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Queue exposes the validated queue operations backing IPC and HTTP callers.
func (d *Daemon) Queue() *api.QueueService {
	return d.queueSvc
}

// TestNotification sends a notification through the configured channel.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// APIAddress reports the bound HTTP status address, empty when disabled.
func (d *Daemon) APIAddress() string {
	return d.apiSrv.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     summary,
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
