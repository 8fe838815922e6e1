// Package daemonrun wires together the storycastd process: logging, queue
// store, workflow manager, IPC server, and signal handling.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"storycast/internal/config"
	"storycast/internal/daemon"
	"storycast/internal/ipc"
	"storycast/internal/logging"
	"storycast/internal/queue"
	"storycast/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	SocketPath string
	LogLevel   string
}

// Run starts the storycast daemon runtime loop and blocks until a signal.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "storycast.log")
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "storycast.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	manager := workflow.NewManager(cfg, store, logger)
	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = SocketPath(cfg)
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and queue database access"))
	}

	<-signalCtx.Done()
	logger.Info("storycast daemon shutting down")
	return nil
}

// SocketPath returns the default IPC socket location for a configuration.
func SocketPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "storycast.sock")
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
