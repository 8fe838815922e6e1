package workflow

import (
	"context"
	"time"

	"log/slog"

	"storycast/internal/logging"
)

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow-manager")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.store.NextEligible(ctx)
		if err != nil {
			m.handleFetchError(ctx, logger, err)
			continue
		}
		if job == nil {
			m.checkQueueDrained(ctx, logger)
			m.waitForWork(ctx)
			continue
		}

		m.markQueueActive()
		m.processJob(ctx, logger, job)
	}
}

func (m *Manager) handleFetchError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to fetch next queue job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(m.retryInterval):
	}
}

// waitForWork blocks until a queue mutation kicks the loop, the poll
// interval elapses, or shutdown begins.
func (m *Manager) waitForWork(ctx context.Context) {
	timer := time.NewTimer(m.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-timer.C:
	}
}

func (m *Manager) markQueueActive() {
	m.mu.Lock()
	if !m.queueActive {
		m.queueActive = true
		m.queueStart = time.Now()
		m.processed = 0
		m.failed = 0
	}
	m.mu.Unlock()
}

func (m *Manager) checkQueueDrained(ctx context.Context, logger *slog.Logger) {
	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = false
	processed := m.processed
	failed := m.failed
	elapsed := time.Since(m.queueStart)
	m.mu.Unlock()

	logger.Info("queue drained",
		logging.Int("processed", processed),
		logging.Int("failed", failed),
		logging.Duration("elapsed", elapsed),
	)
	if m.notifier != nil {
		if err := m.notifier.NotifyQueueCompleted(ctx, processed, failed, elapsed); err != nil {
			logger.Warn("queue notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) countProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *Manager) countFailed() {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}
