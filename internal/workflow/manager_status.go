package workflow

import (
	"context"

	"storycast/internal/logging"
	"storycast/internal/queue"
	"storycast/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastJob     *queue.Job
	Queue       queue.HealthSummary
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	stages := m.stages
	m.mu.RUnlock()

	summary := StatusSummary{Running: running}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		snapshot := *lastJob
		summary.LastJob = &snapshot
	}

	health, err := m.store.Health(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue health", logging.Error(err))
	} else {
		summary.Queue = health
	}

	summary.StageHealth = make(map[string]stage.Health, 3)
	for name, handler := range map[string]stage.Handler{
		"scripting": stages.Scripter,
		"voicing":   stages.Voicer,
		"rendering": stages.Renderer,
	} {
		if handler == nil {
			continue
		}
		summary.StageHealth[name] = handler.HealthCheck(ctx)
	}
	return summary
}
