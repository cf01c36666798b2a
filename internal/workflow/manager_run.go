package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"treeline/internal/logging"
	"treeline/internal/queue"
)

func (m *Manager) runLoop(ctx context.Context) {
	defer m.wg.Done()

	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStaleRuns(ctx, logger); err != nil {
			logger.Warn("reclaim stale processing failed; stuck runs may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check run database access"),
			)
		}

		run, err := m.store.NextForStatuses(ctx, m.statusOrder...)
		if err != nil {
			m.handleNextRunError(ctx, logger, err)
			continue
		}
		if run == nil {
			m.waitForRunOrShutdown(ctx)
			continue
		}

		if err := m.processRun(ctx, run); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

// ProcessRunToCompletion drives one run through every remaining stage
// synchronously. Used by the one-shot CLI path.
func (m *Manager) ProcessRunToCompletion(ctx context.Context, runID int64) (*queue.Run, error) {
	for {
		run, err := m.store.GetByID(ctx, runID)
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, errors.New("run not found")
		}
		if run.IsTerminal() {
			return run, nil
		}
		if _, ok := m.stageByStart[run.Status]; !ok {
			return run, nil
		}
		if err := m.processRun(ctx, run); err != nil {
			latest, getErr := m.store.GetByID(ctx, runID)
			if getErr != nil || latest == nil {
				return run, err
			}
			return latest, err
		}
	}
}

func (m *Manager) handleNextRunError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to fetch next run",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check run database access"),
	)
	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}

func (m *Manager) waitForRunOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.pollInterval):
	}
}
