package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/services"
	"treeline/internal/stage"
)

func (m *Manager) processRun(ctx context.Context, run *queue.Run) error {
	stg, ok := m.stageByStart[run.Status]
	if !ok {
		m.logger.Warn("no stage configured for status", logging.String("status", string(run.Status)))
		m.waitForRunOrShutdown(ctx)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := services.WithRunID(ctx, run.ID)
	stageCtx = services.WithStage(stageCtx, stg.name)
	stageCtx = services.WithRequestID(stageCtx, requestID)
	stageLogger := logging.WithContext(stageCtx, m.logger)

	if err := m.transitionToProcessing(stageCtx, stg, run); err != nil {
		stageLogger.Error("failed to transition run to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, run)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, run *queue.Run) error {
	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("dataset", strings.TrimSpace(run.DatasetName)),
	)

	handler := stg.handler
	if handler == nil {
		stageLogger.Warn("missing stage handler", logging.String("stage", stg.name))
		run.Status = queue.StatusFailed
		run.ErrorMessage = fmt.Sprintf("stage %s missing handler", stg.name)
		if err := m.store.Update(ctx, run); err != nil {
			stageLogger.Error("failed to persist missing handler failure", logging.Error(err))
		}
		err := errors.New("stage handler unavailable")
		m.setLastError(err)
		return err
	}

	if err := handler.Prepare(ctx, run); err != nil {
		m.handleStageFailure(ctx, stg.name, run, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(ctx, run); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, handler, run)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stg.name, run, execErr)
		m.setLastError(execErr)
		return execErr
	}

	if run.Status == stg.processingStatus || run.Status == "" {
		run.Status = stg.doneStatus
	}
	run.LastHeartbeat = nil
	if run.Status == queue.StatusCompleted {
		if run.ProgressPercent < 100 {
			run.ProgressPercent = 100
		}
		if strings.TrimSpace(run.ProgressMessage) == "" {
			run.ProgressMessage = "Completed"
		}
		if strings.TrimSpace(run.ProgressStage) == "" {
			run.ProgressStage = "Completed"
		}
	}
	if err := m.store.Update(ctx, run); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(run.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)

	if run.Status == queue.StatusSubmitted && run.JobName != "" && m.notifier != nil {
		if err := m.notifier.NotifyJobSubmitted(ctx, run.JobName); err != nil {
			stageLogger.Warn("job submission notification failed", logging.Error(err))
		}
	}
	if run.Status == queue.StatusCompleted && m.notifier != nil {
		if err := m.notifier.NotifyRunCompleted(ctx, run.DatasetName, run.JobName, run.ChartFile); err != nil {
			stageLogger.Warn("run completion notification failed", logging.Error(err))
		}
	}
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, run *queue.Run) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, run.ID)

	execErr := handler.Execute(ctx, run)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) transitionToProcessing(ctx context.Context, stg pipelineStage, run *queue.Run) error {
	if stg.processingStatus == "" {
		return errors.New("processing status must not be empty")
	}

	now := time.Now().UTC()
	run.Status = stg.processingStatus
	if run.ProgressStage == "" {
		run.ProgressStage = stg.name
	}
	if run.ProgressMessage == "" {
		run.ProgressMessage = fmt.Sprintf("%s started", stg.name)
	}
	run.ProgressPercent = 0
	run.ErrorMessage = ""
	run.LastHeartbeat = &now

	if err := m.store.Update(ctx, run); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	return nil
}

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, run *queue.Run, stageErr error) {
	logger := logging.WithContext(ctx, m.logger)
	run.SetFailed(stageErr.Error())
	if err := m.store.Update(ctx, run); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
	logger.Error(
		"stage failed",
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failed"),
		logging.String("stage", stageName),
		logging.Bool("retryable", services.IsRetryable(stageErr)),
	)
	if m.notifier != nil {
		if err := m.notifier.NotifyError(ctx, stageErr, stageName); err != nil {
			logger.Warn("error notification failed", logging.Error(err))
		}
	}
}
