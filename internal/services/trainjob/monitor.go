package trainjob

import (
	"context"
	"log/slog"
	"time"

	"treeline/internal/config"
	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/services"
	"treeline/internal/stage"
)

// Monitor is the stage handler that polls a submitted training job until it
// reaches a terminal status. Intermediate state is persisted on every status
// change so queue listings reflect live progress.
type Monitor struct {
	cfg          *config.Config
	svc          *Service
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
}

// NewMonitor constructs a Monitor stage handler.
func NewMonitor(cfg *config.Config, svc *Service, store *queue.Store, logger *slog.Logger) *Monitor {
	return &Monitor{
		cfg:          cfg,
		svc:          svc,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "monitor"),
		pollInterval: time.Duration(cfg.Workflow.JobPollInterval) * time.Second,
	}
}

// Prepare verifies the run references a submitted job.
func (m *Monitor) Prepare(ctx context.Context, run *queue.Run) error {
	if run.JobName == "" {
		return services.Wrap(services.ErrValidation, "monitor", "prepare",
			"run has no training job name", nil)
	}
	run.SetProgress("monitor", "Waiting for training job", 0)
	return nil
}

// Execute polls the training job until completion. A daemon shutdown leaves
// the job running; the run is reclaimed and polling resumes on restart.
func (m *Monitor) Execute(ctx context.Context, run *queue.Run) error {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	lastSecondary := ""
	for {
		state, err := m.svc.Describe(ctx, run.JobName)
		if err != nil {
			return err
		}

		run.SecondaryStatus = state.SecondaryStatus
		run.BillableSeconds = state.BillableSeconds
		if state.ModelArtifact != "" {
			run.ModelArtifact = state.ModelArtifact
		}

		if state.SecondaryStatus != lastSecondary {
			lastSecondary = state.SecondaryStatus
			run.SetProgress("monitor", "Training: "+state.SecondaryStatus, progressForSecondary(state.SecondaryStatus))
			if err := m.store.Update(ctx, run); err != nil {
				m.logger.Warn("failed to persist job progress",
					logging.Int64(logging.FieldRunID, run.ID), logging.Error(err))
			}
			m.logger.Info("training job status",
				logging.String(logging.FieldJobName, run.JobName),
				logging.String("status", state.Status),
				logging.String("secondary_status", state.SecondaryStatus),
			)
		}

		if state.Terminal() {
			if !state.Succeeded() {
				run.FailureReason = state.FailureReason
				reason := state.FailureReason
				if reason == "" {
					reason = "job " + state.Status
				}
				return services.Wrap(services.ErrExternalService, "monitor", "training job", reason, nil)
			}
			run.SetProgressComplete("monitor", "Training job completed")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// HealthCheck verifies polling is configured with a sane interval.
func (m *Monitor) HealthCheck(ctx context.Context) stage.Health {
	if m.pollInterval <= 0 {
		return stage.Unhealthy("monitor", "workflow.job_poll_interval must be positive")
	}
	return stage.Healthy("monitor")
}

// progressForSecondary maps the coarse job phases onto percentages for queue
// listings. The service does not expose finer-grained progress.
func progressForSecondary(secondary string) float64 {
	switch secondary {
	case "Starting", "Pending", "LaunchingMLInstances":
		return 10
	case "PreparingTrainingStack", "Downloading", "DownloadingTrainingImage":
		return 25
	case "Training":
		return 60
	case "Uploading":
		return 90
	case "Completed":
		return 100
	default:
		return 50
	}
}
