package trainjob

import (
	"context"
	"log/slog"

	"treeline/internal/config"
	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/services"
	"treeline/internal/stage"
)

// Submitter is the stage handler that creates the training job for a run.
type Submitter struct {
	cfg    *config.Config
	svc    *Service
	logger *slog.Logger
}

// NewSubmitter constructs a Submitter stage handler.
func NewSubmitter(cfg *config.Config, svc *Service, logger *slog.Logger) *Submitter {
	return &Submitter{
		cfg:    cfg,
		svc:    svc,
		logger: logging.NewComponentLogger(logger, "submitter"),
	}
}

// Prepare verifies the run carries uploaded channel URIs.
func (s *Submitter) Prepare(ctx context.Context, run *queue.Run) error {
	if run.TrainURI == "" || run.ValidationURI == "" {
		return services.Wrap(services.ErrValidation, "submit", "prepare",
			"run has no uploaded channel URIs", nil)
	}
	run.SetProgress("submit", "Submitting training job", 0)
	return nil
}

// Execute creates the training job and records its identity on the run.
func (s *Submitter) Execute(ctx context.Context, run *queue.Run) error {
	name, arn, err := s.svc.Submit(ctx, run)
	if err != nil {
		return err
	}

	run.JobName = name
	run.JobARN = arn
	run.SetProgressComplete("submit", "Training job submitted")
	return nil
}

// HealthCheck verifies the training configuration can produce a job request.
func (s *Submitter) HealthCheck(ctx context.Context) stage.Health {
	if s.cfg.Training.RoleARN == "" {
		return stage.Unhealthy("submitter", "training.role_arn not configured")
	}
	if _, err := s.svc.resolveImage(); err != nil {
		return stage.Unhealthy("submitter", err.Error())
	}
	return stage.Healthy("submitter")
}
