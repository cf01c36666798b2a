package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"

	"treeline/internal/config"
	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/services"
	"treeline/internal/stage"
)

// Stage is the stage handler that ships both Parquet channel files to
// object storage under the run's key prefix.
type Stage struct {
	cfg    *config.Config
	svc    Service
	logger *slog.Logger
}

// NewStage constructs the upload stage handler.
func NewStage(cfg *config.Config, svc Service, logger *slog.Logger) *Stage {
	return &Stage{
		cfg:    cfg,
		svc:    svc,
		logger: logging.NewComponentLogger(logger, "upload"),
	}
}

// Prepare verifies both channel files exist on disk.
func (s *Stage) Prepare(ctx context.Context, run *queue.Run) error {
	for _, file := range []string{run.TrainFile, run.ValidationFile} {
		if file == "" {
			return services.Wrap(services.ErrValidation, "upload", "prepare",
				"run has no converted channel files", nil)
		}
		if _, err := os.Stat(file); err != nil {
			return services.Wrap(services.ErrValidation, "upload", "prepare",
				fmt.Sprintf("channel file %s is missing", file), err)
		}
	}
	run.SetProgress("upload", "Uploading channels", 0)
	return nil
}

// Execute uploads the train and validation channels and records their URIs.
func (s *Stage) Execute(ctx context.Context, run *queue.Run) error {
	prefix := s.cfg.ChannelPrefix(run.ID)

	trainURI, err := s.svc.UploadFile(ctx, run.TrainFile, path.Join(prefix, "train", path.Base(run.TrainFile)))
	if err != nil {
		return services.Wrap(services.ErrExternalService, "upload", "train channel", "", err)
	}
	run.TrainURI = trainURI
	run.SetProgress("upload", "Uploading validation channel", 50)

	validationURI, err := s.svc.UploadFile(ctx, run.ValidationFile, path.Join(prefix, "validation", path.Base(run.ValidationFile)))
	if err != nil {
		return services.Wrap(services.ErrExternalService, "upload", "validation channel", "", err)
	}
	run.ValidationURI = validationURI

	s.logger.Info("uploaded channels",
		logging.Int64(logging.FieldRunID, run.ID),
		logging.String("train_uri", run.TrainURI),
		logging.String("validation_uri", run.ValidationURI),
	)
	run.SetProgressComplete("upload", "Channels uploaded")
	return nil
}

// HealthCheck verifies the storage destination is configured.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s.cfg.Storage.Bucket == "" {
		return stage.Unhealthy("upload", "storage.bucket not configured")
	}
	if s.cfg.Storage.Region == "" {
		return stage.Unhealthy("upload", "storage.region not configured")
	}
	return stage.Healthy("upload")
}
