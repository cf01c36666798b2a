package columnar

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"treeline/internal/config"
	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/services"
	"treeline/internal/stage"
	"treeline/internal/tabular"
)

// Converter is the stage handler that turns the raw dataset into shuffled,
// encoded Parquet channel files.
type Converter struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewConverter constructs a Converter stage handler.
func NewConverter(cfg *config.Config, logger *slog.Logger) *Converter {
	return &Converter{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "converter"),
	}
}

// Prepare verifies the staged dataset is present.
func (c *Converter) Prepare(ctx context.Context, run *queue.Run) error {
	if run.RawFile == "" {
		return services.Wrap(services.ErrValidation, "convert", "prepare",
			"run has no staged dataset file", nil)
	}
	if _, err := os.Stat(run.RawFile); err != nil {
		return services.Wrap(services.ErrValidation, "convert", "prepare",
			fmt.Sprintf("staged dataset %s is missing", run.RawFile), err)
	}
	run.SetProgress("convert", "Converting dataset", 0)
	return nil
}

// Execute loads, encodes, shuffles, and splits the dataset, then writes both
// splits as Parquet files next to the raw download.
func (c *Converter) Execute(ctx context.Context, run *queue.Run) error {
	raw, err := os.Open(run.RawFile)
	if err != nil {
		return services.Wrap(services.ErrTransient, "convert", "open dataset", run.RawFile, err)
	}
	defer raw.Close()

	start := time.Now()
	table, err := tabular.Load(ctx, raw, c.cfg.Dataset)
	if err != nil {
		return err
	}
	if table.NumRows() == 0 {
		return services.Wrap(services.ErrValidation, "convert", "load dataset",
			"dataset contains no rows", nil)
	}

	table.Shuffle(c.cfg.Dataset.ShuffleSeed)
	train, validation := table.Split(c.cfg.Dataset.ValidationSplit)
	if train.NumRows() == 0 || validation.NumRows() == 0 {
		return services.Wrap(services.ErrValidation, "convert", "split dataset",
			fmt.Sprintf("split produced %d train and %d validation rows", train.NumRows(), validation.NumRows()), nil)
	}

	runDir := filepath.Dir(run.RawFile)
	trainPath := filepath.Join(runDir, "train.parquet")
	validationPath := filepath.Join(runDir, "validation.parquet")

	run.SetProgress("convert", "Writing Parquet channels", 50)
	if err := WriteTable(trainPath, train, c.cfg.Columnar); err != nil {
		return services.Wrap(services.ErrTransient, "convert", "write train channel", trainPath, err)
	}
	if err := WriteTable(validationPath, validation, c.cfg.Columnar); err != nil {
		return services.Wrap(services.ErrTransient, "convert", "write validation channel", validationPath, err)
	}

	run.TrainFile = trainPath
	run.ValidationFile = validationPath
	run.TrainRows = int64(train.NumRows())
	run.ValidationRows = int64(validation.NumRows())

	c.logger.Info("converted dataset",
		logging.Int64(logging.FieldRunID, run.ID),
		logging.Int64("train_rows", run.TrainRows),
		logging.Int64("validation_rows", run.ValidationRows),
		logging.String("compression", c.cfg.Columnar.Compression),
		logging.Duration("convert_duration", time.Since(start)),
	)
	run.SetProgressComplete("convert", "Dataset converted")
	return nil
}

// HealthCheck verifies the configured compression codec is available.
func (c *Converter) HealthCheck(ctx context.Context) stage.Health {
	if _, err := Codec(c.cfg.Columnar.Compression); err != nil {
		return stage.Unhealthy("converter", err.Error())
	}
	return stage.Healthy("converter")
}
