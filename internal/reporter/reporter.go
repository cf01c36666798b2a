package reporter

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
	"treeline/internal/services/trainjob"
	"treeline/internal/stage"
)

// Reporter is the stage handler that produces the metrics CSV and chart for
// a completed training job.
type Reporter struct {
	cfg     *config.Config
	metrics MetricsAPI
	jobs    *trainjob.Service
	logger  *slog.Logger
}

// NewReporter constructs a Reporter stage handler.
func NewReporter(cfg *config.Config, metrics MetricsAPI, jobs *trainjob.Service, logger *slog.Logger) *Reporter {
	return &Reporter{
		cfg:     cfg,
		metrics: metrics,
		jobs:    jobs,
		logger:  logging.NewComponentLogger(logger, "reporter"),
	}
}

// Prepare verifies the run references a finished job.
func (r *Reporter) Prepare(ctx context.Context, run *queue.Run) error {
	if run.JobName == "" {
		return services.Wrap(services.ErrValidation, "report", "prepare",
			"run has no training job name", nil)
	}
	run.SetProgress("report", "Collecting metrics", 0)
	return nil
}

// Execute fetches the validation metric series and writes the CSV and chart
// artifacts. When CloudWatch has no series for the job, the final metric
// values from the job description are used instead.
func (r *Reporter) Execute(ctx context.Context, run *queue.Run) error {
	metricName := r.cfg.Training.MetricName

	end := time.Now()
	start := run.CreatedAt
	if start.IsZero() || start.After(end) {
		start = end.Add(-time.Duration(r.cfg.Training.MaxRuntimeMinutes) * time.Minute)
	}

	points, err := FetchJobMetric(ctx, r.metrics, run.JobName, metricName, start.Add(-time.Minute), end)
	if err != nil {
		r.logger.Warn("metric query failed, falling back to job description",
			logging.String(logging.FieldJobName, run.JobName), logging.Error(err))
		points = nil
	}

	if len(points) == 0 {
		state, err := r.jobs.Describe(ctx, run.JobName)
		if err != nil {
			return err
		}
		for _, metric := range state.FinalMetrics {
			if metric.Name == metricName {
				points = append(points, MetricPoint{Timestamp: end, Value: metric.Value})
			}
		}
		if run.ModelArtifact == "" {
			run.ModelArtifact = state.ModelArtifact
		}
	}
	if len(points) == 0 {
		return services.Wrap(services.ErrExternalService, "report", "collect metrics",
			fmt.Sprintf("job %s reported no values for %s", run.JobName, metricName), nil)
	}

	runDir := filepath.Join(r.cfg.Paths.ArtifactsDir, fmt.Sprintf("run-%d", run.ID))
	metricsPath := filepath.Join(runDir, "metrics.csv")
	chartPath := filepath.Join(runDir, "validation-metric.png")

	if err := WriteMetricsCSV(metricsPath, metricName, points); err != nil {
		return services.Wrap(services.ErrTransient, "report", "write metrics csv", metricsPath, err)
	}
	run.MetricsFile = metricsPath
	run.SetProgress("report", "Rendering chart", 50)

	if err := RenderChart(chartPath, metricName, points); err != nil {
		return services.Wrap(services.ErrTransient, "report", "render chart", chartPath, err)
	}
	run.ChartFile = chartPath

	summary := Summarize(points)
	r.logger.Info("report artifacts written",
		logging.Int64(logging.FieldRunID, run.ID),
		logging.String("metric", metricName),
		logging.Int("points", len(points)),
		logging.Float64("best_value", summary.Best),
		logging.Float64("mean_value", summary.Mean),
		logging.Float64("final_value", summary.Final),
		logging.String("chart", chartPath),
	)
	run.SetProgressComplete("report", "Report complete")
	return nil
}

// HealthCheck verifies the artifacts directory is writable.
func (r *Reporter) HealthCheck(ctx context.Context) stage.Health {
	if r.cfg.Paths.ArtifactsDir == "" {
		return stage.Unhealthy("reporter", "paths.artifacts_dir not configured")
	}
	if err := os.MkdirAll(r.cfg.Paths.ArtifactsDir, 0o755); err != nil {
		return stage.Unhealthy("reporter", "artifacts directory not writable: "+err.Error())
	}
	return stage.Healthy("reporter")
}
