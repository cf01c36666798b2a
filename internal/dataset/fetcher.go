package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"treeline/internal/config"
	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/services"
	"treeline/internal/stage"
)

// Fetcher is the stage handler that downloads the source dataset.
type Fetcher struct {
	cfg    *config.Config
	client *http.Client
	logger *slog.Logger
}

// NewFetcher constructs a Fetcher stage handler.
func NewFetcher(cfg *config.Config, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.Dataset.DownloadTimeout) * time.Second,
		},
		logger: logging.NewComponentLogger(logger, "fetcher"),
	}
}

// StagingPath returns where the raw dataset for a run is stored on disk.
func (f *Fetcher) StagingPath(run *queue.Run) string {
	name := path.Base(run.SourceURL)
	if u, err := url.Parse(run.SourceURL); err == nil && u.Path != "" {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = "dataset.csv"
	}
	return filepath.Join(f.cfg.Paths.StagingDir, fmt.Sprintf("run-%d", run.ID), name)
}

// Prepare validates the source URL and creates the run's staging directory.
func (f *Fetcher) Prepare(ctx context.Context, run *queue.Run) error {
	u, err := url.Parse(run.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return services.Wrap(services.ErrValidation, "fetch", "prepare",
			fmt.Sprintf("source URL %q is not an http(s) URL", run.SourceURL), nil)
	}

	dest := f.StagingPath(run)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "fetch", "prepare", "create staging directory", err)
	}

	run.SetProgress("fetch", "Downloading dataset", 0)
	return nil
}

// Execute downloads the dataset unless a verified copy is already staged.
func (f *Fetcher) Execute(ctx context.Context, run *queue.Run) error {
	dest := f.StagingPath(run)

	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		ok, err := checksumMatches(dest, f.cfg.Dataset.SHA256)
		if err != nil {
			return services.Wrap(services.ErrTransient, "fetch", "verify existing file", dest, err)
		}
		if ok {
			f.logger.Info("reusing staged dataset",
				logging.Int64(logging.FieldRunID, run.ID),
				logging.String("path", dest),
				logging.Int64("bytes", info.Size()),
			)
			run.RawFile = dest
			run.SetProgressComplete("fetch", "Dataset already staged")
			return nil
		}
		f.logger.Warn("staged dataset failed checksum, re-downloading",
			logging.Int64(logging.FieldRunID, run.ID), logging.String("path", dest))
	}

	start := time.Now()
	written, err := download(ctx, f.client, run.SourceURL, dest)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "fetch", "download", run.SourceURL, err)
	}

	ok, err := checksumMatches(dest, f.cfg.Dataset.SHA256)
	if err != nil {
		return services.Wrap(services.ErrTransient, "fetch", "verify download", dest, err)
	}
	if !ok {
		return services.Wrap(services.ErrValidation, "fetch", "verify download",
			fmt.Sprintf("checksum mismatch for %s", dest), nil)
	}

	f.logger.Info("downloaded dataset",
		logging.Int64(logging.FieldRunID, run.ID),
		logging.String("url", run.SourceURL),
		logging.Int64("bytes", written),
		logging.Duration("download_duration", time.Since(start)),
	)

	run.RawFile = dest
	run.SetProgressComplete("fetch", "Dataset downloaded")
	return nil
}

// HealthCheck verifies the staging directory is writable.
func (f *Fetcher) HealthCheck(ctx context.Context) stage.Health {
	if f.cfg.Paths.StagingDir == "" {
		return stage.Unhealthy("fetcher", "paths.staging_dir not configured")
	}
	if err := os.MkdirAll(f.cfg.Paths.StagingDir, 0o755); err != nil {
		return stage.Unhealthy("fetcher", "staging directory not writable: "+err.Error())
	}
	return stage.Healthy("fetcher")
}
