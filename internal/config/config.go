package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir   string `toml:"staging_dir"`
	ArtifactsDir string `toml:"artifacts_dir"`
	LogDir       string `toml:"log_dir"`
}

// Dataset describes the source tabular dataset and how to split it.
type Dataset struct {
	Name            string   `toml:"name"`
	SourceURL       string   `toml:"source_url"`
	SHA256          string   `toml:"sha256"`
	Columns         []string `toml:"columns"`
	LabelColumn     string   `toml:"label_column"`
	CategoryColumns []string `toml:"category_columns"`
	ValidationSplit float64  `toml:"validation_split"`
	ShuffleSeed     int64    `toml:"shuffle_seed"`
	DownloadTimeout int      `toml:"download_timeout"`
}

// Columnar controls the Parquet encoding of the dataset splits.
type Columnar struct {
	Compression  string `toml:"compression"`
	RowGroupRows int    `toml:"row_group_rows"`
}

// Storage contains object storage settings for the training channels.
type Storage struct {
	Region            string `toml:"region"`
	Bucket            string `toml:"bucket"`
	Prefix            string `toml:"prefix"`
	Endpoint          string `toml:"endpoint"`
	ForcePathStyle    bool   `toml:"force_path_style"`
	UploadPartSizeMiB int    `toml:"upload_part_size_mib"`
	UploadConcurrency int    `toml:"upload_concurrency"`
}

// Training contains managed training job settings.
type Training struct {
	RoleARN           string            `toml:"role_arn"`
	Image             string            `toml:"image"`
	InstanceType      string            `toml:"instance_type"`
	InstanceCount     int               `toml:"instance_count"`
	VolumeGB          int               `toml:"volume_gb"`
	MaxRuntimeMinutes int               `toml:"max_runtime_minutes"`
	JobNamePrefix     string            `toml:"job_name_prefix"`
	MetricName        string            `toml:"metric_name"`
	Hyperparameters   map[string]string `toml:"hyperparameters"`
}

// Workflow contains daemon timing and polling intervals, in seconds.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	JobPollInterval    int `toml:"job_poll_interval"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunStarted     bool   `toml:"run_started"`
	JobSubmitted   bool   `toml:"job_submitted"`
	RunCompleted   bool   `toml:"run_completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for treeline.
//
// Configuration sections by subsystem:
//   - Paths: staging, artifact, and log directories
//   - Dataset: source URL, schema, and split parameters
//   - Columnar: Parquet compression and row group sizing
//   - Storage: object storage bucket, prefix, and upload tuning
//   - Training: managed training job parameters and hyperparameters
//   - Workflow: daemon polling intervals and timeouts
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Dataset       Dataset       `toml:"dataset"`
	Columnar      Columnar      `toml:"columnar"`
	Storage       Storage       `toml:"storage"`
	Training      Training      `toml:"training"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/treeline/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("treeline.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.ArtifactsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ChannelPrefix returns the object key prefix for a run's training channels.
func (c *Config) ChannelPrefix(runID int64) string {
	prefix := strings.Trim(c.Storage.Prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("run-%d", runID)
	}
	return fmt.Sprintf("%s/run-%d", prefix, runID)
}

// OutputPath returns the object storage URI where the training service writes
// model artifacts for a run.
func (c *Config) OutputPath(runID int64) string {
	return fmt.Sprintf("s3://%s/%s/output", c.Storage.Bucket, c.ChannelPrefix(runID))
}
