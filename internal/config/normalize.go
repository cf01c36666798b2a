package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDataset()
	c.normalizeColumnar()
	c.normalizeStorage()
	c.normalizeTraining()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.ArtifactsDir, err = expandPath(c.Paths.ArtifactsDir); err != nil {
		return fmt.Errorf("paths.artifacts_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataset() {
	c.Dataset.Name = strings.TrimSpace(c.Dataset.Name)
	c.Dataset.SourceURL = strings.TrimSpace(c.Dataset.SourceURL)
	c.Dataset.SHA256 = strings.ToLower(strings.TrimSpace(c.Dataset.SHA256))
	c.Dataset.LabelColumn = strings.TrimSpace(c.Dataset.LabelColumn)
	for i, col := range c.Dataset.Columns {
		c.Dataset.Columns[i] = strings.TrimSpace(col)
	}
	for i, col := range c.Dataset.CategoryColumns {
		c.Dataset.CategoryColumns[i] = strings.TrimSpace(col)
	}
	if c.Dataset.DownloadTimeout <= 0 {
		c.Dataset.DownloadTimeout = defaultDownloadTimeout
	}
}

func (c *Config) normalizeColumnar() {
	c.Columnar.Compression = strings.ToLower(strings.TrimSpace(c.Columnar.Compression))
	if c.Columnar.Compression == "" {
		c.Columnar.Compression = defaultCompression
	}
	if c.Columnar.RowGroupRows <= 0 {
		c.Columnar.RowGroupRows = defaultRowGroupRows
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	if c.Storage.Region == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok {
			c.Storage.Region = strings.TrimSpace(value)
		}
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	if c.Storage.UploadPartSizeMiB <= 0 {
		c.Storage.UploadPartSizeMiB = defaultUploadPartSizeMiB
	}
	if c.Storage.UploadConcurrency <= 0 {
		c.Storage.UploadConcurrency = defaultUploadConcurrency
	}
}

func (c *Config) normalizeTraining() {
	c.Training.RoleARN = strings.TrimSpace(c.Training.RoleARN)
	if c.Training.RoleARN == "" {
		if value, ok := os.LookupEnv("TREELINE_ROLE_ARN"); ok {
			c.Training.RoleARN = strings.TrimSpace(value)
		}
	}
	c.Training.Image = strings.TrimSpace(c.Training.Image)
	c.Training.InstanceType = strings.TrimSpace(c.Training.InstanceType)
	if c.Training.InstanceCount <= 0 {
		c.Training.InstanceCount = defaultInstanceCount
	}
	if c.Training.VolumeGB <= 0 {
		c.Training.VolumeGB = defaultVolumeGB
	}
	if c.Training.MaxRuntimeMinutes <= 0 {
		c.Training.MaxRuntimeMinutes = defaultMaxRuntimeMinutes
	}
	c.Training.JobNamePrefix = strings.TrimSpace(c.Training.JobNamePrefix)
	if c.Training.JobNamePrefix == "" {
		c.Training.JobNamePrefix = defaultJobNamePrefix
	}
	c.Training.MetricName = strings.TrimSpace(c.Training.MetricName)
	if c.Training.MetricName == "" {
		c.Training.MetricName = defaultMetricName
	}
	if c.Training.Hyperparameters == nil {
		c.Training.Hyperparameters = defaultHyperparameters()
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if c.Workflow.JobPollInterval <= 0 {
		c.Workflow.JobPollInterval = defaultJobPollInterval
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}
