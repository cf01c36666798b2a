package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateColumnar(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateTraining(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.SourceURL == "" {
		return errors.New("dataset.source_url must be set")
	}
	if len(c.Dataset.Columns) == 0 {
		return errors.New("dataset.columns must name the CSV columns in order")
	}
	if c.Dataset.LabelColumn == "" {
		return errors.New("dataset.label_column must be set")
	}
	if !containsColumn(c.Dataset.Columns, c.Dataset.LabelColumn) {
		return fmt.Errorf("dataset.label_column %q is not one of dataset.columns", c.Dataset.LabelColumn)
	}
	for _, col := range c.Dataset.CategoryColumns {
		if !containsColumn(c.Dataset.Columns, col) {
			return fmt.Errorf("dataset.category_columns entry %q is not one of dataset.columns", col)
		}
		if col == c.Dataset.LabelColumn {
			return fmt.Errorf("dataset.label_column %q cannot also be categorical", col)
		}
	}
	if c.Dataset.ValidationSplit <= 0 || c.Dataset.ValidationSplit >= 1 {
		return errors.New("dataset.validation_split must be between 0 and 1 exclusive")
	}
	return nil
}

func (c *Config) validateColumnar() error {
	switch c.Columnar.Compression {
	case "snappy", "gzip", "zstd", "uncompressed":
		return nil
	default:
		return fmt.Errorf("columnar.compression: unsupported value %q", c.Columnar.Compression)
	}
}

func (c *Config) validateStorage() error {
	if c.Storage.Region == "" {
		return errors.New("storage.region is required. Set AWS_REGION env var or edit the config file")
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set")
	}
	if strings.ContainsAny(c.Storage.Bucket, "/ ") {
		return fmt.Errorf("storage.bucket %q must be a bare bucket name", c.Storage.Bucket)
	}
	return nil
}

func (c *Config) validateTraining() error {
	if c.Training.RoleARN == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/treeline/config.toml"
		}
		return fmt.Errorf("training.role_arn is required. Set TREELINE_ROLE_ARN env var or edit %s (create with 'treeline config init')", defaultPath)
	}
	if !strings.HasPrefix(c.Training.RoleARN, "arn:") {
		return fmt.Errorf("training.role_arn %q does not look like an ARN", c.Training.RoleARN)
	}
	if c.Training.InstanceType == "" {
		return errors.New("training.instance_type must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func containsColumn(columns []string, name string) bool {
	for _, col := range columns {
		if col == name {
			return true
		}
	}
	return false
}
