package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"treeline/internal/config"
)

func validConfig() config.Config {
	cfg := config.Default()
	cfg.Storage.Bucket = "treeline-test"
	cfg.Storage.Region = "us-east-1"
	cfg.Training.RoleARN = "arn:aws:iam::000000000000:role/treeline-test"
	return cfg
}

func TestDefaultValidatesWithRequiredFields(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsMissingBucket(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Bucket = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

func TestValidateRejectsMissingRole(t *testing.T) {
	cfg := validConfig()
	cfg.Training.RoleARN = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing role ARN")
	}
	if !strings.Contains(err.Error(), "training.role_arn") {
		t.Fatalf("expected role_arn guidance, got %v", err)
	}
}

func TestValidateRejectsBadCompression(t *testing.T) {
	cfg := validConfig()
	cfg.Columnar.Compression = "lz77"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported compression")
	}
}

func TestValidateRejectsUnknownLabelColumn(t *testing.T) {
	cfg := validConfig()
	cfg.Dataset.LabelColumn = "weight"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for label column not in columns")
	}
}

func TestValidateRejectsCategoricalLabel(t *testing.T) {
	cfg := validConfig()
	cfg.Dataset.CategoryColumns = []string{"rings"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for categorical label column")
	}
}

func TestValidateRejectsHeartbeatTimeoutBelowInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Workflow.HeartbeatInterval = 30
	cfg.Workflow.HeartbeatTimeout = 30
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for heartbeat timeout <= interval")
	}
}

func TestLoadReadsFileAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "treeline.toml")
	content := `
[paths]
staging_dir = "` + filepath.Join(dir, "staging") + `"
artifacts_dir = "` + filepath.Join(dir, "artifacts") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[storage]
region = "eu-west-1"
bucket = "my-bucket"

[training]
role_arn = "arn:aws:iam::123456789012:role/my-role"

[dataset]
validation_split = 0.3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to be loaded, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Storage.Region != "eu-west-1" || cfg.Storage.Bucket != "my-bucket" {
		t.Fatalf("storage overrides not applied: %#v", cfg.Storage)
	}
	if cfg.Dataset.ValidationSplit != 0.3 {
		t.Fatalf("dataset override not applied: %v", cfg.Dataset.ValidationSplit)
	}
	if cfg.Dataset.Name != "abalone" {
		t.Fatalf("expected defaults to survive partial file, got %q", cfg.Dataset.Name)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "treeline.toml")
	content := `
[storage]
region = "us-east-1"
bucket = "ok-bucket"

[training]
role_arn = "not-an-arn"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for malformed role ARN")
	}
}

func TestChannelPrefixAndOutputPath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Prefix = "experiments/abalone"

	prefix := cfg.ChannelPrefix(7)
	if prefix != "experiments/abalone/run-7" {
		t.Fatalf("unexpected channel prefix %q", prefix)
	}
	output := cfg.OutputPath(7)
	if output != "s3://treeline-test/experiments/abalone/run-7/output" {
		t.Fatalf("unexpected output path %q", output)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sample not written: %v", err)
	}
}
