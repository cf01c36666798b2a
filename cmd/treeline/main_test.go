package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "treeline.toml")
	content := fmt.Sprintf(`
[paths]
staging_dir = %q
artifacts_dir = %q
log_dir = %q

[storage]
region = "us-east-1"
bucket = "treeline-test"

[training]
role_arn = "arn:aws:iam::000000000000:role/treeline-test"
`,
		filepath.Join(dir, "staging"),
		filepath.Join(dir, "artifacts"),
		filepath.Join(dir, "logs"),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootShowsHelp(t *testing.T) {
	configPath := writeTestConfig(t)

	output, err := runCommand(t, "--config", configPath)
	if err != nil {
		t.Fatalf("root command failed: %v", err)
	}
	for _, name := range []string{"run", "daemon", "queue", "jobs", "config"} {
		if !strings.Contains(output, name) {
			t.Fatalf("expected %q in help output:\n%s", name, output)
		}
	}
}

func TestQueueStatusEmpty(t *testing.T) {
	configPath := writeTestConfig(t)

	output, err := runCommand(t, "--config", configPath, "queue", "status")
	if err != nil {
		t.Fatalf("queue status failed: %v", err)
	}
	if !strings.Contains(output, "Queue is empty") {
		t.Fatalf("expected empty queue message, got:\n%s", output)
	}
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	configPath := writeTestConfig(t)

	_, err := runCommand(t, "--config", configPath, "queue", "list", "--status", "levitating")
	if err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestConfigValidateAcceptsCompleteFile(t *testing.T) {
	configPath := writeTestConfig(t)

	output, err := runCommand(t, "--config", configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	if !strings.Contains(output, "Configuration valid") {
		t.Fatalf("expected validation success, got:\n%s", output)
	}
}

func TestConfigValidateRejectsIncompleteDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.toml")

	_, err := runCommand(t, "--config", path, "config", "validate")
	if err == nil {
		t.Fatal("expected validation error when bucket and role are unset")
	}
	if !strings.Contains(err.Error(), "storage.bucket") {
		t.Fatalf("expected bucket guidance, got %v", err)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")

	output, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(output, target) {
		t.Fatalf("expected target path in output, got:\n%s", output)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite failed: %v", err)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	configPath := writeTestConfig(t)

	output, err := runCommand(t, "--config", configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify failed: %v", err)
	}
	if !strings.Contains(output, "not configured") {
		t.Fatalf("expected unconfigured notice, got:\n%s", output)
	}
}
