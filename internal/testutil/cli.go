// Package testutil provides shared test utilities for CLI testing across packages.
// This enables co-located CLI tests while maintaining consistent test infrastructure.
package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chorebuddy/cmd/chorebuddy/cmd"
	"chorebuddy/internal/notification"
)

// defaultTestConfig keeps tests away from the desktop notifier and the
// user's temp-dir background log.
const defaultTestConfig = `# test config
output_format: text
reminder:
  check_interval: 1s
  os_notification: false
  log_notification: true
logging:
  background_enabled: false
`

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
}

// NewCLITest creates a CLI test helper with its own database, config file
// and notification log in a temp dir. Commands run in no-prompt mode.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(defaultTestConfig), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}

	cfg := &cmd.Config{
		NoPrompt:            true,
		DBPath:              filepath.Join(tmpDir, "ChoreBuddy.db3"),
		ConfigPath:          configPath,
		NotificationLogPath: filepath.Join(tmpDir, "notifications.log"),
		NotificationMock:    true,
	}

	return &CLITest{
		t:          t,
		cfg:        cfg,
		tmpDir:     tmpDir,
		configPath: configPath,
	}
}

// Config returns the invocation config so tests can adjust it.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temp directory holding the test's files.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// DBPath returns the test database path.
func (c *CLITest) DBPath() string {
	return c.cfg.DBPath
}

// ConfigPath returns the test config file path.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// SetFullConfig replaces the config file content.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()
	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config: %v", err)
	}
}

// SetNow pins the clock used by commands.
func (c *CLITest) SetNow(now time.Time) {
	c.cfg.Now = func() time.Time { return now }
}

// SetStdin feeds interactive input to commands.
func (c *CLITest) SetStdin(input string) {
	c.cfg.Stdin = strings.NewReader(input)
}

// NotificationLog returns the lines of the notification log, or nil.
func (c *CLITest) NotificationLog() []string {
	c.t.Helper()
	lines, err := notification.ReadLog(c.cfg.NotificationLogPath)
	if err != nil {
		c.t.Fatalf("failed to read notification log: %v", err)
	}
	return lines
}

// Execute runs a command and returns its output and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a command and fails the test on a non-zero exit code.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("command %v failed with exit code %d: stdout=%s stderr=%s", args, exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a command and fails the test if it succeeds.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// MustExecuteJSON runs a command with --json and decodes its output into v.
func (c *CLITest) MustExecuteJSON(v any, args ...string) {
	c.t.Helper()

	stdout := c.MustExecute(append(args, "--json")...)
	if err := json.Unmarshal([]byte(stdout), v); err != nil {
		c.t.Fatalf("invalid JSON output for %v: %v\n%s", args, err, stdout)
	}
}

// AssertContains fails if output does not contain expected.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails if output contains unexpected.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output not to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails if got differs from want.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// AssertResultCode fails unless the last output line is the result code.
func AssertResultCode(t *testing.T, output, expectedCode string) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		t.Errorf("expected result code %s, got empty output", expectedCode)
		return
	}
	if last := strings.TrimSpace(lines[len(lines)-1]); last != expectedCode {
		t.Errorf("expected result code %s as last line, got %q", expectedCode, last)
	}
}
