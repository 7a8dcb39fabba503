// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppName is used for XDG directories and file names
const AppName = "chorebuddy"

// DatabaseFileName is the default database file name
const DatabaseFileName = "ChoreBuddy.db3"

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// DatabaseConfig holds the database location
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ReminderConfig holds reminder delivery settings
type ReminderConfig struct {
	CheckInterval   string `yaml:"check_interval"`
	OSNotification  *bool  `yaml:"os_notification"`
	LogNotification *bool  `yaml:"log_notification"`
	LogPath         string `yaml:"log_path"`
	LogMaxSizeMB    int    `yaml:"log_max_size_mb"`
	LogMaxBackups   int    `yaml:"log_max_backups"`
}

// BackupConfig holds backup settings
type BackupConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	BackgroundEnabled *bool `yaml:"background_enabled"` // default: true
}

// Config represents the application configuration
type Config struct {
	Database     DatabaseConfig `yaml:"database"`
	OutputFormat string         `yaml:"output_format"`
	NoPrompt     bool           `yaml:"no_prompt"`
	Reminder     ReminderConfig `yaml:"reminder"`
	Backup       BackupConfig   `yaml:"backup"`
	Logging      LoggingConfig  `yaml:"logging"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(GetDataDir(), DatabaseFileName),
		},
		OutputFormat: "text",
	}
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it is created from the embedded sample.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes and applies defaults for unset fields
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "text"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(GetDataDir(), DatabaseFileName)
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Reminder.LogPath = ExpandPath(cfg.Reminder.LogPath)
	cfg.Backup.Dir = ExpandPath(cfg.Backup.Dir)

	return cfg, nil
}

// save writes the sample configuration to the specified path
func (c *Config) save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}

	if c.Reminder.CheckInterval != "" {
		d, err := time.ParseDuration(c.Reminder.CheckInterval)
		if err != nil {
			return fmt.Errorf("invalid duration for reminder.check_interval: %q", c.Reminder.CheckInterval)
		}
		if d < time.Second {
			return fmt.Errorf("reminder.check_interval must be at least 1s, got %q", c.Reminder.CheckInterval)
		}
	}

	if c.Reminder.LogMaxSizeMB < 0 {
		return fmt.Errorf("reminder.log_max_size_mb must not be negative, got %d", c.Reminder.LogMaxSizeMB)
	}
	if c.Reminder.LogMaxBackups < 0 {
		return fmt.Errorf("reminder.log_max_backups must not be negative, got %d", c.Reminder.LogMaxBackups)
	}

	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(noPrompt bool, outputFormat, dbPath string) {
	if noPrompt {
		c.NoPrompt = true
	}
	if outputFormat != "" {
		c.OutputFormat = outputFormat
	}
	if dbPath != "" {
		c.Database.Path = ExpandPath(dbPath)
	}
}

// GetDatabasePath returns the path to the SQLite database
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return filepath.Join(GetDataDir(), DatabaseFileName)
	}
	return c.Database.Path
}

// GetReminderInterval returns how often pending reminders are checked.
// Returns one minute if unset or unparsable.
func (c *Config) GetReminderInterval() time.Duration {
	if c.Reminder.CheckInterval == "" {
		return time.Minute
	}
	d, err := time.ParseDuration(c.Reminder.CheckInterval)
	if err != nil || d < time.Second {
		return time.Minute
	}
	return d
}

// IsOSNotificationEnabled returns true unless os_notification is explicitly false
func (c *Config) IsOSNotificationEnabled() bool {
	if c.Reminder.OSNotification == nil {
		return true
	}
	return *c.Reminder.OSNotification
}

// IsLogNotificationEnabled returns true unless log_notification is explicitly false
func (c *Config) IsLogNotificationEnabled() bool {
	if c.Reminder.LogNotification == nil {
		return true
	}
	return *c.Reminder.LogNotification
}

// GetNotificationLogPath returns the notification log path
func (c *Config) GetNotificationLogPath() string {
	if c.Reminder.LogPath == "" {
		return filepath.Join(GetDataDir(), "notifications.log")
	}
	return c.Reminder.LogPath
}

// GetLogMaxSizeMB returns the rotation size for the notification log
func (c *Config) GetLogMaxSizeMB() int {
	if c.Reminder.LogMaxSizeMB == 0 {
		return 5
	}
	return c.Reminder.LogMaxSizeMB
}

// GetLogMaxBackups returns how many rotated notification logs are kept
func (c *Config) GetLogMaxBackups() int {
	if c.Reminder.LogMaxBackups == 0 {
		return 3
	}
	return c.Reminder.LogMaxBackups
}

// GetBackupDir returns the default export directory, or "." when unset
func (c *Config) GetBackupDir() string {
	if c.Backup.Dir == "" {
		return "."
	}
	return c.Backup.Dir
}

// IsBackgroundLoggingEnabled returns true if background logging is enabled.
// Returns true (default) if not configured.
func (c *Config) IsBackgroundLoggingEnabled() bool {
	if c.Logging.BackgroundEnabled == nil {
		return true
	}
	return *c.Logging.BackgroundEnabled
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, AppName)
	}
	return filepath.Join(home, fallbackPath, AppName)
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
