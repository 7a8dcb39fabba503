// Package notification delivers chore reminders to the desktop and to a log file.
package notification

import (
	"time"
)

// NotificationType identifies the type of notification
type NotificationType string

const (
	NotifyReminder NotificationType = "reminder"
	NotifyTest     NotificationType = "test"
)

// Notification represents a notification to be sent
type Notification struct {
	Type      NotificationType
	ChoreID   int64
	Title     string
	Message   string
	Timestamp time.Time
}

// NotificationManager fans a notification out to every configured channel
type NotificationManager interface {
	Send(n Notification) error
	Close() error
	ChannelCount() int
}

// NotificationChannel is one delivery target
type NotificationChannel interface {
	Send(n Notification) error
	Close() error
}

// Config holds the notification configuration
type Config struct {
	OSNotification  OSNotificationConfig
	LogNotification LogNotificationConfig
}

// OSNotificationConfig holds desktop notification configuration
type OSNotificationConfig struct {
	Enabled bool
	// Sound requests an audible alert where the platform supports it
	Sound bool
}

// LogNotificationConfig holds log file configuration. The file is rotated
// once it grows past MaxSizeMB.
type LogNotificationConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// CommandExecutor runs the platform notifier binary
type CommandExecutor interface {
	Execute(cmd string, args ...string) error
}

// MockCommandExecutor is a CommandExecutor for tests
type MockCommandExecutor struct {
	ExecuteFunc func(cmd string, args ...string) error
}

// Execute implements CommandExecutor
func (m *MockCommandExecutor) Execute(cmd string, args ...string) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(cmd, args...)
	}
	return nil
}

// Option configures a manager
type Option func(*manager)

// WithCommandExecutor replaces the executor used by the OS channel
func WithCommandExecutor(executor CommandExecutor) Option {
	return func(m *manager) {
		m.commandExecutor = executor
	}
}

// WithPlatform overrides runtime.GOOS for the OS channel
func WithPlatform(platform string) Option {
	return func(m *manager) {
		m.platform = platform
	}
}

// WithSendCallback registers a callback invoked for every notification sent
func WithSendCallback(callback func(Notification)) Option {
	return func(m *manager) {
		m.sendCallback = callback
	}
}

// WithBreaker suspends the desktop channel after threshold consecutive
// failures for cooldown. The log channel is never suspended.
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(m *manager) {
		m.breaker = NewBreaker(threshold, cooldown)
	}
}
