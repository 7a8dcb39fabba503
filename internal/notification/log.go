package notification

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// logNotificationChannel appends one line per notification to a rotating log file
type logNotificationChannel struct {
	out *lumberjack.Logger
	mu  sync.Mutex
}

// NewLogNotificationChannel creates a log channel writing to cfg.Path
func NewLogNotificationChannel(cfg LogNotificationConfig) NotificationChannel {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 1
	}
	return &logNotificationChannel{
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		},
	}
}

// Send writes a line of the form:
// 2026-01-16T10:30:00Z [REMINDER] #12 Mission Alert: Dishes - It's time to engage your next mission.
func (c *logNotificationChannel) Send(n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref := ""
	if n.ChoreID != 0 {
		ref = fmt.Sprintf("#%d ", n.ChoreID)
	}
	line := fmt.Sprintf("%s [%s] %s%s - %s\n",
		n.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		strings.ToUpper(string(n.Type)), ref, n.Title, n.Message)

	if _, err := c.out.Write([]byte(line)); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

// Close closes the log file
func (c *logNotificationChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Close()
}

// ReadLog returns the lines of the notification log, nil if it does not exist
func ReadLog(path string) ([]string, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var entries []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		entries = append(entries, scanner.Text())
	}
	return entries, scanner.Err()
}
