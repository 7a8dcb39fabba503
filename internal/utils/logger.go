package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes leveled messages to stderr. Debug output is only emitted in verbose mode.
type Logger struct {
	verbose bool
	out     io.Writer
	mu      sync.RWMutex
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the process-wide logger.
func GetLogger() *Logger {
	once.Do(func() {
		loggerInstance = &Logger{out: os.Stderr}
	})
	return loggerInstance
}

// SetVerboseMode toggles debug output on the global logger.
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

// SetVerbose toggles debug output.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
}

// IsVerbose reports whether debug output is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetOutput redirects log output. A nil writer restores stderr.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	l.out = w
}

func (l *Logger) write(level, msgOrFormat string, args ...interface{}) {
	msg := msgOrFormat
	if len(args) > 0 {
		msg = fmt.Sprintf(msgOrFormat, args...)
	}
	l.mu.RLock()
	out := l.out
	l.mu.RUnlock()
	if level == "DEBUG" {
		_, _ = fmt.Fprintf(out, "%s [DEBUG] %s\n", time.Now().Format("15:04:05"), msg)
		return
	}
	_, _ = fmt.Fprintf(out, "[%s] %s\n", level, msg)
}

// Debug logs a message when verbose mode is on.
func (l *Logger) Debug(msgOrFormat string, args ...interface{}) {
	if !l.IsVerbose() {
		return
	}
	l.write("DEBUG", msgOrFormat, args...)
}

// Info logs an informational message.
func (l *Logger) Info(msgOrFormat string, args ...interface{}) {
	l.write("INFO", msgOrFormat, args...)
}

// Warn logs a warning.
func (l *Logger) Warn(msgOrFormat string, args ...interface{}) {
	l.write("WARN", msgOrFormat, args...)
}

// Error logs an error.
func (l *Logger) Error(msgOrFormat string, args ...interface{}) {
	l.write("ERROR", msgOrFormat, args...)
}

// Debugf logs through the global logger.
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Infof logs through the global logger.
func Infof(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warnf logs through the global logger.
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Errorf logs through the global logger.
func Errorf(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

// BackgroundLogger records activity of long-running commands such as
// "remind watch" in a file, since nobody is watching their stderr.
type BackgroundLogger struct {
	logger   *log.Logger
	logFile  *os.File
	enabled  bool
	filePath string
}

// NewBackgroundLogger opens a PID-specific log file in the temp dir.
// When enabled is false every write is discarded.
func NewBackgroundLogger(enabled bool) (*BackgroundLogger, error) {
	if !enabled {
		return &BackgroundLogger{logger: log.New(io.Discard, "", log.LstdFlags)}, nil
	}
	path := filepath.Join(os.TempDir(), fmt.Sprintf("chorebuddy-%d.log", os.Getpid()))
	return NewBackgroundLoggerWithPath(path)
}

// NewBackgroundLoggerWithPath opens (or appends to) the log file at path.
// On failure the returned logger discards output and the error is reported.
func NewBackgroundLoggerWithPath(path string) (*BackgroundLogger, error) {
	bl := &BackgroundLogger{filePath: path}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		bl.logger = log.New(io.Discard, "", log.LstdFlags)
		return bl, err
	}

	bl.logFile = file
	bl.logger = log.New(file, "", log.LstdFlags)
	bl.enabled = true
	return bl, nil
}

// Printf logs a formatted line.
func (bl *BackgroundLogger) Printf(format string, args ...interface{}) {
	if bl.logger != nil {
		bl.logger.Printf(format, args...)
	}
}

// Close closes the log file; later writes are discarded.
func (bl *BackgroundLogger) Close() {
	if bl.logFile != nil {
		_ = bl.logFile.Close()
		bl.logFile = nil
	}
	bl.logger = log.New(io.Discard, "", log.LstdFlags)
	bl.enabled = false
}

// Path returns the log file path, empty when disabled.
func (bl *BackgroundLogger) Path() string {
	return bl.filePath
}

// IsEnabled reports whether lines are being written to a file.
func (bl *BackgroundLogger) IsEnabled() bool {
	return bl.enabled
}
