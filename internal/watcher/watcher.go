// Package watcher reports changes to the chore database made by other
// processes so an open board can reload. Events on the database file and its
// SQLite journal files are batched with a debounce window.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"chorebuddy/internal/utils"
)

// DefaultDebounceDuration batches the bursts of writes a single commit produces.
const DefaultDebounceDuration = 300 * time.Millisecond

// Config holds database watcher configuration.
type Config struct {
	DatabasePath     string
	DebounceDuration time.Duration
	OnChange         func()
}

// DefaultConfig returns a Config for dbPath with the default debounce.
func DefaultConfig(dbPath string, onChange func()) *Config {
	return &Config{
		DatabasePath:     dbPath,
		DebounceDuration: DefaultDebounceDuration,
		OnChange:         onChange,
	}
}

// Watcher monitors a database file for external modification.
type Watcher struct {
	cfg     *Config
	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	mu      sync.Mutex
}

// New creates a Watcher. It does not start watching until Start is called.
func New(cfg *Config) (*Watcher, error) {
	if cfg == nil || cfg.DatabasePath == "" {
		return nil, fmt.Errorf("watcher: database path is required")
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = DefaultDebounceDuration
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		cfg:    cfg,
		fsw:    fsw,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Start watches the directory that holds the database.
// The directory is watched rather than the file so that replacing the file
// during a backup import is still seen.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher has been stopped and cannot be restarted")
	}
	if w.started {
		return nil
	}

	dir := filepath.Dir(w.cfg.DatabasePath)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	w.started = true
	go w.eventLoop()
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	close(w.stopCh)
	_ = w.fsw.Close()
	w.mu.Unlock()

	if started {
		<-w.doneCh
	}
}

// relevant reports whether name is the database or one of its journal files.
func (w *Watcher) relevant(name string) bool {
	base := filepath.Base(w.cfg.DatabasePath)
	got := filepath.Base(name)
	if got == base {
		return true
	}
	for _, suffix := range []string{"-wal", "-journal"} {
		if got == base+suffix {
			return true
		}
	}
	return false
}

func (w *Watcher) eventLoop() {
	defer close(w.doneCh)

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.cfg.DebounceDuration, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			utils.Warnf("database watcher: %v", err)

		case <-fire:
			if w.cfg.OnChange != nil {
				w.cfg.OnChange()
			}
		}
	}
}
