// Package shutdown coordinates graceful termination of long-running commands
// such as the reminder watcher and the interactive board.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// CleanupFunc releases a resource during shutdown.
// The context is cancelled when the shutdown deadline passes.
type CleanupFunc func(ctx context.Context) error

type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager runs registered cleanups once the process is asked to stop.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry
	stopping bool
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
	stopSig  func()
}

// NewManager returns a manager whose Context derives from parent.
func NewManager(parent context.Context) *Manager {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Manager{ctx: ctx, cancel: cancel}
}

// HandleSignals triggers Shutdown on SIGINT or SIGTERM.
// Call the returned function to stop listening.
func (m *Manager) HandleSignals() func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			m.Shutdown()
		case <-done:
		}
	}()
	var once sync.Once
	stop := func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
		})
	}
	m.mu.Lock()
	m.stopSig = stop
	m.mu.Unlock()
	return stop
}

// RegisterCleanup adds a cleanup. Cleanups run in LIFO order.
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// Shutdown cancels the manager's context. Safe to call more than once.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		m.stopping = true
		m.mu.Unlock()
		m.cancel()
	})
}

// IsShutdown reports whether Shutdown has been called.
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopping
}

// Context is cancelled when shutdown starts.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Wait runs every cleanup and returns their joined errors, or ctx.Err()
// if the deadline passes first.
func (m *Manager) Wait(ctx context.Context) error {
	m.Shutdown()

	m.mu.Lock()
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.cleanups = nil
	stop := m.stopSig
	m.mu.Unlock()

	if stop != nil {
		stop()
	}

	errCh := make(chan error, 1)
	go func() {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i].fn(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", cleanups[i].name, err))
			}
		}
		errCh <- errors.Join(errs...)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
