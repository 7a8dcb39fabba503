// Package reminder schedules one local reminder per chore at its next due
// date and delivers due reminders through the notification manager.
package reminder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"chorebuddy/backend"
	"chorebuddy/internal/notification"
	"chorebuddy/internal/utils"
)

// Message is the body of every chore reminder
const Message = "It's time to engage your next mission."

// Title returns the reminder title for a chore
func Title(choreName string) string {
	return "Mission Alert: " + choreName
}

// Store is the chore store plus access to its database handle, where
// pending reminders are kept. DB is called on every use so the service
// keeps working after the store is reopened.
type Store interface {
	backend.ChoreStore
	DB() *sql.DB
}

// Preferences supplies the global notification switch
type Preferences interface {
	NotificationsEnabled(ctx context.Context) (bool, error)
}

// Reminder is a pending notification for a chore
type Reminder struct {
	ChoreID  int64     `json:"chore_id"`
	NotifyAt time.Time `json:"notify_at"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
}

// Service manages chore reminders
type Service struct {
	store    Store
	prefs    Preferences
	notifier notification.NotificationManager
	now      func() time.Time

	mu       sync.Mutex
	tableFor *sql.DB
}

// NewService creates a reminder service on top of store
func NewService(store Store, prefs Preferences) (*Service, error) {
	if store == nil || prefs == nil {
		return nil, errors.New("store and preferences are required")
	}
	s := &Service{store: store, prefs: prefs, now: time.Now}
	if _, err := s.conn(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// SetNotifier sets the notification manager used by Fire
func (s *Service) SetNotifier(notifier notification.NotificationManager) {
	s.notifier = notifier
}

// SetClock overrides the current time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// conn returns the current handle, creating the reminders table the first
// time a handle is seen.
func (s *Service) conn(ctx context.Context) (*sql.DB, error) {
	db := s.store.DB()
	if db == nil {
		return nil, errors.New("database is closed")
	}
	if db == s.tableFor {
		return db, nil
	}
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scheduled_reminders (
			chore_id INTEGER PRIMARY KEY,
			notify_at INTEGER NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduled_reminders table: %w", err)
	}
	s.tableFor = db
	return db, nil
}

// Schedule replaces the chore's pending reminder. A new one is created only
// when global and per-chore notifications are on, the chore is active and
// its due date is not in the past. Reports whether a reminder was created.
func (s *Service) Schedule(ctx context.Context, chore *backend.Chore) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule(ctx, chore)
}

func (s *Service) schedule(ctx context.Context, chore *backend.Chore) (bool, error) {
	if chore == nil {
		return false, nil
	}
	if err := s.cancel(ctx, chore.ID); err != nil {
		return false, err
	}

	enabled, err := s.prefs.NotificationsEnabled(ctx)
	if err != nil {
		return false, err
	}
	if !enabled || !chore.NotificationsEnabled || !chore.IsActive || chore.NextDueDate == nil {
		return false, nil
	}
	if chore.NextDueDate.Before(s.now()) {
		return false, nil
	}

	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO scheduled_reminders (chore_id, notify_at, title, body) VALUES (?, ?, ?, ?)",
		chore.ID, chore.NextDueDate.UnixMilli(), Title(chore.Name), Message,
	)
	if err != nil {
		return false, err
	}
	utils.Debugf("Scheduled reminder for chore %d at %s", chore.ID, chore.NextDueDate.Format(time.RFC3339))
	return true, nil
}

// Cancel removes the chore's pending reminder, if any
func (s *Service) Cancel(ctx context.Context, choreID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel(ctx, choreID)
}

func (s *Service) cancel(ctx context.Context, choreID int64) error {
	if choreID <= 0 {
		return nil
	}
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, "DELETE FROM scheduled_reminders WHERE chore_id = ?", choreID)
	return err
}

// CancelAll removes every pending reminder
func (s *Service) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelAll(ctx)
}

func (s *Service) cancelAll(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, "DELETE FROM scheduled_reminders")
	return err
}

// Pending lists pending reminders, soonest first
func (s *Service) Pending(ctx context.Context) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query(ctx, "SELECT chore_id, notify_at, title, body FROM scheduled_reminders ORDER BY notify_at, chore_id")
}

func (s *Service) query(ctx context.Context, query string, args ...any) ([]Reminder, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reminders := []Reminder{}
	for rows.Next() {
		var r Reminder
		var notifyAt int64
		if err := rows.Scan(&r.ChoreID, &notifyAt, &r.Title, &r.Body); err != nil {
			return nil, err
		}
		r.NotifyAt = time.UnixMilli(notifyAt)
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// Fire delivers every reminder whose time has come and removes it.
// Delivery errors are returned joined, after all reminders were processed.
func (s *Service) Fire(ctx context.Context) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	due, err := s.query(ctx,
		"SELECT chore_id, notify_at, title, body FROM scheduled_reminders WHERE notify_at <= ? ORDER BY notify_at, chore_id",
		now.UnixMilli())
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, r := range due {
		if s.notifier != nil {
			n := notification.Notification{
				Type:      notification.NotifyReminder,
				ChoreID:   r.ChoreID,
				Title:     r.Title,
				Message:   r.Body,
				Timestamp: now,
			}
			if err := s.notifier.Send(n); err != nil {
				errs = append(errs, fmt.Errorf("chore %d: %w", r.ChoreID, err))
			}
		}
		if err := s.cancel(ctx, r.ChoreID); err != nil {
			return nil, err
		}
	}
	return due, errors.Join(errs...)
}

// Resync drops all pending reminders and schedules one for every active
// chore that qualifies. Returns how many were scheduled.
func (s *Service) Resync(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cancelAll(ctx); err != nil {
		return 0, err
	}
	chores, err := s.store.ListActiveChores(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range chores {
		ok, err := s.schedule(ctx, &chores[i])
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// Run calls Fire every interval until ctx is cancelled. report, when set,
// receives the result of every tick that delivered something or failed.
func (s *Service) Run(ctx context.Context, interval time.Duration, report func([]Reminder, error)) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := func() {
		fired, err := s.Fire(ctx)
		if report != nil && (len(fired) > 0 || err != nil) {
			report(fired, err)
		}
	}

	tick()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			tick()
		}
	}
}
