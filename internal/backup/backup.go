// Package backup exports the database to a timestamped file and restores
// the live database from such a file.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chorebuddy/internal/utils"

	_ "modernc.org/sqlite"
)

// FileExt is the extension of backup files
const FileExt = ".db3"

// sqliteHeader starts every SQLite database file
var sqliteHeader = []byte("SQLite format 3\x00")

// Store is the live database that gets copied and replaced
type Store interface {
	Path() string
	Checkpoint(ctx context.Context) error
	Close() error
	Reopen() error
}

// Recorder persists the time of the last successful export
type Recorder interface {
	SetLastBackup(ctx context.Context, t time.Time) error
}

// Resyncer rebuilds derived state, such as reminders, after a restore
type Resyncer interface {
	Resync(ctx context.Context) (int, error)
}

// Service performs backups of a Store
type Service struct {
	store    Store
	recorder Recorder
	resync   Resyncer
}

// NewService creates a backup service. recorder and resync may be nil.
func NewService(store Store, recorder Recorder, resync Resyncer) *Service {
	return &Service{store: store, recorder: recorder, resync: resync}
}

// FileName returns the backup file name for a given time
func FileName(now time.Time) string {
	return fmt.Sprintf("ChoreBuddy_Backup_%s%s", now.Format("20060102_150405"), FileExt)
}

// Export flushes the write-ahead log and copies the database into dir.
// Returns the path of the written file.
func (s *Service) Export(ctx context.Context, dir string, now time.Time) (string, error) {
	src := s.store.Path()
	if info, err := os.Stat(src); err != nil || info.IsDir() {
		return "", utils.ErrNoDatabase(src)
	}

	if err := s.store.Checkpoint(ctx); err != nil {
		return "", fmt.Errorf("failed to flush database: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	dst := filepath.Join(dir, FileName(now))
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if s.recorder != nil {
		if err := s.recorder.SetLastBackup(ctx, now); err != nil {
			return dst, fmt.Errorf("backup written but not recorded: %w", err)
		}
	}
	utils.Debugf("Exported database to %s", dst)
	return dst, nil
}

// Import replaces the live database with the backup at src.
//
// The file must have the .db3 extension, be non-empty and be a SQLite
// database containing a chores table. It is staged and validated next to
// the live database before the store is closed, so a bad file never
// destroys existing data.
func (s *Service) Import(ctx context.Context, src string) error {
	if !strings.EqualFold(filepath.Ext(src), FileExt) {
		return utils.ErrInvalidBackup(src, "expected a "+FileExt+" file")
	}
	info, err := os.Stat(src)
	if err != nil {
		return utils.ErrInvalidBackup(src, err.Error())
	}
	if info.IsDir() || info.Size() == 0 {
		return utils.ErrInvalidBackup(src, "file is empty")
	}

	dbPath := s.store.Path()
	staged := dbPath + ".import"
	defer removeDatabaseFiles(staged)

	if err := copyFile(src, staged); err != nil {
		return fmt.Errorf("failed to stage backup: %w", err)
	}
	if err := validate(ctx, staged); err != nil {
		return utils.ErrInvalidBackup(src, err.Error())
	}
	// validation may leave journal files behind
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(staged + suffix)
	}

	if err := s.store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	// the live file is kept aside until the restored one opens
	previous := dbPath + ".previous"
	removeDatabaseFiles(previous)
	if err := moveDatabaseFiles(dbPath, previous); err != nil {
		return errors.Join(fmt.Errorf("failed to set database aside: %w", err), s.store.Reopen())
	}

	if err := os.Rename(staged, dbPath); err != nil {
		return errors.Join(fmt.Errorf("failed to replace database: %w", err), s.rollback(previous))
	}

	if err := s.store.Reopen(); err != nil {
		return errors.Join(utils.ErrInvalidBackup(src, "cannot be opened: "+err.Error()), s.rollback(previous))
	}
	removeDatabaseFiles(previous)

	if s.resync != nil {
		n, err := s.resync.Resync(ctx)
		if err != nil {
			return fmt.Errorf("restored, but rescheduling reminders failed: %w", err)
		}
		utils.Debugf("Rescheduled %d reminder(s) after restore", n)
	}
	return nil
}

// rollback puts the database set aside by Import back in place and reopens it
func (s *Service) rollback(previous string) error {
	dbPath := s.store.Path()
	removeDatabaseFiles(dbPath)
	if err := moveDatabaseFiles(previous, dbPath); err != nil {
		return fmt.Errorf("failed to restore previous database from %s: %w", previous, err)
	}
	if err := s.store.Reopen(); err != nil {
		return fmt.Errorf("failed to reopen previous database: %w", err)
	}
	utils.Warnf("Restore failed, previous database put back")
	return nil
}

// validate checks the SQLite header and the presence of a chores table
func validate(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	header := make([]byte, len(sqliteHeader))
	_, err = io.ReadFull(f, header)
	_ = f.Close()
	if err != nil || !bytes.Equal(header, sqliteHeader) {
		return errors.New("not a SQLite database")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var n int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'chores'").Scan(&n)
	if err != nil {
		return fmt.Errorf("unreadable database: %w", err)
	}
	if n == 0 {
		return errors.New("no chores table")
	}
	return nil
}

// copyFile copies src to dst and syncs dst to disk
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// moveDatabaseFiles renames a database file and any WAL and shared-memory siblings
func moveDatabaseFiles(from, to string) error {
	if err := os.Rename(from, to); err != nil {
		return err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Rename(from+suffix, to+suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// removeDatabaseFiles deletes a database file and its WAL and shared-memory siblings
func removeDatabaseFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			utils.Warnf("Could not remove %s: %v", p, err)
		}
	}
}
