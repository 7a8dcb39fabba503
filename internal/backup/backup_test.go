package backup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chorebuddy/backend"
	"chorebuddy/backend/sqlite"
	"chorebuddy/internal/settings"
	"chorebuddy/internal/utils"
)

type countingResyncer struct{ calls int }

func (c *countingResyncer) Resync(context.Context) (int, error) {
	c.calls++
	return 0, nil
}

func newFileStore(t *testing.T, dir string) *sqlite.Backend {
	t.Helper()
	store, err := sqlite.New(filepath.Join(dir, "ChoreBuddy.db3"))
	if err != nil {
		t.Fatalf("sqlite.New error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustAdd(t *testing.T, store backend.ChoreStore, name string) *backend.Chore {
	t.Helper()
	c, err := store.SaveChore(context.Background(), backend.NewChore(name))
	if err != nil {
		t.Fatalf("SaveChore(%q) error: %v", name, err)
	}
	return c
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.Local)
	if got := FileName(now); got != "ChoreBuddy_Backup_20260203_040506.db3" {
		t.Errorf("FileName = %q", got)
	}
}

// =============================================================================
// Export
// =============================================================================

func TestExportCopiesAndRecords(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, t.TempDir())
	prefs := settings.New(store)
	mustAdd(t, store, "Sweep")

	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.Local)
	outDir := filepath.Join(t.TempDir(), "backups")
	path, err := NewService(store, prefs, nil).Export(ctx, outDir, now)
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	if filepath.Base(path) != FileName(now) {
		t.Errorf("path = %s", path)
	}

	// The copy is a standalone database containing the chore
	copyStore, err := sqlite.New(path)
	if err != nil {
		t.Fatalf("opening backup error: %v", err)
	}
	defer func() { _ = copyStore.Close() }()
	if _, err := copyStore.GetChoreByName(ctx, "sweep"); err != nil {
		t.Errorf("backup should contain chore: %v", err)
	}

	last, err := prefs.LastBackup(ctx)
	if err != nil || last == nil || !last.Equal(now) {
		t.Errorf("LastBackup = %v, %v; want %v", last, err, now)
	}
}

func TestExportWithoutDatabaseFile(t *testing.T) {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New error: %v", err)
	}
	defer func() { _ = store.Close() }()

	_, err = NewService(store, nil, nil).Export(context.Background(), t.TempDir(), time.Now())
	var ews *utils.ErrorWithSuggestion
	if !errors.As(err, &ews) {
		t.Errorf("Export error = %v, want ErrorWithSuggestion", err)
	}
}

// =============================================================================
// Import
// =============================================================================

func TestImportReplacesDatabase(t *testing.T) {
	ctx := context.Background()

	// Build a backup containing "FromBackup"
	srcStore := newFileStore(t, t.TempDir())
	mustAdd(t, srcStore, "FromBackup")
	backupPath, err := NewService(srcStore, nil, nil).Export(ctx, t.TempDir(), time.Now())
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}

	live := newFileStore(t, t.TempDir())
	mustAdd(t, live, "LiveOnly")

	resync := &countingResyncer{}
	if err := NewService(live, nil, resync).Import(ctx, backupPath); err != nil {
		t.Fatalf("Import error: %v", err)
	}

	if _, err := live.GetChoreByName(ctx, "FromBackup"); err != nil {
		t.Errorf("restored chore missing: %v", err)
	}
	if _, err := live.GetChoreByName(ctx, "LiveOnly"); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("live-only chore should be gone, err = %v", err)
	}
	if resync.calls != 1 {
		t.Errorf("Resync called %d times, want 1", resync.calls)
	}
	if _, err := os.Stat(live.Path() + ".import"); !os.IsNotExist(err) {
		t.Error("staging file should be cleaned up")
	}
}

func TestImportRejectsBadFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.db3")
	_ = os.WriteFile(empty, nil, 0644)
	text := filepath.Join(dir, "notes.DB3")
	_ = os.WriteFile(text, []byte("definitely not sqlite"), 0644)
	wrongExt := filepath.Join(dir, "backup.sqlite")
	_ = os.WriteFile(wrongExt, []byte("x"), 0644)

	// A valid SQLite file without a chores table
	other := filepath.Join(dir, "other.db3")
	if err := func() error {
		s, err := sqlite.New(filepath.Join(dir, "seed.db3"))
		if err != nil {
			return err
		}
		_, err = s.DB().Exec("DROP TABLE chore_tags; DROP TABLE completion_records; DROP TABLE chores")
		if cerr := s.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		return os.Rename(filepath.Join(dir, "seed.db3"), other)
	}(); err != nil {
		t.Fatalf("preparing fixture: %v", err)
	}

	tests := []struct {
		name, path, reason string
	}{
		{"wrong extension", wrongExt, "expected a .db3"},
		{"missing", filepath.Join(dir, "absent.db3"), "absent.db3"},
		{"empty", empty, "empty"},
		{"not sqlite", text, "not a SQLite database"},
		{"no chores table", other, "no chores table"},
	}

	live := newFileStore(t, t.TempDir())
	mustAdd(t, live, "Keep me")
	svc := NewService(live, nil, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Import(ctx, tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("error %q should mention %q", err, tt.reason)
			}
			// Live data is untouched
			if _, err := live.GetChoreByName(ctx, "keep me"); err != nil {
				t.Errorf("live database damaged: %v", err)
			}
		})
	}
}

func TestImportKeepsLiveDatabaseWhenRestoredFileFailsToOpen(t *testing.T) {
	ctx := context.Background()

	// A chores table the schema migration cannot index
	broken := filepath.Join(t.TempDir(), "broken.db3")
	db, err := sql.Open("sqlite", broken)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE chores (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("preparing fixture: %v", err)
	}
	_ = db.Close()

	live := newFileStore(t, t.TempDir())
	mustAdd(t, live, "Keep me")

	resync := &countingResyncer{}
	err = NewService(live, nil, resync).Import(ctx, broken)
	if err == nil {
		t.Fatal("expected import of an unopenable database to fail")
	}
	if !strings.Contains(err.Error(), "cannot be opened") {
		t.Errorf("unexpected error: %v", err)
	}
	if resync.calls != 0 {
		t.Errorf("Resync should not run after a failed restore")
	}

	// The store is usable and still holds the live data
	if _, err := live.GetChoreByName(ctx, "keep me"); err != nil {
		t.Errorf("live database not restored: %v", err)
	}
	if _, err := os.Stat(live.Path() + ".previous"); !os.IsNotExist(err) {
		t.Error("set-aside database should be moved back")
	}
}

// =============================================================================
// JSON export
// =============================================================================

func TestWriteJSON(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New error: %v", err)
	}
	defer func() { _ = store.Close() }()

	c := mustAdd(t, store, "Laundry")
	tag, _ := store.SaveTag(ctx, &backend.Tag{Name: "Home"})
	_ = store.SetChoreTags(ctx, c.ID, []int64{tag.ID})
	_, _ = store.CompleteChore(ctx, c.ID, time.Now(), "whites", nil)
	archived := mustAdd(t, store, "Old")
	_ = store.SetChoreActive(ctx, archived.ID, false)

	var buf bytes.Buffer
	if err := WriteJSON(ctx, &buf, store, time.Now()); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}

	var got Export
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got.Version != FormatVersion || len(got.Tags) != 1 || len(got.Chores) != 2 {
		t.Fatalf("export = %+v", got)
	}
	laundry := got.Chores[0]
	if laundry.UID != c.UID || len(laundry.Tags) != 1 || laundry.Tags[0] != "home" {
		t.Errorf("laundry = %+v", laundry)
	}
	if len(laundry.History) != 1 || laundry.History[0].Note != "whites" {
		t.Errorf("history = %+v", laundry.History)
	}
	if got.Chores[1].Active {
		t.Error("archived chore should be exported inactive")
	}
}
