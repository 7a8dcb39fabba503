package backup_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chorebuddy/internal/testutil"
)

// =============================================================================
// Backup CLI Tests
// =============================================================================

func newBackupCLI(t *testing.T) *testutil.CLITest {
	t.Helper()
	cli := testutil.NewCLITest(t)
	cli.SetNow(time.Date(2026, 5, 10, 8, 30, 0, 0, time.Local))
	return cli
}

func TestBackupExportImportCLI(t *testing.T) {
	cli := newBackupCLI(t)
	backupDir := filepath.Join(cli.TmpDir(), "backups")

	cli.MustExecute("add", "Water plants", "--every", "weekly", "--due", "2026-05-12 09:00", "-t", "garden")
	cli.MustExecute("done", "Water plants", "--note", "before backup")
	cli.MustExecute("settings", "set", "history_visible", "true")

	stdout := cli.MustExecute("backup", "export", backupDir)
	want := filepath.Join(backupDir, "ChoreBuddy_Backup_20260510_083000.db3")
	testutil.AssertContains(t, stdout, "Backup written to "+want)
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected backup file: %v", err)
	}

	stdout = cli.MustExecute("about")
	testutil.AssertContains(t, stdout, "Last backup: 2026-05-10T08:30:00")

	// diverge from the backup
	cli.MustExecute("delete", "Water plants")
	cli.MustExecute("add", "Mow lawn")
	cli.MustExecute("settings", "set", "history_visible", "false")

	stdout = cli.MustExecute("backup", "import", want)
	testutil.AssertContains(t, stdout, "Restored")
	testutil.AssertContains(t, stdout, "(1 active chore(s))")

	stdout = cli.MustExecute("list")
	testutil.AssertContains(t, stdout, "Water plants")
	testutil.AssertContains(t, stdout, "before backup")
	testutil.AssertNotContains(t, stdout, "Mow lawn")

	stdout = cli.MustExecute("history", "Water plants")
	testutil.AssertContains(t, stdout, "History (1)")

	stdout = cli.MustExecute("remind", "list")
	testutil.AssertContains(t, stdout, "Mission Alert: Water plants")
}

func TestBackupImportRejectsBadFilesCLI(t *testing.T) {
	cli := newBackupCLI(t)
	cli.MustExecute("add", "Do dishes")
	dir := cli.TmpDir()

	wrongExt := filepath.Join(dir, "backup.txt")
	empty := filepath.Join(dir, "empty.db3")
	garbage := filepath.Join(dir, "garbage.db3")
	for path, content := range map[string]string{wrongExt: "x", empty: "", garbage: "not a database at all"} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"wrong extension", wrongExt, "expected a .db3 file"},
		{"empty file", empty, "file is empty"},
		{"not sqlite", garbage, "invalid backup"},
		{"missing", filepath.Join(dir, "missing.db3"), "invalid backup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr := cli.ExecuteAndFail("backup", "import", tt.path)
			testutil.AssertContains(t, stderr, tt.want)
		})
	}

	// live data survives every failed import
	stdout := cli.MustExecute("list")
	testutil.AssertContains(t, stdout, "Do dishes")
}

func TestBackupImportDeclinedCLI(t *testing.T) {
	cli := newBackupCLI(t)
	cli.MustExecute("add", "Do dishes")
	cli.MustExecute("backup", "export", cli.TmpDir())

	cli.Config().NoPrompt = false
	cli.SetStdin("no\n")
	stdout := cli.MustExecute("backup", "import", filepath.Join(cli.TmpDir(), "ChoreBuddy_Backup_20260510_083000.db3"))
	testutil.AssertContains(t, stdout, "All current chores, tags, history and settings are replaced.")
	testutil.AssertContains(t, stdout, "Cancelled")
}

func TestBackupJSONCLI(t *testing.T) {
	cli := newBackupCLI(t)
	cli.MustExecute("add", "Mow lawn", "--every", "weekly", "-t", "garden")
	cli.MustExecute("done", "Mow lawn", "--note", "edges too")

	stdout := cli.MustExecute("backup", "json")
	var export struct {
		Version int `json:"version"`
		Tags    []struct {
			Name string `json:"name"`
		} `json:"tags"`
		Chores []struct {
			Name    string `json:"name"`
			History []struct {
				Note string `json:"note"`
			} `json:"history"`
		} `json:"chores"`
	}
	if err := json.Unmarshal([]byte(stdout), &export); err != nil {
		t.Fatalf("backup json is not valid JSON: %v\n%s", err, stdout)
	}
	if len(export.Chores) != 1 || export.Chores[0].Name != "Mow lawn" {
		t.Fatalf("unexpected chores: %+v", export.Chores)
	}
	if len(export.Chores[0].History) != 1 || export.Chores[0].History[0].Note != "edges too" {
		t.Errorf("unexpected history: %+v", export.Chores[0].History)
	}
	if len(export.Tags) != 1 || export.Tags[0].Name != "garden" {
		t.Errorf("unexpected tags: %+v", export.Tags)
	}

	path := filepath.Join(cli.TmpDir(), "export.json")
	stdout = cli.MustExecute("backup", "json", "-o", path)
	testutil.AssertContains(t, stdout, "Export written to "+path)
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected a non-empty export file: %v", err)
	}
}
