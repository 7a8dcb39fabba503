package reminder_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"chorebuddy/internal/notification"
	"chorebuddy/internal/testutil"
)

// =============================================================================
// Reminder CLI Tests
// =============================================================================

type pendingOut struct {
	Reminders []struct {
		ChoreID int64  `json:"chore_id"`
		Title   string `json:"title"`
		Body    string `json:"body"`
	} `json:"reminders"`
	Count int `json:"count"`
}

func newReminderCLI(t *testing.T) *testutil.CLITest {
	t.Helper()
	cli := testutil.NewCLITest(t)
	cli.SetNow(time.Date(2026, 5, 10, 8, 30, 0, 0, time.Local))
	return cli
}

func TestRemindListCLI(t *testing.T) {
	cli := newReminderCLI(t)

	stdout := cli.MustExecute("remind", "list")
	testutil.AssertContains(t, stdout, "No pending reminders")

	cli.MustExecute("add", "Water plants", "--due", "2026-05-10 09:00")
	cli.MustExecute("add", "Mow lawn", "--due", "2026-05-12 10:00")
	cli.MustExecute("add", "Overdue", "--due", "2026-05-01")
	cli.MustExecute("add", "Quiet", "--due", "2026-05-11", "--no-notify")
	cli.MustExecute("add", "Someday")

	var out pendingOut
	cli.MustExecuteJSON(&out, "remind", "list")
	if out.Count != 2 {
		t.Fatalf("expected 2 pending reminders, got %d: %+v", out.Count, out.Reminders)
	}
	if out.Reminders[0].Title != "Mission Alert: Water plants" {
		t.Errorf("expected earliest reminder first, got %q", out.Reminders[0].Title)
	}
	if out.Reminders[1].Body != "It's time to engage your next mission." {
		t.Errorf("unexpected body %q", out.Reminders[1].Body)
	}

	stdout = cli.MustExecute("remind", "list")
	testutil.AssertContains(t, stdout, "2026-05-10 09:00  Mission Alert: Water plants")
	testutil.AssertResultCode(t, stdout, "INFO_ONLY")
}

func TestRemindCheckCLI(t *testing.T) {
	cli := newReminderCLI(t)
	cli.MustExecute("add", "Water plants", "--due", "2026-05-10 09:00")
	cli.MustExecute("add", "Mow lawn", "--due", "2026-05-12 10:00")

	stdout := cli.MustExecute("remind", "check")
	testutil.AssertContains(t, stdout, "No reminders due")
	testutil.AssertResultCode(t, stdout, "INFO_ONLY")

	cli.SetNow(time.Date(2026, 5, 10, 9, 5, 0, 0, time.Local))
	stdout = cli.MustExecute("remind", "check")
	testutil.AssertContains(t, stdout, "Sent 1 reminder(s)")
	testutil.AssertContains(t, stdout, "Mission Alert: Water plants")
	testutil.AssertResultCode(t, stdout, "ACTION_COMPLETED")

	log := cli.NotificationLog()
	if len(log) != 1 {
		t.Fatalf("expected 1 log line, got %d: %v", len(log), log)
	}
	testutil.AssertContains(t, log[0], "[REMINDER] #1 Mission Alert: Water plants - It's time to engage your next mission.")

	// delivered reminders are removed
	stdout = cli.MustExecute("remind", "check")
	testutil.AssertContains(t, stdout, "No reminders due")

	var out pendingOut
	cli.MustExecuteJSON(&out, "remind", "list")
	if out.Count != 1 || out.Reminders[0].Title != "Mission Alert: Mow lawn" {
		t.Errorf("expected only Mow lawn pending, got %+v", out.Reminders)
	}
}

func TestRemindFollowsChoreChangesCLI(t *testing.T) {
	cli := newReminderCLI(t)
	cli.MustExecute("add", "Do dishes", "--every", "daily", "--due", "2026-05-10 19:00")
	cli.MustExecute("add", "Mow lawn", "--due", "2026-05-12 10:00")

	var out pendingOut

	cli.MustExecute("done", "Do dishes")
	cli.MustExecuteJSON(&out, "remind", "list")
	if out.Count != 2 {
		t.Fatalf("expected completed daily chore to keep a reminder, got %+v", out.Reminders)
	}

	cli.MustExecute("archive", "Mow lawn")
	cli.MustExecuteJSON(&out, "remind", "list")
	if out.Count != 1 || out.Reminders[0].Title != "Mission Alert: Do dishes" {
		t.Errorf("expected archive to cancel the reminder, got %+v", out.Reminders)
	}

	cli.MustExecute("unarchive", "Mow lawn")
	cli.MustExecute("edit", "Do dishes", "--no-notify")
	cli.MustExecuteJSON(&out, "remind", "list")
	if out.Count != 1 || out.Reminders[0].Title != "Mission Alert: Mow lawn" {
		t.Errorf("expected unarchive and --no-notify to swap reminders, got %+v", out.Reminders)
	}

	cli.MustExecute("delete", "Mow lawn")
	cli.MustExecuteJSON(&out, "remind", "list")
	if out.Count != 0 {
		t.Errorf("expected delete to cancel the reminder, got %+v", out.Reminders)
	}
}

func TestRemindGlobalSwitchCLI(t *testing.T) {
	cli := newReminderCLI(t)
	cli.MustExecute("add", "Water plants", "--due", "2026-05-11 09:00")
	cli.MustExecute("add", "Mow lawn", "--due", "2026-05-12 10:00")

	cli.MustExecute("settings", "set", "notifications_enabled", "false")
	stdout := cli.MustExecute("remind", "list")
	testutil.AssertContains(t, stdout, "No pending reminders")

	cli.MustExecute("add", "Do dishes", "--due", "2026-05-11 19:00")
	stdout = cli.MustExecute("remind", "list")
	testutil.AssertContains(t, stdout, "No pending reminders")

	cli.MustExecute("settings", "set", "notifications_enabled", "true")
	var out pendingOut
	cli.MustExecuteJSON(&out, "remind", "list")
	if out.Count != 3 {
		t.Errorf("expected all 3 reminders back after enabling, got %+v", out.Reminders)
	}
}

func TestRemindResyncCLI(t *testing.T) {
	cli := newReminderCLI(t)
	cli.MustExecute("add", "Water plants", "--due", "2026-05-11 09:00")
	cli.MustExecute("add", "Mow lawn", "--due", "2026-05-01 10:00")

	stdout := cli.MustExecute("remind", "resync")
	testutil.AssertContains(t, stdout, "Scheduled 1 reminder(s)")
}

func TestRemindTestCLI(t *testing.T) {
	cli := newReminderCLI(t)

	stdout := cli.MustExecute("remind", "test")
	testutil.AssertContains(t, stdout, "Sent test notification to 1 channel(s)")

	log := cli.NotificationLog()
	if len(log) != 1 || !strings.Contains(log[0], "[TEST] Mission Alert: Test") {
		t.Errorf("expected a test entry in the log, got %v", log)
	}

	cli.SetFullConfig("reminder:\n  os_notification: false\n  log_notification: false\nlogging:\n  background_enabled: false\n")
	_, stderr := cli.ExecuteAndFail("remind", "test")
	testutil.AssertContains(t, stderr, "no notification channels are enabled")
}

func TestRemindWatchCLI(t *testing.T) {
	cli := newReminderCLI(t)
	cli.MustExecute("add", "Water plants", "--due", "2026-05-10 09:00")

	cli.SetNow(time.Date(2026, 5, 10, 9, 0, 30, 0, time.Local))
	stdout := cli.MustExecute("remind", "watch", "--interval", "1s", "--for", "1500ms")
	testutil.AssertContains(t, stdout, "Watching for due reminders every 1s")
	testutil.AssertContains(t, stdout, "Mission Alert: Water plants")
	testutil.AssertContains(t, stdout, "Stopped after delivering 1 reminder(s)")
	testutil.AssertResultCode(t, stdout, "ACTION_COMPLETED")

	if log := cli.NotificationLog(); len(log) != 1 {
		t.Errorf("expected one delivered reminder in the log, got %v", log)
	}

	_, stderr := cli.ExecuteAndFail("remind", "watch", "--interval", "10ms")
	testutil.AssertContains(t, stderr, "at least 1s")
}

func TestRemindWatchSuspendsFailingDesktopCLI(t *testing.T) {
	cli := newReminderCLI(t)
	cli.SetFullConfig("reminder:\n  os_notification: true\n  log_notification: true\nlogging:\n  background_enabled: false\n")
	calls := 0
	cli.Config().NotificationExecutor = &notification.MockCommandExecutor{ExecuteFunc: func(string, ...string) error {
		calls++
		return errors.New("notify-send missing")
	}}

	for i := 1; i <= 5; i++ {
		cli.MustExecute("add", fmt.Sprintf("Chore %d", i), "--due", fmt.Sprintf("2026-05-10 09:0%d", i))
	}

	cli.SetNow(time.Date(2026, 5, 10, 9, 10, 0, 0, time.Local))
	stdout, stderr, code := cli.Execute("remind", "watch", "--interval", "1s", "--for", "1500ms")
	if code != 0 {
		t.Fatalf("watch failed with code %d: %s", code, stderr)
	}
	testutil.AssertContains(t, stdout, "Stopped after delivering 5 reminder(s)")

	if calls != 3 {
		t.Errorf("expected the desktop notifier to be tried 3 times, got %d", calls)
	}
	if n := strings.Count(stderr, "Warning:"); n != 1 {
		t.Errorf("expected one warning for the failing tick, got %d:\n%s", n, stderr)
	}
	testutil.AssertContains(t, stderr, "chore 3: notify-send missing")
	testutil.AssertNotContains(t, stderr, "chore 4:")
	testutil.AssertNotContains(t, stderr, "suspended")

	if log := cli.NotificationLog(); len(log) != 5 {
		t.Errorf("log channel should deliver every reminder, got %d lines", len(log))
	}
}
