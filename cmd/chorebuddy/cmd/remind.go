package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"chorebuddy/internal/notification"
	"chorebuddy/internal/reminder"
	"chorebuddy/internal/shutdown"
	"chorebuddy/internal/utils"
)

// shutdownTimeout bounds how long cleanups may take once a long-running
// command is asked to stop
const shutdownTimeout = 5 * time.Second

// newRemindCmd creates the 'remind' subcommand tree
func newRemindCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	remindCmd := &cobra.Command{
		Use:   "remind",
		Short: "Deliver and inspect chore reminders",
		Long: `Each active chore with a due date and reminders enabled has one pending
reminder at its due date. 'remind check' delivers the ones that are due;
'remind watch' keeps doing so until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	remindCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Deliver reminders that are due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, doRemindCheck)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	remindCmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List pending reminders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, doRemindList)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Deliver reminders as they come due until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			limit, _ := cmd.Flags().GetDuration("for")
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doRemindWatch(ctx, a, stderr, interval, limit)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	watchCmd.Flags().Duration("interval", 0, "How often to check (default reminder.check_interval)")
	watchCmd.Flags().Duration("for", 0, "Stop after this long (default: run until interrupted)")
	remindCmd.AddCommand(watchCmd)

	remindCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification through the configured channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, doRemindTest)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	remindCmd.AddCommand(&cobra.Command{
		Use:   "resync",
		Short: "Rebuild pending reminders from the active chores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				n, err := a.remind.Resync(ctx)
				if err != nil {
					return err
				}
				if a.json {
					return a.writeJSON(map[string]any{"action": "resync", "scheduled": n, "result": ResultActionCompleted})
				}
				a.printf("Scheduled %d reminder(s)\n", n)
				a.done(ResultActionCompleted)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return remindCmd
}

// useNotifier builds the notification manager from configuration and
// hands it to the reminder service
func (a *app) useNotifier() (notification.NotificationManager, error) {
	if a.notifier != nil {
		return a.notifier, nil
	}
	logPath := a.conf.GetNotificationLogPath()
	if a.cfg.NotificationLogPath != "" {
		logPath = a.cfg.NotificationLogPath
	}
	ncfg := &notification.Config{
		OSNotification: notification.OSNotificationConfig{
			Enabled: a.conf.IsOSNotificationEnabled(),
			Sound:   true,
		},
		LogNotification: notification.LogNotificationConfig{
			Enabled:    a.conf.IsLogNotificationEnabled(),
			Path:       logPath,
			MaxSizeMB:  a.conf.GetLogMaxSizeMB(),
			MaxBackups: a.conf.GetLogMaxBackups(),
		},
	}
	var opts []notification.Option
	switch {
	case a.cfg.NotificationExecutor != nil:
		opts = append(opts, notification.WithCommandExecutor(a.cfg.NotificationExecutor))
	case a.cfg.NotificationMock:
		opts = append(opts, notification.WithCommandExecutor(&notification.MockCommandExecutor{}))
	}
	opts = append(opts, notification.WithBreaker(notification.DefaultBreakerThreshold, notification.DefaultBreakerCooldown))
	opts = append(opts, notification.WithSendCallback(func(n notification.Notification) {
		utils.Debugf("notify chore=%d %q", n.ChoreID, n.Title)
	}))

	manager, err := notification.NewManager(ncfg, opts...)
	if err != nil {
		return nil, err
	}
	if manager.ChannelCount() == 0 {
		utils.Warnf("all notification channels are disabled in the config file")
	}
	a.notifier = manager
	a.remind.SetNotifier(manager)
	return manager, nil
}

type reminderListResponse struct {
	Reminders []reminder.Reminder `json:"reminders"`
	Count     int                 `json:"count"`
	Result    string              `json:"result"`
}

func doRemindCheck(ctx context.Context, a *app) error {
	if _, err := a.useNotifier(); err != nil {
		return err
	}
	fired, err := a.remind.Fire(ctx)
	if fired == nil && err != nil {
		return err
	}
	if err != nil {
		utils.Warnf("some reminders could not be delivered: %v", err)
	}

	code := ResultInfoOnly
	if len(fired) > 0 {
		code = ResultActionCompleted
	}
	if a.json {
		return a.writeJSON(reminderListResponse{Reminders: fired, Count: len(fired), Result: code})
	}
	if len(fired) == 0 {
		a.printf("No reminders due\n")
	} else {
		a.printf("Sent %d reminder(s):\n", len(fired))
		for _, r := range fired {
			a.printf("  %s\n", r.Title)
		}
	}
	a.done(code)
	return nil
}

func doRemindList(ctx context.Context, a *app) error {
	pending, err := a.remind.Pending(ctx)
	if err != nil {
		return err
	}
	if a.json {
		return a.writeJSON(reminderListResponse{Reminders: pending, Count: len(pending), Result: ResultInfoOnly})
	}
	if len(pending) == 0 {
		a.printf("No pending reminders\n")
		a.done(ResultInfoOnly)
		return nil
	}
	enabled, err := a.settings.NotificationsEnabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		a.printf("Notifications are disabled; enable with: chorebuddy settings set notifications_enabled true\n")
	}
	a.printf("Pending reminders (%d):\n", len(pending))
	for _, r := range pending {
		a.printf("  %s  %s\n", r.NotifyAt.Format("2006-01-02 15:04"), r.Title)
	}
	a.done(ResultInfoOnly)
	return nil
}

func doRemindWatch(ctx context.Context, a *app, stderr io.Writer, interval, limit time.Duration) error {
	if interval <= 0 {
		interval = a.conf.GetReminderInterval()
	}
	if interval < time.Second {
		return fmt.Errorf("interval must be at least 1s, got %s", interval)
	}
	if _, err := a.useNotifier(); err != nil {
		return err
	}

	logger, err := utils.NewBackgroundLogger(a.conf.IsBackgroundLoggingEnabled())
	if err != nil {
		utils.Warnf("background log unavailable: %v", err)
	}

	mgr := shutdown.NewManager(ctx)
	stopSignals := mgr.HandleSignals()
	defer stopSignals()
	mgr.RegisterCleanup("background log", func(context.Context) error {
		logger.Close()
		return nil
	})

	runCtx := mgr.Context()
	if limit > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, limit)
		defer cancel()
	}

	if !a.json {
		a.printf("Watching for due reminders every %s (Ctrl+C to stop)\n", interval)
		if logger.Path() != "" {
			a.printf("Log: %s\n", logger.Path())
		}
	}
	logger.Printf("watch started, interval %s", interval)

	delivered := 0
	runErr := a.remind.Run(runCtx, interval, func(fired []reminder.Reminder, err error) {
		for _, r := range fired {
			delivered++
			logger.Printf("delivered %q (chore %d)", r.Title, r.ChoreID)
			if !a.json {
				a.printf("%s  %s\n", a.now().Format("15:04:05"), r.Title)
			}
		}
		if err != nil {
			logger.Printf("delivery failed: %v", err)
			_, _ = fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	})
	reason := "time limit reached"
	if mgr.IsShutdown() {
		reason = "interrupted"
	}
	logger.Printf("watch stopped (%s) after %d reminder(s)", reason, delivered)

	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := mgr.Wait(waitCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}

	if a.json {
		return a.writeJSON(map[string]any{"action": "watch", "delivered": delivered, "result": ResultActionCompleted})
	}
	a.printf("Stopped after delivering %d reminder(s)\n", delivered)
	a.done(ResultActionCompleted)
	return nil
}

func doRemindTest(ctx context.Context, a *app) error {
	manager, err := a.useNotifier()
	if err != nil {
		return err
	}
	if manager.ChannelCount() == 0 {
		return utils.WrapWithSuggestion(
			errors.New("no notification channels are enabled"),
			"Enable reminder.os_notification or reminder.log_notification in the config file")
	}
	n := notification.Notification{
		Type:      notification.NotifyTest,
		Title:     reminder.Title("Test"),
		Message:   reminder.Message,
		Timestamp: a.now(),
	}
	if err := manager.Send(n); err != nil {
		return fmt.Errorf("test notification failed: %w", err)
	}
	if a.json {
		return a.writeJSON(map[string]any{"action": "test", "channels": manager.ChannelCount(), "result": ResultActionCompleted})
	}
	a.printf("Sent test notification to %d channel(s)\n", manager.ChannelCount())
	a.done(ResultActionCompleted)
	return nil
}
