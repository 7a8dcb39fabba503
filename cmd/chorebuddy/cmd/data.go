package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"chorebuddy/internal/backup"
	"chorebuddy/internal/cli/prompt"
	"chorebuddy/internal/settings"
	"chorebuddy/internal/shutdown"
	"chorebuddy/internal/tui"
	"chorebuddy/internal/utils"
	"chorebuddy/internal/watcher"
)

// newSettingsCmd creates the 'settings' subcommand
func newSettingsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences stored with your chores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, doSettingsShow)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change a preference (VALUE 'default' resets it)",
		Long: `Change a preference. Known keys:
  notifications_enabled  true|false
  history_visible        true|false
  sort_order             name|last_completed|due_date
  sort_direction         asc|desc`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doSettingsSet(ctx, a, args[0], args[1])
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return settingsCmd
}

func doSettingsShow(ctx context.Context, a *app) error {
	all, err := a.settings.All(ctx)
	if err != nil {
		return err
	}
	if a.json {
		resp := map[string]any{"settings": all, "result": ResultInfoOnly}
		return a.writeJSON(resp)
	}
	for _, k := range settings.Keys() {
		v := all[k]
		if v == "" {
			v = "(unset)"
		}
		a.printf("%-22s %s\n", k, v)
	}
	a.done(ResultInfoOnly)
	return nil
}

func doSettingsSet(ctx context.Context, a *app, key, raw string) error {
	value, err := a.settings.Set(ctx, key, raw)
	if err != nil {
		return err
	}
	if key == settings.KeyNotificationsEnabled {
		n, err := a.remind.Resync(ctx)
		if err != nil {
			return fmt.Errorf("setting saved, but rescheduling reminders failed: %w", err)
		}
		utils.Debugf("rescheduled %d reminder(s)", n)
	}
	if a.json {
		return a.writeJSON(map[string]string{"action": "settings-set", "key": key, "value": value, "result": ResultActionCompleted})
	}
	a.printf("%s = %s\n", key, value)
	a.done(ResultActionCompleted)
	return nil
}

// newBackupCmd creates the 'backup' subcommand tree
func newBackupCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the chore database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	backupCmd.AddCommand(&cobra.Command{
		Use:   "export [DIR]",
		Short: "Copy the database to a timestamped .db3 file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				dir := a.conf.GetBackupDir()
				if len(args) == 1 {
					dir = args[0]
				}
				return doBackupExport(ctx, a, dir)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	backupCmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Replace all data with a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doBackupImport(ctx, a, args[0])
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	jsonCmd := &cobra.Command{
		Use:   "json",
		Short: "Write chores, tags and history as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doBackupJSON(ctx, a, output)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	jsonCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	backupCmd.AddCommand(jsonCmd)

	return backupCmd
}

func doBackupExport(ctx context.Context, a *app, dir string) error {
	path, err := a.backups.Export(ctx, dir, a.now())
	if err != nil {
		return err
	}
	if a.json {
		return a.writeJSON(map[string]string{"action": "backup-export", "path": path, "result": ResultActionCompleted})
	}
	a.printf("Backup written to %s\n", path)
	a.done(ResultActionCompleted)
	return nil
}

func doBackupImport(ctx context.Context, a *app, src string) error {
	ok, err := a.confirm.Confirm(
		fmt.Sprintf("Restore %s?", filepath.Base(src)),
		"All current chores, tags, history and settings are replaced.")
	if err != nil || !ok {
		return cancelled(a, err)
	}
	if err := a.backups.Import(ctx, src); err != nil {
		return err
	}
	items, err := a.store.ListActiveChoreItems(ctx)
	if err != nil {
		return err
	}
	if a.json {
		return a.writeJSON(map[string]any{"action": "backup-import", "path": src, "chores": len(items), "result": ResultActionCompleted})
	}
	a.printf("Restored %s (%d active chore(s))\n", src, len(items))
	a.done(ResultActionCompleted)
	return nil
}

func doBackupJSON(ctx context.Context, a *app, output string) error {
	if output == "" {
		return backup.WriteJSON(ctx, a.stdout, a.store, a.now())
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := backup.WriteJSON(ctx, f, a.store, a.now()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if a.json {
		return a.writeJSON(map[string]string{"action": "backup-json", "path": output, "result": ResultActionCompleted})
	}
	a.printf("Export written to %s\n", output)
	a.done(ResultActionCompleted)
	return nil
}

// newTUICmd creates the 'tui' subcommand
func newTUICmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive chore board",
		Long: `Open the interactive chore board. Changes made by other chorebuddy
processes (for example 'chorebuddy done' in another terminal) are picked up
automatically. Press ? inside the board for key bindings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, doTUI)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func doTUI(ctx context.Context, a *app) error {
	if !prompt.IsTerminal(a.stdin) {
		return utils.WrapWithSuggestion(
			errors.New("the board needs an interactive terminal"),
			"Use 'chorebuddy list' in scripts")
	}

	mgr := shutdown.NewManager(ctx)
	stopSignals := mgr.HandleSignals()
	defer stopSignals()

	model := tui.New(mgr.Context(), a.board, a.settings)
	model.SetClock(a.now)
	p := tea.NewProgram(model,
		tea.WithContext(mgr.Context()),
		tea.WithInput(a.stdin),
		tea.WithOutput(a.stdout),
		tea.WithAltScreen(),
	)

	w, err := watcher.New(watcher.DefaultConfig(a.store.Path(), func() {
		p.Send(tui.ReloadMsg{})
	}))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		utils.Warnf("external changes will not be picked up: %v", err)
	}
	mgr.RegisterCleanup("database watcher", func(context.Context) error {
		w.Stop()
		return nil
	})

	_, runErr := p.Run()
	if errors.Is(runErr, tea.ErrProgramKilled) {
		runErr = nil
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, mgr.Wait(waitCtx))
}

