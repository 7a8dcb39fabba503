package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chorebuddy/backend"
	"chorebuddy/backend/sqlite"
	"chorebuddy/internal/backup"
	"chorebuddy/internal/board"
	"chorebuddy/internal/cli/prompt"
	"chorebuddy/internal/config"
	"chorebuddy/internal/notification"
	"chorebuddy/internal/recurrence"
	"chorebuddy/internal/reminder"
	"chorebuddy/internal/settings"
	"chorebuddy/internal/utils"
)

// Version and Commit are set at build time
var (
	Version = "dev"
	Commit  = "unknown"
)

// Result codes for CLI output (used in no-prompt mode)
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// Config holds invocation settings that override the config file
type Config struct {
	NoPrompt     bool
	Verbose      bool
	OutputFormat string
	DBPath       string // Path to database file (for testing)
	ConfigPath   string // Path to config file (for testing)

	NotificationLogPath string // Overrides reminder.log_path (for testing)
	NotificationMock    bool   // Use a mock executor for OS notifications (for testing)

	// NotificationExecutor replaces the OS notifier runner (for testing)
	NotificationExecutor notification.CommandExecutor

	Stdin io.Reader
	Now   func() time.Time
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	if cfg == nil {
		cfg = &Config{}
	}
	// flags mutate the config; keep the caller's copy reusable
	local := *cfg
	cfg = &local
	rootCmd := NewChoreBuddy(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if containsJSONFlag(args) || cfg.OutputFormat == "json" {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			if cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultError)
			}
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewChoreBuddy creates the root command with injectable IO
func NewChoreBuddy(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "chorebuddy",
		Short:   "A personal chore tracker",
		Long:    "ChoreBuddy tracks recurring chores, their completion history and reminders in a local SQLite database.",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("chorebuddy version {{.Version}}\n")

	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("config", "", "Path to config file")
	cmd.PersistentFlags().String("db", "", "Path to database file")

	cmd.AddCommand(newAddCmd(stdout, cfg))
	cmd.AddCommand(newListCmd(stdout, cfg))
	cmd.AddCommand(newShowCmd(stdout, cfg))
	cmd.AddCommand(newEditCmd(stdout, cfg))
	cmd.AddCommand(newDoneCmd(stdout, cfg))
	cmd.AddCommand(newUndoCmd(stdout, cfg))
	cmd.AddCommand(newHistoryCmd(stdout, cfg))
	cmd.AddCommand(newArchiveCmd(stdout, cfg, true))
	cmd.AddCommand(newArchiveCmd(stdout, cfg, false))
	cmd.AddCommand(newDeleteCmd(stdout, cfg))
	cmd.AddCommand(newPurgeCmd(stdout, cfg))
	cmd.AddCommand(newTagCmd(stdout, cfg))
	cmd.AddCommand(newRemindCmd(stdout, stderr, cfg))
	cmd.AddCommand(newSettingsCmd(stdout, cfg))
	cmd.AddCommand(newBackupCmd(stdout, cfg))
	cmd.AddCommand(newTUICmd(stdout, cfg))
	cmd.AddCommand(newAboutCmd(stdout, cfg))
	cmd.AddCommand(newVersionCmd(stdout, cfg))

	return cmd
}

// app bundles the services one command invocation works with
type app struct {
	cfg      *Config
	conf     *config.Config
	store    *sqlite.Backend
	settings *settings.Settings
	remind   *reminder.Service
	board    *board.Board
	backups  *backup.Service
	confirm  *prompt.Confirmer
	stdin    io.Reader
	stdout   io.Writer
	json     bool
	now      func() time.Time
	notifier notification.NotificationManager
}

// applyGlobalFlags copies persistent flags into cfg
func applyGlobalFlags(cmd *cobra.Command, cfg *Config) {
	if noPrompt, _ := cmd.Flags().GetBool("no-prompt"); noPrompt {
		cfg.NoPrompt = true
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		cfg.OutputFormat = "json"
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg.ConfigPath = path
	}
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		cfg.DBPath = path
	}
	utils.SetVerboseMode(cfg.Verbose)
}

// loadConfig reads the config file and applies invocation overrides
func loadConfig(cmd *cobra.Command, cfg *Config) (*config.Config, error) {
	applyGlobalFlags(cmd, cfg)

	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	conf.ApplyFlags(cfg.NoPrompt, cfg.OutputFormat, cfg.DBPath)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	cfg.NoPrompt = conf.NoPrompt
	cfg.OutputFormat = conf.OutputFormat
	return conf, nil
}

// openApp loads configuration and opens the database with its services
func openApp(cmd *cobra.Command, stdout io.Writer, cfg *Config) (*app, error) {
	conf, err := loadConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}

	dbPath := conf.GetDatabasePath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	utils.Debugf("opening database %s", dbPath)
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}

	prefs := settings.New(store)
	reminders, err := reminder.NewService(store, prefs)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	reminders.SetClock(now)

	order, dir, err := prefs.Sort(cmd.Context())
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	stdin := cfg.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	return &app{
		cfg:      cfg,
		conf:     conf,
		store:    store,
		settings: prefs,
		remind:   reminders,
		board:    board.New(store, reminders, order, dir),
		backups:  backup.NewService(store, prefs, reminders),
		confirm:  prompt.NewConfirmer(stdin, stdout, cfg.NoPrompt),
		stdin:    stdin,
		stdout:   stdout,
		json:     cfg.OutputFormat == "json",
		now:      now,
	}, nil
}

// Close releases the database and the notifier, if one was created
func (a *app) Close() error {
	var errs []error
	if a.notifier != nil {
		errs = append(errs, a.notifier.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

// withApp opens the app for the duration of fn
func withApp(cmd *cobra.Command, stdout io.Writer, cfg *Config, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, stdout, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(cmd.Context(), a)
}

// done prints a result code in no-prompt text mode
func (a *app) done(code string) {
	if a.cfg.NoPrompt && !a.json {
		_, _ = fmt.Fprintln(a.stdout, code)
	}
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}

// writeJSON prints v as a single JSON line
func (a *app) writeJSON(v any) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.stdout, string(jsonBytes))
	return nil
}

// resolveChore finds a chore by numeric id, then by case-insensitive name
func resolveChore(ctx context.Context, store backend.ChoreStore, ref string) (*backend.Chore, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("chore name or id is required")
	}
	if id, err := strconv.ParseInt(strings.TrimPrefix(ref, "#"), 10, 64); err == nil {
		chore, err := store.GetChore(ctx, id)
		if err == nil {
			return chore, nil
		}
		if !errors.Is(err, backend.ErrNotFound) {
			return nil, err
		}
	}
	chore, err := store.GetChoreByName(ctx, ref)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, utils.ErrChoreNotFound(ref, err)
		}
		return nil, err
	}
	return chore, nil
}

// choreRef joins positional args so unquoted multi-word names work
func choreRef(args []string) string {
	return strings.Join(args, " ")
}

// parseRecordID parses a completion record id argument
func parseRecordID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id: %s", s)
	}
	return id, nil
}

// parseRecurrence wraps backend.ParseRecurrence with a suggestion
func parseRecurrence(s string) (backend.RecurrenceType, error) {
	rt, err := backend.ParseRecurrence(s)
	if err != nil {
		valid := make([]string, len(backend.RecurrenceTypes))
		for i, r := range backend.RecurrenceTypes {
			valid[i] = string(r)
		}
		return "", utils.ErrInvalidRecurrence(s, valid)
	}
	return rt, nil
}

// JSON output structures
type tagJSON struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Chores *int   `json:"chores,omitempty"`
}

type choreJSON struct {
	ID                   int64     `json:"id"`
	UID                  string    `json:"uid"`
	Name                 string    `json:"name"`
	Recurrence           string    `json:"recurrence"`
	Active               bool      `json:"active"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	NextDue              *string   `json:"next_due,omitempty"`
	DueStatus            string    `json:"due_status"`
	LastCompleted        *string   `json:"last_completed,omitempty"`
	LastNote             string    `json:"last_note,omitempty"`
	Tags                 []tagJSON `json:"tags"`
}

type recordJSON struct {
	ID          int64  `json:"id"`
	ChoreID     int64  `json:"chore_id"`
	CompletedAt string `json:"completed_at"`
	Note        string `json:"note,omitempty"`
}

type actionResponse struct {
	Action string      `json:"action"`
	Chore  *choreJSON  `json:"chore,omitempty"`
	Record *recordJSON `json:"record,omitempty"`
	Tag    *tagJSON    `json:"tag,omitempty"`
	Result string      `json:"result"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
	Code       int    `json:"code"`
	Result     string `json:"result"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// choreToJSON converts a chore and its tags to choreJSON
func choreToJSON(c *backend.Chore, tags []backend.Tag, now time.Time) choreJSON {
	out := choreJSON{
		ID:                   c.ID,
		UID:                  c.UID,
		Name:                 c.Name,
		Recurrence:           string(c.Recurrence),
		Active:               c.IsActive,
		NotificationsEnabled: c.NotificationsEnabled,
		NextDue:              formatTime(c.NextDueDate),
		DueStatus:            string(recurrence.StatusOf(c.NextDueDate, now)),
		LastCompleted:        formatTime(c.LastCompleted),
		LastNote:             c.LastNote,
		Tags:                 []tagJSON{},
	}
	for _, t := range tags {
		out.Tags = append(out.Tags, tagJSON{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	return out
}

func recordToJSON(r *backend.CompletionRecord) *recordJSON {
	return &recordJSON{
		ID:          r.ID,
		ChoreID:     r.ChoreID,
		CompletedAt: r.CompletedAt.Format(time.RFC3339),
		Note:        r.Note,
	}
}

// choreAction prints the JSON action response for a chore
func (a *app) choreAction(ctx context.Context, action string, chore *backend.Chore, record *backend.CompletionRecord) error {
	tags, err := a.store.TagsForChore(ctx, chore.ID)
	if err != nil {
		return err
	}
	cj := choreToJSON(chore, tags, a.now())
	resp := actionResponse{Action: action, Chore: &cj, Result: ResultActionCompleted}
	if record != nil {
		resp.Record = recordToJSON(record)
	}
	return a.writeJSON(resp)
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	response := errorResponse{
		Error:  err.Error(),
		Code:   1,
		Result: ResultError,
	}
	var ews *utils.ErrorWithSuggestion
	if errors.As(err, &ews) {
		response.Error = ews.Err.Error()
		response.Suggestion = ews.GetSuggestion()
	}

	jsonBytes, _ := json.Marshal(response)
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}

// newVersionCmd creates the 'version' subcommand
func newVersionCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			if cfg.OutputFormat == "json" {
				jsonBytes, err := json.Marshal(map[string]string{"version": Version, "commit": Commit})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(stdout, string(jsonBytes))
				return nil
			}
			_, _ = fmt.Fprintf(stdout, "chorebuddy\nVersion: %s\nCommit: %s\n", Version, Commit)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newAboutCmd creates the 'about' subcommand
func newAboutCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "about",
		Short: "Show where ChoreBuddy keeps its data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				configPath := cfg.ConfigPath
				if configPath == "" {
					configPath = filepath.Join(config.GetConfigDir(), "config.yaml")
				}
				lastBackup, err := a.settings.LastBackup(ctx)
				if err != nil {
					return err
				}
				info := map[string]string{
					"version":        Version,
					"database":       a.store.Path(),
					"config":         configPath,
					"schema_version": strconv.Itoa(sqlite.SchemaVersion),
					"last_backup":    "never",
				}
				if lastBackup != nil {
					info["last_backup"] = lastBackup.Format(time.RFC3339)
				}
				if a.json {
					return a.writeJSON(info)
				}
				a.printf("ChoreBuddy %s\n\n", Version)
				a.printf("Database:    %s\n", info["database"])
				a.printf("Config:      %s\n", info["config"])
				a.printf("Schema:      v%s\n", info["schema_version"])
				a.printf("Last backup: %s\n", info["last_backup"])
				a.done(ResultInfoOnly)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
