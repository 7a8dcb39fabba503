package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"chorebuddy/backend"
	"chorebuddy/internal/cli/prompt"
	"chorebuddy/internal/utils"
	"chorebuddy/internal/views"
)

// newAddCmd creates the 'add' subcommand
func newAddCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a chore",
		Long: `Add a chore. The due date accepts YYYY-MM-DD, YYYY-MM-DD HH:MM or
natural language such as "tomorrow 9am" or "next saturday".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			every, _ := cmd.Flags().GetString("every")
			due, _ := cmd.Flags().GetString("due")
			tags, _ := cmd.Flags().GetStringSlice("tag")
			noNotify, _ := cmd.Flags().GetBool("no-notify")
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doAdd(ctx, a, choreRef(args), every, due, tags, !noNotify)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("every", "e", "none", "Recurrence: none, daily, every_other_day, weekly, monthly")
	cmd.Flags().StringP("due", "d", "", "Next due date")
	cmd.Flags().StringSliceP("tag", "t", nil, "Tag to attach (repeatable or comma-separated; created if missing)")
	cmd.Flags().Bool("no-notify", false, "Do not remind about this chore")
	return cmd
}

func doAdd(ctx context.Context, a *app, name, every, due string, tagNames []string, notify bool) error {
	rt, err := parseRecurrence(every)
	if err != nil {
		return err
	}
	dueDate, err := utils.ParseWhen(due, a.now())
	if err != nil {
		return err
	}
	if _, err := a.store.GetChoreByName(ctx, name); err == nil {
		return utils.ErrDuplicateChore(name, backend.ErrDuplicateName)
	}
	tags, err := a.planTags(ctx, tagNames)
	if err != nil {
		return err
	}

	chore := backend.NewChore(name)
	chore.Recurrence = rt
	chore.NextDueDate = dueDate
	chore.NotificationsEnabled = notify

	saved, err := a.store.CreateChore(ctx, chore, tags)
	if err != nil {
		if errors.Is(err, backend.ErrDuplicateName) {
			return utils.ErrDuplicateChore(chore.Name, err)
		}
		return err
	}
	if _, err := a.remind.Schedule(ctx, saved); err != nil {
		return err
	}

	if a.json {
		return a.choreAction(ctx, "add", saved, nil)
	}
	a.printf("Added chore: %s (#%d, %s, due %s)\n", saved.Name, saved.ID, saved.Recurrence.Label(), utils.FormatDue(saved.NextDueDate))
	a.done(ResultActionCompleted)
	return nil
}

// newListCmd creates the 'list' subcommand
func newListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List chores",
		Long:    "List active chores, optionally filtered by tags (any match) and sorted.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, _ := cmd.Flags().GetStringSlice("tag")
			sortFlag, _ := cmd.Flags().GetString("sort")
			asc, _ := cmd.Flags().GetBool("asc")
			desc, _ := cmd.Flags().GetBool("desc")
			archived, _ := cmd.Flags().GetBool("archived")
			if asc && desc {
				return errors.New("--asc and --desc are mutually exclusive")
			}
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doList(ctx, a, tags, sortFlag, asc, desc, archived)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringSliceP("tag", "t", nil, "Only show chores with any of these tags")
	cmd.Flags().StringP("sort", "s", "", "Sort by name, last or due (default from settings)")
	cmd.Flags().Bool("asc", false, "Sort ascending")
	cmd.Flags().Bool("desc", false, "Sort descending")
	cmd.Flags().Bool("archived", false, "List archived chores instead")
	return cmd
}

type listResponse struct {
	Chores    []choreJSON `json:"chores"`
	Count     int         `json:"count"`
	Sort      string      `json:"sort"`
	Direction string      `json:"direction"`
	Archived  bool        `json:"archived,omitempty"`
	Result    string      `json:"result"`
}

func doList(ctx context.Context, a *app, tagNames []string, sortFlag string, asc, desc, archived bool) error {
	order, dir, err := a.settings.Sort(ctx)
	if err != nil {
		return err
	}
	if sortFlag != "" {
		requested, err := views.ParseSortOrder(sortFlag)
		if err != nil {
			return err
		}
		if requested != order {
			dir = views.Descending
		}
		order = requested
	}
	switch {
	case asc:
		dir = views.Ascending
	case desc:
		dir = views.Descending
	}

	tagIDs, err := a.tagIDs(ctx, tagNames, false)
	if err != nil {
		return err
	}

	var all []backend.ChoreItem
	if archived {
		all, err = a.archivedItems(ctx)
	} else {
		all, err = a.store.ListActiveChoreItems(ctx)
	}
	if err != nil {
		return err
	}
	items := views.SortItems(views.FilterByTags(all, tagIDs), order, dir)

	if a.json {
		resp := listResponse{
			Chores:    make([]choreJSON, 0, len(items)),
			Count:     len(items),
			Sort:      string(order),
			Direction: string(dir),
			Archived:  archived,
			Result:    ResultInfoOnly,
		}
		for i := range items {
			resp.Chores = append(resp.Chores, choreToJSON(&items[i].Chore, items[i].Tags, a.now()))
		}
		return a.writeJSON(resp)
	}

	switch {
	case len(all) == 0 && archived:
		a.printf("No archived chores.\n")
	case len(all) == 0:
		a.printf("No chores found. Add one with: chorebuddy add \"Water plants\" --every weekly\n")
	case len(items) == 0:
		a.printf("No chores match the selected tags.\n")
	default:
		history, err := a.settings.HistoryVisible(ctx)
		if err != nil {
			return err
		}
		views.NewRenderer(views.DefaultFields(history), a.stdout).WithClock(a.now).Render(items)
	}
	a.done(ResultInfoOnly)
	return nil
}

// archivedItems joins archived chores with their tags
func (a *app) archivedItems(ctx context.Context) ([]backend.ChoreItem, error) {
	chores, err := a.store.ListArchivedChores(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]backend.ChoreItem, 0, len(chores))
	for _, c := range chores {
		tags, err := a.store.TagsForChore(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, backend.ChoreItem{Chore: c, Tags: tags})
	}
	return items, nil
}

// newShowCmd creates the 'show' subcommand
func newShowCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show CHORE",
		Short: "Show a chore with its tags and history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doShow(ctx, a, choreRef(args))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

type showResponse struct {
	Chore    choreJSON    `json:"chore"`
	History  []recordJSON `json:"history"`
	Reminder *string      `json:"reminder,omitempty"`
	Result   string       `json:"result"`
}

func doShow(ctx context.Context, a *app, ref string) error {
	chore, err := resolveChore(ctx, a.store, ref)
	if err != nil {
		return err
	}
	tags, err := a.store.TagsForChore(ctx, chore.ID)
	if err != nil {
		return err
	}
	history, err := a.store.History(ctx, chore.ID)
	if err != nil {
		return err
	}
	pending, err := a.remind.Pending(ctx)
	if err != nil {
		return err
	}
	var reminderAt *string
	for _, r := range pending {
		if r.ChoreID == chore.ID {
			reminderAt = formatTime(&r.NotifyAt)
			break
		}
	}

	if a.json {
		resp := showResponse{
			Chore:    choreToJSON(chore, tags, a.now()),
			History:  make([]recordJSON, 0, len(history)),
			Reminder: reminderAt,
			Result:   ResultInfoOnly,
		}
		for i := range history {
			resp.History = append(resp.History, *recordToJSON(&history[i]))
		}
		return a.writeJSON(resp)
	}

	status := "active"
	if !chore.IsActive {
		status = "archived"
	}
	tagNames := make([]string, len(tags))
	for i, t := range tags {
		tagNames[i] = t.Name
	}

	a.printf("%s (#%d, %s)\n", chore.Name, chore.ID, status)
	a.printf("  Repeats:        %s\n", chore.Recurrence.Label())
	a.printf("  Next due:       %s\n", utils.FormatDue(chore.NextDueDate))
	a.printf("  Last completed: %s\n", utils.FormatDue(chore.LastCompleted))
	if chore.LastNote != "" {
		a.printf("  Last note:      %s\n", chore.LastNote)
	}
	a.printf("  Reminders:      %s\n", onOff(chore.NotificationsEnabled))
	if reminderAt != nil {
		a.printf("  Reminder at:    %s\n", *reminderAt)
	}
	if len(tagNames) > 0 {
		a.printf("  Tags:           %s\n", strings.Join(tagNames, ", "))
	}
	a.printf("\n")
	printHistory(a, history)
	a.done(ResultInfoOnly)
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printHistory(a *app, history []backend.CompletionRecord) {
	if len(history) == 0 {
		a.printf("No completions yet.\n")
		return
	}
	a.printf("History (%d):\n", len(history))
	for _, r := range history {
		line := fmt.Sprintf("  #%-5d %s", r.ID, r.CompletedAt.Format(views.DefaultDateFormat))
		if r.Note != "" {
			line += "  " + r.Note
		}
		a.printf("%s\n", line)
	}
}

// newEditCmd creates the 'edit' subcommand
func newEditCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit CHORE",
		Short: "Change a chore's name, recurrence, due date or reminders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := editOptions{}
			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				opts.name = &name
			}
			if cmd.Flags().Changed("every") {
				every, _ := cmd.Flags().GetString("every")
				opts.every = &every
			}
			if cmd.Flags().Changed("due") {
				due, _ := cmd.Flags().GetString("due")
				opts.due = &due
			}
			opts.clearDue, _ = cmd.Flags().GetBool("clear-due")
			notify, _ := cmd.Flags().GetBool("notify")
			noNotify, _ := cmd.Flags().GetBool("no-notify")
			if notify && noNotify {
				return errors.New("--notify and --no-notify are mutually exclusive")
			}
			if opts.due != nil && opts.clearDue {
				return errors.New("--due and --clear-due are mutually exclusive")
			}
			if notify || noNotify {
				opts.notify = &notify
			}
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doEdit(ctx, a, choreRef(args), opts)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().String("name", "", "New name")
	cmd.Flags().StringP("every", "e", "", "New recurrence")
	cmd.Flags().StringP("due", "d", "", "New due date")
	cmd.Flags().Bool("clear-due", false, "Remove the due date")
	cmd.Flags().Bool("notify", false, "Enable reminders for this chore")
	cmd.Flags().Bool("no-notify", false, "Disable reminders for this chore")
	return cmd
}

type editOptions struct {
	name     *string
	every    *string
	due      *string
	clearDue bool
	notify   *bool
}

func doEdit(ctx context.Context, a *app, ref string, opts editOptions) error {
	chore, err := resolveChore(ctx, a.store, ref)
	if err != nil {
		return err
	}

	if opts.name != nil {
		chore.Name = strings.TrimSpace(*opts.name)
	}
	if opts.every != nil {
		rt, err := parseRecurrence(*opts.every)
		if err != nil {
			return err
		}
		chore.Recurrence = rt
	}
	if opts.due != nil {
		due, err := utils.ParseWhen(*opts.due, a.now())
		if err != nil {
			return err
		}
		chore.NextDueDate = due
	}
	if opts.clearDue {
		chore.NextDueDate = nil
	}
	if opts.notify != nil {
		chore.NotificationsEnabled = *opts.notify
	}

	saved, err := a.store.SaveChore(ctx, chore)
	if err != nil {
		if errors.Is(err, backend.ErrDuplicateName) {
			return utils.ErrDuplicateChore(chore.Name, err)
		}
		return err
	}
	if _, err := a.remind.Schedule(ctx, saved); err != nil {
		return err
	}

	if a.json {
		return a.choreAction(ctx, "edit", saved, nil)
	}
	a.printf("Updated chore: %s (#%d, %s, due %s)\n", saved.Name, saved.ID, saved.Recurrence.Label(), utils.FormatDue(saved.NextDueDate))
	a.done(ResultActionCompleted)
	return nil
}

// newDoneCmd creates the 'done' subcommand
func newDoneCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done [CHORE]",
		Short: "Mark a chore complete",
		Long: `Mark a chore complete and advance its due date by its recurrence.
Without CHORE an interactive picker lists the active chores.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			note, _ := cmd.Flags().GetString("note")
			at, _ := cmd.Flags().GetString("at")
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doDone(ctx, a, choreRef(args), note, at)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("note", "n", "", "Note to keep with this completion")
	cmd.Flags().String("at", "", "Completion time (default now)")
	return cmd
}

func doDone(ctx context.Context, a *app, ref, note, at string) error {
	var chore *backend.Chore
	var err error
	if ref == "" {
		chore, err = a.pickChore(ctx, "Which chore did you complete?")
	} else {
		chore, err = resolveChore(ctx, a.store, ref)
	}
	if err != nil {
		return err
	}
	if !chore.IsActive {
		return utils.WrapWithSuggestion(
			fmt.Errorf("chore %q is archived", chore.Name),
			fmt.Sprintf("Restore it with 'chorebuddy unarchive %d'", chore.ID))
	}

	completedAt := a.now()
	if at != "" {
		parsed, err := utils.ParseWhen(at, completedAt)
		if err != nil {
			return err
		}
		completedAt = *parsed
	}

	recordID, err := a.board.Complete(ctx, chore.ID, note, completedAt)
	if err != nil {
		if recordID == 0 {
			return err
		}
		utils.Warnf("rescheduling reminder: %v", err)
	}
	updated, err := a.store.GetChore(ctx, chore.ID)
	if err != nil {
		return err
	}
	record, err := a.store.GetCompletionRecord(ctx, recordID)
	if err != nil {
		return err
	}

	if a.json {
		return a.choreAction(ctx, "done", updated, record)
	}
	a.printf("Completed: %s\n", updated.Name)
	if updated.NextDueDate != nil {
		a.printf("Next due: %s\n", utils.FormatDue(updated.NextDueDate))
	}
	a.printf("Record #%d (undo with: chorebuddy undo %d)\n", recordID, recordID)
	a.done(ResultActionCompleted)
	return nil
}

// pickChore runs the interactive chore selector over active chores
func (a *app) pickChore(ctx context.Context, title string) (*backend.Chore, error) {
	chores, err := a.store.ListActiveChores(ctx)
	if err != nil {
		return nil, err
	}
	selector := &prompt.ChoreSelector{
		Chores:   chores,
		Prompt:   title,
		Reader:   a.stdin,
		Writer:   a.stdout,
		NoPrompt: a.cfg.NoPrompt,
	}
	chore, err := selector.Run()
	if errors.Is(err, prompt.ErrNoPromptMode) {
		return nil, errors.New("chore name or id is required in no-prompt mode")
	}
	return chore, err
}

// newUndoCmd creates the 'undo' subcommand
func newUndoCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "undo RECORD_ID",
		Short: "Undo a completion",
		Long: `Remove a completion record. The chore's last completion and note fall
back to the previous record; its due date is left as it is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doUndo(ctx, a, id, "undo")
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func doUndo(ctx context.Context, a *app, recordID int64, action string) error {
	record, err := a.store.GetCompletionRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return utils.ErrRecordNotFound(recordID, err)
		}
		return err
	}
	if err := a.board.UndoComplete(ctx, recordID); err != nil {
		return err
	}
	chore, err := a.store.GetChore(ctx, record.ChoreID)
	if err != nil {
		return err
	}

	if a.json {
		return a.choreAction(ctx, action, chore, record)
	}
	a.printf("Removed completion #%d of %s\n", recordID, chore.Name)
	a.done(ResultActionCompleted)
	return nil
}

// newHistoryCmd creates the 'history' subcommand
func newHistoryCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history CHORE",
		Short: "Show or change a chore's completion history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doHistory(ctx, a, choreRef(args))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	historyCmd.AddCommand(&cobra.Command{
		Use:   "edit RECORD_ID NOTE",
		Short: "Replace the note of a completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doHistoryEdit(ctx, a, id, strings.Join(args[1:], " "))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	historyCmd.AddCommand(&cobra.Command{
		Use:   "delete RECORD_ID",
		Short: "Delete a completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				ok, err := a.confirm.Confirm(fmt.Sprintf("Delete completion #%d?", id), "")
				if err != nil || !ok {
					return cancelled(a, err)
				}
				return doUndo(ctx, a, id, "history-delete")
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return historyCmd
}

type historyResponse struct {
	Chore   string       `json:"chore"`
	History []recordJSON `json:"history"`
	Count   int          `json:"count"`
	Result  string       `json:"result"`
}

func doHistory(ctx context.Context, a *app, ref string) error {
	chore, err := resolveChore(ctx, a.store, ref)
	if err != nil {
		return err
	}
	history, err := a.store.History(ctx, chore.ID)
	if err != nil {
		return err
	}
	if a.json {
		resp := historyResponse{Chore: chore.Name, History: make([]recordJSON, 0, len(history)), Count: len(history), Result: ResultInfoOnly}
		for i := range history {
			resp.History = append(resp.History, *recordToJSON(&history[i]))
		}
		return a.writeJSON(resp)
	}
	a.printf("%s\n", chore.Name)
	printHistory(a, history)
	a.done(ResultInfoOnly)
	return nil
}

func doHistoryEdit(ctx context.Context, a *app, recordID int64, note string) error {
	if err := a.store.UpdateCompletionNote(ctx, recordID, strings.TrimSpace(note)); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return utils.ErrRecordNotFound(recordID, err)
		}
		return err
	}
	record, err := a.store.GetCompletionRecord(ctx, recordID)
	if err != nil {
		return err
	}
	chore, err := a.store.GetChore(ctx, record.ChoreID)
	if err != nil {
		return err
	}
	if a.json {
		return a.choreAction(ctx, "history-edit", chore, record)
	}
	a.printf("Updated note of completion #%d of %s\n", recordID, chore.Name)
	a.done(ResultActionCompleted)
	return nil
}

// cancelled reports a declined confirmation, or passes a prompt error through
func cancelled(a *app, err error) error {
	if err != nil {
		return err
	}
	if a.json {
		return a.writeJSON(map[string]string{"action": "cancelled", "result": ResultInfoOnly})
	}
	a.printf("Cancelled\n")
	a.done(ResultInfoOnly)
	return nil
}

// newArchiveCmd creates the 'archive' or 'unarchive' subcommand
func newArchiveCmd(stdout io.Writer, cfg *Config, archive bool) *cobra.Command {
	use, short := "archive CHORE", "Hide a chore from the list and stop its reminders"
	if !archive {
		use, short = "unarchive CHORE", "Restore an archived chore"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doArchive(ctx, cmd, a, choreRef(args), archive)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if archive {
		cmd.Flags().Bool("yes", false, "Archive without asking")
	}
	return cmd
}

func doArchive(ctx context.Context, cmd *cobra.Command, a *app, ref string, archive bool) error {
	chore, err := resolveChore(ctx, a.store, ref)
	if err != nil {
		return err
	}
	action := "archive"
	if archive {
		ok, err := confirmAction(cmd, a, fmt.Sprintf("Archive %q?", chore.Name),
			fmt.Sprintf("It leaves the list and its reminder is cancelled. Restore it with 'chorebuddy unarchive %d'.", chore.ID))
		if err != nil || !ok {
			return cancelled(a, err)
		}
		if err := a.board.Archive(ctx, chore.ID); err != nil {
			return err
		}
	} else {
		action = "unarchive"
		if err := a.board.Unarchive(ctx, chore.ID); err != nil {
			return err
		}
	}
	updated, err := a.store.GetChore(ctx, chore.ID)
	if err != nil {
		return err
	}

	if a.json {
		return a.choreAction(ctx, action, updated, nil)
	}
	if archive {
		a.printf("Archived chore: %s\n", updated.Name)
	} else {
		a.printf("Restored chore: %s\n", updated.Name)
	}
	a.done(ResultActionCompleted)
	return nil
}

// confirmAction asks before a destructive change unless --yes was given
func confirmAction(cmd *cobra.Command, a *app, title, description string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	return a.confirm.Confirm(title, description)
}

// newDeleteCmd creates the 'delete' subcommand
func newDeleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete CHORE",
		Aliases: []string{"rm"},
		Short:   "Delete a chore and its history",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				chore, err := resolveChore(ctx, a.store, choreRef(args))
				if err != nil {
					return err
				}
				ok, err := confirmAction(cmd, a, fmt.Sprintf("Delete %q?", chore.Name), "Its completion history is removed too.")
				if err != nil || !ok {
					return cancelled(a, err)
				}
				if err := a.board.Delete(ctx, chore.ID); err != nil {
					return err
				}
				if a.json {
					cj := choreToJSON(chore, nil, a.now())
					return a.writeJSON(actionResponse{Action: "delete", Chore: &cj, Result: ResultActionCompleted})
				}
				a.printf("Deleted chore: %s\n", chore.Name)
				a.done(ResultActionCompleted)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().Bool("yes", false, "Delete without asking")
	return cmd
}

// newPurgeCmd creates the 'purge' subcommand
func newPurgeCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every chore and all history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				ok, err := confirmAction(cmd, a, "Delete ALL chores?", "Every chore and its completion history is removed. Tags are kept.")
				if err != nil || !ok {
					return cancelled(a, err)
				}
				if err := a.board.DeleteAll(ctx); err != nil {
					return err
				}
				if a.json {
					return a.writeJSON(map[string]string{"action": "purge", "result": ResultActionCompleted})
				}
				a.printf("Deleted all chores\n")
				a.done(ResultActionCompleted)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().Bool("yes", false, "Purge without asking")
	return cmd
}
