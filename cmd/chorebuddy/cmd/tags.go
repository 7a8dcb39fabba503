package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"chorebuddy/backend"
	"chorebuddy/internal/utils"
)

// newTagCmd creates the 'tag' subcommand tree
func newTagCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, doTagList)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			color, _ := cmd.Flags().GetString("color")
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doTagAdd(ctx, a, strings.Join(args, " "), color)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addCmd.Flags().StringP("color", "c", "", "Hex color such as #10B981 (default: next palette color)")
	tagCmd.AddCommand(addCmd)

	tagCmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tags with the number of chores using them",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, doTagList)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	tagCmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a tag and detach it from its chores",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doTagDelete(ctx, a, strings.Join(args, " "))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	tagCmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				ok, err := a.confirm.Confirm("Delete ALL tags?", "Chores are kept but lose their tags.")
				if err != nil || !ok {
					return cancelled(a, err)
				}
				if err := a.store.DeleteAllTags(ctx); err != nil {
					return err
				}
				if a.json {
					return a.writeJSON(map[string]string{"action": "tag-purge", "result": ResultActionCompleted})
				}
				a.printf("Deleted all tags\n")
				a.done(ResultActionCompleted)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	tagCmd.AddCommand(&cobra.Command{
		Use:   "set CHORE [TAG...]",
		Short: "Replace the tags of a chore",
		Long: `Replace the tags of a chore. Tags are given as separate arguments or
comma-separated; missing tags are created. With no tags the chore is untagged.
Quote multi-word chore names.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, stdout, cfg, func(ctx context.Context, a *app) error {
				return doTagSet(ctx, a, args[0], args[1:])
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return tagCmd
}

// splitTagNames splits comma-separated names and drops empty ones
func splitTagNames(names []string) []string {
	var out []string
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if part = backend.NormalizeTagName(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// tagIDs resolves tag names to ids. Missing tags are created with the next
// palette color when create is set, otherwise they are an error.
func (a *app) tagIDs(ctx context.Context, names []string, create bool) ([]int64, error) {
	names = splitTagNames(names)
	if len(names) == 0 {
		return nil, nil
	}

	var ids []int64
	seen := map[int64]bool{}
	for _, name := range names {
		tag, err := a.store.GetTagByName(ctx, name)
		if errors.Is(err, backend.ErrNotFound) {
			if !create {
				return nil, utils.ErrTagNotFound(name, err)
			}
			tag, err = a.createTag(ctx, name, "")
		}
		if err != nil {
			return nil, err
		}
		if !seen[tag.ID] {
			seen[tag.ID] = true
			ids = append(ids, tag.ID)
		}
	}
	return ids, nil
}

// planTags looks up tags by name without writing anything. Missing tags are
// returned with a zero ID and a palette color so the store can create them.
func (a *app) planTags(ctx context.Context, names []string) ([]backend.Tag, error) {
	names = splitTagNames(names)
	if len(names) == 0 {
		return nil, nil
	}
	existing, err := a.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	var tags []backend.Tag
	seen := map[string]bool{}
	created := 0
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		tag, err := a.store.GetTagByName(ctx, name)
		switch {
		case err == nil:
			tags = append(tags, *tag)
		case errors.Is(err, backend.ErrNotFound):
			color := backend.TagPalette[(len(existing)+created)%len(backend.TagPalette)]
			tags = append(tags, backend.Tag{Name: name, Color: color})
			created++
		default:
			return nil, err
		}
	}
	return tags, nil
}

// createTag saves a new tag, picking a palette color when none is given
func (a *app) createTag(ctx context.Context, name, color string) (*backend.Tag, error) {
	if color == "" {
		existing, err := a.store.ListTags(ctx)
		if err != nil {
			return nil, err
		}
		color = backend.TagPalette[len(existing)%len(backend.TagPalette)]
	}
	tag, err := a.store.SaveTag(ctx, &backend.Tag{Name: name, Color: color})
	if err != nil {
		if errors.Is(err, backend.ErrDuplicateName) {
			return nil, utils.ErrDuplicateTag(name, err)
		}
		return nil, err
	}
	utils.Debugf("created tag %s (%s)", tag.Name, tag.Color)
	return tag, nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func doTagAdd(ctx context.Context, a *app, name, color string) error {
	if color != "" && !isHexColor(color) {
		return utils.WrapWithSuggestion(
			fmt.Errorf("invalid color %q", color),
			fmt.Sprintf("Use a hex color such as %s", backend.DefaultTagColor))
	}
	tag, err := a.createTag(ctx, name, strings.ToUpper(color))
	if err != nil {
		return err
	}
	if a.json {
		return a.writeJSON(actionResponse{
			Action: "tag-add",
			Tag:    &tagJSON{ID: tag.ID, Name: tag.Name, Color: tag.Color},
			Result: ResultActionCompleted,
		})
	}
	a.printf("Created tag: %s (%s)\n", tag.Name, tag.Color)
	a.done(ResultActionCompleted)
	return nil
}

type tagListResponse struct {
	Tags   []tagJSON `json:"tags"`
	Count  int       `json:"count"`
	Result string    `json:"result"`
}

func doTagList(ctx context.Context, a *app) error {
	tags, err := a.store.ListTags(ctx)
	if err != nil {
		return err
	}
	items, err := a.store.ListActiveChoreItems(ctx)
	if err != nil {
		return err
	}
	counts := map[int64]int{}
	for _, item := range items {
		for _, t := range item.Tags {
			counts[t.ID]++
		}
	}

	if a.json {
		resp := tagListResponse{Tags: make([]tagJSON, 0, len(tags)), Count: len(tags), Result: ResultInfoOnly}
		for _, t := range tags {
			n := counts[t.ID]
			resp.Tags = append(resp.Tags, tagJSON{ID: t.ID, Name: t.Name, Color: t.Color, Chores: &n})
		}
		return a.writeJSON(resp)
	}

	if len(tags) == 0 {
		a.printf("No tags. Create one with: chorebuddy tag add garden\n")
		a.done(ResultInfoOnly)
		return nil
	}
	a.printf("Tags:\n")
	for _, t := range tags {
		a.printf("  %-22s %s  (%d)\n", t.Name, t.Color, counts[t.ID])
	}
	a.done(ResultInfoOnly)
	return nil
}

func doTagDelete(ctx context.Context, a *app, name string) error {
	name = backend.NormalizeTagName(name)
	tag, err := a.store.GetTagByName(ctx, name)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return utils.ErrTagNotFound(name, err)
		}
		return err
	}
	ok, err := a.confirm.Confirm(fmt.Sprintf("Delete tag %q?", tag.Name), "Chores using it are kept.")
	if err != nil || !ok {
		return cancelled(a, err)
	}
	if err := a.store.DeleteTag(ctx, tag.ID); err != nil {
		return err
	}
	if a.json {
		return a.writeJSON(actionResponse{
			Action: "tag-delete",
			Tag:    &tagJSON{ID: tag.ID, Name: tag.Name, Color: tag.Color},
			Result: ResultActionCompleted,
		})
	}
	a.printf("Deleted tag: %s\n", tag.Name)
	a.done(ResultActionCompleted)
	return nil
}

func doTagSet(ctx context.Context, a *app, ref string, names []string) error {
	chore, err := resolveChore(ctx, a.store, ref)
	if err != nil {
		return err
	}
	ids, err := a.tagIDs(ctx, names, true)
	if err != nil {
		return err
	}
	if err := a.store.SetChoreTags(ctx, chore.ID, ids); err != nil {
		return err
	}
	if a.json {
		return a.choreAction(ctx, "tag-set", chore, nil)
	}
	if len(ids) == 0 {
		a.printf("Removed all tags from %s\n", chore.Name)
	} else {
		a.printf("Tagged %s: %s\n", chore.Name, strings.Join(splitTagNames(names), ", "))
	}
	a.done(ResultActionCompleted)
	return nil
}
