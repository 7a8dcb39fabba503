// Package board holds the state behind the chore list: tag filters, sort
// order and the visible items, kept in step with the store through
// index-based edits.
package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chorebuddy/backend"
	"chorebuddy/internal/listsync"
	"chorebuddy/internal/recurrence"
	"chorebuddy/internal/views"
)

// Scheduler keeps chore reminders in line with due dates
type Scheduler interface {
	Schedule(ctx context.Context, chore *backend.Chore) (bool, error)
	Cancel(ctx context.Context, choreID int64) error
}

// TagFilter is a tag with its selection state in the filter bar
type TagFilter struct {
	backend.Tag
	Selected bool
}

// Op is an edit applied to the visible list
type Op = listsync.Op[backend.ChoreItem]

// Board is the chore list view-model
type Board struct {
	store     backend.ChoreStore
	scheduler Scheduler

	tags  []TagFilter
	order views.SortOrder
	dir   views.SortDirection
	items []backend.ChoreItem
	total int
}

// New creates a board. scheduler may be nil.
func New(store backend.ChoreStore, scheduler Scheduler, order views.SortOrder, dir views.SortDirection) *Board {
	return &Board{
		store:     store,
		scheduler: scheduler,
		order:     order,
		dir:       dir,
		items:     []backend.ChoreItem{},
	}
}

// Items returns the visible chores in display order
func (b *Board) Items() []backend.ChoreItem {
	return b.items
}

// Tags returns every tag with its selection state
func (b *Board) Tags() []TagFilter {
	return b.tags
}

// SortState returns the current order and direction
func (b *Board) SortState() (views.SortOrder, views.SortDirection) {
	return b.order, b.dir
}

// IsTotalEmpty reports that there are no active chores at all
func (b *Board) IsTotalEmpty() bool {
	return b.total == 0
}

// IsFilterEmpty reports that chores exist but the tag filter hides all of them
func (b *Board) IsFilterEmpty() bool {
	return b.total > 0 && len(b.items) == 0
}

// IsFilterActive reports whether any tag is selected
func (b *Board) IsFilterActive() bool {
	return len(b.SelectedTagIDs()) > 0
}

// SelectedTagIDs returns the ids of the selected tags
func (b *Board) SelectedTagIDs() []int64 {
	var ids []int64
	for _, t := range b.tags {
		if t.Selected {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Load refreshes tags and chores from the store and returns the edits that
// turned the previous visible list into the new one. Tag selections survive
// reloads; selections of deleted tags are dropped.
func (b *Board) Load(ctx context.Context) ([]Op, error) {
	tags, err := b.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	selected := make(map[int64]bool)
	for _, t := range b.tags {
		if t.Selected {
			selected[t.ID] = true
		}
	}
	b.tags = make([]TagFilter, len(tags))
	for i, t := range tags {
		b.tags[i] = TagFilter{Tag: t, Selected: selected[t.ID]}
	}

	all, err := b.store.ListActiveChoreItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chores: %w", err)
	}
	b.total = len(all)

	next := views.SortItems(views.FilterByTags(all, b.SelectedTagIDs()), b.order, b.dir)
	items, ops := listsync.Reconcile(b.items, next,
		func(c backend.ChoreItem) int64 { return c.ID },
		func(a, c backend.ChoreItem) bool { return a.Equal(c) },
	)
	b.items = items
	return ops, nil
}

// ToggleTag flips the selection of a tag and reloads
func (b *Board) ToggleTag(ctx context.Context, tagID int64) ([]Op, error) {
	found := false
	for i := range b.tags {
		if b.tags[i].ID == tagID {
			b.tags[i].Selected = !b.tags[i].Selected
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("tag %d: %w", tagID, backend.ErrNotFound)
	}
	return b.Load(ctx)
}

// ClearFilter deselects every tag and reloads
func (b *Board) ClearFilter(ctx context.Context) ([]Op, error) {
	for i := range b.tags {
		b.tags[i].Selected = false
	}
	return b.Load(ctx)
}

// Sort applies a sort request: the current order flips direction, another
// order starts descending.
func (b *Board) Sort(ctx context.Context, order views.SortOrder) ([]Op, error) {
	b.order, b.dir = views.Toggle(b.order, b.dir, order)
	return b.Load(ctx)
}

// Complete marks a chore done at the given time, advances its due date by
// its recurrence and reschedules its reminder. The returned record id can
// be passed to UndoComplete.
func (b *Board) Complete(ctx context.Context, choreID int64, note string, at time.Time) (int64, error) {
	chore, err := b.store.GetChore(ctx, choreID)
	if err != nil {
		return 0, err
	}

	next := recurrence.Next(chore.Recurrence, at, chore.NextDueDate)
	recordID, err := b.store.CompleteChore(ctx, choreID, at, strings.TrimSpace(note), next)
	if err != nil {
		return 0, err
	}

	chore.NextDueDate = next
	if err := b.reschedule(ctx, chore); err != nil {
		return recordID, err
	}
	return recordID, nil
}

// UndoComplete deletes a completion record; the chore's last completion
// and note fall back to the newest remaining record.
func (b *Board) UndoComplete(ctx context.Context, recordID int64) error {
	return b.store.DeleteCompletionRecord(ctx, recordID)
}

// Archive deactivates a chore and cancels its reminder
func (b *Board) Archive(ctx context.Context, choreID int64) error {
	if err := b.store.SetChoreActive(ctx, choreID, false); err != nil {
		return err
	}
	return b.cancel(ctx, choreID)
}

// Unarchive reactivates a chore and schedules its reminder again
func (b *Board) Unarchive(ctx context.Context, choreID int64) error {
	if err := b.store.SetChoreActive(ctx, choreID, true); err != nil {
		return err
	}
	chore, err := b.store.GetChore(ctx, choreID)
	if err != nil {
		return err
	}
	return b.reschedule(ctx, chore)
}

// Delete removes a chore with its history and cancels its reminder
func (b *Board) Delete(ctx context.Context, choreID int64) error {
	if err := b.store.DeleteChore(ctx, choreID); err != nil {
		return err
	}
	return b.cancel(ctx, choreID)
}

// DeleteAll removes every chore and cancels every visible chore's reminder
func (b *Board) DeleteAll(ctx context.Context) error {
	active, err := b.store.ListActiveChores(ctx)
	if err != nil {
		return err
	}
	archived, err := b.store.ListArchivedChores(ctx)
	if err != nil {
		return err
	}
	if err := b.store.DeleteAllChores(ctx); err != nil {
		return err
	}
	for _, c := range append(active, archived...) {
		if err := b.cancel(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

func (b *Board) reschedule(ctx context.Context, chore *backend.Chore) error {
	if b.scheduler == nil {
		return nil
	}
	_, err := b.scheduler.Schedule(ctx, chore)
	return err
}

func (b *Board) cancel(ctx context.Context, choreID int64) error {
	if b.scheduler == nil {
		return nil
	}
	return b.scheduler.Cancel(ctx, choreID)
}
