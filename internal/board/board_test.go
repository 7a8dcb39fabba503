package board

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chorebuddy/backend"
	"chorebuddy/backend/sqlite"
	"chorebuddy/internal/listsync"
	"chorebuddy/internal/views"
)

type fakeScheduler struct {
	scheduled map[int64]*time.Time
	cancelled []int64
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: map[int64]*time.Time{}}
}

func (f *fakeScheduler) Schedule(_ context.Context, c *backend.Chore) (bool, error) {
	f.scheduled[c.ID] = c.NextDueDate
	return c.NextDueDate != nil, nil
}

func (f *fakeScheduler) Cancel(_ context.Context, id int64) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func mustNewBoard(t *testing.T) (*Board, *sqlite.Backend, *fakeScheduler, context.Context) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	sched := newFakeScheduler()
	return New(store, sched, views.SortByName, views.Ascending), store, sched, context.Background()
}

func add(t *testing.T, store *sqlite.Backend, name string, rt backend.RecurrenceType, tags ...int64) *backend.Chore {
	t.Helper()
	ctx := context.Background()
	c := backend.NewChore(name)
	c.Recurrence = rt
	saved, err := store.SaveChore(ctx, c)
	if err != nil {
		t.Fatalf("SaveChore error: %v", err)
	}
	if len(tags) > 0 {
		if err := store.SetChoreTags(ctx, saved.ID, tags); err != nil {
			t.Fatalf("SetChoreTags error: %v", err)
		}
	}
	return saved
}

func visible(b *Board) string {
	names := make([]string, len(b.Items()))
	for i, it := range b.Items() {
		names[i] = it.Name
	}
	return strings.Join(names, ",")
}

func mustLoad(t *testing.T, b *Board, ctx context.Context) []Op {
	t.Helper()
	ops, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return ops
}

// =============================================================================
// Loading, filtering and sorting
// =============================================================================

func TestLoadEmptyFlags(t *testing.T) {
	b, store, _, ctx := mustNewBoard(t)

	mustLoad(t, b, ctx)
	if !b.IsTotalEmpty() || b.IsFilterEmpty() {
		t.Errorf("empty store: total=%v filter=%v", b.IsTotalEmpty(), b.IsFilterEmpty())
	}

	tag, _ := store.SaveTag(ctx, &backend.Tag{Name: "unused"})
	add(t, store, "Dust", backend.RecurNone)
	mustLoad(t, b, ctx)
	if _, err := b.ToggleTag(ctx, tag.ID); err != nil {
		t.Fatalf("ToggleTag error: %v", err)
	}
	if b.IsTotalEmpty() || !b.IsFilterEmpty() {
		t.Errorf("filtered out: total=%v filter=%v", b.IsTotalEmpty(), b.IsFilterEmpty())
	}
	if !b.IsFilterActive() {
		t.Error("filter should be active")
	}
}

func TestLoadReturnsReplayableOps(t *testing.T) {
	b, store, _, ctx := mustNewBoard(t)
	add(t, store, "B", backend.RecurNone)
	add(t, store, "A", backend.RecurNone)

	before := append([]backend.ChoreItem(nil), b.Items()...)
	ops := mustLoad(t, b, ctx)
	if len(ops) != 2 || ops[0].Kind != listsync.OpInsert {
		t.Fatalf("ops = %+v, want two inserts", ops)
	}
	replayed, err := listsync.Apply(before, ops)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if len(replayed) != 2 || replayed[0].Name != "A" {
		t.Errorf("replayed = %+v", replayed)
	}

	// No changes means no ops
	if ops := mustLoad(t, b, ctx); len(ops) != 0 {
		t.Errorf("reload without changes produced %d ops", len(ops))
	}
}

func TestToggleTagFiltersAndPersistsAcrossReload(t *testing.T) {
	b, store, _, ctx := mustNewBoard(t)
	kitchen, _ := store.SaveTag(ctx, &backend.Tag{Name: "kitchen"})
	garden, _ := store.SaveTag(ctx, &backend.Tag{Name: "garden"})
	add(t, store, "Dishes", backend.RecurDaily, kitchen.ID)
	add(t, store, "Weeds", backend.RecurWeekly, garden.ID)
	add(t, store, "Taxes", backend.RecurNone)
	mustLoad(t, b, ctx)

	if _, err := b.ToggleTag(ctx, kitchen.ID); err != nil {
		t.Fatalf("ToggleTag error: %v", err)
	}
	if got := visible(b); got != "Dishes" {
		t.Errorf("kitchen filter = %q", got)
	}

	_, _ = b.ToggleTag(ctx, garden.ID)
	if got := visible(b); got != "Dishes,Weeds" {
		t.Errorf("kitchen|garden filter = %q", got)
	}

	mustLoad(t, b, ctx)
	if got := visible(b); got != "Dishes,Weeds" {
		t.Errorf("selection lost on reload: %q", got)
	}

	// Deleting a selected tag drops it from the selection
	_ = store.DeleteTag(ctx, garden.ID)
	mustLoad(t, b, ctx)
	if ids := b.SelectedTagIDs(); len(ids) != 1 || ids[0] != kitchen.ID {
		t.Errorf("selected = %v, want only kitchen", ids)
	}

	if _, err := b.ClearFilter(ctx); err != nil {
		t.Fatalf("ClearFilter error: %v", err)
	}
	if got := visible(b); got != "Dishes,Taxes,Weeds" {
		t.Errorf("cleared filter = %q", got)
	}

	if _, err := b.ToggleTag(ctx, 999); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("ToggleTag(unknown) err = %v", err)
	}
}

func TestSortToggles(t *testing.T) {
	b, store, _, ctx := mustNewBoard(t)
	add(t, store, "A", backend.RecurNone)
	add(t, store, "C", backend.RecurNone)
	add(t, store, "B", backend.RecurNone)
	mustLoad(t, b, ctx)

	if got := visible(b); got != "A,B,C" {
		t.Fatalf("initial order = %q", got)
	}

	ops, err := b.Sort(ctx, views.SortByName)
	if err != nil {
		t.Fatalf("Sort error: %v", err)
	}
	if got := visible(b); got != "C,B,A" {
		t.Errorf("flipped order = %q", got)
	}
	for _, op := range ops {
		if op.Kind != listsync.OpMove {
			t.Errorf("resort should only move, got %s", op.Kind)
		}
	}

	_, _ = b.Sort(ctx, views.SortByDueDate)
	if o, d := b.SortState(); o != views.SortByDueDate || d != views.Descending {
		t.Errorf("new order state = %s %s", o, d)
	}
}

// =============================================================================
// Actions
// =============================================================================

func TestCompleteAdvancesDueAndReschedules(t *testing.T) {
	b, store, sched, ctx := mustNewBoard(t)
	c := add(t, store, "Plants", backend.RecurWeekly)

	at := time.Date(2026, 6, 1, 18, 0, 0, 0, time.Local)
	recordID, err := b.Complete(ctx, c.ID, "  watered  ", at)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	got, _ := store.GetChore(ctx, c.ID)
	want := time.Date(2026, 6, 8, 18, 0, 0, 0, time.Local)
	if got.NextDueDate == nil || !got.NextDueDate.Equal(want) {
		t.Errorf("NextDueDate = %v, want %v", got.NextDueDate, want)
	}
	if got.LastNote != "watered" {
		t.Errorf("LastNote = %q, want trimmed note", got.LastNote)
	}
	if due := sched.scheduled[c.ID]; due == nil || !due.Equal(want) {
		t.Errorf("scheduler got %v, want %v", due, want)
	}

	if err := b.UndoComplete(ctx, recordID); err != nil {
		t.Fatalf("UndoComplete error: %v", err)
	}
	got, _ = store.GetChore(ctx, c.ID)
	if got.LastCompleted != nil || got.LastNote != "" {
		t.Errorf("after undo: last=%v note=%q", got.LastCompleted, got.LastNote)
	}
}

func TestCompleteOneOffClearsDue(t *testing.T) {
	b, store, _, ctx := mustNewBoard(t)
	c := backend.NewChore("Passport")
	due := time.Now().Add(time.Hour)
	c.NextDueDate = &due
	c, _ = store.SaveChore(ctx, c)

	if _, err := b.Complete(ctx, c.ID, "", time.Now()); err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	got, _ := store.GetChore(ctx, c.ID)
	if got.NextDueDate != nil {
		t.Errorf("one-off chore should have no due date, got %v", got.NextDueDate)
	}
}

func TestCompleteMissingChore(t *testing.T) {
	b, _, _, ctx := mustNewBoard(t)
	if _, err := b.Complete(ctx, 42, "", time.Now()); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestArchiveUnarchiveDelete(t *testing.T) {
	b, store, sched, ctx := mustNewBoard(t)
	a := add(t, store, "A", backend.RecurNone)
	c := add(t, store, "C", backend.RecurNone)
	mustLoad(t, b, ctx)

	if err := b.Archive(ctx, a.ID); err != nil {
		t.Fatalf("Archive error: %v", err)
	}
	mustLoad(t, b, ctx)
	if got := visible(b); got != "C" {
		t.Errorf("after archive = %q", got)
	}

	if err := b.Unarchive(ctx, a.ID); err != nil {
		t.Fatalf("Unarchive error: %v", err)
	}
	if _, ok := sched.scheduled[a.ID]; !ok {
		t.Error("unarchive should reschedule")
	}

	if err := b.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	mustLoad(t, b, ctx)
	if got := visible(b); got != "A" {
		t.Errorf("after delete = %q", got)
	}
	if len(sched.cancelled) != 2 {
		t.Errorf("cancelled = %v, want archive + delete", sched.cancelled)
	}

	if err := b.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll error: %v", err)
	}
	mustLoad(t, b, ctx)
	if !b.IsTotalEmpty() {
		t.Error("expected no chores after DeleteAll")
	}
}
