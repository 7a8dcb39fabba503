package tui_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"chorebuddy/backend"
	"chorebuddy/backend/sqlite"
	"chorebuddy/internal/board"
	"chorebuddy/internal/tui"
	"chorebuddy/internal/views"
)

// sendKeyAndWait sends a key message and waits briefly for processing.
func sendKeyAndWait(tm *teatest.TestModel, key tea.KeyMsg) {
	tm.Send(key)
	time.Sleep(20 * time.Millisecond)
}

// sendRunesAndWait sends a rune key message and waits briefly for processing.
func sendRunesAndWait(tm *teatest.TestModel, runes []rune) {
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyRunes, Runes: runes})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// readAll reads all output from a reader and returns as bytes
func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return out
}

type fakePrefs struct {
	history bool
	order   views.SortOrder
	dir     views.SortDirection
}

func (p *fakePrefs) HistoryVisible(context.Context) (bool, error) { return p.history, nil }

func (p *fakePrefs) SetHistoryVisible(_ context.Context, v bool) error {
	p.history = v
	return nil
}

func (p *fakePrefs) SetSort(_ context.Context, o views.SortOrder, d views.SortDirection) error {
	p.order, p.dir = o, d
	return nil
}

type fixture struct {
	store *sqlite.Backend
	board *board.Board
	prefs *fakePrefs
	tags  map[string]int64
	ids   map[string]int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{store: store, prefs: &fakePrefs{}, tags: map[string]int64{}, ids: map[string]int64{}}
	for _, name := range []string{"garden", "kitchen"} {
		tag, err := store.SaveTag(ctx, &backend.Tag{Name: name})
		if err != nil {
			t.Fatalf("SaveTag error: %v", err)
		}
		f.tags[name] = tag.ID
	}

	chores := []struct {
		name string
		rt   backend.RecurrenceType
		tag  string
	}{
		{"Do dishes", backend.RecurDaily, "kitchen"},
		{"Mow lawn", backend.RecurWeekly, "garden"},
		{"Water plants", backend.RecurEveryOtherDay, "garden"},
	}
	for _, c := range chores {
		chore := backend.NewChore(c.name)
		chore.Recurrence = c.rt
		saved, err := store.SaveChore(ctx, chore)
		if err != nil {
			t.Fatalf("SaveChore error: %v", err)
		}
		if err := store.SetChoreTags(ctx, saved.ID, []int64{f.tags[c.tag]}); err != nil {
			t.Fatalf("SetChoreTags error: %v", err)
		}
		f.ids[c.name] = saved.ID
	}

	f.board = board.New(store, nil, views.SortByName, views.Ascending)
	return f
}

func (f *fixture) model() *tui.Model {
	m := tui.New(context.Background(), f.board, f.prefs)
	m.SetClock(func() time.Time { return time.Date(2026, 5, 10, 8, 30, 0, 0, time.Local) })
	return m
}

func update(m *tui.Model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func rowNames(m *tui.Model) string {
	names := make([]string, len(m.Rows()))
	for i, r := range m.Rows() {
		names[i] = r.Name
	}
	return strings.Join(names, ",")
}

// =============================================================================
// Model tests
// =============================================================================

func TestLoadShowsChores(t *testing.T) {
	m := newFixture(t).model()
	update(m, tui.ReloadMsg{})

	if got := rowNames(m); got != "Do dishes,Mow lawn,Water plants" {
		t.Fatalf("rows = %s", got)
	}
	view := m.View()
	for _, want := range []string{"ChoreBuddy", "1:garden", "2:kitchen", "Do dishes", "Every other day", "sort: name asc"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestCompleteWithNoteAndUndo(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	update(m, tui.ReloadMsg{})

	// Select "Mow lawn" and complete it with a note
	update(m, runes("j"), tea.KeyMsg{Type: tea.KeySpace})
	if !strings.Contains(m.View(), "Complete: Mow lawn") {
		t.Fatalf("expected note dialog, got:\n%s", m.View())
	}
	update(m, runes("front yard"), tea.KeyMsg{Type: tea.KeyEnter})

	ctx := context.Background()
	chore, err := f.store.GetChore(ctx, f.ids["Mow lawn"])
	if err != nil {
		t.Fatal(err)
	}
	if chore.LastNote != "front yard" {
		t.Errorf("expected note to be saved, got %q", chore.LastNote)
	}
	if chore.NextDueDate == nil || chore.NextDueDate.Day() != 17 {
		t.Errorf("expected weekly due date on the 17th, got %v", chore.NextDueDate)
	}
	if !strings.Contains(m.View(), "Completed Mow lawn") {
		t.Errorf("expected completion status, got:\n%s", m.View())
	}

	update(m, runes("u"))
	history, err := f.store.History(ctx, f.ids["Mow lawn"])
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Errorf("expected undo to remove the record, got %d", len(history))
	}
	if !strings.Contains(m.View(), "Undid completion of Mow lawn") {
		t.Errorf("expected undo status, got:\n%s", m.View())
	}

	update(m, runes("u"))
	if !strings.Contains(m.View(), "Nothing to undo") {
		t.Errorf("second undo should report nothing to undo")
	}
}

func TestEscCancelsCompletion(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	update(m, tui.ReloadMsg{}, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEsc})

	history, _ := f.store.History(context.Background(), f.ids["Do dishes"])
	if len(history) != 0 {
		t.Fatalf("esc must not complete the chore")
	}
}

func TestTagFilterToggle(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	update(m, tui.ReloadMsg{})

	update(m, runes("1"))
	if got := rowNames(m); got != "Mow lawn,Water plants" {
		t.Fatalf("garden filter rows = %s", got)
	}
	if !strings.Contains(m.View(), "(filtered)") {
		t.Errorf("expected filtered marker")
	}

	update(m, runes("2"))
	if got := rowNames(m); got != "Do dishes,Mow lawn,Water plants" {
		t.Fatalf("garden+kitchen rows = %s", got)
	}

	update(m, runes("c"))
	if f.board.IsFilterActive() {
		t.Error("expected c to clear the filter")
	}

	update(m, runes("9"))
	if got := rowNames(m); got != "Do dishes,Mow lawn,Water plants" {
		t.Errorf("unknown tag index should be ignored, rows = %s", got)
	}
}

func TestSortKeysPersist(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	update(m, tui.ReloadMsg{})

	update(m, runes("S"))
	if got := rowNames(m); got != "Water plants,Mow lawn,Do dishes" {
		t.Fatalf("flipped rows = %s", got)
	}
	if f.prefs.order != views.SortByName || f.prefs.dir != views.Descending {
		t.Errorf("expected name desc persisted, got %s %s", f.prefs.order, f.prefs.dir)
	}

	update(m, runes("s"))
	if f.prefs.order != views.SortByLastCompleted || f.prefs.dir != views.Descending {
		t.Errorf("expected last_completed desc, got %s %s", f.prefs.order, f.prefs.dir)
	}
	update(m, runes("s"), runes("s"))
	if f.prefs.order != views.SortByName {
		t.Errorf("expected sort cycle to wrap to name, got %s", f.prefs.order)
	}
}

func TestCursorFollowsChoreAcrossReorder(t *testing.T) {
	m := newFixture(t).model()
	update(m, tui.ReloadMsg{}, runes("j"), runes("j"))

	update(m, runes("S"))
	if m.Rows()[0].Name != "Water plants" {
		t.Fatalf("unexpected first row %s", m.Rows()[0].Name)
	}
	update(m, tea.KeyMsg{Type: tea.KeySpace})
	if !strings.Contains(m.View(), "Complete: Water plants") {
		t.Errorf("cursor should stay on Water plants after reorder:\n%s", m.View())
	}
}

func TestArchiveAndDeleteConfirm(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	ctx := context.Background()
	update(m, tui.ReloadMsg{})

	update(m, runes("a"))
	if !strings.Contains(m.View(), `Archive "Do dishes"?`) {
		t.Fatalf("expected archive confirm, got:\n%s", m.View())
	}
	update(m, runes("n"))
	if got := rowNames(m); got != "Do dishes,Mow lawn,Water plants" {
		t.Fatalf("declining must keep rows, got %s", got)
	}

	update(m, runes("a"), runes("y"))
	if got := rowNames(m); got != "Mow lawn,Water plants" {
		t.Fatalf("rows after archive = %s", got)
	}
	archived, _ := f.store.ListArchivedChores(ctx)
	if len(archived) != 1 || archived[0].Name != "Do dishes" {
		t.Errorf("expected Do dishes archived, got %+v", archived)
	}

	update(m, runes("d"), runes("y"))
	if got := rowNames(m); got != "Water plants" {
		t.Fatalf("rows after delete = %s", got)
	}
	if _, err := f.store.GetChore(ctx, f.ids["Mow lawn"]); err == nil {
		t.Error("expected Mow lawn to be deleted")
	}
}

func TestEmptyStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.model()
	update(m, tui.ReloadMsg{})

	// Tag "kitchen" then archive its only chore leaves the filter empty
	update(m, runes("2"))
	if err := f.store.SetChoreActive(ctx, f.ids["Do dishes"], false); err != nil {
		t.Fatal(err)
	}
	update(m, tui.ReloadMsg{})
	if !strings.Contains(m.View(), "No chores match the selected tags") {
		t.Errorf("expected filter-empty message:\n%s", m.View())
	}

	if err := f.store.DeleteAllChores(ctx); err != nil {
		t.Fatal(err)
	}
	update(m, tui.ReloadMsg{})
	if !strings.Contains(m.View(), "No chores yet") {
		t.Errorf("expected empty message:\n%s", m.View())
	}
}

func TestHistoryToggle(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	update(m, tui.ReloadMsg{}, tea.KeyMsg{Type: tea.KeyEnter}, runes("scrubbed pans"), tea.KeyMsg{Type: tea.KeyEnter})

	if strings.Contains(m.View(), "scrubbed pans") {
		t.Fatal("note must be hidden until history is shown")
	}
	update(m, runes("h"))
	if !f.prefs.history {
		t.Error("expected history visibility to be persisted")
	}
	if !strings.Contains(m.View(), "scrubbed pans") {
		t.Errorf("expected note in history column:\n%s", m.View())
	}
}

func TestExternalChangeReload(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	update(m, tui.ReloadMsg{})

	if _, err := f.store.SaveChore(context.Background(), backend.NewChore("Clean gutters")); err != nil {
		t.Fatal(err)
	}
	update(m, tui.ReloadMsg{})
	if got := rowNames(m); got != "Clean gutters,Do dishes,Mow lawn,Water plants" {
		t.Errorf("rows after reload = %s", got)
	}
}

// =============================================================================
// teatest program tests
// =============================================================================

// TestTUILaunch verifies the board renders chores and quits on q
func TestTUILaunch(t *testing.T) {
	m := newFixture(t).model()
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Water plants"))
	}, teatest.WithDuration(2*time.Second))

	sendRunesAndWait(tm, []rune{'q'})
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))
}

// TestTUIHelp verifies ? opens the key binding help
func TestTUIHelp(t *testing.T) {
	m := newFixture(t).model()
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))
	time.Sleep(100 * time.Millisecond)

	sendRunesAndWait(tm, []rune{'?'})
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Toggle tag filter"))
	}, teatest.WithDuration(2*time.Second))

	sendRunesAndWait(tm, []rune{'x'})
	sendRunesAndWait(tm, []rune{'q'})
	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if len(out) == 0 {
		t.Error("expected TUI to render some output")
	}
}

// TestTUICompleteFlow drives a completion through the running program
func TestTUICompleteFlow(t *testing.T) {
	f := newFixture(t)
	tm := teatest.NewTestModel(t, f.model(), teatest.WithInitialTermSize(100, 30))
	time.Sleep(100 * time.Millisecond)

	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeySpace})
	for _, r := range "all done" {
		tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})
	sendRunesAndWait(tm, []rune{'q'})

	final := tm.FinalModel(t, teatest.WithFinalTimeout(time.Second)).(*tui.Model)
	if len(final.Rows()) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(final.Rows()))
	}
	chore, err := f.store.GetChore(context.Background(), f.ids["Do dishes"])
	if err != nil {
		t.Fatal(err)
	}
	if chore.LastNote != "all done" {
		t.Errorf("expected note 'all done', got %q", chore.LastNote)
	}
}
