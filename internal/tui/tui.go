// Package tui provides the interactive chore board.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chorebuddy/backend"
	"chorebuddy/internal/board"
	"chorebuddy/internal/listsync"
	"chorebuddy/internal/recurrence"
	"chorebuddy/internal/utils"
	"chorebuddy/internal/views"
)

// Preferences persists the display choices made on the board. May be nil.
type Preferences interface {
	HistoryVisible(ctx context.Context) (bool, error)
	SetHistoryVisible(ctx context.Context, visible bool) error
	SetSort(ctx context.Context, order views.SortOrder, dir views.SortDirection) error
}

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeNote
	ModeHelp
	ModeConfirmArchive
	ModeConfirmDelete
)

// ReloadMsg asks the board to re-query the store, e.g. after another
// process changed the database.
type ReloadMsg struct{}

// sortCycle is the order "s" steps through
var sortCycle = []views.SortOrder{views.SortByName, views.SortByLastCompleted, views.SortByDueDate}

type undoToken struct {
	recordID int64
	name     string
}

// Model represents the TUI state
type Model struct {
	board *board.Board
	prefs Preferences
	ctx   context.Context
	now   func() time.Time

	// rows mirrors board.Items(), kept in step by replaying the board's edits
	rows   []backend.ChoreItem
	cursor int

	mode      Mode
	textInput textinput.Model
	history   bool
	undo      *undoToken
	status    string
	err       error

	width  int
	height int

	titleStyle     lipgloss.Style
	selectedStyle  lipgloss.Style
	tagStyle       lipgloss.Style
	tagOnStyle     lipgloss.Style
	overdueStyle   lipgloss.Style
	dueSoonStyle   lipgloss.Style
	okStyle        lipgloss.Style
	dimStyle       lipgloss.Style
	helpStyle      lipgloss.Style
	dialogStyle    lipgloss.Style
	statusBarStyle lipgloss.Style
	errorStyle     lipgloss.Style
}

// New creates a board model. The board is loaded by Init.
func New(ctx context.Context, b *board.Board, prefs Preferences) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	ti := textinput.New()
	ti.Placeholder = "Optional note..."
	ti.CharLimit = 256

	m := &Model{
		board:     b,
		prefs:     prefs,
		ctx:       ctx,
		now:       time.Now,
		rows:      []backend.ChoreItem{},
		textInput: ti,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#007ACC")),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		tagStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		tagOnStyle: lipgloss.NewStyle().
			Bold(true).
			Reverse(true),
		overdueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		dueSoonStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		okStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		dimStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		dialogStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		statusBarStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		errorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
	if prefs != nil {
		if visible, err := prefs.HistoryVisible(ctx); err == nil {
			m.history = visible
		}
	}
	return m
}

// SetClock overrides the time used for completions and due coloring
func (m *Model) SetClock(now func() time.Time) {
	m.now = now
}

// Init loads the board
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg { return ReloadMsg{} }
}

// Rows returns the chores currently displayed
func (m *Model) Rows() []backend.ChoreItem {
	return m.rows
}

func (m *Model) selected() *backend.ChoreItem {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return &m.rows[m.cursor]
}

// apply replays board edits on the displayed rows and keeps the cursor on
// the same chore when it is still visible.
func (m *Model) apply(ops []board.Op, err error) {
	if err != nil {
		m.err = err
		utils.Errorf("board: %v", err)
		return
	}
	var selectedID int64
	if sel := m.selected(); sel != nil {
		selectedID = sel.ID
	}

	rows, applyErr := listsync.Apply(m.rows, ops)
	if applyErr != nil {
		utils.Warnf("board edits out of step, resetting rows: %v", applyErr)
		rows = append([]backend.ChoreItem(nil), m.board.Items()...)
	}
	m.rows = rows

	if selectedID != 0 {
		for i, r := range m.rows {
			if r.ID == selectedID {
				m.cursor = i
				return
			}
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) reload() {
	m.apply(m.board.Load(m.ctx))
}

func (m *Model) persistSort() {
	if m.prefs == nil {
		return
	}
	order, dir := m.board.SortState()
	if err := m.prefs.SetSort(m.ctx, order, dir); err != nil {
		utils.Warnf("saving sort order: %v", err)
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ReloadMsg:
		m.reload()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeNote:
			return m.handleNoteMode(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		case ModeConfirmArchive, ModeConfirmDelete:
			return m.handleConfirmMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	key := msg.String()

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case " ", "enter":
		if m.selected() == nil {
			return m, nil
		}
		m.mode = ModeNote
		m.textInput.Reset()
		m.textInput.Focus()
		return m, textinput.Blink

	case "u":
		if m.undo == nil {
			m.status = "Nothing to undo"
			return m, nil
		}
		if err := m.board.UndoComplete(m.ctx, m.undo.recordID); err != nil {
			m.err = err
			return m, nil
		}
		m.status = "Undid completion of " + m.undo.name
		m.undo = nil
		m.reload()
		return m, nil

	case "s":
		order, _ := m.board.SortState()
		next := sortCycle[0]
		for i, o := range sortCycle {
			if o == order {
				next = sortCycle[(i+1)%len(sortCycle)]
				break
			}
		}
		m.apply(m.board.Sort(m.ctx, next))
		m.persistSort()
		return m, nil

	case "S":
		order, _ := m.board.SortState()
		m.apply(m.board.Sort(m.ctx, order))
		m.persistSort()
		return m, nil

	case "c":
		m.apply(m.board.ClearFilter(m.ctx))
		return m, nil

	case "a":
		if m.selected() != nil {
			m.mode = ModeConfirmArchive
		}
		return m, nil

	case "d":
		if m.selected() != nil {
			m.mode = ModeConfirmDelete
		}
		return m, nil

	case "h":
		m.history = !m.history
		if m.prefs != nil {
			if err := m.prefs.SetHistoryVisible(m.ctx, m.history); err != nil {
				utils.Warnf("saving history visibility: %v", err)
			}
		}
		return m, nil

	case "r":
		m.reload()
		m.status = "Reloaded"
		return m, nil

	case "?":
		m.mode = ModeHelp
		return m, nil
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		idx := int(key[0] - '1')
		tags := m.board.Tags()
		if idx < len(tags) {
			m.apply(m.board.ToggleTag(m.ctx, tags[idx].ID))
		}
	}
	return m, nil
}

func (m *Model) handleNoteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		m.mode = ModeNormal
		sel := m.selected()
		if sel == nil {
			return m, nil
		}
		name := sel.Name
		recordID, err := m.board.Complete(m.ctx, sel.ID, m.textInput.Value(), m.now())
		if err != nil {
			m.err = err
			if recordID == 0 {
				return m, nil
			}
		}
		m.undo = &undoToken{recordID: recordID, name: name}
		m.status = "Completed " + name + " (u to undo)"
		m.reload()
		return m, nil

	case tea.KeyEsc:
		m.mode = ModeNormal
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		mode := m.mode
		m.mode = ModeNormal
		sel := m.selected()
		if sel == nil {
			return m, nil
		}
		name := sel.Name
		var err error
		if mode == ModeConfirmArchive {
			err = m.board.Archive(m.ctx, sel.ID)
			m.status = "Archived " + name
		} else {
			err = m.board.Delete(m.ctx, sel.ID)
			m.status = "Deleted " + name
		}
		if err != nil {
			m.err = err
			m.status = ""
		}
		m.reload()
		return m, nil

	case "n", "N", "esc", "q":
		m.mode = ModeNormal
		return m, nil
	}
	return m, nil
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeNote:
		return m.renderNoteDialog()
	case ModeHelp:
		return m.renderHelpDialog()
	case ModeConfirmArchive:
		return m.renderConfirmDialog("Archive")
	case ModeConfirmDelete:
		return m.renderConfirmDialog("Delete")
	}

	var b strings.Builder
	b.WriteString(m.titleStyle.Render("ChoreBuddy"))
	b.WriteString("\n")
	if bar := m.renderTagBar(); bar != "" {
		b.WriteString(bar)
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("─", m.width))
	b.WriteString("\n")
	b.WriteString(m.renderRows())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderTagBar() string {
	tags := m.board.Tags()
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tags))
	for i, t := range tags {
		label := t.Name
		if i < 9 {
			label = fmt.Sprintf("%d:%s", i+1, t.Name)
		}
		if t.Selected {
			parts = append(parts, m.tagOnStyle.Foreground(lipgloss.Color(t.Color)).Render(label))
		} else {
			parts = append(parts, m.tagStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderRows() string {
	if m.board.IsTotalEmpty() {
		return m.dimStyle.Render("No chores yet. Add one with: chorebuddy add \"Water plants\" --every weekly") + "\n"
	}
	if m.board.IsFilterEmpty() {
		return m.dimStyle.Render("No chores match the selected tags (c: clear filter)") + "\n"
	}

	now := m.now()
	var b strings.Builder
	for i, r := range m.rows {
		cursor := " "
		name := fmt.Sprintf("%-*s", views.NameWidth+3, views.Truncate(r.Name, views.NameWidth))
		if i == m.cursor {
			cursor = ">"
			name = m.selectedStyle.Render(name)
		}

		due := fmt.Sprintf("%-16s", utils.FormatDue(r.NextDueDate))
		switch recurrence.StatusOf(r.NextDueDate, now) {
		case recurrence.StatusOverdue:
			due = m.overdueStyle.Render(due)
		case recurrence.StatusDueSoon:
			due = m.dueSoonStyle.Render(due)
		case recurrence.StatusOK:
			due = m.okStyle.Render(due)
		}

		line := fmt.Sprintf("%s %s %-15s %s", cursor, name, r.Recurrence.Label(), due)
		if m.history {
			last := utils.FormatDue(r.LastCompleted)
			if r.LastNote != "" {
				last += " " + views.Truncate(r.LastNote, 20)
			}
			line += " " + m.dimStyle.Render(last)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderStatusBar() string {
	order, dir := m.board.SortState()
	left := fmt.Sprintf("%d chores  sort: %s %s", len(m.rows), order, dir)
	if m.board.IsFilterActive() {
		left += "  (filtered)"
	}
	if m.err != nil {
		left = m.errorStyle.Render("Error: " + m.err.Error())
	} else if m.status != "" {
		left = m.status
	}

	right := "q:quit  ?:help"
	padding := m.width - lipgloss.Width(left) - len(right) - 2
	if padding < 1 {
		padding = 1
	}
	return m.statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderNoteDialog() string {
	title := "Complete chore"
	if sel := m.selected(); sel != nil {
		title = "Complete: " + sel.Name
	}
	dialog := m.dialogStyle.Render(
		title + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.helpStyle.Render("Enter: confirm  Esc: cancel"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) renderConfirmDialog(action string) string {
	name := ""
	if sel := m.selected(); sel != nil {
		name = sel.Name
	}
	body := fmt.Sprintf("%s %q?", action, name)
	if action == "Delete" {
		body += "\nIts completion history is removed too."
	}
	dialog := m.dialogStyle.Render(body + "\n\n" + m.helpStyle.Render("y: yes  n: no"))
	return m.centerDialog(dialog)
}

func (m *Model) renderHelpDialog() string {
	help := `Help - Key Bindings

Navigation:
  j/↓    Move down
  k/↑    Move up

Chores:
  space  Complete selected chore (with note)
  u      Undo last completion
  a      Archive chore (with confirm)
  d      Delete chore (with confirm)

View:
  s      Next sort order
  S      Flip sort direction
  1-9    Toggle tag filter
  c      Clear tag filter
  h      Show/hide last completion
  r      Reload

General:
  ?      Show this help
  q      Quit

Press any key to close`

	return m.centerDialog(m.dialogStyle.Render(help))
}

func (m *Model) centerDialog(dialog string) string {
	lines := strings.Split(dialog, "\n")
	dialogWidth := 0
	for _, line := range lines {
		if w := lipgloss.Width(line); w > dialogWidth {
			dialogWidth = w
		}
	}

	topPad := (m.height - len(lines)) / 2
	leftPad := (m.width - dialogWidth) / 2
	if topPad < 0 {
		topPad = 0
	}
	if leftPad < 0 {
		leftPad = 0
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("\n", topPad))
	for _, line := range lines {
		b.WriteString(strings.Repeat(" ", leftPad))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
