// Package prompt handles interactive prompts with no-prompt mode support.
// It provides chore selection by filter text and yes/no confirmation for
// destructive commands.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"chorebuddy/backend"
	"chorebuddy/internal/utils"
)

// Sentinel errors for prompt operations.
var (
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrNoPromptMode       = errors.New("interactive prompts disabled (--no-prompt / -y)")
	ErrNoChores           = errors.New("no chores available")
	ErrNoMatches          = errors.New("no chores match the filter")
)

// ChoreSelector lets the user narrow a chore list by typed text and pick one.
type ChoreSelector struct {
	Chores   []backend.Chore
	Prompt   string
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run executes the selection prompt.
// A single candidate, before or after filtering, is selected without asking.
func (s *ChoreSelector) Run() (*backend.Chore, error) {
	if s.NoPrompt {
		return nil, ErrNoPromptMode
	}
	if len(s.Chores) == 0 {
		return nil, ErrNoChores
	}
	if len(s.Chores) == 1 {
		return &s.Chores[0], nil
	}

	writer := s.Writer
	if writer == nil {
		writer = io.Discard
	}
	scanner := bufio.NewScanner(s.Reader)

	_, _ = fmt.Fprintf(writer, "%s\nFilter (or press Enter to show all): ", s.Prompt)
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}
	filtered := FilterChores(s.Chores, scanner.Text())
	if len(filtered) == 0 {
		return nil, ErrNoMatches
	}
	if len(filtered) == 1 {
		_, _ = fmt.Fprintf(writer, "Auto-selected: %s\n", filtered[0].Name)
		return &filtered[0], nil
	}

	for i, c := range filtered {
		_, _ = fmt.Fprintf(writer, "  %d) %s\n", i+1, formatChoreLine(c))
	}
	_, _ = fmt.Fprintf(writer, "Select (0 to cancel): ")
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}

	input := strings.TrimSpace(scanner.Text())
	num, err := strconv.Atoi(input)
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %s", input)
	}
	if num == 0 {
		return nil, ErrSelectionCancelled
	}
	if num < 1 || num > len(filtered) {
		return nil, fmt.Errorf("selection out of range: %d", num)
	}
	return &filtered[num-1], nil
}

// FilterChores returns chores whose name contains filter, case-insensitively.
func FilterChores(chores []backend.Chore, filter string) []backend.Chore {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		out := make([]backend.Chore, len(chores))
		copy(out, chores)
		return out
	}
	var out []backend.Chore
	for _, c := range chores {
		if strings.Contains(strings.ToLower(c.Name), filter) {
			out = append(out, c)
		}
	}
	return out
}

func formatChoreLine(c backend.Chore) string {
	meta := []string{c.Recurrence.Label()}
	if c.NextDueDate != nil {
		meta = append(meta, "due: "+utils.FormatDue(c.NextDueDate))
	}
	return fmt.Sprintf("%s [%s]", c.Name, strings.Join(meta, ", "))
}

// Confirmer asks yes/no questions before destructive operations.
// With Interactive set it shows a huh confirm dialog, otherwise it reads a
// y/N answer from Reader.
type Confirmer struct {
	Reader      io.Reader
	Writer      io.Writer
	NoPrompt    bool
	Interactive bool
}

// NewConfirmer returns a Confirmer that uses a dialog when stdin is a terminal.
func NewConfirmer(in io.Reader, out io.Writer, noPrompt bool) *Confirmer {
	return &Confirmer{
		Reader:      in,
		Writer:      out,
		NoPrompt:    noPrompt,
		Interactive: IsTerminal(in),
	}
}

// Confirm returns true when the user accepts. In no-prompt mode it always accepts.
func (c *Confirmer) Confirm(title, description string) (bool, error) {
	if c.NoPrompt {
		return true, nil
	}
	if c.Interactive {
		return c.dialog(title, description)
	}

	writer := c.Writer
	if writer == nil {
		writer = io.Discard
	}
	if description != "" {
		_, _ = fmt.Fprintln(writer, description)
	}
	_, _ = fmt.Fprintf(writer, "%s [y/N]: ", title)

	if c.Reader == nil {
		return false, ErrSelectionCancelled
	}
	scanner := bufio.NewScanner(c.Reader)
	if !scanner.Scan() {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (c *Confirmer) dialog(title, description string) (bool, error) {
	var ok bool
	confirm := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if description != "" {
		confirm = confirm.Description(description)
	}
	form := huh.NewForm(huh.NewGroup(confirm)).WithTheme(huh.ThemeDracula())
	if c.Writer != nil {
		form = form.WithOutput(c.Writer)
	}
	if c.Reader != nil {
		form = form.WithInput(c.Reader)
	}
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// IsTerminal reports whether r is an *os.File attached to a terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
