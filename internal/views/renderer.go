package views

import (
	"fmt"
	"io"
	"strings"
	"time"

	"chorebuddy/backend"
	"chorebuddy/internal/recurrence"

	"github.com/charmbracelet/lipgloss"
)

// Renderer writes chore items as an aligned table, coloring due dates by status
type Renderer struct {
	fields []Field
	writer io.Writer
	now    func() time.Time

	header  lipgloss.Style
	overdue lipgloss.Style
	dueSoon lipgloss.Style
	ok      lipgloss.Style
}

// NewRenderer creates a renderer for the given columns. Colors are only
// emitted when writer is a terminal that supports them.
func NewRenderer(fields []Field, writer io.Writer) *Renderer {
	lr := lipgloss.NewRenderer(writer)
	return &Renderer{
		fields:  fields,
		writer:  writer,
		now:     time.Now,
		header:  lr.NewStyle().Bold(true),
		overdue: lr.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		dueSoon: lr.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		ok:      lr.NewStyle().Foreground(lipgloss.Color("#007ACC")),
	}
}

// WithClock overrides the time used to classify due dates
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// Render prints a header line followed by one line per item
func (r *Renderer) Render(items []backend.ChoreItem) {
	headers := make([]string, len(r.fields))
	for i, f := range r.fields {
		headers[i] = r.header.Render(pad(strings.ToUpper(f.Name), f.Width))
	}
	_, _ = fmt.Fprintln(r.writer, strings.TrimRight(strings.Join(headers, " "), " "))

	now := r.now()
	for i := range items {
		parts := make([]string, len(r.fields))
		for j, f := range r.fields {
			parts[j] = r.formatField(&items[i], f, now)
		}
		_, _ = fmt.Fprintln(r.writer, strings.TrimRight(strings.Join(parts, " "), " "))
	}
}

func (r *Renderer) formatField(item *backend.ChoreItem, field Field, now time.Time) string {
	var value string

	switch field.Name {
	case FieldID:
		value = fmt.Sprintf("%d", item.ID)
	case FieldName:
		value = item.Name
	case FieldRecurrence:
		value = item.Recurrence.Label()
	case FieldDue:
		value = formatDate(item.NextDueDate)
	case FieldLast:
		value = formatDate(item.LastCompleted)
	case FieldTags:
		names := make([]string, len(item.Tags))
		for i, t := range item.Tags {
			names[i] = t.Name
		}
		if len(names) > 0 {
			value = "{" + strings.Join(names, ",") + "}"
		}
	case FieldNote:
		value = item.LastNote
	}

	if field.Truncate && field.Width > 0 {
		value = Truncate(value, field.Width-3)
	}
	value = pad(value, field.Width)

	if field.Name == FieldDue {
		switch recurrence.StatusOf(item.NextDueDate, now) {
		case recurrence.StatusOverdue:
			value = r.overdue.Render(value)
		case recurrence.StatusDueSoon:
			value = r.dueSoon.Render(value)
		case recurrence.StatusOK:
			value = r.ok.Render(value)
		}
	}
	return value
}

// Truncate shortens s to at most maxChars runes followed by "...",
// trimming trailing spaces.
func Truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return strings.TrimRight(s, " ")
	}
	return strings.TrimRight(string(runes[:maxChars])+"...", " ")
}

func pad(s string, width int) string {
	if width <= 0 {
		return s
	}
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(DefaultDateFormat)
}
