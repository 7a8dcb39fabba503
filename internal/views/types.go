package views

import (
	"fmt"
	"strings"
)

// DefaultDateFormat is the date format used by list columns
const DefaultDateFormat = "2006-01-02 15:04"

// NameWidth is the number of characters of a chore name shown before "..."
const NameWidth = 30

// SortOrder selects the field chores are ordered by
type SortOrder string

const (
	SortByName          SortOrder = "name"
	SortByLastCompleted SortOrder = "last_completed"
	SortByDueDate       SortOrder = "due_date"
)

// SortDirection is ascending or descending
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortOrder accepts the canonical names and short aliases
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "n":
		return SortByName, nil
	case "last_completed", "last", "completed", "l":
		return SortByLastCompleted, nil
	case "due_date", "due", "d":
		return SortByDueDate, nil
	default:
		return "", fmt.Errorf("invalid sort order %q (valid: name, last, due)", s)
	}
}

// ParseSortDirection accepts asc/ascending and desc/descending
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q (valid: asc, desc)", s)
	}
}

// Field is one column of the chore table
type Field struct {
	Name     string
	Width    int
	Truncate bool
}

// Column names understood by the renderer
const (
	FieldID         = "id"
	FieldName       = "name"
	FieldRecurrence = "recurrence"
	FieldDue        = "due"
	FieldLast       = "last"
	FieldTags       = "tags"
	FieldNote       = "note"
)

// DefaultFields returns the standard list columns. The last-note column is
// only included when history is visible.
func DefaultFields(historyVisible bool) []Field {
	fields := []Field{
		{Name: FieldID, Width: 4},
		{Name: FieldName, Width: NameWidth + 3, Truncate: true},
		{Name: FieldRecurrence, Width: 15},
		{Name: FieldDue, Width: 16},
		{Name: FieldLast, Width: 16},
		{Name: FieldTags},
	}
	if historyVisible {
		fields = append(fields, Field{Name: FieldNote, Width: 24, Truncate: true})
	}
	return fields
}
