package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorWithSuggestion pairs an error with a hint telling the user what to do next.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{Err: err, Suggestion: suggestion}
}

// ErrChoreNotFound is returned when a chore reference matches nothing.
func ErrChoreNotFound(ref string, cause error) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("chore not found: %s: %w", ref, cause),
		Suggestion: "Use 'chorebuddy list' to see chores and their ids",
	}
}

// ErrTagNotFound is returned when a tag name matches nothing.
func ErrTagNotFound(name string, cause error) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("tag not found: %s: %w", name, cause),
		Suggestion: fmt.Sprintf("Create it with 'chorebuddy tag add %s'", name),
	}
}

// ErrRecordNotFound is returned when a completion record id matches nothing.
func ErrRecordNotFound(id int64, cause error) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("completion record not found: %d: %w", id, cause),
		Suggestion: "Use 'chorebuddy history <chore>' to see record ids",
	}
}

// ErrDuplicateChore is returned when a chore name is already taken.
func ErrDuplicateChore(name string, cause error) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("a chore named %q already exists: %w", name, cause),
		Suggestion: "Chore names are compared case-insensitively; pick a different name",
	}
}

// ErrDuplicateTag is returned when a tag name is already taken.
func ErrDuplicateTag(name string, cause error) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("a tag named %q already exists: %w", name, cause),
		Suggestion: "Use 'chorebuddy tag list' to see existing tags",
	}
}

// ErrInvalidDate returns an error for an unparseable date string.
func ErrInvalidDate(dateStr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid date: %s", dateStr),
		Suggestion: "Use YYYY-MM-DD, YYYY-MM-DD HH:MM or phrases like 'tomorrow 9am' or 'next friday'",
	}
}

// ErrInvalidRecurrence returns an error for an unknown recurrence, listing valid values.
func ErrInvalidRecurrence(value string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid recurrence: %s", value),
		Suggestion: fmt.Sprintf("Valid options: %s", strings.Join(valid, ", ")),
	}
}

// ErrInvalidBackup is returned when an import source cannot be restored.
func ErrInvalidBackup(path, reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid backup %s: %s", path, reason),
		Suggestion: "Choose a non-empty .db3 file created by 'chorebuddy backup export'",
	}
}

// ErrNoDatabase is returned when there is no database file to back up.
func ErrNoDatabase(path string) error {
	return &ErrorWithSuggestion{
		Err:        errors.New("database file not found: " + path),
		Suggestion: "Add a chore first or check database.path in your config file",
	}
}
