package utils

import (
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// Error Tests
// =============================================================================

// TestErrorWithSuggestionError verifies Error() includes the message and suggestion
func TestErrorWithSuggestionError(t *testing.T) {
	err := &ErrorWithSuggestion{
		Err:        errors.New("something went wrong"),
		Suggestion: "Try doing X",
	}

	errStr := err.Error()
	for _, want := range []string{"something went wrong", "Suggestion:", "Try doing X"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("Error() should contain %q, got: %s", want, errStr)
		}
	}
}

// TestWrapWithSuggestion verifies wrapping keeps the error chain
func TestWrapWithSuggestion(t *testing.T) {
	underlying := errors.New("original error")
	wrapped := WrapWithSuggestion(underlying, "custom suggestion")

	var withSuggestion *ErrorWithSuggestion
	if !errors.As(wrapped, &withSuggestion) {
		t.Fatal("WrapWithSuggestion should return *ErrorWithSuggestion")
	}
	if withSuggestion.GetSuggestion() != "custom suggestion" {
		t.Errorf("Suggestion = %s, want 'custom suggestion'", withSuggestion.GetSuggestion())
	}
	if !errors.Is(wrapped, underlying) {
		t.Error("errors.Is should find the underlying error")
	}
}

// TestDomainErrorsKeepCause verifies constructors wrap the store error
func TestDomainErrorsKeepCause(t *testing.T) {
	cause := errors.New("not found")

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"chore", ErrChoreNotFound("dishes", cause), "chore not found: dishes"},
		{"tag", ErrTagNotFound("kitchen", cause), "tag add kitchen"},
		{"record", ErrRecordNotFound(7, cause), "completion record not found: 7"},
		{"duplicate chore", ErrDuplicateChore("Dishes", cause), `"Dishes" already exists`},
		{"duplicate tag", ErrDuplicateTag("home", cause), "tag list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, cause) {
				t.Errorf("%s error should wrap cause", tt.name)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}

// TestErrInvalidRecurrenceListsOptions verifies valid values appear in the suggestion
func TestErrInvalidRecurrenceListsOptions(t *testing.T) {
	err := ErrInvalidRecurrence("hourly", []string{"none", "daily"})
	var ews *ErrorWithSuggestion
	if !errors.As(err, &ews) {
		t.Fatal("expected *ErrorWithSuggestion")
	}
	if ews.Suggestion != "Valid options: none, daily" {
		t.Errorf("Suggestion = %q", ews.Suggestion)
	}
}
