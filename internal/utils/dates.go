package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// absoluteLayouts are tried before natural-language parsing
var absoluteLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// numericDate matches input that starts like YYYY-MM-DD. Such input is only
// ever parsed by absoluteLayouts.
var numericDate = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}`)

// ParseWhen parses a due date relative to now. It accepts YYYY-MM-DD with an
// optional HH:MM and English phrases such as "tomorrow 9am" or "in 3 days".
// Input that only partly matches a phrase is rejected.
// An empty string yields nil without error.
func ParseWhen(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}

	if numericDate.MatchString(s) {
		return nil, ErrInvalidDate(s)
	}

	if strings.EqualFold(s, "now") {
		return &now, nil
	}

	r, err := dateParser.Parse(s, now)
	if err != nil || r == nil {
		return nil, ErrInvalidDate(s)
	}
	// the match must cover the whole input, not just a phrase inside it
	if r.Index != 0 || len(strings.TrimSpace(r.Text)) != len(s) {
		return nil, ErrInvalidDate(s)
	}
	t := r.Time
	return &t, nil
}

// FormatDue renders an optional date for display.
func FormatDue(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
