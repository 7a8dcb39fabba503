// Package recurrence computes next due dates and due status for chores.
package recurrence

import (
	"time"

	"chorebuddy/backend"
)

// DueSoonWindow is how far ahead a due date counts as "due soon"
const DueSoonWindow = 24 * time.Hour

// Next returns the due date following a completion at completedAt.
// The date advances from the completion day; the time of day is taken from
// previousDue when set, otherwise from completedAt. RecurNone yields nil.
func Next(rt backend.RecurrenceType, completedAt time.Time, previousDue *time.Time) *time.Time {
	clock := completedAt
	if previousDue != nil {
		clock = previousDue.In(completedAt.Location())
	}
	base := time.Date(completedAt.Year(), completedAt.Month(), completedAt.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), completedAt.Location())

	var next time.Time
	switch rt {
	case backend.RecurDaily:
		next = base.AddDate(0, 0, 1)
	case backend.RecurEveryOtherDay:
		next = base.AddDate(0, 0, 2)
	case backend.RecurWeekly:
		next = base.AddDate(0, 0, 7)
	case backend.RecurMonthly:
		next = AddMonthClamped(base, 1)
	default:
		return nil
	}
	return &next
}

// AddMonthClamped adds months to t, clamping the day to the last day of the
// target month instead of overflowing (Jan 31 + 1 month is Feb 28 or 29).
func AddMonthClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Status classifies a due date relative to now
type Status string

const (
	StatusNone    Status = "none"
	StatusOverdue Status = "overdue"
	StatusDueSoon Status = "due_soon"
	StatusOK      Status = "ok"
)

// StatusOf returns the due status of an optional due date at now
func StatusOf(due *time.Time, now time.Time) Status {
	switch {
	case due == nil:
		return StatusNone
	case now.After(*due):
		return StatusOverdue
	case due.Sub(now) <= DueSoonWindow:
		return StatusDueSoon
	default:
		return StatusOK
	}
}
