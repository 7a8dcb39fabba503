package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors returned by ChoreStore implementations
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateName  = errors.New("name already exists")
	ErrEmptyName      = errors.New("name must not be empty")
	ErrTagNameTooLong = fmt.Errorf("tag name exceeds %d characters", MaxTagNameLength)
)

// MaxTagNameLength is the longest tag name accepted by SaveTag
const MaxTagNameLength = 22

// DefaultTagColor is used when a tag is saved without a color
const DefaultTagColor = "#007ACC"

// TagPalette lists the colors offered when creating tags
var TagPalette = []string{
	"#EF4444", "#F59E0B", "#FB923C",
	"#7C3AED", "#F472B6", "#D375C8",
	"#10B981", "#047857", "#064E3B",
	"#007ACC", "#0891B2", "#003D66",
}

// RecurrenceType controls how the next due date advances after a completion
type RecurrenceType string

const (
	RecurNone          RecurrenceType = "none"
	RecurDaily         RecurrenceType = "daily"
	RecurEveryOtherDay RecurrenceType = "every_other_day"
	RecurWeekly        RecurrenceType = "weekly"
	RecurMonthly       RecurrenceType = "monthly"
)

// RecurrenceTypes lists every valid recurrence in display order
var RecurrenceTypes = []RecurrenceType{RecurNone, RecurDaily, RecurEveryOtherDay, RecurWeekly, RecurMonthly}

// ParseRecurrence converts user input into a RecurrenceType.
// An empty string means RecurNone.
func ParseRecurrence(s string) (RecurrenceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "once", "never":
		return RecurNone, nil
	case "daily", "day", "d":
		return RecurDaily, nil
	case "every_other_day", "every-other-day", "everyotherday", "eod":
		return RecurEveryOtherDay, nil
	case "weekly", "week", "w":
		return RecurWeekly, nil
	case "monthly", "month", "m":
		return RecurMonthly, nil
	default:
		return "", fmt.Errorf("invalid recurrence %q", s)
	}
}

// Label returns a human-readable label
func (r RecurrenceType) Label() string {
	switch r {
	case RecurDaily:
		return "Daily"
	case RecurEveryOtherDay:
		return "Every other day"
	case RecurWeekly:
		return "Weekly"
	case RecurMonthly:
		return "Monthly"
	default:
		return "Once"
	}
}

// Chore is a user-defined recurring task
type Chore struct {
	ID                   int64
	UID                  string
	Name                 string
	LastCompleted        *time.Time
	IsActive             bool
	LastNote             string
	NextDueDate          *time.Time
	Recurrence           RecurrenceType
	NotificationsEnabled bool
	Created              time.Time
	Modified             time.Time
}

// NewChore returns an active chore with notifications enabled
func NewChore(name string) *Chore {
	return &Chore{
		Name:                 strings.TrimSpace(name),
		IsActive:             true,
		Recurrence:           RecurNone,
		NotificationsEnabled: true,
	}
}

// Tag is a colored label that can be attached to many chores
type Tag struct {
	ID    int64
	Name  string
	Color string
}

// NormalizeTagName lower-cases and trims a tag name the way it is stored
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CompletionRecord logs one completion of a chore
type CompletionRecord struct {
	ID          int64
	ChoreID     int64
	CompletedAt time.Time
	Note        string
}

// ChoreItem is a chore joined with its tags, as shown in list views
type ChoreItem struct {
	Chore
	Tags []Tag
}

// HasTag reports whether the item carries the tag with the given id
func (c ChoreItem) HasTag(tagID int64) bool {
	for _, t := range c.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// Equal compares every chore field and the tag set, ignoring tag order
func (c ChoreItem) Equal(o ChoreItem) bool {
	if c.ID != o.ID ||
		c.Name != o.Name ||
		!timePtrEqual(c.LastCompleted, o.LastCompleted) ||
		c.IsActive != o.IsActive ||
		c.LastNote != o.LastNote ||
		!timePtrEqual(c.NextDueDate, o.NextDueDate) ||
		c.Recurrence != o.Recurrence ||
		c.NotificationsEnabled != o.NotificationsEnabled {
		return false
	}
	if len(c.Tags) != len(o.Tags) {
		return false
	}
	for _, t := range c.Tags {
		found := false
		for _, ot := range o.Tags {
			if t == ot {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ChoreStore defines the persistence operations for chores, tags and history
type ChoreStore interface {
	// Chore operations
	ListActiveChores(ctx context.Context) ([]Chore, error)
	ListActiveChoreItems(ctx context.Context) ([]ChoreItem, error)
	ListArchivedChores(ctx context.Context) ([]Chore, error)
	GetChore(ctx context.Context, id int64) (*Chore, error)
	GetChoreByName(ctx context.Context, name string) (*Chore, error)
	SaveChore(ctx context.Context, chore *Chore) (*Chore, error)
	// CreateChore inserts a new chore and attaches tags in one transaction.
	// Tags with a zero ID are created first.
	CreateChore(ctx context.Context, chore *Chore, tags []Tag) (*Chore, error)
	SetChoreActive(ctx context.Context, id int64, active bool) error
	DeleteChore(ctx context.Context, id int64) error
	DeleteAllChores(ctx context.Context) error

	// Completion history
	CompleteChore(ctx context.Context, choreID int64, completedAt time.Time, note string, nextDue *time.Time) (int64, error)
	History(ctx context.Context, choreID int64) ([]CompletionRecord, error)
	GetCompletionRecord(ctx context.Context, recordID int64) (*CompletionRecord, error)
	UpdateCompletionNote(ctx context.Context, recordID int64, note string) error
	DeleteCompletionRecord(ctx context.Context, recordID int64) error

	// Tag operations
	ListTags(ctx context.Context) ([]Tag, error)
	GetTagByName(ctx context.Context, name string) (*Tag, error)
	SaveTag(ctx context.Context, tag *Tag) (*Tag, error)
	DeleteTag(ctx context.Context, id int64) error
	DeleteAllTags(ctx context.Context) error
	TagsForChore(ctx context.Context, choreID int64) ([]Tag, error)
	SetChoreTags(ctx context.Context, choreID int64, tagIDs []int64) error

	// Connection management
	Path() string
	Close() error
}

// GenerateUID generates a stable external identifier for a chore
func GenerateUID() string {
	return uuid.New().String()
}
