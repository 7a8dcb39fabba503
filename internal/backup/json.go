package backup

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"chorebuddy/backend"
)

// FormatVersion identifies the layout of the JSON export
const FormatVersion = 1

// Export is the portable JSON form of the whole database
type Export struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exported_at"`
	Tags       []ExportTag   `json:"tags"`
	Chores     []ExportChore `json:"chores"`
}

// ExportTag is a tag in the JSON export
type ExportTag struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ExportChore is a chore with its tag names and full history
type ExportChore struct {
	UID                  string                 `json:"uid"`
	Name                 string                 `json:"name"`
	Active               bool                   `json:"active"`
	Recurrence           backend.RecurrenceType `json:"recurrence"`
	NextDue              *time.Time             `json:"next_due,omitempty"`
	LastCompleted        *time.Time             `json:"last_completed,omitempty"`
	LastNote             string                 `json:"last_note,omitempty"`
	NotificationsEnabled bool                   `json:"notifications_enabled"`
	Tags                 []string               `json:"tags"`
	History              []ExportCompletion     `json:"history"`
	Created              time.Time              `json:"created"`
	Modified             time.Time              `json:"modified"`
}

// ExportCompletion is one completion record
type ExportCompletion struct {
	CompletedAt time.Time `json:"completed_at"`
	Note        string    `json:"note,omitempty"`
}

// BuildExport collects active and archived chores, tags and history
func BuildExport(ctx context.Context, store backend.ChoreStore, now time.Time) (*Export, error) {
	out := &Export{Version: FormatVersion, ExportedAt: now, Tags: []ExportTag{}, Chores: []ExportChore{}}

	tags, err := store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		out.Tags = append(out.Tags, ExportTag{Name: t.Name, Color: t.Color})
	}

	active, err := store.ListActiveChores(ctx)
	if err != nil {
		return nil, err
	}
	archived, err := store.ListArchivedChores(ctx)
	if err != nil {
		return nil, err
	}

	for _, c := range append(active, archived...) {
		ec := ExportChore{
			UID:                  c.UID,
			Name:                 c.Name,
			Active:               c.IsActive,
			Recurrence:           c.Recurrence,
			NextDue:              c.NextDueDate,
			LastCompleted:        c.LastCompleted,
			LastNote:             c.LastNote,
			NotificationsEnabled: c.NotificationsEnabled,
			Tags:                 []string{},
			History:              []ExportCompletion{},
			Created:              c.Created,
			Modified:             c.Modified,
		}

		choreTags, err := store.TagsForChore(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range choreTags {
			ec.Tags = append(ec.Tags, t.Name)
		}

		history, err := store.History(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range history {
			ec.History = append(ec.History, ExportCompletion{CompletedAt: r.CompletedAt, Note: r.Note})
		}
		out.Chores = append(out.Chores, ec)
	}
	return out, nil
}

// WriteJSON writes the export as indented JSON
func WriteJSON(ctx context.Context, w io.Writer, store backend.ChoreStore, now time.Time) error {
	export, err := BuildExport(ctx, store, now)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}
