// Package settings provides typed access to user preferences kept in the
// database, so they travel with backups.
package settings

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"chorebuddy/internal/views"
)

// Store is the key/value persistence used for preferences
type Store interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Known keys
const (
	KeyNotificationsEnabled = "notifications_enabled"
	KeyHistoryVisible       = "history_visible"
	KeySortOrder            = "sort_order"
	KeySortDirection        = "sort_direction"
	KeyLastBackup           = "last_backup"
)

// defaults holds the effective value of each key when unset.
// An empty default means "unset" is shown.
var defaults = map[string]string{
	KeyNotificationsEnabled: "true",
	KeyHistoryVisible:       "false",
	KeySortOrder:            string(views.SortByLastCompleted),
	KeySortDirection:        string(views.Descending),
	KeyLastBackup:           "",
}

// Keys returns the known keys in alphabetical order
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Settings reads and writes preferences through a Store
type Settings struct {
	store Store
}

// New wraps a store
func New(store Store) *Settings {
	return &Settings{store: store}
}

func (s *Settings) get(ctx context.Context, key string) (string, error) {
	v, ok, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	if !ok {
		return defaults[key], nil
	}
	return v, nil
}

func (s *Settings) getBool(ctx context.Context, key string) (bool, error) {
	v, err := s.get(ctx, key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		// a corrupt value falls back to the default
		b, _ = strconv.ParseBool(defaults[key])
	}
	return b, nil
}

// NotificationsEnabled reports the global reminder switch
func (s *Settings) NotificationsEnabled(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyNotificationsEnabled)
}

// SetNotificationsEnabled stores the global reminder switch
func (s *Settings) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return s.store.SetSetting(ctx, KeyNotificationsEnabled, strconv.FormatBool(enabled))
}

// HistoryVisible reports whether last notes are shown in lists
func (s *Settings) HistoryVisible(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyHistoryVisible)
}

// SetHistoryVisible stores the history column toggle
func (s *Settings) SetHistoryVisible(ctx context.Context, visible bool) error {
	return s.store.SetSetting(ctx, KeyHistoryVisible, strconv.FormatBool(visible))
}

// Sort returns the saved sort order and direction
func (s *Settings) Sort(ctx context.Context) (views.SortOrder, views.SortDirection, error) {
	o, err := s.get(ctx, KeySortOrder)
	if err != nil {
		return "", "", err
	}
	d, err := s.get(ctx, KeySortDirection)
	if err != nil {
		return "", "", err
	}
	order, err := views.ParseSortOrder(o)
	if err != nil {
		order = views.SortByLastCompleted
	}
	dir, err := views.ParseSortDirection(d)
	if err != nil {
		dir = views.Descending
	}
	return order, dir, nil
}

// SetSort stores the sort order and direction
func (s *Settings) SetSort(ctx context.Context, order views.SortOrder, dir views.SortDirection) error {
	if err := s.store.SetSetting(ctx, KeySortOrder, string(order)); err != nil {
		return err
	}
	return s.store.SetSetting(ctx, KeySortDirection, string(dir))
}

// LastBackup returns when the last export happened, nil if never
func (s *Settings) LastBackup(ctx context.Context) (*time.Time, error) {
	v, err := s.get(ctx, KeyLastBackup)
	if err != nil || v == "" {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, nil
	}
	t = t.Local()
	return &t, nil
}

// SetLastBackup records the time of a successful export
func (s *Settings) SetLastBackup(ctx context.Context, t time.Time) error {
	return s.store.SetSetting(ctx, KeyLastBackup, t.Format(time.RFC3339))
}

// All returns the effective value of every known key
func (s *Settings) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(defaults))
	for _, k := range Keys() {
		v, err := s.get(ctx, k)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// Set validates raw for key and stores its canonical form. The value
// "default" removes the key so its default applies again.
func (s *Settings) Set(ctx context.Context, key, raw string) (string, error) {
	if _, ok := defaults[key]; !ok {
		return "", fmt.Errorf("unknown setting %q (valid: %v)", key, Keys())
	}
	if raw == "default" {
		return defaults[key], s.store.DeleteSetting(ctx, key)
	}

	var value string
	switch key {
	case KeyNotificationsEnabled, KeyHistoryVisible:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "", fmt.Errorf("setting %s expects true or false, got %q", key, raw)
		}
		value = strconv.FormatBool(b)
	case KeySortOrder:
		o, err := views.ParseSortOrder(raw)
		if err != nil {
			return "", err
		}
		value = string(o)
	case KeySortDirection:
		d, err := views.ParseSortDirection(raw)
		if err != nil {
			return "", err
		}
		value = string(d)
	case KeyLastBackup:
		return "", fmt.Errorf("setting %s is managed by 'backup export'", key)
	}

	return value, s.store.SetSetting(ctx, key, value)
}
