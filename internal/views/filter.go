package views

import (
	"sort"
	"time"

	"chorebuddy/backend"
)

// FilterByTags keeps items carrying at least one of the selected tags.
// An empty selection keeps every item.
func FilterByTags(items []backend.ChoreItem, tagIDs []int64) []backend.ChoreItem {
	if len(tagIDs) == 0 {
		return items
	}

	result := []backend.ChoreItem{}
	for _, item := range items {
		for _, id := range tagIDs {
			if item.HasTag(id) {
				result = append(result, item)
				break
			}
		}
	}
	return result
}

// SortItems returns a sorted copy of items.
//
// Names compare as ordinal strings. For date orders, descending puts items
// with a value first (newest first) and ascending puts items without a
// value first (then oldest first); ties are broken by name ascending.
func SortItems(items []backend.ChoreItem, order SortOrder, dir SortDirection) []backend.ChoreItem {
	sorted := make([]backend.ChoreItem, len(items))
	copy(sorted, items)

	var less func(a, b *backend.ChoreItem) bool
	switch order {
	case SortByName:
		less = func(a, b *backend.ChoreItem) bool {
			if dir == Ascending {
				return a.Name < b.Name
			}
			return a.Name > b.Name
		}
	case SortByLastCompleted:
		less = dateLess(func(c *backend.ChoreItem) *time.Time { return c.LastCompleted }, dir)
	case SortByDueDate:
		less = dateLess(func(c *backend.ChoreItem) *time.Time { return c.NextDueDate }, dir)
	default:
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(&sorted[i], &sorted[j])
	})
	return sorted
}

func dateLess(field func(*backend.ChoreItem) *time.Time, dir SortDirection) func(a, b *backend.ChoreItem) bool {
	return func(a, b *backend.ChoreItem) bool {
		ta, tb := field(a), field(b)
		if (ta == nil) != (tb == nil) {
			// asc: missing first; desc: present first
			if dir == Ascending {
				return ta == nil
			}
			return ta != nil
		}
		if ta != nil && !ta.Equal(*tb) {
			if dir == Ascending {
				return ta.Before(*tb)
			}
			return ta.After(*tb)
		}
		return a.Name < b.Name
	}
}

// Toggle returns the order and direction after the user picks requested:
// picking the current order flips the direction, a new order starts descending.
func Toggle(current SortOrder, dir SortDirection, requested SortOrder) (SortOrder, SortDirection) {
	if current == requested {
		if dir == Ascending {
			return current, Descending
		}
		return current, Ascending
	}
	return requested, Descending
}
