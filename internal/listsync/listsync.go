// Package listsync reconciles a displayed list with a freshly queried one
// using index-based edits, so renderers can animate changes instead of
// redrawing the whole list.
package listsync

import "fmt"

// OpKind identifies a single list edit
type OpKind int

const (
	OpRemove OpKind = iota
	OpInsert
	OpMove
	OpReplace
)

func (k OpKind) String() string {
	switch k {
	case OpRemove:
		return "remove"
	case OpInsert:
		return "insert"
	case OpMove:
		return "move"
	case OpReplace:
		return "replace"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Op is one edit. Index is the target position; From is the source
// position of a move. Item carries the new value for inserts and replaces.
type Op[T any] struct {
	Kind  OpKind
	Index int
	From  int
	Item  T
}

// Reconcile edits a copy of current until it matches next and returns it
// together with the edits applied, in order:
//  1. elements whose key is absent from next are removed, back to front;
//  2. for each position i of next, the element is inserted when missing or
//     moved from its current position, then replaced when not equal.
//
// Keys must be unique within each slice.
func Reconcile[T any, K comparable](current, next []T, key func(T) K, equal func(a, b T) bool) ([]T, []Op[T]) {
	list := make([]T, len(current))
	copy(list, current)
	var ops []Op[T]

	wanted := make(map[K]struct{}, len(next))
	for _, item := range next {
		wanted[key(item)] = struct{}{}
	}

	for i := len(list) - 1; i >= 0; i-- {
		if _, ok := wanted[key(list[i])]; !ok {
			list = removeAt(list, i)
			ops = append(ops, Op[T]{Kind: OpRemove, Index: i})
		}
	}

	for i, item := range next {
		k := key(item)
		j := indexOf(list, k, key)

		switch {
		case j == -1:
			list = insertAt(list, i, item)
			ops = append(ops, Op[T]{Kind: OpInsert, Index: i, Item: item})
			continue
		case j != i:
			list = move(list, j, i)
			ops = append(ops, Op[T]{Kind: OpMove, Index: i, From: j})
		}

		if !equal(list[i], item) {
			list[i] = item
			ops = append(ops, Op[T]{Kind: OpReplace, Index: i, Item: item})
		}
	}

	return list, ops
}

// Apply replays ops onto a copy of list.
func Apply[T any](list []T, ops []Op[T]) ([]T, error) {
	out := make([]T, len(list))
	copy(out, list)

	for n, op := range ops {
		switch op.Kind {
		case OpRemove:
			if op.Index < 0 || op.Index >= len(out) {
				return nil, fmt.Errorf("op %d: remove index %d out of range [0,%d)", n, op.Index, len(out))
			}
			out = removeAt(out, op.Index)
		case OpInsert:
			if op.Index < 0 || op.Index > len(out) {
				return nil, fmt.Errorf("op %d: insert index %d out of range [0,%d]", n, op.Index, len(out))
			}
			out = insertAt(out, op.Index, op.Item)
		case OpMove:
			if op.From < 0 || op.From >= len(out) || op.Index < 0 || op.Index >= len(out) {
				return nil, fmt.Errorf("op %d: move %d->%d out of range [0,%d)", n, op.From, op.Index, len(out))
			}
			out = move(out, op.From, op.Index)
		case OpReplace:
			if op.Index < 0 || op.Index >= len(out) {
				return nil, fmt.Errorf("op %d: replace index %d out of range [0,%d)", n, op.Index, len(out))
			}
			out[op.Index] = op.Item
		default:
			return nil, fmt.Errorf("op %d: unknown kind %v", n, op.Kind)
		}
	}
	return out, nil
}

func indexOf[T any, K comparable](list []T, k K, key func(T) K) int {
	for j, item := range list {
		if key(item) == k {
			return j
		}
	}
	return -1
}

func removeAt[T any](list []T, i int) []T {
	return append(list[:i], list[i+1:]...)
}

func insertAt[T any](list []T, i int, item T) []T {
	var zero T
	list = append(list, zero)
	copy(list[i+1:], list[i:])
	list[i] = item
	return list
}

// move takes the element at from out and reinserts it at to
func move[T any](list []T, from, to int) []T {
	item := list[from]
	list = removeAt(list, from)
	return insertAt(list, to, item)
}
