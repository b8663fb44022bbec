// Package editor models the admin forms: an in-memory array that is
// selected, added to, removed from and saved back as a whole. The place
// endpoints drive it one operation per request (PUT and DELETE
// /api/places/:key) or with a whole-array Replace (POST /api/places).
package editor

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var ErrOutOfRange = errors.New("index out of range")

// Editor holds the working copy of a document array and a serialized
// snapshot of the last loaded or saved state.
type Editor[T any] struct {
	items    []T
	selected int
	snapshot []byte
}

// New starts editing items. The snapshot is taken immediately, so a new
// Editor is not dirty.
func New[T any](items []T) (*Editor[T], error) {
	e := &Editor[T]{items: append([]T(nil), items...), selected: -1}
	if err := e.MarkSaved(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Editor[T]) Items() []T {
	return append([]T(nil), e.items...)
}

func (e *Editor[T]) Len() int { return len(e.items) }

// Selected returns the selected index, or -1.
func (e *Editor[T]) Selected() int { return e.selected }

func (e *Editor[T]) Select(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(e.items) {
		return zero, fmt.Errorf("select %d: %w", i, ErrOutOfRange)
	}
	e.selected = i
	return e.items[i], nil
}

// Add appends item, selects it and returns its index.
func (e *Editor[T]) Add(item T) int {
	e.items = append(e.items, item)
	e.selected = len(e.items) - 1
	return e.selected
}

func (e *Editor[T]) Update(i int, item T) error {
	if i < 0 || i >= len(e.items) {
		return fmt.Errorf("update %d: %w", i, ErrOutOfRange)
	}
	e.items[i] = item
	return nil
}

// Remove deletes the item at i. The selection moves to the previous
// item, or is cleared when the list becomes empty.
func (e *Editor[T]) Remove(i int) error {
	if i < 0 || i >= len(e.items) {
		return fmt.Errorf("remove %d: %w", i, ErrOutOfRange)
	}
	e.items = append(e.items[:i], e.items[i+1:]...)
	switch {
	case len(e.items) == 0:
		e.selected = -1
	case e.selected >= i:
		e.selected = max(e.selected-1, 0)
	}
	return nil
}

// Replace swaps the whole working copy, as a form submit does.
func (e *Editor[T]) Replace(items []T) {
	e.items = append([]T(nil), items...)
	if e.selected >= len(e.items) {
		e.selected = len(e.items) - 1
	}
}

// Dirty reports whether the working copy serializes differently from
// the snapshot.
func (e *Editor[T]) Dirty() bool {
	cur, err := e.encode()
	if err != nil {
		return true
	}
	return !bytes.Equal(cur, e.snapshot)
}

// MarkSaved takes a new snapshot of the working copy.
func (e *Editor[T]) MarkSaved() error {
	snap, err := e.encode()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	e.snapshot = snap
	return nil
}

func (e *Editor[T]) encode() ([]byte, error) {
	items := e.items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
