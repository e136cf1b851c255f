// Package history keeps bounded undo/redo stacks of element edits.
package history

import (
	"errors"
	"fmt"

	"board/internal/domain"
)

// DefaultDepth is the number of entries kept on each stack.
const DefaultDepth = 10

// ErrApply is returned when an undo or redo could not be applied. The stack
// pointer has already moved when it is returned.
var ErrApply = errors.New("history apply failed")

type Kind int

const (
	CreateElement Kind = iota
	UpdateElement
	DeleteElement
	// Batch groups entries that are undone and redone together.
	Batch
)

func (k Kind) String() string {
	switch k {
	case CreateElement:
		return "create"
	case UpdateElement:
		return "update"
	case DeleteElement:
		return "delete"
	case Batch:
		return "batch"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Entry is one undoable edit with the snapshots needed to invert it.
// Create entries carry After, delete entries Before, updates both. Batch
// entries carry Items in the order they were recorded.
type Entry struct {
	Kind   Kind
	ID     string
	Before domain.Element
	After  domain.Element
	Items  []Entry
}

// Applier performs the store and persistence side of an undo or redo.
type Applier interface {
	// Recreate inserts a copy of e under a fresh optimistic id and returns it.
	Recreate(e domain.Element) (string, error)
	// Restore overwrites the element's geometry and payload with snapshot.
	Restore(id string, snapshot domain.Element) error
	Delete(id string) error
}

// Manager owns the past and future stacks.
type Manager struct {
	past     []Entry
	future   []Entry
	depth    int
	applying bool
	apply    Applier

	grouping bool
	group    []Entry
}

// New creates a Manager. depth <= 0 uses DefaultDepth.
func New(depth int, apply Applier) *Manager {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Manager{depth: depth, apply: apply}
}

// Push records an entry and clears the redo stack. Pushes made while an
// undo or redo is being applied are ignored.
func (m *Manager) Push(e Entry) {
	if m.applying {
		return
	}
	e.Before = e.Before.Clone()
	e.After = e.After.Clone()
	if m.grouping {
		m.group = append(m.group, e)
		return
	}
	m.push(e)
}

func (m *Manager) push(e Entry) {
	m.past = append(m.past, e)
	if len(m.past) > m.depth {
		m.past = append(m.past[:0], m.past[len(m.past)-m.depth:]...)
	}
	m.future = m.future[:0]
}

// Group records every push made by fn as a single entry, so one undo reverts
// a multi-element drag or delete. Nested calls join the outer group.
func (m *Manager) Group(fn func()) {
	if m.grouping || m.applying {
		fn()
		return
	}
	m.grouping = true
	fn()
	items := m.group
	m.grouping, m.group = false, nil
	switch len(items) {
	case 0:
	case 1:
		m.push(items[0])
	default:
		m.push(Entry{Kind: Batch, Items: items})
	}
}

func (m *Manager) RecordCreate(e domain.Element) {
	m.Push(Entry{Kind: CreateElement, ID: e.ID, After: e})
}

// RecordUpdate skips edits that changed nothing.
func (m *Manager) RecordUpdate(before, after domain.Element) {
	if before.ContentEqual(after) {
		return
	}
	m.Push(Entry{Kind: UpdateElement, ID: after.ID, Before: before, After: after})
}

func (m *Manager) RecordDelete(e domain.Element) {
	m.Push(Entry{Kind: DeleteElement, ID: e.ID, Before: e})
}

func (m *Manager) CanUndo() bool  { return len(m.past) > 0 }
func (m *Manager) CanRedo() bool  { return len(m.future) > 0 }
func (m *Manager) Applying() bool { return m.applying }

// Depths returns the sizes of the past and future stacks.
func (m *Manager) Depths() (past, future int) { return len(m.past), len(m.future) }

// Undo reverts the most recent entry. It reports false when there is nothing
// to undo.
func (m *Manager) Undo() (bool, error) {
	if len(m.past) == 0 || m.applying {
		return false, nil
	}
	e := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]

	var moved []rekey
	err := m.run(func() error { return m.undo(&e, &moved) })
	m.future = append(m.future, e)
	m.follow(moved)
	if err != nil {
		return true, fmt.Errorf("%w: undo %s %s: %w", ErrApply, e.Kind, e.ID, err)
	}
	return true, nil
}

// Redo re-applies the most recently undone entry. A redone create gets a
// fresh id; its content equals the original.
func (m *Manager) Redo() (bool, error) {
	if len(m.future) == 0 || m.applying {
		return false, nil
	}
	e := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]

	var moved []rekey
	err := m.run(func() error { return m.redo(&e, &moved) })
	m.past = append(m.past, e)
	if len(m.past) > m.depth {
		m.past = m.past[1:]
	}
	m.follow(moved)
	if err != nil {
		return true, fmt.Errorf("%w: redo %s %s: %w", ErrApply, e.Kind, e.ID, err)
	}
	return true, nil
}

// rekey records an element that came back under a new id.
type rekey struct{ from, to string }

func (m *Manager) undo(e *Entry, moved *[]rekey) error {
	switch e.Kind {
	case CreateElement:
		return m.apply.Delete(e.ID)
	case UpdateElement:
		return m.apply.Restore(e.ID, e.Before)
	case DeleteElement:
		return m.recreate(e, e.Before, moved)
	case Batch:
		var errs []error
		for i := len(e.Items) - 1; i >= 0; i-- {
			if err := m.undo(&e.Items[i], moved); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

func (m *Manager) redo(e *Entry, moved *[]rekey) error {
	switch e.Kind {
	case CreateElement:
		return m.recreate(e, e.After, moved)
	case UpdateElement:
		return m.apply.Restore(e.ID, e.After)
	case DeleteElement:
		return m.apply.Delete(e.ID)
	case Batch:
		var errs []error
		for i := range e.Items {
			if err := m.redo(&e.Items[i], moved); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

func (m *Manager) recreate(e *Entry, snapshot domain.Element, moved *[]rekey) error {
	id, err := m.apply.Recreate(snapshot)
	if err != nil {
		return err
	}
	*moved = append(*moved, rekey{from: e.ID, to: id})
	e.ID = id
	return nil
}

// follow points the remaining entries at the ids of recreated elements.
func (m *Manager) follow(moved []rekey) {
	for _, r := range moved {
		m.Rekey(domain.ElementRef(r.from), r.to)
	}
}

func (m *Manager) run(fn func() error) error {
	m.applying = true
	defer func() { m.applying = false }()
	return fn()
}

// Rekey points every entry at the server-assigned id of an optimistically
// created element or block.
func (m *Manager) Rekey(ref domain.Ref, newID string) {
	to := domain.Ref{Kind: ref.Kind, ID: newID}
	rekeyEntries(m.past, ref, to)
	rekeyEntries(m.future, ref, to)
}

func rekeyEntries(entries []Entry, from, to domain.Ref) {
	for i := range entries {
		e := &entries[i]
		if from.Kind == domain.RefElement && e.ID == from.ID {
			e.ID = to.ID
		}
		rekeyConnector(&e.Before, from, to)
		rekeyConnector(&e.After, from, to)
		rekeyEntries(e.Items, from, to)
	}
}

func rekeyConnector(e *domain.Element, from, to domain.Ref) {
	c := e.Payload.Connector
	if c == nil {
		return
	}
	if c.From.Target == from {
		c.From.Target = to
	}
	if c.To.Target == from {
		c.To.Target = to
	}
}

// Clear empties both stacks, e.g. when another board is loaded.
func (m *Manager) Clear() {
	m.past = nil
	m.future = nil
}
