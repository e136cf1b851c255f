// Package selection holds the canvas selection and the pure geometry behind
// marquee selection and handle resizing.
package selection

import (
	"sort"

	"board/internal/domain"
)

// State is either empty, a set of elements, or exactly one material block.
type State struct {
	elements map[string]struct{}
	block    string
}

func New() *State {
	return &State{elements: make(map[string]struct{})}
}

// Clear drops any selection.
func (s *State) Clear() {
	clear(s.elements)
	s.block = ""
}

// SetElements replaces the selection with ids.
func (s *State) SetElements(ids ...string) {
	s.Clear()
	for _, id := range ids {
		if id = domain.NormalizeID(id); id != "" {
			s.elements[id] = struct{}{}
		}
	}
}

// AddElement extends the element selection. A selected block is dropped.
func (s *State) AddElement(id string) {
	s.block = ""
	if id = domain.NormalizeID(id); id != "" {
		s.elements[id] = struct{}{}
	}
}

// Toggle flips membership of id in the element selection.
func (s *State) Toggle(id string) {
	s.block = ""
	id = domain.NormalizeID(id)
	if _, ok := s.elements[id]; ok {
		delete(s.elements, id)
		return
	}
	if id != "" {
		s.elements[id] = struct{}{}
	}
}

// RemoveElement drops id from the selection.
func (s *State) RemoveElement(id string) {
	delete(s.elements, domain.NormalizeID(id))
}

// SelectBlock makes block id the only selection.
func (s *State) SelectBlock(id string) {
	clear(s.elements)
	s.block = domain.NormalizeID(id)
}

func (s *State) HasElement(id string) bool {
	_, ok := s.elements[domain.NormalizeID(id)]
	return ok
}

// Elements returns the selected element ids in a stable order.
func (s *State) Elements() []string {
	out := make([]string, 0, len(s.elements))
	for id := range s.elements {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Block returns the selected block, if any.
func (s *State) Block() (string, bool) { return s.block, s.block != "" }

func (s *State) Len() int { return len(s.elements) }

func (s *State) IsEmpty() bool { return len(s.elements) == 0 && s.block == "" }

// Rekey follows a temp id to its server id.
func (s *State) Rekey(ref domain.Ref, newID string) {
	switch ref.Kind {
	case domain.RefElement:
		if _, ok := s.elements[ref.ID]; ok {
			delete(s.elements, ref.ID)
			s.elements[newID] = struct{}{}
		}
	case domain.RefBlock:
		if s.block == ref.ID {
			s.block = newID
		}
	}
}
