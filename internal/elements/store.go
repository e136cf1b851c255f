package elements

import (
	"sort"

	"board/internal/domain"
	"board/internal/geom"
)

// ─────────────────────────────────────────────────────────────
// Store: normalized, id-keyed element collection
// ─────────────────────────────────────────────────────────────

// Store holds the elements and material blocks of the loaded board, keyed by
// normalized id, plus the single editing focus. It is not safe for concurrent
// use; the engine owns it.
type Store struct {
	elements map[string]*domain.Element
	blocks   map[string]*domain.MaterialBlock
	editing  string

	// Overrides is consulted at render time for in-progress gestures.
	Overrides *Overrides

	version   uint64
	listeners map[int]func(uint64)
	nextSub   int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		elements:  make(map[string]*domain.Element),
		blocks:    make(map[string]*domain.MaterialBlock),
		Overrides: NewOverrides(),
		listeners: make(map[int]func(uint64)),
	}
}

// Subscribe registers fn to be called with the new version after every
// mutation. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(version uint64)) func() {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

// Version increases on every mutation.
func (s *Store) Version() uint64 { return s.version }

func (s *Store) changed() {
	s.version++
	for _, fn := range s.listeners {
		fn(s.version)
	}
}

// ──── Elements ────

// Load replaces the whole collection. Records sharing a normalized id are
// merged: later values win, earlier fields not overwritten are kept.
func (s *Store) Load(list []domain.Element) {
	s.elements = make(map[string]*domain.Element, len(list))
	for _, e := range list {
		e = e.Clone()
		e.ID = domain.NormalizeID(e.ID)
		if e.ID == "" {
			continue
		}
		if prev, ok := s.elements[e.ID]; ok {
			e = domain.MergeElements(*prev, e)
		}
		s.elements[e.ID] = &e
	}
	if _, ok := s.elements[s.editing]; !ok {
		s.editing = ""
	}
	s.Overrides.Clear()
	s.changed()
}

// Upsert inserts e, or replaces the stored record's fields with e's when the
// id already exists. Payload arms and timestamps that e leaves unset are kept.
func (s *Store) Upsert(e domain.Element) {
	e = e.Clone()
	e.ID = domain.NormalizeID(e.ID)
	if e.ID == "" {
		return
	}
	if prev, ok := s.elements[e.ID]; ok {
		e.Payload = prev.Payload.Merge(e.Payload)
		if e.CreatedAt.IsZero() {
			e.CreatedAt = prev.CreatedAt
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = prev.UpdatedAt
		}
		if e.BoardID == "" {
			e.BoardID = prev.BoardID
		}
	}
	s.elements[e.ID] = &e
	s.changed()
}

// Update merges patch into the element. It reports false when id is unknown.
func (s *Store) Update(id string, patch domain.ElementPatch) (domain.Element, bool) {
	e, ok := s.elements[domain.NormalizeID(id)]
	if !ok {
		return domain.Element{}, false
	}
	patch.Apply(e)
	s.changed()
	return e.Clone(), true
}

// Remove deletes the element. It reports false when id is unknown.
func (s *Store) Remove(id string) bool {
	id = domain.NormalizeID(id)
	if _, ok := s.elements[id]; !ok {
		return false
	}
	delete(s.elements, id)
	if s.editing == id {
		s.editing = ""
	}
	s.Overrides.Delete(domain.ElementRef(id))
	s.changed()
	return true
}

// BulkUpdate hands every element to fn and replaces the collection with the
// result. fn may drop or add entries; nil entries are filtered out.
func (s *Store) BulkUpdate(fn func([]*domain.Element) []*domain.Element) {
	in := make([]*domain.Element, 0, len(s.elements))
	for _, e := range s.sorted() {
		c := e.Clone()
		in = append(in, &c)
	}
	out := fn(in)
	next := make(map[string]*domain.Element, len(out))
	for _, e := range out {
		if e == nil {
			continue
		}
		e.ID = domain.NormalizeID(e.ID)
		if e.ID == "" {
			continue
		}
		next[e.ID] = e
	}
	s.elements = next
	if _, ok := s.elements[s.editing]; !ok {
		s.editing = ""
	}
	s.changed()
}

// Get returns a copy of the element.
func (s *Store) Get(id string) (domain.Element, bool) {
	e, ok := s.elements[domain.NormalizeID(id)]
	if !ok {
		return domain.Element{}, false
	}
	return e.Clone(), true
}

// Has reports whether id is present.
func (s *Store) Has(id string) bool {
	_, ok := s.elements[domain.NormalizeID(id)]
	return ok
}

// Len returns the number of elements.
func (s *Store) Len() int { return len(s.elements) }

// All returns copies of every element, bottom-most first.
func (s *Store) All() []domain.Element {
	sorted := s.sorted()
	out := make([]domain.Element, len(sorted))
	for i, e := range sorted {
		out[i] = e.Clone()
	}
	return out
}

// MaxZ returns the highest zIndex in use, or 0 when empty.
func (s *Store) MaxZ() int {
	z := 0
	for _, e := range s.elements {
		if e.ZIndex > z {
			z = e.ZIndex
		}
	}
	return z
}

func (s *Store) sorted() []*domain.Element {
	out := make([]*domain.Element, 0, len(s.elements))
	for _, e := range s.elements {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ZIndex != b.ZIndex {
			return a.ZIndex < b.ZIndex
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// ──── Editing focus ────

// SetEditing makes id the single element in edit mode. An unknown id clears
// the focus.
func (s *Store) SetEditing(id string) {
	id = domain.NormalizeID(id)
	if _, ok := s.elements[id]; !ok {
		id = ""
	}
	if s.editing == id {
		return
	}
	s.editing = id
	s.changed()
}

// ClearEditing leaves edit mode.
func (s *Store) ClearEditing() { s.SetEditing("") }

// Editing returns the element in edit mode, if any.
func (s *Store) Editing() (string, bool) {
	return s.editing, s.editing != ""
}

// ──── Material blocks ────

// LoadBlocks replaces every material block.
func (s *Store) LoadBlocks(list []domain.MaterialBlock) {
	s.blocks = make(map[string]*domain.MaterialBlock, len(list))
	for _, b := range list {
		b.ID = domain.NormalizeID(b.ID)
		if b.ID == "" {
			continue
		}
		s.blocks[b.ID] = &b
	}
	s.changed()
}

// UpsertBlock inserts or replaces a block.
func (s *Store) UpsertBlock(b domain.MaterialBlock) {
	b.ID = domain.NormalizeID(b.ID)
	if b.ID == "" {
		return
	}
	if prev, ok := s.blocks[b.ID]; ok && b.CreatedAt.IsZero() {
		b.CreatedAt = prev.CreatedAt
	}
	s.blocks[b.ID] = &b
	s.changed()
}

// UpdateBlock merges patch into the block.
func (s *Store) UpdateBlock(id string, patch domain.BlockPatch) (domain.MaterialBlock, bool) {
	b, ok := s.blocks[domain.NormalizeID(id)]
	if !ok {
		return domain.MaterialBlock{}, false
	}
	patch.Apply(b)
	s.changed()
	return *b, true
}

// RemoveBlock deletes the block.
func (s *Store) RemoveBlock(id string) bool {
	id = domain.NormalizeID(id)
	if _, ok := s.blocks[id]; !ok {
		return false
	}
	delete(s.blocks, id)
	s.Overrides.Delete(domain.BlockRef(id))
	s.changed()
	return true
}

// Block returns a copy of the block.
func (s *Store) Block(id string) (domain.MaterialBlock, bool) {
	b, ok := s.blocks[domain.NormalizeID(id)]
	if !ok {
		return domain.MaterialBlock{}, false
	}
	return *b, true
}

// Blocks returns every block, oldest first.
func (s *Store) Blocks() []domain.MaterialBlock {
	out := make([]domain.MaterialBlock, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ──── Anchor targets ────

// Bounds returns the stored rectangle of an element or block.
func (s *Store) Bounds(ref domain.Ref) (geom.Rect, bool) {
	switch ref.Kind {
	case domain.RefElement:
		if e, ok := s.elements[domain.NormalizeID(ref.ID)]; ok {
			return e.Rect(), true
		}
	case domain.RefBlock:
		if b, ok := s.blocks[domain.NormalizeID(ref.ID)]; ok {
			return b.Rect(), true
		}
	}
	return geom.Rect{}, false
}

// VisualBounds is Bounds with any active rect override applied.
func (s *Store) VisualBounds(ref domain.Ref) (geom.Rect, bool) {
	if r, ok := s.Overrides.Rect(ref); ok {
		return r, true
	}
	return s.Bounds(ref)
}

// ConnectorsOf returns the ids of connectors attached to ref.
func (s *Store) ConnectorsOf(ref domain.Ref) []string {
	var ids []string
	for id, e := range s.elements {
		c := e.Payload.Connector
		if e.Type != domain.ElementConnector || c == nil {
			continue
		}
		if c.From.Target == ref || c.To.Target == ref {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ──── Re-keying ────

// Rekey moves an optimistically inserted record to its server-assigned id and
// rewrites every connector end that pointed at the old id.
func (s *Store) Rekey(ref domain.Ref, newID string) bool {
	oldID := domain.NormalizeID(ref.ID)
	newID = domain.NormalizeID(newID)
	if oldID == newID || newID == "" {
		return false
	}
	switch ref.Kind {
	case domain.RefElement:
		e, ok := s.elements[oldID]
		if !ok {
			return false
		}
		delete(s.elements, oldID)
		e.ID = newID
		if prev, ok := s.elements[newID]; ok {
			merged := domain.MergeElements(*e, *prev)
			e = &merged
		}
		s.elements[newID] = e
		if s.editing == oldID {
			s.editing = newID
		}
	case domain.RefBlock:
		b, ok := s.blocks[oldID]
		if !ok {
			return false
		}
		delete(s.blocks, oldID)
		b.ID = newID
		s.blocks[newID] = b
	default:
		return false
	}

	oldRef := domain.Ref{Kind: ref.Kind, ID: oldID}
	newRef := domain.Ref{Kind: ref.Kind, ID: newID}
	for _, e := range s.elements {
		c := e.Payload.Connector
		if c == nil {
			continue
		}
		if c.From.Target == oldRef {
			c.From.Target = newRef
		}
		if c.To.Target == oldRef {
			c.To.Target = newRef
		}
	}
	s.Overrides.Rekey(oldRef, newRef)
	s.changed()
	return true
}
