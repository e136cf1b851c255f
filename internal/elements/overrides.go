package elements

import (
	"board/internal/domain"
	"board/internal/geom"
)

// Override is the transient visual state of one element or block during a
// gesture. Unset fields fall back to the store.
type Override struct {
	Rect *geom.Rect
	Bend *geom.Point
}

// Overrides is a small arena of per-target overrides, written every frame by
// the active gesture and cleared once the store is updated at gesture end.
type Overrides struct {
	slots []Override
	refs  []domain.Ref
	index map[domain.Ref]int
}

func NewOverrides() *Overrides {
	return &Overrides{index: make(map[domain.Ref]int)}
}

func (o *Overrides) slot(ref domain.Ref) *Override {
	if i, ok := o.index[ref]; ok {
		return &o.slots[i]
	}
	o.index[ref] = len(o.slots)
	o.slots = append(o.slots, Override{})
	o.refs = append(o.refs, ref)
	return &o.slots[len(o.slots)-1]
}

func (o *Overrides) SetRect(ref domain.Ref, r geom.Rect) {
	o.slot(ref).Rect = &r
}

func (o *Overrides) SetBend(ref domain.Ref, b geom.Point) {
	o.slot(ref).Bend = &b
}

// Get returns the override for ref, if any.
func (o *Overrides) Get(ref domain.Ref) (Override, bool) {
	i, ok := o.index[ref]
	if !ok {
		return Override{}, false
	}
	return o.slots[i], true
}

func (o *Overrides) Rect(ref domain.Ref) (geom.Rect, bool) {
	if ov, ok := o.Get(ref); ok && ov.Rect != nil {
		return *ov.Rect, true
	}
	return geom.Rect{}, false
}

func (o *Overrides) Bend(ref domain.Ref) (geom.Point, bool) {
	if ov, ok := o.Get(ref); ok && ov.Bend != nil {
		return *ov.Bend, true
	}
	return geom.Point{}, false
}

// Refs lists every target that currently has an override.
func (o *Overrides) Refs() []domain.Ref {
	return append([]domain.Ref(nil), o.refs...)
}

// Len returns the number of active overrides.
func (o *Overrides) Len() int { return len(o.slots) }

// Delete removes a single override.
func (o *Overrides) Delete(ref domain.Ref) {
	i, ok := o.index[ref]
	if !ok {
		return
	}
	last := len(o.slots) - 1
	if i != last {
		o.slots[i] = o.slots[last]
		o.refs[i] = o.refs[last]
		o.index[o.refs[i]] = i
	}
	o.slots = o.slots[:last]
	o.refs = o.refs[:last]
	delete(o.index, ref)
}

// Rekey moves an override to a new target id.
func (o *Overrides) Rekey(from, to domain.Ref) {
	i, ok := o.index[from]
	if !ok {
		return
	}
	delete(o.index, from)
	o.refs[i] = to
	o.index[to] = i
}

// Clear drops every override, keeping the arena's capacity.
func (o *Overrides) Clear() {
	o.slots = o.slots[:0]
	o.refs = o.refs[:0]
	clear(o.index)
}
