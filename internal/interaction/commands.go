package interaction

import (
	"fmt"

	"board/internal/domain"
)

// ──── Deletion ────

// DeleteSelection deletes the selected elements or block. It does nothing
// while an element is being edited.
func (e *Engine) DeleteSelection() {
	if _, editing := e.store.Editing(); editing {
		return
	}
	e.cancelGesture()
	if id, ok := e.sel.Block(); ok {
		if e.store.RemoveBlock(id) {
			e.persist.DeleteBlock(id)
		}
		e.sel.Clear()
		return
	}
	e.hist.Group(func() {
		for _, id := range e.sel.Elements() {
			e.deleteElement(id)
		}
	})
	e.sel.Clear()
}

// deleteElement removes id locally, persists the delete and records it.
// Connectors attached to it stay in the store and stop rendering.
func (e *Engine) deleteElement(id string) {
	before, ok := e.store.Get(id)
	if !ok {
		return
	}
	e.store.Remove(id)
	e.sel.RemoveElement(id)
	e.persist.DeleteElement(id)
	e.hist.RecordDelete(before)
}

// ──── Editing ────

// BeginEdit puts one element in edit mode and clears the selection.
func (e *Engine) BeginEdit(id string) {
	el, ok := e.store.Get(id)
	if !ok || el.Payload.Text == nil && el.Payload.Frame == nil {
		return
	}
	e.cancelGesture()
	e.sel.Clear()
	e.store.SetEditing(el.ID)
}

// EndEdit leaves edit mode and reselects the element that was edited.
func (e *Engine) EndEdit() {
	id, ok := e.store.Editing()
	if !ok {
		return
	}
	e.store.ClearEditing()
	if e.store.Has(id) {
		e.sel.SetElements(id)
	}
}

// DoubleClick enters edit mode on a text-bearing element under the pointer.
func (e *Engine) DoubleClick(ev PointerEvent) {
	if e.current != nil || e.tool != ToolSelect {
		return
	}
	if id, ok := e.elementAt(e.view.ToDesk(ev.Point())); ok {
		e.BeginEdit(id)
	}
}

// UpdatePayload applies a content edit, persists it and records history.
func (e *Engine) UpdatePayload(id string, p domain.Payload) error {
	before, ok := e.store.Get(id)
	if !ok {
		return fmt.Errorf("update payload %s: %w", id, domain.ErrNotFound)
	}
	patch := domain.ElementPatch{Payload: &p}
	next := before.Clone()
	patch.Apply(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	if next.ContentEqual(before) {
		return nil
	}
	after, _ := e.store.Update(id, patch)
	e.persist.UpdateElement(id, patch)
	e.hist.RecordUpdate(before, after)
	e.router.Refit()
	return nil
}

// RenameBlock changes a material block's title.
func (e *Engine) RenameBlock(id, title string) error {
	patch := domain.BlockPatch{Title: &title}
	if _, ok := e.store.UpdateBlock(id, patch); !ok {
		return fmt.Errorf("rename block %s: %w", id, domain.ErrNotFound)
	}
	e.persist.UpdateBlock(id, patch)
	return nil
}

// ──── Undo / redo ────

// Undo reverts the last edit. Failures are surfaced as notices only.
func (e *Engine) Undo() {
	e.cancelGesture()
	if _, err := e.hist.Undo(); err != nil && e.notify != nil {
		e.notify.Notify(err)
	}
	e.router.Refit()
}

// Redo re-applies the last undone edit.
func (e *Engine) Redo() {
	e.cancelGesture()
	if _, err := e.hist.Redo(); err != nil && e.notify != nil {
		e.notify.Notify(err)
	}
	e.router.Refit()
}

// historyApplier performs undo/redo through the same optimistic store and
// persistence path as interactive edits.
type historyApplier struct{ e *Engine }

func (a historyApplier) Recreate(el domain.Element) (string, error) {
	e := a.e
	oldID := el.ID
	el = el.Clone()
	el.ID = domain.NewTempID()
	el.BoardID = e.boardID
	if err := el.Validate(); err != nil {
		return "", err
	}
	e.store.Upsert(el)
	e.persist.CreateElement(el)
	if oldID != "" {
		e.reattach(domain.ElementRef(oldID), domain.ElementRef(el.ID))
	}
	return el.ID, nil
}

func (a historyApplier) Restore(id string, snapshot domain.Element) error {
	e := a.e
	if !e.store.Has(id) {
		return fmt.Errorf("restore %s: %w", id, domain.ErrNotFound)
	}
	patch := domain.PatchFrom(snapshot)
	e.store.Update(id, patch)
	e.persist.UpdateElement(id, patch)
	return nil
}

func (a historyApplier) Delete(id string) error {
	e := a.e
	if !e.store.Remove(id) {
		return fmt.Errorf("delete %s: %w", id, domain.ErrNotFound)
	}
	e.sel.RemoveElement(id)
	e.persist.DeleteElement(id)
	return nil
}

// reattach points connectors still naming from at to and persists them.
// Connectors left dangling by a delete render again once their target is
// recreated.
func (e *Engine) reattach(from, to domain.Ref) {
	for _, id := range e.store.ConnectorsOf(from) {
		c, ok := e.store.Get(id)
		if !ok {
			continue
		}
		p := c.Payload.Clone()
		if p.Connector.From.Target == from {
			p.Connector.From.Target = to
		}
		if p.Connector.To.Target == from {
			p.Connector.To.Target = to
		}
		patch := domain.ElementPatch{Payload: &p}
		e.store.Update(id, patch)
		e.persist.UpdateElement(id, patch)
	}
}

// ──── Server reconciliation ────

// MergeElement folds an authoritative server record into the store. Records
// deleted locally in the meantime are not resurrected.
func (e *Engine) MergeElement(el domain.Element) {
	if !e.store.Has(el.ID) {
		return
	}
	e.store.Upsert(el)
	e.router.Refit()
}

// MergeBlock folds a server block record into the store.
func (e *Engine) MergeBlock(b domain.MaterialBlock) {
	if _, ok := e.store.Block(b.ID); !ok {
		return
	}
	e.store.UpsertBlock(b)
}

// Rekey replaces an optimistic temp id with the server-assigned id
// everywhere the engine remembers it.
// History is re-keyed even when the record was already removed locally, so
// an undo can still address it.
func (e *Engine) Rekey(ref domain.Ref, newID string) {
	e.store.Rekey(ref, newID)
	e.hist.Rekey(ref, newID)
	e.sel.Rekey(ref, newID)
	e.rekeyGesture(ref, newID)
}

func (e *Engine) rekeyGesture(ref domain.Ref, newID string) {
	to := domain.Ref{Kind: ref.Kind, ID: newID}
	switch g := e.current.(type) {
	case *dragging:
		if ref.Kind != domain.RefElement {
			return
		}
		for i, id := range g.ids {
			if id == ref.ID {
				g.ids[i] = newID
				g.starts[newID] = g.starts[id]
				delete(g.starts, id)
			}
		}
		if g.clicked == ref.ID {
			g.clicked = newID
		}
	case *resizing:
		if ref.Kind == domain.RefElement && g.id == ref.ID {
			g.id = newID
		}
	case *bending:
		if ref.Kind == domain.RefElement && g.id == ref.ID {
			g.id = newID
		}
	case *blockDragging:
		if ref.Kind == domain.RefBlock && g.id == ref.ID {
			g.id = newID
		}
	case *blockResizing:
		if ref.Kind == domain.RefBlock && g.id == ref.ID {
			g.id = newID
		}
	case *connecting:
		if g.from.Target == ref {
			g.from.Target = to
		}
		if g.hasHov && g.hover.Target.Ref == ref {
			g.hover.Target.Ref = to
		}
	}
}
