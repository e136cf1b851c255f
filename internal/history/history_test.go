package history_test

import (
	"errors"
	"fmt"
	"testing"

	"board/internal/domain"
	"board/internal/history"
)

// memApplier applies history operations to a map and records calls.
type memApplier struct {
	els     map[string]domain.Element
	n       int
	calls   []string
	failing bool
	hist    *history.Manager
}

func newApplier() *memApplier {
	return &memApplier{els: map[string]domain.Element{}}
}

func (a *memApplier) Recreate(e domain.Element) (string, error) {
	a.calls = append(a.calls, "recreate")
	if a.failing {
		return "", errors.New("offline")
	}
	a.n++
	e.ID = fmt.Sprintf("tmp-%d", a.n)
	a.els[e.ID] = e
	// Recording during apply must be suppressed.
	if a.hist != nil {
		a.hist.RecordCreate(e)
	}
	return e.ID, nil
}

func (a *memApplier) Restore(id string, s domain.Element) error {
	a.calls = append(a.calls, "restore")
	if a.failing {
		return errors.New("offline")
	}
	s.ID = id
	a.els[id] = s
	return nil
}

func (a *memApplier) Delete(id string) error {
	a.calls = append(a.calls, "delete")
	if a.failing {
		return errors.New("offline")
	}
	delete(a.els, id)
	return nil
}

func textNote(id, content string) domain.Element {
	return domain.Element{ID: id, Type: domain.ElementNote, Width: 120, Height: 80,
		Payload: domain.Payload{Text: &domain.TextPayload{Content: content}}}
}

func TestUndoCreateThenRedo(t *testing.T) {
	a := newApplier()
	h := history.New(0, a)
	a.hist = h

	orig := textNote("e1", "hello")
	a.els["e1"] = orig
	h.RecordCreate(orig)

	if ok, err := h.Undo(); !ok || err != nil {
		t.Fatalf("undo: %v %v", ok, err)
	}
	if _, ok := a.els["e1"]; ok {
		t.Fatal("undo of create must remove the element")
	}
	if ok, err := h.Redo(); !ok || err != nil {
		t.Fatalf("redo: %v %v", ok, err)
	}
	if len(a.els) != 1 {
		t.Fatalf("expected one element after redo, got %d", len(a.els))
	}
	for id, e := range a.els {
		if id == "e1" {
			t.Error("expected a fresh id on redo")
		}
		if !e.ContentEqual(orig) {
			t.Errorf("redone element differs: %+v", e)
		}
	}
	if p, f := h.Depths(); p != 1 || f != 0 {
		t.Errorf("depths = %d/%d; recording during apply must be suppressed", p, f)
	}
}

func TestUndoRedoUpdate(t *testing.T) {
	a := newApplier()
	h := history.New(0, a)
	before := textNote("e1", "a")
	after := textNote("e1", "a")
	after.X = 40
	a.els["e1"] = after
	h.RecordUpdate(before, after)

	h.Undo()
	if a.els["e1"].X != 0 {
		t.Errorf("undo update: X = %v", a.els["e1"].X)
	}
	h.Redo()
	if a.els["e1"].X != 40 {
		t.Errorf("redo update: X = %v", a.els["e1"].X)
	}
}

func TestRecordUpdate_SkipsNoop(t *testing.T) {
	h := history.New(0, newApplier())
	e := textNote("e1", "x")
	h.RecordUpdate(e, e)
	if h.CanUndo() {
		t.Error("no-op update was recorded")
	}
}

func TestUndoDeleteRecreates(t *testing.T) {
	a := newApplier()
	h := history.New(0, a)
	e := textNote("e1", "bye")
	h.RecordDelete(e)

	h.Undo()
	if len(a.els) != 1 {
		t.Fatal("undo of delete must recreate")
	}
	h.Redo()
	if len(a.els) != 0 {
		t.Error("redo of delete must remove the recreated element")
	}
}

func TestPushClearsFutureAndBoundsDepth(t *testing.T) {
	a := newApplier()
	h := history.New(3, a)
	for i := 0; i < 5; i++ {
		e := textNote(fmt.Sprintf("e%d", i), "")
		a.els[e.ID] = e
		h.RecordCreate(e)
	}
	if p, _ := h.Depths(); p != 3 {
		t.Fatalf("past depth = %d, want 3", p)
	}
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected redo after undo")
	}
	h.RecordCreate(textNote("new", ""))
	if h.CanRedo() {
		t.Error("push must clear the future stack")
	}

	for h.CanUndo() {
		h.Undo()
	}
	// e0 and e1 fell off the stack.
	if _, ok := a.els["e0"]; !ok {
		t.Error("entry beyond depth was undone")
	}
}

func TestApplyFailureMovesPointer(t *testing.T) {
	a := newApplier()
	h := history.New(0, a)
	h.RecordCreate(textNote("e1", ""))
	a.failing = true

	ok, err := h.Undo()
	if !ok || !errors.Is(err, history.ErrApply) {
		t.Fatalf("expected ErrApply, got %v", err)
	}
	if h.CanUndo() || !h.CanRedo() {
		t.Error("stack pointer must advance even when apply fails")
	}
}

func TestRekey(t *testing.T) {
	a := newApplier()
	h := history.New(0, a)
	a.els["srv"] = textNote("srv", "")
	h.RecordCreate(textNote("tmp-1", ""))
	h.Rekey(domain.ElementRef("tmp-1"), "srv")
	h.Undo()
	if _, ok := a.els["srv"]; ok {
		t.Error("undo after rekey should delete the server id")
	}
	if a.calls[len(a.calls)-1] != "delete" {
		t.Errorf("calls = %v", a.calls)
	}
}

func TestRecreateRekeysOtherEntries(t *testing.T) {
	a := newApplier()
	h := history.New(0, a)

	orig := textNote("e1", "hello")
	orig.X = 100
	moved := orig
	moved.X = 200
	a.els["e1"] = moved
	h.RecordUpdate(orig, moved)
	h.RecordDelete(moved)
	delete(a.els, "e1")

	if _, err := h.Undo(); err != nil {
		t.Fatalf("undo delete: %v", err)
	}
	if _, err := h.Undo(); err != nil {
		t.Fatalf("undo update after recreate: %v", err)
	}
	if got := a.els["tmp-1"]; got.X != 100 {
		t.Errorf("recreated element X = %v, want 100", got.X)
	}

	// Redo walks the same entries forward against the new id.
	if _, err := h.Redo(); err != nil {
		t.Fatalf("redo update: %v", err)
	}
	if _, err := h.Redo(); err != nil {
		t.Fatalf("redo delete: %v", err)
	}
	if _, ok := a.els["tmp-1"]; ok {
		t.Error("redo of delete should remove the recreated element")
	}
}

func TestRedoCreateRekeysLaterUpdate(t *testing.T) {
	a := newApplier()
	h := history.New(0, a)

	orig := textNote("e1", "hello")
	orig.X = 300
	a.els["e1"] = orig
	h.RecordCreate(orig)
	moved := orig
	moved.X = 400
	a.els["e1"] = moved
	h.RecordUpdate(orig, moved)

	h.Undo()
	h.Undo()
	h.Redo()
	if _, err := h.Redo(); err != nil {
		t.Fatalf("redo update: %v", err)
	}
	if got := a.els["tmp-1"]; got.X != 400 {
		t.Errorf("X after redo = %v, want 400", got.X)
	}
}

func TestRecreateRekeysConnectorSnapshots(t *testing.T) {
	a := newApplier()
	h := history.New(0, a)

	conn := domain.Element{ID: "c1", Type: domain.ElementConnector, Payload: domain.DefaultPayload(domain.ElementConnector)}
	conn.Payload.Connector.From = domain.AnchorRef{Target: domain.ElementRef("e1"), Side: domain.SideRight}
	conn.Payload.Connector.To = domain.AnchorRef{Target: domain.ElementRef("e2"), Side: domain.SideLeft}
	h.RecordCreate(conn)
	h.RecordDelete(textNote("e1", "a"))

	h.Undo() // recreates e1 as tmp-1
	h.Undo() // deletes c1
	if _, err := h.Redo(); err != nil {
		t.Fatal(err)
	}
	var got domain.Element
	for id, e := range a.els {
		if e.Type == domain.ElementConnector {
			got = a.els[id]
		}
	}
	if got.Payload.Connector == nil || got.Payload.Connector.From.Target != domain.ElementRef("tmp-1") {
		t.Errorf("redone connector should point at the recreated element, got %+v", got.Payload.Connector)
	}
}

func TestGroupIsOneEntry(t *testing.T) {
	a := newApplier()
	h := history.New(2, a)

	before := []domain.Element{textNote("e1", "a"), textNote("e2", "b"), textNote("e3", "c")}
	h.Group(func() {
		for _, b := range before {
			after := b
			after.X = 50
			a.els[b.ID] = after
			h.RecordUpdate(b, after)
		}
	})
	if past, _ := h.Depths(); past != 1 {
		t.Fatalf("past depth = %d, want 1", past)
	}
	if _, err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	for _, b := range before {
		if a.els[b.ID].X != 0 {
			t.Errorf("%s not restored: X = %v", b.ID, a.els[b.ID].X)
		}
	}
	if _, err := h.Redo(); err != nil {
		t.Fatal(err)
	}
	for _, b := range before {
		if a.els[b.ID].X != 50 {
			t.Errorf("%s not redone: X = %v", b.ID, a.els[b.ID].X)
		}
	}

	// A group of one is stored as a plain entry; an empty group records nothing.
	h.Group(func() {})
	h.Group(func() { h.RecordDelete(textNote("e4", "d")) })
	if past, _ := h.Depths(); past != 2 {
		t.Errorf("past depth = %d, want 2", past)
	}
}
