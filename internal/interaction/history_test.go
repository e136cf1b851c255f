package interaction_test

import (
	"testing"

	"board/internal/domain"
	"board/internal/interaction"
)

func only(t *testing.T, h *harness) domain.Element {
	t.Helper()
	all := h.e.Store().All()
	if len(all) != 1 {
		t.Fatalf("expected one element, got %d", len(all))
	}
	return all[0]
}

func TestUndoDeleteThenUndoMove(t *testing.T) {
	h := newHarness(t, el("A", domain.ElementNote, 100, 100, 120, 80, 1))
	h.down(150, 150)
	h.move(250, 150)
	h.up(250, 150)
	if a, _ := h.e.Store().Get("A"); a.X != 200 {
		t.Fatalf("drag X = %v", a.X)
	}

	h.e.Selection().SetElements("A")
	h.e.DeleteSelection()
	h.e.Undo()
	back := only(t, h)
	if back.ID == "A" || back.X != 200 {
		t.Fatalf("undo delete gave %s at X=%v", back.ID, back.X)
	}

	h.e.Undo()
	if got := only(t, h); got.ID != back.ID || got.X != 100 {
		t.Errorf("undo move after recreate: %s X=%v, want %s X=100", got.ID, got.X, back.ID)
	}
}

func TestRedoCreateThenRedoMove(t *testing.T) {
	h := newHarness(t)
	h.e.SetTool(interaction.ToolNote)
	h.click(400, 300)
	h.e.EndEdit()
	created := only(t, h)

	h.down(400, 300)
	h.move(500, 300)
	h.up(500, 300)
	if got := only(t, h); got.X != created.X+100 {
		t.Fatalf("drag X = %v, want %v", got.X, created.X+100)
	}

	h.e.Undo()
	h.e.Undo()
	if h.e.Store().Len() != 0 {
		t.Fatal("undo of create should remove the note")
	}
	h.e.Redo()
	h.e.Redo()
	if got := only(t, h); got.X != created.X+100 {
		t.Errorf("X after redo = %v, want %v", got.X, created.X+100)
	}
}

func TestUndoDeleteReattachesConnector(t *testing.T) {
	conn := el("C", domain.ElementConnector, 0, 0, 0, 0, 3)
	conn.Payload.Connector.From = domain.AnchorRef{Target: domain.ElementRef("A"), Side: domain.SideRight}
	conn.Payload.Connector.To = domain.AnchorRef{Target: domain.ElementRef("B"), Side: domain.SideLeft}
	h := newHarness(t,
		el("A", domain.ElementNote, 0, 0, 100, 60, 1),
		el("B", domain.ElementNote, 300, 0, 100, 60, 2),
		conn,
	)

	h.e.Selection().SetElements("A")
	h.e.DeleteSelection()
	if n := len(h.e.Snapshot().Connectors); n != 0 {
		t.Fatalf("routes after delete = %d", n)
	}

	h.e.Undo()
	if n := len(h.e.Snapshot().Connectors); n != 1 {
		t.Fatalf("routes after undo delete = %d, want 1", n)
	}
	c, _ := h.e.Store().Get("C")
	from := c.Payload.Connector.From.Target
	if from.ID == "A" || !h.e.Store().Has(from.ID) {
		t.Errorf("connector still points at %v", from)
	}
	last := h.persist.calls[len(h.persist.calls)-1]
	if last.op != "update" || last.id != "C" || last.patch.Payload == nil ||
		last.patch.Payload.Connector.From.Target != from {
		t.Errorf("reattached connector not persisted, last call %+v", last)
	}
}

func TestGroupDragIsOneUndo(t *testing.T) {
	h := newHarness(t,
		el("A", domain.ElementNote, 0, 0, 100, 60, 1),
		el("B", domain.ElementNote, 200, 0, 100, 60, 2),
		el("C", domain.ElementNote, 400, 0, 100, 60, 3),
	)
	h.e.Selection().SetElements("A", "B", "C")
	h.down(50, 30)
	h.move(50, 130)
	h.up(50, 130)
	for _, id := range []string{"A", "B", "C"} {
		if e, _ := h.e.Store().Get(id); e.Y != 100 {
			t.Fatalf("%s Y = %v after group drag", id, e.Y)
		}
	}
	if past, _ := h.e.History().Depths(); past != 1 {
		t.Errorf("history entries = %d, want 1", past)
	}

	h.e.Undo()
	for _, id := range []string{"A", "B", "C"} {
		if e, _ := h.e.Store().Get(id); e.Y != 0 {
			t.Errorf("%s Y = %v after one undo", id, e.Y)
		}
	}
}

func TestGroupDeleteIsOneUndo(t *testing.T) {
	h := newHarness(t,
		el("A", domain.ElementNote, 0, 0, 100, 60, 1),
		el("B", domain.ElementNote, 200, 0, 100, 60, 2),
	)
	h.e.Selection().SetElements("A", "B")
	h.e.DeleteSelection()
	if h.e.Store().Len() != 0 {
		t.Fatal("delete left elements behind")
	}
	h.e.Undo()
	if h.e.Store().Len() != 2 {
		t.Errorf("one undo restored %d of 2 elements", h.e.Store().Len())
	}
	if h.e.History().CanUndo() {
		t.Error("group delete should be a single history entry")
	}
}
