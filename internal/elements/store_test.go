package elements_test

import (
	"testing"

	"board/internal/domain"
	"board/internal/elements"
	"board/internal/geom"
)

func note(id string, x, y float64) domain.Element {
	return domain.Element{
		ID: id, Type: domain.ElementNote, X: x, Y: y, Width: 120, Height: 80,
		Payload: domain.DefaultPayload(domain.ElementNote),
	}
}

func TestLoad_MergesCollisions(t *testing.T) {
	s := elements.NewStore()
	first := note("7", 10, 20)
	first.Payload.Text.Content = "hello"
	second := domain.Element{ID: "7", X: 55, Y: 20, Width: 120, Height: 80}
	s.Load([]domain.Element{first, second})

	if s.Len() != 1 {
		t.Fatalf("expected 1 element, got %d", s.Len())
	}
	e, _ := s.Get("7")
	if e.X != 55 || e.Y != 20 || e.Type != domain.ElementNote {
		t.Errorf("unexpected merge result %+v", e)
	}
	if e.Payload.Text == nil || e.Payload.Text.Content != "hello" {
		t.Error("payload from the first record was lost")
	}
}

func TestLoad_LaterZeroValuesWin(t *testing.T) {
	s := elements.NewStore()
	first := note("7", 50, 50)
	first.ZIndex = 3
	second := note("7", 0, 0)
	second.ZIndex = 0
	s.Load([]domain.Element{first, second})

	e, _ := s.Get("7")
	if e.X != 0 || e.Y != 0 || e.ZIndex != 0 {
		t.Errorf("merged: x=%v y=%v z=%d, want the later zero values", e.X, e.Y, e.ZIndex)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	s := elements.NewStore()
	in := []domain.Element{note("a", 0, 0), note("b", 300, 10)}
	in[1].ZIndex = 3
	s.Load(in)
	s.Load(s.All())

	got := s.All()
	if len(got) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(got))
	}
	for _, want := range in {
		e, ok := s.Get(want.ID)
		if !ok || !e.ContentEqual(want) {
			t.Errorf("element %s changed across reload: %+v", want.ID, e)
		}
	}
}

func TestUpdateAndRemove(t *testing.T) {
	s := elements.NewStore()
	s.Upsert(note("1", 0, 0))

	x := 42.0
	if _, ok := s.Update("1", domain.ElementPatch{X: &x}); !ok {
		t.Fatal("update of existing element failed")
	}
	if e, _ := s.Get("1"); e.X != 42 {
		t.Errorf("X = %v, want 42", e.X)
	}
	if _, ok := s.Update("missing", domain.ElementPatch{X: &x}); ok {
		t.Error("update of unknown id reported success")
	}

	s.SetEditing("1")
	if !s.Remove("1") {
		t.Fatal("remove failed")
	}
	if _, ok := s.Editing(); ok {
		t.Error("editing focus survived removal")
	}
}

func TestBulkUpdate_FiltersNil(t *testing.T) {
	s := elements.NewStore()
	s.Load([]domain.Element{note("1", 0, 0), note("2", 0, 0)})
	s.BulkUpdate(func(all []*domain.Element) []*domain.Element {
		out := []*domain.Element{nil}
		for _, e := range all {
			if e.ID == "2" {
				continue
			}
			e.X += 5
			out = append(out, e)
		}
		extra := note("3", 1, 1)
		return append(out, &extra)
	})
	if s.Len() != 2 || s.Has("2") || !s.Has("3") {
		t.Fatalf("unexpected collection after bulk update: %+v", s.All())
	}
	if e, _ := s.Get("1"); e.X != 5 {
		t.Errorf("X = %v, want 5", e.X)
	}
}

func TestAll_ZOrder(t *testing.T) {
	s := elements.NewStore()
	a, b := note("a", 0, 0), note("b", 0, 0)
	a.ZIndex, b.ZIndex = 5, 1
	s.Load([]domain.Element{a, b})
	all := s.All()
	if all[0].ID != "b" || all[1].ID != "a" {
		t.Errorf("expected z order [b a], got [%s %s]", all[0].ID, all[1].ID)
	}
	if s.MaxZ() != 5 {
		t.Errorf("MaxZ = %d", s.MaxZ())
	}
}

func TestRekey_RewritesConnectors(t *testing.T) {
	s := elements.NewStore()
	tmp := domain.NewTempID()
	s.Upsert(note(tmp, 0, 0))
	s.Upsert(note("b", 300, 0))
	s.UpsertBlock(domain.MaterialBlock{ID: "blk", Width: 200, Height: 120})

	conn := domain.Element{ID: "c", Type: domain.ElementConnector, Payload: domain.Payload{
		Connector: &domain.ConnectorPayload{
			From: domain.AnchorRef{Target: domain.ElementRef(tmp), Side: domain.SideRight},
			To:   domain.AnchorRef{Target: domain.BlockRef("blk"), Side: domain.SideLeft},
		},
	}}
	s.Upsert(conn)

	if !s.Rekey(domain.ElementRef(tmp), "server-1") {
		t.Fatal("rekey failed")
	}
	if s.Has(tmp) || !s.Has("server-1") {
		t.Fatal("element not moved to server id")
	}
	c, _ := s.Get("c")
	if c.Payload.Connector.From.Target != domain.ElementRef("server-1") {
		t.Errorf("connector still points at %+v", c.Payload.Connector.From.Target)
	}
	if got := s.ConnectorsOf(domain.BlockRef("blk")); len(got) != 1 || got[0] != "c" {
		t.Errorf("ConnectorsOf(block) = %v", got)
	}
}

func TestSubscribe_VersionBumps(t *testing.T) {
	s := elements.NewStore()
	var seen []uint64
	unsub := s.Subscribe(func(v uint64) { seen = append(seen, v) })
	s.Upsert(note("1", 0, 0))
	s.Remove("1")
	unsub()
	s.Upsert(note("2", 0, 0))
	if len(seen) != 2 || seen[1] != 2 {
		t.Errorf("listener saw %v", seen)
	}
}

func TestOverrides_VisualBounds(t *testing.T) {
	s := elements.NewStore()
	s.Upsert(note("1", 0, 0))
	ref := domain.ElementRef("1")

	s.Overrides.SetRect(ref, geom.Rect{X: 50, Y: 50, W: 120, H: 80})
	if r, _ := s.VisualBounds(ref); r.X != 50 {
		t.Errorf("override not applied: %+v", r)
	}
	if r, _ := s.Bounds(ref); r.X != 0 {
		t.Errorf("override leaked into store: %+v", r)
	}

	s.Overrides.SetRect(domain.BlockRef("x"), geom.Rect{})
	s.Overrides.Delete(ref)
	if _, ok := s.Overrides.Rect(domain.BlockRef("x")); !ok {
		t.Error("deleting one override dropped another")
	}
	s.Overrides.Clear()
	if s.Overrides.Len() != 0 {
		t.Error("Clear left overrides behind")
	}
}
