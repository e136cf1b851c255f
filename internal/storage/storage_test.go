package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"board/internal/domain"
	"board/internal/geom"
	"board/internal/storage"
)

func openTestBackend(t *testing.T) *storage.Backend {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	b := storage.NewSQLBackend(db)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	for i := 0; i < 2; i++ {
		db, err := storage.New(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		db.Close()
	}
}

func TestBoards(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	board := &domain.Board{Name: "Roadmap"}
	if err := b.Boards.CreateBoard(ctx, board); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if board.ID == "" || board.CreatedAt.IsZero() {
		t.Fatalf("id/timestamps not assigned: %+v", board)
	}
	if err := b.Boards.RenameBoard(ctx, board.ID, "Q3"); err != nil {
		t.Fatalf("RenameBoard: %v", err)
	}
	got, err := b.Boards.GetBoard(ctx, board.ID)
	if err != nil || got.Name != "Q3" {
		t.Errorf("GetBoard = %+v, %v", got, err)
	}
	if err := b.Boards.RenameBoard(ctx, "nope", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("rename missing: err = %v", err)
	}
	if _, err := b.Boards.GetBoard(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get missing: err = %v", err)
	}
	list, _ := b.Boards.ListBoards(ctx)
	if len(list) != 1 {
		t.Errorf("ListBoards = %+v", list)
	}
}

func TestElementRoundTrip(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	stroke := domain.Element{
		ID: domain.NewTempID(), BoardID: "b1", Type: domain.ElementDrawing,
		X: 7, Y: 7, Width: 16, Height: 26, ZIndex: 2,
		Payload: domain.Payload{Drawing: &domain.DrawingPayload{
			Points: []geom.Point{{X: 3, Y: 3}, {X: 13, Y: 23}}, Color: "#111827", Width: 2,
		}},
	}
	if err := b.Elements.CreateElement(ctx, &stroke); err != nil {
		t.Fatalf("CreateElement: %v", err)
	}
	if domain.IsTempID(stroke.ID) {
		t.Error("temp id must be replaced by the store")
	}

	conn := domain.Element{BoardID: "b1", Type: domain.ElementConnector, ZIndex: 1,
		Payload: domain.DefaultPayload(domain.ElementConnector)}
	conn.Payload.Connector.From = domain.AnchorRef{Target: domain.ElementRef(stroke.ID), Side: domain.SideRight}
	conn.Payload.Connector.To = domain.AnchorRef{Target: domain.BlockRef("blk"), Side: domain.SideTop}
	conn.Payload.Connector.Bend = geom.Point{X: 4, Y: -8}
	if err := b.Elements.CreateElement(ctx, &conn); err != nil {
		t.Fatalf("CreateElement connector: %v", err)
	}

	list, err := b.Elements.ListElements(ctx, "b1")
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if len(list) != 2 || list[0].ID != conn.ID || list[1].ID != stroke.ID {
		t.Fatalf("expected z-ordered [connector, stroke], got %+v", list)
	}
	if !list[1].ContentEqual(stroke) {
		t.Errorf("stroke changed in round trip: %+v", list[1])
	}
	if !list[0].ContentEqual(conn) {
		t.Errorf("connector changed in round trip: %+v", list[0].Payload.Connector)
	}
}

func TestElementUpdateAndDelete(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	note := domain.Element{BoardID: "b1", Type: domain.ElementNote, Width: 200, Height: 200,
		Payload: domain.DefaultPayload(domain.ElementNote)}
	b.Elements.CreateElement(ctx, &note)

	p := note.Payload.Clone()
	p.Text.Content = "hello"
	patch := domain.GeometryPatch(geom.Rect{X: 10, Y: 20, W: 220, H: 220})
	patch.Payload = &p
	got, err := b.Elements.UpdateElement(ctx, note.ID, patch)
	if err != nil {
		t.Fatalf("UpdateElement: %v", err)
	}
	if got.X != 10 || got.Width != 220 || got.Payload.Text.Content != "hello" {
		t.Errorf("UpdateElement returned %+v", got)
	}
	list, _ := b.Elements.ListElements(ctx, "b1")
	if list[0].Payload.Text.Content != "hello" || list[0].Y != 20 {
		t.Errorf("update not persisted: %+v", list[0])
	}

	if _, err := b.Elements.UpdateElement(ctx, "missing", patch); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update missing: err = %v", err)
	}
	if err := b.Elements.DeleteElement(ctx, note.ID); err != nil {
		t.Fatalf("DeleteElement: %v", err)
	}
	if list, _ := b.Elements.ListElements(ctx, "b1"); len(list) != 0 {
		t.Errorf("element not deleted: %+v", list)
	}
}

func TestCreateElementRejectsInvalid(t *testing.T) {
	b := openTestBackend(t)
	bad := domain.Element{BoardID: "b1", Type: "sticker"}
	if err := b.Elements.CreateElement(context.Background(), &bad); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v", err)
	}
}

func TestBlocks(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	blk := domain.MaterialBlock{BoardID: "b1", Title: "Untitled", Width: 320, Height: 240, CardsCount: 3}
	if err := b.Blocks.CreateBlock(ctx, &blk); err != nil {
		t.Fatalf("CreateBlock: %v", err)
	}
	title := "Reading list"
	got, err := b.Blocks.UpdateBlock(ctx, blk.ID, domain.BlockPatch{Title: &title})
	if err != nil || got.Title != title || got.CardsCount != 3 {
		t.Fatalf("UpdateBlock = %+v, %v", got, err)
	}
	list, _ := b.Blocks.ListBlocks(ctx, "b1")
	if len(list) != 1 || list[0].Title != title {
		t.Errorf("ListBlocks = %+v", list)
	}
	b.Blocks.DeleteBlock(ctx, blk.ID)
	if list, _ := b.Blocks.ListBlocks(ctx, "b1"); len(list) != 0 {
		t.Errorf("block not deleted")
	}
}

func TestViewsAndSettings(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	rec, err := b.Views.LoadView(ctx, "b1")
	if err != nil || rec != nil {
		t.Fatalf("absent view should be nil, nil; got %+v, %v", rec, err)
	}
	b.Views.SaveView(ctx, "b1", domain.NewViewRecord(domain.ViewState{Scale: 1.5}))
	b.Views.SaveView(ctx, "b1", domain.NewViewRecord(domain.ViewState{Offset: geom.Point{X: 5, Y: 6}, Scale: 2}))
	rec, err = b.Views.LoadView(ctx, "b1")
	if err != nil || rec == nil {
		t.Fatalf("LoadView: %v", err)
	}
	if rec.Scale != 2 || rec.Offset == nil || rec.Offset.X != 5 || rec.Version != domain.ViewRecordVersion {
		t.Errorf("view = %+v", rec)
	}

	if _, ok, _ := b.Settings.GetSetting(ctx, "last_board"); ok {
		t.Error("unset setting reported as present")
	}
	b.Settings.SetSetting(ctx, "last_board", "b1")
	b.Settings.SetSetting(ctx, "last_board", "b2")
	if v, ok, err := b.Settings.GetSetting(ctx, "last_board"); err != nil || !ok || v != "b2" {
		t.Errorf("setting = %q %v %v", v, ok, err)
	}
}

func TestDeleteBoardCascades(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	board := &domain.Board{Name: "x"}
	b.Boards.CreateBoard(ctx, board)
	note := domain.Element{BoardID: board.ID, Type: domain.ElementNote, Payload: domain.DefaultPayload(domain.ElementNote)}
	b.Elements.CreateElement(ctx, &note)
	b.Blocks.CreateBlock(ctx, &domain.MaterialBlock{BoardID: board.ID, Title: "t"})
	b.Views.SaveView(ctx, board.ID, domain.NewViewRecord(domain.ViewState{Scale: 1}))

	if err := b.Boards.DeleteBoard(ctx, board.ID); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	els, _ := b.Elements.ListElements(ctx, board.ID)
	blocks, _ := b.Blocks.ListBlocks(ctx, board.ID)
	view, _ := b.Views.LoadView(ctx, board.ID)
	if len(els) != 0 || len(blocks) != 0 || view != nil {
		t.Errorf("leftovers: %d elements, %d blocks, view %v", len(els), len(blocks), view)
	}
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	if _, err := storage.OpenBackend(context.Background(), storage.BackendOptions{Driver: "oracle"}); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}

func TestApprovals(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	a := &domain.Approval{Tool: "delete_elements", Description: "Delete 2 elements"}
	if err := b.Approvals.CreateApproval(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == "" || a.Status != domain.ApprovalPending || a.Metadata != "{}" {
		t.Fatalf("defaults not applied: %+v", a)
	}

	pending, err := b.Approvals.ListPendingApprovals(ctx)
	if err != nil || len(pending) != 1 || pending[0].ID != a.ID {
		t.Fatalf("pending = %+v, %v", pending, err)
	}

	if err := b.Approvals.ResolveApproval(ctx, a.ID, domain.ApprovalApproved); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, err := b.Approvals.GetApproval(ctx, a.ID)
	if err != nil || got.Status != domain.ApprovalApproved {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if err := b.Approvals.ResolveApproval(ctx, a.ID, domain.ApprovalRejected); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second resolve = %v, want ErrNotFound", err)
	}

	if err := b.Approvals.DeleteApproval(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := b.Approvals.GetApproval(ctx, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}
