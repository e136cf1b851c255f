package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"board/internal/domain"
	"board/internal/history"
	"board/internal/service"
)

func TestNotices_KindsAndValidationDropped(t *testing.T) {
	em := &service.RecordingEmitter{}
	n := service.NewNotices(context.Background(), em, 0)

	n.Notify(nil)
	n.Notify(fmt.Errorf("resize: %w", domain.ErrValidation))
	n.Notify(&domain.PersistenceError{Op: "update element", ID: "A", Err: errBoom})
	n.Notify(fmt.Errorf("%w: undo create A: %w", history.ErrApply, errBoom))
	n.Notify(errors.New("other"))

	got := n.Active()
	want := []service.NoticeKind{service.NoticePersistence, service.NoticeHistory, service.NoticeError}
	if len(got) != len(want) {
		t.Fatalf("expected %d notices, got %+v", len(want), got)
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("notice %d kind = %s, want %s", i, got[i].Kind, k)
		}
	}
	if len(em.Emitted()) != 3 {
		t.Errorf("expected 3 emitted events, got %d", len(em.Emitted()))
	}
}

func TestNotices_ExpireAfterTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	n := service.NewNotices(context.Background(), nil, 0)
	n.Now = func() time.Time { return now }

	n.Notify(errBoom)
	now = now.Add(service.DefaultNoticeTTL - time.Millisecond)
	if len(n.Active()) != 1 {
		t.Fatal("notice expired too early")
	}
	now = now.Add(time.Millisecond)
	if len(n.Active()) != 0 {
		t.Error("notice should auto-dismiss after 4s")
	}
}

func TestNotices_Dismiss(t *testing.T) {
	em := &service.RecordingEmitter{}
	n := service.NewNotices(context.Background(), em, time.Minute)
	n.Notify(errBoom)
	id := n.Active()[0].ID

	if !n.Dismiss(id) {
		t.Fatal("Dismiss returned false")
	}
	if n.Dismiss(id) {
		t.Error("second Dismiss should be a no-op")
	}
	if len(n.Active()) != 0 {
		t.Error("notice still active")
	}
	if last, _ := em.Last(); last.Event != service.NoticeDismissedEvent {
		t.Errorf("last event = %s", last.Event)
	}
}
