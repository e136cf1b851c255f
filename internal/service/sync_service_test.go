package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"board/internal/service"
)

func TestSyncService_TriggerIsExclusive(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := service.NewSyncService(func(ctx context.Context, reason string) error {
		close(started)
		<-release
		return nil
	}, 0)

	errc := make(chan error, 1)
	go func() { errc <- s.Trigger(context.Background(), "first") }()
	<-started

	if !s.Reloading() {
		t.Error("Reloading should report the running trigger")
	}
	if err := s.Trigger(context.Background(), "second"); !errors.Is(err, service.ErrReloadBusy) {
		t.Errorf("concurrent trigger: err = %v", err)
	}
	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	if s.Reloading() {
		t.Error("Reloading after the trigger returned")
	}
	if s.LastReload().IsZero() {
		t.Error("LastReload not recorded")
	}
}

func TestSyncService_TriggerWrapsError(t *testing.T) {
	s := service.NewSyncService(func(context.Context, string) error { return errBoom }, 0)
	if err := s.Trigger(context.Background(), "resync"); !errors.Is(err, errBoom) {
		t.Errorf("err = %v", err)
	}
	if !s.LastReload().IsZero() {
		t.Error("failed reload must not update LastReload")
	}
}

func TestSyncService_InvalidSchedule(t *testing.T) {
	s := service.NewSyncService(func(context.Context, string) error { return nil }, 0)
	defer s.Stop()
	if err := s.Start(context.Background(), "", "not a cron"); err == nil {
		t.Error("expected an error for an invalid cron expression")
	}
}

func TestSyncService_WatchReloadsOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.db")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int32
	s := service.NewSyncService(func(context.Context, string) error {
		reloads.Add(1)
		return nil
	}, 20*time.Millisecond)
	if err := s.Start(context.Background(), path, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("y"), 0o644)
	os.WriteFile(path+"-wal", []byte("y"), 0o644)

	deadline := time.Now().Add(3 * time.Second)
	for reloads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if reloads.Load() == 0 {
		t.Fatal("external write did not trigger a reload")
	}
}

func TestSyncService_LocalWritesSuppressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.db")
	os.WriteFile(path, []byte("x"), 0o644)

	var reloads atomic.Int32
	s := service.NewSyncService(func(context.Context, string) error {
		reloads.Add(1)
		return nil
	}, 20*time.Millisecond)
	if err := s.Start(context.Background(), path, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	s.MarkLocalWrite()
	os.WriteFile(path, []byte("z"), 0o644)
	time.Sleep(200 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Errorf("local write triggered %d reloads", n)
	}
}
