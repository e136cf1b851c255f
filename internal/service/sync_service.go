package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// ErrReloadBusy is returned when a reload is already running.
var ErrReloadBusy = errors.New("reload already running")

const (
	// DefaultWatchDebounce coalesces bursts of file events into one reload.
	DefaultWatchDebounce = 500 * time.Millisecond
	// LocalWriteQuiet is how long file events are ignored after a write made
	// by this process.
	LocalWriteQuiet = time.Second

	reloadJobID = "reload"
)

// ReloadFunc re-reads the open board from storage.
type ReloadFunc func(ctx context.Context, reason string) error

// ─────────────────────────────────────────────────────────────
// Sync Service: external-change reloads and periodic resync
// ─────────────────────────────────────────────────────────────

// SyncService triggers board reloads when another process writes the
// database file, and on a cron schedule.
type SyncService struct {
	reload   ReloadFunc
	debounce time.Duration
	running  jobGuard

	// Now is the clock; tests replace it.
	Now func() time.Time

	mu         sync.Mutex
	lastLocal  time.Time
	watchDone  chan struct{}
	watchStop  context.CancelFunc
	watcher    *fsnotify.Watcher
	cronSched  *cron.Cron
	reloadedAt time.Time
}

// NewSyncService creates a SyncService.
func NewSyncService(reload ReloadFunc, debounce time.Duration) *SyncService {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &SyncService{reload: reload, debounce: debounce, Now: time.Now}
}

// Trigger runs a reload unless one is already in flight.
func (s *SyncService) Trigger(ctx context.Context, reason string) error {
	if !s.running.Acquire(reloadJobID) {
		return ErrReloadBusy
	}
	defer s.running.Release(reloadJobID)

	if err := s.reload(ctx, reason); err != nil {
		return fmt.Errorf("reload (%s): %w", reason, err)
	}
	s.mu.Lock()
	s.reloadedAt = s.Now()
	s.mu.Unlock()
	return nil
}

// Reloading reports whether a reload is in flight.
func (s *SyncService) Reloading() bool {
	return s.running.Busy(reloadJobID)
}

// LastReload returns when the last successful reload finished.
func (s *SyncService) LastReload() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadedAt
}

// MarkLocalWrite records a write made by this process so the resulting file
// events do not trigger a reload.
func (s *SyncService) MarkLocalWrite() {
	s.mu.Lock()
	s.lastLocal = s.Now()
	s.mu.Unlock()
}

func (s *SyncService) recentlyWritten() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lastLocal.IsZero() && s.Now().Sub(s.lastLocal) < LocalWriteQuiet
}

// ── Watchers (cron + file watch) ──────────────────────────

// Start tears down any previous watcher/cron and builds new ones. An empty
// watchPath disables the file watcher; an empty schedule disables the cron.
func (s *SyncService) Start(ctx context.Context, watchPath, schedule string) error {
	s.Stop()

	if schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(schedule, func() {
			if err := s.Trigger(ctx, "resync"); err != nil && !errors.Is(err, ErrReloadBusy) {
				log.Printf("resync cron: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("resync cron: invalid expression %q: %w", schedule, err)
		}
		c.Start()
		s.mu.Lock()
		s.cronSched = c
		s.mu.Unlock()
		log.Printf("resync cron: scheduled %q", schedule)
	}

	if watchPath == "" {
		return nil
	}
	absPath, err := filepath.Abs(watchPath)
	if err != nil {
		return fmt.Errorf("board watcher: bad path %q: %w", watchPath, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("board watcher: create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("board watcher: watch dir %q: %w", filepath.Dir(absPath), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.watcher = watcher
	s.watchStop = cancel
	s.watchDone = done
	s.mu.Unlock()

	go s.watch(watchCtx, watcher, filepath.Base(absPath), done)
	log.Printf("board watcher: watching %q", absPath)
	return nil
}

func (s *SyncService) watch(ctx context.Context, watcher *fsnotify.Watcher, base string, done chan struct{}) {
	defer close(done)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// SQLite writes land in the -wal and -journal siblings as well.
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if s.recentlyWritten() {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			name := event.Name
			timer = time.AfterFunc(s.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				log.Printf("board watcher: %q changed, reloading", name)
				if err := s.Trigger(ctx, "external change"); err != nil && !errors.Is(err, ErrReloadBusy) {
					log.Printf("board watcher: %v", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("board watcher: error: %v", err)
		}
	}
}

// WaitRunning blocks until a running reload finishes or ctx is cancelled.
func (s *SyncService) WaitRunning(ctx context.Context) {
	s.running.Wait(ctx)
}

// Stop tears down the watcher and the scheduler.
func (s *SyncService) Stop() {
	s.mu.Lock()
	cancel, watcher, done, c := s.watchStop, s.watcher, s.watchDone, s.cronSched
	s.watchStop, s.watcher, s.watchDone, s.cronSched = nil, nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if watcher != nil {
		watcher.Close()
	}
	if done != nil {
		<-done
	}
	if c != nil {
		<-c.Stop().Done()
	}
}
