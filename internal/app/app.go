package app

import (
	"context"
	"log"
	"sync"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"board/internal/config"
	"board/internal/interaction"
	"board/internal/service"
	"board/internal/storage"
	"board/internal/tick"
)

// FrameEvent carries an interaction.Frame to the frontend after every tick
// that changed something.
const FrameEvent = "board:frame"

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	cfg *config.Config

	backend   *storage.Backend
	boards    *service.BoardService
	bridge    *service.Bridge
	notices   *service.Notices
	sync      *service.SyncService
	window    *service.WindowSettingsService
	approvals *approvalWatcher

	attachments *service.Attachments

	// mu serialises every engine call: Wails bindings, reloads and the
	// frame loop all take it.
	mu     sync.Mutex
	engine *interaction.Engine
	loop   *tick.Loop
	dirty  bool

	wake      chan struct{}
	stopFrame context.CancelFunc
	frameDone chan struct{}
}

// New creates a new App.
func New(cfg *config.Config) *App {
	return &App{
		cfg:         cfg,
		attachments: service.NewAttachments(cfg.DataDir),
		wake:        make(chan struct{}, 1),
	}
}

// Emit implements service.EventEmitter via the Wails runtime.
func (a *App) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	backend, err := storage.OpenBackend(ctx, backendOptions(a.cfg))
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open %s storage: %v", a.cfg.Storage.Driver, err)
		return
	}
	a.backend = backend
	stores := storesOf(backend)

	a.boards = service.NewBoardService(stores, a)
	a.window = service.NewWindowSettingsService(backend.Settings)
	a.notices = service.NewNotices(ctx, a, a.cfg.Canvas.NoticeTTL.D())
	a.sync = service.NewSyncService(a.reload, service.DefaultWatchDebounce)

	a.bridge = service.NewBridge(stores, a.notices, service.DefaultOpTimeout)
	a.bridge.OnPost = a.requestFrame
	a.bridge.OnWrite = a.sync.MarkLocalWrite
	a.bridge.Start(ctx)

	a.loop = tick.NewLoop()
	a.engine = interaction.New(interaction.Deps{
		Scheduler:   a.loop,
		Persistence: a.bridge,
		Notifier:    a.notices,
		SaveView:    a.bridge.SaveView,
	}, engineOptions(a.cfg))

	size := a.window.LoadWindowSize(ctx)
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)

	if err := a.openInitialBoard(ctx); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to open a board: %v", err)
	}

	if err := a.sync.Start(ctx, watchPath(a.cfg, backend), a.cfg.Sync.ResyncSchedule); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start board sync: %v", err)
	}

	if backend.Approvals != nil {
		a.approvals = newApprovalWatcher(ctx, backend.Approvals, func(event string, data any) {
			a.Emit(ctx, event, data)
		})
		a.approvals.Start()
	}

	a.startFrameLoop(ctx)
	wailsRuntime.LogInfof(ctx, "Board ready (%s storage)", a.cfg.Storage.Driver)
}

// BeforeClose saves the window size. It never blocks closing.
func (a *App) BeforeClose(ctx context.Context) bool {
	if a.window != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.window.SaveWindowSize(ctx, w, h); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to save window size: %v", err)
		}
	}
	return false
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.stopFrame != nil {
		a.stopFrame()
		<-a.frameDone
	}
	if a.approvals != nil {
		a.approvals.Stop()
	}
	if a.sync != nil {
		a.sync.Stop()
		a.sync.WaitRunning(ctx)
	}
	if a.engine != nil {
		a.mu.Lock()
		a.engine.Close()
		a.mu.Unlock()
	}
	if a.bridge != nil {
		closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		a.bridge.Close(closeCtx)
		cancel()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			log.Printf("app: close storage: %v", err)
		}
	}
}

// ============================================================
// Frame loop
// ============================================================

// requestFrame wakes the frame loop early, e.g. when a persistence
// completion is waiting in the bridge inbox. Safe from any goroutine.
func (a *App) requestFrame() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *App) startFrameLoop(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.stopFrame = cancel
	a.frameDone = make(chan struct{})

	go func() {
		defer close(a.frameDone)
		ticker := time.NewTicker(a.cfg.Canvas.FrameInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-a.wake:
			}
			a.frame(ctx)
		}
	}()
}

// frame runs one tick on the engine thread: merge persistence completions,
// run scheduled work, then publish a snapshot if anything changed.
func (a *App) frame(ctx context.Context) {
	a.mu.Lock()
	n := a.bridge.Drain(a.engine)
	n += a.loop.RunFrame()
	if n == 0 && !a.dirty {
		a.mu.Unlock()
		return
	}
	a.dirty = false
	snap := a.engine.Snapshot()
	a.mu.Unlock()

	a.Emit(ctx, FrameEvent, snap)
}

// withEngine runs fn on the engine thread and schedules a snapshot.
func (a *App) withEngine(fn func(e *interaction.Engine)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.engine == nil {
		return
	}
	fn(a.engine)
	a.dirty = true
}
