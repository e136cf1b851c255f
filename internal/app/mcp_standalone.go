package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"board/internal/config"
	mcpserver "board/internal/mcp"
	"board/internal/service"
	"board/internal/storage"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It shares storage with the desktop app: writes show up there through the
// board watcher, and destructive tools wait for approval in the desktop UI.
func ServeMCP(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	backend, err := storage.OpenBackend(ctx, backendOptions(cfg))
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Driver, err)
	}
	defer backend.Close()

	stores := storesOf(backend)
	emitter := noopEmitter{}
	window := service.NewWindowSettingsService(backend.Settings)

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:       emitter,
		Boards:        service.NewBoardService(stores, emitter),
		Stores:        stores,
		Approvals:     backend.Approvals,
		ActiveBoardID: window.LastBoard(ctx),
	})

	log.Printf("[MCP] Starting standalone stdio server (%s storage)...", cfg.Storage.Driver)
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
