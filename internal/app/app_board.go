package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"board/internal/domain"
	"board/internal/interaction"
	"board/internal/service"
)

// ============================================================
// Boards
// ============================================================

func (a *App) ListBoards() ([]domain.Board, error) {
	return a.boards.ListBoards(a.ctx)
}

// CreateBoard creates a board and opens it.
func (a *App) CreateBoard(name string) (*domain.Board, error) {
	b, err := a.boards.CreateBoard(a.ctx, name)
	if err != nil {
		return nil, err
	}
	if err := a.OpenBoard(b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (a *App) RenameBoard(id, name string) error {
	return a.boards.RenameBoard(a.ctx, id, name)
}

// DeleteBoard deletes a board. Deleting the open board opens another one,
// creating a fresh board if none is left.
func (a *App) DeleteBoard(id string) error {
	if err := a.boards.DeleteBoard(a.ctx, id); err != nil {
		return err
	}
	if a.CurrentBoard() != id {
		return nil
	}
	b, err := a.boards.EnsureBoard(a.ctx)
	if err != nil {
		return err
	}
	return a.OpenBoard(b.ID)
}

// CurrentBoard returns the id of the open board.
func (a *App) CurrentBoard() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.engine == nil {
		return ""
	}
	return a.engine.BoardID()
}

// OpenBoard loads a board into the engine. Completions still in flight for
// the previous board are dropped.
func (a *App) OpenBoard(id string) error {
	state, err := a.boards.LoadBoard(a.ctx, id)
	if err != nil {
		return err
	}
	a.withEngine(func(e *interaction.Engine) {
		a.bridge.Reset()
		e.Load(*state)
	})
	if err := a.window.SetLastBoard(a.ctx, id); err != nil {
		log.Printf("app: remember last board: %v", err)
	}
	return nil
}

// openInitialBoard reopens the last board, falling back to any board.
func (a *App) openInitialBoard(ctx context.Context) error {
	if id := a.window.LastBoard(ctx); id != "" {
		err := a.OpenBoard(id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	b, err := a.boards.EnsureBoard(ctx)
	if err != nil {
		return err
	}
	return a.OpenBoard(b.ID)
}

// ReloadBoard re-reads the open board from storage.
func (a *App) ReloadBoard() error {
	err := a.sync.Trigger(a.ctx, "manual")
	if errors.Is(err, service.ErrReloadBusy) {
		return nil
	}
	return err
}

// reload is the SyncService callback: it swaps in the stored elements and
// blocks of the open board, keeping optimistic records.
func (a *App) reload(ctx context.Context, reason string) error {
	boardID := a.CurrentBoard()
	if boardID == "" {
		return nil
	}
	els, blocks, err := a.boards.LoadContents(ctx, boardID)
	if err != nil {
		return fmt.Errorf("reload board %s: %w", boardID, err)
	}
	a.withEngine(func(e *interaction.Engine) {
		// The user may have switched boards while we were loading.
		if e.BoardID() == boardID {
			e.Reload(els, blocks)
		}
	})
	log.Printf("app: reloaded board %s (%s)", boardID, reason)
	return nil
}

// ============================================================
// Notices & agent approvals
// ============================================================

func (a *App) ActiveNotices() []service.Notice {
	return a.notices.Active()
}

func (a *App) DismissNotice(id string) bool {
	return a.notices.Dismiss(id)
}

func (a *App) PendingApprovals() ([]domain.Approval, error) {
	if a.backend.Approvals == nil {
		return nil, nil
	}
	return a.backend.Approvals.ListPendingApprovals(a.ctx)
}

// ApproveAction lets a waiting MCP tool call proceed.
func (a *App) ApproveAction(id string) error {
	return a.backend.Approvals.ResolveApproval(a.ctx, id, domain.ApprovalApproved)
}

// RejectAction makes a waiting MCP tool call fail.
func (a *App) RejectAction(id string) error {
	return a.backend.Approvals.ResolveApproval(a.ctx, id, domain.ApprovalRejected)
}
