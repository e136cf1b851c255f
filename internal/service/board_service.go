package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"board/internal/domain"
)

// BoardsChangedEvent is emitted after the board list changes.
const BoardsChangedEvent = "board:boards-changed"

// DefaultBoardName names the board created on first start.
const DefaultBoardName = "My board"

// ─────────────────────────────────────────────────────────────
// Board Service: board lifecycle and state loading
// ─────────────────────────────────────────────────────────────

// BoardService manages boards and assembles the state needed to open one.
type BoardService struct {
	stores  Stores
	emitter EventEmitter
}

// NewBoardService creates a BoardService.
func NewBoardService(stores Stores, emitter EventEmitter) *BoardService {
	return &BoardService{stores: stores, emitter: emitter}
}

func (s *BoardService) emit(ctx context.Context, event string, data any) {
	if s.emitter != nil {
		s.emitter.Emit(ctx, event, data)
	}
}

// ── Boards ─────────────────────────────────────────────────

func (s *BoardService) ListBoards(ctx context.Context) ([]domain.Board, error) {
	boards, err := s.stores.Boards.ListBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	if boards == nil {
		boards = []domain.Board{}
	}
	return boards, nil
}

func (s *BoardService) CreateBoard(ctx context.Context, name string) (*domain.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultBoardName
	}
	now := time.Now().UTC()
	b := &domain.Board{ID: domain.NewID(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.stores.Boards.CreateBoard(ctx, b); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	s.emit(ctx, BoardsChangedEvent, nil)
	return b, nil
}

func (s *BoardService) RenameBoard(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("rename board: %w: empty name", domain.ErrValidation)
	}
	if err := s.stores.Boards.RenameBoard(ctx, id, name); err != nil {
		return fmt.Errorf("rename board: %w", err)
	}
	s.emit(ctx, BoardsChangedEvent, nil)
	return nil
}

// DeleteBoard removes a board together with its elements, blocks and view.
func (s *BoardService) DeleteBoard(ctx context.Context, id string) error {
	if err := s.stores.Boards.DeleteBoard(ctx, id); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	s.emit(ctx, BoardsChangedEvent, nil)
	return nil
}

// EnsureBoard returns the first board, creating one when none exist.
func (s *BoardService) EnsureBoard(ctx context.Context) (*domain.Board, error) {
	boards, err := s.ListBoards(ctx)
	if err != nil {
		return nil, err
	}
	if len(boards) > 0 {
		return &boards[0], nil
	}
	return s.CreateBoard(ctx, DefaultBoardName)
}

// ── State ──────────────────────────────────────────────────

// LoadBoard fetches the board, its elements, blocks and saved view in
// parallel.
func (s *BoardService) LoadBoard(ctx context.Context, id string) (*domain.BoardState, error) {
	var st domain.BoardState
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.stores.Boards.GetBoard(gctx, id)
		if err != nil {
			return fmt.Errorf("get board: %w", err)
		}
		st.Board = *b
		return nil
	})
	g.Go(func() error {
		els, err := s.stores.Elements.ListElements(gctx, id)
		if err != nil {
			return fmt.Errorf("list elements: %w", err)
		}
		st.Elements = els
		return nil
	})
	g.Go(func() error {
		blocks, err := s.stores.Blocks.ListBlocks(gctx, id)
		if err != nil {
			return fmt.Errorf("list blocks: %w", err)
		}
		st.Blocks = blocks
		return nil
	})
	if s.stores.Views != nil {
		g.Go(func() error {
			v, err := s.stores.Views.LoadView(gctx, id)
			if err != nil {
				return fmt.Errorf("load view: %w", err)
			}
			st.View = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load board %s: %w", id, err)
	}
	if st.Elements == nil {
		st.Elements = []domain.Element{}
	}
	if st.Blocks == nil {
		st.Blocks = []domain.MaterialBlock{}
	}
	return &st, nil
}

// LoadContents fetches only elements and blocks, for reloads that must not
// disturb the viewport.
func (s *BoardService) LoadContents(ctx context.Context, id string) ([]domain.Element, []domain.MaterialBlock, error) {
	var (
		els    []domain.Element
		blocks []domain.MaterialBlock
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		els, err = s.stores.Elements.ListElements(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		blocks, err = s.stores.Blocks.ListBlocks(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("reload board %s: %w", id, err)
	}
	return els, blocks, nil
}
