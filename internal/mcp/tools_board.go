package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBoardTools() {
	// ── list_boards ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_boards",
		mcp.WithDescription("List all boards"),
	), s.handleListBoards)

	// ── create_board ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_board",
		mcp.WithDescription("Create a new board and make it the active board"),
		mcp.WithString("name",
			mcp.Description("Name of the new board"),
			mcp.Required(),
		),
	), s.handleCreateBoard)

	// ── set_active_board ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_board",
		mcp.WithDescription("Set the active board for subsequent tool calls. Tools that accept boardId will default to this."),
		mcp.WithString("boardId",
			mcp.Description("ID of the board to make active"),
			mcp.Required(),
		),
	), s.handleSetActiveBoard)

	// ── rename_board ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_board",
		mcp.WithDescription("Rename a board"),
		mcp.WithString("boardId", mcp.Description("ID of the board (defaults to the active board)")),
		mcp.WithString("name",
			mcp.Description("New name"),
			mcp.Required(),
		),
	), s.handleRenameBoard)

	// ── delete_board ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_board",
		mcp.WithDescription("Delete a board and everything on it. Requires user approval."),
		mcp.WithString("boardId",
			mcp.Description("ID of the board to delete"),
			mcp.Required(),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBoard)
}

func (s *Server) handleListBoards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boards, err := s.boards.ListBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return jsonResult(boards)
}

func (s *Server) handleCreateBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	board, err := s.boards.CreateBoard(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	s.SetActiveBoard(board.ID)
	return jsonResult(board)
}

func (s *Server) handleSetActiveBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID := req.GetString("boardId", "")
	if boardID == "" {
		return nil, fmt.Errorf("boardId is required")
	}
	if _, err := s.stores.Boards.GetBoard(ctx, boardID); err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}
	s.SetActiveBoard(boardID)
	return textResult(fmt.Sprintf("Active board set to %s", boardID)), nil
}

func (s *Server) handleRenameBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, err := s.resolveBoardID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.boards.RenameBoard(ctx, boardID, req.GetString("name", "")); err != nil {
		return nil, fmt.Errorf("rename board: %w", err)
	}
	return textResult(fmt.Sprintf("Board %s renamed", boardID)), nil
}

func (s *Server) handleDeleteBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID := req.GetString("boardId", "")
	if boardID == "" {
		return nil, fmt.Errorf("boardId is required")
	}
	board, err := s.stores.Boards.GetBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}
	meta := fmt.Sprintf(`{"boardId":%q}`, boardID)
	if err := s.approval.Request(ctx, "delete_board", fmt.Sprintf("Delete board %q and all its contents", board.Name), meta); err != nil {
		return nil, err
	}
	if err := s.boards.DeleteBoard(ctx, boardID); err != nil {
		return nil, fmt.Errorf("delete board: %w", err)
	}
	if s.ActiveBoard() == boardID {
		s.SetActiveBoard("")
	}
	s.changed(ctx, boardID)
	return textResult(fmt.Sprintf("Board %s deleted", boardID)), nil
}
