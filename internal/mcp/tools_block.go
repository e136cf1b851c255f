package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"board/internal/domain"
	"board/internal/interaction"
	"board/internal/selection"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBlockTools() {
	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the material blocks on a board"),
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
	), s.handleListBlocks)

	// ── create_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_block", withPlacement(
			mcp.WithDescription("Create a material block: a titled container for study cards. Position is auto-calculated if x/y are omitted."),
			mcp.WithString("title", mcp.Description("Block title"), mcp.Required()),
		)...,
	), s.handleCreateBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Rename, move or resize a material block. Omitted fields are left unchanged."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithNumber("x", mcp.Description("New X position")),
		mcp.WithNumber("y", mcp.Description("New Y position")),
		mcp.WithNumber("width", mcp.Description("New width")),
		mcp.WithNumber("height", mcp.Description("New height")),
	), s.handleUpdateBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a material block and the connectors attached to it. Requires user approval."),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.contents(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	out := make([]blockSummary, len(c.blocks))
	for i, b := range c.blocks {
		out[i] = summarizeBlock(b)
	}
	return jsonResult(out)
}

func (s *Server) handleCreateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	args := req.GetArguments()
	c, err := s.contents(ctx, args)
	if err != nil {
		return nil, err
	}
	b := domain.MaterialBlock{BoardID: c.boardID, Title: title}
	b.SetRect(s.place(c, args, interaction.BlockDefaultSize))
	if err := s.stores.Blocks.CreateBlock(ctx, &b); err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	s.changed(ctx, c.boardID)
	return jsonResult(summarizeBlock(b))
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	args := req.GetArguments()

	var patch domain.BlockPatch
	if title := strings.TrimSpace(req.GetString("title", "")); title != "" {
		patch.Title = &title
	}
	if v, ok := args["x"].(float64); ok {
		patch.X = &v
	}
	if v, ok := args["y"].(float64); ok {
		patch.Y = &v
	}
	if v, ok := args["width"].(float64); ok {
		v = math.Max(v, selection.BlockMinSize.W)
		patch.Width = &v
	}
	if v, ok := args["height"].(float64); ok {
		v = math.Max(v, selection.BlockMinSize.H)
		patch.Height = &v
	}

	b, err := s.stores.Blocks.UpdateBlock(ctx, blockID, patch)
	if err != nil {
		return nil, fmt.Errorf("update block %s: %w", blockID, err)
	}
	s.changed(ctx, b.BoardID)
	return jsonResult(summarizeBlock(*b))
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	c, err := s.contents(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	var block *domain.MaterialBlock
	for i := range c.blocks {
		if c.blocks[i].ID == blockID {
			block = &c.blocks[i]
		}
	}
	if block == nil {
		return nil, fmt.Errorf("block %s: %w", blockID, domain.ErrNotFound)
	}

	ref := domain.BlockRef(blockID)
	var attached []string
	for _, el := range c.elements {
		if conn := el.Payload.Connector; conn != nil && (conn.From.Target == ref || conn.To.Target == ref) {
			attached = append(attached, el.ID)
		}
	}

	meta, _ := json.Marshal(map[string]any{"boardId": c.boardID, "blockId": blockID, "elementIds": attached})
	if err := s.approval.Request(ctx, "delete_block", fmt.Sprintf("Delete block %q", block.Title), string(meta)); err != nil {
		return nil, err
	}

	if err := s.stores.Blocks.DeleteBlock(ctx, blockID); err != nil {
		return nil, fmt.Errorf("delete block: %w", err)
	}
	for _, id := range attached {
		if err := s.stores.Elements.DeleteElement(ctx, id); err != nil {
			return nil, fmt.Errorf("delete connector %s: %w", id, err)
		}
	}
	s.changed(ctx, c.boardID)
	return textResult(fmt.Sprintf("Block %s deleted", blockID)), nil
}
