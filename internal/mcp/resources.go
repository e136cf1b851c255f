package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	boardsURI      = "board://boards"
	boardURIPrefix = "board://board/"
	boardURISuffix = "/state"
)

func (s *Server) registerResources() {
	// ── board://boards ─────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		boardsURI,
		"All Boards",
		mcp.WithMIMEType("application/json"),
	), s.handleBoardsResource)

	// ── board://board/{boardId}/state ──────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			boardURIPrefix+"{boardId}"+boardURISuffix,
			"Elements and Blocks on a Board",
		),
		s.handleBoardStateResource,
	)
}

func (s *Server) handleBoardsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	boards, err := s.boards.ListBoards(ctx)
	if err != nil {
		return nil, err
	}

	type boardSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	summaries := make([]boardSummary, len(boards))
	for i, b := range boards {
		summaries[i] = boardSummary{ID: b.ID, Name: b.Name}
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      boardsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleBoardStateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	boardID := boardIDFromURI(uri)
	if boardID == "" {
		return nil, fmt.Errorf("could not extract boardId from URI: %s", uri)
	}

	state, err := s.boards.LoadBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	out := struct {
		ID       string           `json:"id"`
		Name     string           `json:"name"`
		Elements []elementSummary `json:"elements"`
		Blocks   []blockSummary   `json:"blocks"`
	}{
		ID:       state.Board.ID,
		Name:     state.Board.Name,
		Elements: make([]elementSummary, len(state.Elements)),
		Blocks:   make([]blockSummary, len(state.Blocks)),
	}
	for i, e := range state.Elements {
		out.Elements[i] = summarizeElement(e)
	}
	for i, b := range state.Blocks {
		out.Blocks[i] = summarizeBlock(b)
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// boardIDFromURI extracts the id from "board://board/{id}/state".
func boardIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, boardURIPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, boardURISuffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
