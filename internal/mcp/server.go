package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"board/internal/domain"
	"board/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ElementsChangedEvent tells the front end that an agent wrote to a board.
const ElementsChangedEvent = "mcp:elements-changed"

// Server is the MCP server for the board.
// It exposes tools, resources, and prompts so AI agents can place and link
// elements on a board.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue
	layout   *LayoutEngine

	boards   *service.BoardService
	stores   service.Stores
	onChange func(boardID string)

	mu            sync.Mutex
	activeBoardID string
}

// Deps holds everything the App layer passes to the MCP server.
type Deps struct {
	Emitter EventEmitter
	Boards  *service.BoardService
	Stores  service.Stores

	// Approvals, when set, routes destructive-tool approvals through the
	// database (standalone mode) instead of in-process events.
	Approvals domain.ApprovalStore

	// ActiveBoardID seeds the board used when a tool omits boardId.
	ActiveBoardID string

	// OnChange is called after every write, e.g. to reload the open board.
	OnChange func(boardID string)
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	approval := NewApprovalQueue(ctx, deps.Emitter)
	if deps.Approvals != nil {
		approval.SetStore(deps.Approvals)
	}
	s := &Server{
		emitter:       deps.Emitter,
		approval:      approval,
		layout:        NewLayoutEngine(),
		boards:        deps.Boards,
		stores:        deps.Stores,
		onChange:      deps.OnChange,
		activeBoardID: deps.ActiveBoardID,
	}

	s.mcp = server.NewMCPServer(
		"board-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerBoardTools()
	s.registerElementTools()
	s.registerBlockTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("mcp: starting stdio server")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// SetActiveBoard changes the default board, e.g. when the user opens one.
func (s *Server) SetActiveBoard(id string) {
	s.mu.Lock()
	s.activeBoardID = id
	s.mu.Unlock()
}

// ActiveBoard returns the default board id.
func (s *Server) ActiveBoard() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeBoardID
}

// ── Helpers ────────────────────────────────────────────────

// changed notifies the front end and the host that boardID was written.
func (s *Server) changed(ctx context.Context, boardID string) {
	if s.emitter != nil {
		s.emitter.Emit(ctx, ElementsChangedEvent, map[string]string{"boardId": boardID})
	}
	if s.onChange != nil {
		s.onChange(boardID)
	}
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveBoardID returns boardId from the tool args or falls back to the
// active board.
func (s *Server) resolveBoardID(args map[string]any) (string, error) {
	if id, ok := args["boardId"].(string); ok && id != "" {
		return id, nil
	}
	if id := s.ActiveBoard(); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no boardId provided and no active board set (use set_active_board first)")
}
