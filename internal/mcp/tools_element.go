package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"board/internal/connector"
	"board/internal/domain"
	"board/internal/geom"
	"board/internal/interaction"
	"board/internal/selection"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerElementTools() {
	// ── list_elements ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List the elements on a board, optionally filtered by type"),
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
		mcp.WithString("type", mcp.Description("Filter by type: note, text, frame, document, link, drawing, connector")),
	), s.handleListElements)

	// ── create_note ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_note", withPlacement(
			mcp.WithDescription("Create a sticky note. Position is auto-calculated if x/y are omitted."),
			mcp.WithString("text", mcp.Description("Note text"), mcp.Required()),
			mcp.WithString("color", mcp.Description("Note color as #rrggbb (optional)")),
		)...,
	), s.handleCreateNote)

	// ── create_text ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_text", withPlacement(
			mcp.WithDescription("Create a free text label. Position is auto-calculated if x/y are omitted."),
			mcp.WithString("text", mcp.Description("Label text"), mcp.Required()),
		)...,
	), s.handleCreateText)

	// ── create_frame ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_frame", withPlacement(
			mcp.WithDescription("Create a titled frame used to group elements visually"),
			mcp.WithString("title", mcp.Description("Frame title"), mcp.Required()),
		)...,
	), s.handleCreateFrame)

	// ── create_link ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_link", withPlacement(
			mcp.WithDescription("Create a link card pointing at a URL"),
			mcp.WithString("url", mcp.Description("Target URL"), mcp.Required()),
			mcp.WithString("title", mcp.Description("Card title (defaults to the URL)")),
		)...,
	), s.handleCreateLink)

	// ── create_drawing ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_drawing",
		mcp.WithDescription("Create a freehand stroke from absolute board coordinates"),
		mcp.WithString("points",
			mcp.Description(`JSON array of points, e.g. [{"x":0,"y":0},{"x":40,"y":20}]`),
			mcp.Required(),
		),
		mcp.WithString("color", mcp.Description("Stroke color as #rrggbb (optional)")),
		mcp.WithNumber("strokeWidth", mcp.Description("Stroke width (optional)")),
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
	), s.handleCreateDrawing)

	// ── update_text ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_text",
		mcp.WithDescription("Replace the text of a note or text label, or the title of a frame or link card"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("New text"), mcp.Required()),
		mcp.WithString("color", mcp.Description("New color as #rrggbb (notes and labels only, optional)")),
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
	), s.handleUpdateText)

	// ── move_element ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_element",
		mcp.WithDescription("Move an element to a new position"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
	), s.handleMoveElement)

	// ── resize_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_element",
		mcp.WithDescription("Resize an element. Sizes below the per-type minimum are clamped."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
	), s.handleResizeElement)

	// ── connect_elements ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("connect_elements",
		mcp.WithDescription("Draw a connector arrow between two elements or material blocks. Sides default to the ones facing each other."),
		mcp.WithString("fromId", mcp.Description("Source element or block ID"), mcp.Required()),
		mcp.WithString("toId", mcp.Description("Target element or block ID"), mcp.Required()),
		mcp.WithString("fromSide", mcp.Description("top, right, bottom or left (optional)")),
		mcp.WithString("toSide", mcp.Description("top, right, bottom or left (optional)")),
		mcp.WithString("color", mcp.Description("Line color as #rrggbb (optional)")),
		mcp.WithBoolean("arrow", mcp.Description("Draw an arrow head at the target (default true)")),
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
	), s.handleConnectElements)

	// ── arrange_elements ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_elements",
		mcp.WithDescription("Arrange elements in a grid. Connectors follow their endpoints."),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs (optional, defaults to every element that can be connected)")),
		mcp.WithNumber("startX", mcp.Description("Starting X position (default 0)")),
		mcp.WithNumber("startY", mcp.Description("Starting Y position (default 0)")),
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
	), s.handleArrangeElements)

	// ── delete_elements (destructive) ──────────────────
	s.mcp.AddTool(mcp.NewTool("delete_elements",
		mcp.WithDescription("Delete elements with a single approval. Connectors attached to them are deleted too. Requires user approval."),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs"), mcp.Required()),
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteElements)
}

// withPlacement appends the board/position/size arguments shared by the
// create_* tools.
func withPlacement(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts,
		mcp.WithString("boardId", mcp.Description("Board ID (optional, defaults to active board)")),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
		mcp.WithNumber("width", mcp.Description("Width (optional, uses the type default)")),
		mcp.WithNumber("height", mcp.Description("Height (optional, uses the type default)")),
	)
}

// ── Board contents ─────────────────────────────────────────

type boardContents struct {
	boardID  string
	elements []domain.Element
	blocks   []domain.MaterialBlock
}

func (s *Server) contents(ctx context.Context, args map[string]any) (*boardContents, error) {
	boardID, err := s.resolveBoardID(args)
	if err != nil {
		return nil, err
	}
	els, blocks, err := s.boards.LoadContents(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return &boardContents{boardID: boardID, elements: els, blocks: blocks}, nil
}

func (c *boardContents) element(id string) (domain.Element, error) {
	for _, e := range c.elements {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Element{}, fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
}

// target resolves id to a connectable element or material block.
func (c *boardContents) target(id string) (domain.Ref, geom.Rect, error) {
	for _, e := range c.elements {
		if e.ID != id {
			continue
		}
		if !connector.Eligible(e.Type) {
			return domain.Ref{}, geom.Rect{}, fmt.Errorf("%s elements cannot be connected", e.Type)
		}
		return domain.ElementRef(id), e.Rect(), nil
	}
	for _, b := range c.blocks {
		if b.ID == id {
			return domain.BlockRef(id), b.Rect(), nil
		}
	}
	return domain.Ref{}, geom.Rect{}, fmt.Errorf("element or block %s: %w", id, domain.ErrNotFound)
}

// occupied returns the footprints auto-layout must avoid. Connector bounds
// are derived from their endpoints and are skipped.
func (c *boardContents) occupied() []geom.Rect {
	out := make([]geom.Rect, 0, len(c.elements)+len(c.blocks))
	for _, e := range c.elements {
		if e.Type != domain.ElementConnector {
			out = append(out, e.Rect())
		}
	}
	for _, b := range c.blocks {
		out = append(out, b.Rect())
	}
	return out
}

func (c *boardContents) nextZ() int {
	z := 0
	for _, e := range c.elements {
		if e.ZIndex >= z {
			z = e.ZIndex + 1
		}
	}
	return z
}

// place returns the rect for a new item: the requested position and size, or
// the type default at the next free grid slot.
func (s *Server) place(c *boardContents, args map[string]any, def geom.Size) geom.Rect {
	w := getFloat(args, "width", def.W)
	h := getFloat(args, "height", def.H)
	if hasPoint(args) {
		return geom.Rect{X: getFloat(args, "x", 0), Y: getFloat(args, "y", 0), W: w, H: h}
	}
	p := s.layout.NextPosition(c.occupied(), geom.Point{}, w, h)
	return geom.Rect{X: p.X, Y: p.Y, W: w, H: h}
}

func (s *Server) insert(ctx context.Context, c *boardContents, el domain.Element) (*mcp.CallToolResult, error) {
	el.BoardID = c.boardID
	el.ZIndex = c.nextZ()
	if err := s.stores.Elements.CreateElement(ctx, &el); err != nil {
		return nil, fmt.Errorf("create %s: %w", el.Type, err)
	}
	s.changed(ctx, c.boardID)
	return jsonResult(summarizeElement(el))
}

func (s *Server) createBoxed(ctx context.Context, args map[string]any, t domain.ElementType, fill func(*domain.Payload)) (*mcp.CallToolResult, error) {
	c, err := s.contents(ctx, args)
	if err != nil {
		return nil, err
	}
	el := domain.Element{Type: t, Payload: domain.DefaultPayload(t)}
	fill(&el.Payload)
	el.SetRect(s.place(c, args, interaction.DefaultSize(t)))
	return s.insert(ctx, c, el)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.contents(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	filter := domain.ElementType(req.GetString("type", ""))
	out := make([]elementSummary, 0, len(c.elements))
	for _, e := range c.elements {
		if filter != "" && e.Type != filter {
			continue
		}
		out = append(out, summarizeElement(e))
	}
	return jsonResult(out)
}

func (s *Server) handleCreateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	color := req.GetString("color", "")
	return s.createBoxed(ctx, req.GetArguments(), domain.ElementNote, func(p *domain.Payload) {
		p.Text.Content = text
		if color != "" {
			p.Text.Color = color
		}
	})
}

func (s *Server) handleCreateText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	return s.createBoxed(ctx, req.GetArguments(), domain.ElementText, func(p *domain.Payload) {
		p.Text.Content = text
	})
}

func (s *Server) handleCreateFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	return s.createBoxed(ctx, req.GetArguments(), domain.ElementFrame, func(p *domain.Payload) {
		if title != "" {
			p.Frame.Title = title
		}
	})
}

func (s *Server) handleCreateLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := strings.TrimSpace(req.GetString("url", ""))
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	title := req.GetString("title", url)
	return s.createBoxed(ctx, req.GetArguments(), domain.ElementLink, func(p *domain.Payload) {
		p.Embed.URL = url
		p.Embed.Title = title
	})
}

func (s *Server) handleCreateDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var points []geom.Point
	if err := json.Unmarshal([]byte(req.GetString("points", "")), &points); err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	c, err := s.contents(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	def := domain.DefaultPayload(domain.ElementDrawing).Drawing
	color := req.GetString("color", def.Color)
	width := req.GetFloat("strokeWidth", def.Width)
	el, ok := interaction.StrokeElement(points, color, width)
	if !ok {
		return nil, fmt.Errorf("points must not be empty")
	}
	return s.insert(ctx, c, el)
}

func (s *Server) handleUpdateText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.contents(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	el, err := c.element(req.GetString("elementId", ""))
	if err != nil {
		return nil, err
	}
	text := req.GetString("text", "")
	p := el.Payload.Clone()
	switch {
	case p.Text != nil:
		p.Text.Content = text
		if color := req.GetString("color", ""); color != "" {
			p.Text.Color = color
		}
	case p.Frame != nil:
		p.Frame.Title = text
	case p.Embed != nil:
		p.Embed.Title = text
	default:
		return nil, fmt.Errorf("%s elements have no text", el.Type)
	}
	return s.patch(ctx, c.boardID, el.ID, domain.ElementPatch{Payload: &p})
}

func (s *Server) handleMoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.contents(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	el, err := c.element(req.GetString("elementId", ""))
	if err != nil {
		return nil, err
	}
	if el.Type == domain.ElementConnector {
		return nil, fmt.Errorf("connectors follow their endpoints and cannot be moved")
	}
	x, y := req.GetFloat("x", el.X), req.GetFloat("y", el.Y)
	return s.patch(ctx, c.boardID, el.ID, domain.ElementPatch{X: &x, Y: &y})
}

func (s *Server) handleResizeElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.contents(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	el, err := c.element(req.GetString("elementId", ""))
	if err != nil {
		return nil, err
	}
	switch el.Type {
	case domain.ElementConnector, domain.ElementDrawing:
		return nil, fmt.Errorf("%s elements cannot be resized", el.Type)
	}
	floor := selection.MinSize(el.Type)
	w := math.Max(req.GetFloat("width", el.Width), floor.W)
	h := math.Max(req.GetFloat("height", el.Height), floor.H)
	return s.patch(ctx, c.boardID, el.ID, domain.ElementPatch{Width: &w, Height: &h})
}

func (s *Server) patch(ctx context.Context, boardID, id string, p domain.ElementPatch) (*mcp.CallToolResult, error) {
	rec, err := s.stores.Elements.UpdateElement(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("update element %s: %w", id, err)
	}
	s.changed(ctx, boardID)
	return jsonResult(summarizeElement(*rec))
}

func (s *Server) handleConnectElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.contents(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	fromRef, fromRect, err := c.target(req.GetString("fromId", ""))
	if err != nil {
		return nil, err
	}
	toRef, toRect, err := c.target(req.GetString("toId", ""))
	if err != nil {
		return nil, err
	}

	fromSide, toSide := connector.FacingSides(fromRect, toRect)
	if side := domain.Side(req.GetString("fromSide", "")); side.Valid() {
		fromSide = side
	}
	if side := domain.Side(req.GetString("toSide", "")); side.Valid() {
		toSide = side
	}

	p := domain.DefaultPayload(domain.ElementConnector)
	p.Connector.From = domain.AnchorRef{Target: fromRef, Side: fromSide}
	p.Connector.To = domain.AnchorRef{Target: toRef, Side: toSide}
	if color := req.GetString("color", ""); color != "" {
		p.Connector.Style.Color = color
	}
	p.Connector.Style.ArrowEnd = req.GetBool("arrow", true)
	if err := p.Connector.Validate(); err != nil {
		return nil, err
	}

	el := domain.Element{Type: domain.ElementConnector, Payload: p}
	path := connector.Path(connector.AnchorFor(fromRect, fromSide), connector.AnchorFor(toRect, toSide), geom.Point{})
	el.SetRect(path.Bounds())
	return s.insert(ctx, c, el)
}

func (s *Server) handleArrangeElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	c, err := s.contents(ctx, args)
	if err != nil {
		return nil, err
	}

	var picked []domain.Element
	if ids := splitIDs(req.GetString("elementIds", "")); len(ids) > 0 {
		for _, id := range ids {
			el, err := c.element(id)
			if err != nil {
				return nil, err
			}
			if !connector.Eligible(el.Type) {
				return nil, fmt.Errorf("%s elements cannot be arranged", el.Type)
			}
			picked = append(picked, el)
		}
	} else {
		for _, el := range c.elements {
			if connector.Eligible(el.Type) {
				picked = append(picked, el)
			}
		}
	}
	if len(picked) == 0 {
		return textResult("Nothing to arrange"), nil
	}

	rects := make([]geom.Rect, len(picked))
	for i, el := range picked {
		rects[i] = el.Rect()
	}
	start := geom.Pt(getFloat(args, "startX", 0), getFloat(args, "startY", 0))
	arranged := s.layout.ArrangeGroup(rects, start)

	for i, el := range picked {
		r := arranged[i]
		if _, err := s.stores.Elements.UpdateElement(ctx, el.ID, domain.ElementPatch{X: &r.X, Y: &r.Y}); err != nil {
			return nil, fmt.Errorf("move element %s: %w", el.ID, err)
		}
	}
	s.changed(ctx, c.boardID)
	return textResult(fmt.Sprintf("Arranged %d elements", len(picked))), nil
}

func (s *Server) handleDeleteElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitIDs(req.GetString("elementIds", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("elementIds is required")
	}
	c, err := s.contents(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}

	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, err := c.element(id); err != nil {
			return nil, err
		}
		doomed[id] = true
	}
	for _, el := range c.elements {
		if conn := el.Payload.Connector; conn != nil &&
			(doomed[conn.From.Target.ID] || doomed[conn.To.Target.ID]) {
			doomed[el.ID] = true
		}
	}

	all := make([]string, 0, len(doomed))
	for id := range doomed {
		all = append(all, id)
	}
	meta, _ := json.Marshal(map[string]any{"boardId": c.boardID, "elementIds": all})
	desc := fmt.Sprintf("Delete %d element(s) from the board", len(all))
	if err := s.approval.Request(ctx, "delete_elements", desc, string(meta)); err != nil {
		return nil, err
	}

	for _, id := range all {
		if err := s.stores.Elements.DeleteElement(ctx, id); err != nil {
			return nil, fmt.Errorf("delete element %s: %w", id, err)
		}
	}
	s.changed(ctx, c.boardID)
	return textResult(fmt.Sprintf("Deleted %d element(s)", len(all))), nil
}
