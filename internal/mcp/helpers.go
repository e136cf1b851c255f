package mcpserver

import (
	"strings"

	"board/internal/domain"
)

// getFloat reads a numeric tool argument.
func getFloat(args map[string]any, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// hasPoint reports whether both x and y were supplied.
func hasPoint(args map[string]any) bool {
	_, okX := args["x"].(float64)
	_, okY := args["y"].(float64)
	return okX && okY
}

// splitIDs parses a comma-separated id list, skipping blanks.
func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

// elementSummary is the compact view of an element returned to agents.
type elementSummary struct {
	ID     string             `json:"id"`
	Type   domain.ElementType `json:"type"`
	X      float64            `json:"x"`
	Y      float64            `json:"y"`
	Width  float64            `json:"width"`
	Height float64            `json:"height"`
	Text   string             `json:"text,omitempty"`
	Color  string             `json:"color,omitempty"`
	Title  string             `json:"title,omitempty"`
	URL    string             `json:"url,omitempty"`
	From   *domain.AnchorRef  `json:"from,omitempty"`
	To     *domain.AnchorRef  `json:"to,omitempty"`
	Points int                `json:"points,omitempty"`
}

func summarizeElement(e domain.Element) elementSummary {
	s := elementSummary{ID: e.ID, Type: e.Type, X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
	p := e.Payload
	switch {
	case p.Text != nil:
		s.Text, s.Color = p.Text.Content, p.Text.Color
	case p.Frame != nil:
		s.Title = p.Frame.Title
	case p.Embed != nil:
		s.Title, s.URL = p.Embed.Title, p.Embed.URL
	case p.Drawing != nil:
		s.Color, s.Points = p.Drawing.Color, len(p.Drawing.Points)
	case p.Connector != nil:
		from, to := p.Connector.From, p.Connector.To
		s.From, s.To = &from, &to
	}
	return s
}

type blockSummary struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	CardsCount int     `json:"cardsCount"`
}

func summarizeBlock(b domain.MaterialBlock) blockSummary {
	return blockSummary{
		ID: b.ID, Title: b.Title, X: b.X, Y: b.Y,
		Width: b.Width, Height: b.Height, CardsCount: b.CardsCount,
	}
}
