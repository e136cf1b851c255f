package domain

import (
	"board/internal/geom"
)

// Payload carries the type-specific part of an element. Exactly one arm is
// set, and which one is determined by the element type.
type Payload struct {
	Text      *TextPayload      `json:"text,omitempty"`
	Frame     *FramePayload     `json:"frame,omitempty"`
	Embed     *EmbedPayload     `json:"embed,omitempty"`
	Drawing   *DrawingPayload   `json:"drawing,omitempty"`
	Connector *ConnectorPayload `json:"connector,omitempty"`
}

// TextPayload is used by notes and free text.
type TextPayload struct {
	Content   string `json:"content"`
	Color     string `json:"color,omitempty"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	Strike    bool   `json:"strike,omitempty"`
}

type FramePayload struct {
	Title string `json:"title"`
}

// EmbedPayload is used by documents and links.
type EmbedPayload struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	PreviewImageURL string `json:"previewImageUrl,omitempty"`
}

// DrawingPayload is a freehand stroke. Points are relative to the element origin.
type DrawingPayload struct {
	Points []geom.Point `json:"points"`
	Color  string       `json:"color"`
	Width  float64      `json:"width"`
}

// ConnectorPayload links two anchor targets with a bendable curve.
type ConnectorPayload struct {
	From  AnchorRef      `json:"from"`
	To    AnchorRef      `json:"to"`
	Bend  geom.Point     `json:"bend"`
	Style ConnectorStyle `json:"style"`
}

type ConnectorStyle struct {
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
	ArrowEnd bool    `json:"arrowEnd"`
}

// DefaultPayload returns an empty payload of the right shape for t.
func DefaultPayload(t ElementType) Payload {
	switch t {
	case ElementNote:
		return Payload{Text: &TextPayload{Color: "#fde68a"}}
	case ElementText:
		return Payload{Text: &TextPayload{}}
	case ElementFrame:
		return Payload{Frame: &FramePayload{Title: "Frame"}}
	case ElementDocument, ElementLink:
		return Payload{Embed: &EmbedPayload{}}
	case ElementDrawing:
		return Payload{Drawing: &DrawingPayload{Color: "#111827", Width: 2}}
	case ElementConnector:
		return Payload{Connector: &ConnectorPayload{Style: ConnectorStyle{Color: "#666666", Width: 2, ArrowEnd: true}}}
	}
	return Payload{}
}

func (p Payload) validateFor(t ElementType) error {
	var ok bool
	switch t {
	case ElementNote, ElementText:
		ok = p.Text != nil
	case ElementFrame:
		ok = p.Frame != nil
	case ElementDocument, ElementLink:
		ok = p.Embed != nil
	case ElementDrawing:
		ok = p.Drawing != nil
	case ElementConnector:
		if p.Connector == nil {
			return validationf("connector without endpoints")
		}
		return p.Connector.Validate()
	}
	if !ok {
		return validationf("payload does not match element type %q", t)
	}
	return nil
}

// Validate enforces that both ends are set and resolve to distinct targets.
func (c ConnectorPayload) Validate() error {
	if !c.From.Valid() || !c.To.Valid() {
		return validationf("connector endpoint missing target or side")
	}
	if c.From.Target == c.To.Target {
		return validationf("connector endpoints must differ")
	}
	return nil
}

// Clone deep-copies every set arm.
func (p Payload) Clone() Payload {
	var out Payload
	if p.Text != nil {
		v := *p.Text
		out.Text = &v
	}
	if p.Frame != nil {
		v := *p.Frame
		out.Frame = &v
	}
	if p.Embed != nil {
		v := *p.Embed
		out.Embed = &v
	}
	if p.Drawing != nil {
		v := *p.Drawing
		v.Points = append([]geom.Point(nil), p.Drawing.Points...)
		out.Drawing = &v
	}
	if p.Connector != nil {
		v := *p.Connector
		out.Connector = &v
	}
	return out
}

// Merge overlays the arms set in o onto p.
func (p Payload) Merge(o Payload) Payload {
	out := p.Clone()
	o = o.Clone()
	if o.Text != nil {
		out.Text = o.Text
	}
	if o.Frame != nil {
		out.Frame = o.Frame
	}
	if o.Embed != nil {
		out.Embed = o.Embed
	}
	if o.Drawing != nil {
		out.Drawing = o.Drawing
	}
	if o.Connector != nil {
		out.Connector = o.Connector
	}
	return out
}

// Equal compares payload contents.
func (p Payload) Equal(o Payload) bool {
	if !eqPtr(p.Text, o.Text) || !eqPtr(p.Frame, o.Frame) ||
		!eqPtr(p.Embed, o.Embed) || !eqPtr(p.Connector, o.Connector) {
		return false
	}
	if (p.Drawing == nil) != (o.Drawing == nil) {
		return false
	}
	if p.Drawing != nil {
		a, b := p.Drawing, o.Drawing
		if a.Color != b.Color || a.Width != b.Width || len(a.Points) != len(b.Points) {
			return false
		}
		for i := range a.Points {
			if a.Points[i] != b.Points[i] {
				return false
			}
		}
	}
	return true
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
