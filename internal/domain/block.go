package domain

import (
	"context"
	"time"

	"board/internal/geom"
)

// MaterialBlock is a card container placed on a board. Its card content is
// managed elsewhere; the canvas only knows its geometry and a summary.
type MaterialBlock struct {
	ID         string    `json:"id"`
	BoardID    string    `json:"boardId"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Title      string    `json:"title"`
	CardsCount int       `json:"cardsCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (b MaterialBlock) Rect() geom.Rect {
	return geom.Rect{X: b.X, Y: b.Y, W: b.Width, H: b.Height}
}

func (b *MaterialBlock) SetRect(r geom.Rect) {
	b.X, b.Y, b.Width, b.Height = r.X, r.Y, r.W, r.H
}

// BlockPatch is a partial update of a material block.
type BlockPatch struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Title  *string  `json:"title,omitempty"`
}

func BlockGeometryPatch(r geom.Rect) BlockPatch {
	return BlockPatch{X: &r.X, Y: &r.Y, Width: &r.W, Height: &r.H}
}

func (p BlockPatch) Apply(b *MaterialBlock) {
	if p.X != nil {
		b.X = *p.X
	}
	if p.Y != nil {
		b.Y = *p.Y
	}
	if p.Width != nil {
		b.Width = *p.Width
	}
	if p.Height != nil {
		b.Height = *p.Height
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
}

type MaterialBlockStore interface {
	ListBlocks(ctx context.Context, boardID string) ([]MaterialBlock, error)
	CreateBlock(ctx context.Context, b *MaterialBlock) error
	UpdateBlock(ctx context.Context, id string, patch BlockPatch) (*MaterialBlock, error)
	DeleteBlock(ctx context.Context, id string) error
}
