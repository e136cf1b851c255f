package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"board/internal/geom"
)

// ViewRecordVersion is the schema version written by this code.
const ViewRecordVersion = 2

// ViewState is the live pan/zoom state of a board.
type ViewState struct {
	Offset geom.Point `json:"offset"`
	Scale  float64    `json:"scale"`
}

// ViewRecord is the durable, per-board viewport record. Version 1 records
// stored the desk point at the viewport center instead of the pan offset.
type ViewRecord struct {
	Version int         `json:"version"`
	Offset  *geom.Point `json:"offset,omitempty"`
	Center  *geom.Point `json:"center,omitempty"`
	Scale   float64     `json:"scale"`
}

// NewViewRecord builds a current-schema record.
func NewViewRecord(v ViewState) ViewRecord {
	off := v.Offset
	return ViewRecord{Version: ViewRecordVersion, Offset: &off, Scale: v.Scale}
}

// IsLegacy reports whether the record uses the center-based schema.
func (r ViewRecord) IsLegacy() bool {
	return r.Offset == nil && r.Center != nil
}

// ParseViewRecord decodes either schema.
func ParseViewRecord(data []byte) (*ViewRecord, error) {
	var r ViewRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse view record: %w", err)
	}
	if r.Offset == nil && r.Center == nil {
		return nil, fmt.Errorf("parse view record: neither offset nor center present")
	}
	if r.Version == 0 {
		if r.Center != nil && r.Offset == nil {
			r.Version = 1
		} else {
			r.Version = ViewRecordVersion
		}
	}
	return &r, nil
}

// Encode always emits the current schema.
func (r ViewRecord) Encode() ([]byte, error) {
	out := r
	out.Version = ViewRecordVersion
	out.Center = nil
	if out.Offset == nil {
		return nil, fmt.Errorf("encode view record: offset required")
	}
	return json.Marshal(out)
}

type ViewStateStore interface {
	// LoadView returns nil, nil when the board has no saved view.
	LoadView(ctx context.Context, boardID string) (*ViewRecord, error)
	SaveView(ctx context.Context, boardID string, r ViewRecord) error
}
