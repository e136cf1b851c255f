package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"board/internal/domain"
)

const elementColumns = `id, board_id, type, x, y, width, height, rotation, z_index, payload_json, created_at, updated_at`

// ElementStore implements domain.ElementStore over SQL.
type ElementStore struct {
	db *DB
}

func NewElementStore(db *DB) *ElementStore {
	return &ElementStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElement(r rowScanner) (domain.Element, error) {
	var (
		e       domain.Element
		payload string
	)
	if err := r.Scan(&e.ID, &e.BoardID, &e.Type, &e.X, &e.Y, &e.Width, &e.Height,
		&e.Rotation, &e.ZIndex, &payload, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return e, err
	}
	if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
		return e, fmt.Errorf("decode payload of %s: %w", e.ID, err)
	}
	return e, nil
}

func encodePayload(p domain.Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(data), nil
}

func (s *ElementStore) ListElements(ctx context.Context, boardID string) ([]domain.Element, error) {
	rows, err := s.db.query(ctx,
		`SELECT `+elementColumns+` FROM elements WHERE board_id = ? ORDER BY z_index ASC, created_at ASC`,
		boardID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Element
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *ElementStore) GetElement(ctx context.Context, id string) (*domain.Element, error) {
	e, err := scanElement(s.db.queryRow(ctx, `SELECT `+elementColumns+` FROM elements WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get element %s: %w", id, notFound(err))
	}
	return &e, nil
}

// CreateElement inserts e. Empty and temp ids are replaced with a fresh id.
func (s *ElementStore) CreateElement(ctx context.Context, e *domain.Element) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" || domain.IsTempID(e.ID) {
		e.ID = domain.NewID()
	}
	ts := now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = ts
	}
	e.UpdatedAt = ts
	payload, err := encodePayload(e.Payload)
	if err != nil {
		return err
	}
	_, err = s.db.exec(ctx,
		`INSERT INTO elements (`+elementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BoardID, e.Type, e.X, e.Y, e.Width, e.Height, e.Rotation, e.ZIndex, payload, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert element: %w", err)
	}
	return nil
}

// UpdateElement applies patch inside a transaction and returns the stored record.
func (s *ElementStore) UpdateElement(ctx context.Context, id string, patch domain.ElementPatch) (*domain.Element, error) {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	e, err := scanElement(tx.QueryRowContext(ctx,
		s.db.rebind(`SELECT `+elementColumns+` FROM elements WHERE id = ?`), id))
	if err != nil {
		return nil, fmt.Errorf("update element %s: %w", id, notFound(err))
	}
	patch.Apply(&e)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.UpdatedAt = now()
	payload, err := encodePayload(e.Payload)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, s.db.rebind(
		`UPDATE elements SET x = ?, y = ?, width = ?, height = ?, rotation = ?, z_index = ?, payload_json = ?, updated_at = ? WHERE id = ?`),
		e.X, e.Y, e.Width, e.Height, e.Rotation, e.ZIndex, payload, e.UpdatedAt, id,
	); err != nil {
		return nil, fmt.Errorf("update element %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &e, nil
}

func (s *ElementStore) DeleteElement(ctx context.Context, id string) error {
	if _, err := s.db.exec(ctx, `DELETE FROM elements WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete element %s: %w", id, err)
	}
	return nil
}
