package storage

import (
	"context"
	"fmt"

	"board/internal/domain"
)

// BoardStore implements domain.BoardStore over SQL.
type BoardStore struct {
	db *DB
}

func NewBoardStore(db *DB) *BoardStore {
	return &BoardStore{db: db}
}

func (s *BoardStore) CreateBoard(ctx context.Context, b *domain.Board) error {
	if b.ID == "" {
		b.ID = domain.NewID()
	}
	ts := now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = ts
	}
	b.UpdatedAt = ts
	_, err := s.db.exec(ctx,
		`INSERT INTO boards (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.Name, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}
	return nil
}

func (s *BoardStore) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	b := &domain.Board{}
	err := s.db.queryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM boards WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get board %s: %w", id, notFound(err))
	}
	return b, nil
}

func (s *BoardStore) ListBoards(ctx context.Context) ([]domain.Board, error) {
	rows, err := s.db.query(ctx, `SELECT id, name, created_at, updated_at FROM boards ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []domain.Board
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (s *BoardStore) RenameBoard(ctx context.Context, id, name string) error {
	res, err := s.db.exec(ctx, `UPDATE boards SET name = ?, updated_at = ? WHERE id = ?`, name, now(), id)
	if err != nil {
		return fmt.Errorf("rename board: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rename board %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteBoard removes the board and everything placed on it.
func (s *BoardStore) DeleteBoard(ctx context.Context, id string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM elements WHERE board_id = ?`,
		`DELETE FROM material_blocks WHERE board_id = ?`,
		`DELETE FROM board_views WHERE board_id = ?`,
		`DELETE FROM boards WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, s.db.rebind(q), id); err != nil {
			return fmt.Errorf("delete board %s: %w", id, err)
		}
	}
	return tx.Commit()
}
