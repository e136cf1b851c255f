package storage

import (
	"context"
	"fmt"

	"board/internal/domain"
)

const blockColumns = `id, board_id, title, x, y, width, height, cards_count, created_at, updated_at`

// BlockStore implements domain.MaterialBlockStore over SQL.
type BlockStore struct {
	db *DB
}

func NewBlockStore(db *DB) *BlockStore {
	return &BlockStore{db: db}
}

func scanBlock(r rowScanner) (domain.MaterialBlock, error) {
	var b domain.MaterialBlock
	err := r.Scan(&b.ID, &b.BoardID, &b.Title, &b.X, &b.Y, &b.Width, &b.Height,
		&b.CardsCount, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (s *BlockStore) CreateBlock(ctx context.Context, b *domain.MaterialBlock) error {
	if b.ID == "" || domain.IsTempID(b.ID) {
		b.ID = domain.NewID()
	}
	ts := now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = ts
	}
	b.UpdatedAt = ts
	_, err := s.db.exec(ctx,
		`INSERT INTO material_blocks (`+blockColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.BoardID, b.Title, b.X, b.Y, b.Width, b.Height, b.CardsCount, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (s *BlockStore) GetBlock(ctx context.Context, id string) (*domain.MaterialBlock, error) {
	b, err := scanBlock(s.db.queryRow(ctx, `SELECT `+blockColumns+` FROM material_blocks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", id, notFound(err))
	}
	return &b, nil
}

func (s *BlockStore) ListBlocks(ctx context.Context, boardID string) ([]domain.MaterialBlock, error) {
	rows, err := s.db.query(ctx,
		`SELECT `+blockColumns+` FROM material_blocks WHERE board_id = ? ORDER BY created_at ASC`,
		boardID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []domain.MaterialBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (s *BlockStore) UpdateBlock(ctx context.Context, id string, patch domain.BlockPatch) (*domain.MaterialBlock, error) {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	b, err := scanBlock(tx.QueryRowContext(ctx,
		s.db.rebind(`SELECT `+blockColumns+` FROM material_blocks WHERE id = ?`), id))
	if err != nil {
		return nil, fmt.Errorf("update block %s: %w", id, notFound(err))
	}
	patch.Apply(&b)
	b.UpdatedAt = now()
	if _, err := tx.ExecContext(ctx, s.db.rebind(
		`UPDATE material_blocks SET title = ?, x = ?, y = ?, width = ?, height = ?, updated_at = ? WHERE id = ?`),
		b.Title, b.X, b.Y, b.Width, b.Height, b.UpdatedAt, id,
	); err != nil {
		return nil, fmt.Errorf("update block %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &b, nil
}

func (s *BlockStore) DeleteBlock(ctx context.Context, id string) error {
	if _, err := s.db.exec(ctx, `DELETE FROM material_blocks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete block %s: %w", id, err)
	}
	return nil
}
