package storage

import (
	"context"
	"fmt"

	"board/internal/domain"
)

// ApprovalStore implements domain.ApprovalStore over SQL.
type ApprovalStore struct {
	db *DB
}

func NewApprovalStore(db *DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

func (s *ApprovalStore) CreateApproval(ctx context.Context, a *domain.Approval) error {
	if a.ID == "" {
		a.ID = domain.NewID()
	}
	if a.Status == "" {
		a.Status = domain.ApprovalPending
	}
	if a.Metadata == "" {
		a.Metadata = "{}"
	}
	a.CreatedAt = now()
	_, err := s.db.exec(ctx,
		`INSERT INTO mcp_approvals (id, tool, description, status, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Tool, a.Description, string(a.Status), a.Metadata, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (s *ApprovalStore) GetApproval(ctx context.Context, id string) (*domain.Approval, error) {
	var a domain.Approval
	var status string
	err := s.db.queryRow(ctx,
		`SELECT id, tool, description, status, metadata, created_at FROM mcp_approvals WHERE id = ?`, id,
	).Scan(&a.ID, &a.Tool, &a.Description, &status, &a.Metadata, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get approval %s: %w", id, notFound(err))
	}
	a.Status = domain.ApprovalStatus(status)
	return &a, nil
}

func (s *ApprovalStore) ListPendingApprovals(ctx context.Context) ([]domain.Approval, error) {
	rows, err := s.db.query(ctx,
		`SELECT id, tool, description, status, metadata, created_at FROM mcp_approvals WHERE status = ? ORDER BY created_at`,
		string(domain.ApprovalPending),
	)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []domain.Approval
	for rows.Next() {
		var a domain.Approval
		var status string
		if err := rows.Scan(&a.ID, &a.Tool, &a.Description, &status, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		a.Status = domain.ApprovalStatus(status)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *ApprovalStore) ResolveApproval(ctx context.Context, id string, status domain.ApprovalStatus) error {
	res, err := s.db.exec(ctx, `UPDATE mcp_approvals SET status = ? WHERE id = ? AND status = ?`,
		string(status), id, string(domain.ApprovalPending))
	if err != nil {
		return fmt.Errorf("resolve approval %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("resolve approval %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *ApprovalStore) DeleteApproval(ctx context.Context, id string) error {
	if _, err := s.db.exec(ctx, `DELETE FROM mcp_approvals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete approval %s: %w", id, err)
	}
	return nil
}
