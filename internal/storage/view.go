package storage

import (
	"context"
	"fmt"

	"board/internal/domain"
)

// ViewStore implements domain.ViewStateStore and domain.SettingsStore over SQL.
type ViewStore struct {
	db *DB
}

func NewViewStore(db *DB) *ViewStore {
	return &ViewStore{db: db}
}

func (s *ViewStore) LoadView(ctx context.Context, boardID string) (*domain.ViewRecord, error) {
	var data string
	err := s.db.queryRow(ctx, `SELECT record_json FROM board_views WHERE board_id = ?`, boardID).Scan(&data)
	if err != nil {
		if err = notFound(err); err == domain.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("load view %s: %w", boardID, err)
	}
	return domain.ParseViewRecord([]byte(data))
}

func (s *ViewStore) SaveView(ctx context.Context, boardID string, r domain.ViewRecord) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}
	if _, err := s.db.exec(ctx, s.db.upsert("board_views", "board_id", "record_json", "updated_at"),
		boardID, string(data), now()); err != nil {
		return fmt.Errorf("save view %s: %w", boardID, err)
	}
	return nil
}

func (s *ViewStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.queryRow(ctx, `SELECT setting_value FROM app_settings WHERE setting_key = ?`, key).Scan(&v)
	if err != nil {
		if notFound(err) == domain.ErrNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

func (s *ViewStore) SetSetting(ctx context.Context, key, value string) error {
	if _, err := s.db.exec(ctx, s.db.upsert("app_settings", "setting_key", "setting_value"), key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
