package domain

import "context"

// SettingsStore is a small key/value table for per-install preferences.
type SettingsStore interface {
	// GetSetting returns ok=false when key has never been set.
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
	SetSetting(ctx context.Context, key, value string) error
}
