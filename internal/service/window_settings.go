package service

import (
	"context"
	"fmt"
	"strconv"

	"board/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Window and session persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the main window size and the last opened board
// between sessions, as key/value rows in the settings store.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowSettingsService persists window size and the last board between sessions.
type WindowSettingsService struct {
	store domain.SettingsStore
}

// NewWindowSettingsService creates a WindowSettingsService. store may be nil.
func NewWindowSettingsService(store domain.SettingsStore) *WindowSettingsService {
	return &WindowSettingsService{store: store}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	settingLastBoard    = "last_board"
	defaultWindowWidth  = 1280
	defaultWindowHeight = 800
)

// LoadWindowSize returns the saved window dimensions, or sensible defaults.
func (s *WindowSettingsService) LoadWindowSize(ctx context.Context) WindowSize {
	w := s.intSetting(ctx, settingWindowWidth, defaultWindowWidth)
	h := s.intSetting(ctx, settingWindowHeight, defaultWindowHeight)
	if w < 800 {
		w = defaultWindowWidth
	}
	if h < 600 {
		h = defaultWindowHeight
	}
	return WindowSize{Width: w, Height: h}
}

// SaveWindowSize persists the current window dimensions.
func (s *WindowSettingsService) SaveWindowSize(ctx context.Context, width, height int) error {
	if s.store == nil {
		return fmt.Errorf("window settings: no store")
	}
	if err := s.store.SetSetting(ctx, settingWindowWidth, strconv.Itoa(width)); err != nil {
		return fmt.Errorf("save window width: %w", err)
	}
	if err := s.store.SetSetting(ctx, settingWindowHeight, strconv.Itoa(height)); err != nil {
		return fmt.Errorf("save window height: %w", err)
	}
	return nil
}

// LastBoard returns the id of the board open at the end of the last session.
func (s *WindowSettingsService) LastBoard(ctx context.Context) string {
	if s.store == nil {
		return ""
	}
	v, _, err := s.store.GetSetting(ctx, settingLastBoard)
	if err != nil {
		return ""
	}
	return v
}

func (s *WindowSettingsService) SetLastBoard(ctx context.Context, id string) error {
	if s.store == nil {
		return nil
	}
	return s.store.SetSetting(ctx, settingLastBoard, id)
}

func (s *WindowSettingsService) intSetting(ctx context.Context, key string, def int) int {
	if s.store == nil {
		return def
	}
	v, ok, err := s.store.GetSetting(ctx, key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
