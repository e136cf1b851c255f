package app

import (
	"fmt"

	"board/internal/domain"
	"board/internal/interaction"
)

// ============================================================
// Canvas input
// ============================================================
//
// Every binding runs on the engine thread (App.mu); the resulting frame is
// published by the frame loop.

func (a *App) PointerDown(ev interaction.PointerEvent) {
	a.withEngine(func(e *interaction.Engine) { e.PointerDown(ev) })
}

func (a *App) PointerMove(ev interaction.PointerEvent) {
	a.withEngine(func(e *interaction.Engine) { e.PointerMove(ev) })
}

func (a *App) PointerUp(ev interaction.PointerEvent) {
	a.withEngine(func(e *interaction.Engine) { e.PointerUp(ev) })
}

func (a *App) PointerCancel(ev interaction.PointerEvent) {
	a.withEngine(func(e *interaction.Engine) { e.PointerCancel(ev) })
}

// LostCapture abandons the gesture when the webview loses pointer capture.
func (a *App) LostCapture() {
	a.withEngine(func(e *interaction.Engine) { e.LostCapture() })
}

func (a *App) DoubleClick(ev interaction.PointerEvent) {
	a.withEngine(func(e *interaction.Engine) { e.DoubleClick(ev) })
}

func (a *App) Wheel(ev interaction.PointerEvent, deltaY float64) {
	a.withEngine(func(e *interaction.Engine) { e.Wheel(ev, deltaY) })
}

// Escape cancels the gesture in progress.
func (a *App) Escape() {
	a.withEngine(func(e *interaction.Engine) { e.Cancel() })
}

// ResizeCanvas reports the on-screen canvas size in pixels.
func (a *App) ResizeCanvas(width, height float64) {
	a.withEngine(func(e *interaction.Engine) { e.Resize(width, height) })
}

// ============================================================
// Tools & view
// ============================================================

func (a *App) SetTool(tool string) error {
	t := interaction.Tool(tool)
	if !t.Valid() {
		return fmt.Errorf("unknown tool %q", tool)
	}
	a.withEngine(func(e *interaction.Engine) { e.SetTool(t) })
	return nil
}

func (a *App) ZoomIn() {
	a.withEngine(func(e *interaction.Engine) { e.ZoomIn() })
}

func (a *App) ZoomOut() {
	a.withEngine(func(e *interaction.Engine) { e.ZoomOut() })
}

func (a *App) ResetZoom() {
	a.withEngine(func(e *interaction.Engine) { e.ResetZoom() })
}

// GetFrame returns the current snapshot, for the first paint.
func (a *App) GetFrame() interaction.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.engine == nil {
		return interaction.Frame{}
	}
	return a.engine.Snapshot()
}

// ============================================================
// Commands
// ============================================================

func (a *App) Undo() {
	a.withEngine(func(e *interaction.Engine) { e.Undo() })
}

func (a *App) Redo() {
	a.withEngine(func(e *interaction.Engine) { e.Redo() })
}

func (a *App) DeleteSelection() {
	a.withEngine(func(e *interaction.Engine) { e.DeleteSelection() })
}

func (a *App) BeginEdit(id string) {
	a.withEngine(func(e *interaction.Engine) { e.BeginEdit(id) })
}

func (a *App) EndEdit() {
	a.withEngine(func(e *interaction.Engine) { e.EndEdit() })
}

// UpdatePayload commits a content edit made in the frontend editor.
func (a *App) UpdatePayload(id string, p domain.Payload) error {
	var err error
	a.withEngine(func(e *interaction.Engine) { err = e.UpdatePayload(id, p) })
	return err
}

func (a *App) RenameBlock(id, title string) error {
	var err error
	a.withEngine(func(e *interaction.Engine) { err = e.RenameBlock(id, title) })
	return err
}
