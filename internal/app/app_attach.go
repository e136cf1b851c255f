package app

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"board/internal/domain"
	"board/internal/interaction"
)

// AttachFile asks for a file, copies it into the data directory and arms the
// attach tool; the next click on the canvas places it. Returns false when the
// dialog was cancelled.
func (a *App) AttachFile() (bool, error) {
	path, err := wailsRuntime.OpenFileDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Attach File",
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "Images", Pattern: "*.png;*.jpg;*.jpeg;*.gif;*.webp;*.svg"},
			{DisplayName: "Documents", Pattern: "*.pdf;*.md;*.txt"},
			{DisplayName: "All Files", Pattern: "*.*"},
		},
	})
	if err != nil || path == "" {
		return false, err
	}
	p, err := a.attachments.Import(path)
	if err != nil {
		return false, err
	}
	a.armEmbed(p, interaction.ToolAttach)
	return true, nil
}

// AttachURL arms the link tool with an external URL.
func (a *App) AttachURL(rawURL, title string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: link must be an http(s) URL", domain.ErrValidation)
	}
	if title = strings.TrimSpace(title); title == "" {
		title = u.Host
	}
	a.armEmbed(domain.EmbedPayload{URL: u.String(), Title: title}, interaction.ToolLink)
	return nil
}

func (a *App) armEmbed(p domain.EmbedPayload, tool interaction.Tool) {
	a.withEngine(func(e *interaction.Engine) {
		e.SetPendingEmbed(p)
		e.SetTool(tool)
	})
}

// AttachmentHandler serves attachment files to the webview. It is handed to
// the Wails asset server before Startup runs, so it only needs the config.
func (a *App) AttachmentHandler() http.Handler {
	return a.attachments.Handler()
}
