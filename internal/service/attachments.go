package service

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"board/internal/domain"
)

// AttachmentPrefix is the URL path attachments are served under.
const AttachmentPrefix = "/attachments/"

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true,
}

// Attachments copies user files into the data directory and serves them to
// the webview.
type Attachments struct {
	dir string
}

func NewAttachments(dataDir string) *Attachments {
	return &Attachments{dir: filepath.Join(dataDir, "attachments")}
}

// Dir returns the directory attachments are stored in.
func (a *Attachments) Dir() string { return a.dir }

// Import copies the file at src into the attachment directory under a fresh
// name and returns the embed payload that points at it.
func (a *Attachments) Import(src string) (domain.EmbedPayload, error) {
	in, err := os.Open(src)
	if err != nil {
		return domain.EmbedPayload{}, fmt.Errorf("open attachment: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return domain.EmbedPayload{}, fmt.Errorf("mkdir for attachment: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(src))
	name := domain.NewID() + ext
	out, err := os.OpenFile(filepath.Join(a.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return domain.EmbedPayload{}, fmt.Errorf("create attachment: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return domain.EmbedPayload{}, fmt.Errorf("copy attachment: %w", err)
	}
	if err := out.Close(); err != nil {
		return domain.EmbedPayload{}, fmt.Errorf("write attachment: %w", err)
	}

	p := domain.EmbedPayload{
		URL:   AttachmentPrefix + name,
		Title: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
	}
	if imageExts[ext] {
		p.PreviewImageURL = p.URL
	}
	return p, nil
}

// Handler serves stored attachments. Requests outside AttachmentPrefix get
// a 404 so the asset server can fall through to it safely.
func (a *Attachments) Handler() http.Handler {
	files := http.StripPrefix(AttachmentPrefix, http.FileServer(http.Dir(a.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, AttachmentPrefix) || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
