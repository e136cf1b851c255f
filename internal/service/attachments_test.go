package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAttachments_ImportAndServe(t *testing.T) {
	src := filepath.Join(t.TempDir(), "diagram.PNG")
	if err := os.WriteFile(src, []byte("pixels"), 0644); err != nil {
		t.Fatal(err)
	}
	a := NewAttachments(t.TempDir())

	p, err := a.Import(src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if p.Title != "diagram" {
		t.Errorf("title = %q, want diagram", p.Title)
	}
	if !strings.HasPrefix(p.URL, AttachmentPrefix) || !strings.HasSuffix(p.URL, ".png") {
		t.Errorf("url = %q", p.URL)
	}
	if p.PreviewImageURL != p.URL {
		t.Errorf("image attachment should preview itself, got %q", p.PreviewImageURL)
	}

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p.URL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "pixels" {
		t.Errorf("body = %q", body)
	}
}

func TestAttachments_NonImageHasNoPreview(t *testing.T) {
	src := filepath.Join(t.TempDir(), "notes.pdf")
	os.WriteFile(src, []byte("%PDF"), 0644)
	p, err := NewAttachments(t.TempDir()).Import(src)
	if err != nil {
		t.Fatal(err)
	}
	if p.PreviewImageURL != "" {
		t.Errorf("preview = %q, want empty", p.PreviewImageURL)
	}
}

func TestAttachments_MissingSource(t *testing.T) {
	if _, err := NewAttachments(t.TempDir()).Import("/does/not/exist.png"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAttachments_HandlerRejectsOtherPaths(t *testing.T) {
	h := NewAttachments(t.TempDir()).Handler()
	for _, path := range []string{"/index.html", AttachmentPrefix, "/attachments/../secret"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, rec.Code)
		}
	}
}
