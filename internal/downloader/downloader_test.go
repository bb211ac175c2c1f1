package downloader

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"archivist/internal/state"
)

type fakeDoer struct {
	status int
	body   []byte
	err    error
}

func (f fakeDoer) Do(req *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewReader(f.body)),
	}, nil
}

func TestDownloadPhotoUsesJPGExtension(t *testing.T) {
	dir := t.TempDir()
	d := New(WithHTTPDoer(fakeDoer{status: 200, body: []byte("image-bytes")}))

	file, err := d.Download(context.Background(), Request{
		MediaKey: "abc123", MediaURL: "https://example.test/a.jpg", MediaType: state.MediaPhoto, Dir: dir,
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Ext(file.Path) != ".jpg" {
		t.Fatalf("expected .jpg extension, got %s", file.Path)
	}
	if file.SizeBytes != int64(len("image-bytes")) {
		t.Fatalf("unexpected size: %d", file.SizeBytes)
	}
	if _, err := os.Stat(file.Path); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
}

func TestDownloadVideoUsesMP4Extension(t *testing.T) {
	dir := t.TempDir()
	d := New(WithHTTPDoer(fakeDoer{status: 200, body: []byte("video-bytes")}))

	file, err := d.Download(context.Background(), Request{
		MediaKey: "xyz789", MediaURL: "https://example.test/a.mp4", MediaType: state.MediaVideo, Dir: dir,
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Ext(file.Path) != ".mp4" {
		t.Fatalf("expected .mp4 extension, got %s", file.Path)
	}
}

func TestDownloadCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "scratch")
	d := New(WithHTTPDoer(fakeDoer{status: 200, body: []byte("x")}))

	if _, err := d.Download(context.Background(), Request{
		MediaKey: "k", MediaURL: "https://example.test/x.jpg", MediaType: state.MediaPhoto, Dir: dir,
	}); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected dir to be created: %v", err)
	}
}

func TestDownloadRejectsNonSuccessStatus(t *testing.T) {
	dir := t.TempDir()
	d := New(WithHTTPDoer(fakeDoer{status: 404, body: nil}))

	if _, err := d.Download(context.Background(), Request{
		MediaKey: "k", MediaURL: "https://example.test/missing.jpg", MediaType: state.MediaPhoto, Dir: dir,
	}); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}
