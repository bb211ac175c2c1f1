package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"archivist/internal/state"
)

// HTTPDoer is the seam tests substitute to avoid a real network call.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request parameterizes a single download.
type Request struct {
	MediaKey  string
	MediaURL  string
	MediaType state.MediaType
	Dir       string
}

// LocalFile describes a file that landed on disk.
type LocalFile struct {
	MediaKey  string
	MediaURL  string
	MediaType state.MediaType
	Path      string
	SizeBytes int64
}

// Downloader streams remote media to a local scratch directory.
type Downloader struct {
	http HTTPDoer
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPDoer overrides the HTTP transport, primarily for tests.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(d *Downloader) { d.http = doer }
}

// New builds a Downloader with a 5 minute default client timeout.
func New(opts ...Option) *Downloader {
	d := &Downloader{http: &http.Client{Timeout: 5 * time.Minute}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func extensionFor(mediaType state.MediaType) string {
	if mediaType == state.MediaPhoto {
		return ".jpg"
	}
	return ".mp4"
}

// Download fetches req.MediaURL and streams it to
// <req.Dir>/<req.MediaKey><ext>, creating the parent directory if needed.
func (d *Downloader) Download(ctx context.Context, req Request) (LocalFile, error) {
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return LocalFile{}, fmt.Errorf("ensure download dir %s: %w", req.Dir, err)
	}
	path := filepath.Join(req.Dir, req.MediaKey+extensionFor(req.MediaType))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.MediaURL, nil)
	if err != nil {
		return LocalFile{}, fmt.Errorf("build download request: %w", err)
	}
	resp, err := d.http.Do(httpReq)
	if err != nil {
		return LocalFile{}, fmt.Errorf("download %s: %w", req.MediaURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return LocalFile{}, fmt.Errorf("download %s: unexpected status %d", req.MediaURL, resp.StatusCode)
	}
	if resp.Body == nil {
		return LocalFile{}, fmt.Errorf("download %s: empty response body", req.MediaURL)
	}

	out, err := os.Create(path)
	if err != nil {
		return LocalFile{}, fmt.Errorf("create local file %s: %w", path, err)
	}
	defer out.Close()

	size, err := io.Copy(out, resp.Body)
	if err != nil {
		os.Remove(path)
		return LocalFile{}, fmt.Errorf("write local file %s: %w", path, err)
	}

	return LocalFile{
		MediaKey:  req.MediaKey,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
		Path:      path,
		SizeBytes: size,
	}, nil
}
