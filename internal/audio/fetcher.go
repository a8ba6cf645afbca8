package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// maxResourceBytes bounds the size of a fetched audio resource.
const maxResourceBytes = 32 << 20

// Fetcher retrieves the raw bytes of an audio resource. Failures must be
// returned as *ResourceFetchError.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// HTTPFetcher fetches resources with an HTTP GET.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client gets a default one with
// a 30 second timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

// Fetch performs the GET and returns the full response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, &ResourceFetchError{Path: path, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &ResourceFetchError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ResourceFetchError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResourceBytes+1))
	if err != nil {
		return nil, &ResourceFetchError{Path: path, Err: err}
	}
	if len(data) > maxResourceBytes {
		return nil, &ResourceFetchError{Path: path, Err: fmt.Errorf("resource exceeds %d bytes", maxResourceBytes)}
	}

	slog.Debug("resource fetched over http", "path", path, "size_bytes", len(data))
	return data, nil
}

// FSFetcher reads resources from a filesystem. "file://" URLs are accepted.
type FSFetcher struct {
	fs afero.Fs
}

// NewFSFetcher creates an FSFetcher over fs; nil means the OS filesystem.
func NewFSFetcher(fs afero.Fs) *FSFetcher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FSFetcher{fs: fs}
}

// Fetch reads the whole file.
func (f *FSFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ResourceFetchError{Path: path, Err: err}
	}

	name := path
	if strings.HasPrefix(path, "file://") {
		u, err := url.Parse(path)
		if err != nil {
			return nil, &ResourceFetchError{Path: path, Err: err}
		}
		name = u.Path
	}
	if name == "" {
		return nil, &ResourceFetchError{Path: path, Err: fmt.Errorf("empty resource path")}
	}

	data, err := afero.ReadFile(f.fs, name)
	if err != nil {
		return nil, &ResourceFetchError{Path: path, Err: err}
	}

	slog.Debug("resource read from filesystem", "path", name, "size_bytes", len(data))
	return data, nil
}

// SchemeFetcher routes http(s) URLs to an HTTP fetcher and everything else
// to a filesystem fetcher.
type SchemeFetcher struct {
	HTTP Fetcher
	File Fetcher
}

// NewSchemeFetcher returns a SchemeFetcher with default HTTP and OS
// filesystem fetchers.
func NewSchemeFetcher(fs afero.Fs) *SchemeFetcher {
	return &SchemeFetcher{
		HTTP: NewHTTPFetcher(nil),
		File: NewFSFetcher(fs),
	}
}

// Fetch dispatches on the scheme of path.
func (f *SchemeFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return f.HTTP.Fetch(ctx, path)
	}
	return f.File.Fetch(ctx, path)
}
