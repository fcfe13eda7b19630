package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher reads a corpus resource by path.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
	// Location describes where path resolves to, for error messages.
	Location(path string) string
}

// NewFetcher returns an HTTP fetcher when base is an http(s) URL, and a
// filesystem fetcher rooted at base otherwise.
func NewFetcher(base string, timeout time.Duration) Fetcher {
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return NewHTTPFetcher(base, timeout)
	}
	return DirFetcher{Root: base}
}

// HTTPFetcher GETs resources relative to a base URL.
type HTTPFetcher struct {
	base   string
	client *resty.Client
}

func NewHTTPFetcher(base string, timeout time.Duration) *HTTPFetcher {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &HTTPFetcher{base: strings.TrimRight(base, "/"), client: c}
}

func (f *HTTPFetcher) Location(path string) string {
	return f.base + "/" + strings.TrimLeft(path, "/")
}

func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(f.Location(path))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// DirFetcher reads resources below a local directory.
type DirFetcher struct {
	Root string
}

func (f DirFetcher) Location(path string) string {
	return filepath.Join(f.Root, filepath.FromSlash(strings.TrimLeft(path, "/")))
}

func (f DirFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(f.Location(path))
}
