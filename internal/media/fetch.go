package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher downloads remote media sources into a local cache directory so
// the compositor always reads from local files.
type Fetcher struct {
	cacheDir string
	client   *http.Client
}

// NewFetcher creates a fetcher caching into cacheDir.
func NewFetcher(cacheDir string) (*Fetcher, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Fetcher{
		cacheDir: cacheDir,
		// Large sources can take a while.
		client: &http.Client{Timeout: 30 * time.Minute},
	}, nil
}

// IsRemote reports whether the source reference needs fetching.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Resolve returns a local path for the source: the source itself when it is
// already local, the cached copy when one exists, and otherwise a fresh
// download.
func (f *Fetcher) Resolve(ctx context.Context, source string) (string, error) {
	if !IsRemote(source) {
		return source, nil
	}
	cached := f.cachePath(source)
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}
	return f.fetch(ctx, source, cached)
}

func (f *Fetcher) cachePath(source string) string {
	name := "media"
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		if base := filepath.Base(u.Path); base != "" && base != "." && base != "/" {
			name = base
		}
	}
	// Prefix with a hash of the full URL so distinct sources with the same
	// basename do not collide.
	return filepath.Join(f.cacheDir, fmt.Sprintf("%x_%s", hashString(source), name))
}

func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func (f *Fetcher) fetch(ctx context.Context, source, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s failed with status %d", source, resp.StatusCode)
	}

	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to save %s: %w", source, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("failed to finalize cache file: %w", err)
	}
	return dest, nil
}
