// Package downloader fetches raw feed bytes over HTTP behind an
// interface the rest of the tree can swap out or cache in front of.
// Manager never talks to net/http directly; it only ever sees a
// Downloader, so tests and the CLI can hand it an in-memory fake or a
// cache-wrapped implementation without touching the fetch path.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GetOptions controls one fetch. Cache/CacheTTL only matter to
// implementations that keep their own by-URL cache (Memory,
// Filesystem); HTTPGet itself ignores them.
type GetOptions struct {
	MaxSize  int
	Timeout  time.Duration
	Cache    bool
	CacheTTL time.Duration
}

// Downloader fetches the bytes at url, optionally serving a cached
// copy instead of hitting the network.
type Downloader interface {
	Get(ctx context.Context, url string, headers map[string]string, options GetOptions) ([]byte, error)
}

// HTTPGet performs one uncached GET. It's exported so a custom
// Downloader can use it as its actual network call, the way Memory
// and Filesystem both do below.
func HTTPGet(ctx context.Context, url string, headers map[string]string, options GetOptions) ([]byte, error) {
	client := &http.Client{Timeout: options.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Add(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if options.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, int64(options.MaxSize))
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", url, err)
	}
	return body, nil
}
