package downloader

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Filesystem is Memory with persistence: the by-URL cache survives
// across `radarctl` invocations by round-tripping through a JSON file
// at path. Meant for local iteration against GTFS_FEED_URL, where
// re-downloading the same feed on every CLI run is wasted network.
type Filesystem struct {
	path string

	mutex   sync.Mutex
	entries map[string]fsEntry
}

type fsEntry struct {
	BodyB64     string `json:"body"`
	RetrievedAt string `json:"retrieved_at"`
}

func NewFilesystem(path string) (*Filesystem, error) {
	f := &Filesystem{path: path, entries: map[string]fsEntry{}}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Filesystem) Get(ctx context.Context, url string, headers map[string]string, options GetOptions) ([]byte, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if options.Cache {
		if entry, found := f.entries[url]; found {
			retrievedAt, err := time.Parse(time.RFC3339, entry.RetrievedAt)
			if err != nil {
				return nil, fmt.Errorf("parsing cached timestamp for %s: %w", url, err)
			}
			if retrievedAt.Add(options.CacheTTL).After(time.Now()) {
				return base64.StdEncoding.DecodeString(entry.BodyB64)
			}
		}
	}

	body, err := HTTPGet(ctx, url, headers, options)
	if err != nil {
		return nil, err
	}

	if options.Cache {
		f.entries[url] = fsEntry{
			BodyB64:     base64.StdEncoding.EncodeToString(body),
			RetrievedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := f.save(); err != nil {
			return nil, fmt.Errorf("persisting download cache: %w", err)
		}
	}
	return body, nil
}

// load reads any existing cache file. A missing file is not an error:
// the first Get for each URL just falls through to the network.
func (f *Filesystem) load() error {
	buf, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading download cache: %w", err)
	}
	if err := json.Unmarshal(buf, &f.entries); err != nil {
		return fmt.Errorf("parsing download cache: %w", err)
	}
	return nil
}

func (f *Filesystem) save() error {
	buf, err := json.Marshal(f.entries)
	if err != nil {
		return fmt.Errorf("encoding download cache: %w", err)
	}
	return os.WriteFile(f.path, buf, 0644)
}
