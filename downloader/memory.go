package downloader

import (
	"context"
	"sync"
	"time"
)

// Memory caches feed downloads by URL for the life of the process.
// It's the default downloader for remote feeds: cheap, and good
// enough for a single long-lived Manager that refreshes the same
// handful of URLs repeatedly.
type Memory struct {
	mutex   sync.Mutex
	entries map[string]memoryEntry

	// TimeNow is overridable in tests; defaults to time.Now.
	TimeNow func() time.Time
}

type memoryEntry struct {
	body    []byte
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: map[string]memoryEntry{},
		TimeNow: time.Now,
	}
}

func (d *Memory) Get(ctx context.Context, url string, headers map[string]string, options GetOptions) ([]byte, error) {
	if options.Cache {
		d.mutex.Lock()
		entry, found := d.entries[url]
		d.mutex.Unlock()
		if found && entry.expires.After(d.TimeNow()) {
			return entry.body, nil
		}
	}

	body, err := HTTPGet(ctx, url, headers, options)
	if err != nil {
		return nil, err
	}

	if options.Cache {
		d.mutex.Lock()
		d.entries[url] = memoryEntry{body: body, expires: d.TimeNow().Add(options.CacheTTL)}
		d.mutex.Unlock()
	}
	return body, nil
}
