// Package feedcache persists raw GTFS feed bytes keyed by content
// hash. Manager reads it back for a url it has already fetched in the
// same process; the url-to-hash mapping is not persisted, and cached
// bytes are re-parsed on every Refresh. It is the module's only
// persisted state, sitting
// upstream of the immutable in-memory index.ScheduleIndex: the index
// itself remains pure in-memory, per the original spec's §6 ("None")
// and this repository's §4.I / §9.
//
// Adapted from the teacher's storage package: same sqlite/postgres
// backend split, same feed-hash keying, trimmed down to the one
// responsibility this module actually needs (cache raw feed bytes
// between loads) instead of the teacher's full queryable GTFS store.
package feedcache

import (
	"fmt"
	"time"
)

// Metadata is what a cache entry records about the feed it holds,
// mirroring the fields the teacher's storage.FeedMetadata carries
// through from ParseStatic.
type Metadata struct {
	Hash              string
	URL               string
	RetrievedAt       time.Time
	Timezone          string
	CalendarStartDate string
	CalendarEndDate   string
}

// Store caches a feed's raw bytes and metadata by content hash.
type Store interface {
	// Get returns the cached bytes and metadata for hash, or
	// found=false if nothing is cached under that hash.
	Get(hash string) (data []byte, meta Metadata, found bool, err error)

	// Put stores data under hash, replacing any existing entry.
	Put(hash string, data []byte, meta Metadata) error

	// Close releases any resources (database handles) held by the
	// store.
	Close() error
}

// Open builds a Store for the given driver ("memory", "sqlite" or
// "postgres"), per this repository's §6 FEED_CACHE_DRIVER /
// FEED_CACHE_DSN environment variables.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres":
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("feedcache: unknown driver %q", driver)
	}
}
