package feedcache

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a feedcache.Store backed by a single sqlite database
// file (or an in-memory one when dsn is ":memory:"), grounded on the
// teacher's SQLiteStorage.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS feed_cache (
	hash TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	retrieved_at TIMESTAMP NOT NULL,
	timezone TEXT NOT NULL,
	calendar_start TEXT NOT NULL,
	calendar_end TEXT NOT NULL,
	data BLOB NOT NULL
)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(hash string) ([]byte, Metadata, bool, error) {
	row := s.db.QueryRow(`
SELECT url, retrieved_at, timezone, calendar_start, calendar_end, data
FROM feed_cache WHERE hash = ?`, hash)

	var meta Metadata
	var data []byte
	meta.Hash = hash
	err := row.Scan(&meta.URL, &meta.RetrievedAt, &meta.Timezone, &meta.CalendarStartDate, &meta.CalendarEndDate, &data)
	if err == sql.ErrNoRows {
		return nil, Metadata{}, false, nil
	}
	if err != nil {
		return nil, Metadata{}, false, err
	}
	return data, meta, true, nil
}

func (s *SQLiteStore) Put(hash string, data []byte, meta Metadata) error {
	retrievedAt := meta.RetrievedAt
	if retrievedAt.IsZero() {
		retrievedAt = time.Now()
	}

	_, err := s.db.Exec(`
INSERT INTO feed_cache (hash, url, retrieved_at, timezone, calendar_start, calendar_end, data)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(hash) DO UPDATE SET
	url = excluded.url,
	retrieved_at = excluded.retrieved_at,
	timezone = excluded.timezone,
	calendar_start = excluded.calendar_start,
	calendar_end = excluded.calendar_end,
	data = excluded.data`,
		hash, meta.URL, retrievedAt, meta.Timezone, meta.CalendarStartDate, meta.CalendarEndDate, data)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
