package feedcache

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore is a feedcache.Store backed by Postgres, grounded on
// the teacher's PostgresStorage; used when FEED_CACHE_DRIVER=postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS feed_cache (
	hash TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	retrieved_at TIMESTAMPTZ NOT NULL,
	timezone TEXT NOT NULL,
	calendar_start TEXT NOT NULL,
	calendar_end TEXT NOT NULL,
	data BYTEA NOT NULL
)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(hash string) ([]byte, Metadata, bool, error) {
	row := s.db.QueryRow(`
SELECT url, retrieved_at, timezone, calendar_start, calendar_end, data
FROM feed_cache WHERE hash = $1`, hash)

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

func (s *PostgresStore) Put(hash string, data []byte, meta Metadata) error {
	retrievedAt := meta.RetrievedAt
	if retrievedAt.IsZero() {
		retrievedAt = time.Now()
	}

	_, err := s.db.Exec(`
INSERT INTO feed_cache (hash, url, retrieved_at, timezone, calendar_start, calendar_end, data)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (hash) DO UPDATE SET
	url = excluded.url,
	retrieved_at = excluded.retrieved_at,
	timezone = excluded.timezone,
	calendar_start = excluded.calendar_start,
	calendar_end = excluded.calendar_end,
	data = excluded.data`,
		hash, meta.URL, retrievedAt, meta.Timezone, meta.CalendarStartDate, meta.CalendarEndDate, data)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
