// Package queryservice is the layer an HTTP surface (out of scope per
// the original spec's §1) would call: it wraps config normalization,
// station resolution, the Radar search and result projection behind
// one Query call, adding the de-duplication and caching the original
// spec's §5 "client polls every second" access pattern calls for.
package queryservice

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"transitradar.dev/radar"
	"transitradar.dev/radar/calendarday"
	"transitradar.dev/radar/ids"
	"transitradar.dev/radar/project"
	"transitradar.dev/radar/queryconfig"
	"transitradar.dev/radar/search"
)

// SnapshotSource is the minimal surface Service needs from whatever
// holds the current schedule generation; *radar.Manager satisfies it.
type SnapshotSource interface {
	Current() *radar.Snapshot
}

// Request is one caller's query: a station name (resolved via station
// search) plus a filter, per the original spec's §4.G.
type Request struct {
	StationQuery string
	Filter       queryconfig.Filter
}

// CacheTTL bounds how long a Redis-cached result is reused for an
// identical (station, time-bucket, filter) key, matching the
// near-identical-polls pattern the original spec's §5 describes.
const CacheTTL = 2 * time.Second

// Service wraps Manager + Radar + station search + config behind a
// single Query call, per this repository's §4.K.
type Service struct {
	source SnapshotSource

	group       singleflight.Group
	redisClient *redis.Client // nil disables result caching
}

// New builds a Service. redisClient may be nil, in which case result
// caching is disabled and every request runs the search (still
// de-duplicated in-process via singleflight).
func New(source SnapshotSource, redisClient *redis.Client) *Service {
	return &Service{source: source, redisClient: redisClient}
}

// Query resolves req.StationQuery to a station, runs the Radar search
// against the current snapshot, and projects the result, per the
// original spec's §4.E/§4.F. Every call is tagged with a request id
// used to correlate log lines across the cache, singleflight and
// search stages.
func (s *Service) Query(ctx context.Context, req Request) (*project.Result, error) {
	requestID := uuid.NewString()

	snap := s.source.Current()
	if snap == nil {
		return nil, fmt.Errorf("queryservice[%s]: no schedule snapshot loaded yet", requestID)
	}

	matches := snap.Stations.Search(req.StationQuery, 1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("queryservice[%s]: no station matches %q", requestID, req.StationQuery)
	}
	station := matches[0].Station

	cacheKey := s.cacheKey(station, req.Filter)

	if s.redisClient != nil {
		if cached, err := s.readCache(ctx, cacheKey); err != nil {
			fmt.Printf("queryservice[%s]: cache read failed: %v\n", requestID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	resultAny, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
		return s.search(ctx, snap, station, req.Filter)
	})
	if err != nil {
		return nil, fmt.Errorf("queryservice[%s]: %w", requestID, err)
	}
	result := resultAny.(*project.Result)

	if s.redisClient != nil {
		if err := s.writeCache(ctx, cacheKey, result); err != nil {
			fmt.Printf("queryservice[%s]: cache write failed: %v\n", requestID, err)
		}
	}

	return result, nil
}

func (s *Service) search(ctx context.Context, snap *radar.Snapshot, station ids.StationID, filter queryconfig.Filter) (*project.Result, error) {
	day := calendarday.Of(filter.Time, calendarday.DefaultCutoff)
	queryTime := calendarday.SecondsSinceStart(filter.Time, day)

	tree := snap.Radar.Search(ctx, search.Request{
		Origin:      station,
		Day:         day,
		QueryTime:   queryTime,
		Budget:      filter.DurationMinutes * 60,
		Modes:       filter.Modes,
		TransferCap: filter.TransferCapSeconds,
	})

	return project.Build(snap.Radar.Index, tree), nil
}

func (s *Service) cacheKey(station ids.StationID, filter queryconfig.Filter) string {
	bucket := filter.Time.Truncate(time.Second)
	raw := fmt.Sprintf("%d|%d|%d|%d|%v", station, bucket.Unix(), filter.DurationMinutes, filter.TransferCapSeconds, filter.Modes)
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("transitradar:query:%x", sum)
}

func (s *Service) readCache(ctx context.Context, key string) (*project.Result, error) {
	data, err := s.redisClient.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result project.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) writeCache(ctx context.Context, key string, result *project.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.redisClient.Set(ctx, key, data, CacheTTL).Err()
}
