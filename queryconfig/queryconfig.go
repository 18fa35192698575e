// Package queryconfig loads the filter/config surface described in
// the original spec's §4.G and §6: which modes to include, how far
// ahead to search, the transfer cap, and the departure time to
// search from. It also reads the process-level environment variables
// listed in the original spec's §6, via spf13/viper, the way
// shivamshaw23-Hintro's config package binds its settings to env vars.
package queryconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"transitradar.dev/radar/model"
	"transitradar.dev/radar/search"
)

// Filter is one request's normalized filter/config, per the original
// spec's §4.G.
type Filter struct {
	Modes              model.ModeSet
	DurationMinutes    int
	TransferCapSeconds int
	Time               time.Time
}

// DefaultDurationMinutes is used when duration_minutes is absent or
// non-positive.
const DefaultDurationMinutes = 30

// NewFilter builds a Filter from raw request fields, applying the
// defaults the original spec's §4.G calls for: all modes if modeNames
// is empty, DefaultDurationMinutes if duration is non-positive,
// search.DefaultTransferCap if transferCapSeconds is non-positive.
func NewFilter(modeNames []string, durationMinutes, transferCapSeconds int, at time.Time) (Filter, error) {
	modes, err := parseModes(modeNames)
	if err != nil {
		return Filter{}, err
	}

	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	if transferCapSeconds <= 0 {
		transferCapSeconds = search.DefaultTransferCap
	}

	return Filter{
		Modes:              modes,
		DurationMinutes:    durationMinutes,
		TransferCapSeconds: transferCapSeconds,
		Time:               at,
	}, nil
}

func parseModes(names []string) (model.ModeSet, error) {
	if len(names) == 0 {
		return model.NewModeSet(), nil
	}

	var modes []model.Mode
	for _, n := range names {
		m, ok := modeFromName(strings.TrimSpace(n))
		if !ok {
			return nil, fmt.Errorf("queryconfig: unknown mode %q", n)
		}
		modes = append(modes, m)
	}
	return model.NewModeSet(modes...), nil
}

func modeFromName(name string) (model.Mode, bool) {
	switch strings.ToLower(name) {
	case "tram":
		return model.ModeTram, true
	case "subway", "metro", "ubahn":
		return model.ModeSubwayMetro, true
	case "regio", "regional", "regionalrail":
		return model.ModeRegionalRail, true
	case "sbahn", "suburban", "suburbanrail":
		return model.ModeSuburbanRail, true
	case "bus":
		return model.ModeBus, true
	case "ferry", "boat":
		return model.ModeFerry, true
	default:
		return model.ModeUnknown, false
	}
}

// Environment is the process-level configuration described in the
// original spec's §6: where the feed comes from, where the feed cache
// lives, and where the optional Redis result cache lives. None of
// this is per-query; radarctl's loadSnapshot reads it once per
// invocation.
type Environment struct {
	GTFSDir    string
	GTFSFeedURL string
	LineColors string

	FeedCacheDriver string
	FeedCacheDSN    string

	RedisAddr string

	// DownloadCachePath, when set, makes remote feed fetches go
	// through a downloader.Filesystem keyed by URL instead of
	// downloader.Memory, so repeated CLI runs during development don't
	// re-hit the network even before a feed has ever been cached by
	// content hash. This is independent of FeedCacheDriver: the feed
	// cache survives a feed rotating to new bytes under the same URL,
	// while this cache does not.
	DownloadCachePath string
}

// LoadEnvironment reads the environment variables named in the
// original spec's §6 via viper, the way shivamshaw23-Hintro's config
// package reads its own settings from the environment.
// FEED_CACHE_DRIVER defaults to "memory" when unset.
func LoadEnvironment() Environment {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetDefault("FEED_CACHE_DRIVER", "memory")

	return Environment{
		GTFSDir:           v.GetString("GTFS_DIR"),
		GTFSFeedURL:       v.GetString("GTFS_FEED_URL"),
		LineColors:        v.GetString("LINE_COLORS"),
		FeedCacheDriver:   v.GetString("FEED_CACHE_DRIVER"),
		FeedCacheDSN:      v.GetString("FEED_CACHE_DSN"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		DownloadCachePath: v.GetString("GTFS_DOWNLOAD_CACHE"),
	}
}
