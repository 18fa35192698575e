package main

import (
	"context"
	"fmt"
	"os"

	"transitradar.dev/radar"
	"transitradar.dev/radar/downloader"
	"transitradar.dev/radar/feedcache"
	"transitradar.dev/radar/linecolors"
	"transitradar.dev/radar/queryconfig"
)

// localFileDownloader adapts a local GTFS_DIR path (a zip file) to
// the downloader.Downloader interface, so Manager.Refresh doesn't
// need to know whether a feed came from disk or over HTTP.
type localFileDownloader struct{}

func (localFileDownloader) Get(_ context.Context, path string, _ map[string]string, _ downloader.GetOptions) ([]byte, error) {
	return os.ReadFile(path)
}

// remoteDownloader picks the downloader used for GTFS_FEED_URL fetches.
// An empty cachePath means no local iteration cache: every Refresh call
// goes straight to HTTP (still subject to the Manager's own by-hash feed
// cache once the bytes are in hand). A non-empty path uses a
// downloader.Filesystem so repeated `radarctl` invocations during
// development skip the network entirely within its TTL.
func remoteDownloader(cachePath string) (downloader.Downloader, error) {
	if cachePath == "" {
		return downloader.NewMemory(), nil
	}
	return downloader.NewFilesystem(cachePath)
}

// loadSnapshot builds a Manager from the process environment (this
// repository's §6) and runs one Refresh, the way the teacher's
// LoadStaticFeed builds a fresh Manager per CLI invocation.
func loadSnapshot(ctx context.Context) (*radar.Snapshot, error) {
	env := queryconfig.LoadEnvironment()

	styles, err := linecolors.Load(env.LineColors)
	if err != nil {
		return nil, fmt.Errorf("loading line colors: %w", err)
	}

	cache, err := feedcache.Open(env.FeedCacheDriver, env.FeedCacheDSN)
	if err != nil {
		return nil, fmt.Errorf("opening feed cache: %w", err)
	}

	dl, err := remoteDownloader(env.DownloadCachePath)
	if err != nil {
		return nil, fmt.Errorf("setting up download cache: %w", err)
	}

	url := env.GTFSFeedURL
	if url == "" {
		if env.GTFSDir == "" {
			return nil, fmt.Errorf("neither GTFS_DIR nor GTFS_FEED_URL is set")
		}
		dl = localFileDownloader{}
		url = env.GTFSDir
	}

	mgr := radar.NewManager(cache, dl, styles)
	if err := mgr.Refresh(ctx, url); err != nil {
		return nil, fmt.Errorf("refreshing feed: %w", err)
	}

	return mgr.Current(), nil
}
