package queryservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitradar.dev/radar"
	"transitradar.dev/radar/index"
	"transitradar.dev/radar/model"
	"transitradar.dev/radar/queryconfig"
	"transitradar.dev/radar/search"
	"transitradar.dev/radar/stationindex"
)

type fixedSource struct {
	snapshot *radar.Snapshot
}

func (f fixedSource) Current() *radar.Snapshot { return f.snapshot }

func everyDay() model.Weekdays {
	var w model.Weekdays
	for d := time.Sunday; d <= time.Saturday; d++ {
		w = w.With(int(d))
	}
	return w
}

func stopTimes(stops []string, seconds []int) []model.StopTime {
	sts := make([]model.StopTime, len(stops))
	for i, stop := range stops {
		sts[i] = model.StopTime{StopID: stop, Position: i, Arrival: seconds[i], Departure: seconds[i]}
	}
	return sts
}

func buildSnapshot(t *testing.T) *radar.Snapshot {
	t.Helper()
	idx, err := index.Build(index.BuildInput{
		Stops: []model.Stop{
			{ID: "A", Name: "Alpha"}, {ID: "B", Name: "Bravo"},
		},
		Routes: []model.Route{{ID: "R1", ShortName: "1", Mode: model.ModeBus}},
		Trips: []model.Trip{
			{ID: "T1", RouteID: "R1", Weekdays: everyDay(), StopTimes: stopTimes([]string{"A", "B"}, []int{8 * 3600, 8*3600 + 100})},
		},
	})
	require.NoError(t, err)

	return &radar.Snapshot{
		Index:    idx,
		Radar:    search.New(idx),
		Stations: stationindex.Build(idx),
	}
}

func TestQuery_ResolvesStationAndProjectsResult(t *testing.T) {
	svc := New(fixedSource{snapshot: buildSnapshot(t)}, nil)
	filter, err := queryconfig.NewFilter(nil, 60, 0, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	result, err := svc.Query(context.Background(), Request{StationQuery: "Alpha", Filter: filter})
	require.NoError(t, err)

	var found bool
	for _, s := range result.Stops {
		if s.Name == "Bravo" {
			found = true
			assert.Equal(t, 100, s.Seconds)
		}
	}
	assert.True(t, found, "expected Bravo to be reached")
}

func TestQuery_UnknownStationErrors(t *testing.T) {
	svc := New(fixedSource{snapshot: buildSnapshot(t)}, nil)
	filter, err := queryconfig.NewFilter(nil, 60, 0, time.Now())
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), Request{StationQuery: "Nowhere", Filter: filter})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no station matches")
}

func TestQuery_NoSnapshotErrors(t *testing.T) {
	svc := New(fixedSource{snapshot: nil}, nil)
	filter, err := queryconfig.NewFilter(nil, 60, 0, time.Now())
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), Request{StationQuery: "Alpha", Filter: filter})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schedule snapshot loaded")
}

func TestCacheKey_DiffersByStationAndFilter(t *testing.T) {
	svc := &Service{}
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	filterA, _ := queryconfig.NewFilter(nil, 30, 0, at)
	filterB, _ := queryconfig.NewFilter(nil, 60, 0, at)

	keyA := svc.cacheKey(0, filterA)
	keyB := svc.cacheKey(0, filterB)
	keyC := svc.cacheKey(1, filterA)

	assert.NotEqual(t, keyA, keyB)
	assert.NotEqual(t, keyA, keyC)
	assert.Equal(t, keyA, svc.cacheKey(0, filterA))
}
