package search

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitradar.dev/radar/calendarday"
	"transitradar.dev/radar/index"
	"transitradar.dev/radar/model"
)

func mustBuild(t *testing.T, in index.BuildInput) *index.ScheduleIndex {
	t.Helper()
	idx, err := index.Build(in)
	require.NoError(t, err)
	return idx
}

func stopTimes(stops []string, seconds []int) []model.StopTime {
	sts := make([]model.StopTime, len(stops))
	for i, stop := range stops {
		sts[i] = model.StopTime{StopID: stop, Position: i, Arrival: seconds[i], Departure: seconds[i]}
	}
	return sts
}

func everyDay() model.Weekdays {
	var w model.Weekdays
	for d := time.Sunday; d <= time.Saturday; d++ {
		w = w.With(int(d))
	}
	return w
}

func TestSearch_DirectTripReachesDownstreamStop(t *testing.T) {
	idx := mustBuild(t, index.BuildInput{
		Stops:  []model.Stop{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Routes: []model.Route{{ID: "R1", Mode: model.ModeBus}},
		Trips: []model.Trip{
			{ID: "T1", RouteID: "R1", Weekdays: everyDay(), StopTimes: stopTimes([]string{"A", "B", "C"}, []int{0, 100, 200})},
		},
	})

	origin, _ := idx.StationByExtID("A")
	radar := New(idx)
	tree := radar.Search(context.Background(), Request{Origin: origin, Day: calendarday.Day{Weekday: time.Monday}, QueryTime: 0, Budget: 1000})

	stopC, _ := idx.StopByExtID("C")
	require.True(t, tree.Reached(stopC))
	assert.Equal(t, 200, tree.EarliestAtStop[stopC])
	assert.Equal(t, PredTrip, tree.Predecessor[stopC].Kind)
}

func TestSearch_ReachesStopViaTransferBetweenSiblingPlatforms(t *testing.T) {
	idx := mustBuild(t, index.BuildInput{
		Stations: []model.Station{{ID: "S"}},
		Stops: []model.Stop{
			{ID: "A"}, {ID: "X", ParentStation: "S"}, {ID: "Y", ParentStation: "S"}, {ID: "B"},
		},
		Routes: []model.Route{{ID: "R1", Mode: model.ModeBus}, {ID: "R2", Mode: model.ModeBus}},
		Trips: []model.Trip{
			{ID: "T1", RouteID: "R1", Weekdays: everyDay(), StopTimes: stopTimes([]string{"A", "X"}, []int{0, 50})},
			{ID: "T2", RouteID: "R2", Weekdays: everyDay(), StopTimes: stopTimes([]string{"Y", "B"}, []int{100, 150})},
		},
		DefaultTransferSeconds: 10,
	})

	origin, _ := idx.StationByExtID("A")
	radar := New(idx)
	tree := radar.Search(context.Background(), Request{Origin: origin, Day: calendarday.Day{Weekday: time.Monday}, QueryTime: 0, Budget: 1000})

	stopB, _ := idx.StopByExtID("B")
	require.True(t, tree.Reached(stopB))
	assert.Equal(t, 150, tree.EarliestAtStop[stopB])
}

func TestSearch_TransferCapExcludesSlowWalk(t *testing.T) {
	idx := mustBuild(t, index.BuildInput{
		Stations: []model.Station{{ID: "S"}},
		Stops: []model.Stop{
			{ID: "A"}, {ID: "X", ParentStation: "S"}, {ID: "Y", ParentStation: "S"},
		},
		Routes: []model.Route{{ID: "R1", Mode: model.ModeBus}},
		Trips: []model.Trip{
			{ID: "T1", RouteID: "R1", Weekdays: everyDay(), StopTimes: stopTimes([]string{"A", "X"}, []int{0, 50})},
		},
		DefaultTransferSeconds: 500,
	})

	origin, _ := idx.StationByExtID("A")
	radar := New(idx)
	tree := radar.Search(context.Background(), Request{
		Origin: origin, Day: calendarday.Day{Weekday: time.Monday}, QueryTime: 0, Budget: 1000, TransferCap: 100,
	})

	stopY, _ := idx.StopByExtID("Y")
	assert.False(t, tree.Reached(stopY))
}

func TestSearch_ModeFilterExcludesNonMatchingTrip(t *testing.T) {
	idx := mustBuild(t, index.BuildInput{
		Stops:  []model.Stop{{ID: "A"}, {ID: "B"}},
		Routes: []model.Route{{ID: "TRAM", Mode: model.ModeTram}},
		Trips: []model.Trip{
			{ID: "T1", RouteID: "TRAM", Weekdays: everyDay(), StopTimes: stopTimes([]string{"A", "B"}, []int{0, 100})},
		},
	})

	origin, _ := idx.StationByExtID("A")
	radar := New(idx)
	tree := radar.Search(context.Background(), Request{
		Origin: origin, Day: calendarday.Day{Weekday: time.Monday}, QueryTime: 0, Budget: 1000,
		Modes: model.NewModeSet(model.ModeBus),
	})

	stopB, _ := idx.StopByExtID("B")
	assert.False(t, tree.Reached(stopB))
}

func TestSearch_WeekdayFilterExcludesNonRunningTrip(t *testing.T) {
	idx := mustBuild(t, index.BuildInput{
		Stops:  []model.Stop{{ID: "A"}, {ID: "B"}},
		Routes: []model.Route{{ID: "R1", Mode: model.ModeBus}},
		Trips: []model.Trip{
			{ID: "T1", RouteID: "R1", Weekdays: model.Weekdays(0).With(int(time.Sunday)), StopTimes: stopTimes([]string{"A", "B"}, []int{0, 100})},
		},
	})

	origin, _ := idx.StationByExtID("A")
	radar := New(idx)
	tree := radar.Search(context.Background(), Request{
		Origin: origin, Day: calendarday.Day{Weekday: time.Monday}, QueryTime: 0, Budget: 1000,
	})

	stopB, _ := idx.StopByExtID("B")
	assert.False(t, tree.Reached(stopB))
}

func TestSearch_BudgetExcludesArrivalsAfterDeadline(t *testing.T) {
	idx := mustBuild(t, index.BuildInput{
		Stops:  []model.Stop{{ID: "A"}, {ID: "B"}},
		Routes: []model.Route{{ID: "R1", Mode: model.ModeBus}},
		Trips: []model.Trip{
			{ID: "T1", RouteID: "R1", Weekdays: everyDay(), StopTimes: stopTimes([]string{"A", "B"}, []int{0, 500})},
		},
	})

	origin, _ := idx.StationByExtID("A")
	radar := New(idx)
	tree := radar.Search(context.Background(), Request{
		Origin: origin, Day: calendarday.Day{Weekday: time.Monday}, QueryTime: 0, Budget: 100,
	})

	stopB, _ := idx.StopByExtID("B")
	assert.False(t, tree.Reached(stopB))
}

func TestSearch_MultiSourceOriginSeedsEveryStopOfStation(t *testing.T) {
	idx := mustBuild(t, index.BuildInput{
		Stations: []model.Station{{ID: "S"}},
		Stops: []model.Stop{
			{ID: "X", ParentStation: "S"}, {ID: "Y", ParentStation: "S"}, {ID: "B"},
		},
		Routes: []model.Route{{ID: "R1", Mode: model.ModeBus}},
		Trips: []model.Trip{
			{ID: "T1", RouteID: "R1", Weekdays: everyDay(), StopTimes: stopTimes([]string{"Y", "B"}, []int{10, 50})},
		},
	})

	origin, _ := idx.StationByExtID("S")
	radar := New(idx)
	tree := radar.Search(context.Background(), Request{
		Origin: origin, Day: calendarday.Day{Weekday: time.Monday}, QueryTime: 0, Budget: 1000,
	})

	stopB, _ := idx.StopByExtID("B")
	require.True(t, tree.Reached(stopB))
	assert.Equal(t, 50, tree.EarliestAtStop[stopB])
}

func TestSearch_ServiceDayWrapOverlaysNextDayDepartures(t *testing.T) {
	idx := mustBuild(t, index.BuildInput{
		Stops:  []model.Stop{{ID: "A"}, {ID: "B"}},
		Routes: []model.Route{{ID: "R1", Mode: model.ModeBus}},
		Trips: []model.Trip{
			{ID: "T1", RouteID: "R1", Weekdays: model.Weekdays(0).With(int(time.Tuesday)), StopTimes: stopTimes([]string{"A", "B"}, []int{10, 60})},
		},
	})

	origin, _ := idx.StationByExtID("A")
	radar := New(idx)
	tree := radar.Search(context.Background(), Request{
		Origin: origin, Day: calendarday.Day{Weekday: time.Monday}, QueryTime: 86000, Budget: 1000,
	})

	stopB, _ := idx.StopByExtID("B")
	require.True(t, tree.Reached(stopB))
	assert.Equal(t, 86400+60, tree.EarliestAtStop[stopB])
}

func TestSearch_CancelledContextTruncatesLargeTree(t *testing.T) {
	const n = 2000

	stops := make([]model.Stop, n)
	stopIDs := make([]string, n)
	for i := 0; i < n; i++ {
		id := "stop-" + strconv.Itoa(i)
		stops[i] = model.Stop{ID: id}
		stopIDs[i] = id
	}
	seconds := make([]int, n)
	for i := range seconds {
		seconds[i] = i * 10
	}

	idx := mustBuild(t, index.BuildInput{
		Stops:  stops,
		Routes: []model.Route{{ID: "R1", Mode: model.ModeBus}},
		Trips: []model.Trip{
			{ID: "T1", RouteID: "R1", Weekdays: everyDay(), StopTimes: stopTimes(stopIDs, seconds)},
		},
	})

	origin, _ := idx.StationByExtID("stop-0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	radar := New(idx)
	tree := radar.Search(ctx, Request{
		Origin: origin, Day: calendarday.Day{Weekday: time.Monday}, QueryTime: 0, Budget: n * 10,
	})

	assert.True(t, tree.Truncated)
}
