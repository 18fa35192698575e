package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitradar.dev/radar/model"
)

func buildTwoTripIndex(t *testing.T) (*ScheduleIndex, string) {
	t.Helper()

	monday := model.Weekdays(0).With(int(time.Monday))
	sunday := model.Weekdays(0).With(int(time.Sunday))

	in := BuildInput{
		Stops: []model.Stop{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Routes: []model.Route{
			{ID: "BUS", ShortName: "B1", Mode: model.ModeBus},
			{ID: "TRAM", ShortName: "T1", Mode: model.ModeTram},
		},
		Trips: []model.Trip{
			simpleTrip("bus-weekday", "BUS", monday, []string{"A", "B"}, [][2]int{{0, 100}, {300, 300}}),
			simpleTrip("tram-sunday", "TRAM", sunday, []string{"A", "C"}, [][2]int{{0, 200}, {400, 400}}),
		},
	}

	idx, err := Build(in)
	require.NoError(t, err)
	return idx, "A"
}

func TestNextDepartures_FiltersByWeekday(t *testing.T) {
	idx, stopExt := buildTwoTripIndex(t)
	stopA, _ := idx.StopByExtID(stopExt)

	events := idx.NextDepartures(stopA, 0, 1000, nil, time.Monday)
	require.Len(t, events, 1)
	assert.Equal(t, "bus-weekday", events[0].Trip.ExtID)
}

func TestNextDepartures_FiltersByMode(t *testing.T) {
	idx, stopExt := buildTwoTripIndex(t)
	stopA, _ := idx.StopByExtID(stopExt)

	events := idx.NextDepartures(stopA, 0, 1000, model.NewModeSet(model.ModeTram), time.Sunday)
	require.Len(t, events, 1)
	assert.Equal(t, "tram-sunday", events[0].Trip.ExtID)
}

func TestNextDepartures_RespectsLowerBoundViaBinarySearch(t *testing.T) {
	idx, stopExt := buildTwoTripIndex(t)
	stopA, _ := idx.StopByExtID(stopExt)

	events := idx.NextDepartures(stopA, 50, 1000, nil, time.Monday)
	require.Len(t, events, 1)
	assert.Equal(t, 100, events[0].StopTime.Departure)
}

func TestNextDepartures_ExcludesBeforeFromAndAfterUntil(t *testing.T) {
	idx, stopExt := buildTwoTripIndex(t)
	stopA, _ := idx.StopByExtID(stopExt)

	assert.Empty(t, idx.NextDepartures(stopA, 101, 1000, nil, time.Monday))
	assert.Empty(t, idx.NextDepartures(stopA, 0, 99, nil, time.Monday))
}

func TestNextDepartures_EmptyModeSetAllowsEverything(t *testing.T) {
	idx, stopExt := buildTwoTripIndex(t)
	stopA, _ := idx.StopByExtID(stopExt)

	events := idx.NextDepartures(stopA, 0, 1000, model.NewModeSet(), time.Sunday)
	require.Len(t, events, 1)
}

func TestStopsOfStation_DegenerateStationHasSingleStop(t *testing.T) {
	idx, stopExt := buildTwoTripIndex(t)
	stopA, _ := idx.StopByExtID(stopExt)
	stationA, ok := idx.StationByExtID(stopExt)
	require.True(t, ok)

	stops := idx.StopsOfStation(stationA)
	require.Len(t, stops, 1)
	assert.Equal(t, stopA, stops[0])
}
