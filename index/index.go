// Package index implements the ScheduleIndex: an immutable,
// arena-backed in-memory representation of a transit timetable, built
// once by the loader and then shared read-only across all queries.
//
// Every cross-reference (trip -> stop-time -> stop, stop -> station,
// ...) is a dense integer handle (package ids) into one of the
// arenas held here, so there are no reference cycles at the object
// level and lookups are O(1) table indexing, per the arena design in
// the original spec's design notes (§9).
package index

import (
	"sort"
	"time"

	"transitradar.dev/radar/ids"
	"transitradar.dev/radar/model"
)

type Stop struct {
	ID      ids.StopID
	ExtID   string
	Name    string
	Lat     float64
	Lon     float64
	Station ids.StationID
	Mode    model.Mode
}

type Station struct {
	ID    ids.StationID
	ExtID string
	Name  string
	Lat   float64
	Lon   float64
	Stops []ids.StopID
}

type Route struct {
	ID          ids.RouteID
	ExtID       string
	ShortName   string
	LongName    string
	Mode        model.Mode
	Color       string
	StrokeStyle string
}

// StopTime is one call of a trip, as held inside Trip.StopTimes.
type StopTime struct {
	Stop      ids.StopID
	Position  int
	Arrival   int
	Departure int
}

type Trip struct {
	ID        ids.TripID
	ExtID     string
	Route     ids.RouteID
	Weekdays  model.Weekdays
	StopTimes []StopTime
}

// Departure is one entry of departures_by_stop: a trip's call at a
// stop, keyed by its departure second for binary search.
type Departure struct {
	Seconds  int
	Trip     ids.TripID
	Position int
}

// TransferEdge is one entry of transfers_from: a walk from the owning
// stop to another (or itself), with its minimum duration.
type TransferEdge struct {
	To      ids.StopID
	Seconds int
}

// ScheduleIndex is immutable once returned by Build. All query
// methods are safe for concurrent use by any number of readers.
type ScheduleIndex struct {
	stops    []Stop
	stations []Station
	routes   []Route
	trips    []Trip

	departuresByStop [][]Departure
	transfersFrom     [][]TransferEdge

	stopExt    map[string]ids.StopID
	stationExt map[string]ids.StationID
	tripExt    map[string]ids.TripID
	routeExt   map[string]ids.RouteID
}

func (x *ScheduleIndex) NumStops() int    { return len(x.stops) }
func (x *ScheduleIndex) NumStations() int { return len(x.stations) }
func (x *ScheduleIndex) NumTrips() int    { return len(x.trips) }
func (x *ScheduleIndex) NumRoutes() int   { return len(x.routes) }

func (x *ScheduleIndex) Stop(id ids.StopID) Stop       { return x.stops[id] }
func (x *ScheduleIndex) Station(id ids.StationID) Station { return x.stations[id] }
func (x *ScheduleIndex) Trip(id ids.TripID) Trip       { return x.trips[id] }
func (x *ScheduleIndex) Route(id ids.RouteID) Route    { return x.routes[id] }

func (x *ScheduleIndex) Stations() []Station { return x.stations }

func (x *ScheduleIndex) StopByExtID(ext string) (ids.StopID, bool) {
	id, ok := x.stopExt[ext]
	return id, ok
}

func (x *ScheduleIndex) StationByExtID(ext string) (ids.StationID, bool) {
	id, ok := x.stationExt[ext]
	return id, ok
}

// StopsOfStation returns the stop handles belonging to a station.
func (x *ScheduleIndex) StopsOfStation(station ids.StationID) []ids.StopID {
	return x.stations[station].Stops
}

// TransfersFrom returns all outgoing transfer edges of stop, including
// the implicit (stop, stop, 0) self-edge, which Build always
// materializes.
func (x *ScheduleIndex) TransfersFrom(stop ids.StopID) []TransferEdge {
	return x.transfersFrom[stop]
}

// NextDepartures returns every (stop-time, trip) pair at stop whose
// departure second falls in [fromSeconds, untilSeconds], whose trip
// runs on weekday, and whose route mode passes modeFilter, in
// ascending departure order.
//
// The lower bound is found by binary search over departures_by_stop,
// which Build keeps sorted ascending by departure second, per the
// original spec's §4.C query contract.
func (x *ScheduleIndex) NextDepartures(
	stop ids.StopID,
	fromSeconds, untilSeconds int,
	modeFilter model.ModeSet,
	weekday time.Weekday,
) []DepartureEvent {
	deps := x.departuresByStop[stop]

	lo := sort.Search(len(deps), func(i int) bool {
		return deps[i].Seconds >= fromSeconds
	})

	events := make([]DepartureEvent, 0, 4)
	for i := lo; i < len(deps) && deps[i].Seconds <= untilSeconds; i++ {
		d := deps[i]
		trip := x.trips[d.Trip]
		if !trip.Weekdays.Has(int(weekday)) {
			continue
		}
		route := x.routes[trip.Route]
		if !modeFilter.Allows(route.Mode) {
			continue
		}
		events = append(events, DepartureEvent{
			StopTime: trip.StopTimes[d.Position],
			Trip:     trip,
		})
	}
	return events
}

// DepartureEvent pairs a qualifying stop-time with its trip.
type DepartureEvent struct {
	StopTime StopTime
	Trip     Trip
}
