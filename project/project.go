// Package project reduces a search.Tree into the client-facing Result
// described in the original spec's §4.F and §6: reached stations with
// bearings, the trip segments and transfers actually used to reach
// them. It never mutates the tree or the index, so projecting the
// same tree twice yields structurally equal results (the original
// spec's R1).
package project

import (
	"fmt"
	"math"

	"transitradar.dev/radar/ids"
	"transitradar.dev/radar/index"
	"transitradar.dev/radar/search"
)

type StopResult struct {
	Name    string
	Bearing float64
	Seconds int
}

type ConnectionResult struct {
	From        string
	To          string
	FromSeconds int
	ToSeconds   int
	RouteName   string
}

type SegmentResult struct {
	FromStop    string
	ToStop      string
	FromSeconds int
	ToSeconds   int
}

type TripResult struct {
	RouteName string
	Mode      string
	Segments  []SegmentResult
}

// Result is the structured answer handed to whichever external
// renderer is attached, per the original spec's §6.
type Result struct {
	DurationMinutes int
	DepartureDay    string
	DepartureTime   string

	Stops       []StopResult
	Connections []ConnectionResult
	Trips       []TripResult

	Truncated bool
}

// Build projects tree into a Result. idx must be the same snapshot
// the tree was searched against.
func Build(idx *index.ScheduleIndex, tree *search.Tree) *Result {
	origin := idx.Station(tree.Origin)

	result := &Result{
		DurationMinutes: tree.Budget / 60,
		DepartureDay:    tree.Day.Weekday.String(),
		DepartureTime:   secondsToClock(tree.QueryTime),
		Truncated:       tree.Truncated,
	}

	result.Stops = projectStations(idx, tree, origin)
	result.Connections = projectConnections(idx, tree)
	result.Trips = projectTrips(idx, tree)

	return result
}

func projectStations(idx *index.ScheduleIndex, tree *search.Tree, origin index.Station) []StopResult {
	stops := make([]StopResult, 0, len(idx.Stations()))

	for _, station := range idx.Stations() {
		if !tree.StationReached(station.ID) {
			continue
		}

		seconds := tree.EarliestAtStation[station.ID] - tree.QueryTime

		var bearing float64
		if station.ID == tree.Origin {
			bearing = 180
		} else {
			bearing = bearingDegrees(origin.Lat, origin.Lon, station.Lat, station.Lon)
		}

		stops = append(stops, StopResult{
			Name:    station.Name,
			Bearing: bearing,
			Seconds: seconds,
		})
	}

	return stops
}

func projectConnections(idx *index.ScheduleIndex, tree *search.Tree) []ConnectionResult {
	var connections []ConnectionResult

	for i := 0; i < len(tree.Predecessor); i++ {
		stop := ids.StopID(i)
		if !tree.Reached(stop) {
			continue
		}
		pred := tree.Predecessor[stop]
		if pred.Kind != search.PredTransfer {
			continue
		}

		connections = append(connections, ConnectionResult{
			From:        idx.Stop(pred.FromStop).Name,
			To:          idx.Stop(stop).Name,
			FromSeconds: tree.EarliestAtStop[pred.FromStop] - tree.QueryTime,
			ToSeconds:   tree.EarliestAtStop[stop] - tree.QueryTime,
		})
	}

	return connections
}

// tripLegKey identifies one boarding event: a specific trip boarded at
// a specific stop-time. Every stop reached by riding onward from that
// boarding shares the same key in its predecessor.
type tripLegKey struct {
	trip  ids.TripID
	board index.StopTime
}

func projectTrips(idx *index.ScheduleIndex, tree *search.Tree) []TripResult {
	seen := map[tripLegKey]bool{}
	var results []TripResult

	for i := 0; i < len(tree.Predecessor); i++ {
		stop := ids.StopID(i)
		if !tree.Reached(stop) {
			continue
		}
		pred := tree.Predecessor[stop]
		if pred.Kind != search.PredTrip {
			continue
		}

		key := tripLegKey{trip: pred.Trip, board: pred.Board}
		if seen[key] {
			continue
		}
		seen[key] = true

		results = append(results, buildTripResult(idx, tree, key))
	}

	return results
}

func buildTripResult(idx *index.ScheduleIndex, tree *search.Tree, key tripLegKey) TripResult {
	trip := idx.Trip(key.trip)
	route := idx.Route(trip.Route)

	var segments []SegmentResult
	prev := key.board
	dayOffset := key.board.Arrival - trip.StopTimes[key.board.Position].Arrival

	for p := key.board.Position + 1; p < len(trip.StopTimes); p++ {
		stopID := trip.StopTimes[p].Stop
		if !tree.Reached(stopID) {
			break
		}
		pred := tree.Predecessor[stopID]
		if pred.Kind != search.PredTrip || pred.Trip != key.trip || pred.Board != key.board {
			break
		}

		current := offsetStopTime(trip.StopTimes[p], dayOffset)

		segments = append(segments, SegmentResult{
			FromStop:    idx.Stop(prev.Stop).Name,
			ToStop:      idx.Stop(current.Stop).Name,
			FromSeconds: prev.Departure - tree.QueryTime,
			ToSeconds:   current.Arrival - tree.QueryTime,
		})

		prev = current
	}

	return TripResult{
		RouteName: routeDisplayName(route),
		Mode:      route.Mode.String(),
		Segments:  segments,
	}
}

func routeDisplayName(route index.Route) string {
	if route.ShortName != "" {
		return route.ShortName
	}
	return route.LongName
}

func offsetStopTime(st index.StopTime, offset int) index.StopTime {
	st.Arrival += offset
	st.Departure += offset
	return st
}

// bearingDegrees computes the compass-free bearing from (fromLat,
// fromLon) to (toLat, toLon): 0 = east, increasing counter-clockwise,
// per the original spec's §4.F.
func bearingDegrees(fromLat, fromLon, toLat, toLon float64) float64 {
	latRad := fromLat * math.Pi / 180
	dx := (toLon - fromLon) * math.Cos(latRad)
	dy := toLat - fromLat

	angle := math.Atan2(dy, dx) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	return angle
}

func secondsToClock(seconds int) string {
	if seconds < 0 {
		seconds += 86400
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
