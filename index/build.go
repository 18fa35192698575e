package index

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"transitradar.dev/radar/ids"
	"transitradar.dev/radar/model"
)

// ErrInvalidIndex is the error kind raised when Build's input
// violates one of the invariants in the original spec's §3.1-§3.3.
// It is the only fatal error in the core: per §7, the process is
// expected to abort rather than let a broken snapshot replace a good
// one.
type ErrInvalidIndex struct {
	Reason string
}

func (e *ErrInvalidIndex) Error() string {
	return fmt.Sprintf("invalid index: %s", e.Reason)
}

func invalid(format string, args ...interface{}) error {
	return &ErrInvalidIndex{Reason: fmt.Sprintf(format, args...)}
}

// BuildInput is the construction contract the external loader must
// satisfy, per the original spec's §4.C.
type BuildInput struct {
	Stops     []model.Stop
	Stations  []model.Station
	Routes    []model.Route
	Trips     []model.Trip
	Transfers []model.TransferEdge

	// DefaultTransferSeconds is used for the implicit in-station
	// transfer between sibling stops when the feed declares none,
	// per the original spec's §6 ("...or a default of 120s if
	// unspecified").
	DefaultTransferSeconds int
}

// Build assembles a ScheduleIndex from loader output, assigning dense
// ids, sorting stop-times and departures, and verifying invariants.
// On any violation it returns an *ErrInvalidIndex and no index.
func Build(in BuildInput) (*ScheduleIndex, error) {
	stationIDs := ids.NewInterner()
	stopIDs := ids.NewInterner()
	routeIDs := ids.NewInterner()
	tripIDs := ids.NewInterner()

	for _, s := range in.Stations {
		stationIDs.Intern(s.ID)
	}
	for _, s := range in.Stops {
		stopIDs.Intern(s.ID)
	}
	for _, r := range in.Routes {
		routeIDs.Intern(r.ID)
	}
	for _, t := range in.Trips {
		tripIDs.Intern(t.ID)
	}

	// Resolve stops -> stations, creating a degenerate
	// single-stop station for any stop with no ParentStation
	// (§3.1: "every stop references exactly one station, itself
	// if it is standalone"). A ParentStation naming a station
	// absent from in.Stations is an error.
	stopByExt := map[string]model.Stop{}
	for _, s := range in.Stops {
		stopByExt[s.ID] = s
	}

	stopParent := make([]string, stopIDs.Len())
	for _, s := range in.Stops {
		sid := stopIDs.Intern(s.ID)

		parent := s.ParentStation
		if parent == "" {
			parent = s.ID
		} else if _, known := stationIDs.Lookup(parent); !known {
			return nil, invalid("stop %q references unknown parent_station %q", s.ID, parent)
		}

		stationIDs.Intern(parent)
		stopParent[sid] = parent
	}

	stopStation := make([]ids.StationID, stopIDs.Len())
	stationStops := make([][]ids.StopID, stationIDs.Len())
	for sid, parent := range stopParent {
		stid, _ := stationIDs.Lookup(parent)
		stationID := ids.StationID(stid)
		stopStation[sid] = stationID
		stationStops[stationID] = append(stationStops[stationID], ids.StopID(sid))
	}

	stations := make([]Station, stationIDs.Len())
	for i, ext := range stationIDs.Keys() {
		sid := ids.StationID(i)
		st, found := findStation(in.Stations, ext)
		if found {
			stations[i] = Station{ID: sid, ExtID: ext, Name: st.Name, Lat: st.Lat, Lon: st.Lon, Stops: stationStops[i]}
		} else {
			// Degenerate station: take the lone stop's name/coords.
			owner := stopByExt[ext]
			stations[i] = Station{ID: sid, ExtID: ext, Name: owner.Name, Lat: owner.Lat, Lon: owner.Lon, Stops: stationStops[i]}
		}
	}

	stops := make([]Stop, stopIDs.Len())
	for i, ext := range stopIDs.Keys() {
		s := stopByExt[ext]
		stops[i] = Stop{
			ID:      ids.StopID(i),
			ExtID:   ext,
			Name:    s.Name,
			Lat:     s.Lat,
			Lon:     s.Lon,
			Station: stopStation[i],
			Mode:    s.Mode,
		}
	}

	routes := make([]Route, routeIDs.Len())
	for _, r := range in.Routes {
		rid := routeIDs.Intern(r.ID)
		routes[rid] = Route{
			ID:          ids.RouteID(rid),
			ExtID:       r.ID,
			ShortName:   r.ShortName,
			LongName:    r.LongName,
			Mode:        r.Mode,
			Color:       r.Color,
			StrokeStyle: r.StrokeStyle,
		}
	}

	trips := make([]Trip, tripIDs.Len())
	for _, t := range in.Trips {
		tid := tripIDs.Intern(t.ID)

		rid, ok := routeIDs.Lookup(t.RouteID)
		if !ok {
			return nil, invalid("trip %q references unknown route %q", t.ID, t.RouteID)
		}

		if len(t.StopTimes) < 2 {
			return nil, invalid("trip %q has fewer than 2 stop-times", t.ID)
		}

		sorted := append([]model.StopTime(nil), t.StopTimes...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

		stopTimes := make([]StopTime, len(sorted))
		prevArrival, prevDeparture := -1, -1
		for i, st := range sorted {
			if st.Position != i {
				return nil, invalid("trip %q stop-time positions are not contiguous from 0", t.ID)
			}
			if st.Arrival > st.Departure {
				return nil, invalid("trip %q position %d: arrival after departure", t.ID, i)
			}
			if st.Arrival < prevArrival || st.Departure < prevDeparture {
				return nil, invalid("trip %q: arrival/departure not weakly monotonic at position %d", t.ID, i)
			}
			prevArrival, prevDeparture = st.Arrival, st.Departure

			sid, ok := stopIDs.Lookup(st.StopID)
			if !ok {
				return nil, invalid("trip %q references unknown stop %q", t.ID, st.StopID)
			}

			stopTimes[i] = StopTime{
				Stop:      ids.StopID(sid),
				Position:  st.Position,
				Arrival:   st.Arrival,
				Departure: st.Departure,
			}
		}

		trips[tid] = Trip{
			ID:        ids.TripID(tid),
			ExtID:     t.ID,
			Route:     ids.RouteID(rid),
			Weekdays:  t.Weekdays,
			StopTimes: stopTimes,
		}
	}

	// departures_by_stop, sorted ascending by departure second.
	departuresByStop := make([][]Departure, stopIDs.Len())
	for _, trip := range trips {
		for _, st := range trip.StopTimes {
			departuresByStop[st.Stop] = append(departuresByStop[st.Stop], Departure{
				Seconds:  st.Departure,
				Trip:     trip.ID,
				Position: st.Position,
			})
		}
	}
	for i := range departuresByStop {
		sort.Slice(departuresByStop[i], func(a, b int) bool {
			return departuresByStop[i][a].Seconds < departuresByStop[i][b].Seconds
		})
	}

	// transfers_from, with every stop guaranteed at least the
	// implicit (stop, stop, 0) self-edge (§3.3, §4.C).
	transferSeconds := in.DefaultTransferSeconds
	if transferSeconds <= 0 {
		transferSeconds = 120
	}

	transfersFrom := make([][]TransferEdge, stopIDs.Len())
	seenPair := map[[2]ids.StopID]map[int]bool{}

	addTransfer := func(from, to ids.StopID, seconds int) error {
		key := [2]ids.StopID{from, to}
		durations, ok := seenPair[key]
		if !ok {
			durations = map[int]bool{}
			seenPair[key] = durations
		}
		if durations[seconds] {
			return invalid("duplicate transfer edge %d->%d with duration %d", from, to, seconds)
		}
		durations[seconds] = true
		transfersFrom[from] = append(transfersFrom[from], TransferEdge{To: to, Seconds: seconds})
		return nil
	}

	for _, te := range in.Transfers {
		from, ok := stopIDs.Lookup(te.FromStop)
		if !ok {
			return nil, invalid("transfer references unknown stop %q", te.FromStop)
		}
		to, ok := stopIDs.Lookup(te.ToStop)
		if !ok {
			return nil, invalid("transfer references unknown stop %q", te.ToStop)
		}
		if err := addTransfer(ids.StopID(from), ids.StopID(to), te.Seconds); err != nil {
			return nil, err
		}
	}

	// Implicit self-edges for every stop, and an implicit
	// within-station transfer between siblings when none was
	// declared (§6).
	for i := range stops {
		sid := ids.StopID(i)
		key := [2]ids.StopID{sid, sid}
		if durations, ok := seenPair[key]; !ok || !durations[0] {
			if err := addTransfer(sid, sid, 0); err != nil {
				return nil, err
			}
		}
	}
	for _, station := range stations {
		for _, from := range station.Stops {
			for _, to := range station.Stops {
				if from == to {
					continue
				}
				key := [2]ids.StopID{from, to}
				if _, ok := seenPair[key]; ok {
					continue
				}
				if err := addTransfer(from, to, transferSeconds); err != nil {
					return nil, errors.Wrap(err, "implicit sibling transfer")
				}
			}
		}
	}

	stopExt := map[string]ids.StopID{}
	for i, ext := range stopIDs.Keys() {
		stopExt[ext] = ids.StopID(i)
	}
	stationExt := map[string]ids.StationID{}
	for i, ext := range stationIDs.Keys() {
		stationExt[ext] = ids.StationID(i)
	}
	tripExt := map[string]ids.TripID{}
	for i, ext := range tripIDs.Keys() {
		tripExt[ext] = ids.TripID(i)
	}
	routeExt := map[string]ids.RouteID{}
	for i, ext := range routeIDs.Keys() {
		routeExt[ext] = ids.RouteID(i)
	}

	return &ScheduleIndex{
		stops:            stops,
		stations:         stations,
		routes:           routes,
		trips:            trips,
		departuresByStop: departuresByStop,
		transfersFrom:    transfersFrom,
		stopExt:          stopExt,
		stationExt:       stationExt,
		tripExt:          tripExt,
		routeExt:         routeExt,
	}, nil
}

func findStation(stations []model.Station, id string) (model.Station, bool) {
	for _, s := range stations {
		if s.ID == id {
			return s, true
		}
	}
	return model.Station{}, false
}
