package loader

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"transitradar.dev/radar/model"
)

type stopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  uint32 `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
}

// parseTime converts GTFS's "H:MM:SS" (hour may exceed 23 for
// service-day-crossing trips) into seconds since the start of the
// service day.
func parseTime(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, errors.Errorf("found %d parts in %q", len(parts), s)
	}

	hms := [3]int{}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, errors.Errorf("non-integer component in %q", s)
		}
		hms[i] = v
	}
	if hms[1] < 0 || hms[1] > 59 || hms[2] < 0 || hms[2] > 59 {
		return 0, errors.Errorf("invalid minute/second in %q", s)
	}

	return hms[0]*3600 + hms[1]*60 + hms[2], nil
}

// parseStopTimes groups stop_times.txt rows by trip id, sorted by
// stop_sequence, converting clock strings to seconds-since-service-
// day-start as the original spec's §3 stop-time representation
// requires. Position is assigned densely from 0 in stop_sequence
// order, matching index.Build's "contiguous positions from 0"
// invariant rather than carrying the feed's raw (possibly sparse)
// stop_sequence values through.
func parseStopTimes(data io.Reader, trips, stops map[string]bool) (map[string][]model.StopTime, error) {
	rows := []*stopTimeCSV{}
	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *stopTimeCSV) error {
		i++
		if !trips[st.TripID] {
			return errors.Errorf("unknown trip_id %q (row %d)", st.TripID, i+1)
		}
		if !stops[st.StopID] {
			return errors.Errorf("unknown stop_id %q (row %d)", st.StopID, i+1)
		}
		rows = append(rows, st)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unmarshaling stop_times csv")
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TripID != rows[j].TripID {
			return rows[i].TripID < rows[j].TripID
		}
		return rows[i].StopSequence < rows[j].StopSequence
	})

	byTrip := map[string][]model.StopTime{}
	seenSeq := map[string]map[uint32]bool{}

	for _, st := range rows {
		seq, ok := seenSeq[st.TripID]
		if !ok {
			seq = map[uint32]bool{}
			seenSeq[st.TripID] = seq
		}
		if seq[st.StopSequence] {
			return nil, errors.Errorf("duplicate stop_sequence %d for trip_id %q", st.StopSequence, st.TripID)
		}
		seq[st.StopSequence] = true

		arrival, err := parseTime(st.ArrivalTime)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing arrival_time for trip %q", st.TripID)
		}
		departure, err := parseTime(st.DepartureTime)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing departure_time for trip %q", st.TripID)
		}
		if arrival > departure {
			return nil, errors.Errorf("trip %q: arrival after departure at stop_sequence %d", st.TripID, st.StopSequence)
		}

		byTrip[st.TripID] = append(byTrip[st.TripID], model.StopTime{
			StopID:    st.StopID,
			Position:  len(byTrip[st.TripID]),
			Arrival:   arrival,
			Departure: departure,
		})
	}

	return byTrip, nil
}
