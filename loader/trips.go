package loader

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"transitradar.dev/radar/model"
)

type tripCSV struct {
	ID        string `csv:"trip_id"`
	RouteID   string `csv:"route_id"`
	ServiceID string `csv:"service_id"`
	Headsign  string `csv:"trip_headsign"`
}

// parseTrips returns the loaded trips (without StopTimes, populated
// later from stop_times.txt) and the set of trip ids, for
// stop_times.txt to validate against.
func parseTrips(data io.Reader, routes map[string]bool, weekdays map[string]model.Weekdays) ([]model.Trip, map[string]bool, error) {
	rows := []*tripCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, nil, errors.Wrap(err, "unmarshaling trips csv")
	}

	ids := map[string]bool{}
	trips := make([]model.Trip, 0, len(rows))

	for _, t := range rows {
		if ids[t.ID] {
			return nil, nil, errors.Errorf("repeated trip_id %q", t.ID)
		}
		ids[t.ID] = true

		if t.ID == "" {
			return nil, nil, errors.New("empty trip_id")
		}
		if t.RouteID == "" {
			return nil, nil, errors.New("empty route_id")
		}
		if !routes[t.RouteID] {
			return nil, nil, errors.Errorf("trip %q references unknown route_id %q", t.ID, t.RouteID)
		}

		w, ok := weekdays[t.ServiceID]
		if !ok {
			return nil, nil, errors.Errorf("trip %q references unknown service_id %q", t.ID, t.ServiceID)
		}

		trips = append(trips, model.Trip{
			ID:        t.ID,
			RouteID:   t.RouteID,
			ServiceID: t.ServiceID,
			Headsign:  t.Headsign,
			Weekdays:  w,
		})
	}

	return trips, ids, nil
}
