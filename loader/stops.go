package loader

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"transitradar.dev/radar/model"
)

type stopCSV struct {
	ID            string  `csv:"stop_id"`
	Name          string  `csv:"stop_name"`
	Lat           float64 `csv:"stop_lat"`
	Lon           float64 `csv:"stop_lon"`
	LocationType  int8    `csv:"location_type"`
	ParentStation string  `csv:"parent_station"`
}

// parseStops splits stops.txt into stations (location_type 1) and
// stops (location_type 0 or absent), and returns the set of all stop
// ids for stop_times.txt and transfers.txt to validate against.
// parent_station is resolved by index.Build, not here: the loader
// only checks that any reference names a row actually present in the
// file.
func parseStops(data io.Reader) ([]model.Stop, []model.Station, map[string]bool, error) {
	rows := []*stopCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, nil, nil, errors.Wrap(err, "unmarshaling stops csv")
	}

	known := map[string]bool{}
	for _, s := range rows {
		if known[s.ID] {
			return nil, nil, nil, errors.Errorf("repeated stop_id %q", s.ID)
		}
		known[s.ID] = true
		if s.ID == "" {
			return nil, nil, nil, errors.New("empty stop_id")
		}
	}

	var stops []model.Stop
	var stations []model.Station

	for _, s := range rows {
		if s.ParentStation != "" && !known[s.ParentStation] {
			return nil, nil, nil, errors.Errorf("stop %q references unknown parent_station %q", s.ID, s.ParentStation)
		}

		if s.LocationType == 1 {
			stations = append(stations, model.Station{
				ID:   s.ID,
				Name: s.Name,
				Lat:  s.Lat,
				Lon:  s.Lon,
			})
			continue
		}

		if s.Name == "" {
			return nil, nil, nil, errors.Errorf("empty stop_name for stop_id %q", s.ID)
		}

		stops = append(stops, model.Stop{
			ID:            s.ID,
			Name:          s.Name,
			Lat:           s.Lat,
			Lon:           s.Lon,
			ParentStation: s.ParentStation,
		})
	}

	return stops, stations, known, nil
}
