// Package loader parses a static GTFS feed (a zip archive of CSV
// files) into the model records consumed by index.Build, per the
// original spec's §6 ("the loader supplies the core with a fully
// constructed index") and this repository's own §4.H. Adapted from
// the teacher's parse package: same file set, same gocsv+bom CSV
// reader, same pkg/errors wrapping style, but producing model.* slices
// directly instead of streaming rows through a storage.FeedWriter.
package loader

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spkg/bom"

	"transitradar.dev/radar/index"
	"transitradar.dev/radar/model"
)

// Result is everything a GTFS static feed yields, ready to hand to
// index.Build via BuildInput.
type Result struct {
	Stops     []model.Stop
	Stations  []model.Station
	Routes    []model.Route
	Trips     []model.Trip
	Transfers []model.TransferEdge

	Timezone          string
	CalendarStartDate string
	CalendarEndDate   string
}

var requiredFiles = []string{"agency.txt", "routes.txt", "stops.txt", "trips.txt", "stop_times.txt"}

var allFiles = []string{
	"agency.txt", "routes.txt", "stops.txt", "trips.txt", "stop_times.txt",
	"calendar.txt", "calendar_dates.txt", "transfers.txt",
}

// Load unpacks buf as a GTFS static feed and parses every file it
// recognizes, in the dependency order the teacher's ParseStatic uses:
// agency -> routes -> calendar(+dates) -> trips -> stops -> stop_times
// -> transfers.
func Load(buf []byte) (*Result, error) {
	files := map[string]io.ReadCloser{}
	for _, name := range allFiles {
		files[name] = nil
	}
	defer func() {
		for _, rc := range files {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, errors.Wrap(err, "unzipping feed")
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		parts := strings.Split(f.Name, "/")
		name := parts[len(parts)-1]
		if _, known := files[name]; !known {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", f.Name)
		}
		files[name] = rc
	}

	for _, required := range requiredFiles {
		if files[required] == nil {
			return nil, errors.Errorf("missing %s", required)
		}
	}
	if files["calendar.txt"] == nil && files["calendar_dates.txt"] == nil {
		return nil, errors.Errorf("missing calendar.txt and calendar_dates.txt")
	}

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	timezone, agencyIDs, err := parseAgency(files["agency.txt"])
	if err != nil {
		return nil, errors.Wrap(err, "parsing agency.txt")
	}

	routes, routeIDs, err := parseRoutes(files["routes.txt"], agencyIDs)
	if err != nil {
		return nil, errors.Wrap(err, "parsing routes.txt")
	}

	weekdays, calStart, calEnd, err := parseCalendar(files["calendar.txt"], files["calendar_dates.txt"])
	if err != nil {
		return nil, err
	}

	trips, tripIDs, err := parseTrips(files["trips.txt"], routeIDs, weekdays)
	if err != nil {
		return nil, errors.Wrap(err, "parsing trips.txt")
	}

	stops, stations, stopIDs, err := parseStops(files["stops.txt"])
	if err != nil {
		return nil, errors.Wrap(err, "parsing stops.txt")
	}

	stopTimesByTrip, err := parseStopTimes(files["stop_times.txt"], tripIDs, stopIDs)
	if err != nil {
		return nil, errors.Wrap(err, "parsing stop_times.txt")
	}
	for i := range trips {
		trips[i].StopTimes = stopTimesByTrip[trips[i].ID]
	}

	var transfers []model.TransferEdge
	if files["transfers.txt"] != nil {
		transfers, err = parseTransfers(files["transfers.txt"], stopIDs)
		if err != nil {
			return nil, errors.Wrap(err, "parsing transfers.txt")
		}
	}

	return &Result{
		Stops:             stops,
		Stations:          stations,
		Routes:            routes,
		Trips:             trips,
		Transfers:         transfers,
		Timezone:          timezone,
		CalendarStartDate: calStart,
		CalendarEndDate:   calEnd,
	}, nil
}

// BuildInput adapts a loaded feed into index.Build's construction
// contract (the original spec's §4.C).
func (r *Result) BuildInput(defaultTransferSeconds int) index.BuildInput {
	return index.BuildInput{
		Stops:                  r.Stops,
		Stations:               r.Stations,
		Routes:                 r.Routes,
		Trips:                  r.Trips,
		Transfers:              r.Transfers,
		DefaultTransferSeconds: defaultTransferSeconds,
	}
}
