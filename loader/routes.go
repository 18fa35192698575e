package loader

import (
	"encoding/hex"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"transitradar.dev/radar/model"
)

type routeCSV struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      string `csv:"route_type"`
	Color     string `csv:"route_color"`
	TextColor string `csv:"route_text_color"`
}

func validRouteColor(color string) bool {
	if len(color) != 6 {
		return false
	}
	_, err := hex.DecodeString(color)
	return err == nil
}

// parseRoutes returns the loaded routes and the set of route ids, for
// trips.txt to validate against.
func parseRoutes(data io.Reader, agencies map[string]bool) ([]model.Route, map[string]bool, error) {
	rows := []*routeCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, nil, errors.Wrap(err, "unmarshaling routes csv")
	}

	ids := map[string]bool{}
	routes := make([]model.Route, 0, len(rows))

	for _, r := range rows {
		if ids[r.ID] {
			return nil, nil, errors.Errorf("repeated route_id %q", r.ID)
		}
		ids[r.ID] = true

		if r.ID == "" {
			return nil, nil, errors.New("route has no route_id")
		}
		if len(agencies) > 1 && r.AgencyID == "" {
			return nil, nil, errors.Errorf("route_id %q has no agency_id", r.ID)
		}
		if r.AgencyID != "" && !agencies[r.AgencyID] {
			return nil, nil, errors.Errorf("route_id %q has unknown agency_id %q", r.ID, r.AgencyID)
		}
		if r.ShortName == "" && r.LongName == "" {
			return nil, nil, errors.Errorf("route_id %q has no short_name or long_name", r.ID)
		}
		if r.Type == "" {
			return nil, nil, errors.Errorf("route_id %q has no route_type", r.ID)
		}

		routeType, err := strconv.Atoi(r.Type)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "route_id %q has invalid route_type", r.ID)
		}

		if r.Color != "" && !validRouteColor(r.Color) {
			return nil, nil, errors.Errorf("route_id %q has invalid route_color %q", r.ID, r.Color)
		}

		routes = append(routes, model.Route{
			ID:        r.ID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Mode:      model.ModeFromGTFS(routeType),
			Color:     r.Color,
		})
	}

	return routes, ids, nil
}
