package loader

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type agencyCSV struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
}

// parseAgency returns the feed's timezone and the set of agency ids
// referenced by routes.txt's agency_id column.
func parseAgency(data io.Reader) (string, map[string]bool, error) {
	rows := []*agencyCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return "", nil, errors.Wrap(err, "unmarshaling agency csv")
	}
	if len(rows) == 0 {
		return "", nil, errors.New("no agency record found")
	}

	// "If multiple agencies are specified in the dataset, each
	// must have the same agency_timezone."
	tz := rows[0].Timezone
	for _, a := range rows {
		if a.Timezone != tz {
			return "", nil, errors.New("multiple distinct agency_timezone values")
		}
	}
	if tz == "" {
		return "", nil, errors.New("missing agency_timezone")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", nil, errors.Wrapf(err, "agency_timezone %q is invalid", tz)
	}

	ids := map[string]bool{}
	for _, a := range rows {
		if ids[a.ID] {
			return "", nil, errors.Errorf("duplicated agency_id %q", a.ID)
		}
		ids[a.ID] = true
		if a.Name == "" {
			return "", nil, errors.New("missing agency_name")
		}
	}

	return tz, ids, nil
}
