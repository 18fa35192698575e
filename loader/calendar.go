package loader

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"transitradar.dev/radar/model"
)

type calendarCSV struct {
	ServiceID string `csv:"service_id"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
	Monday    int8   `csv:"monday"`
	Tuesday   int8   `csv:"tuesday"`
	Wednesday int8   `csv:"wednesday"`
	Thursday  int8   `csv:"thursday"`
	Friday    int8   `csv:"friday"`
	Saturday  int8   `csv:"saturday"`
	Sunday    int8   `csv:"sunday"`
}

type calendarDateCSV struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType int8   `csv:"exception_type"`
}

const gtfsDateLayout = "20060102"

func dayBit(v int8, day time.Weekday) (model.Weekdays, error) {
	if v == 1 {
		return model.Weekdays(0).With(int(day)), nil
	}
	if v != 0 {
		return 0, errors.Errorf("invalid weekday flag %d", v)
	}
	return 0, nil
}

// parseCalendar produces the per-service weekday bitset this
// repository's trips carry, from whichever of calendar.txt /
// calendar_dates.txt are present. calendar_dates.txt exception_type
// 1 ("added") folds that date's weekday into the service's running
// pattern; exception_type 2 ("removed") is read and validated but not
// subtracted, since the weekly bitset has no per-date granularity to
// subtract from (see this repository's design notes on the original
// spec's §9 open question about calendar exceptions).
func parseCalendar(calendar, calendarDates io.Reader) (map[string]model.Weekdays, string, string, error) {
	weekdays := map[string]model.Weekdays{}
	var minDate, maxDate string

	if calendar != nil {
		rows := []*calendarCSV{}
		if err := gocsv.Unmarshal(calendar, &rows); err != nil {
			return nil, "", "", errors.Wrap(err, "unmarshaling calendar csv")
		}

		seen := map[string]bool{}
		for _, c := range rows {
			if seen[c.ServiceID] {
				return nil, "", "", errors.Errorf("repeated service_id %q", c.ServiceID)
			}
			seen[c.ServiceID] = true
			if c.ServiceID == "" {
				return nil, "", "", errors.New("empty service_id")
			}

			if _, err := time.ParseInLocation(gtfsDateLayout, c.StartDate, time.UTC); err != nil {
				return nil, "", "", errors.Wrap(err, "parsing start_date")
			}
			if _, err := time.ParseInLocation(gtfsDateLayout, c.EndDate, time.UTC); err != nil {
				return nil, "", "", errors.Wrap(err, "parsing end_date")
			}

			var w model.Weekdays
			for _, pair := range []struct {
				v   int8
				day time.Weekday
			}{
				{c.Sunday, time.Sunday}, {c.Monday, time.Monday}, {c.Tuesday, time.Tuesday},
				{c.Wednesday, time.Wednesday}, {c.Thursday, time.Thursday}, {c.Friday, time.Friday},
				{c.Saturday, time.Saturday},
			} {
				bit, err := dayBit(pair.v, pair.day)
				if err != nil {
					return nil, "", "", err
				}
				w |= bit
			}
			weekdays[c.ServiceID] = w

			if minDate == "" || c.StartDate < minDate {
				minDate = c.StartDate
			}
			if maxDate == "" || c.EndDate > maxDate {
				maxDate = c.EndDate
			}
		}
	}

	if calendarDates != nil {
		rows := []*calendarDateCSV{}
		if err := gocsv.Unmarshal(calendarDates, &rows); err != nil {
			return nil, "", "", errors.Wrap(err, "unmarshaling calendar_dates csv")
		}

		seenServiceDate := map[string]bool{}
		for _, cd := range rows {
			if cd.ExceptionType < 1 || cd.ExceptionType > 2 {
				return nil, "", "", errors.Errorf("illegal exception_type %d", cd.ExceptionType)
			}

			key := cd.Date + "/" + cd.ServiceID
			if seenServiceDate[key] {
				return nil, "", "", errors.Errorf("duplicate service/date %q", key)
			}
			seenServiceDate[key] = true

			parsed, err := time.ParseInLocation(gtfsDateLayout, cd.Date, time.UTC)
			if err != nil {
				return nil, "", "", errors.Wrapf(err, "parsing date %q", cd.Date)
			}

			if cd.ExceptionType == 1 {
				weekdays[cd.ServiceID] = weekdays[cd.ServiceID].With(int(parsed.Weekday()))
			}

			if minDate == "" || cd.Date < minDate {
				minDate = cd.Date
			}
			if maxDate == "" || cd.Date > maxDate {
				maxDate = cd.Date
			}
		}
	}

	return weekdays, minDate, maxDate, nil
}
