// Package calendarday implements service-day-relative time arithmetic:
// mapping a wall-clock instant to the service day it belongs to (per
// the configurable night-owl cutoff), and weekday-set membership
// tests against a calendar.Weekdays bitset.
package calendarday

import (
	"time"

	"transitradar.dev/radar/model"
)

// DefaultCutoff is the time of day (from midnight) before which a
// wall-clock instant is still considered part of the previous
// service day. 03:00, matching the original spec's default.
const DefaultCutoff = 3 * time.Hour

// Day identifies one service day: a calendar date plus the weekday
// used for calendar matching (which, across the cutoff, can differ
// from date.Weekday()).
type Day struct {
	Date    time.Time // truncated to midnight, in the feed's location
	Weekday time.Weekday
}

// Of maps a wall-clock instant to its service day, using cutoff as the
// night-owl boundary. Times before cutoff belong to the previous
// calendar day's service day.
func Of(instant time.Time, cutoff time.Duration) Day {
	loc := instant.Location()
	midnight := time.Date(instant.Year(), instant.Month(), instant.Day(), 0, 0, 0, 0, loc)
	sinceMidnight := instant.Sub(midnight)

	serviceDate := midnight
	if sinceMidnight < cutoff {
		serviceDate = midnight.AddDate(0, 0, -1)
	}

	return Day{
		Date:    serviceDate,
		Weekday: serviceDate.Weekday(),
	}
}

// SecondsSinceStart returns how many seconds instant lies past the
// start of its service day (i.e. past serviceDate's midnight, not past
// the cutoff). This is the same time base stop-times are recorded in,
// so values legitimately exceed 86400: a Tuesday 01:30 instant that
// Of folded into Monday's service day (because 01:30 is before the
// cutoff) lands here as Monday-midnight plus 91800 seconds.
func SecondsSinceStart(instant time.Time, day Day) int {
	loc := instant.Location()
	midnight := time.Date(day.Date.Year(), day.Date.Month(), day.Date.Day(), 0, 0, 0, 0, loc)
	return int(instant.Sub(midnight).Seconds())
}

// Next returns the service day that follows d, for wrap-around
// queries whose window crosses the service-day boundary.
func (d Day) Next() Day {
	date := d.Date.AddDate(0, 0, 1)
	return Day{Date: date, Weekday: date.Weekday()}
}

// Runs reports whether a trip with the given weekday set operates on
// d.
func Runs(weekdays model.Weekdays, d Day) bool {
	return weekdays.Has(int(d.Weekday))
}
