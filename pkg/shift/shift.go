// Package shift moves EXIF capture timestamps by a calendar offset.
package shift

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the EXIF date/time text format.
const Layout = "2006:01:02 15:04:05"

// ErrOutOfRange is returned when a time cannot be written in Layout.
var ErrOutOfRange = errors.New("year out of range")

const minutesPerDay = 24 * 60

// Offset is a signed calendar delta.
type Offset struct {
	Years   int
	Months  int
	Days    int
	Hours   int
	Minutes int
}

func (o Offset) IsZero() bool {
	return o == Offset{}
}

func (o Offset) String() string {
	return fmt.Sprintf("%+dy%+dmo%+dd%+dh%+dm", o.Years, o.Months, o.Days, o.Hours, o.Minutes)
}

// Shift returns t moved by o.
//
// Days, hours and minutes are applied first as elapsed time. Years and months
// are then applied to the calendar fields; when the day-of-month does not exist
// in the target month, the result falls on the 1st of that month.
func Shift(t time.Time, o Offset) time.Time {
	t = addElapsed(t, o.Days, o.Hours, o.Minutes)
	if o.Years == 0 && o.Months == 0 {
		return t
	}
	return addMonths(t, o.Months+o.Years*12)
}

// addElapsed adds whole days via AddDate so that huge offsets never overflow a
// time.Duration. t is expected to be in UTC, where a day is always 24h.
func addElapsed(t time.Time, days, hours, minutes int) time.Time {
	mins := hours*60 + minutes
	days += floorDiv(mins, minutesPerDay)
	mins = floorMod(mins, minutesPerDay)
	return t.AddDate(0, 0, days).Add(time.Duration(mins) * time.Minute)
}

// Checked is Shift for callers that need a writable result: it fails with
// ErrOutOfRange when either step leaves years 1..9999.
func Checked(t time.Time, o Offset) (time.Time, error) {
	t = addElapsed(t, o.Days, o.Hours, o.Minutes)
	if err := inRange(t); err != nil {
		return time.Time{}, err
	}
	if o.Years == 0 && o.Months == 0 {
		return t, nil
	}
	t = addMonths(t, o.Months+o.Years*12)
	if err := inRange(t); err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func inRange(t time.Time) error {
	if t.Year() < 1 || t.Year() > 9999 {
		return fmt.Errorf("%d: %w", t.Year(), ErrOutOfRange)
	}
	return nil
}

func addMonths(t time.Time, months int) time.Time {
	idx := int(t.Month()) - 1 + months
	year := t.Year() + floorDiv(idx, 12)
	month := time.Month(floorMod(idx, 12) + 1)

	day := t.Day()
	if day > daysIn(year, month) {
		day = 1
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// day 0 of the following month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// Parse decodes EXIF date/time text into a UTC time.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// Format encodes t as EXIF date/time text.
func Format(t time.Time) (string, error) {
	if err := inRange(t); err != nil {
		return "", err
	}
	return t.Format(Layout), nil
}
