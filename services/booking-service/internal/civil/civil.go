// Package civil holds wall-clock dates and times for a business. A civil value
// only becomes an instant once it is placed in the tenant's *time.Location.
package civil

import (
	"fmt"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// Date is a calendar day with no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// DateOf returns the wall-clock date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// At places clock c of this day in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, int(c), 0, 0, loc)
}

// Bounds returns [00:00, next day 00:00) of the day in loc.
func (d Date) Bounds(loc *time.Location) (time.Time, time.Time) {
	return d.At(0, loc), d.AddDays(1).At(0, loc)
}

// MonthBounds returns the first instant of d's month and of the next month.
func (d Date) MonthBounds(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// Clock is minutes since midnight. 24:00 is allowed as an end of day.
type Clock int

const EndOfDay Clock = 24 * 60

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock accepts "15:04" and "15:04:05"; seconds must be zero.
func ParseClock(s string) (Clock, error) {
	if s == "24:00" || s == "24:00:00" {
		return EndOfDay, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Second() != 0 {
			return 0, fmt.Errorf("invalid time %q: seconds are not supported", s)
		}
		return NewClock(t.Hour(), t.Minute()), nil
	}
	return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
}

// ClockOf returns the wall-clock time of day of t in t's location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

func (c Clock) Valid() bool {
	return c >= 0 && c <= EndOfDay
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// DateTime is a civil date and clock, e.g. "2026-03-02T10:30".
type DateTime struct {
	Date  Date
	Clock Clock
}

func ParseDateTime(s string) (DateTime, error) {
	t, err := time.Parse(dateTimeLayout, s)
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid datetime %q: expected YYYY-MM-DDTHH:MM", s)
	}
	return DateTime{Date: DateOf(t), Clock: ClockOf(t)}, nil
}

func (dt DateTime) In(loc *time.Location) time.Time {
	return dt.Date.At(dt.Clock, loc)
}

func (dt DateTime) String() string {
	return dt.Date.String() + "T" + dt.Clock.String()
}

// FormatLocal renders t as a wall-clock "YYYY-MM-DDTHH:MM" in loc.
func FormatLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateTimeLayout)
}

// Wall drops the location of t, keeping its wall-clock fields. This is the
// value written to "timestamp without time zone" columns.
func Wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// FromWall re-attaches loc to a wall-clock value read from the database.
func FromWall(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
