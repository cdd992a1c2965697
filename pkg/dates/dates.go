package dates

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the wire format for calendar days ("YYYY-MM-DD").
const Layout = "2006-01-02"

// ErrInvalidTimezone is returned when an IANA zone string is empty or unknown.
var ErrInvalidTimezone = errors.New("dates: invalid timezone")

// Day is a calendar date with no time-of-day or zone attached.
// Internally it is anchored at 12:00 UTC so that day arithmetic can use
// plain instant math without DST transitions skipping or repeating days.
type Day struct {
	t time.Time
}

// Parse converts a "YYYY-MM-DD" string into a Day.
func Parse(s string) (Day, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Day{}, fmt.Errorf("dates: parse %q: %w", s, err)
	}
	return fromYMD(t.Year(), t.Month(), t.Day()), nil
}

// MustParse is a test and literal helper; it panics on malformed input.
func MustParse(s string) Day {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime extracts the calendar date of t in t's own location.
func FromTime(t time.Time) Day {
	return fromYMD(t.Date())
}

// Local renders the instant as a calendar day in the given IANA timezone.
func Local(timezone string, at time.Time) (Day, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return Day{}, err
	}
	return FromTime(at.In(loc)), nil
}

// LoadLocation resolves an IANA zone string, mapping failures to ErrInvalidTimezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return nil, fmt.Errorf("%w: empty zone", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, timezone)
	}
	return loc, nil
}

func fromYMD(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 12, 0, 0, 0, time.UTC)}
}

// IsZero reports whether the Day was never set.
func (d Day) IsZero() bool {
	return d.t.IsZero()
}

// String renders the day as "YYYY-MM-DD".
func (d Day) String() string {
	return d.t.Format(Layout)
}

// AddDays returns the day shifted by n calendar days (n may be negative).
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// Prev returns the previous calendar day.
func (d Day) Prev() Day {
	return d.AddDays(-1)
}

// DaysUntil returns the signed day count other - d.
func (d Day) DaysUntil(other Day) int {
	return int(other.t.Sub(d.t) / (24 * time.Hour))
}

// MonthsUntil returns the signed whole-month count other - d,
// ignoring the day-of-month on both sides.
func (d Day) MonthsUntil(other Day) int {
	return (other.t.Year()*12 + int(other.t.Month())) - (d.t.Year()*12 + int(d.t.Month()))
}

// ISOWeekday returns the ISO weekday number, Monday=1 .. Sunday=7.
func (d Day) ISOWeekday() int {
	wd := int(d.t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// StartOfWeek returns the Monday of the containing ISO week.
func (d Day) StartOfWeek() Day {
	return d.AddDays(1 - d.ISOWeekday())
}

// DayOfMonth returns the day-of-month component, 1..31.
func (d Day) DayOfMonth() int {
	return d.t.Day()
}

// LastDayOfMonth returns the number of days in the containing month.
func (d Day) LastDayOfMonth() int {
	firstOfNext := time.Date(d.t.Year(), d.t.Month(), 1, 12, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// Before reports whether d falls strictly before other.
func (d Day) Before(other Day) bool {
	return d.t.Before(other.t)
}

// After reports whether d falls strictly after other.
func (d Day) After(other Day) bool {
	return d.t.After(other.t)
}

// Equal reports whether the two values name the same calendar day.
func (d Day) Equal(other Day) bool {
	return d.t.Equal(other.t)
}

// At builds the instant for the given local clock time on this day in loc.
func (d Day) At(hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.t.Year(), d.t.Month(), d.t.Day(), hour, minute, 0, 0, loc)
}
