package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end day must not be before start day")
	ErrInvalidDay   = errors.New("daterange: malformed calendar day")
)

// DayFormat is the wire format for calendar days.
const DayFormat = "2006-01-02"

// TurnoverPolicy controls whether two bookings may share a boundary day.
type TurnoverPolicy int

const (
	// SameDayTurnoverBlocked treats a shared boundary day as a conflict:
	// a car returned on the 15th cannot be picked up again on the 15th.
	SameDayTurnoverBlocked TurnoverPolicy = iota
	// SameDayTurnoverAllowed permits a same-day handoff between renters.
	SameDayTurnoverAllowed
)

// DateRange is an inclusive [Start, End] range of calendar days.
// Both endpoints are normalized to midnight; a single-day range has
// Start == End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// New builds a range from two timestamps, truncating each to its
// calendar day in the timestamp's own location. Truncating before any
// UTC conversion keeps "2024-07-01T23:00+05:30" on July 1st.
func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// ParseDay parses a YYYY-MM-DD string into a normalized day.
func ParseDay(value string) (time.Time, error) {
	t, err := time.Parse(DayFormat, value)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(start, end string) (DateRange, error) {
	s, err := ParseDay(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return DateRange{}, err
	}
	return New(s, e)
}

// Day normalizes a timestamp to midnight of its local calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if dr.End.Before(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days returns the inclusive day count; a single-day range counts as 1.
func (dr DateRange) Days() int {
	return int(dr.End.Sub(dr.Start).Hours()/24) + 1
}

// Dates expands the range into its individual calendar-day strings in
// ascending order.
func (dr DateRange) Dates() []string {
	out := make([]string, 0, dr.Days())
	for d := dr.Start; !d.After(dr.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DayFormat))
	}
	return out
}

// Overlaps reports whether two inclusive ranges collide under the given
// turnover policy. With SameDayTurnoverBlocked the test is S <= e && E >= s,
// so a shared boundary day counts as a conflict.
func (dr DateRange) Overlaps(other DateRange, policy TurnoverPolicy) bool {
	if policy == SameDayTurnoverAllowed {
		return dr.Start.Before(other.End) && dr.End.After(other.Start)
	}
	return !dr.Start.After(other.End) && !dr.End.Before(other.Start)
}

// EndsBefore reports whether the whole range is over before the given day.
func (dr DateRange) EndsBefore(day time.Time) bool {
	return dr.End.Before(Day(day))
}
