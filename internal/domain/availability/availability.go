package availability

import (
	"sort"
	"time"

	"carmarket/internal/domain/booking"
	"carmarket/internal/domain/shared/daterange"
)

// DefaultTurnoverPolicy blocks same-day handoffs: a car handed back on a
// given day cannot be picked up by the next renter that same day.
const DefaultTurnoverPolicy = daterange.SameDayTurnoverBlocked

// BookedDates expands every blocking booking into individual calendar-day
// strings, skipping bookings already over before today, then dedupes and
// sorts ascending. Terminal bookings never block.
func BookedDates(bookings []*booking.Booking, today time.Time) []string {
	seen := make(map[string]struct{})
	for _, b := range bookings {
		if !b.Blocks() {
			continue
		}
		if b.Range.EndsBefore(today) {
			continue
		}
		for _, day := range b.Range.Dates() {
			seen[day] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for day := range seen {
		out = append(out, day)
	}
	sort.Strings(out)
	return out
}

// FindConflict returns the first blocking booking whose range collides
// with the candidate under the policy, or nil. The exclude id lets a
// booking be re-validated against everyone but itself.
func FindConflict(bookings []*booking.Booking, candidate daterange.DateRange, exclude booking.BookingID, policy daterange.TurnoverPolicy) *booking.Booking {
	for _, b := range bookings {
		if b.ID == exclude {
			continue
		}
		if !b.Blocks() {
			continue
		}
		if candidate.Overlaps(b.Range, policy) {
			return b
		}
	}
	return nil
}
