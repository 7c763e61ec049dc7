package availability

import (
	"context"
	"errors"
	"time"

	"carmarket/internal/app/dto"
	handlersupport "carmarket/internal/app/handlers/support"
	"carmarket/internal/app/queries"
	"carmarket/internal/app/uow"
	domainavailability "carmarket/internal/domain/availability"
	domaincars "carmarket/internal/domain/cars"
	"carmarket/internal/domain/shared/fault"
)

const getBookedDatesKey = "availability.booked_dates"

type GetBookedDatesQuery struct {
	CarID string
	// Today overrides the reference day for past-booking exclusion;
	// zero means the current day.
	Today time.Time
}

func (q GetBookedDatesQuery) Key() string { return getBookedDatesKey }

type GetBookedDatesHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle returns the union of booked calendar days for a car. An unknown
// car yields an empty list, not an error: this endpoint serves
// unauthenticated browsing where "no information" reads as available.
func (h *GetBookedDatesHandler) Handle(ctx context.Context, q GetBookedDatesQuery) (dto.BookedDates, error) {
	result := dto.BookedDates{CarID: q.CarID, BookedDates: []string{}}
	if q.CarID == "" {
		return result, nil
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return result, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if _, err := unit.Cars().ByID(execCtx, domaincars.CarID(q.CarID)); err != nil {
		if errors.Is(err, domaincars.ErrNotFound) {
			return result, nil
		}
		return result, fault.Wrap(fault.Server, "loading car failed", err)
	}

	bookings, err := unit.Bookings().ListBlockingByCar(execCtx, domaincars.CarID(q.CarID))
	if err != nil {
		return result, fault.Wrap(fault.Server, "listing bookings failed", err)
	}

	today := q.Today
	if today.IsZero() {
		today = time.Now()
	}
	result.BookedDates = domainavailability.BookedDates(bookings, today)
	return result, nil
}

var _ queries.Handler[GetBookedDatesQuery, dto.BookedDates] = (*GetBookedDatesHandler)(nil)
