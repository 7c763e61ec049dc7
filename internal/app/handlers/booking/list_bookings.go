package booking

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"carmarket/internal/app/dto"
	handlersupport "carmarket/internal/app/handlers/support"
	"carmarket/internal/app/queries"
	"carmarket/internal/app/uow"
	domainbooking "carmarket/internal/domain/booking"
	domaincars "carmarket/internal/domain/cars"
	"carmarket/internal/domain/shared/fault"
)

const (
	listRenterBookingsKey  = "booking.list_renter"
	listHostBookingsKey    = "booking.list_host"
	allStatusesFilterValue = "all"
)

type ListRenterBookingsQuery struct {
	RenterID string
}

func (q ListRenterBookingsQuery) Key() string { return listRenterBookingsKey }

type ListRenterBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListRenterBookingsHandler) Handle(ctx context.Context, q ListRenterBookingsQuery) (dto.BookingCollection, error) {
	renterID := strings.TrimSpace(q.RenterID)
	if renterID == "" {
		return dto.BookingCollection{}, fault.New(fault.MissingField, "renter id required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByRenter(execCtx, renterID)
	if err != nil {
		return dto.BookingCollection{}, fault.Wrap(fault.Server, "listing bookings failed", err)
	}
	items := mapBookingViews(execCtx, unit, bookings, "", h.Logger)
	if h.Logger != nil {
		h.Logger.Debug("renter bookings listed", "renter_id", renterID, "count", len(items))
	}
	return dto.BookingCollection{Items: items}, nil
}

type ListHostBookingsQuery struct {
	HostID string
	Status string
}

func (q ListHostBookingsQuery) Key() string { return listHostBookingsKey }

type ListHostBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListHostBookingsHandler) Handle(ctx context.Context, q ListHostBookingsQuery) (dto.BookingCollection, error) {
	hostID := strings.TrimSpace(q.HostID)
	if hostID == "" {
		return dto.BookingCollection{}, fault.New(fault.MissingField, "host id required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByHost(execCtx, domaincars.HostID(hostID))
	if err != nil {
		return dto.BookingCollection{}, fault.Wrap(fault.Server, "listing bookings failed", err)
	}
	statusFilter := strings.ToLower(strings.TrimSpace(q.Status))
	if statusFilter == allStatusesFilterValue {
		statusFilter = ""
	}
	items := mapBookingViews(execCtx, unit, bookings, statusFilter, h.Logger)
	if h.Logger != nil {
		h.Logger.Debug("host bookings listed", "host_id", hostID, "count", len(items), "status", statusFilter)
	}
	return dto.BookingCollection{Items: items}, nil
}

func mapBookingViews(ctx context.Context, unit uow.UnitOfWork, bookings []*domainbooking.Booking, statusFilter string, logger *slog.Logger) []dto.BookingView {
	carCache := make(map[domaincars.CarID]*domaincars.Car)
	items := make([]dto.BookingView, 0, len(bookings))
	for _, b := range bookings {
		if statusFilter != "" && string(b.Status) != statusFilter {
			continue
		}
		car, ok := carCache[b.CarID]
		if !ok {
			loaded, err := unit.Cars().ByID(ctx, b.CarID)
			if err != nil {
				if logger != nil {
					logger.Warn("car snapshot missing for booking", "booking_id", b.ID, "car_id", b.CarID, "error", err)
				}
			} else {
				car = loaded
			}
			carCache[b.CarID] = car
		}
		items = append(items, dto.MapBookingView(b, car))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

var _ queries.Handler[ListRenterBookingsQuery, dto.BookingCollection] = (*ListRenterBookingsHandler)(nil)
var _ queries.Handler[ListHostBookingsQuery, dto.BookingCollection] = (*ListHostBookingsHandler)(nil)
