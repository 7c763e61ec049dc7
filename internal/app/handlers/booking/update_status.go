package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	"carmarket/internal/app/outbox"
	"carmarket/internal/app/uow"
	domainbooking "carmarket/internal/domain/booking"
	"carmarket/internal/domain/shared/fault"
)

const updateBookingStatusKey = "booking.update_status"

type UpdateBookingStatusCommand struct {
	BookingID string
	ActorID   string
	NewStatus string
}

func (c UpdateBookingStatusCommand) Key() string { return updateBookingStatusKey }

type UpdateBookingStatusHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

// Handle moves a booking through the explicit transition table on behalf
// of its renter or host. Illegal jumps and third parties are rejected.
func (h *UpdateBookingStatusHandler) Handle(ctx context.Context, cmd UpdateBookingStatusCommand) (*dto.BookingView, error) {
	if strings.TrimSpace(cmd.BookingID) == "" {
		return nil, fault.New(fault.MissingField, "booking id required")
	}
	if strings.TrimSpace(cmd.ActorID) == "" {
		return nil, fault.New(fault.MissingField, "actor id required")
	}
	target := domainbooking.Status(strings.ToLower(strings.TrimSpace(cmd.NewStatus)))

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return nil, fault.New(fault.NotFound, "booking not found")
		}
		return nil, fault.Wrap(fault.Server, "loading booking failed", err)
	}

	now := time.Now().UTC()
	if err := b.TransitionBy(cmd.ActorID, target, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, fault.Wrap(fault.Server, "saving booking failed", err)
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	car, carErr := unit.Cars().ByID(ctx, b.CarID)
	if carErr != nil {
		car = nil
		if h.Logger != nil {
			h.Logger.Warn("car snapshot missing for booking", "booking_id", b.ID, "car_id", b.CarID, "error", carErr)
		}
	}

	if h.Logger != nil {
		h.Logger.Info("booking status updated", "booking_id", b.ID, "status", b.Status, "actor_id", cmd.ActorID)
	}

	view := dto.MapBookingView(b, car)
	return &view, nil
}

func (h *UpdateBookingStatusHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[UpdateBookingStatusCommand, *dto.BookingView] = (*UpdateBookingStatusHandler)(nil)
