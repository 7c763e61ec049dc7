package booking

import (
	"context"
	"errors"
	"time"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	"carmarket/internal/app/middleware"
	"carmarket/internal/app/outbox"
	"carmarket/internal/app/uow"
	domainbooking "carmarket/internal/domain/booking"
	domaincars "carmarket/internal/domain/cars"
	domainpricing "carmarket/internal/domain/pricing"
	"carmarket/internal/domain/shared/daterange"
	"carmarket/internal/domain/shared/fault"
	"carmarket/internal/domain/shared/money"
)

const createBookingKey = "booking.create"

// PricingOverrideInput carries client-supplied pricing fields. They are
// honored only for admin actors; everyone else gets the server-computed
// breakdown from the car's authoritative daily rate.
type PricingOverrideInput struct {
	DailyRatePaise    *int64
	TotalDays         *int
	SubtotalPaise     *int64
	ServiceFeePaise   *int64
	InsuranceFeePaise *int64
	GSTPaise          *int64
	DiscountPaise     *int64
	TotalPaise        *int64
}

type CreateBookingCommand struct {
	CommandID       string
	CarID           string
	RenterID        string
	ActorIsAdmin    bool
	StartDate       string
	EndDate         string
	PickupTime      string
	ReturnTime      string
	Overrides       *PricingOverrideInput
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.BookingView{} }

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Turnover   daterange.TurnoverPolicy
}

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// Handle validates the request in a fixed order (missing fields, car
// exists, not own car, car active, valid range, no conflict), snapshots
// pricing and persists the booking. The conflict re-check and the insert
// happen atomically inside the repository.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.BookingView, error) {
	if cmd.CarID == "" || cmd.StartDate == "" || cmd.EndDate == "" {
		return nil, fault.New(fault.MissingField, "carId, startDate and endDate are required")
	}
	if cmd.RenterID == "" {
		return nil, fault.New(fault.MissingField, "renter id required")
	}

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

	car, err := unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID))
	if err != nil {
		if errors.Is(err, domaincars.ErrNotFound) {
			return nil, fault.New(fault.NotFound, "car not found")
		}
		return nil, fault.Wrap(fault.Server, "loading car failed", err)
	}
	if string(car.Host) == cmd.RenterID {
		return nil, fault.New(fault.InvalidOperation, "cannot book your own car")
	}
	if !car.IsBookable() {
		return nil, fault.New(fault.Unavailable, "car is not available for booking")
	}

	dr, err := daterange.Parse(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, fault.Wrap(fault.InvalidRange, "invalid booking date range", err)
	}
	totalDays := dr.Days()
	overrides := h.pricingOverrides(cmd, car.DailyRate.Currency)
	if cmd.ActorIsAdmin && cmd.Overrides != nil && cmd.Overrides.TotalDays != nil {
		totalDays = *cmd.Overrides.TotalDays
	}
	if totalDays < 1 {
		return nil, fault.New(fault.InvalidRange, "total days must be at least 1")
	}

	dailyRate := car.DailyRate
	if cmd.ActorIsAdmin && cmd.Overrides != nil && cmd.Overrides.DailyRatePaise != nil {
		dailyRate = money.Money{Amount: *cmd.Overrides.DailyRatePaise, Currency: car.DailyRate.Currency}
	}
	price, err := domainpricing.Compute(dailyRate, totalDays, overrides)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(cmd.CommandID),
		CarID:      car.ID,
		RenterID:   cmd.RenterID,
		HostID:     car.Host,
		Range:      dr,
		PickupTime: cmd.PickupTime,
		ReturnTime: cmd.ReturnTime,
		TotalDays:  totalDays,
		Price:      price,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().CreateExclusive(ctx, b, h.Turnover); err != nil {
		if errors.Is(err, domainbooking.ErrDateConflict) {
			return nil, fault.New(fault.Conflict, "requested dates are already booked")
		}
		return nil, fault.Wrap(fault.Server, "storing booking failed", err)
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

	view := dto.MapBookingView(b, car)
	return &view, nil
}

func (h *CreateBookingHandler) pricingOverrides(cmd CreateBookingCommand, currency string) domainpricing.Overrides {
	if !cmd.ActorIsAdmin || cmd.Overrides == nil {
		return domainpricing.Overrides{}
	}
	asMoney := func(v *int64) *money.Money {
		if v == nil {
			return nil
		}
		return &money.Money{Amount: *v, Currency: currency}
	}
	in := cmd.Overrides
	return domainpricing.Overrides{
		Subtotal:     asMoney(in.SubtotalPaise),
		ServiceFee:   asMoney(in.ServiceFeePaise),
		InsuranceFee: asMoney(in.InsuranceFeePaise),
		GST:          asMoney(in.GSTPaise),
		Discount:     asMoney(in.DiscountPaise),
		Total:        asMoney(in.TotalPaise),
	}
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateBookingCommand, *dto.BookingView] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
