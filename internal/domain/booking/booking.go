package booking

import (
	"context"
	"errors"
	"time"

	"carmarket/internal/domain/cars"
	"carmarket/internal/domain/pricing"
	"carmarket/internal/domain/shared/daterange"
	"carmarket/internal/domain/shared/events"
	"carmarket/internal/domain/shared/fault"
)

var (
	ErrNotFound = errors.New("booking: not found")
	// ErrDateConflict is returned by repositories when an overlapping
	// non-terminal booking already holds the requested range.
	ErrDateConflict = errors.New("booking: date range already booked")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// transitions is the explicit state machine: any jump not listed here is
// rejected, regardless of who asks.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusOngoing, StatusCompleted, StatusCancelled},
	StatusOngoing:   {StatusCompleted, StatusCancelled},
}

// ValidStatus reports whether the value names a known booking status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Party identifies which side of the booking an actor is on.
type Party int

const (
	PartyNone Party = iota
	PartyRenter
	PartyHost
)

// Booking holds a date range on a car together with the pricing snapshot
// captured at creation time.
type Booking struct {
	ID            BookingID
	CarID         cars.CarID
	RenterID      string
	HostID        cars.HostID
	Range         daterange.DateRange
	PickupTime    string
	ReturnTime    string
	TotalDays     int
	Price         pricing.Breakdown
	Status        Status
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type CreateParams struct {
	ID         BookingID
	CarID      cars.CarID
	RenterID   string
	HostID     cars.HostID
	Range      daterange.DateRange
	PickupTime string
	ReturnTime string
	TotalDays  int
	Price      pricing.Breakdown
	CreatedAt  time.Time
}

// NewBooking builds a pending, unpaid booking.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.RenterID == "" {
		return nil, fault.New(fault.MissingField, "renter id required")
	}
	if params.HostID == "" {
		return nil, fault.New(fault.MissingField, "host id required")
	}
	if string(params.RenterID) == string(params.HostID) {
		return nil, fault.New(fault.InvalidOperation, "cannot book your own car")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, fault.Wrap(fault.InvalidRange, "invalid booking range", err)
	}
	if params.TotalDays < 1 {
		return nil, fault.New(fault.InvalidRange, "total days must be at least 1")
	}
	if err := params.Price.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:            params.ID,
		CarID:         params.CarID,
		RenterID:      params.RenterID,
		HostID:        params.HostID,
		Range:         params.Range,
		PickupTime:    params.PickupTime,
		ReturnTime:    params.ReturnTime,
		TotalDays:     params.TotalDays,
		Price:         params.Price,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	b.Record(BookingRequested{BookingID: b.ID, CarID: b.CarID, RenterID: b.RenterID, Range: b.Range, Total: b.Price.Total, At: now})
	return b, nil
}

// PartyOf classifies an actor relative to this booking.
func (b *Booking) PartyOf(actorID string) Party {
	switch actorID {
	case b.RenterID:
		return PartyRenter
	case string(b.HostID):
		return PartyHost
	default:
		return PartyNone
	}
}

// IsTerminal reports whether the booking can no longer change state.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// Blocks reports whether the booking still holds its date range against
// other candidates.
func (b *Booking) Blocks() bool {
	return !b.IsTerminal()
}

func (b *Booking) canMove(to Status) bool {
	for _, allowed := range transitions[b.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionBy applies a status change on behalf of an actor, enforcing
// both the transition table and the per-target actor rules: hosts
// confirm, start and complete; either counterparty cancels.
func (b *Booking) TransitionBy(actorID string, to Status, now time.Time) error {
	party := b.PartyOf(actorID)
	if party == PartyNone {
		return fault.New(fault.Forbidden, "actor is neither renter nor host of this booking")
	}
	if !ValidStatus(to) {
		return fault.Newf(fault.InvalidOperation, "unknown status %q", string(to))
	}
	if !b.canMove(to) {
		return fault.Newf(fault.InvalidOperation, "cannot move booking from %s to %s", b.Status, to)
	}
	switch to {
	case StatusConfirmed, StatusOngoing, StatusCompleted:
		if party != PartyHost {
			return fault.New(fault.Forbidden, "only the host may apply this status")
		}
	case StatusCancelled:
		// either counterparty
	}
	b.apply(to, now)
	return nil
}

// MarkPaid flips the payment state and auto-confirms a pending booking.
// Called by the payment ledger after a successful charge.
func (b *Booking) MarkPaid(now time.Time) error {
	if b.PaymentStatus == PaymentPaid {
		return fault.New(fault.AlreadyProcessed, "booking already paid")
	}
	if b.IsTerminal() {
		return fault.Newf(fault.InvalidOperation, "cannot pay a %s booking", b.Status)
	}
	b.PaymentStatus = PaymentPaid
	b.UpdatedAt = now.UTC()
	if b.Status == StatusPending {
		b.apply(StatusConfirmed, now)
	}
	return nil
}

func (b *Booking) apply(to Status, now time.Time) {
	b.Status = to
	b.UpdatedAt = now.UTC()
	switch to {
	case StatusConfirmed:
		b.Record(BookingConfirmed{BookingID: b.ID, CarID: b.CarID, Range: b.Range, Total: b.Price.Total, At: b.UpdatedAt})
	case StatusCancelled:
		b.Record(BookingCancelled{BookingID: b.ID, CarID: b.CarID, At: b.UpdatedAt})
	case StatusOngoing:
		b.Record(TripStarted{BookingID: b.ID, At: b.UpdatedAt})
	case StatusCompleted:
		b.Record(TripCompleted{BookingID: b.ID, At: b.UpdatedAt})
	}
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// CreateExclusive inserts the booking only if no blocking booking
	// overlaps its range under the given policy; returns ErrDateConflict
	// otherwise. Check and insert are atomic with respect to concurrent
	// creations for the same car.
	CreateExclusive(ctx context.Context, b *Booking, policy daterange.TurnoverPolicy) error
	Save(ctx context.Context, b *Booking) error
	// ListBlockingByCar returns bookings in a non-terminal status for the car.
	ListBlockingByCar(ctx context.Context, carID cars.CarID) ([]*Booking, error)
	ListByRenter(ctx context.Context, renterID string) ([]*Booking, error)
	ListByHost(ctx context.Context, hostID cars.HostID) ([]*Booking, error)
}
