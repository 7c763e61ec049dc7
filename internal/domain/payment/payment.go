package payment

import (
	"context"
	"errors"
	"time"

	"carmarket/internal/domain/booking"
	"carmarket/internal/domain/shared/fault"
	"carmarket/internal/domain/shared/money"
)

var (
	ErrNotFound = errors.New("payment: not found")
	// ErrDuplicate is returned when a payment already exists for the
	// booking; the ledger records at most one successful payment per booking.
	ErrDuplicate = errors.New("payment: booking already has a payment")
)

type PaymentID string

type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

// DefaultMethod is used when the payer does not name one.
const DefaultMethod = "card"

// Payment is a ledger row for a booking charge.
type Payment struct {
	ID            PaymentID
	BookingID     booking.BookingID
	PayerID       string
	Amount        money.Money
	Method        string
	Status        Status
	TransactionID string
	CreatedAt     time.Time
}

type CreateParams struct {
	ID            PaymentID
	BookingID     booking.BookingID
	PayerID       string
	Amount        money.Money
	Method        string
	TransactionID string
	Now           time.Time
}

// NewSuccessful records a charge that went through. The simulated
// gateway never declines once preconditions pass; a production ledger
// would add a pending/failed path here.
func NewSuccessful(params CreateParams) (*Payment, error) {
	if params.BookingID == "" {
		return nil, fault.New(fault.MissingField, "booking id required")
	}
	if params.PayerID == "" {
		return nil, fault.New(fault.MissingField, "payer id required")
	}
	if params.Amount.IsNegative() {
		return nil, fault.New(fault.InvalidRange, "payment amount must not be negative")
	}
	method := params.Method
	if method == "" {
		method = DefaultMethod
	}
	return &Payment{
		ID:            params.ID,
		BookingID:     params.BookingID,
		PayerID:       params.PayerID,
		Amount:        params.Amount,
		Method:        method,
		Status:        StatusSuccess,
		TransactionID: params.TransactionID,
		CreatedAt:     params.Now.UTC(),
	}, nil
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Payment, error)
	// CreateUnique inserts the payment only if the booking has none yet;
	// returns ErrDuplicate otherwise. Uniqueness is enforced at the
	// storage level so two racing payers cannot both insert.
	CreateUnique(ctx context.Context, p *Payment) error
}
