package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	"carmarket/internal/app/middleware"
	"carmarket/internal/app/outbox"
	"carmarket/internal/app/uow"
	domainbooking "carmarket/internal/domain/booking"
	domainpayment "carmarket/internal/domain/payment"
	"carmarket/internal/domain/shared/events"
	"carmarket/internal/domain/shared/fault"
)

const payBookingKey = "payment.pay"

const alreadyProcessedMessage = "payment already processed"

type PayBookingCommand struct {
	CommandID       string
	BookingID       string
	PayerID         string
	Method          string
	IdempotencyKeyV string
}

func (c PayBookingCommand) Key() string { return payBookingKey }

func (c PayBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c PayBookingCommand) ResultPrototype() any { return &dto.PaymentReceipt{} }

type PayBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

var ErrUnitOfWorkRequired = errors.New("payment: unit of work required")

// Handle records a charge against a booking at most once. A repeat call
// returns the stored payment as a success, never a duplicate row. The
// simulated gateway always succeeds once preconditions pass.
func (h *PayBookingHandler) Handle(ctx context.Context, cmd PayBookingCommand) (*dto.PaymentReceipt, error) {
	if strings.TrimSpace(cmd.BookingID) == "" {
		return nil, fault.New(fault.MissingField, "booking id required")
	}
	if strings.TrimSpace(cmd.PayerID) == "" {
		return nil, fault.New(fault.MissingField, "payer id required")
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

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return nil, fault.New(fault.NotFound, "booking not found")
		}
		return nil, fault.Wrap(fault.Server, "loading booking failed", err)
	}
	if b.RenterID != cmd.PayerID {
		return nil, fault.New(fault.Forbidden, "only the renter may pay for this booking")
	}

	existing, err := unit.Payments().ByBooking(ctx, b.ID)
	if err != nil && !errors.Is(err, domainpayment.ErrNotFound) {
		return nil, fault.Wrap(fault.Server, "loading payment failed", err)
	}
	if existing != nil || b.PaymentStatus == domainbooking.PaymentPaid {
		return h.replayReceipt(b, existing), nil
	}

	now := time.Now().UTC()
	p, err := domainpayment.NewSuccessful(domainpayment.CreateParams{
		ID:            domainpayment.PaymentID(h.paymentID(cmd)),
		BookingID:     b.ID,
		PayerID:       cmd.PayerID,
		Amount:        b.Price.Total,
		Method:        cmd.Method,
		TransactionID: "txn-" + uuid.NewString(),
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Payments().CreateUnique(ctx, p); err != nil {
		if errors.Is(err, domainpayment.ErrDuplicate) {
			// Lost the race against a concurrent payer; replay theirs.
			winner, lookupErr := unit.Payments().ByBooking(ctx, b.ID)
			if lookupErr != nil {
				return nil, fault.Wrap(fault.Server, "loading winning payment failed", lookupErr)
			}
			return h.replayReceipt(b, winner), nil
		}
		return nil, fault.Wrap(fault.Server, "storing payment failed", err)
	}

	if err := b.MarkPaid(now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, fault.Wrap(fault.Server, "saving booking failed", err)
	}

	pending := append(b.PendingEvents(), events.DomainEvent(domainpayment.PaymentRecorded{
		PaymentID:     p.ID,
		BookingID:     b.ID,
		PayerID:       p.PayerID,
		Amount:        p.Amount,
		TransactionID: p.TransactionID,
		At:            now,
	}))
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

	if h.Logger != nil {
		h.Logger.Info("payment recorded", "booking_id", b.ID, "payment_id", p.ID, "amount", p.Amount.Amount)
	}

	return &dto.PaymentReceipt{Payment: dto.MapPaymentView(p)}, nil
}

func (h *PayBookingHandler) replayReceipt(b *domainbooking.Booking, p *domainpayment.Payment) *dto.PaymentReceipt {
	receipt := &dto.PaymentReceipt{
		AlreadyProcessed: true,
		Message:          alreadyProcessedMessage,
	}
	if p != nil {
		receipt.Payment = dto.MapPaymentView(p)
	} else {
		receipt.Payment = dto.PaymentView{
			BookingID: string(b.ID),
			Status:    string(domainpayment.StatusSuccess),
		}
	}
	return receipt
}

func (h *PayBookingHandler) paymentID(cmd PayBookingCommand) string {
	if cmd.CommandID != "" {
		return cmd.CommandID
	}
	return uuid.NewString()
}

func (h *PayBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[PayBookingCommand, *dto.PaymentReceipt] = (*PayBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*PayBookingCommand)(nil)
