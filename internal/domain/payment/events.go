package payment

import (
	"time"

	"carmarket/internal/domain/booking"
	"carmarket/internal/domain/shared/money"
)

type PaymentRecorded struct {
	PaymentID     PaymentID
	BookingID     booking.BookingID
	PayerID       string
	Amount        money.Money
	TransactionID string
	At            time.Time
}

func (e PaymentRecorded) EventName() string     { return "payment.recorded" }
func (e PaymentRecorded) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentRecorded) OccurredAt() time.Time { return e.At }
