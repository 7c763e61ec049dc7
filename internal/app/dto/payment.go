package dto

import (
	"time"

	domainpayment "carmarket/internal/domain/payment"
)

type PaymentView struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	PayerID       string    `json:"payer_id"`
	Amount        MoneyDTO  `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaymentReceipt wraps a payment with the idempotent-replay marker; a
// replay is surfaced as success, not as an error.
type PaymentReceipt struct {
	Payment          PaymentView `json:"payment"`
	AlreadyProcessed bool        `json:"already_processed"`
	Message          string      `json:"message,omitempty"`
}

func MapPaymentView(p *domainpayment.Payment) PaymentView {
	return PaymentView{
		ID:            string(p.ID),
		BookingID:     string(p.BookingID),
		PayerID:       p.PayerID,
		Amount:        MapMoney(p.Amount),
		Method:        p.Method,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
}
