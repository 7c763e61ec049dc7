package payment

import (
	"context"
	"testing"
	"time"

	domainbooking "carmarket/internal/domain/booking"
	domaincars "carmarket/internal/domain/cars"
	domainpricing "carmarket/internal/domain/pricing"
	"carmarket/internal/domain/shared/daterange"
	"carmarket/internal/domain/shared/fault"
	"carmarket/internal/domain/shared/money"
	"carmarket/internal/infra/storage/memory"
)

func newPayFixture(t *testing.T) (*PayBookingHandler, memory.Factory) {
	t.Helper()
	factory := memory.NewFactory()

	dr, err := daterange.Parse("2027-06-10", "2027-06-12")
	if err != nil {
		t.Fatalf("building range: %v", err)
	}
	price, err := domainpricing.Compute(money.Must(100000, "INR"), dr.Days(), domainpricing.Overrides{})
	if err != nil {
		t.Fatalf("computing price: %v", err)
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        "bk-1",
		CarID:     "car-1",
		RenterID:  "renter-1",
		HostID:    domaincars.HostID("host-1"),
		Range:     dr,
		TotalDays: dr.Days(),
		Price:     price,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("NewBooking returned error: %v", err)
	}
	b.ClearEvents()
	if err := factory.BookingRepo.CreateExclusive(context.Background(), b, daterange.SameDayTurnoverBlocked); err != nil {
		t.Fatalf("seeding booking: %v", err)
	}

	return &PayBookingHandler{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
	}, factory
}

func TestPayBookingRecordsLedgerRowAndConfirms(t *testing.T) {
	h, factory := newPayFixture(t)
	ctx := context.Background()

	receipt, err := h.Handle(ctx, PayBookingCommand{
		CommandID: "pay-1",
		BookingID: "bk-1",
		PayerID:   "renter-1",
		Method:    "upi",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if receipt.AlreadyProcessed {
		t.Fatal("first payment should not be marked as a replay")
	}
	if receipt.Payment.Amount.Amount != 442500 {
		t.Fatalf("charged %d, want booking total 442500", receipt.Payment.Amount.Amount)
	}
	if receipt.Payment.Method != "upi" {
		t.Fatalf("method = %s, want upi", receipt.Payment.Method)
	}
	if receipt.Payment.TransactionID == "" {
		t.Fatal("expected a transaction id")
	}

	b, err := factory.BookingRepo.ByID(ctx, "bk-1")
	if err != nil {
		t.Fatalf("loading booking: %v", err)
	}
	if b.PaymentStatus != domainbooking.PaymentPaid {
		t.Fatalf("payment status = %s, want paid", b.PaymentStatus)
	}
	if b.Status != domainbooking.StatusConfirmed {
		t.Fatalf("status = %s, want auto-confirmed", b.Status)
	}
}

func TestPayBookingReplaySurfacesStoredPayment(t *testing.T) {
	h, _ := newPayFixture(t)
	ctx := context.Background()

	first, err := h.Handle(ctx, PayBookingCommand{CommandID: "pay-1", BookingID: "bk-1", PayerID: "renter-1"})
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}

	second, err := h.Handle(ctx, PayBookingCommand{CommandID: "pay-2", BookingID: "bk-1", PayerID: "renter-1"})
	if err != nil {
		t.Fatalf("repeat payment should succeed as a replay: %v", err)
	}
	if !second.AlreadyProcessed {
		t.Fatal("repeat payment should be marked already processed")
	}
	if second.Payment.ID != first.Payment.ID {
		t.Fatalf("replay returned payment %s, want stored %s", second.Payment.ID, first.Payment.ID)
	}
	if second.Payment.TransactionID != first.Payment.TransactionID {
		t.Fatal("replay must not mint a new transaction id")
	}
}

func TestPayBookingOnlyRenterMayPay(t *testing.T) {
	h, _ := newPayFixture(t)
	ctx := context.Background()

	if _, err := h.Handle(ctx, PayBookingCommand{BookingID: "bk-1", PayerID: "host-1"}); !fault.Is(err, fault.Forbidden) {
		t.Fatalf("host paying: got %v, want forbidden fault", err)
	}
	if _, err := h.Handle(ctx, PayBookingCommand{BookingID: "bk-1", PayerID: "stranger"}); !fault.Is(err, fault.Forbidden) {
		t.Fatalf("stranger paying: got %v, want forbidden fault", err)
	}
}

func TestPayBookingValidation(t *testing.T) {
	h, _ := newPayFixture(t)
	ctx := context.Background()

	if _, err := h.Handle(ctx, PayBookingCommand{PayerID: "renter-1"}); !fault.Is(err, fault.MissingField) {
		t.Fatalf("missing booking id: got %v, want missing field fault", err)
	}
	if _, err := h.Handle(ctx, PayBookingCommand{BookingID: "bk-1"}); !fault.Is(err, fault.MissingField) {
		t.Fatalf("missing payer id: got %v, want missing field fault", err)
	}
	if _, err := h.Handle(ctx, PayBookingCommand{BookingID: "missing", PayerID: "renter-1"}); !fault.Is(err, fault.NotFound) {
		t.Fatalf("unknown booking: got %v, want not found fault", err)
	}
}

func TestPayBookingDefaultsMethod(t *testing.T) {
	h, _ := newPayFixture(t)

	receipt, err := h.Handle(context.Background(), PayBookingCommand{CommandID: "pay-1", BookingID: "bk-1", PayerID: "renter-1"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if receipt.Payment.Method != "card" {
		t.Fatalf("method = %s, want default card", receipt.Payment.Method)
	}
}
