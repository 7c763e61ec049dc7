package booking

import (
	"context"
	"testing"

	"carmarket/internal/domain/shared/daterange"
	"carmarket/internal/domain/shared/fault"

	domaincars "carmarket/internal/domain/cars"
	"carmarket/internal/infra/storage/memory"
)

func newStatusFixture(t *testing.T) (*UpdateBookingStatusHandler, memory.Factory) {
	t.Helper()
	factory := memory.NewFactory()
	seedCar(t, factory, "car-1", domaincars.StatusActive)

	create := &CreateBookingHandler{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
		Turnover:   daterange.SameDayTurnoverBlocked,
	}
	if _, err := create.Handle(context.Background(), createCmd("bk-1", "2027-06-10", "2027-06-12")); err != nil {
		t.Fatalf("seeding booking: %v", err)
	}

	return &UpdateBookingStatusHandler{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
	}, factory
}

func TestUpdateStatusHostConfirms(t *testing.T) {
	h, _ := newStatusFixture(t)
	view, err := h.Handle(context.Background(), UpdateBookingStatusCommand{
		BookingID: "bk-1",
		ActorID:   "host-1",
		NewStatus: "confirmed",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if view.Status != "confirmed" {
		t.Fatalf("status = %s, want confirmed", view.Status)
	}
}

func TestUpdateStatusNormalizesInput(t *testing.T) {
	h, _ := newStatusFixture(t)
	view, err := h.Handle(context.Background(), UpdateBookingStatusCommand{
		BookingID: "bk-1",
		ActorID:   "host-1",
		NewStatus: "  Confirmed ",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if view.Status != "confirmed" {
		t.Fatalf("status = %s, want confirmed", view.Status)
	}
}

func TestUpdateStatusRenterCannotConfirm(t *testing.T) {
	h, _ := newStatusFixture(t)
	_, err := h.Handle(context.Background(), UpdateBookingStatusCommand{
		BookingID: "bk-1",
		ActorID:   "renter-1",
		NewStatus: "confirmed",
	})
	if !fault.Is(err, fault.Forbidden) {
		t.Fatalf("got %v, want forbidden fault", err)
	}
}

func TestUpdateStatusRenterCancels(t *testing.T) {
	h, _ := newStatusFixture(t)
	view, err := h.Handle(context.Background(), UpdateBookingStatusCommand{
		BookingID: "bk-1",
		ActorID:   "renter-1",
		NewStatus: "cancelled",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if view.Status != "cancelled" {
		t.Fatalf("status = %s, want cancelled", view.Status)
	}
}

func TestUpdateStatusRejectsIllegalJump(t *testing.T) {
	h, _ := newStatusFixture(t)
	_, err := h.Handle(context.Background(), UpdateBookingStatusCommand{
		BookingID: "bk-1",
		ActorID:   "host-1",
		NewStatus: "completed",
	})
	if !fault.Is(err, fault.InvalidOperation) {
		t.Fatalf("pending -> completed: got %v, want invalid operation fault", err)
	}
}

func TestUpdateStatusThirdPartyRejected(t *testing.T) {
	h, _ := newStatusFixture(t)
	_, err := h.Handle(context.Background(), UpdateBookingStatusCommand{
		BookingID: "bk-1",
		ActorID:   "stranger",
		NewStatus: "cancelled",
	})
	if !fault.Is(err, fault.Forbidden) {
		t.Fatalf("got %v, want forbidden fault", err)
	}
}

func TestUpdateStatusUnknownBooking(t *testing.T) {
	h, _ := newStatusFixture(t)
	_, err := h.Handle(context.Background(), UpdateBookingStatusCommand{
		BookingID: "missing",
		ActorID:   "host-1",
		NewStatus: "confirmed",
	})
	if !fault.Is(err, fault.NotFound) {
		t.Fatalf("got %v, want not found fault", err)
	}
}
