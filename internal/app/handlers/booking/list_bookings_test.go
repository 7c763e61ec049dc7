package booking

import (
	"context"
	"testing"

	"carmarket/internal/domain/shared/daterange"
	"carmarket/internal/domain/shared/fault"

	domaincars "carmarket/internal/domain/cars"
	"carmarket/internal/infra/storage/memory"
)

func newListFixture(t *testing.T) memory.Factory {
	t.Helper()
	factory := memory.NewFactory()
	seedCar(t, factory, "car-1", domaincars.StatusActive)

	create := &CreateBookingHandler{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
		Turnover:   daterange.SameDayTurnoverBlocked,
	}
	ctx := context.Background()
	if _, err := create.Handle(ctx, createCmd("bk-1", "2027-06-10", "2027-06-12")); err != nil {
		t.Fatalf("seeding booking: %v", err)
	}
	second := createCmd("bk-2", "2027-07-01", "2027-07-03")
	second.RenterID = "renter-2"
	if _, err := create.Handle(ctx, second); err != nil {
		t.Fatalf("seeding booking: %v", err)
	}

	update := &UpdateBookingStatusHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	if _, err := update.Handle(ctx, UpdateBookingStatusCommand{BookingID: "bk-2", ActorID: "host-1", NewStatus: "confirmed"}); err != nil {
		t.Fatalf("confirming booking: %v", err)
	}
	return factory
}

func TestListRenterBookings(t *testing.T) {
	factory := newListFixture(t)
	h := &ListRenterBookingsHandler{UoWFactory: factory}

	result, err := h.Handle(context.Background(), ListRenterBookingsQuery{RenterID: "renter-1"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(result.Items))
	}
	if result.Items[0].ID != "bk-1" {
		t.Fatalf("item = %s, want bk-1", result.Items[0].ID)
	}
	if result.Items[0].Car.Title != "Maruti Swift" {
		t.Fatalf("car title = %q, want listing snapshot", result.Items[0].Car.Title)
	}

	if _, err := h.Handle(context.Background(), ListRenterBookingsQuery{}); !fault.Is(err, fault.MissingField) {
		t.Fatalf("missing renter id: got %v, want missing field fault", err)
	}
}

func TestListHostBookingsStatusFilter(t *testing.T) {
	factory := newListFixture(t)
	h := &ListHostBookingsHandler{UoWFactory: factory}
	ctx := context.Background()

	all, err := h.Handle(ctx, ListHostBookingsQuery{HostID: "host-1"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(all.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(all.Items))
	}

	confirmed, err := h.Handle(ctx, ListHostBookingsQuery{HostID: "host-1", Status: "confirmed"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(confirmed.Items) != 1 || confirmed.Items[0].ID != "bk-2" {
		t.Fatalf("confirmed items = %+v, want only bk-2", confirmed.Items)
	}

	everything, err := h.Handle(ctx, ListHostBookingsQuery{HostID: "host-1", Status: "all"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(everything.Items) != 2 {
		t.Fatalf("status=all items = %d, want 2", len(everything.Items))
	}

	none, err := h.Handle(ctx, ListHostBookingsQuery{HostID: "host-2"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(none.Items) != 0 {
		t.Fatalf("foreign host items = %d, want 0", len(none.Items))
	}
}
