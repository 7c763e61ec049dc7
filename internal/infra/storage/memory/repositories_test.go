package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domainbooking "carmarket/internal/domain/booking"
	domaincars "carmarket/internal/domain/cars"
	domainpayment "carmarket/internal/domain/payment"
	domainpricing "carmarket/internal/domain/pricing"
	"carmarket/internal/domain/shared/daterange"
	"carmarket/internal/domain/shared/money"
)

func testBooking(t *testing.T, id, start, end string) *domainbooking.Booking {
	t.Helper()
	dr, err := daterange.Parse(start, end)
	if err != nil {
		t.Fatalf("building range: %v", err)
	}
	price, err := domainpricing.Compute(money.Must(100000, "INR"), dr.Days(), domainpricing.Overrides{})
	if err != nil {
		t.Fatalf("computing price: %v", err)
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		CarID:     "car-1",
		RenterID:  "renter-" + id,
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
	return b
}

func TestCreateExclusiveRejectsOverlap(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	if err := repo.CreateExclusive(ctx, testBooking(t, "b1", "2027-06-10", "2027-06-15"), daterange.SameDayTurnoverBlocked); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := repo.CreateExclusive(ctx, testBooking(t, "b2", "2027-06-14", "2027-06-20"), daterange.SameDayTurnoverBlocked)
	if !errors.Is(err, domainbooking.ErrDateConflict) {
		t.Fatalf("got %v, want ErrDateConflict", err)
	}
	if err := repo.CreateExclusive(ctx, testBooking(t, "b3", "2027-06-16", "2027-06-20"), daterange.SameDayTurnoverBlocked); err != nil {
		t.Fatalf("free range rejected: %v", err)
	}
}

func TestCreateExclusiveIgnoresTerminalHolders(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	cancelled := testBooking(t, "b1", "2027-06-10", "2027-06-15")
	cancelled.Status = domainbooking.StatusCancelled
	if err := repo.Save(ctx, cancelled); err != nil {
		t.Fatalf("seeding cancelled booking: %v", err)
	}
	if err := repo.CreateExclusive(ctx, testBooking(t, "b2", "2027-06-12", "2027-06-14"), daterange.SameDayTurnoverBlocked); err != nil {
		t.Fatalf("cancelled booking should not block: %v", err)
	}
}

func TestCreateExclusiveSingleWinnerUnderContention(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := testBooking(t, fmt.Sprintf("b%d", i), "2027-06-10", "2027-06-15")
			errs[i] = repo.CreateExclusive(ctx, b, daterange.SameDayTurnoverBlocked)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domainbooking.ErrDateConflict):
		default:
			t.Fatalf("attempt %d failed unexpectedly: %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}

func TestPaymentCreateUnique(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()

	first, err := domainpayment.NewSuccessful(domainpayment.CreateParams{
		ID:        "pay-1",
		BookingID: "bk-1",
		PayerID:   "renter-1",
		Amount:    money.Must(442500, "INR"),
		Now:       time.Now(),
	})
	if err != nil {
		t.Fatalf("NewSuccessful returned error: %v", err)
	}
	if err := repo.CreateUnique(ctx, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	second := *first
	second.ID = "pay-2"
	if err := repo.CreateUnique(ctx, &second); !errors.Is(err, domainpayment.ErrDuplicate) {
		t.Fatalf("got %v, want ErrDuplicate", err)
	}

	stored, err := repo.ByBooking(ctx, "bk-1")
	if err != nil {
		t.Fatalf("ByBooking returned error: %v", err)
	}
	if stored.ID != "pay-1" {
		t.Fatalf("stored payment = %s, want the first insert", stored.ID)
	}
}

func TestPaymentCreateUniqueSingleWinnerUnderContention(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := domainpayment.NewSuccessful(domainpayment.CreateParams{
				ID:        domainpayment.PaymentID(fmt.Sprintf("pay-%d", i)),
				BookingID: "bk-1",
				PayerID:   "renter-1",
				Amount:    money.Must(442500, "INR"),
				Now:       time.Now(),
			})
			if err != nil {
				errs[i] = err
				return
			}
			errs[i] = repo.CreateUnique(ctx, p)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domainpayment.ErrDuplicate):
		default:
			t.Fatalf("attempt %d failed unexpectedly: %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}

func TestCarSearchFiltersAndPaginates(t *testing.T) {
	repo := NewCarRepository()
	ctx := context.Background()
	base := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, spec := range []struct {
		id     string
		city   string
		rate   int64
		status domaincars.CarStatus
	}{
		{"c1", "Bengaluru", 80000, domaincars.StatusActive},
		{"c2", "Bengaluru", 120000, domaincars.StatusActive},
		{"c3", "Mumbai", 60000, domaincars.StatusActive},
		{"c4", "Bengaluru", 90000, domaincars.StatusInactive},
	} {
		car, err := domaincars.NewCar(domaincars.CreateParams{
			ID:        domaincars.CarID(spec.id),
			Host:      "host-1",
			Title:     "Car " + spec.id,
			City:      spec.city,
			DailyRate: money.Must(spec.rate, "INR"),
			Now:       base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("NewCar returned error: %v", err)
		}
		car.Status = spec.status
		if err := repo.Save(ctx, car); err != nil {
			t.Fatalf("seeding car: %v", err)
		}
	}

	result, err := repo.Search(ctx, domaincars.SearchParams{City: "Bengaluru", OnlyActive: true})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("total = %d, want 2", result.Total)
	}
	// default sort is price ascending
	if result.Items[0].ID != "c1" || result.Items[1].ID != "c2" {
		t.Fatalf("order = %s,%s, want c1,c2", result.Items[0].ID, result.Items[1].ID)
	}

	paged, err := repo.Search(ctx, domaincars.SearchParams{City: "Bengaluru", OnlyActive: true, Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if paged.Total != 2 || len(paged.Items) != 1 || paged.Items[0].ID != "c2" {
		t.Fatalf("paged result = %+v, want only c2 with total 2", paged)
	}
}
