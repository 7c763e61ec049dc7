package pricing

import (
	"testing"

	"carmarket/internal/domain/shared/fault"
	"carmarket/internal/domain/shared/money"
)

func TestComputeThreeDayStay(t *testing.T) {
	rate := money.Must(100000, "INR")

	b, err := Compute(rate, 3, Overrides{})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}

	if b.Subtotal.Amount != 300000 {
		t.Fatalf("subtotal = %d, want 300000", b.Subtotal.Amount)
	}
	if b.ServiceFee.Amount != 30000 {
		t.Fatalf("service fee = %d, want 30000", b.ServiceFee.Amount)
	}
	if b.InsuranceFee.Amount != 45000 {
		t.Fatalf("insurance = %d, want 45000", b.InsuranceFee.Amount)
	}
	if b.GST.Amount != 67500 {
		t.Fatalf("gst = %d, want 67500", b.GST.Amount)
	}
	if b.Discount.Amount != 0 {
		t.Fatalf("discount = %d, want 0", b.Discount.Amount)
	}
	if b.Total.Amount != 442500 {
		t.Fatalf("total = %d, want 442500", b.Total.Amount)
	}
	if !b.ConsistentTotal() {
		t.Fatal("expected total to equal sum of components")
	}
}

func TestComputeSingleDay(t *testing.T) {
	b, err := Compute(money.Must(50000, "INR"), 1, Overrides{})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if b.Subtotal.Amount != 50000 {
		t.Fatalf("subtotal = %d, want 50000", b.Subtotal.Amount)
	}
	if b.InsuranceFee.Amount != InsurancePerDayPaise {
		t.Fatalf("insurance = %d, want %d", b.InsuranceFee.Amount, InsurancePerDayPaise)
	}
	// 50000 + 5000 + 15000 = 70000 taxable, 18% = 12600
	if b.GST.Amount != 12600 {
		t.Fatalf("gst = %d, want 12600", b.GST.Amount)
	}
	if b.Total.Amount != 82600 {
		t.Fatalf("total = %d, want 82600", b.Total.Amount)
	}
}

func TestComputeGSTRoundsHalfUp(t *testing.T) {
	// subtotal 33, service 3, insurance 15000; taxable 15036 * 0.18 = 2706.48
	b, err := Compute(money.Must(33, "INR"), 1, Overrides{})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if b.GST.Amount != 2706 {
		t.Fatalf("gst = %d, want 2706", b.GST.Amount)
	}
}

func TestComputeDiscountOverride(t *testing.T) {
	discount := money.Must(50000, "INR")
	b, err := Compute(money.Must(100000, "INR"), 3, Overrides{Discount: &discount})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if b.Discount.Amount != 50000 {
		t.Fatalf("discount = %d, want 50000", b.Discount.Amount)
	}
	if b.Total.Amount != 392500 {
		t.Fatalf("total = %d, want 392500", b.Total.Amount)
	}
	if !b.ConsistentTotal() {
		t.Fatal("expected total to reflect the discount")
	}
}

func TestComputePinnedTotal(t *testing.T) {
	total := money.Must(400000, "INR")
	b, err := Compute(money.Must(100000, "INR"), 3, Overrides{Total: &total})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if b.Total.Amount != 400000 {
		t.Fatalf("total = %d, want pinned 400000", b.Total.Amount)
	}
	if b.Subtotal.Amount != 300000 {
		t.Fatalf("subtotal = %d, want 300000", b.Subtotal.Amount)
	}
	if b.ConsistentTotal() {
		t.Fatal("pinned total should not match the component sum here")
	}
}

func TestComputeOverriddenComponentFeedsTotal(t *testing.T) {
	serviceFee := money.Must(0, "INR")
	b, err := Compute(money.Must(100000, "INR"), 3, Overrides{ServiceFee: &serviceFee})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	// gst recomputed over 300000 + 0 + 45000 = 345000 -> 62100
	if b.GST.Amount != 62100 {
		t.Fatalf("gst = %d, want 62100", b.GST.Amount)
	}
	if b.Total.Amount != 407100 {
		t.Fatalf("total = %d, want 407100", b.Total.Amount)
	}
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	if _, err := Compute(money.Money{Amount: -1, Currency: "INR"}, 2, Overrides{}); !fault.Is(err, fault.InvalidRange) {
		t.Fatalf("negative rate: got %v, want invalid range fault", err)
	}
	if _, err := Compute(money.Must(100000, "INR"), 0, Overrides{}); !fault.Is(err, fault.InvalidRange) {
		t.Fatalf("zero days: got %v, want invalid range fault", err)
	}
	negative := money.Money{Amount: -100, Currency: "INR"}
	if _, err := Compute(money.Must(100000, "INR"), 2, Overrides{GST: &negative}); !fault.Is(err, fault.InvalidRange) {
		t.Fatalf("negative component override: got %v, want invalid range fault", err)
	}
}

func TestComputeDefaultsCurrency(t *testing.T) {
	b, err := Compute(money.Money{Amount: 100000}, 2, Overrides{})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if b.Total.Currency != DefaultCurrency {
		t.Fatalf("currency = %q, want %q", b.Total.Currency, DefaultCurrency)
	}
}
