package money

import (
	"errors"
	"testing"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := New(12500, "inr")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if m.Currency != "INR" {
		t.Fatalf("currency = %q, want INR", m.Currency)
	}
	if _, err := New(100, "rupees"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("got %v, want ErrInvalidCurrency", err)
	}
}

func TestAddRejectsCurrencyMismatch(t *testing.T) {
	if _, err := Must(100, "INR").Add(Must(100, "USD")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("got %v, want ErrCurrencyMismatch", err)
	}
	sum, err := Must(100, "INR").Add(Must(250, "INR"))
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if sum.Amount != 350 {
		t.Fatalf("sum = %d, want 350", sum.Amount)
	}
}

func TestMultiplyBasisPoints(t *testing.T) {
	cases := []struct {
		amount int64
		bps    int64
		want   int64
	}{
		{300000, 1000, 30000},
		{375000, 1800, 67500},
		{15036, 1800, 2706},  // 2706.48 rounds down
		{15037, 1800, 2707},  // 2706.66 rounds up
		{-15037, 1800, -2707}, // half away from zero
		{5, 1000, 1},          // 0.5 rounds up
	}
	for _, tc := range cases {
		got := Money{Amount: tc.amount, Currency: "INR"}.MultiplyBasisPoints(tc.bps)
		if got.Amount != tc.want {
			t.Fatalf("%d * %dbps = %d, want %d", tc.amount, tc.bps, got.Amount, tc.want)
		}
	}
}
