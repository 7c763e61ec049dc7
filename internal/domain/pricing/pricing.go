package pricing

import (
	"carmarket/internal/domain/shared/fault"
	"carmarket/internal/domain/shared/money"
)

// DefaultCurrency is the single settlement currency of the marketplace.
const DefaultCurrency = "INR"

// Fee schedule. The values are policy, not math: change them here and
// every quote, snapshot and test follows.
const (
	// ServiceFeeBps is the marketplace cut taken on the subtotal (10%).
	ServiceFeeBps = 1000
	// GSTBps is the tax applied on subtotal + fees (18%).
	GSTBps = 1800
	// InsurancePerDayPaise is a flat per-day insurance charge (₹150.00).
	InsurancePerDayPaise = 15000
)

// Breakdown is the monetary snapshot captured at booking time. It is
// never recomputed from the car's possibly-later-changed rate.
type Breakdown struct {
	DailyRate    money.Money
	TotalDays    int
	Subtotal     money.Money
	ServiceFee   money.Money
	InsuranceFee money.Money
	GST          money.Money
	Discount     money.Money
	Total        money.Money
}

// Overrides lets a privileged caller pin individual components. A field
// is computed only when its override is nil; Total always reflects the
// components in effect unless it is itself overridden.
type Overrides struct {
	Subtotal     *money.Money
	ServiceFee   *money.Money
	InsuranceFee *money.Money
	GST          *money.Money
	Discount     *money.Money
	Total        *money.Money
}

// Compute derives the full breakdown for a stay:
//
//	subtotal  = dailyRate * totalDays
//	serviceFee = 10% of subtotal
//	insurance  = ₹150 per day
//	gst        = 18% of (subtotal + serviceFee + insurance)
//	total      = subtotal + serviceFee + insurance + gst - discount
func Compute(dailyRate money.Money, totalDays int, ov Overrides) (Breakdown, error) {
	if dailyRate.IsNegative() {
		return Breakdown{}, fault.New(fault.InvalidRange, "daily rate must not be negative")
	}
	if totalDays < 1 {
		return Breakdown{}, fault.New(fault.InvalidRange, "total days must be at least 1")
	}
	currency := dailyRate.Currency
	if currency == "" {
		currency = DefaultCurrency
		dailyRate.Currency = currency
	}

	b := Breakdown{DailyRate: dailyRate, TotalDays: totalDays}

	b.Subtotal = pick(ov.Subtotal, func() money.Money {
		return dailyRate.Multiply(int64(totalDays))
	})
	b.ServiceFee = pick(ov.ServiceFee, func() money.Money {
		return b.Subtotal.MultiplyBasisPoints(ServiceFeeBps)
	})
	b.InsuranceFee = pick(ov.InsuranceFee, func() money.Money {
		return money.Money{Amount: InsurancePerDayPaise * int64(totalDays), Currency: currency}
	})
	b.GST = pick(ov.GST, func() money.Money {
		taxable := b.Subtotal.Amount + b.ServiceFee.Amount + b.InsuranceFee.Amount
		return money.Money{Amount: taxable, Currency: currency}.MultiplyBasisPoints(GSTBps)
	})
	b.Discount = pick(ov.Discount, func() money.Money {
		return money.Money{Amount: 0, Currency: currency}
	})
	b.Total = pick(ov.Total, func() money.Money {
		return money.Money{
			Amount:   b.Subtotal.Amount + b.ServiceFee.Amount + b.InsuranceFee.Amount + b.GST.Amount - b.Discount.Amount,
			Currency: currency,
		}
	})

	if err := b.Validate(); err != nil {
		return Breakdown{}, err
	}
	return b, nil
}

// Validate checks internal consistency of a snapshot without recomputing
// the components themselves.
func (b Breakdown) Validate() error {
	if b.TotalDays < 1 {
		return fault.New(fault.InvalidRange, "total days must be at least 1")
	}
	if b.Subtotal.IsNegative() || b.ServiceFee.IsNegative() || b.InsuranceFee.IsNegative() || b.GST.IsNegative() {
		return fault.New(fault.InvalidRange, "pricing components must not be negative")
	}
	if b.Total.IsNegative() {
		return fault.New(fault.InvalidRange, "total must not be negative")
	}
	return nil
}

// ConsistentTotal reports whether Total equals the sum of the components.
// Snapshots with a pinned Total may legitimately differ.
func (b Breakdown) ConsistentTotal() bool {
	return b.Total.Amount == b.Subtotal.Amount+b.ServiceFee.Amount+b.InsuranceFee.Amount+b.GST.Amount-b.Discount.Amount
}

func pick(override *money.Money, compute func() money.Money) money.Money {
	if override != nil {
		return *override
	}
	return compute()
}
