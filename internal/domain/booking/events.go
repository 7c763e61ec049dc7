package booking

import (
	"time"

	"carmarket/internal/domain/cars"
	"carmarket/internal/domain/shared/daterange"
	"carmarket/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID BookingID
	CarID     cars.CarID
	RenterID  string
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID
	CarID     cars.CarID
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	CarID     cars.CarID
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type TripStarted struct {
	BookingID BookingID
	At        time.Time
}

func (e TripStarted) EventName() string     { return "booking.trip_started" }
func (e TripStarted) AggregateID() string   { return string(e.BookingID) }
func (e TripStarted) OccurredAt() time.Time { return e.At }

type TripCompleted struct {
	BookingID BookingID
	At        time.Time
}

func (e TripCompleted) EventName() string     { return "booking.trip_completed" }
func (e TripCompleted) AggregateID() string   { return string(e.BookingID) }
func (e TripCompleted) OccurredAt() time.Time { return e.At }
