package dto

import (
	"time"

	domainbooking "carmarket/internal/domain/booking"
	domaincars "carmarket/internal/domain/cars"
	domainpricing "carmarket/internal/domain/pricing"
	"carmarket/internal/domain/shared/daterange"
)

type BreakdownDTO struct {
	DailyRate    MoneyDTO `json:"daily_rate"`
	TotalDays    int      `json:"total_days"`
	Subtotal     MoneyDTO `json:"subtotal"`
	ServiceFee   MoneyDTO `json:"service_fee"`
	InsuranceFee MoneyDTO `json:"insurance_fee"`
	GST          MoneyDTO `json:"gst"`
	Discount     MoneyDTO `json:"discount"`
	Total        MoneyDTO `json:"total_amount"`
}

type BookingCarSnapshot struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	City  string `json:"city,omitempty"`
}

type BookingView struct {
	ID            string             `json:"id"`
	Car           BookingCarSnapshot `json:"car"`
	RenterID      string             `json:"renter_id"`
	HostID        string             `json:"host_id"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	PickupTime    string             `json:"pickup_time,omitempty"`
	ReturnTime    string             `json:"return_time,omitempty"`
	Pricing       BreakdownDTO       `json:"pricing"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type BookingCollection struct {
	Items []BookingView `json:"items"`
}

func MapBreakdown(b domainpricing.Breakdown) BreakdownDTO {
	return BreakdownDTO{
		DailyRate:    MapMoney(b.DailyRate),
		TotalDays:    b.TotalDays,
		Subtotal:     MapMoney(b.Subtotal),
		ServiceFee:   MapMoney(b.ServiceFee),
		InsuranceFee: MapMoney(b.InsuranceFee),
		GST:          MapMoney(b.GST),
		Discount:     MapMoney(b.Discount),
		Total:        MapMoney(b.Total),
	}
}

func MapBookingView(booking *domainbooking.Booking, car *domaincars.Car) BookingView {
	snapshot := BookingCarSnapshot{ID: string(booking.CarID)}
	if car != nil {
		snapshot.Title = car.Title
		snapshot.City = car.City
	}
	return BookingView{
		ID:            string(booking.ID),
		Car:           snapshot,
		RenterID:      booking.RenterID,
		HostID:        string(booking.HostID),
		StartDate:     booking.Range.Start.Format(daterange.DayFormat),
		EndDate:       booking.Range.End.Format(daterange.DayFormat),
		PickupTime:    booking.PickupTime,
		ReturnTime:    booking.ReturnTime,
		Pricing:       MapBreakdown(booking.Price),
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.UpdatedAt,
	}
}
