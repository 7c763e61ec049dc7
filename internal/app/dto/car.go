package dto

import (
	"time"

	domaincars "carmarket/internal/domain/cars"
	domainreviews "carmarket/internal/domain/reviews"
)

type CarSummary struct {
	ID        string   `json:"id"`
	HostID    string   `json:"host_id"`
	Title     string   `json:"title"`
	Make      string   `json:"make,omitempty"`
	Model     string   `json:"model,omitempty"`
	Year      int      `json:"year,omitempty"`
	City      string   `json:"city,omitempty"`
	DailyRate MoneyDTO `json:"daily_rate"`
	Status    string   `json:"status"`
}

type CarDetail struct {
	CarSummary
	Rating    RatingSummary `json:"rating"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type CarCollection struct {
	Items []CarSummary `json:"items"`
	Total int          `json:"total"`
}

func MapCarSummary(car *domaincars.Car) CarSummary {
	return CarSummary{
		ID:        string(car.ID),
		HostID:    string(car.Host),
		Title:     car.Title,
		Make:      car.Make,
		Model:     car.Model,
		Year:      car.Year,
		City:      car.City,
		DailyRate: MapMoney(car.DailyRate),
		Status:    string(car.Status),
	}
}

func MapCarDetail(car *domaincars.Car, summary domainreviews.Summary) CarDetail {
	return CarDetail{
		CarSummary: MapCarSummary(car),
		Rating: RatingSummary{
			Average: summary.Average,
			Count:   summary.Count,
		},
		CreatedAt: car.CreatedAt,
		UpdatedAt: car.UpdatedAt,
	}
}
