package dto

type BookedDates struct {
	CarID       string   `json:"car_id"`
	BookedDates []string `json:"bookedDates"`
}
