package dto

import (
	"time"

	domainreviews "carmarket/internal/domain/reviews"
)

type ReviewView struct {
	ID        string    `json:"id"`
	CarID     string    `json:"car_id"`
	BookingID string    `json:"booking_id"`
	AuthorID  string    `json:"author_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewCollection struct {
	Items  []ReviewView  `json:"items"`
	Rating RatingSummary `json:"rating"`
}

func MapReviewView(r *domainreviews.Review) ReviewView {
	return ReviewView{
		ID:        r.ID,
		CarID:     string(r.CarID),
		BookingID: string(r.BookingID),
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}
