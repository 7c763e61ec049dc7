package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"carmarket/internal/domain/booking"
	"carmarket/internal/domain/cars"
	"carmarket/internal/domain/shared/fault"
)

var ErrNotFound = errors.New("reviews: review not found")

// Review is a renter's rating of a car, gated on a completed booking.
type Review struct {
	ID        string
	CarID     cars.CarID
	BookingID booking.BookingID
	AuthorID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type CreateParams struct {
	ID        string
	CarID     cars.CarID
	BookingID booking.BookingID
	AuthorID  string
	Rating    int
	Comment   string
	Now       time.Time
}

func New(params CreateParams) (*Review, error) {
	if params.AuthorID == "" {
		return nil, fault.New(fault.MissingField, "author id required")
	}
	if params.Rating < 1 || params.Rating > 5 {
		return nil, fault.New(fault.InvalidRange, "rating must be between 1 and 5")
	}
	return &Review{
		ID:        params.ID,
		CarID:     params.CarID,
		BookingID: params.BookingID,
		AuthorID:  params.AuthorID,
		Rating:    params.Rating,
		Comment:   strings.TrimSpace(params.Comment),
		CreatedAt: params.Now.UTC(),
	}, nil
}

// Summary is the simple average exposed on the car detail page.
type Summary struct {
	Average float64
	Count   int
}

func Summarize(items []*Review) Summary {
	if len(items) == 0 {
		return Summary{}
	}
	var sum int
	for _, r := range items {
		sum += r.Rating
	}
	return Summary{
		Average: float64(sum) / float64(len(items)),
		Count:   len(items),
	}
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID booking.BookingID, authorID string) (*Review, error)
	ListByCar(ctx context.Context, carID cars.CarID) ([]*Review, error)
	Save(ctx context.Context, review *Review) error
}
