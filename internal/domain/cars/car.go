package cars

import (
	"context"
	"errors"
	"strings"
	"time"

	"carmarket/internal/domain/shared/money"
)

var (
	ErrNotFound     = errors.New("cars: car not found")
	ErrInvalidTitle = errors.New("cars: title required")
	ErrInvalidRate  = errors.New("cars: daily rate must not be negative")
	ErrInvalidState = errors.New("cars: invalid status change")
)

type CarID string

type HostID string

// CarStatus tracks the listing lifecycle; only active cars are bookable.
type CarStatus string

const (
	StatusPending   CarStatus = "pending"
	StatusActive    CarStatus = "active"
	StatusInactive  CarStatus = "inactive"
	StatusSuspended CarStatus = "suspended"
)

// Car is a host-owned listing. Cars are never deleted while bookings
// reference them; hosts deactivate instead.
type Car struct {
	ID        CarID
	Host      HostID
	Title     string
	Make      string
	Model     string
	Year      int
	City      string
	DailyRate money.Money
	Status    CarStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

type CreateParams struct {
	ID        CarID
	Host      HostID
	Title     string
	Make      string
	Model     string
	Year      int
	City      string
	DailyRate money.Money
	Now       time.Time
}

// NewCar builds a pending car listing.
func NewCar(params CreateParams) (*Car, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrInvalidTitle
	}
	if params.Host == "" {
		return nil, errors.New("cars: host id required")
	}
	if params.DailyRate.IsNegative() {
		return nil, ErrInvalidRate
	}
	now := params.Now.UTC()
	return &Car{
		ID:        params.ID,
		Host:      params.Host,
		Title:     strings.TrimSpace(params.Title),
		Make:      strings.TrimSpace(params.Make),
		Model:     strings.TrimSpace(params.Model),
		Year:      params.Year,
		City:      strings.TrimSpace(params.City),
		DailyRate: params.DailyRate,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsBookable reports whether the car accepts new bookings.
func (c *Car) IsBookable() bool {
	return c.Status == StatusActive
}

func (c *Car) UpdateDetails(title, carMake, model, city string, year int, now time.Time) error {
	if strings.TrimSpace(title) == "" {
		return ErrInvalidTitle
	}
	c.Title = strings.TrimSpace(title)
	c.Make = strings.TrimSpace(carMake)
	c.Model = strings.TrimSpace(model)
	c.City = strings.TrimSpace(city)
	c.Year = year
	c.UpdatedAt = now.UTC()
	return nil
}

// SetDailyRate changes the advertised rate. Existing bookings keep their
// pricing snapshot; the new rate applies to future bookings only.
func (c *Car) SetDailyRate(rate money.Money, now time.Time) error {
	if rate.IsNegative() {
		return ErrInvalidRate
	}
	c.DailyRate = rate
	c.UpdatedAt = now.UTC()
	return nil
}

func (c *Car) Activate(now time.Time) error {
	switch c.Status {
	case StatusPending, StatusInactive:
		c.Status = StatusActive
		c.UpdatedAt = now.UTC()
		return nil
	default:
		return ErrInvalidState
	}
}

func (c *Car) Deactivate(now time.Time) error {
	if c.Status != StatusActive {
		return ErrInvalidState
	}
	c.Status = StatusInactive
	c.UpdatedAt = now.UTC()
	return nil
}

// Suspend is an administrative action and applies from any non-suspended state.
func (c *Car) Suspend(now time.Time) error {
	if c.Status == StatusSuspended {
		return ErrInvalidState
	}
	c.Status = StatusSuspended
	c.UpdatedAt = now.UTC()
	return nil
}

type Repository interface {
	ByID(ctx context.Context, id CarID) (*Car, error)
	Save(ctx context.Context, car *Car) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}
