package memory

import (
	"context"
	"errors"

	"carmarket/internal/app/uow"
	domainbooking "carmarket/internal/domain/booking"
	domaincars "carmarket/internal/domain/cars"
	domainfavorites "carmarket/internal/domain/favorites"
	domainpayment "carmarket/internal/domain/payment"
	domainreviews "carmarket/internal/domain/reviews"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	CarsRepo      domaincars.Repository
	BookingRepo   domainbooking.Repository
	PaymentRepo   domainpayment.Repository
	ReviewsRepo   domainreviews.Repository
	FavoritesRepo domainfavorites.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// NewFactory builds a factory over a fresh set of empty stores.
func NewFactory() Factory {
	return Factory{
		CarsRepo:      NewCarRepository(),
		BookingRepo:   NewBookingRepository(),
		PaymentRepo:   NewPaymentRepository(),
		ReviewsRepo:   NewReviewsRepository(),
		FavoritesRepo: NewFavoritesRepository(),
	}
}

// Begin starts a lightweight transaction boundary. No isolation is
// provided but the abstraction matches the application ports; atomicity
// of the conflict-sensitive writes lives inside the repositories.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.CarsRepo == nil || f.BookingRepo == nil || f.PaymentRepo == nil || f.ReviewsRepo == nil || f.FavoritesRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		cars:      f.CarsRepo,
		bookings:  f.BookingRepo,
		payments:  f.PaymentRepo,
		reviews:   f.ReviewsRepo,
		favorites: f.FavoritesRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	cars      domaincars.Repository
	bookings  domainbooking.Repository
	payments  domainpayment.Repository
	reviews   domainreviews.Repository
	favorites domainfavorites.Repository
}

func (u *Unit) Cars() domaincars.Repository {
	return u.cars
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Payments() domainpayment.Repository {
	return u.payments
}

func (u *Unit) Reviews() domainreviews.Repository {
	return u.reviews
}

func (u *Unit) Favorites() domainfavorites.Repository {
	return u.favorites
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

var _ uow.UoWFactory = Factory{}
