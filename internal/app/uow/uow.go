package uow

import (
	"context"

	domainbooking "carmarket/internal/domain/booking"
	domaincars "carmarket/internal/domain/cars"
	domainfavorites "carmarket/internal/domain/favorites"
	domainpayment "carmarket/internal/domain/payment"
	domainreviews "carmarket/internal/domain/reviews"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Cars() domaincars.Repository
	Bookings() domainbooking.Repository
	Payments() domainpayment.Repository
	Reviews() domainreviews.Repository
	Favorites() domainfavorites.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
