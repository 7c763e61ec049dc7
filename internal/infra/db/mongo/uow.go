package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"carmarket/internal/app/uow"
	domainbooking "carmarket/internal/domain/booking"
	domaincars "carmarket/internal/domain/cars"
	domainfavorites "carmarket/internal/domain/favorites"
	domainpayment "carmarket/internal/domain/payment"
	domainreviews "carmarket/internal/domain/reviews"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	CarsRepo      domaincars.Repository
	BookingRepo   domainbooking.Repository
	PaymentRepo   domainpayment.Repository
	ReviewsRepo   domainreviews.Repository
	FavoritesRepo domainfavorites.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds a factory with repositories bound to the database.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:            db,
		CarsRepo:      NewCarRepository(db),
		BookingRepo:   NewBookingRepository(db),
		PaymentRepo:   NewPaymentRepository(db),
		ReviewsRepo:   NewReviewRepository(db),
		FavoritesRepo: NewFavoritesRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:        f.DB,
		session:   session,
		cars:      f.CarsRepo,
		bookings:  f.BookingRepo,
		payments:  f.PaymentRepo,
		reviews:   f.ReviewsRepo,
		favorites: f.FavoritesRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
