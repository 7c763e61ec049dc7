package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "carmarket/internal/domain/booking"
	domaincars "carmarket/internal/domain/cars"
	domainpricing "carmarket/internal/domain/pricing"
	"carmarket/internal/domain/shared/daterange"
	"carmarket/internal/domain/shared/money"
)

const bookingsCollection = "agg_booking"

var blockingStatuses = []string{
	string(domainbooking.StatusPending),
	string(domainbooking.StatusConfirmed),
	string(domainbooking.StatusOngoing),
}

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

// CreateExclusive checks for an overlapping blocking booking and inserts
// in one step. Callers run it inside the session transaction injected by
// the unit of work, which is what makes check and insert atomic against
// concurrent requests for the same car.
func (r *BookingRepository) CreateExclusive(ctx context.Context, b *domainbooking.Booking, policy daterange.TurnoverPolicy) error {
	start := b.Range.Start.UnixMilli()
	end := b.Range.End.UnixMilli()

	var overlap bson.M
	if policy == daterange.SameDayTurnoverAllowed {
		overlap = bson.M{
			"range.start": bson.M{"$lt": end},
			"range.end":   bson.M{"$gt": start},
		}
	} else {
		overlap = bson.M{
			"range.start": bson.M{"$lte": end},
			"range.end":   bson.M{"$gte": start},
		}
	}
	filter := bson.M{
		"car_id": string(b.CarID),
		"status": bson.M{"$in": blockingStatuses},
	}
	for k, v := range overlap {
		filter[k] = v
	}

	count, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if count > 0 {
		return domainbooking.ErrDateConflict
	}

	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrDateConflict
		}
		return err
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListBlockingByCar(ctx context.Context, carID domaincars.CarID) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"car_id": string(carID),
		"status": bson.M{"$in": blockingStatuses},
	}
	return r.list(ctx, filter)
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"renter_id": renterID})
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID domaincars.HostID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"host_id": string(hostID)})
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domainbooking.Booking, 0)
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID            string            `bson:"_id"`
	CarID         string            `bson:"car_id"`
	RenterID      string            `bson:"renter_id"`
	HostID        string            `bson:"host_id"`
	Range         rangeDocument     `bson:"range"`
	PickupTime    string            `bson:"pickup_time"`
	ReturnTime    string            `bson:"return_time"`
	TotalDays     int               `bson:"total_days"`
	Price         breakdownDocument `bson:"price"`
	Status        string            `bson:"status"`
	PaymentStatus string            `bson:"payment_status"`
	CreatedAt     int64             `bson:"created_at"`
	UpdatedAt     int64             `bson:"updated_at"`
	Version       int64             `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type breakdownDocument struct {
	RatePaise      int64  `bson:"rate_paise"`
	Currency       string `bson:"currency"`
	TotalDays      int    `bson:"total_days"`
	SubtotalPaise  int64  `bson:"subtotal_paise"`
	ServicePaise   int64  `bson:"service_paise"`
	InsurancePaise int64  `bson:"insurance_paise"`
	GSTPaise       int64  `bson:"gst_paise"`
	DiscountPaise  int64  `bson:"discount_paise"`
	TotalPaise     int64  `bson:"total_paise"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:            string(b.ID),
		CarID:         string(b.CarID),
		RenterID:      b.RenterID,
		HostID:        string(b.HostID),
		Range:         rangeDocument{Start: b.Range.Start.UnixMilli(), End: b.Range.End.UnixMilli()},
		PickupTime:    b.PickupTime,
		ReturnTime:    b.ReturnTime,
		TotalDays:     b.TotalDays,
		Price:         newBreakdownDocument(b.Price),
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
}

func newBreakdownDocument(p domainpricing.Breakdown) breakdownDocument {
	return breakdownDocument{
		RatePaise:      p.DailyRate.Amount,
		Currency:       p.DailyRate.Currency,
		TotalDays:      p.TotalDays,
		SubtotalPaise:  p.Subtotal.Amount,
		ServicePaise:   p.ServiceFee.Amount,
		InsurancePaise: p.InsuranceFee.Amount,
		GSTPaise:       p.GST.Amount,
		DiscountPaise:  p.Discount.Amount,
		TotalPaise:     p.Total.Amount,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:            domainbooking.BookingID(d.ID),
		CarID:         domaincars.CarID(d.CarID),
		RenterID:      d.RenterID,
		HostID:        domaincars.HostID(d.HostID),
		Range:         daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		PickupTime:    d.PickupTime,
		ReturnTime:    d.ReturnTime,
		TotalDays:     d.TotalDays,
		Price:         d.Price.toBreakdown(),
		Status:        domainbooking.Status(d.Status),
		PaymentStatus: domainbooking.PaymentStatus(d.PaymentStatus),
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
}

func (d breakdownDocument) toBreakdown() domainpricing.Breakdown {
	cur := d.Currency
	return domainpricing.Breakdown{
		DailyRate:    money.Money{Amount: d.RatePaise, Currency: cur},
		TotalDays:    d.TotalDays,
		Subtotal:     money.Money{Amount: d.SubtotalPaise, Currency: cur},
		ServiceFee:   money.Money{Amount: d.ServicePaise, Currency: cur},
		InsuranceFee: money.Money{Amount: d.InsurancePaise, Currency: cur},
		GST:          money.Money{Amount: d.GSTPaise, Currency: cur},
		Discount:     money.Money{Amount: d.DiscountPaise, Currency: cur},
		Total:        money.Money{Amount: d.TotalPaise, Currency: cur},
	}
}
