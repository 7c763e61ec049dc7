package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "carmarket/internal/domain/booking"
	domainpayment "carmarket/internal/domain/payment"
	"carmarket/internal/domain/shared/money"
)

const paymentsCollection = "agg_payment"

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection(paymentsCollection)}
}

func (r *PaymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainpayment.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": string(bookingID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// CreateUnique relies on the unique booking_id index created at startup;
// a duplicate insert surfaces as ErrDuplicate for the handler to replay.
func (r *PaymentRepository) CreateUnique(ctx context.Context, p *domainpayment.Payment) error {
	if _, err := r.col.InsertOne(ctx, newPaymentDocument(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainpayment.ErrDuplicate
		}
		return err
	}
	return nil
}

type paymentDocument struct {
	ID            string `bson:"_id"`
	BookingID     string `bson:"booking_id"`
	PayerID       string `bson:"payer_id"`
	AmountPaise   int64  `bson:"amount_paise"`
	Currency      string `bson:"currency"`
	Method        string `bson:"method"`
	Status        string `bson:"status"`
	TransactionID string `bson:"transaction_id"`
	CreatedAt     int64  `bson:"created_at"`
}

func newPaymentDocument(p *domainpayment.Payment) paymentDocument {
	return paymentDocument{
		ID:            string(p.ID),
		BookingID:     string(p.BookingID),
		PayerID:       p.PayerID,
		AmountPaise:   p.Amount.Amount,
		Currency:      p.Amount.Currency,
		Method:        p.Method,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt.UnixMilli(),
	}
}

func (d paymentDocument) toAggregate() *domainpayment.Payment {
	return &domainpayment.Payment{
		ID:            domainpayment.PaymentID(d.ID),
		BookingID:     domainbooking.BookingID(d.BookingID),
		PayerID:       d.PayerID,
		Amount:        money.Money{Amount: d.AmountPaise, Currency: d.Currency},
		Method:        d.Method,
		Status:        domainpayment.Status(d.Status),
		TransactionID: d.TransactionID,
		CreatedAt:     timestampToTime(d.CreatedAt),
	}
}
