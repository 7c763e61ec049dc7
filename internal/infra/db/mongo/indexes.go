package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates every index the repositories rely on. It runs at
// startup, before the server accepts traffic, so the unique payment
// constraint is in force for the very first request.
func EnsureIndexes(ctx context.Context, db *mongo.Database, idempotencyTTL time.Duration) error {
	payments := db.Collection(paymentsCollection)
	if _, err := payments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}

	bookings := db.Collection(bookingsCollection)
	if _, err := bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "car_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "renter_id", Value: 1}}},
		{Keys: bson.D{{Key: "host_id", Value: 1}}},
	}); err != nil {
		return err
	}

	cars := db.Collection(carsCollection)
	if _, err := cars.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "host_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "city", Value: 1}}},
	}); err != nil {
		return err
	}

	reviews := db.Collection(reviewsCollection)
	if _, err := reviews.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "car_id", Value: 1}}},
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "author_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return err
	}

	idempotency := db.Collection(idempotencyCollection)
	if _, err := idempotency.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(idempotencyTTL.Seconds())),
		},
	}); err != nil {
		return err
	}

	return nil
}
