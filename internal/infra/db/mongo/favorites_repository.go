package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincars "carmarket/internal/domain/cars"
)

const favoritesCollection = "app_favorites"

// FavoritesRepository stores one document per user holding the saved-car set.
type FavoritesRepository struct {
	col *mongo.Collection
}

func NewFavoritesRepository(db *mongo.Database) *FavoritesRepository {
	return &FavoritesRepository{col: db.Collection(favoritesCollection)}
}

func (r *FavoritesRepository) Toggle(ctx context.Context, userID string, carID domaincars.CarID) (bool, error) {
	var doc favoritesDocument
	err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return false, err
	}

	favored := true
	for _, id := range doc.CarIDs {
		if id == string(carID) {
			favored = false
			break
		}
	}

	var update bson.M
	if favored {
		update = bson.M{"$addToSet": bson.M{"car_ids": string(carID)}}
	} else {
		update = bson.M{"$pull": bson.M{"car_ids": string(carID)}}
	}
	_, err = r.col.UpdateByID(ctx, userID, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return favored, nil
}

func (r *FavoritesRepository) List(ctx context.Context, userID string) ([]domaincars.CarID, error) {
	var doc favoritesDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []domaincars.CarID{}, nil
		}
		return nil, err
	}
	ids := make([]domaincars.CarID, 0, len(doc.CarIDs))
	for _, id := range doc.CarIDs {
		ids = append(ids, domaincars.CarID(id))
	}
	return ids, nil
}

type favoritesDocument struct {
	ID     string   `bson:"_id"`
	CarIDs []string `bson:"car_ids"`
}
