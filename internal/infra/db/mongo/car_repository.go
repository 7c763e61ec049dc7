package mongo

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincars "carmarket/internal/domain/cars"
	"carmarket/internal/domain/shared/money"
)

const carsCollection = "agg_car"

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type CarRepository struct {
	col *mongo.Collection
}

func NewCarRepository(db *mongo.Database) *CarRepository {
	return &CarRepository{col: db.Collection(carsCollection)}
}

func (r *CarRepository) ByID(ctx context.Context, id domaincars.CarID) (*domaincars.Car, error) {
	var doc carDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincars.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CarRepository) Save(ctx context.Context, car *domaincars.Car) error {
	doc := newCarDocument(car)
	filter := bson.M{"_id": doc.ID, "version": car.Version}
	doc.Version = car.Version + 1
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
	car.Version = doc.Version
	return nil
}

// Search filters server-side where the fields map to indexed columns and
// finishes the price-band and pagination work in process.
func (r *CarRepository) Search(ctx context.Context, params domaincars.SearchParams) (domaincars.SearchResult, error) {
	opts := params.Normalized()

	filter := bson.M{}
	if opts.OnlyActive {
		filter["status"] = string(domaincars.StatusActive)
	} else if len(opts.Statuses) > 0 {
		statuses := make([]string, 0, len(opts.Statuses))
		for _, s := range opts.Statuses {
			statuses = append(statuses, string(s))
		}
		filter["status"] = bson.M{"$in": statuses}
	}
	if opts.Host != "" {
		filter["host_id"] = string(opts.Host)
	}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return domaincars.SearchResult{}, err
	}
	defer cursor.Close(ctx)

	matches := make([]*domaincars.Car, 0)
	for cursor.Next(ctx) {
		var doc carDocument
		if err := cursor.Decode(&doc); err != nil {
			return domaincars.SearchResult{}, err
		}
		car := doc.toAggregate()
		if opts.Matches(car) {
			matches = append(matches, car)
		}
	}
	if err := cursor.Err(); err != nil {
		return domaincars.SearchResult{}, err
	}

	sort.Slice(matches, func(i, j int) bool {
		switch opts.Sort {
		case domaincars.SortByPriceDesc:
			return matches[i].DailyRate.Amount > matches[j].DailyRate.Amount
		case domaincars.SortByNewest:
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		default:
			return matches[i].DailyRate.Amount < matches[j].DailyRate.Amount
		}
	})

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return domaincars.SearchResult{Items: matches[start:end], Total: total}, nil
}

type carDocument struct {
	ID        string `bson:"_id"`
	HostID    string `bson:"host_id"`
	Title     string `bson:"title"`
	Make      string `bson:"make"`
	Model     string `bson:"model"`
	Year      int    `bson:"year"`
	City      string `bson:"city"`
	RatePaise int64  `bson:"rate_paise"`
	Currency  string `bson:"currency"`
	Status    string `bson:"status"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
	Version   int64  `bson:"version"`
}

func newCarDocument(car *domaincars.Car) carDocument {
	return carDocument{
		ID:        string(car.ID),
		HostID:    string(car.Host),
		Title:     car.Title,
		Make:      car.Make,
		Model:     car.Model,
		Year:      car.Year,
		City:      car.City,
		RatePaise: car.DailyRate.Amount,
		Currency:  car.DailyRate.Currency,
		Status:    string(car.Status),
		CreatedAt: car.CreatedAt.UnixMilli(),
		UpdatedAt: car.UpdatedAt.UnixMilli(),
		Version:   car.Version,
	}
}

func (d carDocument) toAggregate() *domaincars.Car {
	return &domaincars.Car{
		ID:        domaincars.CarID(d.ID),
		Host:      domaincars.HostID(d.HostID),
		Title:     d.Title,
		Make:      d.Make,
		Model:     d.Model,
		Year:      d.Year,
		City:      d.City,
		DailyRate: money.Money{Amount: d.RatePaise, Currency: d.Currency},
		Status:    domaincars.CarStatus(d.Status),
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
