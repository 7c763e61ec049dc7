package favorites

import (
	"context"

	"carmarket/internal/domain/cars"
)

// Repository stores each user's saved-car set. Toggle flips membership
// and reports the resulting state (true = now a favorite).
type Repository interface {
	Toggle(ctx context.Context, userID string, carID cars.CarID) (bool, error)
	List(ctx context.Context, userID string) ([]cars.CarID, error)
}
