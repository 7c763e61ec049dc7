package cars

import (
	"context"
	"errors"

	"carmarket/internal/app/dto"
	handlersupport "carmarket/internal/app/handlers/support"
	"carmarket/internal/app/queries"
	"carmarket/internal/app/uow"
	domaincars "carmarket/internal/domain/cars"
	domainreviews "carmarket/internal/domain/reviews"
	"carmarket/internal/domain/shared/fault"
)

const getCarKey = "cars.get"

type GetCarQuery struct {
	CarID string
}

func (q GetCarQuery) Key() string { return getCarKey }

type GetCarHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle returns the car detail with its review summary folded in.
func (h *GetCarHandler) Handle(ctx context.Context, q GetCarQuery) (*dto.CarDetail, error) {
	if q.CarID == "" {
		return nil, fault.New(fault.MissingField, "car id required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	car, err := unit.Cars().ByID(execCtx, domaincars.CarID(q.CarID))
	if err != nil {
		if errors.Is(err, domaincars.ErrNotFound) {
			return nil, fault.New(fault.NotFound, "car not found")
		}
		return nil, fault.Wrap(fault.Server, "loading car failed", err)
	}

	reviews, err := unit.Reviews().ListByCar(execCtx, car.ID)
	if err != nil {
		return nil, fault.Wrap(fault.Server, "loading reviews failed", err)
	}

	detail := dto.MapCarDetail(car, domainreviews.Summarize(reviews))
	return &detail, nil
}

var _ queries.Handler[GetCarQuery, *dto.CarDetail] = (*GetCarHandler)(nil)
