package cars

import (
	"context"
	"log/slog"

	"carmarket/internal/app/dto"
	handlersupport "carmarket/internal/app/handlers/support"
	"carmarket/internal/app/queries"
	"carmarket/internal/app/uow"
	domaincars "carmarket/internal/domain/cars"
	"carmarket/internal/domain/shared/fault"
)

const searchCarsKey = "cars.search"

type SearchCarsQuery struct {
	City          string
	HostID        string
	Status        string
	OnlyActive    bool
	PriceMinPaise int64
	PriceMaxPaise int64
	Sort          string
	Limit         int
	Offset        int
}

func (q SearchCarsQuery) Key() string { return searchCarsKey }

type SearchCarsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *SearchCarsHandler) Handle(ctx context.Context, q SearchCarsQuery) (dto.CarCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CarCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domaincars.SearchParams{
		Host:          domaincars.HostID(q.HostID),
		City:          q.City,
		OnlyActive:    q.OnlyActive,
		PriceMinPaise: q.PriceMinPaise,
		PriceMaxPaise: q.PriceMaxPaise,
		Sort:          domaincars.SortOrder(q.Sort),
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
	if q.Status != "" {
		params.Statuses = []domaincars.CarStatus{domaincars.CarStatus(q.Status)}
	}

	result, err := unit.Cars().Search(execCtx, params.Normalized())
	if err != nil {
		return dto.CarCollection{}, fault.Wrap(fault.Server, "searching cars failed", err)
	}

	items := make([]dto.CarSummary, 0, len(result.Items))
	for _, car := range result.Items {
		items = append(items, dto.MapCarSummary(car))
	}
	if h.Logger != nil {
		h.Logger.Debug("catalog searched", "count", len(items), "total", result.Total, "city", q.City)
	}
	return dto.CarCollection{Items: items, Total: result.Total}, nil
}

var _ queries.Handler[SearchCarsQuery, dto.CarCollection] = (*SearchCarsHandler)(nil)
