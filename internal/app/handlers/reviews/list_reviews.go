package reviews

import (
	"context"
	"sort"

	"carmarket/internal/app/dto"
	handlersupport "carmarket/internal/app/handlers/support"
	"carmarket/internal/app/queries"
	"carmarket/internal/app/uow"
	domaincars "carmarket/internal/domain/cars"
	domainreviews "carmarket/internal/domain/reviews"
	"carmarket/internal/domain/shared/fault"
)

const listReviewsKey = "reviews.list"

type ListReviewsQuery struct {
	CarID string
}

func (q ListReviewsQuery) Key() string { return listReviewsKey }

type ListReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListReviewsHandler) Handle(ctx context.Context, q ListReviewsQuery) (dto.ReviewCollection, error) {
	if q.CarID == "" {
		return dto.ReviewCollection{}, fault.New(fault.MissingField, "car id required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	reviews, err := unit.Reviews().ListByCar(execCtx, domaincars.CarID(q.CarID))
	if err != nil {
		return dto.ReviewCollection{}, fault.Wrap(fault.Server, "listing reviews failed", err)
	}

	summary := domainreviews.Summarize(reviews)
	items := make([]dto.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		items = append(items, dto.MapReviewView(r))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return dto.ReviewCollection{
		Items:  items,
		Rating: dto.RatingSummary{Average: summary.Average, Count: summary.Count},
	}, nil
}

var _ queries.Handler[ListReviewsQuery, dto.ReviewCollection] = (*ListReviewsHandler)(nil)
