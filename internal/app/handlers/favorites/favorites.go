package favorites

import (
	"context"
	"errors"
	"log/slog"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	handlersupport "carmarket/internal/app/handlers/support"
	"carmarket/internal/app/queries"
	"carmarket/internal/app/uow"
	domaincars "carmarket/internal/domain/cars"
	"carmarket/internal/domain/shared/fault"
)

const (
	toggleFavoriteKey = "favorites.toggle"
	listFavoritesKey  = "favorites.list"
)

var ErrUnitOfWorkRequired = errors.New("favorites: unit of work required")

type ToggleFavoriteCommand struct {
	UserID string
	CarID  string
}

func (c ToggleFavoriteCommand) Key() string { return toggleFavoriteKey }

type ToggleFavoriteHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle flips the favorite flag for a car and reports the new state.
func (h *ToggleFavoriteHandler) Handle(ctx context.Context, cmd ToggleFavoriteCommand) (*dto.FavoriteState, error) {
	if cmd.UserID == "" {
		return nil, fault.New(fault.MissingField, "user id required")
	}
	if cmd.CarID == "" {
		return nil, fault.New(fault.MissingField, "car id required")
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	if _, err := unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID)); err != nil {
		if errors.Is(err, domaincars.ErrNotFound) {
			return nil, fault.New(fault.NotFound, "car not found")
		}
		return nil, fault.Wrap(fault.Server, "loading car failed", err)
	}

	favored, err := unit.Favorites().Toggle(ctx, cmd.UserID, domaincars.CarID(cmd.CarID))
	if err != nil {
		return nil, fault.Wrap(fault.Server, "toggling favorite failed", err)
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Debug("favorite toggled", "user_id", cmd.UserID, "car_id", cmd.CarID, "favored", favored)
	}
	return &dto.FavoriteState{CarID: cmd.CarID, Favored: favored}, nil
}

type ListFavoritesQuery struct {
	UserID string
}

func (q ListFavoritesQuery) Key() string { return listFavoritesKey }

type ListFavoritesHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle lists the user's saved cars. Listings that disappeared since
// being saved are skipped rather than failing the whole page.
func (h *ListFavoritesHandler) Handle(ctx context.Context, q ListFavoritesQuery) (dto.CarCollection, error) {
	if q.UserID == "" {
		return dto.CarCollection{}, fault.New(fault.MissingField, "user id required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CarCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	ids, err := unit.Favorites().List(execCtx, q.UserID)
	if err != nil {
		return dto.CarCollection{}, fault.Wrap(fault.Server, "listing favorites failed", err)
	}

	items := make([]dto.CarSummary, 0, len(ids))
	for _, id := range ids {
		car, loadErr := unit.Cars().ByID(execCtx, id)
		if loadErr != nil {
			if errors.Is(loadErr, domaincars.ErrNotFound) {
				continue
			}
			return dto.CarCollection{}, fault.Wrap(fault.Server, "loading car failed", loadErr)
		}
		items = append(items, dto.MapCarSummary(car))
	}
	return dto.CarCollection{Items: items, Total: len(items)}, nil
}

var _ commands.Handler[ToggleFavoriteCommand, *dto.FavoriteState] = (*ToggleFavoriteHandler)(nil)
var _ queries.Handler[ListFavoritesQuery, dto.CarCollection] = (*ListFavoritesHandler)(nil)
