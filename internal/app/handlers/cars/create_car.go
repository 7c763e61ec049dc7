package cars

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	"carmarket/internal/app/uow"
	domaincars "carmarket/internal/domain/cars"
	"carmarket/internal/domain/pricing"
	domainreviews "carmarket/internal/domain/reviews"
	"carmarket/internal/domain/shared/fault"
	"carmarket/internal/domain/shared/money"
)

const createCarKey = "cars.create"

var ErrUnitOfWorkRequired = errors.New("cars: unit of work required")

type CreateCarCommand struct {
	CommandID      string
	HostID         string
	Title          string
	Make           string
	Model          string
	Year           int
	City           string
	DailyRatePaise int64
	Currency       string
}

func (c CreateCarCommand) Key() string { return createCarKey }

type CreateCarHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle registers a new listing. Listings start pending and go live only
// after the host activates them.
func (h *CreateCarHandler) Handle(ctx context.Context, cmd CreateCarCommand) (*dto.CarDetail, error) {
	if cmd.HostID == "" {
		return nil, fault.New(fault.MissingField, "host id required")
	}
	currency := cmd.Currency
	if currency == "" {
		currency = pricing.DefaultCurrency
	}
	rate, err := money.New(cmd.DailyRatePaise, currency)
	if err != nil {
		return nil, fault.Wrap(fault.InvalidRange, "invalid daily rate", err)
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
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

	id := cmd.CommandID
	if id == "" {
		id = uuid.NewString()
	}
	car, err := domaincars.NewCar(domaincars.CreateParams{
		ID:        domaincars.CarID(id),
		Host:      domaincars.HostID(cmd.HostID),
		Title:     cmd.Title,
		Make:      cmd.Make,
		Model:     cmd.Model,
		Year:      cmd.Year,
		City:      cmd.City,
		DailyRate: rate,
		Now:       time.Now(),
	})
	if err != nil {
		if errors.Is(err, domaincars.ErrInvalidTitle) {
			return nil, fault.New(fault.MissingField, "title required")
		}
		return nil, fault.Wrap(fault.InvalidRange, "invalid car", err)
	}

	if err := unit.Cars().Save(ctx, car); err != nil {
		return nil, fault.Wrap(fault.Server, "saving car failed", err)
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("car created", "car_id", car.ID, "host_id", car.Host, "city", car.City)
	}

	detail := dto.MapCarDetail(car, domainreviews.Summary{})
	return &detail, nil
}

var _ commands.Handler[CreateCarCommand, *dto.CarDetail] = (*CreateCarHandler)(nil)
