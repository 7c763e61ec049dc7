package cars

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	"carmarket/internal/app/uow"
	domaincars "carmarket/internal/domain/cars"
	domainreviews "carmarket/internal/domain/reviews"
	"carmarket/internal/domain/shared/fault"
	"carmarket/internal/domain/shared/money"
)

const updateCarKey = "cars.update"

// CarDetailsInput carries a full replacement of the descriptive fields.
type CarDetailsInput struct {
	Title string
	Make  string
	Model string
	Year  int
	City  string
}

type UpdateCarCommand struct {
	CarID        string
	ActorID      string
	ActorIsAdmin bool

	Details        *CarDetailsInput
	DailyRatePaise *int64
	Status         string
}

func (c UpdateCarCommand) Key() string { return updateCarKey }

type UpdateCarHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle applies a partial update to a listing. Only the owning host may
// change it, except suspension which is reserved to admins. Rate changes
// never touch existing bookings, they carry their own pricing snapshot.
func (h *UpdateCarHandler) Handle(ctx context.Context, cmd UpdateCarCommand) (*dto.CarDetail, error) {
	if strings.TrimSpace(cmd.CarID) == "" {
		return nil, fault.New(fault.MissingField, "car id required")
	}
	if strings.TrimSpace(cmd.ActorID) == "" {
		return nil, fault.New(fault.MissingField, "actor id required")
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

	car, err := unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID))
	if err != nil {
		if errors.Is(err, domaincars.ErrNotFound) {
			return nil, fault.New(fault.NotFound, "car not found")
		}
		return nil, fault.Wrap(fault.Server, "loading car failed", err)
	}
	if car.Host != domaincars.HostID(cmd.ActorID) && !cmd.ActorIsAdmin {
		return nil, fault.New(fault.Forbidden, "only the host may update this car")
	}

	now := time.Now()
	if cmd.Details != nil {
		d := cmd.Details
		if err := car.UpdateDetails(d.Title, d.Make, d.Model, d.City, d.Year, now); err != nil {
			if errors.Is(err, domaincars.ErrInvalidTitle) {
				return nil, fault.New(fault.MissingField, "title required")
			}
			return nil, fault.Wrap(fault.InvalidRange, "invalid car details", err)
		}
	}
	if cmd.DailyRatePaise != nil {
		rate, err := money.New(*cmd.DailyRatePaise, car.DailyRate.Currency)
		if err != nil {
			return nil, fault.Wrap(fault.InvalidRange, "invalid daily rate", err)
		}
		if err := car.SetDailyRate(rate, now); err != nil {
			return nil, fault.Wrap(fault.InvalidRange, "invalid daily rate", err)
		}
	}
	if status := strings.ToLower(strings.TrimSpace(cmd.Status)); status != "" {
		if err := h.applyStatus(car, domaincars.CarStatus(status), cmd.ActorIsAdmin, now); err != nil {
			return nil, err
		}
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
		h.Logger.Info("car updated", "car_id", car.ID, "status", car.Status, "actor_id", cmd.ActorID)
	}

	summary := domainreviews.Summary{}
	if items, listErr := unit.Reviews().ListByCar(ctx, car.ID); listErr == nil {
		summary = domainreviews.Summarize(items)
	}
	detail := dto.MapCarDetail(car, summary)
	return &detail, nil
}

func (h *UpdateCarHandler) applyStatus(car *domaincars.Car, target domaincars.CarStatus, admin bool, now time.Time) error {
	var err error
	switch target {
	case domaincars.StatusActive:
		err = car.Activate(now)
	case domaincars.StatusInactive:
		err = car.Deactivate(now)
	case domaincars.StatusSuspended:
		if !admin {
			return fault.New(fault.Forbidden, "only an admin may suspend a car")
		}
		err = car.Suspend(now)
	default:
		return fault.Newf(fault.InvalidOperation, "unknown car status %q", string(target))
	}
	if err != nil {
		if errors.Is(err, domaincars.ErrInvalidState) {
			return fault.Newf(fault.InvalidOperation, "cannot move car to %q from %q", string(target), string(car.Status))
		}
		return fault.Wrap(fault.Server, "changing car status failed", err)
	}
	return nil
}

var _ commands.Handler[UpdateCarCommand, *dto.CarDetail] = (*UpdateCarHandler)(nil)
