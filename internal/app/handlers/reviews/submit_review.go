package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	"carmarket/internal/app/uow"
	domainbooking "carmarket/internal/domain/booking"
	domainreviews "carmarket/internal/domain/reviews"
	"carmarket/internal/domain/shared/fault"
)

const submitReviewKey = "reviews.submit"

var ErrUnitOfWorkRequired = errors.New("reviews: unit of work required")

type SubmitReviewCommand struct {
	CommandID string
	CarID     string
	BookingID string
	AuthorID  string
	Rating    int
	Comment   string
}

func (c SubmitReviewCommand) Key() string { return submitReviewKey }

type SubmitReviewHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle accepts one review per completed booking, written by its renter
// for the car that was rented.
func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (*dto.ReviewView, error) {
	if strings.TrimSpace(cmd.BookingID) == "" {
		return nil, fault.New(fault.MissingField, "booking id required")
	}
	if strings.TrimSpace(cmd.AuthorID) == "" {
		return nil, fault.New(fault.MissingField, "author id required")
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

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return nil, fault.New(fault.NotFound, "booking not found")
		}
		return nil, fault.Wrap(fault.Server, "loading booking failed", err)
	}
	if b.RenterID != cmd.AuthorID {
		return nil, fault.New(fault.Forbidden, "only the renter may review this booking")
	}
	if cmd.CarID != "" && string(b.CarID) != cmd.CarID {
		return nil, fault.New(fault.InvalidOperation, "booking does not belong to this car")
	}
	if b.Status != domainbooking.StatusCompleted {
		return nil, fault.New(fault.InvalidOperation, "only completed trips can be reviewed")
	}

	if existing, lookupErr := unit.Reviews().ByBooking(ctx, b.ID, cmd.AuthorID); lookupErr == nil && existing != nil {
		return nil, fault.New(fault.Conflict, "booking already reviewed")
	} else if lookupErr != nil && !errors.Is(lookupErr, domainreviews.ErrNotFound) {
		return nil, fault.Wrap(fault.Server, "loading review failed", lookupErr)
	}

	id := cmd.CommandID
	if id == "" {
		id = uuid.NewString()
	}
	review, err := domainreviews.New(domainreviews.CreateParams{
		ID:        id,
		CarID:     b.CarID,
		BookingID: b.ID,
		AuthorID:  cmd.AuthorID,
		Rating:    cmd.Rating,
		Comment:   cmd.Comment,
		Now:       time.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Reviews().Save(ctx, review); err != nil {
		return nil, fault.Wrap(fault.Server, "saving review failed", err)
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("review submitted", "car_id", review.CarID, "booking_id", review.BookingID, "rating", review.Rating)
	}

	view := dto.MapReviewView(review)
	return &view, nil
}

var _ commands.Handler[SubmitReviewCommand, *dto.ReviewView] = (*SubmitReviewHandler)(nil)
