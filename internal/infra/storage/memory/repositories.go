package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	domainbooking "carmarket/internal/domain/booking"
	domaincars "carmarket/internal/domain/cars"
	domainpayment "carmarket/internal/domain/payment"
	domainreviews "carmarket/internal/domain/reviews"
	"carmarket/internal/domain/shared/daterange"
)

// CarRepository is an in-memory car store for dev and tests.
type CarRepository struct {
	mu    sync.RWMutex
	items map[domaincars.CarID]*domaincars.Car
}

func NewCarRepository() *CarRepository {
	return &CarRepository{items: make(map[domaincars.CarID]*domaincars.Car)}
}

// ByID returns a car or cars.ErrNotFound.
func (r *CarRepository) ByID(ctx context.Context, id domaincars.CarID) (*domaincars.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	car, ok := r.items[id]
	if !ok {
		return nil, domaincars.ErrNotFound
	}
	return car, nil
}

// Save stores/updates a car entry.
func (r *CarRepository) Save(ctx context.Context, car *domaincars.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	car.Version++
	r.items[car.ID] = car
	return nil
}

// Search returns cars that satisfy the provided filters.
func (r *CarRepository) Search(ctx context.Context, params domaincars.SearchParams) (domaincars.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domaincars.Car, 0, len(r.items))
	for _, car := range r.items {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return domaincars.SearchResult{}, ctx.Err()
			default:
			}
		}
		if opts.Matches(car) {
			matches = append(matches, car)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		switch opts.Sort {
		case domaincars.SortByPriceDesc:
			if matches[i].DailyRate.Amount == matches[j].DailyRate.Amount {
				return matches[i].CreatedAt.After(matches[j].CreatedAt)
			}
			return matches[i].DailyRate.Amount > matches[j].DailyRate.Amount
		case domaincars.SortByNewest:
			if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
				return matches[i].DailyRate.Amount < matches[j].DailyRate.Amount
			}
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		default:
			if matches[i].DailyRate.Amount == matches[j].DailyRate.Amount {
				return matches[i].CreatedAt.After(matches[j].CreatedAt)
			}
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

// BookingRepository stores bookings in memory. The write lock makes
// CreateExclusive's conflict check and insert a single atomic step.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return booking, nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = booking
	return nil
}

// CreateExclusive inserts the booking unless a blocking booking for the
// same car overlaps its range under the given policy.
func (r *BookingRepository) CreateExclusive(ctx context.Context, booking *domainbooking.Booking, policy daterange.TurnoverPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.CarID != booking.CarID || !existing.Blocks() {
			continue
		}
		if existing.Range.Overlaps(booking.Range, policy) {
			return domainbooking.ErrDateConflict
		}
	}
	booking.Version++
	r.items[booking.ID] = booking
	return nil
}

func (r *BookingRepository) ListBlockingByCar(ctx context.Context, carID domaincars.CarID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.CarID == carID && booking.Blocks() {
			matches = append(matches, booking)
		}
	}
	return matches, nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	id := strings.TrimSpace(renterID)
	if id == "" {
		return nil, errors.New("memory: renter id required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.RenterID == id {
			matches = append(matches, booking)
		}
	}
	sortByCreatedDesc(matches)
	return matches, nil
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID domaincars.HostID) ([]*domainbooking.Booking, error) {
	if strings.TrimSpace(string(hostID)) == "" {
		return nil, errors.New("memory: host id required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.HostID == hostID {
			matches = append(matches, booking)
		}
	}
	sortByCreatedDesc(matches)
	return matches, nil
}

func sortByCreatedDesc(items []*domainbooking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// PaymentRepository keeps at most one payment per booking, enforced
// under the write lock.
type PaymentRepository struct {
	mu        sync.RWMutex
	byBooking map[domainbooking.BookingID]*domainpayment.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{byBooking: make(map[domainbooking.BookingID]*domainpayment.Payment)}
}

func (r *PaymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.byBooking[bookingID]
	if !ok {
		return nil, domainpayment.ErrNotFound
	}
	return payment, nil
}

func (r *PaymentRepository) CreateUnique(ctx context.Context, payment *domainpayment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byBooking[payment.BookingID]; exists {
		return domainpayment.ErrDuplicate
	}
	r.byBooking[payment.BookingID] = payment
	return nil
}

// ReviewsRepository is a lightweight in-memory review store.
type ReviewsRepository struct {
	mu    sync.RWMutex
	items map[string]*domainreviews.Review
}

func NewReviewsRepository() *ReviewsRepository {
	return &ReviewsRepository{items: make(map[string]*domainreviews.Review)}
}

func (r *ReviewsRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID, authorID string) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if review, ok := r.items[bookingReviewKey(bookingID, authorID)]; ok {
		return review, nil
	}
	return nil, domainreviews.ErrNotFound
}

func (r *ReviewsRepository) ListByCar(ctx context.Context, carID domaincars.CarID) ([]*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.CarID == carID {
			matches = append(matches, review)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *ReviewsRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[bookingReviewKey(review.BookingID, review.AuthorID)] = review
	return nil
}

func bookingReviewKey(bookingID domainbooking.BookingID, authorID string) string {
	return string(bookingID) + ":" + authorID
}

// FavoritesRepository stores per-user saved-car sets.
type FavoritesRepository struct {
	mu    sync.RWMutex
	items map[string]map[domaincars.CarID]struct{}
}

func NewFavoritesRepository() *FavoritesRepository {
	return &FavoritesRepository{items: make(map[string]map[domaincars.CarID]struct{})}
}

func (r *FavoritesRepository) Toggle(ctx context.Context, userID string, carID domaincars.CarID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.items[userID]
	if !ok {
		set = make(map[domaincars.CarID]struct{})
		r.items[userID] = set
	}
	if _, favored := set[carID]; favored {
		delete(set, carID)
		return false, nil
	}
	set[carID] = struct{}{}
	return true, nil
}

func (r *FavoritesRepository) List(ctx context.Context, userID string) ([]domaincars.CarID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.items[userID]
	ids := make([]domaincars.CarID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
