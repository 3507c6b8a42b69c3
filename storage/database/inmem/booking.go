package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/booking"
)

type bookingRepository struct {
	db *DB
}

var _ booking.Repository = (*bookingRepository)(nil) // interface compliance check

func NewBookingRepository(db *DB) *bookingRepository {
	return &bookingRepository{db: db}
}

func (repo *bookingRepository) CreateBooking(ctx context.Context, b booking.Booking, exec ...core.DBExecutor) (booking.Booking, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	b.ID = uuid.New().String()
	repo.db.bookings[b.ID] = &b
	return b, nil
}

func (repo *bookingRepository) QueryBookings(ctx context.Context, operatorID string, filter *booking.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]booking.Booking, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var bookings []booking.Booking
	for _, b := range repo.db.bookings {
		if b.OperatorID != operatorID {
			continue
		}
		if filter != nil {
			if filter.CustomerID != "" && b.CustomerID != filter.CustomerID {
				continue
			}
			if filter.TourID != "" && b.TourID != filter.TourID {
				continue
			}
			if filter.DepartureID != "" && b.DepartureID != filter.DepartureID {
				continue
			}
			if filter.Status != "" && b.Status != filter.Status {
				continue
			}
		}
		bookings = append(bookings, *b)
	}

	if len(ordering) > 0 {
		ord := ordering[0]
		sort.SliceStable(bookings, func(i, j int) bool {
			less := bookings[i].BookingDate.Before(bookings[j].BookingDate) // booking_date
			if !ord.Ascending {
				return !less
			}
			return less
		})
	}
	return bookings, nil
}

func (repo *bookingRepository) GetBooking(ctx context.Context, id string, exec ...core.DBExecutor) (booking.Booking, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if b, ok := repo.db.bookings[id]; ok {
		return *b, nil
	}
	return booking.Booking{}, booking.ErrNotFound
}

func (repo *bookingRepository) UpdateBooking(ctx context.Context, b booking.Booking, exec ...core.DBExecutor) (booking.Booking, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.bookings[b.ID]; !ok {
		return booking.Booking{}, booking.ErrNotFound
	}
	repo.db.bookings[b.ID] = &b
	return b, nil
}

func (repo *bookingRepository) DeleteBookingsByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if b, ok := repo.db.bookings[id]; ok && b.OperatorID == operatorID {
			delete(repo.db.bookings, id)
			cnt++
		}
	}
	return cnt, nil
}
