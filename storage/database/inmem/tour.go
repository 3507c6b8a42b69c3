package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/tour"
)

type tourRepository struct {
	db *DB
}

var _ tour.Repository = (*tourRepository)(nil) // interface compliance check

func NewTourRepository(db *DB) *tourRepository {
	return &tourRepository{db: db}
}

func (repo *tourRepository) CreateTour(ctx context.Context, t tour.Tour, exec ...core.DBExecutor) (tour.Tour, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t.ID = uuid.New().String()
	repo.db.tours[t.ID] = &t
	return t, nil
}

func (repo *tourRepository) QueryTours(ctx context.Context, operatorID string, filter *tour.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]tour.Tour, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var tours []tour.Tour
	for _, t := range repo.db.tours {
		if t.OperatorID != operatorID {
			continue
		}
		if filter != nil {
			if filter.Search != "" {
				val := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(t.Title), val) &&
					!strings.Contains(strings.ToLower(t.Destination), val) {
					continue
				}
			}
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
		}
		tours = append(tours, *t)
	}

	if len(ordering) > 0 {
		ord := ordering[0]
		sort.SliceStable(tours, func(i, j int) bool {
			var less bool
			switch ord.Field {
			case "title":
				less = tours[i].Title < tours[j].Title
			default: // created_at
				less = tours[i].CreatedAt.Before(tours[j].CreatedAt)
			}
			if !ord.Ascending {
				return !less
			}
			return less
		})
	}
	return tours, nil
}

func (repo *tourRepository) GetTour(ctx context.Context, id string, exec ...core.DBExecutor) (tour.Tour, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if t, ok := repo.db.tours[id]; ok {
		return *t, nil
	}
	return tour.Tour{}, tour.ErrNotFound
}

func (repo *tourRepository) UpdateTour(ctx context.Context, t tour.Tour, exec ...core.DBExecutor) (tour.Tour, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.tours[t.ID]; !ok {
		return tour.Tour{}, tour.ErrNotFound
	}
	repo.db.tours[t.ID] = &t
	return t, nil
}

func (repo *tourRepository) DeleteToursByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if t, ok := repo.db.tours[id]; ok && t.OperatorID == operatorID {
			delete(repo.db.tours, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *tourRepository) CreateDeparture(ctx context.Context, d tour.Departure, exec ...core.DBExecutor) (tour.Departure, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	d.ID = uuid.New().String()
	repo.db.departures[d.ID] = &d
	return d, nil
}

func (repo *tourRepository) QueryDepartures(ctx context.Context, operatorID string, filter *tour.DepartureFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]tour.Departure, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var departures []tour.Departure
	for _, d := range repo.db.departures {
		if d.OperatorID != operatorID {
			continue
		}
		if filter != nil {
			if filter.TourID != "" && d.TourID != filter.TourID {
				continue
			}
			if filter.Status != "" && d.Status != filter.Status {
				continue
			}
			if !filter.DateFrom.IsZero() && d.DepartureDate.Before(filter.DateFrom) {
				continue
			}
			if !filter.DateTo.IsZero() && d.DepartureDate.After(filter.DateTo) {
				continue
			}
		}
		departures = append(departures, *d)
	}

	if len(ordering) > 0 {
		ord := ordering[0]
		sort.SliceStable(departures, func(i, j int) bool {
			less := departures[i].DepartureDate.Before(departures[j].DepartureDate) // departure_date
			if ord.Field == "created_at" {
				less = departures[i].CreatedAt.Before(departures[j].CreatedAt)
			}
			if !ord.Ascending {
				return !less
			}
			return less
		})
	}
	return departures, nil
}

func (repo *tourRepository) GetDeparture(ctx context.Context, id string, exec ...core.DBExecutor) (tour.Departure, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if d, ok := repo.db.departures[id]; ok {
		return *d, nil
	}
	return tour.Departure{}, tour.ErrDepartureNotFound
}

func (repo *tourRepository) UpdateDeparture(ctx context.Context, d tour.Departure, exec ...core.DBExecutor) (tour.Departure, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.departures[d.ID]; !ok {
		return tour.Departure{}, tour.ErrDepartureNotFound
	}
	repo.db.departures[d.ID] = &d
	return d, nil
}

func (repo *tourRepository) DeleteDeparturesByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if d, ok := repo.db.departures[id]; ok && d.OperatorID == operatorID {
			delete(repo.db.departures, id)
			cnt++
		}
	}
	return cnt, nil
}
