package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/customer"
)

type customerRepository struct {
	db *DB
}

var _ customer.Repository = (*customerRepository)(nil) // interface compliance check

func NewCustomerRepository(db *DB) *customerRepository {
	return &customerRepository{db: db}
}

func (repo *customerRepository) CreateCustomer(ctx context.Context, c customer.Customer, exec ...core.DBExecutor) (customer.Customer, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = uuid.New().String()
	repo.db.customers[c.ID] = &c
	return c, nil
}

func (repo *customerRepository) QueryCustomers(ctx context.Context, operatorID string, filter *customer.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]customer.Customer, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var customers []customer.Customer
	for _, c := range repo.db.customers {
		if c.OperatorID != operatorID {
			continue
		}
		if filter != nil {
			if filter.Search != "" {
				val := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(c.FullName), val) &&
					!strings.Contains(strings.ToLower(c.Initials), val) &&
					!strings.Contains(strings.ToLower(c.Email), val) {
					continue
				}
			}
			if filter.Segment != "" && c.AISegment != filter.Segment {
				continue
			}
		}
		customers = append(customers, *c)
	}

	if len(ordering) > 0 {
		ord := ordering[0]
		sort.SliceStable(customers, func(i, j int) bool {
			var less bool
			switch ord.Field {
			case "created_at":
				less = customers[i].CreatedAt.Before(customers[j].CreatedAt)
			default: // full_name
				less = customers[i].FullName < customers[j].FullName
			}
			if !ord.Ascending {
				return !less
			}
			return less
		})
	}
	return customers, nil
}

func (repo *customerRepository) GetCustomer(ctx context.Context, id string, exec ...core.DBExecutor) (customer.Customer, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.customers[id]; ok {
		return *c, nil
	}
	return customer.Customer{}, customer.ErrNotFound
}

func (repo *customerRepository) UpdateCustomer(ctx context.Context, c customer.Customer, exec ...core.DBExecutor) (customer.Customer, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.customers[c.ID]; !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	repo.db.customers[c.ID] = &c
	return c, nil
}

func (repo *customerRepository) DeleteCustomersByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if c, ok := repo.db.customers[id]; ok && c.OperatorID == operatorID {
			delete(repo.db.customers, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *customerRepository) CreateNote(ctx context.Context, n customer.Note, exec ...core.DBExecutor) (customer.Note, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	n.ID = uuid.New().String()
	repo.db.notes[n.ID] = &n
	return n, nil
}

func (repo *customerRepository) QueryNotes(ctx context.Context, customerID string, exec ...core.DBExecutor) ([]customer.Note, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var notes []customer.Note
	for _, n := range repo.db.notes {
		if n.CustomerID == customerID {
			notes = append(notes, *n)
		}
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

func (repo *customerRepository) DeleteNotesByID(ctx context.Context, customerID string, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if n, ok := repo.db.notes[id]; ok && n.CustomerID == customerID {
			delete(repo.db.notes, id)
			cnt++
		}
	}
	return cnt, nil
}
