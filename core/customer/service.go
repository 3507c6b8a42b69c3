package customer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
)

var (
	// errors
	ErrNotFound     = errors.New("customer not found")
	ErrNoteNotFound = errors.New("note not found")
)

type (
	Repository interface {
		CreateCustomer(ctx context.Context, c Customer, exec ...core.DBExecutor) (Customer, error)
		// QueryCustomers applies AND operation on available QueryFilter fields.
		QueryCustomers(ctx context.Context, operatorID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Customer, error)
		GetCustomer(ctx context.Context, id string, exec ...core.DBExecutor) (Customer, error)
		UpdateCustomer(ctx context.Context, c Customer, exec ...core.DBExecutor) (Customer, error)
		DeleteCustomersByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error)

		CreateNote(ctx context.Context, n Note, exec ...core.DBExecutor) (Note, error)
		// QueryNotes returns a customer's notes, newest first.
		QueryNotes(ctx context.Context, customerID string, exec ...core.DBExecutor) ([]Note, error)
		DeleteNotesByID(ctx context.Context, customerID string, ids []string, exec ...core.DBExecutor) (int, error)
	}

	ServiceInterface interface {
		Create(operatorID string, nc NewCustomer) (Customer, error)
		Query(operatorID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Customer, error)
		GetByID(operatorID, id string) (Customer, error)
		Update(operatorID, id string, uc UpdateCustomer) (Customer, error)
		Delete(operatorID string, ids ...string) error

		AddNote(operatorID, customerID, authorID string, nn NewNote) (Note, error)
		Notes(operatorID, customerID string) ([]Note, error)
		DeleteNote(operatorID, customerID, noteID string) error

		RecordBooking(operatorID, id string, amount float64) (Customer, error)
		RecordCancellation(operatorID, id string, amount float64) (Customer, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(operatorID string, nc NewCustomer) (Customer, error) {
	now := time.Now().UTC()
	c := Customer{
		OperatorID:  operatorID,
		Initials:    nc.Initials,
		FullName:    nc.FullName,
		Email:       nc.Email,
		PhoneNumber: nc.PhoneNumber,
		Location:    nc.Location,
		AISegment:   SegmentNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCustomer(context.Background(), c)
}

func (svc *Service) Query(operatorID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Customer, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "full_name", Ascending: true}}
	}
	return svc.repo.QueryCustomers(context.Background(), operatorID, filter, ordering)
}

func (svc *Service) GetByID(operatorID, id string) (Customer, error) {
	c, err := svc.repo.GetCustomer(context.Background(), id)
	if err != nil {
		return Customer{}, err
	}
	// tenant isolation: records of other operators do not exist
	if operatorID != "" && c.OperatorID != operatorID {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (svc *Service) Update(operatorID, id string, uc UpdateCustomer) (Customer, error) {
	c, err := svc.GetByID(operatorID, id)
	if err != nil {
		return Customer{}, err
	}

	if uc.Initials != "" {
		c.Initials = uc.Initials
	}
	if uc.FullName != "" {
		c.FullName = uc.FullName
	}
	if uc.Email != "" {
		c.Email = uc.Email
	}
	if uc.PhoneNumber != nil {
		c.PhoneNumber = *uc.PhoneNumber
	}
	if uc.Location != nil {
		c.Location = *uc.Location
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCustomer(context.Background(), c)
}

func (svc *Service) Delete(operatorID string, ids ...string) error {
	_, err := svc.repo.DeleteCustomersByID(context.Background(), operatorID, ids)
	return err
}

func (svc *Service) AddNote(operatorID, customerID, authorID string, nn NewNote) (Note, error) {
	if _, err := svc.GetByID(operatorID, customerID); err != nil {
		return Note{}, err
	}
	n := Note{
		CustomerID: customerID,
		AuthorID:   authorID,
		Text:       nn.Text,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateNote(context.Background(), n)
}

func (svc *Service) Notes(operatorID, customerID string) ([]Note, error) {
	if _, err := svc.GetByID(operatorID, customerID); err != nil {
		return nil, err
	}
	return svc.repo.QueryNotes(context.Background(), customerID)
}

func (svc *Service) DeleteNote(operatorID, customerID, noteID string) error {
	if _, err := svc.GetByID(operatorID, customerID); err != nil {
		return err
	}
	n, err := svc.repo.DeleteNotesByID(context.Background(), customerID, []string{noteID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// RecordBooking folds a confirmed booking into the customer's aggregates.
func (svc *Service) RecordBooking(operatorID, id string, amount float64) (Customer, error) {
	c, err := svc.GetByID(operatorID, id)
	if err != nil {
		return Customer{}, err
	}

	now := time.Now().UTC()
	c.TotalSpent += amount
	c.BookingsCount++
	c.LastInteractionDate = &now
	c.UpdatedAt = now
	c.refreshSegment()
	return svc.repo.UpdateCustomer(context.Background(), c)
}

// RecordCancellation reverses a booking's contribution and refreshes the
// cancellation rate. The bookings count keeps the cancelled booking so the
// rate reflects all bookings ever made.
func (svc *Service) RecordCancellation(operatorID, id string, amount float64) (Customer, error) {
	c, err := svc.GetByID(operatorID, id)
	if err != nil {
		return Customer{}, err
	}

	now := time.Now().UTC()
	c.TotalSpent -= amount
	if c.TotalSpent < 0 {
		c.TotalSpent = 0
	}
	if c.BookingsCount > 0 {
		cancelled := c.CancellationRatePct / 100 * float64(c.BookingsCount)
		c.CancellationRatePct = (cancelled + 1) / float64(c.BookingsCount) * 100
		if c.CancellationRatePct > 100 {
			c.CancellationRatePct = 100
		}
	}
	c.LastInteractionDate = &now
	c.UpdatedAt = now
	c.refreshSegment()
	return svc.repo.UpdateCustomer(context.Background(), c)
}

func (c *Customer) refreshSegment() {
	switch {
	case c.CancellationRatePct >= 50:
		c.AISegment = SegmentAtRisk
	case c.TotalSpent >= 5000 || c.BookingsCount >= 5:
		c.AISegment = SegmentVIP
	case c.BookingsCount >= 2:
		c.AISegment = SegmentRegular
	default:
		c.AISegment = SegmentNew
	}
}
