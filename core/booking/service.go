package booking

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/customer"
	"github.com/voyago/voyago/core/tour"
)

var (
	// errors
	ErrNotFound      = errors.New("booking not found")
	ErrNotEnoughRoom = errors.New("not enough spots left on this departure")
)

type (
	Repository interface {
		CreateBooking(ctx context.Context, b Booking, exec ...core.DBExecutor) (Booking, error)
		// QueryBookings applies AND operation on available QueryFilter fields.
		QueryBookings(ctx context.Context, operatorID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Booking, error)
		GetBooking(ctx context.Context, id string, exec ...core.DBExecutor) (Booking, error)
		UpdateBooking(ctx context.Context, b Booking, exec ...core.DBExecutor) (Booking, error)
		DeleteBookingsByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error)
	}

	ServiceInterface interface {
		Create(operatorID string, nb NewBooking) (Booking, error)
		Query(operatorID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Booking, error)
		GetByID(operatorID, id string) (Booking, error)
		Update(operatorID, id string, ub UpdateBooking) (Booking, error)
		Cancel(operatorID, id string) (Booking, error)
		Delete(operatorID string, ids ...string) error
	}

	Service struct {
		repo        Repository
		tourSvc     tour.ServiceInterface
		customerSvc customer.ServiceInterface
		mail        core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, tourSvc tour.ServiceInterface, customerSvc customer.ServiceInterface, mail core.EmailService) *Service {
	return &Service{
		repo:        repo,
		tourSvc:     tourSvc,
		customerSvc: customerSvc,
		mail:        mail,
	}
}

// Create books spots on a departure. The total amount defaults to the
// departure's effective price times the party size; the departure's booking
// count and the customer's aggregates are updated in step.
func (svc *Service) Create(operatorID string, nb NewBooking) (Booking, error) {
	cust, err := svc.customerSvc.GetByID(operatorID, nb.CustomerID)
	if err != nil {
		return Booking{}, err
	}
	t, err := svc.tourSvc.GetByID(operatorID, nb.TourID)
	if err != nil {
		return Booking{}, err
	}
	d, err := svc.tourSvc.GetDeparture(operatorID, nb.DepartureID)
	if err != nil {
		return Booking{}, err
	}
	if d.TourID != t.ID {
		return Booking{}, tour.ErrDepartureNotFound
	}
	if nb.NumberOfPeople > d.RemainingSpots() {
		return Booking{}, core.NewValidationError(ErrNotEnoughRoom)
	}

	now := time.Now().UTC()
	b := Booking{
		OperatorID:     operatorID,
		CustomerID:     cust.ID,
		TourID:         t.ID,
		DepartureID:    d.ID,
		NumberOfPeople: nb.NumberOfPeople,
		TotalAmount:    nb.TotalAmount,
		Status:         nb.Status,
		Notes:          nb.Notes,
		BookingDate:    now,
		UpdatedAt:      now,
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	if b.TotalAmount == 0 {
		b.TotalAmount = d.EffectivePrice() * float64(b.NumberOfPeople)
	}
	if b, err = svc.repo.CreateBooking(context.Background(), b); err != nil {
		return Booking{}, err
	}

	bookings := d.TotalBookings + b.NumberOfPeople
	if _, err = svc.tourSvc.UpdateDeparture(operatorID, d.ID, tour.UpdateDeparture{TotalBookings: &bookings}); err != nil {
		return Booking{}, errors.Wrap(err, "updating departure bookings")
	}
	if _, err = svc.customerSvc.RecordBooking(operatorID, cust.ID, b.TotalAmount); err != nil {
		return Booking{}, errors.Wrap(err, "updating customer aggregates")
	}

	if b.Status == StatusConfirmed {
		svc.sendConfirmationEmail(cust, t, d, b)
	}
	return b, nil
}

func (svc *Service) Query(operatorID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Booking, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "booking_date"}}
	}
	return svc.repo.QueryBookings(context.Background(), operatorID, filter, ordering)
}

func (svc *Service) GetByID(operatorID, id string) (Booking, error) {
	b, err := svc.repo.GetBooking(context.Background(), id)
	if err != nil {
		return Booking{}, err
	}
	// tenant isolation: records of other operators do not exist
	if operatorID != "" && b.OperatorID != operatorID {
		return Booking{}, ErrNotFound
	}
	return b, nil
}

func (svc *Service) Update(operatorID, id string, ub UpdateBooking) (Booking, error) {
	b, err := svc.GetByID(operatorID, id)
	if err != nil {
		return Booking{}, err
	}
	if ub.Status == StatusCancelled && b.Status != StatusCancelled {
		return svc.cancel(operatorID, b)
	}

	wasConfirmed := b.Status == StatusConfirmed
	peopleDelta := 0
	if ub.NumberOfPeople != nil {
		peopleDelta = *ub.NumberOfPeople - b.NumberOfPeople
		b.NumberOfPeople = *ub.NumberOfPeople
	}
	if ub.TotalAmount != nil {
		b.TotalAmount = *ub.TotalAmount
	}
	if ub.Status != "" {
		b.Status = ub.Status
	}
	if ub.Notes != nil {
		b.Notes = *ub.Notes
	}
	b.UpdatedAt = time.Now().UTC()

	if peopleDelta != 0 && b.Active() {
		d, err := svc.tourSvc.GetDeparture(operatorID, b.DepartureID)
		if err != nil {
			return Booking{}, err
		}
		if peopleDelta > d.RemainingSpots() {
			return Booking{}, core.NewValidationError(ErrNotEnoughRoom)
		}
		bookings := d.TotalBookings + peopleDelta
		if _, err = svc.tourSvc.UpdateDeparture(operatorID, d.ID, tour.UpdateDeparture{TotalBookings: &bookings}); err != nil {
			return Booking{}, errors.Wrap(err, "updating departure bookings")
		}
	}

	if b, err = svc.repo.UpdateBooking(context.Background(), b); err != nil {
		return Booking{}, err
	}
	if !wasConfirmed && b.Status == StatusConfirmed {
		svc.notifyConfirmed(operatorID, b)
	}
	return b, nil
}

// Cancel releases the booking's spots and updates the customer's
// cancellation rate.
func (svc *Service) Cancel(operatorID, id string) (Booking, error) {
	b, err := svc.GetByID(operatorID, id)
	if err != nil {
		return Booking{}, err
	}
	if b.Status == StatusCancelled {
		return b, nil
	}
	return svc.cancel(operatorID, b)
}

func (svc *Service) cancel(operatorID string, b Booking) (Booking, error) {
	releaseSpots := b.Active()

	b.Status = StatusCancelled
	b.UpdatedAt = time.Now().UTC()
	b, err := svc.repo.UpdateBooking(context.Background(), b)
	if err != nil {
		return Booking{}, err
	}

	if releaseSpots {
		d, err := svc.tourSvc.GetDeparture(operatorID, b.DepartureID)
		if err != nil {
			return Booking{}, err
		}
		bookings := d.TotalBookings - b.NumberOfPeople
		if bookings < 0 {
			bookings = 0
		}
		if _, err = svc.tourSvc.UpdateDeparture(operatorID, d.ID, tour.UpdateDeparture{TotalBookings: &bookings}); err != nil {
			return Booking{}, errors.Wrap(err, "releasing departure spots")
		}
	}
	if _, err = svc.customerSvc.RecordCancellation(operatorID, b.CustomerID, b.TotalAmount); err != nil {
		return Booking{}, errors.Wrap(err, "updating customer aggregates")
	}
	return b, nil
}

func (svc *Service) Delete(operatorID string, ids ...string) error {
	_, err := svc.repo.DeleteBookingsByID(context.Background(), operatorID, ids)
	return err
}

func (svc *Service) notifyConfirmed(operatorID string, b Booking) {
	cust, err := svc.customerSvc.GetByID(operatorID, b.CustomerID)
	if err != nil {
		return
	}
	t, err := svc.tourSvc.GetByID(operatorID, b.TourID)
	if err != nil {
		return
	}
	d, err := svc.tourSvc.GetDeparture(operatorID, b.DepartureID)
	if err != nil {
		return
	}
	svc.sendConfirmationEmail(cust, t, d, b)
}

func (svc *Service) sendConfirmationEmail(cust customer.Customer, t tour.Tour, d tour.Departure, b Booking) {
	if cust.Email == "" {
		return
	}
	svc.mail.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: cust.FullName, Address: cust.Email}},
		Subject:      fmt.Sprintf("Booking confirmed: %s", t.Title),
		TemplateName: "booking-confirmed",
		TemplateData: struct {
			Name          string
			TourTitle     string
			Destination   string
			DepartureDate string
			People        int
			TotalAmount   float64
		}{cust.FullName, t.Title, t.Destination, d.DepartureDate.Format("Jan 2, 2006"), b.NumberOfPeople, b.TotalAmount},
	})
}
