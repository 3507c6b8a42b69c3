package booking_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/booking"
	"github.com/voyago/voyago/core/customer"
	"github.com/voyago/voyago/core/tour"
	emailsvc "github.com/voyago/voyago/services/email"
	inmemdb "github.com/voyago/voyago/storage/database/inmem"
)

const op = "c7e5a3d1-9f8b-4c6d-a2e0-5b4f3d2c1a09"

type fixture struct {
	svc         *booking.Service
	tourSvc     tour.ServiceInterface
	customerSvc customer.ServiceInterface

	cust customer.Customer
	tr   tour.Tour
	dep  tour.Departure
}

// setup seeds one customer and one tour (price 250, capacity 4) with a
// scheduled departure.
func setup(t *testing.T) fixture {
	t.Helper()
	db := inmemdb.New()
	tourSvc := tour.NewService(inmemdb.NewTourRepository(db))
	customerSvc := customer.NewService(inmemdb.NewCustomerRepository(db))
	mailSvc := emailsvc.NewConsoleServiceMock(core.NewConfig())
	svc := booking.NewService(inmemdb.NewBookingRepository(db), tourSvc, customerSvc, mailSvc)

	cust, err := customerSvc.Create(op, customer.NewCustomer{FullName: "Anna de Vries"})
	if err != nil {
		t.Fatalf("Create() customer failed, %v", err)
	}
	tr, err := tourSvc.Create(op, tour.NewTour{
		Title:          "Alpine Hiking Week",
		Destination:    "Innsbruck",
		DurationDays:   7,
		PricePerPerson: 250,
		MaxGroupSize:   4,
	})
	if err != nil {
		t.Fatalf("Create() tour failed, %v", err)
	}
	dep, err := tourSvc.CreateDeparture(op, tour.NewDeparture{
		TourID:        tr.ID,
		DepartureDate: time.Now().AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("CreateDeparture() failed, %v", err)
	}
	return fixture{svc: svc, tourSvc: tourSvc, customerSvc: customerSvc, cust: cust, tr: tr, dep: dep}
}

func TestService_Create(t *testing.T) {
	f := setup(t)

	b, err := f.svc.Create(op, booking.NewBooking{
		CustomerID:     f.cust.ID,
		TourID:         f.tr.ID,
		DepartureID:    f.dep.ID,
		NumberOfPeople: 2,
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if b.Status != booking.StatusPending {
		t.Errorf("Status = %s, want %s", b.Status, booking.StatusPending)
	}
	// amount defaults to effective price x party size
	if b.TotalAmount != 500 {
		t.Errorf("TotalAmount = %v, want 500", b.TotalAmount)
	}

	// the departure's booking count and the customer's aggregates move in step
	dep, err := f.tourSvc.GetDeparture(op, f.dep.ID)
	if err != nil {
		t.Fatalf("GetDeparture() failed, %v", err)
	}
	if dep.TotalBookings != 2 {
		t.Errorf("TotalBookings = %d, want 2", dep.TotalBookings)
	}
	cust, err := f.customerSvc.GetByID(op, f.cust.ID)
	if err != nil {
		t.Fatalf("GetByID() failed, %v", err)
	}
	if cust.BookingsCount != 1 || cust.TotalSpent != 500 {
		t.Errorf("aggregates = %d bookings / %v spent, want 1 / 500", cust.BookingsCount, cust.TotalSpent)
	}
}

func TestService_Create_capacity(t *testing.T) {
	f := setup(t)

	if _, err := f.svc.Create(op, booking.NewBooking{
		CustomerID:     f.cust.ID,
		TourID:         f.tr.ID,
		DepartureID:    f.dep.ID,
		NumberOfPeople: 3,
	}); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	// only 1 of 4 spots left
	_, err := f.svc.Create(op, booking.NewBooking{
		CustomerID:     f.cust.ID,
		TourID:         f.tr.ID,
		DepartureID:    f.dep.ID,
		NumberOfPeople: 2,
	})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Create() error = %v, want a validation error", err)
	}
	if errors.Cause(vErr.Err) != booking.ErrNotEnoughRoom {
		t.Errorf("Create() error = %v, want %v", vErr.Err, booking.ErrNotEnoughRoom)
	}
}

func TestService_Cancel(t *testing.T) {
	f := setup(t)

	b, err := f.svc.Create(op, booking.NewBooking{
		CustomerID:     f.cust.ID,
		TourID:         f.tr.ID,
		DepartureID:    f.dep.ID,
		NumberOfPeople: 3,
		Status:         booking.StatusConfirmed,
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	if b, err = f.svc.Cancel(op, b.ID); err != nil {
		t.Fatalf("Cancel() failed, %v", err)
	}
	if b.Status != booking.StatusCancelled {
		t.Errorf("Status = %s, want %s", b.Status, booking.StatusCancelled)
	}

	// spots released, customer cancellation recorded
	dep, _ := f.tourSvc.GetDeparture(op, f.dep.ID)
	if dep.TotalBookings != 0 {
		t.Errorf("TotalBookings = %d, want 0", dep.TotalBookings)
	}
	cust, _ := f.customerSvc.GetByID(op, f.cust.ID)
	if cust.TotalSpent != 0 {
		t.Errorf("TotalSpent = %v, want 0", cust.TotalSpent)
	}
	if cust.CancellationRatePct != 100 {
		t.Errorf("CancellationRatePct = %v, want 100", cust.CancellationRatePct)
	}

	// cancelling twice is a no-op
	if b, err = f.svc.Cancel(op, b.ID); err != nil {
		t.Fatalf("Cancel() failed, %v", err)
	}
	dep, _ = f.tourSvc.GetDeparture(op, f.dep.ID)
	if dep.TotalBookings != 0 {
		t.Errorf("TotalBookings = %d, want 0", dep.TotalBookings)
	}
}

func TestService_Update_partySize(t *testing.T) {
	f := setup(t)

	b, err := f.svc.Create(op, booking.NewBooking{
		CustomerID:     f.cust.ID,
		TourID:         f.tr.ID,
		DepartureID:    f.dep.ID,
		NumberOfPeople: 2,
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	three := 3
	if b, err = f.svc.Update(op, b.ID, booking.UpdateBooking{NumberOfPeople: &three}); err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if b.NumberOfPeople != 3 {
		t.Errorf("NumberOfPeople = %d, want 3", b.NumberOfPeople)
	}
	dep, _ := f.tourSvc.GetDeparture(op, f.dep.ID)
	if dep.TotalBookings != 3 {
		t.Errorf("TotalBookings = %d, want 3", dep.TotalBookings)
	}

	// growing past capacity is rejected
	six := 6
	if _, err = f.svc.Update(op, b.ID, booking.UpdateBooking{NumberOfPeople: &six}); err == nil {
		t.Error("Update() past capacity should fail")
	}
}

func TestService_wrongDeparture(t *testing.T) {
	f := setup(t)

	other, err := f.tourSvc.Create(op, tour.NewTour{
		Title:          "Lisbon Food Walk",
		Destination:    "Lisbon",
		DurationDays:   3,
		PricePerPerson: 400,
	})
	if err != nil {
		t.Fatalf("Create() tour failed, %v", err)
	}

	// departure belongs to another tour
	_, err = f.svc.Create(op, booking.NewBooking{
		CustomerID:     f.cust.ID,
		TourID:         other.ID,
		DepartureID:    f.dep.ID,
		NumberOfPeople: 1,
	})
	if errors.Cause(err) != tour.ErrDepartureNotFound {
		t.Errorf("Create() error = %v, want %v", err, tour.ErrDepartureNotFound)
	}
}
