package main

import (
	"context"
	"fmt"
	"time"

	"github.com/voyago/voyago/core/booking"
	"github.com/voyago/voyago/core/customer"
	"github.com/voyago/voyago/core/operator"
	"github.com/voyago/voyago/core/tour"
)

const (
	demoOwnerUsername = "demo_owner"
	demoOwnerPassword = "demo1234"
)

// setupDemo seeds a demo operator with a handful of tours, departures,
// customers and bookings. Safe to call once per database.
func (cli *commandLine) setupDemo() error {
	ctx := context.Background()

	if _, err := cli.usrRepo.GetUser(ctx, operator.GetFilter{Username: demoOwnerUsername}); err == nil {
		fmt.Println("demo operator already set up")
		return nil
	} else if err != operator.ErrNotFound {
		return err
	}

	op, _, err := cli.operatorSvc.RegisterOperator(operator.NewOperator{
		Name:            "Demo Operator",
		CompanyName:     "Voyago Demo Tours",
		Email:           "demo@voyago.test",
		Phone:           "+31 20 000 0000",
		Address:         "Amsterdam, NL",
		OwnerUsername:   demoOwnerUsername,
		OwnerPassword:   demoOwnerPassword,
		PasswordConfirm: demoOwnerPassword,
	})
	if err != nil {
		return err
	}

	if _, err = cli.operatorSvc.Create(op.ID, operator.NewUser{
		Name:            "Demo Staff",
		Username:        "demo_staff",
		Email:           "staff@voyago.test",
		Role:            operator.RoleStaff,
		Password:        demoOwnerPassword,
		PasswordConfirm: demoOwnerPassword,
	}); err != nil {
		return err
	}

	tours := []tour.NewTour{
		{
			Title:            "Tulip Fields Day Trip",
			Destination:      "Keukenhof",
			DurationDays:     1,
			PricePerPerson:   89,
			MaxGroupSize:     16,
			Description:      "A guided day trip through the tulip fields.",
			DifficultyLevel:  "easy",
			SeasonalDemand:   "high",
			CostPerPerson:    35,
			OperationalCosts: 250,
		},
		{
			Title:            "Alpine Hiking Week",
			Destination:      "Innsbruck",
			DurationDays:     7,
			PricePerPerson:   1290,
			MaxGroupSize:     10,
			Description:      "Hut-to-hut hiking with a mountain guide.",
			DifficultyLevel:  "challenging",
			SeasonalDemand:   "medium",
			CostPerPerson:    480,
			OperationalCosts: 1500,
		},
		{
			Title:            "Lisbon Food Walk",
			Destination:      "Lisbon",
			DurationDays:     3,
			PricePerPerson:   420,
			MaxGroupSize:     12,
			Description:      "Three days of markets, tascas and wine.",
			DifficultyLevel:  "easy",
			SeasonalDemand:   "year_round",
			CostPerPerson:    160,
			OperationalCosts: 600,
		},
	}

	departureDates := []time.Time{
		time.Now().AddDate(0, 1, 0),
		time.Now().AddDate(0, 2, 0),
	}
	var departures []tour.Departure
	for _, nt := range tours {
		t, err := cli.tourSvc.Create(op.ID, nt)
		if err != nil {
			return err
		}
		for _, date := range departureDates {
			d, err := cli.tourSvc.CreateDeparture(op.ID, tour.NewDeparture{
				TourID:        t.ID,
				DepartureDate: date,
				FixedCosts:    nt.OperationalCosts,
			})
			if err != nil {
				return err
			}
			departures = append(departures, d)
		}
	}

	customers := []customer.NewCustomer{
		{Initials: "AV", FullName: "Anna de Vries", Email: "anna@voyago.test", Location: "Utrecht"},
		{Initials: "JB", FullName: "Jonas Becker", Email: "jonas@voyago.test", Location: "Berlin"},
		{Initials: "MS", FullName: "Marta Silva", Email: "marta@voyago.test", Location: "Porto"},
	}
	for i, nc := range customers {
		c, err := cli.customerSvc.Create(op.ID, nc)
		if err != nil {
			return err
		}
		d := departures[i%len(departures)]
		if _, err = cli.bookingSvc.Create(op.ID, booking.NewBooking{
			CustomerID:     c.ID,
			TourID:         d.TourID,
			DepartureID:    d.ID,
			NumberOfPeople: 2,
			Status:         booking.StatusConfirmed,
		}); err != nil {
			return err
		}
	}

	sum, err := cli.analyticsSvc.Dashboard(op.ID)
	if err != nil {
		return err
	}

	fmt.Printf("demo operator %q created; owner login: %s / %s\n", op.CompanyName, demoOwnerUsername, demoOwnerPassword)
	fmt.Printf("seeded %d tours, %d departures, %.2f projected revenue\n", sum.TourCount, sum.DepartureCount, sum.TotalRevenue)
	return nil
}
