package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	echoapi "github.com/voyago/voyago/apps/api/echo"
	"github.com/voyago/voyago/core/operator"
	"github.com/voyago/voyago/core/tour"
	inmemdb "github.com/voyago/voyago/storage/database/inmem"
	testutil "github.com/voyago/voyago/tests"
)

func createTour(t *testing.T, operatorID, title, destination string, createdAt time.Time) tour.Tour {
	trip, err := inmemdb.NewTourRepository(db).CreateTour(context.Background(), tour.Tour{
		OperatorID:     operatorID,
		Title:          title,
		Destination:    destination,
		DurationDays:   5,
		PricingType:    tour.PricingPerPerson,
		PricePerPerson: 100,
		CostPerPerson:  20,
		MaxGroupSize:   10,
		Status:         tour.StatusActive,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	})
	if err != nil {
		t.Fatalf("CreateTour(): %v", err)
	}
	return trip
}

func Test_tourApi_create(t *testing.T) {
	db.Reset()

	reqMsg := "this field is required"
	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required fields", token: getToken(t, staff), body: marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": reqMsg, "destination": reqMsg, "duration_days": reqMsg}),
		},
		{
			name: "invalid difficulty", token: getToken(t, staff),
			body:     marchallObj(t, tour.NewTour{Title: "Sahara Trek", Destination: "Morocco", DurationDays: 5, DifficultyLevel: "insane"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"difficulty_level": "difficulty_level must be one of [easy moderate challenging expert]"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/tours", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("created with defaults", func(t *testing.T) {
		body := marchallObj(t, tour.NewTour{Title: "Sahara Trek", Destination: "Morocco", DurationDays: 5, PricePerPerson: 850})
		req, rec := newAuthRequest(http.MethodPost, "/v1/tours", getToken(t, staff), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var trip tour.Tour
		if err := json.Unmarshal(rec.Body.Bytes(), &trip); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if trip.OperatorID != op.ID {
			t.Errorf("OperatorID = %q; want %q", trip.OperatorID, op.ID)
		}
		if trip.Status != tour.StatusDraft {
			t.Errorf("Status = %q; want %q", trip.Status, tour.StatusDraft)
		}
		if trip.PricingType != tour.PricingPerPerson {
			t.Errorf("PricingType = %q; want %q", trip.PricingType, tour.PricingPerPerson)
		}
		if trip.MaxGroupSize != 15 {
			t.Errorf("MaxGroupSize = %d; want 15", trip.MaxGroupSize)
		}
		if trip.DifficultyLevel != "moderate" {
			t.Errorf("DifficultyLevel = %q; want %q", trip.DifficultyLevel, "moderate")
		}
		if trip.SeasonalDemand != "medium" {
			t.Errorf("SeasonalDemand = %q; want %q", trip.SeasonalDemand, "medium")
		}
	})
}

func Test_tourApi_query(t *testing.T) {
	db.Reset()

	t0 := time.Now().UTC().Add(-2 * time.Hour)
	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	sahara := createTour(t, op.ID, "Sahara Trek", "Morocco", t0)
	atlasHike := createTour(t, op.ID, "Atlas Mountains Hike", "Morocco", t0.Add(time.Hour))

	otherOp := testutil.CreateOperator(t, usrRepo, "Nomad Trips", "Nomad Trips Ltd", "hello@nomadtrips.test")
	createTour(t, otherOp.ID, "Gobi Crossing", "Mongolia", t0)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			// newest first, other operators invisible
			name: "All", token: getToken(t, staff),
			wantCode: http.StatusOK, wantData: marchallList(t, atlasHike, sahara),
		},
		{
			name: "search (Title)", token: getToken(t, staff), path: "?search=sahara",
			wantCode: http.StatusOK, wantData: marchallList(t, sahara),
		},
		{
			name: "search (no match)", token: getToken(t, staff), path: "?search=gobi",
			wantCode: http.StatusOK, wantData: marchallObj(t, []tour.Tour{}),
		},
		{
			name: "filter by status", token: getToken(t, staff), path: "?status=" + tour.StatusDraft,
			wantCode: http.StatusOK, wantData: marchallObj(t, []tour.Tour{}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/tours"+tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_tourApi_retrieve(t *testing.T) {
	db.Reset()

	now := time.Now().UTC()
	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	sahara := createTour(t, op.ID, "Sahara Trek", "Morocco", now)

	otherOp := testutil.CreateOperator(t, usrRepo, "Nomad Trips", "Nomad Trips Ltd", "hello@nomadtrips.test")
	gobi := createTour(t, otherOp.ID, "Gobi Crossing", "Mongolia", now)

	errNotFound := marchallObj(t, httpErr{Error: "tour not found"})
	tests := []httpTest{
		{name: "Auth required", path: sahara.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Found", path: sahara.ID, token: getToken(t, staff), wantCode: http.StatusOK, wantData: marchallObj(t, sahara)},
		{name: "Other operator's tour does not exist", path: gobi.ID, token: getToken(t, staff), wantCode: http.StatusNotFound, wantData: errNotFound},
		{name: "Unknown ID", path: "b33f", token: getToken(t, staff), wantCode: http.StatusNotFound, wantData: errNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/tours/%s", tt.path), tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_tourApi_update(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	sahara := createTour(t, op.ID, "Sahara Trek", "Morocco", time.Now().UTC())

	t.Run("partial update", func(t *testing.T) {
		price := 950.0
		body := marchallObj(t, tour.UpdateTour{PricePerPerson: &price, Status: tour.StatusArchived})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/tours/%s", sahara.ID), getToken(t, staff), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var trip tour.Tour
		if err := json.Unmarshal(rec.Body.Bytes(), &trip); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if trip.PricePerPerson != price {
			t.Errorf("PricePerPerson = %v; want %v", trip.PricePerPerson, price)
		}
		if trip.Status != tour.StatusArchived {
			t.Errorf("Status = %q; want %q", trip.Status, tour.StatusArchived)
		}
		if trip.Title != sahara.Title {
			t.Errorf("Title = %q; want preserved %q", trip.Title, sahara.Title)
		}
		if trip.CostPerPerson != sahara.CostPerPerson {
			t.Errorf("CostPerPerson = %v; want preserved %v", trip.CostPerPerson, sahara.CostPerPerson)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		body := marchallObj(t, tour.UpdateTour{Status: "paused"})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/tours/%s", sahara.ID), getToken(t, staff), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "status must be one of [draft active archived]"}),
		}, rec)
	})
}

func Test_tourApi_destroy(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	sahara := createTour(t, op.ID, "Sahara Trek", "Morocco", time.Now().UTC())

	t.Run("Deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/tours/%s", sahara.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
	})

	t.Run("Gone", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/tours/%s", sahara.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "tour not found"}),
		}, rec)
	})
}

func Test_tourApi_departures(t *testing.T) {
	db.Reset()

	reqMsg := "this field is required"
	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	sahara := createTour(t, op.ID, "Sahara Trek", "Morocco", time.Now().UTC())

	departureDate := time.Date(2027, time.March, 15, 0, 0, 0, 0, time.UTC)

	t.Run("required fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/departures", getToken(t, staff), marchallObj(t, map[string]string{}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"tour_id": reqMsg, "departure_date": reqMsg}),
		}, rec)
	})

	t.Run("unknown tour", func(t *testing.T) {
		body := marchallObj(t, tour.NewDeparture{TourID: "b33f", DepartureDate: departureDate})
		req, rec := newAuthRequest(http.MethodPost, "/v1/departures", getToken(t, staff), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "tour not found"}),
		}, rec)
	})

	var dep tour.Departure
	t.Run("created with tour defaults", func(t *testing.T) {
		body := marchallObj(t, tour.NewDeparture{TourID: sahara.ID, DepartureDate: departureDate, FixedCosts: 300})
		req, rec := newAuthRequest(http.MethodPost, "/v1/departures", getToken(t, staff), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &dep); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if dep.Status != tour.DepartureScheduled {
			t.Errorf("Status = %q; want %q", dep.Status, tour.DepartureScheduled)
		}
		if dep.AvailableSpots != sahara.MaxGroupSize {
			t.Errorf("AvailableSpots = %d; want %d", dep.AvailableSpots, sahara.MaxGroupSize)
		}
		if dep.CurrentPricePerPerson != sahara.PricePerPerson {
			t.Errorf("CurrentPricePerPerson = %v; want %v", dep.CurrentPricePerPerson, sahara.PricePerPerson)
		}
		if dep.VariableCostsPerPerson != sahara.CostPerPerson {
			t.Errorf("VariableCostsPerPerson = %v; want %v", dep.VariableCostsPerPerson, sahara.CostPerPerson)
		}
	})

	t.Run("listed on the tour", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/tours/%s/departures", sahara.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, dep)}, rec)
	})

	t.Run("updated", func(t *testing.T) {
		booked := 9
		body := marchallObj(t, tour.UpdateDeparture{Status: tour.DepartureConfirmed, TotalBookings: &booked})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/departures/%s", dep.ID), getToken(t, staff), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got tour.Departure
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if got.Status != tour.DepartureConfirmed {
			t.Errorf("Status = %q; want %q", got.Status, tour.DepartureConfirmed)
		}
		if got.TotalBookings != booked {
			t.Errorf("TotalBookings = %d; want %d", got.TotalBookings, booked)
		}
		if got.FixedCosts != dep.FixedCosts {
			t.Errorf("FixedCosts = %v; want preserved %v", got.FixedCosts, dep.FixedCosts)
		}
	})

	t.Run("deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/departures/%s", dep.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/departures/%s", dep.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "departure not found"}),
		}, rec)
	})
}

func Test_tourApi_breakeven(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)

	// price 100, variable 20 and fixed 300 break even at the 4th passenger;
	// with 9 of 10 seats sold the departure makes 400 profit.
	in := tour.BreakevenInputs{
		FixedCosts:             300,
		VariableCostsPerPerson: 20,
		PricePerPerson:         100,
		MaxCapacity:            10,
		CurrentPassengers:      9,
	}
	be := 4
	wantAnalysis := tour.BreakevenAnalysis{
		BreakevenPassengers:         &be,
		CurrentProfit:               400,
		ProfitAtCapacity:            480,
		ROIPercentage:               400.0 / 480.0 * 100,
		IsProfitable:                true,
		TotalFixedCosts:             300,
		ContributionMarginPerPerson: 80,
		NetRevenuePerPerson:         100,
		ExcessPassengers:            5,
	}
	wantCosts := tour.CostBreakdown{
		FixedCosts:             300,
		VariableCostsPerPerson: 20,
		VariableCostsTotal:     180,
		TotalCosts:             480,
		TotalFixedCosts:        300,
	}

	t.Run("computed from supplied figures", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/departures/breakeven", getToken(t, staff), marchallObj(t, in))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.BreakevenResponse{Analysis: wantAnalysis, Costs: wantCosts}),
		}, rec)
	})

	t.Run("never profitable", func(t *testing.T) {
		loss := tour.BreakevenInputs{FixedCosts: 300, VariableCostsPerPerson: 60, PricePerPerson: 50, MaxCapacity: 10}
		req, rec := newAuthRequest(http.MethodPost, "/v1/departures/breakeven", getToken(t, staff), marchallObj(t, loss))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.BreakevenResponse{
				Analysis: tour.BreakevenAnalysis{
					BreakevenPassengers:         nil,
					TotalFixedCosts:             300,
					ContributionMarginPerPerson: -10,
					NetRevenuePerPerson:         50,
				},
				Costs: tour.CostBreakdown{FixedCosts: 300, VariableCostsPerPerson: 60, TotalCosts: 300, TotalFixedCosts: 300},
			}),
		}, rec)
	})

	t.Run("negative figures rejected", func(t *testing.T) {
		bad := tour.BreakevenInputs{FixedCosts: -1}
		req, rec := newAuthRequest(http.MethodPost, "/v1/departures/breakeven", getToken(t, staff), marchallObj(t, bad))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"fixed_costs": "fixed_costs must be 0 or greater"}),
		}, rec)
	})

	t.Run("stored departure analysis", func(t *testing.T) {
		sahara := createTour(t, op.ID, "Sahara Trek", "Morocco", time.Now().UTC())
		dep, err := tourSvc.CreateDeparture(op.ID, tour.NewDeparture{
			TourID:        sahara.ID,
			DepartureDate: time.Date(2027, time.March, 15, 0, 0, 0, 0, time.UTC),
			TotalBookings: 9,
			FixedCosts:    300,
		})
		if err != nil {
			t.Fatalf("CreateDeparture(): %v", err)
		}

		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/departures/%s/breakeven", dep.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.BreakevenResponse{Analysis: wantAnalysis, Costs: wantCosts}),
		}, rec)
	})
}
