package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/voyago/voyago/core/customer"
	"github.com/voyago/voyago/core/operator"
	testutil "github.com/voyago/voyago/tests"
)

func createCustomer(t *testing.T, operatorID, fullName, email string) customer.Customer {
	c, err := customerSvc.Create(operatorID, customer.NewCustomer{FullName: fullName, Email: email})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	return c
}

func Test_customerApi_create(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required fields", token: getToken(t, staff), body: marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"full_name": "this field is required"}),
		},
		{
			name: "invalid email", token: getToken(t, staff),
			body:     marchallObj(t, customer.NewCustomer{FullName: "Fatima Zahra", Email: "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/customers", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("created", func(t *testing.T) {
		body := marchallObj(t, customer.NewCustomer{FullName: "Fatima Zahra", Email: "fatima@example.test", Location: "Casablanca"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/customers", getToken(t, staff), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var c customer.Customer
		if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if c.OperatorID != op.ID {
			t.Errorf("OperatorID = %q; want %q", c.OperatorID, op.ID)
		}
		if c.AISegment != customer.SegmentNew {
			t.Errorf("AISegment = %q; want %q", c.AISegment, customer.SegmentNew)
		}
		if c.TotalSpent != 0 || c.BookingsCount != 0 {
			t.Errorf("aggregates = (%v, %d); want zero", c.TotalSpent, c.BookingsCount)
		}
	})
}

func Test_customerApi_query(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	amina := createCustomer(t, op.ID, "Amina Benali", "amina@example.test")
	fatima := createCustomer(t, op.ID, "Fatima Zahra", "fatima@example.test")

	otherOp := testutil.CreateOperator(t, usrRepo, "Nomad Trips", "Nomad Trips Ltd", "hello@nomadtrips.test")
	createCustomer(t, otherOp.ID, "Zoltan Nagy", "zoltan@example.test")

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			// alphabetical, other operators invisible
			name: "All", token: getToken(t, staff),
			wantCode: http.StatusOK, wantData: marchallList(t, amina, fatima),
		},
		{
			name: "search (FullName)", token: getToken(t, staff), path: "?search=zahra",
			wantCode: http.StatusOK, wantData: marchallList(t, fatima),
		},
		{
			name: "filter by segment", token: getToken(t, staff), path: "?segment=" + customer.SegmentVIP,
			wantCode: http.StatusOK, wantData: marchallObj(t, []customer.Customer{}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/customers"+tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_customerApi_retrieveAndUpdate(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	amina := createCustomer(t, op.ID, "Amina Benali", "amina@example.test")

	otherOp := testutil.CreateOperator(t, usrRepo, "Nomad Trips", "Nomad Trips Ltd", "hello@nomadtrips.test")
	zoltan := createCustomer(t, otherOp.ID, "Zoltan Nagy", "zoltan@example.test")

	errNotFound := marchallObj(t, httpErr{Error: "customer not found"})
	tests := []httpTest{
		{name: "Found", path: amina.ID, token: getToken(t, staff), wantCode: http.StatusOK, wantData: marchallObj(t, amina)},
		{name: "Other operator's customer does not exist", path: zoltan.ID, token: getToken(t, staff), wantCode: http.StatusNotFound, wantData: errNotFound},
		{name: "Unknown ID", path: "b33f", token: getToken(t, staff), wantCode: http.StatusNotFound, wantData: errNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/customers/%s", tt.path), tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("partial update", func(t *testing.T) {
		phone := "+212600000000"
		body := marchallObj(t, customer.UpdateCustomer{PhoneNumber: &phone})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/customers/%s", amina.ID), getToken(t, staff), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var c customer.Customer
		if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if c.PhoneNumber != phone {
			t.Errorf("PhoneNumber = %q; want %q", c.PhoneNumber, phone)
		}
		if c.FullName != amina.FullName {
			t.Errorf("FullName = %q; want preserved %q", c.FullName, amina.FullName)
		}
		if c.Email != amina.Email {
			t.Errorf("Email = %q; want preserved %q", c.Email, amina.Email)
		}
	})
}

func Test_customerApi_notes(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	amina := createCustomer(t, op.ID, "Amina Benali", "amina@example.test")

	notesPath := fmt.Sprintf("/v1/customers/%s/notes", amina.ID)

	t.Run("note_text required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, notesPath, getToken(t, staff), marchallObj(t, map[string]string{}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"note_text": "this field is required"}),
		}, rec)
	})

	t.Run("unknown customer", func(t *testing.T) {
		body := marchallObj(t, customer.NewNote{Text: "Prefers window seats"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/customers/b33f/notes", getToken(t, staff), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "customer not found"}),
		}, rec)
	})

	var note customer.Note
	t.Run("added", func(t *testing.T) {
		body := marchallObj(t, customer.NewNote{Text: "Prefers window seats"})
		req, rec := newAuthRequest(http.MethodPost, notesPath, getToken(t, staff), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &note); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if note.CustomerID != amina.ID {
			t.Errorf("CustomerID = %q; want %q", note.CustomerID, amina.ID)
		}
		if note.AuthorID != staff.ID {
			t.Errorf("AuthorID = %q; want %q", note.AuthorID, staff.ID)
		}
		if note.Text != "Prefers window seats" {
			t.Errorf("Text = %q; want %q", note.Text, "Prefers window seats")
		}
	})

	t.Run("listed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, notesPath, getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, note)}, rec)
	})

	t.Run("deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("%s/%s", notesPath, note.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("%s/%s", notesPath, note.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "note not found"}),
		}, rec)
	})
}

func Test_customerApi_destroy(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	amina := createCustomer(t, op.ID, "Amina Benali", "amina@example.test")

	req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/customers/%s", amina.ID), getToken(t, staff))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/customers/%s", amina.ID), getToken(t, staff))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "customer not found"}),
	}, rec)
}
