package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/voyago/voyago/core/operator"
	testutil "github.com/voyago/voyago/tests"
)

func Test_userApi_create(t *testing.T) {
	db.Reset()

	reqMsg := "this field is required"
	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	owner := testutil.CreateUser(t, usrRepo, op.ID, "Amara Diallo", "amaradiallo", "amara@atlastours.test", "", operator.RoleOwner, true)
	manager := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleManager, true)
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Hans Niemann", "hansolo", "hans@atlastours.test", "", operator.RoleStaff, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff not allowed", token: getToken(t, staff),
			body:     marchallObj(t, operator.NewUser{Name: "X", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: getToken(t, manager), body: marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": reqMsg, "password": reqMsg, "password_confirm": reqMsg}),
		},
		{
			name: "invalid role", token: getToken(t, manager),
			body:     marchallObj(t, operator.NewUser{Name: "X", Role: "superadmin", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "manager cannot grant owner", token: getToken(t, manager),
			body:     marchallObj(t, operator.NewUser{Name: "X", Role: operator.RoleOwner, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "not enough rights to set this role"}),
		},
		{
			name: "duplicate username or email", token: getToken(t, owner),
			body: marchallObj(t, operator.NewUser{
				Name: "X", Username: manager.Username, Email: manager.Email,
				Password: "LolC@t123", PasswordConfirm: "LolC@t123",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": operator.ErrUserExists.Error(),
				"email":    operator.ErrUserExists.Error(),
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("created", func(t *testing.T) {
		body := marchallObj(t, operator.NewUser{
			Name: "Koffi Olomide", Username: "papakoffi", Email: "koffi@atlastours.test",
			Password: "LolC@t123", PasswordConfirm: "LolC@t123",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/users", getToken(t, manager), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var usr operator.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if usr.OperatorID != op.ID {
			t.Errorf("OperatorID = %q; want %q", usr.OperatorID, op.ID)
		}
		if usr.Role != operator.RoleStaff { // default role
			t.Errorf("Role = %q; want %q", usr.Role, operator.RoleStaff)
		}
		if !usr.Active() {
			t.Error("new user should be active")
		}
	})
}

func Test_userApi_query(t *testing.T) {
	db.Reset()

	t0 := time.Now().UTC().Add(-3 * time.Hour)
	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	owner := testutil.CreateUser(t, usrRepo, op.ID, "Amara Diallo", "amaradiallo", "amara@atlastours.test", "", operator.RoleOwner, true, t0)
	manager := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleManager, true, t0.Add(time.Hour))
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Hans Niemann", "hansolo", "hans@atlastours.test", "", operator.RoleStaff, true, t0.Add(2*time.Hour))

	otherOp := testutil.CreateOperator(t, usrRepo, "Nomad Trips", "Nomad Trips Ltd", "hello@nomadtrips.test")
	testutil.CreateUser(t, usrRepo, otherOp.ID, "Outside R", "outsider1", "out@nomadtrips.test", "", operator.RoleOwner, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff not allowed", token: getToken(t, staff),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			// newest first, other operators invisible
			name: "All", token: getToken(t, manager),
			wantCode: http.StatusOK, wantData: marchallList(t, staff, manager, owner),
		},
		{
			name: "search (Name)", token: getToken(t, manager), path: "?search=niemann",
			wantCode: http.StatusOK, wantData: marchallList(t, staff),
		},
		{
			name: "search (no match)", token: getToken(t, manager), path: "?search=outsider",
			wantCode: http.StatusOK, wantData: marchallObj(t, []operator.User{}),
		},
		{
			name: "filter by role", token: getToken(t, manager), path: "?role=" + operator.RoleManager,
			wantCode: http.StatusOK, wantData: marchallList(t, manager),
		},
		{
			name: "ordering by username", token: getToken(t, manager), path: "?ordering=username",
			wantCode: http.StatusOK, wantData: marchallList(t, owner, staff, manager),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users"+tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_retrieve(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	manager := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleManager, true)
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Hans Niemann", "hansolo", "hans@atlastours.test", "", operator.RoleStaff, true)

	otherOp := testutil.CreateOperator(t, usrRepo, "Nomad Trips", "Nomad Trips Ltd", "hello@nomadtrips.test")
	outsider := testutil.CreateUser(t, usrRepo, otherOp.ID, "Outside R", "outsider1", "out@nomadtrips.test", "", operator.RoleOwner, true)

	errNotFound := marchallObj(t, httpErr{Error: "not found"})
	tests := []httpTest{
		{name: "Auth required", path: staff.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Staff retrieves self", path: staff.ID, token: getToken(t, staff), wantCode: http.StatusOK, wantData: marchallObj(t, staff)},
		{name: "Staff cannot retrieve others", path: manager.ID, token: getToken(t, staff), wantCode: http.StatusNotFound, wantData: errNotFound},
		{name: "Manager retrieves staff", path: staff.ID, token: getToken(t, manager), wantCode: http.StatusOK, wantData: marchallObj(t, staff)},
		{name: "Other operator's user does not exist", path: outsider.ID, token: getToken(t, manager), wantCode: http.StatusNotFound, wantData: errNotFound},
		{name: "Unknown ID", path: "b33f", token: getToken(t, manager), wantCode: http.StatusNotFound, wantData: errNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/users/%s", tt.path), tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_update(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	manager := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleManager, true)
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Hans Niemann", "hansolo", "hans@atlastours.test", "", operator.RoleStaff, true)

	deactivate := false
	tests := []httpTest{
		{
			name: "Staff cannot change own role", path: staff.ID, token: getToken(t, staff),
			body:     marchallObj(t, operator.UpdateUser{Role: operator.RoleManager}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Staff cannot deactivate themselves", path: staff.ID, token: getToken(t, staff),
			body:     marchallObj(t, operator.UpdateUser{IsActive: &deactivate}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Manager cannot grant owner", path: staff.ID, token: getToken(t, manager),
			body:     marchallObj(t, operator.UpdateUser{Role: operator.RoleOwner}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "not enough rights to set this role"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/users/%s", tt.path), tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Staff updates own name", func(t *testing.T) {
		body := marchallObj(t, operator.UpdateUser{Name: "Hans M Niemann"})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/users/%s", staff.ID), getToken(t, staff), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var usr operator.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if usr.Name != "Hans M Niemann" {
			t.Errorf("Name = %q; want %q", usr.Name, "Hans M Niemann")
		}
		if usr.Username != staff.Username {
			t.Errorf("Username = %q; want preserved %q", usr.Username, staff.Username)
		}
	})

	t.Run("Manager deactivates staff", func(t *testing.T) {
		body := marchallObj(t, operator.UpdateUser{IsActive: &deactivate})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/users/%s", staff.ID), getToken(t, manager), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var usr operator.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if usr.Active() {
			t.Error("staff should be deactivated")
		}
	})
}

func Test_userApi_destroy(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	manager := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleManager, true)
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Hans Niemann", "hansolo", "hans@atlastours.test", "", operator.RoleStaff, true)

	tests := []httpTest{
		{name: "Auth required", path: staff.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff not allowed", path: manager.ID, token: getToken(t, staff),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}), // staff cannot even see them
		},
		{
			name: "Cannot delete self", path: manager.ID, token: getToken(t, manager),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Deleted", path: staff.ID, token: getToken(t, manager), wantCode: http.StatusNoContent},
		{
			name: "Gone", path: staff.ID, token: getToken(t, manager),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/users/%s", tt.path), tt.token)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusNoContent {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_destroyMultiple(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	manager := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleManager, true)
	staff1 := testutil.CreateUser(t, usrRepo, op.ID, "Hans Niemann", "hansolo", "hans@atlastours.test", "", operator.RoleStaff, true)
	staff2 := testutil.CreateUser(t, usrRepo, op.ID, "Koffi Olomide", "papakoffi", "koffi@atlastours.test", "", operator.RoleStaff, true)

	t.Run("Cannot delete self", func(t *testing.T) {
		path := fmt.Sprintf("/v1/users?id=%s&id=%s", staff1.ID, manager.ID)
		req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, manager))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	t.Run("Deleted", func(t *testing.T) {
		path := fmt.Sprintf("/v1/users?id=%s&id=%s", staff1.ID, staff2.ID)
		req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, manager))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
		users, err := usrSvc.Query(op.ID, nil)
		if err != nil {
			t.Fatalf("Query(): %v", err)
		}
		if len(users) != 1 || users[0].ID != manager.ID {
			t.Errorf("remaining users = %v; want just the manager", users)
		}
	})
}

func Test_userApi_queryRoles(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	manager := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleManager, true)
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Hans Niemann", "hansolo", "hans@atlastours.test", "", operator.RoleStaff, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff not allowed", token: getToken(t, staff),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "All roles", token: getToken(t, manager), wantCode: http.StatusOK, wantData: marchallObj(t, operator.AllRoles)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
