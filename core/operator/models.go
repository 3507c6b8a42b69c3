package operator

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-playground/validator/v10"

	"github.com/voyago/voyago/core"
)

// Subscription plans
const (
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// Subscription statuses
const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionSuspended = "suspended"
	SubscriptionCancelled = "cancelled"
)

// Account user roles
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

var (
	AllPlans = []string{PlanStarter, PlanProfessional, PlanEnterprise}
	AllRoles = []string{RoleOwner, RoleManager, RoleStaff}

	rolePriorities = map[string]int{
		RoleOwner:   30,
		RoleManager: 20,
		RoleStaff:   10,
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

// Operator is a tenant account; every domain record is owned by exactly one Operator.
type Operator struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	CompanyName         string    `json:"company_name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	Website             string    `json:"website"`
	Address             string    `json:"address"`
	SubscriptionPlan    string    `json:"subscription_plan"`
	SubscriptionStatus  string    `json:"subscription_status"`
	SubscriptionEndDate time.Time `json:"subscription_end_date"`

	// AI feature toggles
	AIDocumentProcessing   bool `json:"ai_document_processing"`
	AIPricingAnalysis      bool `json:"ai_pricing_analysis"`
	AIDemandForecasting    bool `json:"ai_demand_forecasting"`
	AICustomerSegmentation bool `json:"ai_customer_segmentation"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// User is an account user belonging to one Operator.
type User struct {
	ID           string    `json:"id"`
	OperatorID   string    `json:"operator_id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     *bool     `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) Active() bool {
	return u.IsActive != nil && *u.IsActive
}

func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

func (u *User) IsManager() bool {
	return u.Role == RoleOwner || u.Role == RoleManager
}

// NewOperator contains information needed to register a new Operator tenant
// together with its owner account.
type NewOperator struct {
	Name            string `json:"name" validate:"required"`
	CompanyName     string `json:"company_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	Website         string `json:"website" validate:"omitempty,url"`
	Address         string `json:"address"`
	Plan            string `json:"plan" validate:"omitempty,subplan"`
	OwnerUsername   string `json:"owner_username" validate:"required,min=6,alphanum_"`
	OwnerPassword   string `json:"owner_password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=OwnerPassword"`
}

func (no *NewOperator) Validate(validate *validator.Validate, svc ServiceInterface) error {
	no.Name = core.CleanString(no.Name)
	no.CompanyName = core.CleanString(no.CompanyName)
	no.Email = core.CleanString(no.Email, true /* lower */)
	no.OwnerUsername = core.CleanString(no.OwnerUsername, true /* lower */)

	if err := validate.Struct(no); err != nil {
		return err
	}
	return svc.CheckUniqueness(no.OwnerUsername, no.Email)
}

// UpdateOperator defines what information may be provided to modify an existing Operator.
type UpdateOperator struct {
	Name                   string     `json:"name"`
	CompanyName            string     `json:"company_name"`
	Email                  string     `json:"email" validate:"omitempty,email"`
	Phone                  string     `json:"phone"`
	Website                string     `json:"website" validate:"omitempty,url"`
	Address                string     `json:"address"`
	SubscriptionPlan       string     `json:"subscription_plan" validate:"omitempty,subplan"`
	SubscriptionStatus     string     `json:"subscription_status" validate:"omitempty,oneof=trial active suspended cancelled"`
	SubscriptionEndDate    *time.Time `json:"subscription_end_date"`
	AIDocumentProcessing   *bool      `json:"ai_document_processing"`
	AIPricingAnalysis      *bool      `json:"ai_pricing_analysis"`
	AIDemandForecasting    *bool      `json:"ai_demand_forecasting"`
	AICustomerSegmentation *bool      `json:"ai_customer_segmentation"`
}

func (uo *UpdateOperator) Validate(validate *validator.Validate, orig Operator) error {
	if name := core.CleanString(uo.Name); name != "" {
		uo.Name = name
	} else {
		uo.Name = orig.Name
	}
	if cname := core.CleanString(uo.CompanyName); cname != "" {
		uo.CompanyName = cname
	} else {
		uo.CompanyName = orig.CompanyName
	}
	if email := core.CleanString(uo.Email, true /* lower */); email != "" {
		uo.Email = email
	} else {
		uo.Email = orig.Email
	}
	return validate.Struct(uo)
}

// NewUser contains information needed to create a new account User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            string `json:"role" validate:"omitempty,oprole"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	Username        string `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            string `json:"role" validate:"omitempty,oprole"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate, origUsr User, svc ServiceInterface) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

// QueryFilter applies AND operation on its available fields.
type QueryFilter struct {
	Search      string    `query:"search"`
	Role        string    `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

// GetFilter filters a single User lookup; fields are tried in order.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail []string
}
