package operator

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
)

var (
	// errors
	ErrNotFound         = errors.New("user not found")
	ErrOperatorNotFound = errors.New("operator not found")
	ErrUserExists       = errors.New("a user with this username or email already exists")
)

type (
	Repository interface {
		CreateOperator(ctx context.Context, op Operator, exec ...core.DBExecutor) (Operator, error)
		GetOperator(ctx context.Context, id string, exec ...core.DBExecutor) (Operator, error)
		UpdateOperator(ctx context.Context, op Operator, exec ...core.DBExecutor) (Operator, error)

		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		QueryUsers(ctx context.Context, operatorID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUsersByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error)
	}

	ServiceInterface interface {
		RegisterOperator(no NewOperator) (Operator, User, error)
		GetOperator(id string) (Operator, error)
		UpdateOperator(id string, uo UpdateOperator) (Operator, error)

		CheckUniqueness(uname, email string, exclUsers ...User) error
		Create(operatorID string, nu NewUser) (User, error)
		Query(operatorID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		GetByID(operatorID, id string) (User, error)
		GetByUsernameOrEmail(uname string) (User, error)
		Update(operatorID, id string, uu UpdateUser) (User, error)
		Delete(operatorID string, ids ...string) error
		SetLastLogin(usr User) (User, error)
		RequestPasswordReset(email string) error
		ResetPassword(rp ResetUserPassword) error
	}

	Service struct {
		db   core.DB
		repo Repository
		mail core.EmailService
		conf *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	secretKey = []byte(conf.SecretKey)
	passwordResetTimeoutDelta = conf.Server.PasswordResetTimeoutDelta
	return &Service{
		db:   db,
		repo: repo,
		mail: mailSvc,
		conf: conf,
	}
}

func (svc *Service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers); err != nil {
		if errors.Cause(err) == ErrUserExists {
			return core.NewValidationError(err,
				core.FieldError{Field: "username", Error: err.Error()},
				core.FieldError{Field: "email", Error: err.Error()},
			)
		}
		return err
	}
	return nil
}

// newRegistration builds the Operator and owner User records for a registration.
func newRegistration(no NewOperator) (Operator, User, error) {
	now := time.Now().UTC()

	plan := no.Plan
	if plan == "" {
		plan = PlanStarter
	}
	op := Operator{
		Name:                 no.Name,
		CompanyName:          no.CompanyName,
		Email:                no.Email,
		Phone:                no.Phone,
		Website:              no.Website,
		Address:              no.Address,
		SubscriptionPlan:     plan,
		SubscriptionStatus:   SubscriptionTrial,
		SubscriptionEndDate:  now.AddDate(0, 1, 0),
		AIDocumentProcessing: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	owner := User{
		Name:      no.Name,
		Username:  no.OwnerUsername,
		Email:     no.Email,
		Role:      RoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner.SetActive(true)
	if err := owner.SetPassword(no.OwnerPassword); err != nil {
		return Operator{}, User{}, errors.Wrap(err, "setting owner password")
	}
	return op, owner, nil
}

// RegisterOperator creates a new tenant together with its owner account, atomically.
func (svc *Service) RegisterOperator(no NewOperator) (Operator, User, error) {
	ctx := context.Background()

	op, owner, err := newRegistration(no)
	if err != nil {
		return Operator{}, User{}, err
	}

	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return Operator{}, User{}, errors.Wrap(err, "beginning tx")
	}
	op, err = svc.repo.CreateOperator(ctx, op, tx)
	if err != nil {
		_ = tx.Rollback()
		return Operator{}, User{}, err
	}
	owner.OperatorID = op.ID
	owner, err = svc.repo.CreateUser(ctx, owner, tx)
	if err != nil {
		_ = tx.Rollback()
		return Operator{}, User{}, err
	}
	if err = tx.Commit(); err != nil {
		return Operator{}, User{}, errors.Wrap(err, "committing tx")
	}

	svc.sendWelcomeEmail(op, owner)
	return op, owner, nil
}

func (svc *Service) GetOperator(id string) (Operator, error) {
	return svc.repo.GetOperator(context.Background(), id)
}

func (svc *Service) UpdateOperator(id string, uo UpdateOperator) (Operator, error) {
	ctx := context.Background()
	orig, err := svc.repo.GetOperator(ctx, id)
	if err != nil {
		return Operator{}, err
	}

	op := orig
	op.Name = uo.Name
	op.CompanyName = uo.CompanyName
	op.Email = uo.Email
	if uo.Phone != "" {
		op.Phone = uo.Phone
	}
	if uo.Website != "" {
		op.Website = uo.Website
	}
	if uo.Address != "" {
		op.Address = uo.Address
	}
	if uo.SubscriptionPlan != "" {
		op.SubscriptionPlan = uo.SubscriptionPlan
	}
	if uo.SubscriptionStatus != "" {
		op.SubscriptionStatus = uo.SubscriptionStatus
	}
	if uo.SubscriptionEndDate != nil {
		op.SubscriptionEndDate = uo.SubscriptionEndDate.UTC()
	}
	if uo.AIDocumentProcessing != nil {
		op.AIDocumentProcessing = *uo.AIDocumentProcessing
	}
	if uo.AIPricingAnalysis != nil {
		op.AIPricingAnalysis = *uo.AIPricingAnalysis
	}
	if uo.AIDemandForecasting != nil {
		op.AIDemandForecasting = *uo.AIDemandForecasting
	}
	if uo.AICustomerSegmentation != nil {
		op.AICustomerSegmentation = *uo.AICustomerSegmentation
	}
	op.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateOperator(ctx, op)
}

func (svc *Service) Create(operatorID string, nu NewUser) (User, error) {
	now := time.Now().UTC()
	role := nu.Role
	if role == "" {
		role = RoleStaff
	}
	usr := User{
		OperatorID: operatorID,
		Name:       nu.Name,
		Username:   nu.Username,
		Email:      nu.Email,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	usr.SetActive(true)
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(context.Background(), usr)
}

func (svc *Service) Query(operatorID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return svc.repo.QueryUsers(context.Background(), operatorID, filter, ordering)
}

func (svc *Service) GetByID(operatorID, id string) (User, error) {
	usr, err := svc.repo.GetUser(context.Background(), GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	// tenant isolation: records of other operators do not exist
	if operatorID != "" && usr.OperatorID != operatorID {
		return User{}, ErrNotFound
	}
	return usr, nil
}

func (svc *Service) GetByUsernameOrEmail(uname string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	return svc.repo.GetUser(context.Background(), GetFilter{UsernameOrEmail: []string{uname, uname}})
}

func (svc *Service) Update(operatorID, id string, uu UpdateUser) (User, error) {
	orig, err := svc.GetByID(operatorID, id)
	if err != nil {
		return User{}, err
	}

	usr := orig
	usr.Name = uu.Name
	usr.Username = uu.Username
	usr.Email = uu.Email
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.IsActive != nil {
		usr.IsActive = uu.IsActive
	}
	usr.UpdatedAt = time.Now().UTC()
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	return svc.repo.UpdateUser(context.Background(), usr)
}

func (svc *Service) Delete(operatorID string, ids ...string) error {
	_, err := svc.repo.DeleteUsersByID(context.Background(), operatorID, ids)
	return err
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(context.Background(), usr)
}

// RequestPasswordReset emails a password reset link to the account with the given email.
func (svc *Service) RequestPasswordReset(email string) error {
	usr, err := svc.repo.GetUser(context.Background(), GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if !usr.Active() {
		return ErrNotFound
	}

	token := makeToken(usr)
	svc.mail.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Name  string
			UID   string
			Token string
		}{usr.Name, EncodeUID(usr), token},
	})
	return nil
}

// ResetPassword verifies a password reset token and sets the new password.
func (svc *Service) ResetPassword(rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUser(context.Background(), GetFilter{ID: id})
	if err != nil {
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateUser(context.Background(), usr); err != nil {
		return err
	}

	svc.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Password changed",
		BodyStr: "Your password has been changed successfully.",
	})
	return nil
}

func (svc *Service) sendWelcomeEmail(op Operator, owner User) {
	svc.mail.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: owner.Name, Address: owner.Email}},
		Subject:      "Welcome to " + svc.conf.AppName,
		TemplateName: "welcome",
		TemplateData: struct {
			Name        string
			CompanyName string
		}{owner.Name, op.CompanyName},
	})
}
