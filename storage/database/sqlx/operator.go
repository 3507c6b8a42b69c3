package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/operator"
)

type operatorRepository struct {
	exec core.DBExecutor
}

var _ operator.Repository = (*operatorRepository)(nil) // interface compliance check

func NewOperatorRepository(exec core.DBExecutor) *operatorRepository {
	return &operatorRepository{exec: exec}
}

type operatorRow struct {
	ID                  string       `db:"id"`
	Name                string       `db:"name"`
	CompanyName         string       `db:"company_name"`
	Email               string       `db:"email"`
	Phone               string       `db:"phone"`
	Website             string       `db:"website"`
	Address             string       `db:"address"`
	SubscriptionPlan    string       `db:"subscription_plan"`
	SubscriptionStatus  string       `db:"subscription_status"`
	SubscriptionEndDate sql.NullTime `db:"subscription_end_date"`

	AIDocumentProcessing   bool `db:"ai_document_processing"`
	AIPricingAnalysis      bool `db:"ai_pricing_analysis"`
	AIDemandForecasting    bool `db:"ai_demand_forecasting"`
	AICustomerSegmentation bool `db:"ai_customer_segmentation"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type userRow struct {
	ID           string       `db:"id"`
	OperatorID   string       `db:"operator_id"`
	Name         string       `db:"name"`
	Username     string       `db:"username"`
	Email        string       `db:"email"`
	Role         string       `db:"role"`
	IsActive     sql.NullBool `db:"is_active"`
	PasswordHash []byte       `db:"password_hash"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
	LastLogin    sql.NullTime `db:"last_login"`
}

func (repo operatorRepository) pack(op operator.Operator) operatorRow {
	return operatorRow{
		ID:                     op.ID,
		Name:                   op.Name,
		CompanyName:            op.CompanyName,
		Email:                  op.Email,
		Phone:                  op.Phone,
		Website:                op.Website,
		Address:                op.Address,
		SubscriptionPlan:       op.SubscriptionPlan,
		SubscriptionStatus:     op.SubscriptionStatus,
		SubscriptionEndDate:    sql.NullTime{Time: op.SubscriptionEndDate.UTC(), Valid: !op.SubscriptionEndDate.IsZero()},
		AIDocumentProcessing:   op.AIDocumentProcessing,
		AIPricingAnalysis:      op.AIPricingAnalysis,
		AIDemandForecasting:    op.AIDemandForecasting,
		AICustomerSegmentation: op.AICustomerSegmentation,
		CreatedAt:              op.CreatedAt.UTC(),
		UpdatedAt:              op.UpdatedAt.UTC(),
	}
}

func (repo operatorRepository) unpack(row operatorRow) operator.Operator {
	return operator.Operator{
		ID:                     row.ID,
		Name:                   row.Name,
		CompanyName:            row.CompanyName,
		Email:                  row.Email,
		Phone:                  row.Phone,
		Website:                row.Website,
		Address:                row.Address,
		SubscriptionPlan:       row.SubscriptionPlan,
		SubscriptionStatus:     row.SubscriptionStatus,
		SubscriptionEndDate:    row.SubscriptionEndDate.Time,
		AIDocumentProcessing:   row.AIDocumentProcessing,
		AIPricingAnalysis:      row.AIPricingAnalysis,
		AIDemandForecasting:    row.AIDemandForecasting,
		AICustomerSegmentation: row.AICustomerSegmentation,
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

func (repo operatorRepository) packUser(usr operator.User) userRow {
	row := userRow{
		ID:           usr.ID,
		OperatorID:   usr.OperatorID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    sql.NullTime{Time: usr.LastLogin.UTC(), Valid: !usr.LastLogin.IsZero()},
	}
	if usr.IsActive != nil {
		row.IsActive = sql.NullBool{Bool: *usr.IsActive, Valid: true}
	}
	return row
}

func (repo operatorRepository) unpackUser(row userRow) operator.User {
	usr := operator.User{
		ID:           row.ID,
		OperatorID:   row.OperatorID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		Role:         row.Role,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
	if row.IsActive.Valid {
		usr.IsActive = &row.IsActive.Bool
	}
	return usr
}

func (repo operatorRepository) unpackUserSlice(rows []userRow) []operator.User {
	users := make([]operator.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unpackUser(row))
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to the package sentinel
func (repo operatorRepository) trapNoRowsErr(err, sentinel error, msg string) error {
	if err == sql.ErrNoRows {
		return sentinel
	}
	return errors.Wrap(err, msg)
}

func (repo operatorRepository) CreateOperator(ctx context.Context, op operator.Operator, exec ...core.DBExecutor) (operator.Operator, error) {
	op.ID = uuid.New().String()
	row := repo.pack(op)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		INSERT INTO operator (
			id, name, company_name, email, phone, website, address,
			subscription_plan, subscription_status, subscription_end_date,
			ai_document_processing, ai_pricing_analysis, ai_demand_forecasting, ai_customer_segmentation,
			created_at, updated_at
		) VALUES (
			:id, :name, :company_name, :email, :phone, :website, :address,
			:subscription_plan, :subscription_status, :subscription_end_date,
			:ai_document_processing, :ai_pricing_analysis, :ai_demand_forecasting, :ai_customer_segmentation,
			:created_at, :updated_at
		)`, row)
	if err != nil {
		return operator.Operator{}, errors.Wrap(err, "inserting operator")
	}
	return repo.unpack(row), nil
}

func (repo operatorRepository) GetOperator(ctx context.Context, id string, exec ...core.DBExecutor) (operator.Operator, error) {
	if _, err := uuid.Parse(id); err != nil {
		return operator.Operator{}, operator.ErrOperatorNotFound
	}
	exe := getExec(repo.exec, exec)

	var row operatorRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(`SELECT * FROM operator WHERE id = ?`), id); err != nil {
		return operator.Operator{}, repo.trapNoRowsErr(err, operator.ErrOperatorNotFound, "finding operator by ID")
	}
	return repo.unpack(row), nil
}

func (repo operatorRepository) UpdateOperator(ctx context.Context, op operator.Operator, exec ...core.DBExecutor) (operator.Operator, error) {
	row := repo.pack(op)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		UPDATE operator SET
			name = :name, company_name = :company_name, email = :email, phone = :phone,
			website = :website, address = :address,
			subscription_plan = :subscription_plan, subscription_status = :subscription_status,
			subscription_end_date = :subscription_end_date,
			ai_document_processing = :ai_document_processing, ai_pricing_analysis = :ai_pricing_analysis,
			ai_demand_forecasting = :ai_demand_forecasting, ai_customer_segmentation = :ai_customer_segmentation,
			updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return operator.Operator{}, errors.Wrap(err, "updating operator")
	}
	return repo.unpack(row), nil
}

func (repo operatorRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []operator.User, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)

	query := `SELECT EXISTS (SELECT 1 FROM operator_user WHERE (username = ? OR email = ?))`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		var err error
		query, args, err = sqlx.In(`SELECT EXISTS (SELECT 1 FROM operator_user WHERE (username = ? OR email = ?) AND id NOT IN (?))`, username, email, ids)
		if err != nil {
			return errors.Wrap(err, "building user uniqueness query")
		}
	}

	var exists bool
	if err := exe.GetContext(ctx, &exists, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return operator.ErrUserExists
	}
	return nil
}

func (repo operatorRepository) CreateUser(ctx context.Context, usr operator.User, exec ...core.DBExecutor) (operator.User, error) {
	usr.ID = uuid.New().String()
	row := repo.packUser(usr)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		INSERT INTO operator_user (
			id, operator_id, name, username, email, role, is_active, password_hash,
			created_at, updated_at, last_login
		) VALUES (
			:id, :operator_id, :name, :username, :email, :role, :is_active, :password_hash,
			:created_at, :updated_at, :last_login
		)`, row)
	if err != nil {
		return operator.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unpackUser(row), nil
}

func (repo operatorRepository) QueryUsers(ctx context.Context, operatorID string, filter *operator.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]operator.User, error) {
	exe := getExec(repo.exec, exec)

	conds := []string{"operator_id = ?"}
	args := []interface{}{operatorID}

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)")
			args = append(args, val, val, val)
		}
		if filter.Role != "" {
			conds = append(conds, "role = ?")
			args = append(args, filter.Role)
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = ?")
			args = append(args, *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= ?")
			args = append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= ?")
			args = append(args, filter.CreatedTo.UTC())
		}
	}

	query := `SELECT * FROM operator_user WHERE ` + strings.Join(conds, " AND ") + orderBy(ordering)
	var rows []userRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.unpackUserSlice(rows), nil
}

func (repo operatorRepository) GetUser(ctx context.Context, filter operator.GetFilter, exec ...core.DBExecutor) (operator.User, error) {
	exe := getExec(repo.exec, exec)

	var row userRow

	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return operator.User{}, operator.ErrNotFound
		}
		if err := exe.GetContext(ctx, &row, exe.Rebind(`SELECT * FROM operator_user WHERE id = ?`), filter.ID); err != nil {
			return operator.User{}, repo.trapNoRowsErr(err, operator.ErrNotFound, "finding user by ID")
		}
		return repo.unpackUser(row), nil
	}

	var cond string
	var args []interface{}

	switch {
	case filter.Username != "":
		cond, args = "username = ?", []interface{}{filter.Username}
	case filter.Email != "":
		cond, args = "email = ?", []interface{}{filter.Email}
	case filter.UsernameOrEmail != nil:
		var email string
		uname := filter.UsernameOrEmail[0]
		if len(filter.UsernameOrEmail) == 2 {
			email = filter.UsernameOrEmail[1]
		}
		if email == "" {
			email = uname
		} else if uname == "" {
			uname = email
		}
		cond, args = "username = ? OR email = ?", []interface{}{uname, email}
	default:
		return operator.User{}, operator.ErrNotFound
	}

	if err := exe.GetContext(ctx, &row, exe.Rebind(`SELECT * FROM operator_user WHERE `+cond+` LIMIT 1`), args...); err != nil {
		return operator.User{}, repo.trapNoRowsErr(err, operator.ErrNotFound, "finding user")
	}
	return repo.unpackUser(row), nil
}

func (repo operatorRepository) UpdateUser(ctx context.Context, usr operator.User, exec ...core.DBExecutor) (operator.User, error) {
	row := repo.packUser(usr)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		UPDATE operator_user SET
			name = :name, username = :username, email = :email, role = :role,
			is_active = :is_active, password_hash = :password_hash,
			updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`, row)
	if err != nil {
		return operator.User{}, errors.Wrap(err, "updating user")
	}
	return repo.unpackUser(row), nil
}

func (repo operatorRepository) UpdateOrCreateUser(ctx context.Context, usr operator.User, exec ...core.DBExecutor) (operator.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}

func (repo operatorRepository) DeleteUsersByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)

	query, args, err := sqlx.In(`DELETE FROM operator_user WHERE operator_id = ? AND id IN (?)`, operatorID, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building user deletion query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
