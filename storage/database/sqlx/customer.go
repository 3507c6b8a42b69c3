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
	"github.com/voyago/voyago/core/customer"
)

type customerRepository struct {
	exec core.DBExecutor
}

var _ customer.Repository = (*customerRepository)(nil) // interface compliance check

func NewCustomerRepository(exec core.DBExecutor) *customerRepository {
	return &customerRepository{exec: exec}
}

type customerRow struct {
	ID         string `db:"id"`
	OperatorID string `db:"operator_id"`

	Initials    string `db:"initials"`
	FullName    string `db:"full_name"`
	Email       string `db:"email"`
	PhoneNumber string `db:"phone_number"`
	Location    string `db:"location"`

	AISegment           string       `db:"ai_customer_segment"`
	TotalSpent          float64      `db:"total_spent"`
	BookingsCount       int          `db:"bookings_count"`
	CancellationRatePct float64      `db:"cancellation_rate"`
	LastInteractionDate sql.NullTime `db:"last_interaction_date"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type noteRow struct {
	ID          string         `db:"id"`
	CustomerID  string         `db:"customer_id"`
	AuthorID    sql.NullString `db:"author_id"`
	Text        string         `db:"note_text"`
	AISentiment string         `db:"ai_sentiment"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (repo customerRepository) pack(c customer.Customer) customerRow {
	row := customerRow{
		ID:                  c.ID,
		OperatorID:          c.OperatorID,
		Initials:            c.Initials,
		FullName:            c.FullName,
		Email:               c.Email,
		PhoneNumber:         c.PhoneNumber,
		Location:            c.Location,
		AISegment:           c.AISegment,
		TotalSpent:          c.TotalSpent,
		BookingsCount:       c.BookingsCount,
		CancellationRatePct: c.CancellationRatePct,
		CreatedAt:           c.CreatedAt.UTC(),
		UpdatedAt:           c.UpdatedAt.UTC(),
	}
	if c.LastInteractionDate != nil {
		row.LastInteractionDate = sql.NullTime{Time: c.LastInteractionDate.UTC(), Valid: true}
	}
	return row
}

func (repo customerRepository) unpack(row customerRow) customer.Customer {
	c := customer.Customer{
		ID:                  row.ID,
		OperatorID:          row.OperatorID,
		Initials:            row.Initials,
		FullName:            row.FullName,
		Email:               row.Email,
		PhoneNumber:         row.PhoneNumber,
		Location:            row.Location,
		AISegment:           row.AISegment,
		TotalSpent:          row.TotalSpent,
		BookingsCount:       row.BookingsCount,
		CancellationRatePct: row.CancellationRatePct,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if row.LastInteractionDate.Valid {
		at := row.LastInteractionDate.Time
		c.LastInteractionDate = &at
	}
	return c
}

func (repo customerRepository) packNote(n customer.Note) noteRow {
	return noteRow{
		ID:          n.ID,
		CustomerID:  n.CustomerID,
		AuthorID:    sql.NullString{String: n.AuthorID, Valid: n.AuthorID != ""},
		Text:        n.Text,
		AISentiment: n.AISentiment,
		CreatedAt:   n.CreatedAt.UTC(),
	}
}

func (repo customerRepository) unpackNote(row noteRow) customer.Note {
	return customer.Note{
		ID:          row.ID,
		CustomerID:  row.CustomerID,
		AuthorID:    row.AuthorID.String,
		Text:        row.Text,
		AISentiment: row.AISentiment,
		CreatedAt:   row.CreatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to customer.ErrNotFound
func (repo customerRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return customer.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo customerRepository) CreateCustomer(ctx context.Context, c customer.Customer, exec ...core.DBExecutor) (customer.Customer, error) {
	c.ID = uuid.New().String()
	row := repo.pack(c)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		INSERT INTO customer (
			id, operator_id, initials, full_name, email, phone_number, location,
			ai_customer_segment, total_spent, bookings_count, cancellation_rate, last_interaction_date,
			created_at, updated_at
		) VALUES (
			:id, :operator_id, :initials, :full_name, :email, :phone_number, :location,
			:ai_customer_segment, :total_spent, :bookings_count, :cancellation_rate, :last_interaction_date,
			:created_at, :updated_at
		)`, row)
	if err != nil {
		return customer.Customer{}, errors.Wrap(err, "inserting customer")
	}
	return repo.unpack(row), nil
}

func (repo customerRepository) QueryCustomers(ctx context.Context, operatorID string, filter *customer.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]customer.Customer, error) {
	exe := getExec(repo.exec, exec)

	conds := []string{"operator_id = ?"}
	args := []interface{}{operatorID}

	if filter != nil {
		// customers with FullName, Initials or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(full_name ILIKE ? OR initials ILIKE ? OR email ILIKE ?)")
			args = append(args, val, val, val)
		}
		if filter.Segment != "" {
			conds = append(conds, "ai_customer_segment = ?")
			args = append(args, filter.Segment)
		}
	}

	query := `SELECT * FROM customer WHERE ` + strings.Join(conds, " AND ") + orderBy(ordering)
	var rows []customerRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying customers")
	}

	customers := make([]customer.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, repo.unpack(row))
	}
	return customers, nil
}

func (repo customerRepository) GetCustomer(ctx context.Context, id string, exec ...core.DBExecutor) (customer.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return customer.Customer{}, customer.ErrNotFound
	}
	exe := getExec(repo.exec, exec)

	var row customerRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(`SELECT * FROM customer WHERE id = ?`), id); err != nil {
		return customer.Customer{}, repo.trapNoRowsErr(err, "finding customer by ID")
	}
	return repo.unpack(row), nil
}

func (repo customerRepository) UpdateCustomer(ctx context.Context, c customer.Customer, exec ...core.DBExecutor) (customer.Customer, error) {
	row := repo.pack(c)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		UPDATE customer SET
			initials = :initials, full_name = :full_name, email = :email,
			phone_number = :phone_number, location = :location,
			ai_customer_segment = :ai_customer_segment, total_spent = :total_spent,
			bookings_count = :bookings_count, cancellation_rate = :cancellation_rate,
			last_interaction_date = :last_interaction_date, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return customer.Customer{}, errors.Wrap(err, "updating customer")
	}
	return repo.unpack(row), nil
}

func (repo customerRepository) DeleteCustomersByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)

	query, args, err := sqlx.In(`DELETE FROM customer WHERE operator_id = ? AND id IN (?)`, operatorID, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building customer deletion query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting customers")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo customerRepository) CreateNote(ctx context.Context, n customer.Note, exec ...core.DBExecutor) (customer.Note, error) {
	n.ID = uuid.New().String()
	row := repo.packNote(n)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		INSERT INTO customer_note (id, customer_id, author_id, note_text, ai_sentiment, created_at)
		VALUES (:id, :customer_id, :author_id, :note_text, :ai_sentiment, :created_at)`, row)
	if err != nil {
		return customer.Note{}, errors.Wrap(err, "inserting customer note")
	}
	return repo.unpackNote(row), nil
}

func (repo customerRepository) QueryNotes(ctx context.Context, customerID string, exec ...core.DBExecutor) ([]customer.Note, error) {
	exe := getExec(repo.exec, exec)

	var rows []noteRow
	query := `SELECT * FROM customer_note WHERE customer_id = ? ORDER BY created_at DESC`
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), customerID); err != nil {
		return nil, errors.Wrap(err, "querying customer notes")
	}

	notes := make([]customer.Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, repo.unpackNote(row))
	}
	return notes, nil
}

func (repo customerRepository) DeleteNotesByID(ctx context.Context, customerID string, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)

	query, args, err := sqlx.In(`DELETE FROM customer_note WHERE customer_id = ? AND id IN (?)`, customerID, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building note deletion query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting customer notes")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
