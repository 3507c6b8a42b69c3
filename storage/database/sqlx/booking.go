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
	"github.com/voyago/voyago/core/booking"
)

type bookingRepository struct {
	exec core.DBExecutor
}

var _ booking.Repository = (*bookingRepository)(nil) // interface compliance check

func NewBookingRepository(exec core.DBExecutor) *bookingRepository {
	return &bookingRepository{exec: exec}
}

type bookingRow struct {
	ID         string `db:"id"`
	OperatorID string `db:"operator_id"`

	CustomerID  string `db:"customer_id"`
	TourID      string `db:"tour_id"`
	DepartureID string `db:"departure_id"`

	NumberOfPeople int     `db:"number_of_people"`
	TotalAmount    float64 `db:"total_amount"`
	Status         string  `db:"status"`
	Notes          string  `db:"notes"`

	AICancellationRisk float64 `db:"ai_cancellation_risk"`

	BookingDate time.Time `db:"booking_date"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (repo bookingRepository) pack(b booking.Booking) bookingRow {
	return bookingRow{
		ID:                 b.ID,
		OperatorID:         b.OperatorID,
		CustomerID:         b.CustomerID,
		TourID:             b.TourID,
		DepartureID:        b.DepartureID,
		NumberOfPeople:     b.NumberOfPeople,
		TotalAmount:        b.TotalAmount,
		Status:             b.Status,
		Notes:              b.Notes,
		AICancellationRisk: b.AICancellationRisk,
		BookingDate:        b.BookingDate.UTC(),
		UpdatedAt:          b.UpdatedAt.UTC(),
	}
}

func (repo bookingRepository) unpack(row bookingRow) booking.Booking {
	return booking.Booking{
		ID:                 row.ID,
		OperatorID:         row.OperatorID,
		CustomerID:         row.CustomerID,
		TourID:             row.TourID,
		DepartureID:        row.DepartureID,
		NumberOfPeople:     row.NumberOfPeople,
		TotalAmount:        row.TotalAmount,
		Status:             row.Status,
		Notes:              row.Notes,
		AICancellationRisk: row.AICancellationRisk,
		BookingDate:        row.BookingDate,
		UpdatedAt:          row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to booking.ErrNotFound
func (repo bookingRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return booking.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo bookingRepository) CreateBooking(ctx context.Context, b booking.Booking, exec ...core.DBExecutor) (booking.Booking, error) {
	b.ID = uuid.New().String()
	row := repo.pack(b)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		INSERT INTO booking (
			id, operator_id, customer_id, tour_id, departure_id,
			number_of_people, total_amount, status, notes, ai_cancellation_risk,
			booking_date, updated_at
		) VALUES (
			:id, :operator_id, :customer_id, :tour_id, :departure_id,
			:number_of_people, :total_amount, :status, :notes, :ai_cancellation_risk,
			:booking_date, :updated_at
		)`, row)
	if err != nil {
		return booking.Booking{}, errors.Wrap(err, "inserting booking")
	}
	return repo.unpack(row), nil
}

func (repo bookingRepository) QueryBookings(ctx context.Context, operatorID string, filter *booking.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]booking.Booking, error) {
	exe := getExec(repo.exec, exec)

	conds := []string{"operator_id = ?"}
	args := []interface{}{operatorID}

	if filter != nil {
		if filter.CustomerID != "" {
			conds = append(conds, "customer_id = ?")
			args = append(args, filter.CustomerID)
		}
		if filter.TourID != "" {
			conds = append(conds, "tour_id = ?")
			args = append(args, filter.TourID)
		}
		if filter.DepartureID != "" {
			conds = append(conds, "departure_id = ?")
			args = append(args, filter.DepartureID)
		}
		if filter.Status != "" {
			conds = append(conds, "status = ?")
			args = append(args, filter.Status)
		}
	}

	query := `SELECT * FROM booking WHERE ` + strings.Join(conds, " AND ") + orderBy(ordering)
	var rows []bookingRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying bookings")
	}

	bookings := make([]booking.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, repo.unpack(row))
	}
	return bookings, nil
}

func (repo bookingRepository) GetBooking(ctx context.Context, id string, exec ...core.DBExecutor) (booking.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return booking.Booking{}, booking.ErrNotFound
	}
	exe := getExec(repo.exec, exec)

	var row bookingRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(`SELECT * FROM booking WHERE id = ?`), id); err != nil {
		return booking.Booking{}, repo.trapNoRowsErr(err, "finding booking by ID")
	}
	return repo.unpack(row), nil
}

func (repo bookingRepository) UpdateBooking(ctx context.Context, b booking.Booking, exec ...core.DBExecutor) (booking.Booking, error) {
	row := repo.pack(b)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		UPDATE booking SET
			number_of_people = :number_of_people, total_amount = :total_amount,
			status = :status, notes = :notes, ai_cancellation_risk = :ai_cancellation_risk,
			updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return booking.Booking{}, errors.Wrap(err, "updating booking")
	}
	return repo.unpack(row), nil
}

func (repo bookingRepository) DeleteBookingsByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)

	query, args, err := sqlx.In(`DELETE FROM booking WHERE operator_id = ? AND id IN (?)`, operatorID, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building booking deletion query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting bookings")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
