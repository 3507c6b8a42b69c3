package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/analytics"
)

type analyticsRepository struct {
	exec core.DBExecutor
}

var _ analytics.Repository = (*analyticsRepository)(nil) // interface compliance check

func NewAnalyticsRepository(exec core.DBExecutor) *analyticsRepository {
	return &analyticsRepository{exec: exec}
}

type analyticsRow struct {
	ID            string    `db:"id"`
	OperatorID    string    `db:"operator_id"`
	AnalyticsType string    `db:"analytics_type"`
	Data          []byte    `db:"data"`
	Confidence    float64   `db:"confidence_score"`
	GeneratedAt   time.Time `db:"generated_date"`
}

func (repo analyticsRepository) pack(r analytics.Record) analyticsRow {
	return analyticsRow{
		ID:            r.ID,
		OperatorID:    r.OperatorID,
		AnalyticsType: r.AnalyticsType,
		Data:          r.Data,
		Confidence:    r.Confidence,
		GeneratedAt:   r.GeneratedAt.UTC(),
	}
}

func (repo analyticsRepository) unpack(row analyticsRow) analytics.Record {
	return analytics.Record{
		ID:            row.ID,
		OperatorID:    row.OperatorID,
		AnalyticsType: row.AnalyticsType,
		Data:          row.Data,
		Confidence:    row.Confidence,
		GeneratedAt:   row.GeneratedAt,
	}
}

func (repo analyticsRepository) CreateRecord(ctx context.Context, r analytics.Record, exec ...core.DBExecutor) (analytics.Record, error) {
	r.ID = uuid.New().String()
	row := repo.pack(r)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		INSERT INTO ai_analytics (id, operator_id, analytics_type, data, confidence_score, generated_date)
		VALUES (:id, :operator_id, :analytics_type, :data, :confidence_score, :generated_date)`, row)
	if err != nil {
		return analytics.Record{}, errors.Wrap(err, "inserting analytics record")
	}
	return repo.unpack(row), nil
}

func (repo analyticsRepository) QueryRecords(ctx context.Context, operatorID, analyticsType string, exec ...core.DBExecutor) ([]analytics.Record, error) {
	exe := getExec(repo.exec, exec)

	query := `SELECT * FROM ai_analytics WHERE operator_id = ?`
	args := []interface{}{operatorID}
	if analyticsType != "" {
		query += ` AND analytics_type = ?`
		args = append(args, analyticsType)
	}
	query += ` ORDER BY generated_date DESC`

	var rows []analyticsRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying analytics records")
	}

	records := make([]analytics.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, repo.unpack(row))
	}
	return records, nil
}
