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
	"github.com/voyago/voyago/core/tour"
)

type tourRepository struct {
	exec core.DBExecutor
}

var _ tour.Repository = (*tourRepository)(nil) // interface compliance check

func NewTourRepository(exec core.DBExecutor) *tourRepository {
	return &tourRepository{exec: exec}
}

type tourRow struct {
	ID               string         `db:"id"`
	OperatorID       string         `db:"operator_id"`
	SourceDocumentID sql.NullString `db:"source_document_id"`

	Title            string  `db:"title"`
	Destination      string  `db:"destination"`
	DurationDays     int     `db:"duration_days"`
	PricingType      string  `db:"pricing_type"`
	PricePerPerson   float64 `db:"price_per_person"`
	PricePerGroup    float64 `db:"price_per_group"`
	MaxGroupSize     int     `db:"max_group_size"`
	Description      string  `db:"description"`
	Highlights       string  `db:"highlights"`
	IncludedServices string  `db:"included_services"`
	ExcludedServices string  `db:"excluded_services"`
	DifficultyLevel  string  `db:"difficulty_level"`
	SeasonalDemand   string  `db:"seasonal_demand"`

	CostPerPerson       float64 `db:"cost_per_person"`
	OperationalCosts    float64 `db:"operational_costs"`
	ProfitMarginPercent float64 `db:"profit_margin_percentage"`
	Status              string  `db:"status"`

	AIExtractionConfidence float64      `db:"ai_extraction_confidence"`
	AIProcessedAt          sql.NullTime `db:"ai_processed_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type departureRow struct {
	ID         string `db:"id"`
	TourID     string `db:"tour_id"`
	OperatorID string `db:"operator_id"`

	DepartureDate  time.Time `db:"departure_date"`
	Status         string    `db:"status"`
	TotalBookings  int       `db:"total_bookings"`
	AvailableSpots int       `db:"available_spots"`

	FixedCosts               float64 `db:"fixed_costs"`
	VariableCostsPerPerson   float64 `db:"variable_costs_per_person"`
	MarketingCosts           float64 `db:"marketing_costs"`
	CommissionRate           float64 `db:"commission_rate"`
	CurrentPricePerPerson    float64 `db:"current_price_per_person"`
	DiscountedPricePerPerson float64 `db:"discounted_price_per_person"`

	AIDemandScore float64 `db:"ai_demand_score"`

	CreatedAt time.Time `db:"created_at"`
}

func (repo tourRepository) pack(t tour.Tour) tourRow {
	row := tourRow{
		ID:                     t.ID,
		OperatorID:             t.OperatorID,
		SourceDocumentID:       sql.NullString{String: t.SourceDocumentID, Valid: t.SourceDocumentID != ""},
		Title:                  t.Title,
		Destination:            t.Destination,
		DurationDays:           t.DurationDays,
		PricingType:            t.PricingType,
		PricePerPerson:         t.PricePerPerson,
		PricePerGroup:          t.PricePerGroup,
		MaxGroupSize:           t.MaxGroupSize,
		Description:            t.Description,
		Highlights:             t.Highlights,
		IncludedServices:       t.IncludedServices,
		ExcludedServices:       t.ExcludedServices,
		DifficultyLevel:        t.DifficultyLevel,
		SeasonalDemand:         t.SeasonalDemand,
		CostPerPerson:          t.CostPerPerson,
		OperationalCosts:       t.OperationalCosts,
		ProfitMarginPercent:    t.ProfitMarginPercent,
		Status:                 t.Status,
		AIExtractionConfidence: t.AIExtractionConfidence,
		CreatedAt:              t.CreatedAt.UTC(),
		UpdatedAt:              t.UpdatedAt.UTC(),
	}
	if t.AIProcessedAt != nil {
		row.AIProcessedAt = sql.NullTime{Time: t.AIProcessedAt.UTC(), Valid: true}
	}
	return row
}

func (repo tourRepository) unpack(row tourRow) tour.Tour {
	t := tour.Tour{
		ID:                     row.ID,
		OperatorID:             row.OperatorID,
		SourceDocumentID:       row.SourceDocumentID.String,
		Title:                  row.Title,
		Destination:            row.Destination,
		DurationDays:           row.DurationDays,
		PricingType:            row.PricingType,
		PricePerPerson:         row.PricePerPerson,
		PricePerGroup:          row.PricePerGroup,
		MaxGroupSize:           row.MaxGroupSize,
		Description:            row.Description,
		Highlights:             row.Highlights,
		IncludedServices:       row.IncludedServices,
		ExcludedServices:       row.ExcludedServices,
		DifficultyLevel:        row.DifficultyLevel,
		SeasonalDemand:         row.SeasonalDemand,
		CostPerPerson:          row.CostPerPerson,
		OperationalCosts:       row.OperationalCosts,
		ProfitMarginPercent:    row.ProfitMarginPercent,
		Status:                 row.Status,
		AIExtractionConfidence: row.AIExtractionConfidence,
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
	if row.AIProcessedAt.Valid {
		at := row.AIProcessedAt.Time
		t.AIProcessedAt = &at
	}
	return t
}

func (repo tourRepository) packDeparture(d tour.Departure) departureRow {
	return departureRow{
		ID:                       d.ID,
		TourID:                   d.TourID,
		OperatorID:               d.OperatorID,
		DepartureDate:            d.DepartureDate.UTC(),
		Status:                   d.Status,
		TotalBookings:            d.TotalBookings,
		AvailableSpots:           d.AvailableSpots,
		FixedCosts:               d.FixedCosts,
		VariableCostsPerPerson:   d.VariableCostsPerPerson,
		MarketingCosts:           d.MarketingCosts,
		CommissionRate:           d.CommissionRate,
		CurrentPricePerPerson:    d.CurrentPricePerPerson,
		DiscountedPricePerPerson: d.DiscountedPricePerPerson,
		AIDemandScore:            d.AIDemandScore,
		CreatedAt:                d.CreatedAt.UTC(),
	}
}

func (repo tourRepository) unpackDeparture(row departureRow) tour.Departure {
	return tour.Departure{
		ID:                       row.ID,
		TourID:                   row.TourID,
		OperatorID:               row.OperatorID,
		DepartureDate:            row.DepartureDate,
		Status:                   row.Status,
		TotalBookings:            row.TotalBookings,
		AvailableSpots:           row.AvailableSpots,
		FixedCosts:               row.FixedCosts,
		VariableCostsPerPerson:   row.VariableCostsPerPerson,
		MarketingCosts:           row.MarketingCosts,
		CommissionRate:           row.CommissionRate,
		CurrentPricePerPerson:    row.CurrentPricePerPerson,
		DiscountedPricePerPerson: row.DiscountedPricePerPerson,
		AIDemandScore:            row.AIDemandScore,
		CreatedAt:                row.CreatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to the package sentinel
func (repo tourRepository) trapNoRowsErr(err, sentinel error, msg string) error {
	if err == sql.ErrNoRows {
		return sentinel
	}
	return errors.Wrap(err, msg)
}

func (repo tourRepository) CreateTour(ctx context.Context, t tour.Tour, exec ...core.DBExecutor) (tour.Tour, error) {
	t.ID = uuid.New().String()
	row := repo.pack(t)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		INSERT INTO tour (
			id, operator_id, source_document_id,
			title, destination, duration_days, pricing_type, price_per_person, price_per_group,
			max_group_size, description, highlights, included_services, excluded_services,
			difficulty_level, seasonal_demand,
			cost_per_person, operational_costs, profit_margin_percentage, status,
			ai_extraction_confidence, ai_processed_at, created_at, updated_at
		) VALUES (
			:id, :operator_id, :source_document_id,
			:title, :destination, :duration_days, :pricing_type, :price_per_person, :price_per_group,
			:max_group_size, :description, :highlights, :included_services, :excluded_services,
			:difficulty_level, :seasonal_demand,
			:cost_per_person, :operational_costs, :profit_margin_percentage, :status,
			:ai_extraction_confidence, :ai_processed_at, :created_at, :updated_at
		)`, row)
	if err != nil {
		return tour.Tour{}, errors.Wrap(err, "inserting tour")
	}
	return repo.unpack(row), nil
}

func (repo tourRepository) QueryTours(ctx context.Context, operatorID string, filter *tour.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]tour.Tour, error) {
	exe := getExec(repo.exec, exec)

	conds := []string{"operator_id = ?"}
	args := []interface{}{operatorID}

	if filter != nil {
		// tours with Title or Destination matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(title ILIKE ? OR destination ILIKE ?)")
			args = append(args, val, val)
		}
		if filter.Status != "" {
			conds = append(conds, "status = ?")
			args = append(args, filter.Status)
		}
	}

	query := `SELECT * FROM tour WHERE ` + strings.Join(conds, " AND ") + orderBy(ordering)
	var rows []tourRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying tours")
	}

	tours := make([]tour.Tour, 0, len(rows))
	for _, row := range rows {
		tours = append(tours, repo.unpack(row))
	}
	return tours, nil
}

func (repo tourRepository) GetTour(ctx context.Context, id string, exec ...core.DBExecutor) (tour.Tour, error) {
	if _, err := uuid.Parse(id); err != nil {
		return tour.Tour{}, tour.ErrNotFound
	}
	exe := getExec(repo.exec, exec)

	var row tourRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(`SELECT * FROM tour WHERE id = ?`), id); err != nil {
		return tour.Tour{}, repo.trapNoRowsErr(err, tour.ErrNotFound, "finding tour by ID")
	}
	return repo.unpack(row), nil
}

func (repo tourRepository) UpdateTour(ctx context.Context, t tour.Tour, exec ...core.DBExecutor) (tour.Tour, error) {
	row := repo.pack(t)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		UPDATE tour SET
			source_document_id = :source_document_id,
			title = :title, destination = :destination, duration_days = :duration_days,
			pricing_type = :pricing_type, price_per_person = :price_per_person, price_per_group = :price_per_group,
			max_group_size = :max_group_size, description = :description, highlights = :highlights,
			included_services = :included_services, excluded_services = :excluded_services,
			difficulty_level = :difficulty_level, seasonal_demand = :seasonal_demand,
			cost_per_person = :cost_per_person, operational_costs = :operational_costs,
			profit_margin_percentage = :profit_margin_percentage, status = :status,
			ai_extraction_confidence = :ai_extraction_confidence, ai_processed_at = :ai_processed_at,
			updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return tour.Tour{}, errors.Wrap(err, "updating tour")
	}
	return repo.unpack(row), nil
}

func (repo tourRepository) DeleteToursByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)

	query, args, err := sqlx.In(`DELETE FROM tour WHERE operator_id = ? AND id IN (?)`, operatorID, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building tour deletion query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting tours")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo tourRepository) CreateDeparture(ctx context.Context, d tour.Departure, exec ...core.DBExecutor) (tour.Departure, error) {
	d.ID = uuid.New().String()
	row := repo.packDeparture(d)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		INSERT INTO tour_departure (
			id, tour_id, operator_id, departure_date, status, total_bookings, available_spots,
			fixed_costs, variable_costs_per_person, marketing_costs, commission_rate,
			current_price_per_person, discounted_price_per_person, ai_demand_score, created_at
		) VALUES (
			:id, :tour_id, :operator_id, :departure_date, :status, :total_bookings, :available_spots,
			:fixed_costs, :variable_costs_per_person, :marketing_costs, :commission_rate,
			:current_price_per_person, :discounted_price_per_person, :ai_demand_score, :created_at
		)`, row)
	if err != nil {
		return tour.Departure{}, errors.Wrap(err, "inserting departure")
	}
	return repo.unpackDeparture(row), nil
}

func (repo tourRepository) QueryDepartures(ctx context.Context, operatorID string, filter *tour.DepartureFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]tour.Departure, error) {
	exe := getExec(repo.exec, exec)

	conds := []string{"operator_id = ?"}
	args := []interface{}{operatorID}

	if filter != nil {
		if filter.TourID != "" {
			conds = append(conds, "tour_id = ?")
			args = append(args, filter.TourID)
		}
		if filter.Status != "" {
			conds = append(conds, "status = ?")
			args = append(args, filter.Status)
		}
		if !filter.DateFrom.IsZero() {
			conds = append(conds, "departure_date >= ?")
			args = append(args, filter.DateFrom.UTC())
		}
		if !filter.DateTo.IsZero() {
			conds = append(conds, "departure_date <= ?")
			args = append(args, filter.DateTo.UTC())
		}
	}

	query := `SELECT * FROM tour_departure WHERE ` + strings.Join(conds, " AND ") + orderBy(ordering)
	var rows []departureRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying departures")
	}

	departures := make([]tour.Departure, 0, len(rows))
	for _, row := range rows {
		departures = append(departures, repo.unpackDeparture(row))
	}
	return departures, nil
}

func (repo tourRepository) GetDeparture(ctx context.Context, id string, exec ...core.DBExecutor) (tour.Departure, error) {
	if _, err := uuid.Parse(id); err != nil {
		return tour.Departure{}, tour.ErrDepartureNotFound
	}
	exe := getExec(repo.exec, exec)

	var row departureRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(`SELECT * FROM tour_departure WHERE id = ?`), id); err != nil {
		return tour.Departure{}, repo.trapNoRowsErr(err, tour.ErrDepartureNotFound, "finding departure by ID")
	}
	return repo.unpackDeparture(row), nil
}

func (repo tourRepository) UpdateDeparture(ctx context.Context, d tour.Departure, exec ...core.DBExecutor) (tour.Departure, error) {
	row := repo.packDeparture(d)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		UPDATE tour_departure SET
			departure_date = :departure_date, status = :status,
			total_bookings = :total_bookings, available_spots = :available_spots,
			fixed_costs = :fixed_costs, variable_costs_per_person = :variable_costs_per_person,
			marketing_costs = :marketing_costs, commission_rate = :commission_rate,
			current_price_per_person = :current_price_per_person,
			discounted_price_per_person = :discounted_price_per_person,
			ai_demand_score = :ai_demand_score
		WHERE id = :id`, row)
	if err != nil {
		return tour.Departure{}, errors.Wrap(err, "updating departure")
	}
	return repo.unpackDeparture(row), nil
}

func (repo tourRepository) DeleteDeparturesByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)

	query, args, err := sqlx.In(`DELETE FROM tour_departure WHERE operator_id = ? AND id IN (?)`, operatorID, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building departure deletion query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting departures")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
