package tour

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
)

var (
	// errors
	ErrNotFound          = errors.New("tour not found")
	ErrDepartureNotFound = errors.New("departure not found")
)

type (
	Repository interface {
		CreateTour(ctx context.Context, t Tour, exec ...core.DBExecutor) (Tour, error)
		// QueryTours applies AND operation on available QueryFilter fields.
		QueryTours(ctx context.Context, operatorID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Tour, error)
		GetTour(ctx context.Context, id string, exec ...core.DBExecutor) (Tour, error)
		UpdateTour(ctx context.Context, t Tour, exec ...core.DBExecutor) (Tour, error)
		DeleteToursByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error)

		CreateDeparture(ctx context.Context, d Departure, exec ...core.DBExecutor) (Departure, error)
		QueryDepartures(ctx context.Context, operatorID string, filter *DepartureFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Departure, error)
		GetDeparture(ctx context.Context, id string, exec ...core.DBExecutor) (Departure, error)
		UpdateDeparture(ctx context.Context, d Departure, exec ...core.DBExecutor) (Departure, error)
		DeleteDeparturesByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error)
	}

	ServiceInterface interface {
		Create(operatorID string, nt NewTour) (Tour, error)
		Query(operatorID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Tour, error)
		GetByID(operatorID, id string) (Tour, error)
		Update(operatorID, id string, ut UpdateTour) (Tour, error)
		StampExtraction(operatorID, id, documentID string, confidence float64) (Tour, error)
		Delete(operatorID string, ids ...string) error

		CreateDeparture(operatorID string, nd NewDeparture) (Departure, error)
		QueryDepartures(operatorID string, filter *DepartureFilter, ordering ...core.DBOrdering) ([]Departure, error)
		GetDeparture(operatorID, id string) (Departure, error)
		UpdateDeparture(operatorID, id string, ud UpdateDeparture) (Departure, error)
		DeleteDeparture(operatorID string, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(operatorID string, nt NewTour) (Tour, error) {
	now := time.Now().UTC()
	t := Tour{
		OperatorID:          operatorID,
		Title:               nt.Title,
		Destination:         nt.Destination,
		DurationDays:        nt.DurationDays,
		PricingType:         nt.PricingType,
		PricePerPerson:      nt.PricePerPerson,
		PricePerGroup:       nt.PricePerGroup,
		MaxGroupSize:        nt.MaxGroupSize,
		Description:         nt.Description,
		Highlights:          nt.Highlights,
		IncludedServices:    nt.IncludedServices,
		ExcludedServices:    nt.ExcludedServices,
		DifficultyLevel:     nt.DifficultyLevel,
		SeasonalDemand:      nt.SeasonalDemand,
		CostPerPerson:       nt.CostPerPerson,
		OperationalCosts:    nt.OperationalCosts,
		ProfitMarginPercent: nt.ProfitMarginPercent,
		Status:              nt.Status,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if t.PricingType == "" {
		t.PricingType = PricingPerPerson
	}
	if t.MaxGroupSize == 0 {
		t.MaxGroupSize = 15
	}
	if t.DifficultyLevel == "" {
		t.DifficultyLevel = "moderate"
	}
	if t.SeasonalDemand == "" {
		t.SeasonalDemand = "medium"
	}
	if t.Status == "" {
		t.Status = StatusDraft
	}
	return svc.repo.CreateTour(context.Background(), t)
}

func (svc *Service) Query(operatorID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Tour, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return svc.repo.QueryTours(context.Background(), operatorID, filter, ordering)
}

func (svc *Service) GetByID(operatorID, id string) (Tour, error) {
	t, err := svc.repo.GetTour(context.Background(), id)
	if err != nil {
		return Tour{}, err
	}
	// tenant isolation: records of other operators do not exist
	if operatorID != "" && t.OperatorID != operatorID {
		return Tour{}, ErrNotFound
	}
	return t, nil
}

func (svc *Service) Update(operatorID, id string, ut UpdateTour) (Tour, error) {
	orig, err := svc.GetByID(operatorID, id)
	if err != nil {
		return Tour{}, err
	}

	t := orig
	if ut.Title != "" {
		t.Title = ut.Title
	}
	if ut.Destination != "" {
		t.Destination = ut.Destination
	}
	if ut.DurationDays != nil {
		t.DurationDays = *ut.DurationDays
	}
	if ut.PricingType != "" {
		t.PricingType = ut.PricingType
	}
	if ut.PricePerPerson != nil {
		t.PricePerPerson = *ut.PricePerPerson
	}
	if ut.PricePerGroup != nil {
		t.PricePerGroup = *ut.PricePerGroup
	}
	if ut.MaxGroupSize != nil {
		t.MaxGroupSize = *ut.MaxGroupSize
	}
	if ut.Description != nil {
		t.Description = *ut.Description
	}
	if ut.Highlights != nil {
		t.Highlights = *ut.Highlights
	}
	if ut.IncludedServices != nil {
		t.IncludedServices = *ut.IncludedServices
	}
	if ut.ExcludedServices != nil {
		t.ExcludedServices = *ut.ExcludedServices
	}
	if ut.DifficultyLevel != "" {
		t.DifficultyLevel = ut.DifficultyLevel
	}
	if ut.SeasonalDemand != "" {
		t.SeasonalDemand = ut.SeasonalDemand
	}
	if ut.CostPerPerson != nil {
		t.CostPerPerson = *ut.CostPerPerson
	}
	if ut.OperationalCosts != nil {
		t.OperationalCosts = *ut.OperationalCosts
	}
	if ut.ProfitMarginPercent != nil {
		t.ProfitMarginPercent = *ut.ProfitMarginPercent
	}
	if ut.Status != "" {
		t.Status = ut.Status
	}
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTour(context.Background(), t)
}

// StampExtraction records which document a tour was extracted from and the
// confidence the extraction model reported, as a percentage.
func (svc *Service) StampExtraction(operatorID, id, documentID string, confidence float64) (Tour, error) {
	t, err := svc.GetByID(operatorID, id)
	if err != nil {
		return Tour{}, err
	}

	now := time.Now().UTC()
	t.SourceDocumentID = documentID
	t.AIExtractionConfidence = confidence
	t.AIProcessedAt = &now
	t.UpdatedAt = now
	return svc.repo.UpdateTour(context.Background(), t)
}

func (svc *Service) Delete(operatorID string, ids ...string) error {
	_, err := svc.repo.DeleteToursByID(context.Background(), operatorID, ids)
	return err
}

// CreateDeparture schedules a new departure; price, variable costs and
// capacity default from the parent tour when not provided.
func (svc *Service) CreateDeparture(operatorID string, nd NewDeparture) (Departure, error) {
	t, err := svc.GetByID(operatorID, nd.TourID)
	if err != nil {
		return Departure{}, err
	}

	d := Departure{
		TourID:                   t.ID,
		OperatorID:               operatorID,
		DepartureDate:            nd.DepartureDate,
		Status:                   nd.Status,
		TotalBookings:            nd.TotalBookings,
		AvailableSpots:           t.MaxGroupSize,
		FixedCosts:               nd.FixedCosts,
		MarketingCosts:           nd.MarketingCosts,
		CommissionRate:           nd.CommissionRate,
		DiscountedPricePerPerson: nd.DiscountedPricePerPerson,
		CreatedAt:                time.Now().UTC(),
	}
	if d.Status == "" {
		d.Status = DepartureScheduled
	}
	if nd.VariableCostsPerPerson != nil {
		d.VariableCostsPerPerson = *nd.VariableCostsPerPerson
	} else {
		d.VariableCostsPerPerson = t.CostPerPerson
	}
	if nd.CurrentPricePerPerson != nil {
		d.CurrentPricePerPerson = *nd.CurrentPricePerPerson
	} else {
		d.CurrentPricePerPerson = t.PricePerPerson
	}
	return svc.repo.CreateDeparture(context.Background(), d)
}

func (svc *Service) QueryDepartures(operatorID string, filter *DepartureFilter, ordering ...core.DBOrdering) ([]Departure, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "departure_date", Ascending: true}}
	}
	return svc.repo.QueryDepartures(context.Background(), operatorID, filter, ordering)
}

func (svc *Service) GetDeparture(operatorID, id string) (Departure, error) {
	d, err := svc.repo.GetDeparture(context.Background(), id)
	if err != nil {
		return Departure{}, err
	}
	if operatorID != "" && d.OperatorID != operatorID {
		return Departure{}, ErrDepartureNotFound
	}
	return d, nil
}

func (svc *Service) UpdateDeparture(operatorID, id string, ud UpdateDeparture) (Departure, error) {
	orig, err := svc.GetDeparture(operatorID, id)
	if err != nil {
		return Departure{}, err
	}

	d := orig
	if ud.DepartureDate != nil {
		d.DepartureDate = *ud.DepartureDate
	}
	if ud.Status != "" {
		d.Status = ud.Status
	}
	if ud.TotalBookings != nil {
		d.TotalBookings = *ud.TotalBookings
	}
	if ud.FixedCosts != nil {
		d.FixedCosts = *ud.FixedCosts
	}
	if ud.VariableCostsPerPerson != nil {
		d.VariableCostsPerPerson = *ud.VariableCostsPerPerson
	}
	if ud.MarketingCosts != nil {
		d.MarketingCosts = *ud.MarketingCosts
	}
	if ud.CommissionRate != nil {
		d.CommissionRate = *ud.CommissionRate
	}
	if ud.CurrentPricePerPerson != nil {
		d.CurrentPricePerPerson = *ud.CurrentPricePerPerson
	}
	if ud.DiscountedPricePerPerson != nil {
		d.DiscountedPricePerPerson = *ud.DiscountedPricePerPerson
	}
	return svc.repo.UpdateDeparture(context.Background(), d)
}

func (svc *Service) DeleteDeparture(operatorID string, ids ...string) error {
	_, err := svc.repo.DeleteDeparturesByID(context.Background(), operatorID, ids)
	return err
}
