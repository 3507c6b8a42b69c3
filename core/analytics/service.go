package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/tour"
)

var ErrNotFound = errors.New("analytics record not found")

type (
	Repository interface {
		CreateRecord(ctx context.Context, r Record, exec ...core.DBExecutor) (Record, error)
		// QueryRecords returns an operator's records of a type, newest first;
		// all types when analyticsType is empty.
		QueryRecords(ctx context.Context, operatorID, analyticsType string, exec ...core.DBExecutor) ([]Record, error)
	}

	ServiceInterface interface {
		Dashboard(operatorID string) (Summary, error)
		Insights(operatorID string) (InsightSummary, error)
		Chat(operatorID, message string) (ChatResponse, error)
		History(operatorID, analyticsType string) ([]Record, error)
	}

	Service struct {
		repo    Repository
		tourSvc tour.ServiceInterface
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, tourSvc tour.ServiceInterface) *Service {
	return &Service{
		repo:    repo,
		tourSvc: tourSvc,
	}
}

// Dashboard computes the per-departure financial summary for an operator.
func (svc *Service) Dashboard(operatorID string) (Summary, error) {
	tours, departures, err := svc.load(operatorID)
	if err != nil {
		return Summary{}, err
	}

	titles := make(map[string]string, len(tours))
	for _, t := range tours {
		titles[t.ID] = t.Title
	}

	now := time.Now().UTC()
	var (
		sum           Summary
		totalCapacity int
		totalBooked   int
	)
	sum.TourCount = len(tours)
	sum.DepartureCount = len(departures)
	sum.Departures = make([]DepartureReport, 0, len(departures))

	for _, d := range departures {
		in := tour.DepartureBreakevenInputs(d)
		costs := in.Costs()

		rep := DepartureReport{
			DepartureID:   d.ID,
			TourID:        d.TourID,
			TourTitle:     titles[d.TourID],
			DepartureDate: d.DepartureDate,
			Status:        d.Status,
			Revenue:       d.CurrentRevenue(),
			TotalCosts:    costs.TotalCosts,
			Profit:        in.CurrentProfit(),
			OccupancyPct:  d.OccupancyRate(),
			Breakeven:     in.BreakevenPassengers(),
			Profitable:    in.IsProfitable(),
		}
		sum.Departures = append(sum.Departures, rep)

		sum.TotalRevenue += rep.Revenue
		sum.TotalCosts += rep.TotalCosts
		sum.TotalProfit += rep.Profit
		if rep.Profitable {
			sum.ProfitableCount++
		} else {
			sum.UnprofitableCount++
		}
		if d.DepartureDate.After(now) {
			sum.UpcomingDepartures++
		}
		totalCapacity += d.AvailableSpots
		totalBooked += d.SlotsFilled()
	}
	if totalCapacity > 0 {
		sum.OverallOccupancy = float64(totalBooked) / float64(totalCapacity) * 100
	}
	return sum, nil
}

// Insights runs all rule-based analysis passes and persists the result.
func (svc *Service) Insights(operatorID string) (InsightSummary, error) {
	_, departures, err := svc.load(operatorID)
	if err != nil {
		return InsightSummary{}, err
	}

	summary := buildInsights(departures)
	raw, err := json.Marshal(summary)
	if err != nil {
		return InsightSummary{}, errors.Wrap(err, "encoding insights")
	}
	rec := Record{
		OperatorID:    operatorID,
		AnalyticsType: TypeFinancialInsights,
		Data:          raw,
		GeneratedAt:   time.Now().UTC(),
	}
	if _, err = svc.repo.CreateRecord(context.Background(), rec); err != nil {
		return InsightSummary{}, err
	}
	return summary, nil
}

func (svc *Service) History(operatorID, analyticsType string) ([]Record, error) {
	return svc.repo.QueryRecords(context.Background(), operatorID, analyticsType)
}

func (svc *Service) load(operatorID string) ([]tour.Tour, []tour.Departure, error) {
	tours, err := svc.tourSvc.Query(operatorID, nil)
	if err != nil {
		return nil, nil, err
	}
	departures, err := svc.tourSvc.QueryDepartures(operatorID, nil)
	if err != nil {
		return nil, nil, err
	}
	return tours, departures, nil
}
