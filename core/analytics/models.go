package analytics

import (
	"time"
)

// Analytics record types
const (
	TypeFinancialInsights = "financial_insights"
	TypeDashboardSummary  = "dashboard_summary"
)

// Insight priorities / impacts
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Record is a persisted set of generated analytics for an operator.
type Record struct {
	ID         string `json:"id"`
	OperatorID string `json:"operator_id"`

	AnalyticsType string  `json:"analytics_type"`
	Data          []byte  `json:"-"` // raw analytics JSON
	Confidence    float64 `json:"confidence_score"`

	GeneratedAt time.Time `json:"generated_date"` // UTC
}

// Recommendation is one actionable suggestion inside an insight.
type Recommendation struct {
	Type         string   `json:"type"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Action       string   `json:"action"`
	Impact       string   `json:"impact"`
	DepartureIDs []string `json:"departure_ids,omitempty"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

// Insight is one themed analysis pass over an operator's departures.
type Insight struct {
	Type            string             `json:"type"`
	Title           string             `json:"title"`
	Priority        string             `json:"priority"`
	RiskLevel       string             `json:"risk_level"`
	Recommendations []Recommendation   `json:"recommendations"`
	Metrics         map[string]float64 `json:"metrics"`
}

// InsightSummary bundles all insight passes, high-priority first.
type InsightSummary struct {
	TotalInsights        int       `json:"total_insights"`
	TotalRecommendations int       `json:"total_recommendations"`
	HighPriorityCount    int       `json:"high_priority_count"`
	Insights             []Insight `json:"insights"`
}

// DepartureReport is one dashboard row.
type DepartureReport struct {
	DepartureID   string    `json:"departure_id"`
	TourID        string    `json:"tour_id"`
	TourTitle     string    `json:"tour_title"`
	DepartureDate time.Time `json:"departure_date"`
	Status        string    `json:"status"`

	Revenue      float64 `json:"revenue"`
	TotalCosts   float64 `json:"total_costs"`
	Profit       float64 `json:"profit"`
	OccupancyPct float64 `json:"occupancy_rate"`
	Breakeven    *int    `json:"breakeven_passengers"` // nil when unreachable
	Profitable   bool    `json:"is_profitable"`
}

// Summary is the dashboard payload.
type Summary struct {
	TotalRevenue       float64 `json:"total_revenue"`
	TotalCosts         float64 `json:"total_costs"`
	TotalProfit        float64 `json:"total_profit"`
	OverallOccupancy   float64 `json:"overall_occupancy"`
	ProfitableCount    int     `json:"profitable_count"`
	UnprofitableCount  int     `json:"unprofitable_count"`
	TourCount          int     `json:"tour_count"`
	DepartureCount     int     `json:"departure_count"`
	UpcomingDepartures int     `json:"upcoming_departures"`

	Departures []DepartureReport `json:"departures"`
}

// ChatResponse is the assistant payload returned to the client.
type ChatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}
