package tour

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/voyago/voyago/core"
)

// Tour statuses
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Pricing types
const (
	PricingPerPerson = "per_person"
	PricingPerGroup  = "per_group"
)

// Departure statuses
const (
	DepartureScheduled = "scheduled"
	DepartureConfirmed = "confirmed"
	DepartureCancelled = "cancelled"
	DepartureCompleted = "completed"
)

// Tour is a sellable tour product owned by an operator. Tours created from an
// uploaded document keep a reference to it and the extraction confidence.
type Tour struct {
	ID               string `json:"id"`
	OperatorID       string `json:"operator_id"`
	SourceDocumentID string `json:"source_document_id,omitempty"`

	Title            string  `json:"title"`
	Destination      string  `json:"destination"`
	DurationDays     int     `json:"duration_days"`
	PricingType      string  `json:"pricing_type"`
	PricePerPerson   float64 `json:"price_per_person"`
	PricePerGroup    float64 `json:"price_per_group"`
	MaxGroupSize     int     `json:"max_group_size"`
	Description      string  `json:"description"`
	Highlights       string  `json:"highlights"`
	IncludedServices string  `json:"included_services"`
	ExcludedServices string  `json:"excluded_services"`
	DifficultyLevel  string  `json:"difficulty_level"`
	SeasonalDemand   string  `json:"seasonal_demand"`

	CostPerPerson       float64 `json:"cost_per_person"`
	OperationalCosts    float64 `json:"operational_costs"`
	ProfitMarginPercent float64 `json:"profit_margin_percentage"`
	Status              string  `json:"status"`

	AIExtractionConfidence float64    `json:"ai_extraction_confidence"` // 0-100
	AIProcessedAt          *time.Time `json:"ai_processed_date,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Departure is a dated instance of a Tour with its own costs and pricing.
type Departure struct {
	ID         string `json:"id"`
	TourID     string `json:"tour_id"`
	OperatorID string `json:"operator_id"`

	DepartureDate time.Time `json:"departure_date"`
	Status        string    `json:"status"`
	TotalBookings int       `json:"total_bookings"`
	// AvailableSpots is the departure capacity, seeded from Tour.MaxGroupSize.
	AvailableSpots int `json:"available_spots"`

	FixedCosts               float64 `json:"fixed_costs"`
	VariableCostsPerPerson   float64 `json:"variable_costs_per_person"`
	MarketingCosts           float64 `json:"marketing_costs"`
	CommissionRate           float64 `json:"commission_rate"` // percentage
	CurrentPricePerPerson    float64 `json:"current_price_per_person"`
	DiscountedPricePerPerson float64 `json:"discounted_price_per_person"`

	AIDemandScore float64 `json:"ai_demand_score"`

	CreatedAt time.Time `json:"created_at"` // UTC
}

// SlotsFilled returns the seats currently booked.
func (d Departure) SlotsFilled() int {
	return d.TotalBookings
}

// RemainingSpots returns unsold seats; never negative.
func (d Departure) RemainingSpots() int {
	if d.TotalBookings >= d.AvailableSpots {
		return 0
	}
	return d.AvailableSpots - d.TotalBookings
}

// OccupancyRate returns the booked share of capacity as a percentage.
func (d Departure) OccupancyRate() float64 {
	if d.AvailableSpots == 0 {
		return 0
	}
	return float64(d.TotalBookings) / float64(d.AvailableSpots) * 100
}

// EffectivePrice returns the discounted price when set, the current price otherwise.
func (d Departure) EffectivePrice() float64 {
	if d.DiscountedPricePerPerson > 0 {
		return d.DiscountedPricePerPerson
	}
	return d.CurrentPricePerPerson
}

// CurrentRevenue returns gross revenue from the currently booked seats.
func (d Departure) CurrentRevenue() float64 {
	return float64(d.TotalBookings) * d.EffectivePrice()
}

// NewTour contains information needed to create a new Tour.
type NewTour struct {
	Title            string  `json:"title" validate:"required"`
	Destination      string  `json:"destination" validate:"required"`
	DurationDays     int     `json:"duration_days" validate:"required,min=1"`
	PricingType      string  `json:"pricing_type" validate:"omitempty,oneof=per_person per_group"`
	PricePerPerson   float64 `json:"price_per_person" validate:"min=0"`
	PricePerGroup    float64 `json:"price_per_group" validate:"min=0"`
	MaxGroupSize     int     `json:"max_group_size" validate:"omitempty,min=1"`
	Description      string  `json:"description"`
	Highlights       string  `json:"highlights"`
	IncludedServices string  `json:"included_services"`
	ExcludedServices string  `json:"excluded_services"`
	DifficultyLevel  string  `json:"difficulty_level" validate:"omitempty,oneof=easy moderate challenging expert"`
	SeasonalDemand   string  `json:"seasonal_demand" validate:"omitempty,oneof=high medium low year_round"`

	CostPerPerson       float64 `json:"cost_per_person" validate:"min=0"`
	OperationalCosts    float64 `json:"operational_costs" validate:"min=0"`
	ProfitMarginPercent float64 `json:"profit_margin_percentage" validate:"min=0,max=100"`
	Status              string  `json:"status" validate:"omitempty,oneof=draft active archived"`
}

func (nt *NewTour) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Destination = core.CleanString(nt.Destination)
	return validate.Struct(nt)
}

// UpdateTour defines what information may be provided to modify an existing Tour.
type UpdateTour struct {
	Title            string   `json:"title"`
	Destination      string   `json:"destination"`
	DurationDays     *int     `json:"duration_days" validate:"omitempty,min=1"`
	PricingType      string   `json:"pricing_type" validate:"omitempty,oneof=per_person per_group"`
	PricePerPerson   *float64 `json:"price_per_person" validate:"omitempty,min=0"`
	PricePerGroup    *float64 `json:"price_per_group" validate:"omitempty,min=0"`
	MaxGroupSize     *int     `json:"max_group_size" validate:"omitempty,min=1"`
	Description      *string  `json:"description"`
	Highlights       *string  `json:"highlights"`
	IncludedServices *string  `json:"included_services"`
	ExcludedServices *string  `json:"excluded_services"`
	DifficultyLevel  string   `json:"difficulty_level" validate:"omitempty,oneof=easy moderate challenging expert"`
	SeasonalDemand   string   `json:"seasonal_demand" validate:"omitempty,oneof=high medium low year_round"`

	CostPerPerson       *float64 `json:"cost_per_person" validate:"omitempty,min=0"`
	OperationalCosts    *float64 `json:"operational_costs" validate:"omitempty,min=0"`
	ProfitMarginPercent *float64 `json:"profit_margin_percentage" validate:"omitempty,min=0,max=100"`
	Status              string   `json:"status" validate:"omitempty,oneof=draft active archived"`
}

func (ut *UpdateTour) Validate(validate *validator.Validate) error {
	ut.Title = core.CleanString(ut.Title)
	ut.Destination = core.CleanString(ut.Destination)
	return validate.Struct(ut)
}

// NewDeparture contains information needed to schedule a new Departure.
// Price and variable costs default from the tour when omitted.
type NewDeparture struct {
	TourID        string    `json:"tour_id" validate:"required"`
	DepartureDate time.Time `json:"departure_date" validate:"required"`
	Status        string    `json:"status" validate:"omitempty,oneof=scheduled confirmed cancelled completed"`
	TotalBookings int       `json:"total_bookings" validate:"min=0"`

	FixedCosts               float64  `json:"fixed_costs" validate:"min=0"`
	VariableCostsPerPerson   *float64 `json:"variable_costs_per_person" validate:"omitempty,min=0"`
	MarketingCosts           float64  `json:"marketing_costs" validate:"min=0"`
	CommissionRate           float64  `json:"commission_rate" validate:"min=0,max=100"`
	CurrentPricePerPerson    *float64 `json:"current_price_per_person" validate:"omitempty,min=0"`
	DiscountedPricePerPerson float64  `json:"discounted_price_per_person" validate:"min=0"`
}

func (nd *NewDeparture) Validate(validate *validator.Validate) error {
	return validate.Struct(nd)
}

// UpdateDeparture defines what information may be provided to modify an existing Departure.
type UpdateDeparture struct {
	DepartureDate *time.Time `json:"departure_date"`
	Status        string     `json:"status" validate:"omitempty,oneof=scheduled confirmed cancelled completed"`
	TotalBookings *int       `json:"total_bookings" validate:"omitempty,min=0"`

	FixedCosts               *float64 `json:"fixed_costs" validate:"omitempty,min=0"`
	VariableCostsPerPerson   *float64 `json:"variable_costs_per_person" validate:"omitempty,min=0"`
	MarketingCosts           *float64 `json:"marketing_costs" validate:"omitempty,min=0"`
	CommissionRate           *float64 `json:"commission_rate" validate:"omitempty,min=0,max=100"`
	CurrentPricePerPerson    *float64 `json:"current_price_per_person" validate:"omitempty,min=0"`
	DiscountedPricePerPerson *float64 `json:"discounted_price_per_person" validate:"omitempty,min=0"`
}

func (ud *UpdateDeparture) Validate(validate *validator.Validate) error {
	return validate.Struct(ud)
}

// QueryFilter applies AND operation on its available fields.
// Search does a case-insensitive match on Tour.Title or Tour.Destination.
type QueryFilter struct {
	Search string `query:"search"`
	Status string `query:"status"`
}

// DepartureFilter applies AND operation on its available fields.
type DepartureFilter struct {
	TourID   string    `query:"tour_id"`
	Status   string    `query:"status"`
	DateFrom time.Time `query:"date_from"`
	DateTo   time.Time `query:"date_to"`
}
