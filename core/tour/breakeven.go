package tour

import "math"

// BreakevenInputs carries the cost and pricing figures a breakeven analysis
// runs on, either taken from a Departure or entered by the operator.
type BreakevenInputs struct {
	FixedCosts             float64 `json:"fixed_costs" validate:"min=0"`
	VariableCostsPerPerson float64 `json:"variable_costs_per_person" validate:"min=0"`
	MarketingCosts         float64 `json:"marketing_costs" validate:"min=0"`
	PricePerPerson         float64 `json:"price_per_person" validate:"min=0"`
	CommissionRate         float64 `json:"commission_rate" validate:"min=0,max=100"` // percentage
	MaxCapacity            int     `json:"max_capacity" validate:"min=0"`
	CurrentPassengers      int     `json:"current_passengers" validate:"min=0"`
}

// BreakevenAnalysis is the full result set of one analysis run.
// BreakevenPassengers is nil when the contribution margin is not positive,
// i.e. the departure can never break even at the given price.
type BreakevenAnalysis struct {
	BreakevenPassengers          *int    `json:"breakeven_passengers"`
	CurrentProfit                float64 `json:"current_profit"`
	ProfitAtCapacity             float64 `json:"profit_at_capacity"`
	ROIPercentage                float64 `json:"roi_percentage"`
	IsProfitable                 bool    `json:"is_profitable"`
	TotalFixedCosts              float64 `json:"total_fixed_costs"`
	ContributionMarginPerPerson  float64 `json:"contribution_margin_per_person"`
	NetRevenuePerPerson          float64 `json:"net_revenue_per_person"`
	CommissionAmountPerPerson    float64 `json:"commission_amount_per_person"`
	PassengersNeededForBreakeven int     `json:"passengers_needed_for_breakeven"`
	ExcessPassengers             int     `json:"excess_passengers"`
}

// CostBreakdown details where the money goes at the current booking level.
type CostBreakdown struct {
	FixedCosts             float64 `json:"fixed_costs"`
	MarketingCosts         float64 `json:"marketing_costs"`
	VariableCostsPerPerson float64 `json:"variable_costs_per_person"`
	VariableCostsTotal     float64 `json:"variable_costs_total"`
	TotalCosts             float64 `json:"total_costs"`
	TotalFixedCosts        float64 `json:"total_fixed_costs"`
}

// DepartureBreakevenInputs builds analysis inputs from a Departure record.
func DepartureBreakevenInputs(d Departure) BreakevenInputs {
	return BreakevenInputs{
		FixedCosts:             d.FixedCosts,
		VariableCostsPerPerson: d.VariableCostsPerPerson,
		MarketingCosts:         d.MarketingCosts,
		PricePerPerson:         d.CurrentPricePerPerson,
		CommissionRate:         d.CommissionRate,
		MaxCapacity:            d.AvailableSpots,
		CurrentPassengers:      d.SlotsFilled(),
	}
}

func (in BreakevenInputs) totalFixedCosts() float64 {
	return in.FixedCosts + in.MarketingCosts
}

func (in BreakevenInputs) commissionAmountPerPerson() float64 {
	return in.PricePerPerson * in.CommissionRate / 100
}

func (in BreakevenInputs) netRevenuePerPerson() float64 {
	return in.PricePerPerson - in.commissionAmountPerPerson()
}

func (in BreakevenInputs) contributionMarginPerPerson() float64 {
	return in.netRevenuePerPerson() - in.VariableCostsPerPerson
}

// BreakevenPassengers returns the seat count at which cumulative contribution
// margin covers total fixed costs, or nil when the margin is not positive.
func (in BreakevenInputs) BreakevenPassengers() *int {
	margin := in.contributionMarginPerPerson()
	if margin <= 0 {
		return nil
	}
	// round up to the next whole passenger
	n := int(in.totalFixedCosts()/margin) + 1
	return &n
}

// CurrentProfit returns the profit at the current booking level; zero below breakeven.
func (in BreakevenInputs) CurrentProfit() float64 {
	be := in.BreakevenPassengers()
	if be == nil || in.CurrentPassengers < *be {
		return 0
	}
	return float64(in.CurrentPassengers-*be) * in.contributionMarginPerPerson()
}

// ProfitAtCapacity returns the profit if the departure sells out.
// Zero when already at or over capacity, or still below breakeven.
func (in BreakevenInputs) ProfitAtCapacity() float64 {
	if in.MaxCapacity == 0 || in.CurrentPassengers >= in.MaxCapacity {
		return 0
	}
	be := in.BreakevenPassengers()
	if be == nil || in.CurrentPassengers < *be {
		return 0
	}
	return float64(in.MaxCapacity-*be) * in.contributionMarginPerPerson()
}

// ROIPercentage returns current profit over total invested costs, as a percentage.
func (in BreakevenInputs) ROIPercentage() float64 {
	totalInvestment := in.totalFixedCosts() + float64(in.CurrentPassengers)*in.VariableCostsPerPerson
	if totalInvestment <= 0 {
		return 0
	}
	return in.CurrentProfit() / totalInvestment * 100
}

// IsProfitable reports whether the current booking level is at or past breakeven.
func (in BreakevenInputs) IsProfitable() bool {
	be := in.BreakevenPassengers()
	return be != nil && in.CurrentPassengers >= *be
}

// Analyze runs the full breakeven analysis.
func (in BreakevenInputs) Analyze() BreakevenAnalysis {
	be := in.BreakevenPassengers()

	var needed, excess int
	if be != nil {
		needed = int(math.Max(0, float64(*be-in.CurrentPassengers)))
		excess = int(math.Max(0, float64(in.CurrentPassengers-*be)))
	}

	return BreakevenAnalysis{
		BreakevenPassengers:          be,
		CurrentProfit:                in.CurrentProfit(),
		ProfitAtCapacity:             in.ProfitAtCapacity(),
		ROIPercentage:                in.ROIPercentage(),
		IsProfitable:                 in.IsProfitable(),
		TotalFixedCosts:              in.totalFixedCosts(),
		ContributionMarginPerPerson:  in.contributionMarginPerPerson(),
		NetRevenuePerPerson:          in.netRevenuePerPerson(),
		CommissionAmountPerPerson:    in.commissionAmountPerPerson(),
		PassengersNeededForBreakeven: needed,
		ExcessPassengers:             excess,
	}
}

// Costs returns the cost breakdown at the current booking level.
func (in BreakevenInputs) Costs() CostBreakdown {
	variableTotal := in.VariableCostsPerPerson * float64(in.CurrentPassengers)
	return CostBreakdown{
		FixedCosts:             in.FixedCosts,
		MarketingCosts:         in.MarketingCosts,
		VariableCostsPerPerson: in.VariableCostsPerPerson,
		VariableCostsTotal:     variableTotal,
		TotalCosts:             in.totalFixedCosts() + variableTotal,
		TotalFixedCosts:        in.totalFixedCosts(),
	}
}
