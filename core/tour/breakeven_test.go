package tour

import (
	"math"
	"testing"
)

func TestBreakevenPassengers(t *testing.T) {
	iPtr := func(i int) *int { return &i }

	tests := []struct {
		name string
		in   BreakevenInputs
		want *int
	}{
		{
			// fixed 310 total / margin (1000 - 99.6 - 20) = 0.35... -> 1
			name: "worked example",
			in: BreakevenInputs{
				FixedCosts:             300,
				VariableCostsPerPerson: 20,
				MarketingCosts:         10,
				PricePerPerson:         1000,
				CommissionRate:         9.96,
				MaxCapacity:            12,
			},
			want: iPtr(1),
		},
		{
			name: "typical departure",
			in: BreakevenInputs{
				FixedCosts:             1200,
				VariableCostsPerPerson: 80,
				MarketingCosts:         300,
				PricePerPerson:         350,
				CommissionRate:         10,
				MaxCapacity:            20,
			},
			// margin = 315 - 80 = 235; 1500/235 = 6.38 -> 7
			want: iPtr(7),
		},
		{
			name: "margin zero",
			in: BreakevenInputs{
				FixedCosts:             500,
				VariableCostsPerPerson: 100,
				PricePerPerson:         100,
			},
			want: nil,
		},
		{
			name: "margin negative",
			in: BreakevenInputs{
				FixedCosts:             500,
				VariableCostsPerPerson: 150,
				PricePerPerson:         100,
				CommissionRate:         20,
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.BreakevenPassengers()
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("BreakevenPassengers() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("BreakevenPassengers() = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	in := BreakevenInputs{
		FixedCosts:             300,
		VariableCostsPerPerson: 20,
		MarketingCosts:         10,
		PricePerPerson:         1000,
		CommissionRate:         9.96,
		MaxCapacity:            12,
		CurrentPassengers:      8,
	}
	a := in.Analyze()

	if a.BreakevenPassengers == nil || *a.BreakevenPassengers != 1 {
		t.Fatalf("BreakevenPassengers = %v, want 1", a.BreakevenPassengers)
	}
	if !a.IsProfitable {
		t.Error("IsProfitable = false, want true")
	}
	if a.TotalFixedCosts != 310 {
		t.Errorf("TotalFixedCosts = %v, want 310", a.TotalFixedCosts)
	}

	wantMargin := 1000 - 99.6 - 20 // 880.4
	if !almostEqual(a.ContributionMarginPerPerson, wantMargin) {
		t.Errorf("ContributionMarginPerPerson = %v, want %v", a.ContributionMarginPerPerson, wantMargin)
	}

	// 7 passengers past breakeven
	wantProfit := 7 * wantMargin
	if !almostEqual(a.CurrentProfit, wantProfit) {
		t.Errorf("CurrentProfit = %v, want %v", a.CurrentProfit, wantProfit)
	}

	// sell-out profit: (12 - 1) passengers past breakeven
	wantProfitAtCap := 11 * wantMargin
	if !almostEqual(a.ProfitAtCapacity, wantProfitAtCap) {
		t.Errorf("ProfitAtCapacity = %v, want %v", a.ProfitAtCapacity, wantProfitAtCap)
	}

	// investment = 310 + 8*20 = 470
	wantROI := wantProfit / 470 * 100
	if !almostEqual(a.ROIPercentage, wantROI) {
		t.Errorf("ROIPercentage = %v, want %v", a.ROIPercentage, wantROI)
	}

	if a.PassengersNeededForBreakeven != 0 {
		t.Errorf("PassengersNeededForBreakeven = %d, want 0", a.PassengersNeededForBreakeven)
	}
	if a.ExcessPassengers != 7 {
		t.Errorf("ExcessPassengers = %d, want 7", a.ExcessPassengers)
	}
}

func TestAnalyzeBelowBreakeven(t *testing.T) {
	in := BreakevenInputs{
		FixedCosts:             1200,
		VariableCostsPerPerson: 80,
		MarketingCosts:         300,
		PricePerPerson:         350,
		CommissionRate:         10,
		MaxCapacity:            20,
		CurrentPassengers:      3,
	}
	a := in.Analyze()

	if a.IsProfitable {
		t.Error("IsProfitable = true, want false")
	}
	if a.CurrentProfit != 0 {
		t.Errorf("CurrentProfit = %v, want 0", a.CurrentProfit)
	}
	if a.ProfitAtCapacity != 0 {
		t.Errorf("ProfitAtCapacity below breakeven = %v, want 0", a.ProfitAtCapacity)
	}
	if a.ROIPercentage != 0 {
		t.Errorf("ROIPercentage = %v, want 0", a.ROIPercentage)
	}
	if a.PassengersNeededForBreakeven != 4 {
		t.Errorf("PassengersNeededForBreakeven = %d, want 4", a.PassengersNeededForBreakeven)
	}
}

func TestCosts(t *testing.T) {
	in := BreakevenInputs{
		FixedCosts:             300,
		VariableCostsPerPerson: 20,
		MarketingCosts:         10,
		CurrentPassengers:      8,
	}
	c := in.Costs()

	if c.VariableCostsTotal != 160 {
		t.Errorf("VariableCostsTotal = %v, want 160", c.VariableCostsTotal)
	}
	if c.TotalCosts != 470 {
		t.Errorf("TotalCosts = %v, want 470", c.TotalCosts)
	}
	if c.TotalFixedCosts != 310 {
		t.Errorf("TotalFixedCosts = %v, want 310", c.TotalFixedCosts)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
