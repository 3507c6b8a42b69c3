package analytics

import (
	"fmt"
	"sort"

	"github.com/voyago/voyago/core/tour"
)

// Rule thresholds, percentages.
const (
	lowMarginPct     = 20
	highMarginPct    = 50
	highOccupancyPct = 80
	lowOccupancyPct  = 30
	highCostRatioPct = 70
	lowCostRatioPct  = 40
)

// buildInsights runs the four rule-based analysis passes over an operator's
// departures and orders them high-priority first.
func buildInsights(departures []tour.Departure) InsightSummary {
	insights := []Insight{
		pricingInsight(departures),
		demandInsight(departures),
		costInsight(departures),
		profitabilityInsight(departures),
	}

	priorityRank := map[string]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}
	sort.SliceStable(insights, func(i, j int) bool {
		return priorityRank[insights[i].Priority] < priorityRank[insights[j].Priority]
	})

	summary := InsightSummary{
		TotalInsights: len(insights),
		Insights:      insights,
	}
	for _, in := range insights {
		summary.TotalRecommendations += len(in.Recommendations)
		if in.Priority == PriorityHigh {
			summary.HighPriorityCount++
		}
	}
	return summary
}

func pricingInsight(departures []tour.Departure) Insight {
	in := Insight{
		Type:            "pricing_optimization",
		Title:           "Pricing Optimization",
		Priority:        PriorityHigh,
		RiskLevel:       PriorityLow,
		Recommendations: []Recommendation{},
	}

	var (
		priceSum, costSum     float64
		lowMargin, highMargin []string
	)
	for _, d := range departures {
		priceSum += d.CurrentPricePerPerson
		costSum += d.VariableCostsPerPerson

		marginPct := 0.0
		if d.CurrentPricePerPerson > 0 {
			marginPct = (d.CurrentPricePerPerson - d.VariableCostsPerPerson) / d.CurrentPricePerPerson * 100
		}
		switch {
		case marginPct < lowMarginPct:
			lowMargin = append(lowMargin, d.ID)
		case marginPct > highMarginPct:
			highMargin = append(highMargin, d.ID)
		}
	}

	if len(lowMargin) > 0 {
		in.Recommendations = append(in.Recommendations, Recommendation{
			Type:         "price_increase",
			Title:        "Consider price increases for low-margin departures",
			Description:  fmt.Sprintf("%d departures have margins below %d%%", len(lowMargin), lowMarginPct),
			Action:       "Review pricing strategy",
			Impact:       PriorityHigh,
			DepartureIDs: top3(lowMargin),
		})
	}
	if len(highMargin) > 0 {
		in.Recommendations = append(in.Recommendations, Recommendation{
			Type:         "competitive_advantage",
			Title:        "High-margin departures identified",
			Description:  fmt.Sprintf("%d departures have excellent margins", len(highMargin)),
			Action:       "Consider expanding similar offerings",
			Impact:       PriorityMedium,
			DepartureIDs: top3(highMargin),
		})
	}

	var avgPrice, avgCost float64
	if n := float64(len(departures)); n > 0 {
		avgPrice = priceSum / n
		avgCost = costSum / n
	}
	avgMargin := avgPrice - avgCost
	avgMarginPct := 0.0
	if avgPrice > 0 {
		avgMarginPct = avgMargin / avgPrice * 100
	}
	in.Metrics = map[string]float64{
		"average_price":             avgPrice,
		"average_margin":            avgMargin,
		"average_margin_percentage": avgMarginPct,
		"low_margin_count":          float64(len(lowMargin)),
		"high_margin_count":         float64(len(highMargin)),
	}
	return in
}

func demandInsight(departures []tour.Departure) Insight {
	in := Insight{
		Type:            "demand_forecasting",
		Title:           "Demand Forecasting",
		Priority:        PriorityMedium,
		RiskLevel:       PriorityMedium,
		Recommendations: []Recommendation{},
	}

	var (
		totalCapacity, totalBooked int
		highDemand, lowDemand      []string
	)
	for _, d := range departures {
		totalCapacity += d.AvailableSpots
		totalBooked += d.SlotsFilled()

		switch occ := d.OccupancyRate(); {
		case occ > highOccupancyPct:
			highDemand = append(highDemand, d.ID)
		case occ < lowOccupancyPct:
			lowDemand = append(lowDemand, d.ID)
		}
	}

	if len(highDemand) > 0 {
		in.Recommendations = append(in.Recommendations, Recommendation{
			Type:         "capacity_increase",
			Title:        "High demand detected",
			Description:  fmt.Sprintf("%d departures are over %d%% booked", len(highDemand), highOccupancyPct),
			Action:       "Consider increasing capacity",
			Impact:       PriorityHigh,
			DepartureIDs: top3(highDemand),
		})
	}
	if len(lowDemand) > 0 {
		in.Recommendations = append(in.Recommendations, Recommendation{
			Type:         "marketing_boost",
			Title:        "Low demand departures need attention",
			Description:  fmt.Sprintf("%d departures are under %d%% booked", len(lowDemand), lowOccupancyPct),
			Action:       "Increase marketing efforts",
			Impact:       PriorityHigh,
			DepartureIDs: top3(lowDemand),
		})
	}

	overallOccupancy := 0.0
	if totalCapacity > 0 {
		overallOccupancy = float64(totalBooked) / float64(totalCapacity) * 100
	}
	in.Metrics = map[string]float64{
		"overall_occupancy": overallOccupancy,
		"high_demand_count": float64(len(highDemand)),
		"low_demand_count":  float64(len(lowDemand)),
		"total_capacity":    float64(totalCapacity),
		"total_bookings":    float64(totalBooked),
	}
	return in
}

func costInsight(departures []tour.Departure) Insight {
	in := Insight{
		Type:            "cost_optimization",
		Title:           "Cost Optimization",
		Priority:        PriorityHigh,
		RiskLevel:       PriorityLow,
		Recommendations: []Recommendation{},
	}

	var (
		fixedSum, variableSum, marketingSum float64
		highCost                            []Recommendation
		highCostIDs, efficient              []string
	)
	for _, d := range departures {
		fixedSum += d.FixedCosts
		variableSum += d.VariableCostsPerPerson
		marketingSum += d.MarketingCosts

		costPerPerson := 0.0
		if d.AvailableSpots > 0 {
			costPerPerson = d.FixedCosts/float64(d.AvailableSpots) +
				d.VariableCostsPerPerson +
				d.MarketingCosts/float64(d.AvailableSpots)
		}
		costRatio := 0.0
		if d.CurrentPricePerPerson > 0 {
			costRatio = costPerPerson / d.CurrentPricePerPerson * 100
		}
		switch {
		case costRatio > highCostRatioPct:
			highCostIDs = append(highCostIDs, d.ID)
			highCost = append(highCost, Recommendation{DepartureIDs: []string{d.ID}, Suggestions: costSuggestions(d)})
		case costRatio < lowCostRatioPct:
			efficient = append(efficient, d.ID)
		}
	}

	if len(highCostIDs) > 0 {
		rec := Recommendation{
			Type:         "cost_reduction",
			Title:        "High-cost departures identified",
			Description:  fmt.Sprintf("%d departures have costs over %d%% of price", len(highCostIDs), highCostRatioPct),
			Action:       "Review cost structure",
			Impact:       PriorityHigh,
			DepartureIDs: top3(highCostIDs),
		}
		for _, hc := range highCost[:min(3, len(highCost))] {
			rec.Suggestions = append(rec.Suggestions, hc.Suggestions...)
		}
		in.Recommendations = append(in.Recommendations, rec)
	}
	if len(efficient) > 0 {
		in.Recommendations = append(in.Recommendations, Recommendation{
			Type:         "best_practices",
			Title:        "Cost-efficient operations found",
			Description:  fmt.Sprintf("%d departures have excellent cost ratios", len(efficient)),
			Action:       "Study and replicate best practices",
			Impact:       PriorityMedium,
			DepartureIDs: top3(efficient),
		})
	}

	var avgFixed, avgVariable, avgMarketing float64
	if n := float64(len(departures)); n > 0 {
		avgFixed = fixedSum / n
		avgVariable = variableSum / n
		avgMarketing = marketingSum / n
	}
	in.Metrics = map[string]float64{
		"average_fixed_costs":     avgFixed,
		"average_variable_costs":  avgVariable,
		"average_marketing_costs": avgMarketing,
		"high_cost_count":         float64(len(highCostIDs)),
		"cost_efficient_count":    float64(len(efficient)),
	}
	return in
}

func costSuggestions(d tour.Departure) []string {
	var suggestions []string
	if d.FixedCosts > 500 {
		suggestions = append(suggestions, "Consider sharing fixed costs across multiple departures")
	}
	if d.VariableCostsPerPerson > 100 {
		suggestions = append(suggestions, "Negotiate better rates with suppliers")
	}
	if d.MarketingCosts > 50 {
		suggestions = append(suggestions, "Optimize marketing spend with targeted campaigns")
	}
	if d.CommissionRate > 15 {
		suggestions = append(suggestions, "Review commission structure")
	}
	return suggestions
}

func profitabilityInsight(departures []tour.Departure) Insight {
	in := Insight{
		Type:            "profitability_trends",
		Title:           "Profitability Trends",
		Priority:        PriorityHigh,
		RiskLevel:       PriorityMedium,
		Recommendations: []Recommendation{},
	}

	var (
		profitable, unprofitable              []string
		totalProfit, totalRevenue, totalCosts float64
	)
	for _, d := range departures {
		bin := tour.DepartureBreakevenInputs(d)
		profit := bin.CurrentProfit()
		totalRevenue += d.CurrentRevenue()
		totalCosts += bin.Costs().TotalCosts

		if bin.IsProfitable() {
			profitable = append(profitable, d.ID)
			totalProfit += profit
		} else {
			unprofitable = append(unprofitable, d.ID)
		}
	}

	if len(unprofitable) > 0 {
		in.Recommendations = append(in.Recommendations, Recommendation{
			Type:         "profitability_improvement",
			Title:        "Unprofitable departures detected",
			Description:  fmt.Sprintf("%d departures are below breakeven", len(unprofitable)),
			Action:       "Review pricing and costs",
			Impact:       PriorityHigh,
			DepartureIDs: top3(unprofitable),
		})
	}
	if len(profitable) > 0 {
		in.Recommendations = append(in.Recommendations, Recommendation{
			Type:         "success_replication",
			Title:        "Profitable operations identified",
			Description:  fmt.Sprintf("%d departures are profitable", len(profitable)),
			Action:       "Replicate successful strategies",
			Impact:       PriorityMedium,
			DepartureIDs: top3(profitable),
		})
	}

	profitMargin := 0.0
	if totalRevenue > 0 {
		profitMargin = totalProfit / totalRevenue * 100
	}
	in.Metrics = map[string]float64{
		"profitable_count":      float64(len(profitable)),
		"unprofitable_count":    float64(len(unprofitable)),
		"overall_profit_margin": profitMargin,
		"total_profit":          totalProfit,
		"total_revenue":         totalRevenue,
		"total_costs":           totalCosts,
	}
	return in
}

func top3(ids []string) []string {
	return ids[:min(3, len(ids))]
}
