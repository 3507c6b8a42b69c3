package analytics

import (
	"fmt"
	"strings"
)

// Chat answers a question with a canned, keyword-matched response computed
// from the operator's current aggregates. It is not a reasoning engine.
func (svc *Service) Chat(operatorID, message string) (ChatResponse, error) {
	sum, err := svc.Dashboard(operatorID)
	if err != nil {
		return ChatResponse{}, err
	}
	return ChatResponse{Success: true, Response: answer(strings.ToLower(message), sum)}, nil
}

func answer(msg string, sum Summary) string {
	switch {
	case containsAny(msg, "revenue", "sales", "income"):
		return fmt.Sprintf(
			"Your current total revenue across %d departures is %.2f. %d upcoming departures could add more.",
			sum.DepartureCount, sum.TotalRevenue, sum.UpcomingDepartures)

	case containsAny(msg, "profit", "margin", "earn"):
		verdict := "you are operating at a loss overall"
		if sum.TotalProfit > 0 {
			verdict = "you are profitable overall"
		}
		return fmt.Sprintf(
			"Total profit is %.2f on revenue of %.2f against costs of %.2f — %s. %d departures are profitable, %d are not.",
			sum.TotalProfit, sum.TotalRevenue, sum.TotalCosts, verdict, sum.ProfitableCount, sum.UnprofitableCount)

	case containsAny(msg, "occupancy", "capacity", "booked", "booking"):
		return fmt.Sprintf(
			"Overall occupancy is %.1f%% across %d departures. Departures over 80%% booked may warrant extra capacity; those under 30%% need marketing attention.",
			sum.OverallOccupancy, sum.DepartureCount)

	case containsAny(msg, "breakeven", "break even", "break-even"):
		reachable := 0
		for _, d := range sum.Departures {
			if d.Breakeven != nil {
				reachable++
			}
		}
		return fmt.Sprintf(
			"%d of %d departures have a reachable breakeven point; %d are currently profitable. Check the departure analysis for per-departure breakeven passenger counts.",
			reachable, sum.DepartureCount, sum.ProfitableCount)

	case containsAny(msg, "cost", "expense", "spend"):
		return fmt.Sprintf(
			"Total costs stand at %.2f against revenue of %.2f. Review departures whose costs exceed 70%% of their price.",
			sum.TotalCosts, sum.TotalRevenue)

	case containsAny(msg, "tour", "departure"):
		return fmt.Sprintf(
			"You operate %d tours with %d departures, %d of them upcoming.",
			sum.TourCount, sum.DepartureCount, sum.UpcomingDepartures)

	case containsAny(msg, "hello", "hi ", "hey"):
		return "Hello! Ask me about your revenue, profit, occupancy, costs or breakeven points."
	}

	return "I can answer questions about revenue, profit, occupancy, bookings, costs, breakeven points, tours and departures. Try asking \"how is my revenue?\" or \"which departures are below breakeven?\""
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
