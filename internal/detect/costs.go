package detect

import "github.com/finboard/recurring-go/internal/domain"

// Cost rollups over persisted subscriptions. These are simple deterministic
// folds with no failure modes: an empty list totals to zero.

// MonthlyEquivalent converts a subscription amount to its per-month cost.
// Unrecognized cycles are treated as monthly.
func MonthlyEquivalent(sub domain.Subscription) float64 {
	switch sub.BillingCycle {
	case domain.CycleYearly:
		return sub.Amount / 12
	case domain.CycleWeekly:
		return sub.Amount * 4.33
	case domain.CycleQuarterly:
		return sub.Amount / 3
	default:
		return sub.Amount
	}
}

// YearlyEquivalent converts a subscription amount to its per-year cost.
// Unrecognized cycles are treated as yearly.
func YearlyEquivalent(sub domain.Subscription) float64 {
	switch sub.BillingCycle {
	case domain.CycleMonthly:
		return sub.Amount * 12
	case domain.CycleWeekly:
		return sub.Amount * 52
	case domain.CycleQuarterly:
		return sub.Amount * 4
	default:
		return sub.Amount
	}
}

// MonthlyTotal sums the monthly-equivalent cost of all active subscriptions.
func MonthlyTotal(subs []domain.Subscription) float64 {
	var total float64
	for _, s := range subs {
		if s.IsActive {
			total += MonthlyEquivalent(s)
		}
	}
	return total
}

// YearlyTotal sums the yearly-equivalent cost of all active subscriptions.
func YearlyTotal(subs []domain.Subscription) float64 {
	var total float64
	for _, s := range subs {
		if s.IsActive {
			total += YearlyEquivalent(s)
		}
	}
	return total
}
