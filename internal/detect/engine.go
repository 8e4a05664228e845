package detect

import (
	"math"
	"sort"
	"time"

	"github.com/finboard/recurring-go/internal/domain"
)

// CadenceRule describes one known billing cadence: a target interval in days
// and the tolerance band around it.
type CadenceRule struct {
	Cycle      domain.BillingCycle
	TargetDays float64
	Tolerance  float64
}

// DefaultCadences is checked in this fixed priority order; the first cadence
// for which every interval in a group falls within tolerance wins. There is
// deliberately no best-fit search across cadences.
var DefaultCadences = []CadenceRule{
	{Cycle: domain.CycleMonthly, TargetDays: 30, Tolerance: 5},
	{Cycle: domain.CycleQuarterly, TargetDays: 90, Tolerance: 12},
	{Cycle: domain.CycleYearly, TargetDays: 365, Tolerance: 20},
}

const (
	// minGroupSize is the minimum number of charges before a merchant group
	// is even considered.
	minGroupSize = 3
	// minKeyLen drops grouping keys too unspecific to name a merchant.
	minKeyLen = 3
	// minIntervals is the minimum number of positive day deltas required
	// for cadence classification.
	minIntervals = 2
	// maxDeviationRatio rejects groups whose amounts vary too much to be a
	// fixed recurring charge.
	maxDeviationRatio = 0.25

	confidenceFloor   = 0.55
	confidenceCeiling = 0.97
)

// Engine runs recurring charge detection over in-memory snapshots. It holds
// only configuration, never state: every Detect call is independent, inputs
// are not mutated, and concurrent calls are safe.
type Engine struct {
	cadences []CadenceRule
}

// NewEngine creates an engine with the given cadence table. A nil table means
// DefaultCadences.
func NewEngine(cadences []CadenceRule) *Engine {
	if cadences == nil {
		cadences = DefaultCadences
	}
	return &Engine{cadences: cadences}
}

// Detect discovers untracked recurring charges in the transaction history.
// Existing subscriptions exclude their normalized names from detection;
// categories only resolve display names. The result is sorted descending by
// monthly-equivalent cost. An empty result is a normal outcome, not an error.
func (e *Engine) Detect(
	txns []domain.Transaction,
	existing []domain.Subscription,
	categories []domain.Category,
) []domain.DetectedCandidate {
	groups := groupExpenses(txns)

	tracked := make(map[string]bool, len(existing))
	for _, sub := range existing {
		if key := Normalize(sub.Name); key != "" {
			tracked[key] = true
		}
	}

	catNames := make(map[string]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}

	candidates := make([]domain.DetectedCandidate, 0)
	for key, group := range groups {
		if tracked[key] || len(group) < minGroupSize {
			continue
		}
		if cand, ok := e.classify(key, group, catNames); ok {
			candidates = append(candidates, cand)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].MonthlyEquivalent != candidates[j].MonthlyEquivalent {
			return candidates[i].MonthlyEquivalent > candidates[j].MonthlyEquivalent
		}
		return candidates[i].GroupKey < candidates[j].GroupKey
	})

	return candidates
}

// groupExpenses buckets EXPENSE transactions by normalized description key,
// dropping keys shorter than minKeyLen.
func groupExpenses(txns []domain.Transaction) map[string][]domain.Transaction {
	groups := make(map[string][]domain.Transaction)
	for _, tx := range txns {
		if tx.Type != domain.TransactionExpense {
			continue
		}
		key := Normalize(tx.Description)
		if len(key) < minKeyLen {
			continue
		}
		groups[key] = append(groups[key], tx)
	}
	return groups
}

// intervalDays returns the day-count deltas between consecutive charges,
// sorted ascending by date. Deltas rounded to ≤ 0 days are dropped: duplicate
// or same-day entries cannot represent a billing interval.
func intervalDays(group []domain.Transaction) []float64 {
	sorted := make([]domain.Transaction, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	intervals := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		days := math.Round(sorted[i].Date.Sub(sorted[i-1].Date).Hours() / 24)
		if days > 0 {
			intervals = append(intervals, days)
		}
	}
	return intervals
}

// matchCadence returns the first cadence whose tolerance band contains every
// interval.
func (e *Engine) matchCadence(intervals []float64) (CadenceRule, bool) {
	for _, rule := range e.cadences {
		all := true
		for _, d := range intervals {
			if math.Abs(d-rule.TargetDays) > rule.Tolerance {
				all = false
				break
			}
		}
		if all {
			return rule, true
		}
	}
	return CadenceRule{}, false
}

// classify runs the cadence and amount gates over one merchant group and, if
// both pass, assembles the candidate.
func (e *Engine) classify(key string, group []domain.Transaction, catNames map[string]string) (domain.DetectedCandidate, bool) {
	intervals := intervalDays(group)
	if len(intervals) < minIntervals {
		return domain.DetectedCandidate{}, false
	}

	rule, ok := e.matchCadence(intervals)
	if !ok {
		return domain.DetectedCandidate{}, false
	}

	amounts := make([]float64, len(group))
	for i, tx := range group {
		amounts[i] = tx.Amount
	}
	med := median(amounts)
	if med == 0 || math.IsNaN(med) || math.IsInf(med, 0) {
		return domain.DetectedCandidate{}, false
	}
	deviationRatio := meanAbsDeviation(amounts, med) / med
	if deviationRatio > maxDeviationRatio {
		return domain.DetectedCandidate{}, false
	}

	var intervalDev float64
	for _, d := range intervals {
		intervalDev += math.Abs(d - rule.TargetDays)
	}
	intervalDev /= float64(len(intervals))

	intervalScore := math.Max(0, 1-intervalDev/rule.Tolerance)
	amountScore := math.Max(0, 1-deviationRatio/maxDeviationRatio)
	confidence := clamp((intervalScore+amountScore)/2, confidenceFloor, confidenceCeiling)

	// Chronologically last charge. intervalDays sorts a copy, so find the
	// max date here without disturbing input order (which the category mode
	// tie-break depends on).
	last := group[0].Date
	for _, tx := range group[1:] {
		if tx.Date.After(last) {
			last = tx.Date
		}
	}

	categoryID := modeCategory(group)

	return domain.DetectedCandidate{
		GroupKey:          key,
		Name:              TitleCase(key),
		Amount:            med,
		BillingCycle:      rule.Cycle,
		NextBillingDate:   nextBillingDate(last, rule.Cycle),
		LastChargeDate:    last,
		TransactionCount:  len(group),
		CategoryID:        categoryID,
		CategoryName:      catNames[categoryID],
		Confidence:        confidence,
		MonthlyEquivalent: monthlyEquivalentFor(med, rule.Cycle),
	}, true
}

// nextBillingDate advances the last charge date by one cadence unit using
// calendar arithmetic. Go's AddDate normalizes overflow, so Jan 31 + 1 month
// lands in early March rather than clamping to Feb 28.
func nextBillingDate(last time.Time, cycle domain.BillingCycle) time.Time {
	switch cycle {
	case domain.CycleQuarterly:
		return last.AddDate(0, 3, 0)
	case domain.CycleYearly:
		return last.AddDate(1, 0, 0)
	default:
		return last.AddDate(0, 1, 0)
	}
}

// monthlyEquivalentFor normalizes a cadence amount to its monthly cost for
// ranking and rollup display.
func monthlyEquivalentFor(amount float64, cycle domain.BillingCycle) float64 {
	switch cycle {
	case domain.CycleQuarterly:
		return amount / 3
	case domain.CycleYearly:
		return amount / 12
	default:
		return amount
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
