package detect

import (
	"math"
	"sort"

	"github.com/finboard/recurring-go/internal/domain"
)

// median returns the standard median of the absolute values: middle element
// for odd counts, mean of the two middle elements for even counts.
// Returns 0 for an empty slice.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	sort.Float64s(abs)

	mid := len(abs) / 2
	if len(abs)%2 == 1 {
		return abs[mid]
	}
	return (abs[mid-1] + abs[mid]) / 2
}

// meanAbsDeviation returns the average absolute distance of |values| from
// center.
func meanAbsDeviation(values []float64, center float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += math.Abs(math.Abs(v) - center)
	}
	return sum / float64(len(values))
}

// modeCategory returns the most frequent non-empty category id across the
// group. Ties go to the first-encountered value: counts are gathered first,
// then transactions are walked again in input order so the winner is the
// earliest category carrying the max count, not whichever reached it first.
func modeCategory(txns []domain.Transaction) string {
	counts := make(map[string]int, len(txns))
	bestCount := 0
	for _, tx := range txns {
		if tx.CategoryID == "" {
			continue
		}
		counts[tx.CategoryID]++
		if counts[tx.CategoryID] > bestCount {
			bestCount = counts[tx.CategoryID]
		}
	}
	for _, tx := range txns {
		if tx.CategoryID != "" && counts[tx.CategoryID] == bestCount {
			return tx.CategoryID
		}
	}
	return ""
}
