package detect_test

import (
	"math"
	"testing"

	"github.com/finboard/recurring-go/internal/detect"
	"github.com/finboard/recurring-go/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMonthlyEquivalent(t *testing.T) {
	cases := []struct {
		cycle  domain.BillingCycle
		amount float64
		want   float64
	}{
		{domain.CycleMonthly, 10, 10},
		{domain.CycleYearly, 120, 10},
		{domain.CycleQuarterly, 30, 10},
		{domain.CycleWeekly, 10, 43.3},
		{domain.CycleCustom, 10, 10}, // unrecognized → monthly
	}
	for _, tc := range cases {
		sub := domain.Subscription{Amount: tc.amount, BillingCycle: tc.cycle}
		if got := detect.MonthlyEquivalent(sub); !almostEqual(got, tc.want) {
			t.Errorf("MonthlyEquivalent(%s, %f) = %f, want %f", tc.cycle, tc.amount, got, tc.want)
		}
	}
}

func TestYearlyEquivalent(t *testing.T) {
	cases := []struct {
		cycle  domain.BillingCycle
		amount float64
		want   float64
	}{
		{domain.CycleMonthly, 10, 120},
		{domain.CycleWeekly, 10, 520},
		{domain.CycleQuarterly, 30, 120},
		{domain.CycleYearly, 120, 120},
		{domain.CycleCustom, 120, 120}, // unrecognized → yearly
	}
	for _, tc := range cases {
		sub := domain.Subscription{Amount: tc.amount, BillingCycle: tc.cycle}
		if got := detect.YearlyEquivalent(sub); !almostEqual(got, tc.want) {
			t.Errorf("YearlyEquivalent(%s, %f) = %f, want %f", tc.cycle, tc.amount, got, tc.want)
		}
	}
}

func TestTotalsSkipInactive(t *testing.T) {
	subs := []domain.Subscription{
		{Amount: 10, BillingCycle: domain.CycleMonthly, IsActive: true},
		{Amount: 120, BillingCycle: domain.CycleYearly, IsActive: true},
		{Amount: 99, BillingCycle: domain.CycleMonthly, IsActive: false},
	}

	if got := detect.MonthlyTotal(subs); !almostEqual(got, 20) {
		t.Errorf("MonthlyTotal = %f, want 20", got)
	}
	if got := detect.YearlyTotal(subs); !almostEqual(got, 240) {
		t.Errorf("YearlyTotal = %f, want 240", got)
	}
}

func TestTotalsEmptyList(t *testing.T) {
	if got := detect.MonthlyTotal(nil); got != 0 {
		t.Errorf("MonthlyTotal(nil) = %f, want 0", got)
	}
	if got := detect.YearlyTotal(nil); got != 0 {
		t.Errorf("YearlyTotal(nil) = %f, want 0", got)
	}
}
