// Package domain holds the core data model for the subscriptions view:
// raw transactions, persisted subscriptions, categories, and the ephemeral
// detection candidates computed from them.
package domain

import "time"

// TransactionType classifies a raw transaction. The detection engine only
// reads EXPENSE rows.
type TransactionType string

const (
	TransactionIncome   TransactionType = "INCOME"
	TransactionExpense  TransactionType = "EXPENSE"
	TransactionTransfer TransactionType = "TRANSFER"
)

// BillingCycle is the recurring period of a subscription or candidate.
type BillingCycle string

const (
	CycleWeekly    BillingCycle = "WEEKLY"
	CycleMonthly   BillingCycle = "MONTHLY"
	CycleQuarterly BillingCycle = "QUARTERLY"
	CycleYearly    BillingCycle = "YEARLY"
	CycleCustom    BillingCycle = "CUSTOM"
)

// Transaction is a raw bank transaction as populated by the sync job.
// The engine treats it as read-only input.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id,omitempty"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	CategoryID  string          `json:"category_id,omitempty"`
}

// Subscription is a persisted, user-tracked recurring charge.
type Subscription struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Name            string       `json:"name"`
	Amount          float64      `json:"amount"`
	BillingCycle    BillingCycle `json:"billing_cycle"`
	NextBillingDate time.Time    `json:"next_billing_date"`
	IsActive        bool         `json:"is_active"`
	CategoryID      string       `json:"category_id,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Category resolves a category id to a display name.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DetectedCandidate is an untracked recurring charge suggested by the engine.
// Candidates are recomputed from scratch on every call and never persisted;
// accepting one creates a new Subscription from its fields.
type DetectedCandidate struct {
	GroupKey          string       `json:"group_key"`
	Name              string       `json:"name"`
	Amount            float64      `json:"amount"`
	BillingCycle      BillingCycle `json:"billing_cycle"`
	NextBillingDate   time.Time    `json:"next_billing_date"`
	LastChargeDate    time.Time    `json:"last_charge_date"`
	TransactionCount  int          `json:"transaction_count"`
	CategoryID        string       `json:"category_id,omitempty"`
	CategoryName      string       `json:"category_name,omitempty"`
	Confidence        float64      `json:"confidence"`
	MonthlyEquivalent float64      `json:"monthly_equivalent"`
}

// CostSummary is the rollup rendered above the subscriptions list.
type CostSummary struct {
	UserID             string  `json:"user_id"`
	ActiveCount        int     `json:"active_count"`
	MonthlyTotal       float64 `json:"monthly_total"`
	YearlyTotal        float64 `json:"yearly_total"`
	DetectedCount      int     `json:"detected_count"`
	DetectedMonthlySum float64 `json:"detected_monthly_sum"`
}

// AcceptCandidateRequest is the POST body used to persist a candidate the
// user accepted in the UI.
type AcceptCandidateRequest struct {
	Name            string       `json:"name"`
	Amount          float64      `json:"amount"`
	BillingCycle    BillingCycle `json:"billing_cycle"`
	NextBillingDate time.Time    `json:"next_billing_date"`
	CategoryID      string       `json:"category_id,omitempty"`
}

// DetectionMetrics is the counter-derived snapshot served by
// GET /v1/metrics/detection.
type DetectionMetrics struct {
	TotalRuns           int64   `json:"total_runs"`
	CandidatesEmitted   int64   `json:"candidates_emitted"`
	AvgCandidatesPerRun float64 `json:"avg_candidates_per_run"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
	StoreErrorRate      float64 `json:"store_error_rate"`
	Period              string  `json:"period"`
}

// ServiceHealth and HealthStatus back the /healthz payload.
type ServiceHealth struct {
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	LatencyMs     int64   `json:"latency_ms"`
	UptimePercent float64 `json:"uptime_percent"`
	LastChecked   string  `json:"last_checked"`
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}
