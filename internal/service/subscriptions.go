// Package service contains the application services that sit between the HTTP
// handlers and the ports.
package service

import (
	"context"
	"time"

	"github.com/finboard/recurring-go/internal/detect"
	"github.com/finboard/recurring-go/internal/domain"
	"github.com/finboard/recurring-go/internal/infra/observability"
	"github.com/finboard/recurring-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("service")

// Subscriptions runs recurring-charge detection over a user's transaction
// history and manages the subscriptions they choose to track.
type Subscriptions struct {
	store   port.FinanceStore
	cache   port.Cache[[]domain.DetectedCandidate]
	engine  *detect.Engine
	metrics *observability.Metrics
	logger  *zap.Logger

	// flight collapses concurrent detection runs for the same user into one.
	flight singleflight.Group
}

func NewSubscriptions(
	store port.FinanceStore,
	cache port.Cache[[]domain.DetectedCandidate],
	engine *detect.Engine,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Subscriptions {
	return &Subscriptions{
		store:   store,
		cache:   cache,
		engine:  engine,
		metrics: metrics,
		logger:  logger,
	}
}

// snapshot is the immutable input set of one detection run.
type snapshot struct {
	transactions  []domain.Transaction
	subscriptions []domain.Subscription
	categories    []domain.Category
}

// loadSnapshot fetches the three detection inputs concurrently.
func (s *Subscriptions) loadSnapshot(ctx context.Context, userID string) (*snapshot, error) {
	var snap snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txns, err := s.store.ListTransactions(gctx, userID)
		if err != nil {
			s.metrics.IncrStoreError("transactions")
			return err
		}
		snap.transactions = txns
		return nil
	})
	g.Go(func() error {
		subs, err := s.store.ListSubscriptions(gctx, userID)
		if err != nil {
			s.metrics.IncrStoreError("subscriptions")
			return err
		}
		snap.subscriptions = subs
		return nil
	})
	g.Go(func() error {
		cats, err := s.store.ListCategories(gctx)
		if err != nil {
			s.metrics.IncrStoreError("categories")
			return err
		}
		snap.categories = cats
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetDetectedCandidates returns the recurring-charge candidates for a user,
// sorted by monthly-equivalent cost. Results are cached per user between
// dashboard renders; concurrent requests share a single run.
func (s *Subscriptions) GetDetectedCandidates(ctx context.Context, userID string) ([]domain.DetectedCandidate, error) {
	ctx, span := tracer.Start(ctx, "Subscriptions.GetDetectedCandidates")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if cached, ok := s.cache.Get(userID); ok {
		s.metrics.IncrCacheHit("detection")
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	s.metrics.IncrCacheMiss("detection")

	result, err, _ := s.flight.Do(userID, func() (any, error) {
		start := time.Now()

		snap, err := s.loadSnapshot(ctx, userID)
		if err != nil {
			s.metrics.RecordDetectionRun("error", 0)
			s.logger.Warn("detection snapshot load failed",
				zap.String("user_id", userID),
				zap.Error(err))
			return nil, err
		}

		candidates := s.engine.Detect(snap.transactions, snap.subscriptions, snap.categories)
		s.cache.Set(userID, candidates)

		s.metrics.RecordDetectionRun("success", len(candidates))
		s.metrics.RecordRequestDuration("detect", time.Since(start))
		s.logger.Info("detection run complete",
			zap.String("user_id", userID),
			zap.Int("transactions", len(snap.transactions)),
			zap.Int("candidates", len(candidates)),
			zap.Duration("elapsed", time.Since(start)))

		return candidates, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]domain.DetectedCandidate), nil
}

// ListSubscriptions returns the user's tracked subscriptions.
func (s *Subscriptions) ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "Subscriptions.ListSubscriptions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("subscriptions")
		return nil, err
	}
	return subs, nil
}

// GetCostSummary aggregates the user's recurring spend: normalized totals over
// the active tracked subscriptions plus the monthly sum of what detection
// found but the user has not accepted yet.
func (s *Subscriptions) GetCostSummary(ctx context.Context, userID string) (*domain.CostSummary, error) {
	ctx, span := tracer.Start(ctx, "Subscriptions.GetCostSummary")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("subscriptions")
		return nil, err
	}

	candidates, err := s.GetDetectedCandidates(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, sub := range subs {
		if sub.IsActive {
			active++
		}
	}

	detectedMonthly := 0.0
	for _, c := range candidates {
		detectedMonthly += c.MonthlyEquivalent
	}

	return &domain.CostSummary{
		UserID:             userID,
		ActiveCount:        active,
		MonthlyTotal:       detect.MonthlyTotal(subs),
		YearlyTotal:        detect.YearlyTotal(subs),
		DetectedCount:      len(candidates),
		DetectedMonthlySum: detectedMonthly,
	}, nil
}

var validCycles = map[domain.BillingCycle]bool{
	domain.CycleWeekly:    true,
	domain.CycleMonthly:   true,
	domain.CycleQuarterly: true,
	domain.CycleYearly:    true,
	domain.CycleCustom:    true,
}

// AcceptCandidate persists a detected candidate the user accepted as a
// tracked subscription and invalidates the user's cached detection results.
func (s *Subscriptions) AcceptCandidate(ctx context.Context, userID string, req *domain.AcceptCandidateRequest) (*domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "Subscriptions.AcceptCandidate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	if !validCycles[req.BillingCycle] {
		return nil, &domain.ErrValidation{Field: "billing_cycle", Message: "unrecognized billing cycle"}
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:              uuid.New().String(),
		UserID:          userID,
		Name:            req.Name,
		Amount:          req.Amount,
		BillingCycle:    req.BillingCycle,
		NextBillingDate: req.NextBillingDate,
		IsActive:        true,
		CategoryID:      req.CategoryID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.store.CreateSubscription(ctx, sub)
	if err != nil {
		s.metrics.IncrStoreError("subscriptions")
		return nil, err
	}

	// The accepted name now excludes its group from future detection.
	s.cache.Delete(userID)

	s.logger.Info("candidate accepted",
		zap.String("user_id", userID),
		zap.String("subscription_id", created.ID),
		zap.String("name", created.Name))

	return created, nil
}

// GetDetectionMetrics exposes the counter-derived detection snapshot.
func (s *Subscriptions) GetDetectionMetrics() *domain.DetectionMetrics {
	return s.metrics.GetDetectionSnapshot()
}
