// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/finboard/recurring-go/internal/domain"
)

// FinanceStore supplies the read-only snapshots the detection engine consumes
// and persists the subscriptions a user accepts. Implemented by the Supabase
// adapter (or any other persistence layer).
type FinanceStore interface {
	// Snapshots (read-only inputs of the detection engine)
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
	ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// Accept-candidate path
	CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
