// Package memory provides an in-memory FinanceStore for development mode and
// handler tests. Data lives for the lifetime of the process only.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/finboard/recurring-go/internal/domain"
)

type Store struct {
	mu            sync.RWMutex
	transactions  map[string][]domain.Transaction
	subscriptions map[string][]domain.Subscription
	categories    []domain.Category
}

func NewStore() *Store {
	return &Store{
		transactions:  make(map[string][]domain.Transaction),
		subscriptions: make(map[string][]domain.Subscription),
	}
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns := make([]domain.Transaction, len(s.transactions[userID]))
	copy(txns, s.transactions[userID])
	sort.Slice(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })
	return txns, nil
}

func (s *Store) ListSubscriptions(_ context.Context, userID string) ([]domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]domain.Subscription, len(s.subscriptions[userID]))
	copy(subs, s.subscriptions[userID])
	return subs, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cats := make([]domain.Category, len(s.categories))
	copy(cats, s.categories)
	return cats, nil
}

func (s *Store) CreateSubscription(_ context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sub
	s.subscriptions[sub.UserID] = append(s.subscriptions[sub.UserID], stored)
	return &stored, nil
}

// SeedTransactions replaces a user's transaction history. Used by the dev
// routes and by tests.
func (s *Store) SeedTransactions(userID string, txns []domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions[userID] = make([]domain.Transaction, len(txns))
	copy(s.transactions[userID], txns)
}

// SeedCategories replaces the category list.
func (s *Store) SeedCategories(cats []domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = make([]domain.Category, len(cats))
	copy(s.categories, cats)
}

// Reset drops all seeded and created data.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = make(map[string][]domain.Transaction)
	s.subscriptions = make(map[string][]domain.Subscription)
	s.categories = nil
}
