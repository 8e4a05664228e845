package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finboard/recurring-go/internal/domain"
	"github.com/finboard/recurring-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// Row structs map Supabase table columns to the domain.

type transactionRow struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	CategoryID  string  `json:"category_id"`
}

type subscriptionRow struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	BillingCycle    string  `json:"billing_cycle"`
	NextBillingDate string  `json:"next_billing_date"`
	IsActive        bool    `json:"is_active"`
	CategoryID      string  `json:"category_id"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type categoryRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// parseDate accepts both timestamptz and plain date columns.
func parseDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, _ = time.Parse("2006-01-02", s)
	}
	return t
}

// ListTransactions fetches a user's raw transaction history.
func (c *Client) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var transactions []domain.Transaction

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("transactions?user_id=eq.%s&order=date.asc", userID)
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				transactions = []domain.Transaction{}
				return nil
			}

			var rows []transactionRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode transactions: %w", err)
			}

			transactions = make([]domain.Transaction, 0, len(rows))
			for _, r := range rows {
				transactions = append(transactions, domain.Transaction{
					ID:          r.ID,
					UserID:      r.UserID,
					Description: r.Description,
					Amount:      r.Amount,
					Date:        parseDate(r.Date),
					Type:        domain.TransactionType(r.Type),
					CategoryID:  r.CategoryID,
				})
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return transactions, nil
}

// ListSubscriptions fetches all of a user's tracked subscriptions, active or
// not: inactive ones still exclude their names from detection.
func (c *Client) ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSubscriptions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var subscriptions []domain.Subscription

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("subscriptions?user_id=eq.%s&order=created_at.asc", userID)
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				subscriptions = []domain.Subscription{}
				return nil
			}

			var rows []subscriptionRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode subscriptions: %w", err)
			}

			subscriptions = make([]domain.Subscription, 0, len(rows))
			for _, r := range rows {
				subscriptions = append(subscriptions, domain.Subscription{
					ID:              r.ID,
					UserID:          r.UserID,
					Name:            r.Name,
					Amount:          r.Amount,
					BillingCycle:    domain.BillingCycle(r.BillingCycle),
					NextBillingDate: parseDate(r.NextBillingDate),
					IsActive:        r.IsActive,
					CategoryID:      r.CategoryID,
					CreatedAt:       parseDate(r.CreatedAt),
					UpdatedAt:       parseDate(r.UpdatedAt),
				})
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/subscriptions", Err: err}
	}

	return subscriptions, nil
}

// ListCategories fetches the global category list.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCategories")
	defer span.End()

	var categories []domain.Category

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doGet(ctx, "categories?order=name.asc")
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				categories = []domain.Category{}
				return nil
			}

			var rows []categoryRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode categories: %w", err)
			}

			categories = make([]domain.Category, 0, len(rows))
			for _, r := range rows {
				categories = append(categories, domain.Category{ID: r.ID, Name: r.Name})
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/categories", Err: err}
	}

	return categories, nil
}

// CreateSubscription persists a subscription built from an accepted candidate
// and returns the stored row.
func (c *Client) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateSubscription")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", sub.UserID))

	data := map[string]any{
		"id":                sub.ID,
		"user_id":           sub.UserID,
		"name":              sub.Name,
		"amount":            sub.Amount,
		"billing_cycle":     string(sub.BillingCycle),
		"next_billing_date": sub.NextBillingDate.Format(time.RFC3339),
		"is_active":         sub.IsActive,
		"created_at":        sub.CreatedAt.Format(time.RFC3339),
		"updated_at":        sub.UpdatedAt.Format(time.RFC3339),
	}
	if sub.CategoryID != "" {
		data["category_id"] = sub.CategoryID
	}

	var created *domain.Subscription

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doPost(ctx, "subscriptions", data)
			if err != nil {
				return err
			}

			var rows []subscriptionRow
			if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
				// Insert succeeded but representation was not returned:
				// fall back to what we sent.
				created = sub
				return nil
			}

			r := rows[0]
			created = &domain.Subscription{
				ID:              r.ID,
				UserID:          r.UserID,
				Name:            r.Name,
				Amount:          r.Amount,
				BillingCycle:    domain.BillingCycle(r.BillingCycle),
				NextBillingDate: parseDate(r.NextBillingDate),
				IsActive:        r.IsActive,
				CategoryID:      r.CategoryID,
				CreatedAt:       parseDate(r.CreatedAt),
				UpdatedAt:       parseDate(r.UpdatedAt),
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/subscriptions", Err: err}
	}

	return created, nil
}
