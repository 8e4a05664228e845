package handler

import (
	"encoding/json"
	"net/http"

	"github.com/finboard/recurring-go/internal/domain"
	"github.com/finboard/recurring-go/internal/infra/memory"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Dev tools operate directly on the in-memory store so local frontends and
// smoke tests can stage detection scenarios without a Supabase project.

// POST /v1/dev/users/{userId}/transactions
func devSeedTransactionsHandler(store *memory.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusServiceUnavailable, "dev tools require the in-memory store")
			return
		}

		userID := chi.URLParam(r, "userId")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}

		var req struct {
			Transactions []domain.Transaction `json:"transactions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		for i := range req.Transactions {
			req.Transactions[i].UserID = userID
			if req.Transactions[i].Type == "" {
				req.Transactions[i].Type = domain.TransactionExpense
			}
		}
		store.SeedTransactions(userID, req.Transactions)

		logger.Info("dev: seeded transactions",
			zap.String("user_id", userID),
			zap.Int("count", len(req.Transactions)))

		writeJSON(w, http.StatusOK, map[string]any{"seeded": len(req.Transactions)})
	}
}

// POST /v1/dev/categories
func devSeedCategoriesHandler(store *memory.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusServiceUnavailable, "dev tools require the in-memory store")
			return
		}

		var req struct {
			Categories []domain.Category `json:"categories"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		store.SeedCategories(req.Categories)
		logger.Info("dev: seeded categories", zap.Int("count", len(req.Categories)))

		writeJSON(w, http.StatusOK, map[string]any{"seeded": len(req.Categories)})
	}
}

// POST /v1/dev/reset
func devResetHandler(store *memory.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusServiceUnavailable, "dev tools require the in-memory store")
			return
		}

		store.Reset()
		logger.Info("dev: store reset")

		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	}
}
