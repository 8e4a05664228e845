package handler

import (
	"encoding/json"
	"net/http"

	"github.com/finboard/recurring-go/internal/domain"
	"github.com/finboard/recurring-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// authorizedUserID resolves the {userId} path param and checks it against the
// authenticated session. Returns "" after writing the response on failure.
func authorizedUserID(w http.ResponseWriter, r *http.Request) string {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return ""
	}
	if auth := UserIDFromContext(r.Context()); auth != userID {
		writeError(w, http.StatusForbidden, "token does not grant access to this user")
		return ""
	}
	return userID
}

// GET /v1/users/{userId}/subscriptions
func listSubscriptionsHandler(svc *service.Subscriptions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/subscriptions")
		defer span.End()

		userID := authorizedUserID(w, r)
		if userID == "" {
			return
		}
		span.SetAttributes(attribute.String("user.id", userID))

		subs, err := svc.ListSubscriptions(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"subscriptions": subs,
			"total":         len(subs),
		})
	}
}

// GET /v1/users/{userId}/subscriptions/detected
func detectedCandidatesHandler(svc *service.Subscriptions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/subscriptions/detected")
		defer span.End()

		userID := authorizedUserID(w, r)
		if userID == "" {
			return
		}
		span.SetAttributes(attribute.String("user.id", userID))

		candidates, err := svc.GetDetectedCandidates(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": candidates,
			"total":      len(candidates),
		})
	}
}

// GET /v1/users/{userId}/subscriptions/summary
func costSummaryHandler(svc *service.Subscriptions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/subscriptions/summary")
		defer span.End()

		userID := authorizedUserID(w, r)
		if userID == "" {
			return
		}
		span.SetAttributes(attribute.String("user.id", userID))

		summary, err := svc.GetCostSummary(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}

// POST /v1/users/{userId}/subscriptions
func acceptCandidateHandler(svc *service.Subscriptions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/subscriptions")
		defer span.End()

		userID := authorizedUserID(w, r)
		if userID == "" {
			return
		}
		span.SetAttributes(attribute.String("user.id", userID))

		var req domain.AcceptCandidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sub, err := svc.AcceptCandidate(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, sub)
	}
}
