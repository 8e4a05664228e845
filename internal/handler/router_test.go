package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finboard/recurring-go/internal/config"
	"github.com/finboard/recurring-go/internal/detect"
	"github.com/finboard/recurring-go/internal/domain"
	"github.com/finboard/recurring-go/internal/handler"
	"github.com/finboard/recurring-go/internal/infra/cache"
	"github.com/finboard/recurring-go/internal/infra/memory"
	"github.com/finboard/recurring-go/internal/infra/observability"
	"github.com/finboard/recurring-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "router-test-secret"
	testDevToken = "dev-test-token"
)

func newTestRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()

	devHash, err := bcrypt.GenerateFromPassword([]byte(testDevToken), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	store := memory.NewStore()
	svc := service.NewSubscriptions(
		store,
		cache.New[[]domain.DetectedCandidate](time.Minute),
		detect.NewEngine(nil),
		observability.NewMetrics(),
		zap.NewNop(),
	)
	cfg := &config.Config{JWTSecret: testSecret, DevTokenHash: string(devHash)}

	return handler.NewRouter(svc, store, observability.NewMetrics(), cfg, zap.NewNop()), store
}

func signToken(t *testing.T, userID string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func seedMonthly(store *memory.Store, userID, desc string, amount float64, months int) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	txns := make([]domain.Transaction, 0, months)
	for i := 0; i < months; i++ {
		txns = append(txns, domain.Transaction{
			ID:          desc + "-" + string(rune('a'+i)),
			UserID:      userID,
			Description: desc,
			Amount:      amount,
			Date:        start.AddDate(0, i, 0),
			Type:        domain.TransactionExpense,
		})
	}
	store.SeedTransactions(userID, txns)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestDetectionMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/detection", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot domain.DetectionMetrics
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestDetectedCandidates(t *testing.T) {
	router, store := newTestRouter(t)
	seedMonthly(store, "user-1", "NETFLIX STREAMING", 15.49, 4)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/user-1/subscriptions/detected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Candidates []domain.DetectedCandidate `json:"candidates"`
		Total      int                        `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected 1 candidate, got %d", resp.Total)
	}
	if resp.Candidates[0].Name != "Netflix Streaming" {
		t.Errorf("expected 'Netflix Streaming', got %q", resp.Candidates[0].Name)
	}
}

func TestMissingTokenRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/user-1/subscriptions/detected", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestTokenUserMismatchForbidden(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/user-2/subscriptions/detected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestAcceptCandidate(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(domain.AcceptCandidateRequest{
		Name:            "Netflix Streaming",
		Amount:          15.49,
		BillingCycle:    domain.CycleMonthly,
		NextBillingDate: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/users/user-1/subscriptions", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var sub domain.Subscription
	if err := json.NewDecoder(rec.Body).Decode(&sub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub.ID == "" {
		t.Error("expected generated subscription ID")
	}

	// The accepted subscription shows up in the tracked list.
	listReq := httptest.NewRequest(http.MethodGet, "/v1/users/user-1/subscriptions", nil)
	listReq.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
	listRec := httptest.NewRecorder()

	router.ServeHTTP(listRec, listReq)

	var listResp struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(listRec.Body).Decode(&listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listResp.Total != 1 {
		t.Errorf("expected 1 tracked subscription, got %d", listResp.Total)
	}
}

func TestAcceptCandidateBadBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/user-1/subscriptions", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCostSummary(t *testing.T) {
	router, store := newTestRouter(t)
	seedMonthly(store, "user-1", "HULU STREAM", 12, 3)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/user-1/subscriptions/summary", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary domain.CostSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.DetectedCount != 1 {
		t.Errorf("expected 1 detected, got %d", summary.DetectedCount)
	}
	if summary.DetectedMonthlySum != 12 {
		t.Errorf("expected detected monthly sum 12, got %v", summary.DetectedMonthlySum)
	}
}

func TestDevSeedRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	body := []byte(`{"transactions":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/dev/users/user-1/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestDevSeedTransactions(t *testing.T) {
	router, _ := newTestRouter(t)

	body := []byte(`{"transactions":[{"id":"t1","description":"GYM PLUS","amount":30,"date":"2025-01-10T00:00:00Z"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/dev/users/user-1/transactions", bytes.NewReader(body))
	req.Header.Set("X-Dev-Token", testDevToken)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Seeded int `json:"seeded"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Seeded != 1 {
		t.Errorf("expected 1 seeded, got %d", resp.Seeded)
	}
}

func TestDevDisabledWithoutHash(t *testing.T) {
	store := memory.NewStore()
	svc := service.NewSubscriptions(
		store,
		cache.New[[]domain.DetectedCandidate](time.Minute),
		detect.NewEngine(nil),
		observability.NewMetrics(),
		zap.NewNop(),
	)
	cfg := &config.Config{JWTSecret: testSecret}
	router := handler.NewRouter(svc, store, observability.NewMetrics(), cfg, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/dev/reset", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
