package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/adapter/http/handler"
	apimiddleware "github.com/betops/settlecore/internal/adapter/http/middleware"
	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"project_id":"P1","name":"Main","currency":"USD"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"GET /api/v1/accounts/{id}/balance",
		"POST /api/v1/accounts/{id}/entries",
		"GET /api/v1/accounts/{id}/discrepancy",
		"POST /api/v1/accounts/{id}/reconcile",
		"POST /api/v1/conversions/quote",
		"POST /api/v1/conversions/snapshots",
		"GET /api/v1/rates/{currency}",
		"GET /api/v1/projects/{id}/config",
		"PUT /api/v1/projects/{id}/config",
		"GET /api/v1/projects/{id}/consolidation",
		"POST /api/v1/projects/{id}/reconciliation",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		AccountHandler:        handler.NewAccountHandler(&stubAccountService{}, &stubBalanceService{}),
		EntryHandler:          handler.NewEntryHandler(&stubEntryService{}),
		ConversionHandler:     handler.NewConversionHandler(&stubConversionService{}),
		RateHandler:           handler.NewRateHandler(&stubRateSource{}),
		ProjectHandler:        handler.NewProjectHandler(&stubPolicyService{}, &stubConsolidationService{}),
		ReconciliationHandler: handler.NewReconciliationHandler(&stubReconciliationService{}),
		HealthHandler:         handler.NewHealthHandler(nil, nil),
		Logger:                zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubAccountService struct{}

func (s *stubAccountService) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return &domain.Account{ID: "A1", ProjectID: input.ProjectID, Currency: input.Currency}, nil
}

func (s *stubAccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return &domain.Account{ID: id, Currency: domain.USD}, nil
}

func (s *stubAccountService) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return nil, nil
}

type stubBalanceService struct{}

func (s *stubBalanceService) DeriveBalance(ctx context.Context, accountID string) (*domain.DerivedBalance, error) {
	return &domain.DerivedBalance{AccountID: accountID, Currency: domain.USD, Breakdown: domain.BalanceBreakdown{}}, nil
}

type stubEntryService struct{}

func (s *stubEntryService) PostEntry(ctx context.Context, input usecase.PostEntryInput) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: "E1", AccountID: input.AccountID}, nil
}

func (s *stubEntryService) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: id}, nil
}

func (s *stubEntryService) ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.LedgerEntry, error) {
	return nil, nil
}

type stubConversionService struct{}

func (s *stubConversionService) Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency) usecase.ConversionResult {
	return usecase.ConversionResult{Amount: amount, Convertible: true}
}

func (s *stubConversionService) CreateSnapshot(ctx context.Context, input usecase.CreateSnapshotInput) (*domain.ConversionSnapshot, error) {
	return &domain.ConversionSnapshot{ID: "S1", Convertible: true}, nil
}

func (s *stubConversionService) GetSnapshot(ctx context.Context, id string) (*domain.ConversionSnapshot, error) {
	return &domain.ConversionSnapshot{ID: id}, nil
}

type stubRateSource struct{}

func (s *stubRateSource) RateToBase(ctx context.Context, currency domain.Currency) usecase.ResolvedRate {
	return usecase.ResolvedRate{
		Rate: domain.Rate{
			Currency:  currency,
			ToBase:    decimal.NewFromInt(1),
			Source:    domain.RateSourceMarket,
			FetchedAt: time.Now(),
		},
		Known: true,
	}
}

type stubPolicyService struct{}

func (s *stubPolicyService) GetConfig(ctx context.Context, projectID string) (*domain.ProjectCurrencyConfig, error) {
	return &domain.ProjectCurrencyConfig{ProjectID: projectID, ConsolidationCurrency: domain.USD, RateSource: domain.RateSourceMarket}, nil
}

func (s *stubPolicyService) SetConfig(ctx context.Context, cfg *domain.ProjectCurrencyConfig) error {
	return nil
}

type stubConsolidationService struct{}

func (s *stubConsolidationService) ProjectBalances(ctx context.Context, projectID string, rc usecase.RateContext) (*usecase.ConsolidationReport, error) {
	return &usecase.ConsolidationReport{ProjectID: projectID, ConsolidationCurrency: domain.USD}, nil
}

type stubReconciliationService struct{}

func (s *stubReconciliationService) CheckAccount(ctx context.Context, accountID string) (*domain.DiscrepancyRecord, error) {
	return &domain.DiscrepancyRecord{AccountID: accountID}, nil
}

func (s *stubReconciliationService) ApplyFix(ctx context.Context, accountID string, expectedCanonical decimal.Decimal) (*usecase.FixResult, error) {
	return &usecase.FixResult{Record: &domain.DiscrepancyRecord{AccountID: accountID}}, nil
}

func (s *stubReconciliationService) ReconcileProject(ctx context.Context, projectID string, apply bool) (*usecase.ReconciliationReport, error) {
	return &usecase.ReconciliationReport{ProjectID: projectID, DryRun: !apply}, nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
