package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/infrastructure/metrics"
)

// ConsolidationUseCase rolls heterogeneous-currency values into a project's
// consolidation currency for live reporting. It uses current rates under the
// project policy, never historical snapshots: native per-currency totals are
// exact, the consolidated total is an approximation subject to rate movement.
type ConsolidationUseCase struct {
	policy      *PolicyUseCase
	rates       RateSource
	accountRepo AccountRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewConsolidationUseCase creates a new ConsolidationUseCase.
func NewConsolidationUseCase(policy *PolicyUseCase, rates RateSource, accountRepo AccountRepository, logger zerolog.Logger) *ConsolidationUseCase {
	return &ConsolidationUseCase{
		policy:      policy,
		rates:       rates,
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// UseMetrics attaches consolidation instrumentation.
func (uc *ConsolidationUseCase) UseMetrics(m *metrics.Metrics) {
	uc.metrics = m
}

// CurrencyGroup is one currency's exact native total plus its converted
// contribution to the consolidated figure.
type CurrencyGroup struct {
	Currency    domain.Currency
	NativeTotal decimal.Decimal
	Converted   decimal.Decimal
	Convertible bool
}

// ConsolidationReport is the per-currency breakdown plus the approximate
// grand total in the project's consolidation currency.
type ConsolidationReport struct {
	ProjectID             string
	ConsolidationCurrency domain.Currency
	RateSource            domain.RateSource
	Groups                []CurrencyGroup
	GrandTotal            decimal.Decimal
	Approximate           bool
	ComputedAt            time.Time
}

// Aggregate groups the given values by currency and converts each group's
// total into the project's consolidation currency with current rates.
func (uc *ConsolidationUseCase) Aggregate(ctx context.Context, projectID string, values []domain.Money, rc RateContext) (*ConsolidationReport, error) {
	start := time.Now()

	cfg, err := uc.policy.GetConfig(ctx, projectID)
	if err != nil {
		return nil, err
	}

	consolRate := uc.policy.EffectiveRate(ctx, cfg, rc)

	totals := make(map[domain.Currency]decimal.Decimal)
	for _, v := range values {
		totals[v.Currency] = totals[v.Currency].Add(v.Amount)
	}

	currencies := make([]domain.Currency, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

	report := &ConsolidationReport{
		ProjectID:             projectID,
		ConsolidationCurrency: cfg.ConsolidationCurrency,
		RateSource:            consolRate.Source,
		GrandTotal:            decimal.Zero,
		ComputedAt:            time.Now().UTC(),
	}

	for _, currency := range currencies {
		native := totals[currency]
		group := CurrencyGroup{Currency: currency, NativeTotal: native}

		switch {
		case currency.RoutingCurrency() == cfg.ConsolidationCurrency.RoutingCurrency():
			group.Converted = native
			group.Convertible = true
		default:
			rate := uc.rates.RateToBase(ctx, currency)
			group.Convertible = rate.Known
			group.Converted = native.Mul(rate.ToBase).Div(consolRate.ToBase)

			// Any cross-currency conversion makes the grand total an
			// estimate against current-rate movement.
			report.Approximate = true
		}

		report.GrandTotal = report.GrandTotal.Add(group.Converted.Round(cfg.ConsolidationCurrency.MinorUnits()))
		report.Groups = append(report.Groups, group)
	}

	if uc.metrics != nil {
		uc.metrics.ConsolidationRuns.Inc()
		uc.metrics.ConsolidationDuration.Observe(time.Since(start).Seconds())
	}

	return report, nil
}

// ProjectBalances consolidates the stored balances of every account in a
// project, for dashboard figures.
func (uc *ConsolidationUseCase) ProjectBalances(ctx context.Context, projectID string, rc RateContext) (*ConsolidationReport, error) {
	var values []domain.Money

	offset := 0
	for {
		accounts, err := uc.accountRepo.ListByProject(ctx, projectID, reconcileScanPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, a := range accounts {
			values = append(values, domain.Money{Amount: a.StoredBalance, Currency: a.Currency})
		}

		if len(accounts) < reconcileScanPageSize {
			break
		}

		offset += reconcileScanPageSize
	}

	return uc.Aggregate(ctx, projectID, values, rc)
}
