package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/infrastructure/metrics"
)

// RateSource resolves rates against the base currency. Implemented by
// RateResolver.
type RateSource interface {
	RateToBase(ctx context.Context, currency domain.Currency) ResolvedRate
}

// ConversionUseCase converts amounts between currencies by pivoting through
// the base currency and produces immutable conversion snapshots.
type ConversionUseCase struct {
	rates        RateSource
	snapshotRepo SnapshotRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewConversionUseCase creates a new ConversionUseCase.
func NewConversionUseCase(rates RateSource, snapshotRepo SnapshotRepository, idGen IDGenerator, logger zerolog.Logger) *ConversionUseCase {
	return &ConversionUseCase{
		rates:        rates,
		snapshotRepo: snapshotRepo,
		idGen:        idGen,
		logger:       logger,
	}
}

// UseMetrics attaches conversion instrumentation.
func (uc *ConversionUseCase) UseMetrics(m *metrics.Metrics) {
	uc.metrics = m
}

// ConversionResult is the outcome of a conversion. Convertible is false when
// a required rate was missing and the amount passed through unchanged.
type ConversionResult struct {
	Amount      decimal.Decimal
	FromRate    ResolvedRate
	ToRate      ResolvedRate
	Convertible bool
}

// Convert converts amount from one currency to another via the base pivot:
// amount * rateToBase(from) / rateToBase(to). Economically equivalent
// stablecoins short-circuit as identity for routing purposes only. A missing
// rate never fails the caller: the original amount is returned with
// Convertible=false.
func (uc *ConversionUseCase) Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency) ConversionResult {
	start := time.Now()
	result := uc.convert(ctx, amount, from, to)

	if uc.metrics != nil {
		uc.metrics.ConversionsTotal.
			WithLabelValues(from.String(), to.String(), strconv.FormatBool(result.Convertible)).Inc()
		uc.metrics.ConversionDuration.Observe(time.Since(start).Seconds())

		if !result.Convertible {
			uc.metrics.NonConvertibleTotal.Inc()
		}
	}

	return result
}

func (uc *ConversionUseCase) convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency) ConversionResult {
	if from.RoutingCurrency() == to.RoutingCurrency() {
		identity := uc.rates.RateToBase(ctx, from)

		return ConversionResult{
			Amount:      amount,
			FromRate:    identity,
			ToRate:      identity,
			Convertible: true,
		}
	}

	fromRate := uc.rates.RateToBase(ctx, from)
	toRate := uc.rates.RateToBase(ctx, to)

	if !fromRate.Known || !toRate.Known {
		uc.logger.Warn().
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("conversion unsupported, passing amount through unconverted")

		return ConversionResult{
			Amount:      amount,
			FromRate:    fromRate,
			ToRate:      toRate,
			Convertible: false,
		}
	}

	converted := amount.Mul(fromRate.ToBase).Div(toRate.ToBase)

	return ConversionResult{
		Amount:      converted,
		FromRate:    fromRate,
		ToRate:      toRate,
		Convertible: true,
	}
}

// CreateSnapshotInput holds the inputs of a conversion snapshot.
// ConfirmedTarget, when set, is a real-world credited amount that overrides
// the rate-derived estimate; the recorded rates still let audit recover the
// estimate.
type CreateSnapshotInput struct {
	Amount          decimal.Decimal
	From            domain.Currency
	To              domain.Currency
	ConfirmedTarget *decimal.Decimal
}

// CreateSnapshot converts and persists an immutable record of both rates, the
// target amount, and a base-currency reference amount, all captured at call
// time. The snapshot is never recomputed afterwards.
func (uc *ConversionUseCase) CreateSnapshot(ctx context.Context, input CreateSnapshotInput) (*domain.ConversionSnapshot, error) {
	result := uc.Convert(ctx, input.Amount, input.From, input.To)

	// Targets settle at the target currency's own scale; a crypto credit
	// lives below one cent. Non-convertible amounts pass through untouched.
	target := result.Amount
	if result.Convertible {
		target = target.Round(input.To.MinorUnits())
	}

	if input.ConfirmedTarget != nil {
		target = input.ConfirmedTarget.Round(input.To.MinorUnits())
	}

	snapshot := &domain.ConversionSnapshot{
		ID:                    uc.idGen.Generate(),
		SourceCurrency:        input.From,
		SourceAmount:          input.Amount,
		SourceRateToBase:      result.FromRate.ToBase,
		TargetCurrency:        input.To,
		TargetAmount:          target,
		TargetRateToBase:      result.ToRate.ToBase,
		ReferenceAmountInBase: input.Amount.Mul(result.FromRate.ToBase),
		Convertible:           result.Convertible,
		ComputedAt:            time.Now().UTC(),
	}

	if err := uc.snapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SnapshotsCreated.Inc()
	}

	return snapshot, nil
}

// GetSnapshot retrieves a snapshot by ID.
func (uc *ConversionUseCase) GetSnapshot(ctx context.Context, id string) (*domain.ConversionSnapshot, error) {
	return uc.snapshotRepo.GetByID(ctx, id)
}
