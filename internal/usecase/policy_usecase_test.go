package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
	"github.com/betops/settlecore/internal/usecase/mocks"
)

func seedProject(t *testing.T, repo *mocks.MockProjectConfigRepository, cfg domain.ProjectCurrencyConfig) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), &cfg))
}

func TestPolicyUseCase_SetConfigValidates(t *testing.T) {
	repo := mocks.NewMockProjectConfigRepository()
	uc := usecase.NewPolicyUseCase(repo, mocks.NewMockRateSource(), zerolog.Nop())

	err := uc.SetConfig(context.Background(), &domain.ProjectCurrencyConfig{
		ProjectID:             "proj-1",
		ConsolidationCurrency: domain.Currency("XYZ"),
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)

	err = uc.SetConfig(context.Background(), &domain.ProjectCurrencyConfig{
		ProjectID:             "proj-1",
		ConsolidationCurrency: domain.BRL,
		RateSource:            domain.RateSourceManual,
	})
	assert.ErrorIs(t, err, domain.ErrManualRateRequired)

	// A zero working rate must be rejected even when market is the active
	// source: forward planning would otherwise divide by it later.
	err = uc.SetConfig(context.Background(), &domain.ProjectCurrencyConfig{
		ProjectID:             "proj-1",
		ConsolidationCurrency: domain.BRL,
		RateSource:            domain.RateSourceMarket,
		ManualRate:            decimal.Zero,
		HasManualRate:         true,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidManualRate)
}

func TestPolicyUseCase_ConsolidationRate(t *testing.T) {
	ctx := context.Background()

	t.Run("market source uses live rate", func(t *testing.T) {
		repo := mocks.NewMockProjectConfigRepository()
		seedProject(t, repo, domain.ProjectCurrencyConfig{
			ProjectID:             "proj-1",
			ConsolidationCurrency: domain.BRL,
			RateSource:            domain.RateSourceMarket,
			ManualRate:            decimal.RequireFromString("0.20"),
			HasManualRate:         true,
		})

		rates := mocks.NewMockRateSource()
		rates.SetRate(domain.BRL, decimal.RequireFromString("0.19"))

		uc := usecase.NewPolicyUseCase(repo, rates, zerolog.Nop())

		rate, err := uc.ConsolidationRate(ctx, "proj-1", usecase.RateContext{})
		require.NoError(t, err)

		assert.Equal(t, domain.RateSourceMarket, rate.Source)
		assert.Equal(t, "0.19", rate.ToBase.String())
	})

	t.Run("manual rate is fallback when market unavailable", func(t *testing.T) {
		repo := mocks.NewMockProjectConfigRepository()
		seedProject(t, repo, domain.ProjectCurrencyConfig{
			ProjectID:             "proj-1",
			ConsolidationCurrency: domain.BRL,
			RateSource:            domain.RateSourceMarket,
			ManualRate:            decimal.RequireFromString("0.20"),
			HasManualRate:         true,
		})

		// Rate source with no BRL rate: market feed unavailable.
		uc := usecase.NewPolicyUseCase(repo, mocks.NewMockRateSource(), zerolog.Nop())

		rate, err := uc.ConsolidationRate(ctx, "proj-1", usecase.RateContext{})
		require.NoError(t, err)

		assert.Equal(t, domain.RateSourceManual, rate.Source)
		assert.Equal(t, "0.2", rate.ToBase.String())
	})

	t.Run("forward planning declares manual intent explicitly", func(t *testing.T) {
		repo := mocks.NewMockProjectConfigRepository()
		seedProject(t, repo, domain.ProjectCurrencyConfig{
			ProjectID:             "proj-1",
			ConsolidationCurrency: domain.BRL,
			RateSource:            domain.RateSourceMarket,
			ManualRate:            decimal.RequireFromString("0.20"),
			HasManualRate:         true,
		})

		rates := mocks.NewMockRateSource()
		rates.SetRate(domain.BRL, decimal.RequireFromString("0.19"))

		uc := usecase.NewPolicyUseCase(repo, rates, zerolog.Nop())

		rate, err := uc.ConsolidationRate(ctx, "proj-1", usecase.RateContext{ForwardPlanning: true})
		require.NoError(t, err)

		assert.Equal(t, domain.RateSourceManual, rate.Source,
			"forward planning must use the working rate even when market is available")
	})

	t.Run("manual active source wins over market", func(t *testing.T) {
		repo := mocks.NewMockProjectConfigRepository()
		seedProject(t, repo, domain.ProjectCurrencyConfig{
			ProjectID:             "proj-1",
			ConsolidationCurrency: domain.BRL,
			RateSource:            domain.RateSourceManual,
			ManualRate:            decimal.RequireFromString("0.21"),
			HasManualRate:         true,
		})

		rates := mocks.NewMockRateSource()
		rates.SetRate(domain.BRL, decimal.RequireFromString("0.19"))

		uc := usecase.NewPolicyUseCase(repo, rates, zerolog.Nop())

		rate, err := uc.ConsolidationRate(ctx, "proj-1", usecase.RateContext{})
		require.NoError(t, err)

		assert.Equal(t, domain.RateSourceManual, rate.Source)
		assert.Equal(t, "0.21", rate.ToBase.String())
	})

	t.Run("zero manual rate on file is treated as absent", func(t *testing.T) {
		// Rows written before the positivity check may still carry a zero
		// working rate. Forward planning must fall back to market instead
		// of handing an unusable rate to consolidation math.
		repo := mocks.NewMockProjectConfigRepository()
		seedProject(t, repo, domain.ProjectCurrencyConfig{
			ProjectID:             "proj-1",
			ConsolidationCurrency: domain.BRL,
			RateSource:            domain.RateSourceMarket,
			ManualRate:            decimal.Zero,
			HasManualRate:         true,
		})

		rates := mocks.NewMockRateSource()
		rates.SetRate(domain.BRL, decimal.RequireFromString("0.19"))

		uc := usecase.NewPolicyUseCase(repo, rates, zerolog.Nop())

		rate, err := uc.ConsolidationRate(ctx, "proj-1", usecase.RateContext{ForwardPlanning: true})
		require.NoError(t, err)

		assert.Equal(t, domain.RateSourceMarket, rate.Source)
		assert.True(t, rate.ToBase.IsPositive(), "effective rate must never be zero, got %s", rate.ToBase)
	})

	t.Run("unknown project", func(t *testing.T) {
		uc := usecase.NewPolicyUseCase(mocks.NewMockProjectConfigRepository(), mocks.NewMockRateSource(), zerolog.Nop())

		_, err := uc.ConsolidationRate(ctx, "nope", usecase.RateContext{})
		assert.ErrorIs(t, err, domain.ErrProjectConfigNotFound)
	})
}
