package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/betops/settlecore/internal/domain"
)

// PolicyUseCase resolves, per project, the consolidation currency and the
// active rate source. All cross-account aggregation goes through it; no
// consumer picks its own default currency or fallback chain.
type PolicyUseCase struct {
	projectRepo ProjectConfigRepository
	rates       RateSource
	logger      zerolog.Logger
}

// NewPolicyUseCase creates a new PolicyUseCase.
func NewPolicyUseCase(projectRepo ProjectConfigRepository, rates RateSource, logger zerolog.Logger) *PolicyUseCase {
	return &PolicyUseCase{
		projectRepo: projectRepo,
		rates:       rates,
		logger:      logger,
	}
}

// GetConfig returns the project's currency config.
func (uc *PolicyUseCase) GetConfig(ctx context.Context, projectID string) (*domain.ProjectCurrencyConfig, error) {
	return uc.projectRepo.Get(ctx, projectID)
}

// SetConfig validates and stores a project's currency config.
func (uc *PolicyUseCase) SetConfig(ctx context.Context, cfg *domain.ProjectCurrencyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	cfg.UpdatedAt = time.Now().UTC()

	return uc.projectRepo.Upsert(ctx, cfg)
}

// RateContext states the caller's intent. Forward-planning contexts must
// declare themselves explicitly; the manual ("working") rate is never
// inferred from an absence of data alone.
type RateContext struct {
	ForwardPlanning bool
}

// ConsolidationRate returns the effective rate-to-base of the project's
// consolidation currency. Precedence: the market rate is primary; the manual
// rate applies only when the market feed is unavailable, or when the project
// declares manual as its active source, or in an explicit forward-planning
// context.
func (uc *PolicyUseCase) ConsolidationRate(ctx context.Context, projectID string, rc RateContext) (domain.Rate, error) {
	cfg, err := uc.projectRepo.Get(ctx, projectID)
	if err != nil {
		return domain.Rate{}, err
	}

	return uc.effectiveRate(ctx, cfg, rc), nil
}

// EffectiveRate resolves the rate-to-base of the consolidation currency for
// an already loaded config.
func (uc *PolicyUseCase) EffectiveRate(ctx context.Context, cfg *domain.ProjectCurrencyConfig, rc RateContext) domain.Rate {
	return uc.effectiveRate(ctx, cfg, rc)
}

func (uc *PolicyUseCase) effectiveRate(ctx context.Context, cfg *domain.ProjectCurrencyConfig, rc RateContext) domain.Rate {
	manual := domain.Rate{
		Currency:  cfg.ConsolidationCurrency,
		ToBase:    cfg.ManualRate,
		Source:    domain.RateSourceManual,
		FetchedAt: cfg.UpdatedAt,
	}

	// A non-positive manual rate on file is treated as absent: it cannot
	// price anything and must never reach a division.
	manualUsable := cfg.HasManualRate && cfg.ManualRate.IsPositive()

	if (rc.ForwardPlanning || cfg.RateSource == domain.RateSourceManual) && manualUsable {
		return manual
	}

	resolved := uc.rates.RateToBase(ctx, cfg.ConsolidationCurrency)
	if !resolved.Known && manualUsable {
		uc.logger.Warn().
			Str("project_id", cfg.ProjectID).
			Str("currency", cfg.ConsolidationCurrency.String()).
			Msg("market rate unavailable, falling back to manual rate")

		return manual
	}

	return resolved.Rate
}
