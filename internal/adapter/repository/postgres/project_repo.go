package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
)

// ProjectConfigRepository implements usecase.ProjectConfigRepository.
type ProjectConfigRepository struct {
	pool *pgxpool.Pool
}

// NewProjectConfigRepository creates a new ProjectConfigRepository.
func NewProjectConfigRepository(pool *pgxpool.Pool) *ProjectConfigRepository {
	return &ProjectConfigRepository{pool: pool}
}

// Get returns the project's currency config.
func (r *ProjectConfigRepository) Get(ctx context.Context, projectID string) (*domain.ProjectCurrencyConfig, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT project_id, consolidation_currency, rate_source, manual_rate::text, updated_at
		FROM project_currency_configs
		WHERE project_id = $1`, projectID)

	var (
		cfg        domain.ProjectCurrencyConfig
		currency   string
		source     string
		manualRate *string
	)

	err := row.Scan(&cfg.ProjectID, &currency, &source, &manualRate, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectConfigNotFound
		}

		return nil, err
	}

	cfg.ConsolidationCurrency = domain.Currency(currency)
	cfg.RateSource = domain.RateSource(source)

	if manualRate != nil {
		cfg.ManualRate, err = decimal.NewFromString(*manualRate)
		if err != nil {
			return nil, err
		}

		cfg.HasManualRate = true
	}

	return &cfg, nil
}

// Upsert stores a project's currency config.
func (r *ProjectConfigRepository) Upsert(ctx context.Context, cfg *domain.ProjectCurrencyConfig) error {
	var manualRate *string
	if cfg.HasManualRate {
		s := cfg.ManualRate.String()
		manualRate = &s
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO project_currency_configs (project_id, consolidation_currency, rate_source, manual_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id) DO UPDATE
		SET consolidation_currency = EXCLUDED.consolidation_currency,
		    rate_source = EXCLUDED.rate_source,
		    manual_rate = EXCLUDED.manual_rate,
		    updated_at = EXCLUDED.updated_at`,
		cfg.ProjectID,
		cfg.ConsolidationCurrency.String(),
		string(cfg.RateSource),
		manualRate,
		cfg.UpdatedAt,
	)

	return err
}
