package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
)

// SnapshotRepository implements usecase.SnapshotRepository. Snapshots are
// write-once; this repository has insert and read only.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Create persists a conversion snapshot.
func (r *SnapshotRepository) Create(ctx context.Context, snapshot *domain.ConversionSnapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversion_snapshots
			(id, source_currency, source_amount, source_rate_to_base,
			 target_currency, target_amount, target_rate_to_base,
			 reference_amount_in_base, convertible, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		snapshot.ID,
		snapshot.SourceCurrency.String(),
		snapshot.SourceAmount.String(),
		snapshot.SourceRateToBase.String(),
		snapshot.TargetCurrency.String(),
		snapshot.TargetAmount.String(),
		snapshot.TargetRateToBase.String(),
		snapshot.ReferenceAmountInBase.String(),
		snapshot.Convertible,
		snapshot.ComputedAt,
	)

	return err
}

// GetByID retrieves a snapshot by ID.
func (r *SnapshotRepository) GetByID(ctx context.Context, id string) (*domain.ConversionSnapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, source_currency, source_amount::text, source_rate_to_base::text,
		       target_currency, target_amount::text, target_rate_to_base::text,
		       reference_amount_in_base::text, convertible, computed_at
		FROM conversion_snapshots
		WHERE id = $1`, id)

	var (
		s                                          domain.ConversionSnapshot
		sourceCurrency, targetCurrency             string
		sourceAmount, sourceRate                   string
		targetAmount, targetRate, referenceInsBase string
	)

	err := row.Scan(
		&s.ID,
		&sourceCurrency,
		&sourceAmount,
		&sourceRate,
		&targetCurrency,
		&targetAmount,
		&targetRate,
		&referenceInsBase,
		&s.Convertible,
		&s.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}

		return nil, err
	}

	s.SourceCurrency = domain.Currency(sourceCurrency)
	s.TargetCurrency = domain.Currency(targetCurrency)

	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&s.SourceAmount, sourceAmount},
		{&s.SourceRateToBase, sourceRate},
		{&s.TargetAmount, targetAmount},
		{&s.TargetRateToBase, targetRate},
		{&s.ReferenceAmountInBase, referenceInsBase},
	} {
		*f.dst, err = decimal.NewFromString(f.src)
		if err != nil {
			return nil, err
		}
	}

	return &s, nil
}
