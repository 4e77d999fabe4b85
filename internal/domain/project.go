package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectCurrencyConfig is the single source of truth for how a project's
// money is aggregated: the consolidation currency every cross-account figure
// is expressed in, and which rate source is active. No consumer picks its own
// default.
type ProjectCurrencyConfig struct {
	ProjectID             string
	ConsolidationCurrency Currency
	RateSource            RateSource
	ManualRate            decimal.Decimal // base units per consolidation-currency unit
	HasManualRate         bool
	UpdatedAt             time.Time
}

// Validate checks config invariants.
func (c *ProjectCurrencyConfig) Validate() error {
	if !c.ConsolidationCurrency.Supported() {
		return ErrUnsupportedCurrency
	}
	if c.RateSource == RateSourceManual && !c.HasManualRate {
		return ErrManualRateRequired
	}

	// A manual rate divides consolidation totals, whichever source is
	// active, so it must be positive whenever it is present.
	if c.HasManualRate && c.ManualRate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidManualRate
	}

	return nil
}
