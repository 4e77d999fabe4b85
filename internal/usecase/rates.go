package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
)

// RateFeed fetches the current rate of a currency against the base currency,
// expressed as base units per one unit of the currency. Implementations talk
// to an external feed and may fail or return stale data.
type RateFeed interface {
	FetchRateToBase(ctx context.Context, currency domain.Currency) (decimal.Decimal, error)
}

// RateCache stores the last successfully fetched rate per currency. Entries
// are never evicted by the resolver: a stale rate is the fallback when the
// feed is down.
type RateCache interface {
	// Get returns the cached rate, or domain.ErrRateUnavailable when the
	// currency has never been cached.
	Get(ctx context.Context, currency domain.Currency) (domain.Rate, error)
	Set(ctx context.Context, rate domain.Rate) error
}
