package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSource identifies where a rate came from.
type RateSource string

const (
	RateSourceMarket RateSource = "MARKET"
	RateSourceManual RateSource = "MANUAL"
)

// Rate is an exchange rate of one currency against the base currency,
// expressed as base units per one unit of the currency.
type Rate struct {
	Currency  Currency
	ToBase    decimal.Decimal
	Source    RateSource
	FetchedAt time.Time
}
