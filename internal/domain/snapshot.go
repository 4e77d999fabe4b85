package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConversionSnapshot records the inputs and outputs of a currency conversion
// at the moment a transaction occurred. Snapshots are write-once: display and
// audit always read the snapshot, never live rates, for that transaction.
type ConversionSnapshot struct {
	ID                    string
	SourceCurrency        Currency
	SourceAmount          decimal.Decimal
	SourceRateToBase      decimal.Decimal
	TargetCurrency        Currency
	TargetAmount          decimal.Decimal
	TargetRateToBase      decimal.Decimal
	ReferenceAmountInBase decimal.Decimal
	Convertible           bool
	ComputedAt            time.Time
}

// ImpliedRate returns the effective source->target rate captured by the
// snapshot, useful when an operator-confirmed target amount differs from the
// rate-derived estimate.
func (s *ConversionSnapshot) ImpliedRate() decimal.Decimal {
	if s.SourceAmount.IsZero() {
		return decimal.Zero
	}

	return s.TargetAmount.Div(s.SourceAmount)
}
