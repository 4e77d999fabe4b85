package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalancePrecision is the decimal precision used for balance comparison.
const BalancePrecision = 2

// DiscrepancyTolerance is the maximum |stored - canonical| difference, after
// rounding to BalancePrecision, that still counts as consistent.
var DiscrepancyTolerance = decimal.New(1, -2) // 0.01

// BalanceBreakdown is a per-kind decomposition of a derived balance.
type BalanceBreakdown map[EntryKind]decimal.Decimal

// DerivedBalance is the result of replaying an account's full ledger history.
type DerivedBalance struct {
	AccountID  string
	Currency   Currency
	Total      decimal.Decimal
	Breakdown  BalanceBreakdown
	EntryCount int
	LastEntry  time.Time
}

// DiscrepancyRecord compares an account's stored balance against its
// canonical, ledger-derived value. Delta is stored minus canonical.
type DiscrepancyRecord struct {
	AccountID        string
	Currency         Currency
	StoredBalance    decimal.Decimal
	CanonicalBalance decimal.Decimal
	Delta            decimal.Decimal
	Breakdown        BalanceBreakdown
	Flagged          bool
	CheckedAt        time.Time
}

// NewDiscrepancyRecord builds a record from a stored balance and a derived
// balance, applying the fixed tolerance.
func NewDiscrepancyRecord(account *Account, derived *DerivedBalance, checkedAt time.Time) *DiscrepancyRecord {
	stored := account.StoredBalance.Round(BalancePrecision)
	canonical := derived.Total.Round(BalancePrecision)
	delta := stored.Sub(canonical)

	return &DiscrepancyRecord{
		AccountID:        account.ID,
		Currency:         account.Currency,
		StoredBalance:    stored,
		CanonicalBalance: canonical,
		Delta:            delta,
		Breakdown:        derived.Breakdown,
		Flagged:          delta.Abs().GreaterThan(DiscrepancyTolerance),
		CheckedAt:        checkedAt,
	}
}
