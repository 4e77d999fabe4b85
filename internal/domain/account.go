package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a balance-holding account in its native currency. StoredBalance
// is an incrementally maintained cache; the canonical balance is always
// derivable by replaying the account's ledger entries.
type Account struct {
	ID            string
	ProjectID     string
	Name          string
	Currency      Currency
	StoredBalance decimal.Decimal
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ApplyEntry returns the stored balance after an entry is committed.
func (a *Account) ApplyEntry(e *LedgerEntry) decimal.Decimal {
	return a.StoredBalance.Add(e.SignedAmount())
}
