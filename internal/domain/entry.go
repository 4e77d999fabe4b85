package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry by the event that produced it.
type EntryKind string

const (
	EntryDeposit     EntryKind = "deposit"
	EntryWithdrawal  EntryKind = "withdrawal"
	EntryTransferIn  EntryKind = "transferIn"
	EntryTransferOut EntryKind = "transferOut"
	EntryWagerProfit EntryKind = "wagerProfit"
	EntryWagerLoss   EntryKind = "wagerLoss"
	EntryCashback    EntryKind = "cashback"
	EntryPromoCredit EntryKind = "promoCredit"
	EntryAdjustment  EntryKind = "adjustment"
)

var entrySigns = map[EntryKind]int{
	EntryDeposit:     1,
	EntryWithdrawal:  -1,
	EntryTransferIn:  1,
	EntryTransferOut: -1,
	EntryWagerProfit: 1,
	EntryWagerLoss:   -1,
	EntryCashback:    1,
	EntryPromoCredit: 1,
	EntryAdjustment:  1, // adjustments carry their own sign in Amount
}

// Valid reports whether the kind is one of the known entry kinds.
func (k EntryKind) Valid() bool {
	_, ok := entrySigns[k]
	return ok
}

// Sign returns the direction the kind applies to a balance.
func (k EntryKind) Sign() int {
	return entrySigns[k]
}

// LedgerEntry is one immutable balance-affecting event on an account.
// Entries are append-only; corrections are new adjustment entries that
// reference their cause via ReferenceID, never edits or deletes.
type LedgerEntry struct {
	ID          string
	AccountID   string
	ProjectID   string
	Kind        EntryKind
	Amount      decimal.Decimal // magnitude; adjustments may be signed
	Currency    Currency
	SnapshotID  string // set when the entry settled through a conversion
	ReferenceID string
	OccurredAt  time.Time
	CreatedAt   time.Time
}

// SignedAmount returns the amount with the kind's sign applied. Adjustment
// entries keep the sign they were recorded with.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Kind == EntryAdjustment {
		return e.Amount
	}
	if e.Kind.Sign() < 0 {
		return e.Amount.Abs().Neg()
	}

	return e.Amount.Abs()
}

// Validate checks entry invariants before it is committed.
func (e *LedgerEntry) Validate() error {
	if !e.Kind.Valid() {
		return ErrInvalidEntryKind
	}
	if e.Kind != EntryAdjustment && e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !e.Currency.Supported() {
		return ErrUnsupportedCurrency
	}

	return nil
}
