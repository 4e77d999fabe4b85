package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerEntry_SignedAmount(t *testing.T) {
	tests := []struct {
		name   string
		kind   EntryKind
		amount decimal.Decimal
		want   decimal.Decimal
	}{
		{
			name:   "deposit is positive",
			kind:   EntryDeposit,
			amount: decimal.NewFromInt(1000),
			want:   decimal.NewFromInt(1000),
		},
		{
			name:   "withdrawal is negative",
			kind:   EntryWithdrawal,
			amount: decimal.NewFromInt(200),
			want:   decimal.NewFromInt(-200),
		},
		{
			name:   "transfer out is negative",
			kind:   EntryTransferOut,
			amount: decimal.NewFromInt(75),
			want:   decimal.NewFromInt(-75),
		},
		{
			name:   "wager loss is negative even when recorded as magnitude",
			kind:   EntryWagerLoss,
			amount: decimal.NewFromInt(300),
			want:   decimal.NewFromInt(-300),
		},
		{
			name:   "wager loss recorded signed stays negative",
			kind:   EntryWagerLoss,
			amount: decimal.NewFromInt(-300),
			want:   decimal.NewFromInt(-300),
		},
		{
			name:   "cashback is positive",
			kind:   EntryCashback,
			amount: decimal.NewFromInt(50),
			want:   decimal.NewFromInt(50),
		},
		{
			name:   "positive adjustment keeps its sign",
			kind:   EntryAdjustment,
			amount: decimal.NewFromInt(25),
			want:   decimal.NewFromInt(25),
		},
		{
			name:   "negative adjustment keeps its sign",
			kind:   EntryAdjustment,
			amount: decimal.NewFromInt(-25),
			want:   decimal.NewFromInt(-25),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &LedgerEntry{Kind: tt.kind, Amount: tt.amount}

			if got := e.SignedAmount(); !got.Equal(tt.want) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestLedgerEntry_Validate(t *testing.T) {
	tests := []struct {
		name      string
		entry     LedgerEntry
		errorType error
	}{
		{
			name:  "valid deposit",
			entry: LedgerEntry{Kind: EntryDeposit, Amount: decimal.NewFromInt(100), Currency: BRL},
		},
		{
			name:      "unknown kind",
			entry:     LedgerEntry{Kind: "rebate", Amount: decimal.NewFromInt(100), Currency: BRL},
			errorType: ErrInvalidEntryKind,
		},
		{
			name:      "zero amount",
			entry:     LedgerEntry{Kind: EntryDeposit, Amount: decimal.Zero, Currency: BRL},
			errorType: ErrInvalidAmount,
		},
		{
			name:      "negative non-adjustment amount",
			entry:     LedgerEntry{Kind: EntryDeposit, Amount: decimal.NewFromInt(-10), Currency: BRL},
			errorType: ErrInvalidAmount,
		},
		{
			name:  "negative adjustment is allowed",
			entry: LedgerEntry{Kind: EntryAdjustment, Amount: decimal.NewFromInt(-10), Currency: BRL},
		},
		{
			name:      "unsupported currency",
			entry:     LedgerEntry{Kind: EntryDeposit, Amount: decimal.NewFromInt(100), Currency: "XYZ"},
			errorType: ErrUnsupportedCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()

			if tt.errorType == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.errorType != nil && err != tt.errorType {
				t.Errorf("expected error %v, got %v", tt.errorType, err)
			}
		})
	}
}
