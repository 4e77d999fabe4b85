package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
)

// balanceReplayPageSize bounds memory during full-history replay.
const balanceReplayPageSize = 1000

// BalanceUseCase derives an account's canonical balance by replaying its full
// ledger history. The computation is pure and idempotent: the same history
// always yields the same total and per-kind breakdown, with no accumulated
// state between calls.
type BalanceUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(accountRepo AccountRepository, entryRepo EntryRepository) *BalanceUseCase {
	return &BalanceUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
	}
}

// DeriveBalance replays the full history of an account.
func (uc *BalanceUseCase) DeriveBalance(ctx context.Context, accountID string) (*domain.DerivedBalance, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	offset := 0

	var entries []*domain.LedgerEntry
	for {
		page, err := uc.entryRepo.ListByAccount(ctx, accountID, balanceReplayPageSize, offset)
		if err != nil {
			return nil, err
		}

		entries = append(entries, page...)
		if len(page) < balanceReplayPageSize {
			break
		}

		offset += balanceReplayPageSize
	}

	return ReplayEntries(account, entries)
}

// ReplayEntries computes the canonical balance of an account from a complete
// entry history. Every entry must already be settled in the account's native
// currency; cross-currency movements carry a same-currency amount via their
// conversion snapshot before they reach the ledger.
func ReplayEntries(account *domain.Account, entries []*domain.LedgerEntry) (*domain.DerivedBalance, error) {
	derived := &domain.DerivedBalance{
		AccountID: account.ID,
		Currency:  account.Currency,
		Total:     decimal.Zero,
		Breakdown: make(domain.BalanceBreakdown),
	}

	for _, e := range entries {
		if e.Currency != account.Currency {
			return nil, fmt.Errorf("entry %s in %s on %s account: %w",
				e.ID, e.Currency, account.Currency, domain.ErrCurrencyMismatch)
		}

		signed := e.SignedAmount()
		derived.Total = derived.Total.Add(signed)
		derived.Breakdown[e.Kind] = derived.Breakdown[e.Kind].Add(signed)
		derived.EntryCount++

		if e.OccurredAt.After(derived.LastEntry) {
			derived.LastEntry = e.OccurredAt
		}
	}

	return derived, nil
}
