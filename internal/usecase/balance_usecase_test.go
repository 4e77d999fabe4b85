package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
	"github.com/betops/settlecore/internal/usecase/mocks"
)

func brlAccount(id string) *domain.Account {
	return &domain.Account{
		ID:        id,
		ProjectID: "proj-1",
		Currency:  domain.BRL,
		Version:   1,
	}
}

func brlEntry(id, accountID string, kind domain.EntryKind, amount int64) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:        id,
		AccountID: accountID,
		ProjectID: "proj-1",
		Kind:      kind,
		Amount:    decimal.NewFromInt(amount),
		Currency:  domain.BRL,
	}
}

func TestBalanceUseCase_DeriveBalance(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	accountRepo.Seed(brlAccount("acc-1"))

	entryRepo := mocks.NewMockEntryRepository()
	entryRepo.Seed(
		brlEntry("e1", "acc-1", domain.EntryDeposit, 1000),
		brlEntry("e2", "acc-1", domain.EntryWagerLoss, 300),
		brlEntry("e3", "acc-1", domain.EntryCashback, 50),
	)

	uc := usecase.NewBalanceUseCase(accountRepo, entryRepo)

	derived, err := uc.DeriveBalance(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !derived.Total.Equal(decimal.NewFromInt(750)) {
		t.Errorf("expected canonical balance 750, got %s", derived.Total)
	}

	if derived.EntryCount != 3 {
		t.Errorf("expected 3 entries, got %d", derived.EntryCount)
	}

	breakdown := map[domain.EntryKind]int64{
		domain.EntryDeposit:   1000,
		domain.EntryWagerLoss: -300,
		domain.EntryCashback:  50,
	}
	for kind, want := range breakdown {
		if got := derived.Breakdown[kind]; !got.Equal(decimal.NewFromInt(want)) {
			t.Errorf("breakdown[%s]: expected %d, got %s", kind, want, got)
		}
	}
}

func TestBalanceUseCase_OrderInvariant(t *testing.T) {
	entries := []*domain.LedgerEntry{
		brlEntry("e1", "acc-1", domain.EntryDeposit, 1000),
		brlEntry("e2", "acc-1", domain.EntryWithdrawal, 400),
		brlEntry("e3", "acc-1", domain.EntryWagerProfit, 120),
		brlEntry("e4", "acc-1", domain.EntryTransferOut, 55),
		brlEntry("e5", "acc-1", domain.EntryPromoCredit, 30),
	}

	account := brlAccount("acc-1")

	forward, err := usecase.ReplayEntries(account, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reversed := make([]*domain.LedgerEntry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}

	backward, err := usecase.ReplayEntries(account, reversed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !forward.Total.Equal(backward.Total) {
		t.Errorf("canonical balance must be order invariant: %s vs %s", forward.Total, backward.Total)
	}
}

func TestBalanceUseCase_Idempotent(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	accountRepo.Seed(brlAccount("acc-1"))

	entryRepo := mocks.NewMockEntryRepository()
	entryRepo.Seed(
		brlEntry("e1", "acc-1", domain.EntryDeposit, 800),
		brlEntry("e2", "acc-1", domain.EntryWagerLoss, 100),
	)

	uc := usecase.NewBalanceUseCase(accountRepo, entryRepo)
	ctx := context.Background()

	first, err := uc.DeriveBalance(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := uc.DeriveBalance(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.Total.Equal(second.Total) || first.EntryCount != second.EntryCount {
		t.Errorf("replaying the same history twice must yield identical results")
	}
}

func TestBalanceUseCase_RejectsForeignCurrencyEntry(t *testing.T) {
	account := brlAccount("acc-1")
	entries := []*domain.LedgerEntry{
		brlEntry("e1", "acc-1", domain.EntryDeposit, 100),
		{ID: "e2", AccountID: "acc-1", Kind: domain.EntryDeposit, Amount: decimal.NewFromInt(10), Currency: domain.USD},
	}

	_, err := usecase.ReplayEntries(account, entries)
	if err == nil {
		t.Fatal("expected currency mismatch error, got nil")
	}
}

func TestBalanceUseCase_PagesThroughLongHistory(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	accountRepo.Seed(brlAccount("acc-1"))

	entryRepo := mocks.NewMockEntryRepository()
	for i := 0; i < 2500; i++ {
		e := brlEntry("", "acc-1", domain.EntryDeposit, 1)
		e.OccurredAt = time.Now().UTC()
		entryRepo.Seed(e)
	}

	uc := usecase.NewBalanceUseCase(accountRepo, entryRepo)

	derived, err := uc.DeriveBalance(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !derived.Total.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("expected 2500 across pages, got %s", derived.Total)
	}
}
