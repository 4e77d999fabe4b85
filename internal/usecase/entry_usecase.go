package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/infrastructure/metrics"
)

// EntryUseCase records ledger entries. Each entry is an immutable, atomic
// balance movement; cross-currency entries settle through a conversion
// snapshot created at the moment of entry. Stored balances update under the
// account row lock with optimistic versioning, so concurrent writers against
// the same account serialize.
type EntryUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	auditRepo   AuditRepository
	conversion  *ConversionUseCase
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	auditRepo AuditRepository,
	conversion *ConversionUseCase,
	idGen IDGenerator,
	logger zerolog.Logger,
) *EntryUseCase {
	return &EntryUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		auditRepo:   auditRepo,
		conversion:  conversion,
		idGen:       idGen,
		logger:      logger,
	}
}

// UseMetrics attaches entry instrumentation.
func (uc *EntryUseCase) UseMetrics(m *metrics.Metrics) {
	uc.metrics = m
}

// PostEntryInput describes one movement to record. Currency may differ from
// the account's native currency; the entry is then settled through a
// conversion snapshot. ConfirmedTarget is an operator-confirmed credited
// amount overriding the rate-derived estimate.
type PostEntryInput struct {
	AccountID       string
	Kind            domain.EntryKind
	Amount          decimal.Decimal
	Currency        domain.Currency
	ReferenceID     string
	OccurredAt      *time.Time
	ConfirmedTarget *decimal.Decimal
}

// PostEntry validates, settles and commits a ledger entry, returning the
// committed entry. A missing exchange rate never blocks the post: the amount
// passes through unconverted with its snapshot marked non-convertible.
func (uc *EntryUseCase) PostEntry(ctx context.Context, input PostEntryInput) (*domain.LedgerEntry, error) {
	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	occurredAt := now
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}

	settledAmount := input.Amount
	snapshotID := ""

	// Settle cross-currency amounts before any lock is taken: the rate
	// fetch is network-bound and must never run inside the transaction.
	if input.Currency != account.Currency {
		snapshot, err := uc.conversion.CreateSnapshot(ctx, CreateSnapshotInput{
			Amount:          input.Amount.Abs(),
			From:            input.Currency,
			To:              account.Currency,
			ConfirmedTarget: input.ConfirmedTarget,
		})
		if err != nil {
			return nil, err
		}

		settledAmount = snapshot.TargetAmount
		if input.Amount.IsNegative() {
			settledAmount = settledAmount.Neg()
		}

		snapshotID = snapshot.ID
	}

	entry := &domain.LedgerEntry{
		ID:          uc.idGen.Generate(),
		AccountID:   account.ID,
		ProjectID:   account.ProjectID,
		Kind:        input.Kind,
		Amount:      settledAmount,
		Currency:    account.Currency,
		SnapshotID:  snapshotID,
		ReferenceID: input.ReferenceID,
		OccurredAt:  occurredAt,
		CreatedAt:   now,
	}

	if err := entry.Validate(); err != nil {
		if uc.metrics != nil {
			uc.metrics.EntryErrors.WithLabelValues("validation").Inc()
		}

		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	locked, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, account.ID)
	if err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	newBalance := locked.ApplyEntry(entry)

	err = uc.accountRepo.UpdateStoredBalance(ctx, tx, locked.ID, newBalance, locked.Version, now)
	if err != nil {
		return nil, err
	}

	event := &domain.AuditEvent{
		ID:        uc.idGen.Generate(),
		Action:    domain.AuditActionEntryPost,
		AccountID: locked.ID,
		ProjectID: locked.ProjectID,
		BeforeState: domain.JSON{
			"stored_balance": locked.StoredBalance.String(),
		},
		AfterState: domain.JSON{
			"stored_balance": newBalance.String(),
			"entry_id":       entry.ID,
			"kind":           string(entry.Kind),
		},
		Status:    domain.AuditStatusSuccess,
		CreatedAt: now,
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesPosted.WithLabelValues(string(entry.Kind)).Inc()
	}

	return entry, nil
}

// GetEntry retrieves an entry by ID.
func (uc *EntryUseCase) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// ListEntriesInput holds pagination for entry listing.
type ListEntriesInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListEntries lists an account's entries, newest first.
func (uc *EntryUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.LedgerEntry, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.entryRepo.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
}
