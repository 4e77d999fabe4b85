package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/infrastructure/metrics"
)

const (
	reconcileScanPageSize = 500
	maxParallelFixes      = 4
)

// ReconciliationUseCase detects drift between an account's stored balance and
// its canonical, ledger-derived value, and applies corrective writes. History
// is never altered: a fix rewrites the stored balance cache and leaves an
// adjustment-class audit event.
type ReconciliationUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	retrier     RetryExecutor
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		logger:      logger,
	}
}

// UseRetrier routes fix writes through r, giving deadlocks between two
// concurrent fixes a second chance before they surface as failures.
func (uc *ReconciliationUseCase) UseRetrier(r RetryExecutor) {
	uc.retrier = r
}

// UseMetrics attaches reconciliation instrumentation.
func (uc *ReconciliationUseCase) UseMetrics(m *metrics.Metrics) {
	uc.metrics = m
}

// CheckAccount computes a discrepancy record for one account. Read-only.
func (uc *ReconciliationUseCase) CheckAccount(ctx context.Context, accountID string) (*domain.DiscrepancyRecord, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.AllByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	derived, err := ReplayEntries(account, entries)
	if err != nil {
		return nil, err
	}

	return domain.NewDiscrepancyRecord(account, derived, time.Now().UTC()), nil
}

// FixResult is the outcome of an ApplyFix call. Record reflects the state
// observed under the write lock, before any correction was written.
type FixResult struct {
	Record  *domain.DiscrepancyRecord
	Applied bool
}

// ApplyFix corrects one account's stored balance. The canonical value is
// re-validated under the account row lock immediately before writing: if it
// no longer matches what the caller observed during its scan, a newer entry
// arrived and the fix aborts with domain.ErrConcurrentBalanceConflict rather
// than overwriting with stale data. The caller retries against fresh state.
func (uc *ReconciliationUseCase) ApplyFix(ctx context.Context, accountID string, expectedCanonical decimal.Decimal) (*FixResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.AllByAccountTx(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	derived, err := ReplayEntries(account, entries)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := domain.NewDiscrepancyRecord(account, derived, now)

	if !record.CanonicalBalance.Equal(expectedCanonical.Round(domain.BalancePrecision)) {
		uc.logger.Warn().
			Str("account_id", accountID).
			Str("expected", expectedCanonical.String()).
			Str("fresh", record.CanonicalBalance.String()).
			Msg("fix invalidated by a newer entry, aborting")

		uc.auditConflict(ctx, account, expectedCanonical, record.CanonicalBalance)

		if uc.metrics != nil {
			uc.metrics.FixConflicts.Inc()
		}

		return nil, domain.ErrConcurrentBalanceConflict
	}

	if !record.Flagged {
		// Drift within tolerance; nothing to write.
		return &FixResult{Record: record}, nil
	}

	err = uc.accountRepo.UpdateStoredBalance(ctx, tx, accountID, record.CanonicalBalance, account.Version, now)
	if err != nil {
		return nil, err
	}

	event := &domain.AuditEvent{
		ID:        uc.idGen.Generate(),
		Action:    domain.AuditActionReconcileApply,
		AccountID: account.ID,
		ProjectID: account.ProjectID,
		BeforeState: domain.JSON{
			"stored_balance": record.StoredBalance.String(),
		},
		AfterState: domain.JSON{
			"stored_balance": record.CanonicalBalance.String(),
			"delta":          record.Delta.Neg().String(),
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

	uc.logger.Info().
		Str("account_id", accountID).
		Str("stored", record.StoredBalance.String()).
		Str("canonical", record.CanonicalBalance.String()).
		Msg("stored balance corrected")

	if uc.metrics != nil {
		uc.metrics.FixesApplied.Inc()
	}

	return &FixResult{Record: record, Applied: true}, nil
}

// FixFailure reports one account whose fix did not apply.
type FixFailure struct {
	AccountID string
	Err       string
	Conflict  bool
}

// ReconciliationReport is the result of a project-wide scan.
type ReconciliationReport struct {
	ProjectID     string
	DryRun        bool
	TotalAccounts int
	Flagged       []*domain.DiscrepancyRecord
	AppliedCount  int
	Failures      []FixFailure
	CheckedAt     time.Time
}

// ReconcileProject scans every account in a project. In dry-run mode it only
// reports; in apply mode it fixes flagged accounts with bounded parallelism.
// An individual failed fix is reported and never aborts the remaining batch.
func (uc *ReconciliationUseCase) ReconcileProject(ctx context.Context, projectID string, apply bool) (*ReconciliationReport, error) {
	start := time.Now()

	report := &ReconciliationReport{
		ProjectID: projectID,
		DryRun:    !apply,
		CheckedAt: start.UTC(),
	}

	if uc.metrics != nil {
		mode := "dry_run"
		if apply {
			mode = "apply"
		}

		uc.metrics.ReconcileRuns.WithLabelValues(mode).Inc()
		defer func() {
			uc.metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
			uc.metrics.DiscrepanciesFound.Add(float64(len(report.Flagged)))
		}()
	}

	// Scan phase: pure computation, safely cancellable.
	offset := 0
	for {
		accounts, err := uc.accountRepo.ListByProject(ctx, projectID, reconcileScanPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			record, err := uc.CheckAccount(ctx, account.ID)
			if err != nil {
				report.Failures = append(report.Failures, FixFailure{AccountID: account.ID, Err: err.Error()})
				continue
			}

			report.TotalAccounts++
			if record.Flagged {
				report.Flagged = append(report.Flagged, record)
			}
		}

		if len(accounts) < reconcileScanPageSize {
			break
		}

		offset += reconcileScanPageSize
	}

	if !apply || len(report.Flagged) == 0 {
		return report, nil
	}

	uc.applyFixes(ctx, report)

	return report, nil
}

// applyFixes runs the write phase. Fixes on distinct accounts proceed in
// parallel; each one re-validates against fresh ledger state and aborts only
// itself on conflict.
func (uc *ReconciliationUseCase) applyFixes(ctx context.Context, report *ReconciliationReport) {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	sem := make(chan struct{}, maxParallelFixes)

	for _, record := range report.Flagged {
		wg.Add(1)
		sem <- struct{}{}

		go func(record *domain.DiscrepancyRecord) {
			defer wg.Done()
			defer func() { <-sem }()

			var result *FixResult

			fix := func() error {
				var fixErr error
				result, fixErr = uc.ApplyFix(ctx, record.AccountID, record.CanonicalBalance)
				return fixErr
			}

			var err error
			if uc.retrier != nil {
				err = uc.retrier.Retry(ctx, fix)
			} else {
				err = fix()
			}

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				report.Failures = append(report.Failures, FixFailure{
					AccountID: record.AccountID,
					Err:       err.Error(),
					Conflict:  errors.Is(err, domain.ErrConcurrentBalanceConflict),
				})

				return
			}

			if result.Applied {
				report.AppliedCount++
			}
		}(record)
	}

	wg.Wait()
}

func (uc *ReconciliationUseCase) auditConflict(ctx context.Context, account *domain.Account, expected, fresh decimal.Decimal) {
	event := &domain.AuditEvent{
		ID:        uc.idGen.Generate(),
		Action:    domain.AuditActionReconcileApply,
		AccountID: account.ID,
		ProjectID: account.ProjectID,
		BeforeState: domain.JSON{
			"expected_canonical": expected.String(),
			"fresh_canonical":    fresh.String(),
		},
		Status:       domain.AuditStatusConflict,
		ErrorMessage: domain.ErrConcurrentBalanceConflict.Error(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := uc.auditRepo.Create(ctx, event); err != nil {
		uc.logger.Warn().Err(err).Str("account_id", account.ID).Msg("failed to record conflict audit event")
	}
}
