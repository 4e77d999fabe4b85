package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// UpdateStoredBalance writes a new stored balance guarded by the expected
	// version. Returns domain.ErrConcurrentBalanceConflict when the row moved.
	UpdateStoredBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for ledger entries. Entries are
// append-only: there is no update or delete.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	// AllByAccount streams the full history for balance replay, oldest first.
	AllByAccount(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error)
	// AllByAccountTx reads the full history inside a transaction, used by
	// reconciliation to re-validate under the account row lock.
	AllByAccountTx(ctx context.Context, tx Transaction, accountID string) ([]*domain.LedgerEntry, error)
}

// SnapshotRepository defines data access for conversion snapshots.
// Snapshots are write-once; the interface deliberately has no update.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *domain.ConversionSnapshot) error
	GetByID(ctx context.Context, id string) (*domain.ConversionSnapshot, error)
}

// ProjectConfigRepository defines data access for project currency configs.
type ProjectConfigRepository interface {
	Get(ctx context.Context, projectID string) (*domain.ProjectCurrencyConfig, error)
	Upsert(ctx context.Context, cfg *domain.ProjectCurrencyConfig) error
}

// AuditRepository defines data access for audit events.
type AuditRepository interface {
	Create(ctx context.Context, event *domain.AuditEvent) error
	CreateTx(ctx context.Context, tx Transaction, event *domain.AuditEvent) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditEvent, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// RetryExecutor retries an operation on transient storage failures. Permanent
// errors pass through unchanged.
type RetryExecutor interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
