package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository. The ledger_entries
// table is append-only: this repository exposes no update or delete, and the
// schema revokes them too.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

const entryColumns = `id, account_id, project_id, kind, amount::text, currency, snapshot_id, reference_id, occurred_at, created_at`

// Create appends a ledger entry inside a transaction.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO ledger_entries (id, account_id, project_id, kind, amount, currency, snapshot_id, reference_id, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)`,
		entry.ID,
		entry.AccountID,
		entry.ProjectID,
		string(entry.Kind),
		entry.Amount.String(),
		entry.Currency.String(),
		entry.SnapshotID,
		entry.ReferenceID,
		entry.OccurredAt,
		entry.CreatedAt,
	)

	return err
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, id)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return entry, nil
}

// ListByAccount lists an account's entries, oldest first, with pagination.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY occurred_at, id
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// AllByAccount reads the full history for balance replay, oldest first.
func (r *EntryRepository) AllByAccount(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY occurred_at, id`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// AllByAccountTx reads the full history inside a transaction, under whatever
// locks that transaction holds.
func (r *EntryRepository) AllByAccountTx(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.LedgerEntry, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY occurred_at, id`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var (
		entry      domain.LedgerEntry
		kind       string
		amount     string
		currency   string
		snapshotID *string
	)

	err := row.Scan(
		&entry.ID,
		&entry.AccountID,
		&entry.ProjectID,
		&kind,
		&amount,
		&currency,
		&snapshotID,
		&entry.ReferenceID,
		&entry.OccurredAt,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Kind = domain.EntryKind(kind)
	entry.Currency = domain.Currency(currency)
	if snapshotID != nil {
		entry.SnapshotID = *snapshotID
	}

	entry.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}
