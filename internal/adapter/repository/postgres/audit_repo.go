package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const auditInsert = `
	INSERT INTO audit_events (id, action, account_id, project_id, before_state, after_state, status, error_message, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Create writes an audit event outside any transaction.
func (r *AuditRepository) Create(ctx context.Context, event *domain.AuditEvent) error {
	args, err := auditArgs(event)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, auditInsert, args...)

	return err
}

// CreateTx writes an audit event inside the caller's transaction, so the
// event commits atomically with the write it describes.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, event *domain.AuditEvent) error {
	pgxTx := tx.(*Tx).PgxTx()

	args, err := auditArgs(event)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, auditInsert, args...)

	return err
}

// ListByAccount lists an account's audit events, newest first.
func (r *AuditRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, action, account_id, project_id, before_state, after_state, status, error_message, created_at
		FROM audit_events
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAuditEvents(rows)
}

func collectAuditEvents(rows pgx.Rows) ([]*domain.AuditEvent, error) {
	var events []*domain.AuditEvent
	for rows.Next() {
		var (
			event         domain.AuditEvent
			action        string
			status        string
			before, after []byte
		)

		err := rows.Scan(
			&event.ID,
			&action,
			&event.AccountID,
			&event.ProjectID,
			&before,
			&after,
			&status,
			&event.ErrorMessage,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		event.Action = domain.AuditAction(action)
		event.Status = domain.AuditStatus(status)

		if len(before) > 0 {
			if err := json.Unmarshal(before, &event.BeforeState); err != nil {
				return nil, err
			}
		}

		if len(after) > 0 {
			if err := json.Unmarshal(after, &event.AfterState); err != nil {
				return nil, err
			}
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}

func auditArgs(event *domain.AuditEvent) ([]any, error) {
	var (
		before, after []byte
		err           error
	)

	if event.BeforeState != nil {
		before, err = json.Marshal(event.BeforeState)
		if err != nil {
			return nil, err
		}
	}

	if event.AfterState != nil {
		after, err = json.Marshal(event.AfterState)
		if err != nil {
			return nil, err
		}
	}

	return []any{
		event.ID,
		string(event.Action),
		event.AccountID,
		event.ProjectID,
		before,
		after,
		string(event.Status),
		event.ErrorMessage,
		event.CreatedAt,
	}, nil
}
