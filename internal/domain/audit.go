package domain

import (
	"encoding/json"
	"time"
)

// AuditEvent is an append-only record of a balance-affecting operation,
// written alongside entry posts and reconciliation fixes.
type AuditEvent struct {
	ID           string
	Action       AuditAction
	AccountID    string
	ProjectID    string
	BeforeState  JSON
	AfterState   JSON
	Status       AuditStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data.
type JSON map[string]any

// AuditAction represents different types of auditable actions.
type AuditAction string

const (
	AuditActionEntryPost       AuditAction = "entry.post"
	AuditActionBalanceAdjust   AuditAction = "balance.adjust"
	AuditActionReconcileApply  AuditAction = "reconcile.apply"
	AuditActionReconcileReport AuditAction = "reconcile.report"
	AuditActionProjectConfig   AuditAction = "project.config.update"
	AuditActionSnapshotCreated AuditAction = "conversion.snapshot.create"
)

// AuditStatus represents the status of an audited action.
type AuditStatus string

const (
	AuditStatusSuccess  AuditStatus = "success"
	AuditStatusFailure  AuditStatus = "failure"
	AuditStatusConflict AuditStatus = "conflict"
)

// MarshalState converts a domain object to JSON for audit logging.
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var out JSON
	if err := json.Unmarshal(data, &out); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return out
}
