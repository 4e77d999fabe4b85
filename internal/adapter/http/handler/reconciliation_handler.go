package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/adapter/http/dto"
	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
)

// ReconciliationService defines the behavior needed by
// ReconciliationHandler.
type ReconciliationService interface {
	CheckAccount(ctx context.Context, accountID string) (*domain.DiscrepancyRecord, error)
	ApplyFix(ctx context.Context, accountID string, expectedCanonical decimal.Decimal) (*usecase.FixResult, error)
	ReconcileProject(ctx context.Context, projectID string, apply bool) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler handles drift detection and correction requests from
// the operator surface.
type ReconciliationHandler struct {
	reconcileUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconcileUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconcileUC: reconcileUC}
}

// CheckAccount computes a discrepancy record for one account. Read-only.
func (h *ReconciliationHandler) CheckAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	record, err := h.reconcileUC.CheckAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to check account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DiscrepancyFromDomain(record))
}

// ApplyFix corrects one account's stored balance. Returns 409 when a newer
// entry invalidated the fix; the caller re-checks and retries.
func (h *ReconciliationHandler) ApplyFix(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.ApplyFixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.reconcileUC.ApplyFix(r.Context(), accountID, req.ExpectedCanonical)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply fix", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.FixResultResponse{
		Record:  dto.DiscrepancyFromDomain(result.Record),
		Applied: result.Applied,
	})
}

// ReconcileProject scans every account in a project, reporting drift and
// optionally applying fixes.
func (h *ReconciliationHandler) ReconcileProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing project ID", "")
		return
	}

	var req dto.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	report, err := h.reconcileUC.ReconcileProject(r.Context(), projectID, req.Apply)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile project", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromUseCase(report))
}
