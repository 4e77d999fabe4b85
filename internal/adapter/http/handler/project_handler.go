package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betops/settlecore/internal/adapter/http/dto"
	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
)

// PolicyService defines the behavior needed by ProjectHandler.
type PolicyService interface {
	GetConfig(ctx context.Context, projectID string) (*domain.ProjectCurrencyConfig, error)
	SetConfig(ctx context.Context, cfg *domain.ProjectCurrencyConfig) error
}

// ConsolidationService defines the behavior needed by ProjectHandler.
type ConsolidationService interface {
	ProjectBalances(ctx context.Context, projectID string, rc usecase.RateContext) (*usecase.ConsolidationReport, error)
}

// ProjectHandler handles project currency policy and consolidation requests.
type ProjectHandler struct {
	policyUC        PolicyService
	consolidationUC ConsolidationService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(policyUC PolicyService, consolidationUC ConsolidationService) *ProjectHandler {
	return &ProjectHandler{policyUC: policyUC, consolidationUC: consolidationUC}
}

// GetConfig returns a project's currency policy.
func (h *ProjectHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing project ID", "")
		return
	}

	cfg, err := h.policyUC.GetConfig(r.Context(), projectID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get project config", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ProjectConfigFromDomain(cfg))
}

// SetConfig sets a project's currency policy.
func (h *ProjectHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing project ID", "")
		return
	}

	var req dto.SetProjectConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	cfg := req.ToDomain(projectID)
	if err := h.policyUC.SetConfig(r.Context(), cfg); err != nil {
		writeError(w, mapDomainError(err), "failed to set project config", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ProjectConfigFromDomain(cfg))
}

// Consolidation returns the project's stored balances rolled into its
// consolidation currency. forward_planning=true requests the manual
// ("working") rate by explicit intent.
func (h *ProjectHandler) Consolidation(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing project ID", "")
		return
	}

	rc := usecase.RateContext{ForwardPlanning: parseBoolQuery(r, "forward_planning")}

	report, err := h.consolidationUC.ProjectBalances(r.Context(), projectID, rc)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to consolidate project", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsolidationReportFromUseCase(report))
}
