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

// ConversionService defines the behavior needed by ConversionHandler.
type ConversionService interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency) usecase.ConversionResult
	CreateSnapshot(ctx context.Context, input usecase.CreateSnapshotInput) (*domain.ConversionSnapshot, error)
	GetSnapshot(ctx context.Context, id string) (*domain.ConversionSnapshot, error)
}

// ConversionHandler handles conversion and snapshot HTTP requests.
type ConversionHandler struct {
	conversionUC ConversionService
}

// NewConversionHandler creates a new ConversionHandler.
func NewConversionHandler(conversionUC ConversionService) *ConversionHandler {
	return &ConversionHandler{conversionUC: conversionUC}
}

// Quote converts an amount without persisting anything. A missing rate
// returns the original amount with convertible=false, never an error.
func (h *ConversionHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req dto.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result := h.conversionUC.Convert(r.Context(), req.Amount, domain.Currency(req.From), domain.Currency(req.To))

	writeJSON(w, http.StatusOK, dto.ConvertResponse{
		Amount:      result.Amount,
		From:        req.From,
		To:          req.To,
		Convertible: result.Convertible,
	})
}

// CreateSnapshot converts and persists an immutable conversion snapshot.
func (h *ConversionHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	snapshot, err := h.conversionUC.CreateSnapshot(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create snapshot", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.SnapshotFromDomain(snapshot))
}

// GetSnapshot retrieves a snapshot by ID.
func (h *ConversionHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing snapshot ID", "")
		return
	}

	snapshot, err := h.conversionUC.GetSnapshot(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get snapshot", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SnapshotFromDomain(snapshot))
}
