package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betops/settlecore/internal/adapter/http/dto"
	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
)

// RateHandler exposes resolved rates for diagnostics and dashboards.
type RateHandler struct {
	rates usecase.RateSource
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rates usecase.RateSource) *RateHandler {
	return &RateHandler{rates: rates}
}

// Get resolves one currency's rate against the base currency. Unknown codes
// resolve to the identity rate with known=false rather than failing.
func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "currency")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing currency", "")
		return
	}

	currency, _ := domain.ParseCurrency(code)
	if currency == domain.CurrencyUnsupported {
		// Keep the requested code in the response so the caller can see
		// what the identity pass-through was applied to.
		currency = domain.Currency(code)
	}

	resolved := h.rates.RateToBase(r.Context(), currency)

	writeJSON(w, http.StatusOK, dto.RateFromResolved(resolved))
}
