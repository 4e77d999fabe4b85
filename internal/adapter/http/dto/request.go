package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		ProjectID: r.ProjectID,
		Name:      r.Name,
		Currency:  domain.Currency(r.Currency),
	}
}

// PostEntryRequest represents a request to record one ledger entry. Currency
// may differ from the account's native currency; the entry then settles
// through a conversion snapshot. ConfirmedTarget is an operator-confirmed
// credited amount overriding the rate-derived estimate.
type PostEntryRequest struct {
	Kind            string           `json:"kind"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	ReferenceID     string           `json:"reference_id,omitempty"`
	OccurredAt      *time.Time       `json:"occurred_at,omitempty"`
	ConfirmedTarget *decimal.Decimal `json:"confirmed_target,omitempty"`
}

// ToUseCaseInput converts to use case input for the given account.
func (r *PostEntryRequest) ToUseCaseInput(accountID string) usecase.PostEntryInput {
	return usecase.PostEntryInput{
		AccountID:       accountID,
		Kind:            domain.EntryKind(r.Kind),
		Amount:          r.Amount,
		Currency:        domain.Currency(r.Currency),
		ReferenceID:     r.ReferenceID,
		OccurredAt:      r.OccurredAt,
		ConfirmedTarget: r.ConfirmedTarget,
	}
}

// ConvertRequest represents a request for a conversion quote.
type ConvertRequest struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
}

// CreateSnapshotRequest represents a request to persist a conversion
// snapshot.
type CreateSnapshotRequest struct {
	Amount          decimal.Decimal  `json:"amount"`
	From            string           `json:"from"`
	To              string           `json:"to"`
	ConfirmedTarget *decimal.Decimal `json:"confirmed_target,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateSnapshotRequest) ToUseCaseInput() usecase.CreateSnapshotInput {
	return usecase.CreateSnapshotInput{
		Amount:          r.Amount,
		From:            domain.Currency(r.From),
		To:              domain.Currency(r.To),
		ConfirmedTarget: r.ConfirmedTarget,
	}
}

// SetProjectConfigRequest represents a request to set a project's currency
// policy.
type SetProjectConfigRequest struct {
	ConsolidationCurrency string           `json:"consolidation_currency"`
	RateSource            string           `json:"rate_source"`
	ManualRate            *decimal.Decimal `json:"manual_rate,omitempty"`
}

// ToDomain converts to the domain config for the given project.
func (r *SetProjectConfigRequest) ToDomain(projectID string) *domain.ProjectCurrencyConfig {
	cfg := &domain.ProjectCurrencyConfig{
		ProjectID:             projectID,
		ConsolidationCurrency: domain.Currency(r.ConsolidationCurrency),
		RateSource:            domain.RateSource(r.RateSource),
	}

	if r.ManualRate != nil {
		cfg.ManualRate = *r.ManualRate
		cfg.HasManualRate = true
	}

	return cfg
}

// ApplyFixRequest represents a request to correct one account's stored
// balance. ExpectedCanonical is the canonical value the caller observed; the
// fix aborts if a newer entry has moved it since.
type ApplyFixRequest struct {
	ExpectedCanonical decimal.Decimal `json:"expected_canonical"`
}

// ReconcileRequest represents a request to reconcile a whole project.
type ReconcileRequest struct {
	Apply bool `json:"apply"`
}
