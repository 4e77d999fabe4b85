package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"project_id"`
	Name          string          `json:"name"`
	Currency      string          `json:"currency"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		ProjectID:     a.ProjectID,
		Name:          a.Name,
		Currency:      a.Currency.String(),
		StoredBalance: a.StoredBalance,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}

	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	ProjectID   string          `json:"project_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	SnapshotID  string          `json:"snapshot_id,omitempty"`
	ReferenceID string          `json:"reference_id,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:          e.ID,
		AccountID:   e.AccountID,
		ProjectID:   e.ProjectID,
		Kind:        string(e.Kind),
		Amount:      e.Amount,
		Currency:    e.Currency.String(),
		SnapshotID:  e.SnapshotID,
		ReferenceID: e.ReferenceID,
		OccurredAt:  e.OccurredAt,
		CreatedAt:   e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}

	return result
}

// SnapshotResponse represents a conversion snapshot in API responses.
type SnapshotResponse struct {
	ID                    string          `json:"id"`
	SourceCurrency        string          `json:"source_currency"`
	SourceAmount          decimal.Decimal `json:"source_amount"`
	SourceRateToBase      decimal.Decimal `json:"source_rate_to_base"`
	TargetCurrency        string          `json:"target_currency"`
	TargetAmount          decimal.Decimal `json:"target_amount"`
	TargetRateToBase      decimal.Decimal `json:"target_rate_to_base"`
	ReferenceAmountInBase decimal.Decimal `json:"reference_amount_in_base"`
	Convertible           bool            `json:"convertible"`
	ComputedAt            time.Time       `json:"computed_at"`
}

// SnapshotFromDomain converts a domain snapshot to a response.
func SnapshotFromDomain(s *domain.ConversionSnapshot) *SnapshotResponse {
	return &SnapshotResponse{
		ID:                    s.ID,
		SourceCurrency:        s.SourceCurrency.String(),
		SourceAmount:          s.SourceAmount,
		SourceRateToBase:      s.SourceRateToBase,
		TargetCurrency:        s.TargetCurrency.String(),
		TargetAmount:          s.TargetAmount,
		TargetRateToBase:      s.TargetRateToBase,
		ReferenceAmountInBase: s.ReferenceAmountInBase,
		Convertible:           s.Convertible,
		ComputedAt:            s.ComputedAt,
	}
}

// ConvertResponse represents a conversion quote.
type ConvertResponse struct {
	Amount      decimal.Decimal `json:"amount"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Convertible bool            `json:"convertible"`
}

// RateResponse represents a resolved rate.
type RateResponse struct {
	Currency  string          `json:"currency"`
	ToBase    decimal.Decimal `json:"to_base"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
	Known     bool            `json:"known"`
	Stale     bool            `json:"stale"`
}

// RateFromResolved converts a resolved rate to a response.
func RateFromResolved(r usecase.ResolvedRate) *RateResponse {
	return &RateResponse{
		Currency:  r.Currency.String(),
		ToBase:    r.ToBase,
		Source:    string(r.Source),
		FetchedAt: r.FetchedAt,
		Known:     r.Known,
		Stale:     r.Stale,
	}
}

// DerivedBalanceResponse represents a canonical balance with its per-kind
// breakdown.
type DerivedBalanceResponse struct {
	AccountID  string                     `json:"account_id"`
	Currency   string                     `json:"currency"`
	Total      decimal.Decimal            `json:"total"`
	Breakdown  map[string]decimal.Decimal `json:"breakdown"`
	EntryCount int                        `json:"entry_count"`
	LastEntry  *time.Time                 `json:"last_entry,omitempty"`
}

// DerivedBalanceFromDomain converts a derived balance to a response.
func DerivedBalanceFromDomain(b *domain.DerivedBalance) *DerivedBalanceResponse {
	resp := &DerivedBalanceResponse{
		AccountID:  b.AccountID,
		Currency:   b.Currency.String(),
		Total:      b.Total,
		Breakdown:  breakdownFromDomain(b.Breakdown),
		EntryCount: b.EntryCount,
	}

	if !b.LastEntry.IsZero() {
		last := b.LastEntry
		resp.LastEntry = &last
	}

	return resp
}

// DiscrepancyResponse represents a stored-vs-canonical comparison.
type DiscrepancyResponse struct {
	AccountID        string                     `json:"account_id"`
	Currency         string                     `json:"currency"`
	StoredBalance    decimal.Decimal            `json:"stored_balance"`
	CanonicalBalance decimal.Decimal            `json:"canonical_balance"`
	Delta            decimal.Decimal            `json:"delta"`
	Breakdown        map[string]decimal.Decimal `json:"breakdown"`
	Flagged          bool                       `json:"flagged"`
	CheckedAt        time.Time                  `json:"checked_at"`
}

// DiscrepancyFromDomain converts a discrepancy record to a response.
func DiscrepancyFromDomain(d *domain.DiscrepancyRecord) *DiscrepancyResponse {
	return &DiscrepancyResponse{
		AccountID:        d.AccountID,
		Currency:         d.Currency.String(),
		StoredBalance:    d.StoredBalance,
		CanonicalBalance: d.CanonicalBalance,
		Delta:            d.Delta,
		Breakdown:        breakdownFromDomain(d.Breakdown),
		Flagged:          d.Flagged,
		CheckedAt:        d.CheckedAt,
	}
}

// FixResultResponse represents the outcome of a single fix.
type FixResultResponse struct {
	Record  *DiscrepancyResponse `json:"record"`
	Applied bool                 `json:"applied"`
}

// FixFailureResponse reports one account whose fix did not apply.
type FixFailureResponse struct {
	AccountID string `json:"account_id"`
	Error     string `json:"error"`
	Conflict  bool   `json:"conflict"`
}

// ReconciliationReportResponse represents a project-wide reconciliation run.
type ReconciliationReportResponse struct {
	ProjectID     string                 `json:"project_id"`
	DryRun        bool                   `json:"dry_run"`
	TotalAccounts int                    `json:"total_accounts"`
	Flagged       []*DiscrepancyResponse `json:"flagged"`
	AppliedCount  int                    `json:"applied_count"`
	Failures      []FixFailureResponse   `json:"failures,omitempty"`
	CheckedAt     time.Time              `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a report to a response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	flagged := make([]*DiscrepancyResponse, len(r.Flagged))
	for i, record := range r.Flagged {
		flagged[i] = DiscrepancyFromDomain(record)
	}

	failures := make([]FixFailureResponse, len(r.Failures))
	for i, f := range r.Failures {
		failures[i] = FixFailureResponse{AccountID: f.AccountID, Error: f.Err, Conflict: f.Conflict}
	}

	return &ReconciliationReportResponse{
		ProjectID:     r.ProjectID,
		DryRun:        r.DryRun,
		TotalAccounts: r.TotalAccounts,
		Flagged:       flagged,
		AppliedCount:  r.AppliedCount,
		Failures:      failures,
		CheckedAt:     r.CheckedAt,
	}
}

// CurrencyGroupResponse is one currency's exact native total and its
// converted contribution.
type CurrencyGroupResponse struct {
	Currency    string          `json:"currency"`
	NativeTotal decimal.Decimal `json:"native_total"`
	Converted   decimal.Decimal `json:"converted"`
	Convertible bool            `json:"convertible"`
}

// ConsolidationReportResponse represents a consolidation report. The grand
// total is an approximation subject to current-rate movement.
type ConsolidationReportResponse struct {
	ProjectID             string                  `json:"project_id"`
	ConsolidationCurrency string                  `json:"consolidation_currency"`
	RateSource            string                  `json:"rate_source"`
	Groups                []CurrencyGroupResponse `json:"groups"`
	GrandTotal            decimal.Decimal         `json:"grand_total"`
	Approximate           bool                    `json:"approximate"`
	ComputedAt            time.Time               `json:"computed_at"`
}

// ConsolidationReportFromUseCase converts a report to a response.
func ConsolidationReportFromUseCase(r *usecase.ConsolidationReport) *ConsolidationReportResponse {
	groups := make([]CurrencyGroupResponse, len(r.Groups))
	for i, g := range r.Groups {
		groups[i] = CurrencyGroupResponse{
			Currency:    g.Currency.String(),
			NativeTotal: g.NativeTotal,
			Converted:   g.Converted,
			Convertible: g.Convertible,
		}
	}

	return &ConsolidationReportResponse{
		ProjectID:             r.ProjectID,
		ConsolidationCurrency: r.ConsolidationCurrency.String(),
		RateSource:            string(r.RateSource),
		Groups:                groups,
		GrandTotal:            r.GrandTotal,
		Approximate:           r.Approximate,
		ComputedAt:            r.ComputedAt,
	}
}

// ProjectConfigResponse represents a project's currency policy.
type ProjectConfigResponse struct {
	ProjectID             string           `json:"project_id"`
	ConsolidationCurrency string           `json:"consolidation_currency"`
	RateSource            string           `json:"rate_source"`
	ManualRate            *decimal.Decimal `json:"manual_rate,omitempty"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// ProjectConfigFromDomain converts a domain config to a response.
func ProjectConfigFromDomain(c *domain.ProjectCurrencyConfig) *ProjectConfigResponse {
	resp := &ProjectConfigResponse{
		ProjectID:             c.ProjectID,
		ConsolidationCurrency: c.ConsolidationCurrency.String(),
		RateSource:            string(c.RateSource),
		UpdatedAt:             c.UpdatedAt,
	}

	if c.HasManualRate {
		rate := c.ManualRate
		resp.ManualRate = &rate
	}

	return resp
}

func breakdownFromDomain(b domain.BalanceBreakdown) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(b))
	for kind, amount := range b {
		out[string(kind)] = amount
	}

	return out
}
