package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
)

// AccountUseCase handles account lifecycle.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	ProjectID string
	Name      string
	Currency  domain.Currency
}

// CreateAccount creates a new account with a zero stored balance in its
// native currency.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if !input.Currency.Supported() {
		return nil, domain.ErrUnsupportedCurrency
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:            uc.idGen.Generate(),
		ProjectID:     input.ProjectID,
		Name:          input.Name,
		Currency:      input.Currency,
		StoredBalance: decimal.Zero,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput holds pagination for account listing.
type ListAccountsInput struct {
	ProjectID string
	Limit     int
	Offset    int
}

// ListAccounts lists a project's accounts.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.accountRepo.ListByProject(ctx, input.ProjectID, input.Limit, input.Offset)
}
