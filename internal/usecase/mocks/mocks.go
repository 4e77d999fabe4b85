package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc              func(ctx context.Context, account *domain.Account) error
	GetByIDFunc             func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdateFunc    func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	UpdateStoredBalanceFunc func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
	ListByProjectFunc       func(ctx context.Context, projectID string, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed installs an account into the in-memory store.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) UpdateStoredBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
	if m.UpdateStoredBalanceFunc != nil {
		return m.UpdateStoredBalanceFunc(ctx, tx, id, balance, expectedVersion, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if acc.Version != expectedVersion {
		return domain.ErrConcurrentBalanceConflict
	}
	acc.StoredBalance = balance
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Account, error) {
	if m.ListByProjectFunc != nil {
		return m.ListByProjectFunc(ctx, projectID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Account
	for _, acc := range m.accounts {
		if acc.ProjectID == projectID {
			cp := *acc
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.LedgerEntry, error)
	ListByAccountFunc  func(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	AllByAccountFunc   func(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error)
	AllByAccountTxFunc func(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.LedgerEntry, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

// Seed appends entries to the in-memory ledger.
func (m *MockEntryRepository) Seed(entries ...*domain.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("entry %s not found", id)
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	all, _ := m.AllByAccount(ctx, accountID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *MockEntryRepository) AllByAccount(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error) {
	if m.AllByAccountFunc != nil {
		return m.AllByAccountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEntryRepository) AllByAccountTx(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.LedgerEntry, error) {
	if m.AllByAccountTxFunc != nil {
		return m.AllByAccountTxFunc(ctx, tx, accountID)
	}
	return m.AllByAccount(ctx, accountID)
}

// MockSnapshotRepository is a mock implementation of SnapshotRepository.
type MockSnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.ConversionSnapshot

	CreateFunc  func(ctx context.Context, snapshot *domain.ConversionSnapshot) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.ConversionSnapshot, error)
}

func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{
		snapshots: make(map[string]*domain.ConversionSnapshot),
	}
}

func (m *MockSnapshotRepository) Create(ctx context.Context, snapshot *domain.ConversionSnapshot) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *snapshot
	m.snapshots[snapshot.ID] = &cp
	return nil
}

func (m *MockSnapshotRepository) GetByID(ctx context.Context, id string) (*domain.ConversionSnapshot, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.snapshots[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrSnapshotNotFound
}

// MockProjectConfigRepository is a mock implementation of ProjectConfigRepository.
type MockProjectConfigRepository struct {
	mu      sync.RWMutex
	configs map[string]*domain.ProjectCurrencyConfig

	GetFunc    func(ctx context.Context, projectID string) (*domain.ProjectCurrencyConfig, error)
	UpsertFunc func(ctx context.Context, cfg *domain.ProjectCurrencyConfig) error
}

func NewMockProjectConfigRepository() *MockProjectConfigRepository {
	return &MockProjectConfigRepository{
		configs: make(map[string]*domain.ProjectCurrencyConfig),
	}
}

func (m *MockProjectConfigRepository) Get(ctx context.Context, projectID string) (*domain.ProjectCurrencyConfig, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, projectID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if cfg, ok := m.configs[projectID]; ok {
		cp := *cfg
		return &cp, nil
	}
	return nil, domain.ErrProjectConfigNotFound
}

func (m *MockProjectConfigRepository) Upsert(ctx context.Context, cfg *domain.ProjectCurrencyConfig) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, cfg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cfg
	m.configs[cfg.ProjectID] = &cp
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu     sync.RWMutex
	events []*domain.AuditEvent

	CreateFunc   func(ctx context.Context, event *domain.AuditEvent) error
	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, event *domain.AuditEvent) error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, event *domain.AuditEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, event *domain.AuditEvent) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, event)
	}
	return m.Create(ctx, event)
}

func (m *MockAuditRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditEvent
	for _, e := range m.events {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Events returns all recorded events.
func (m *MockAuditRepository) Events() []*domain.AuditEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AuditEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockTransaction is a no-op transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
	Committed    bool
	RolledBack   bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.RolledBack = true
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu           sync.Mutex
	counter      int
	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%04d", m.counter)
}

// MockRateSource is a mock implementation of RateSource backed by a static
// rate table.
type MockRateSource struct {
	mu    sync.RWMutex
	rates map[domain.Currency]decimal.Decimal

	RateToBaseFunc func(ctx context.Context, currency domain.Currency) usecase.ResolvedRate
}

func NewMockRateSource() *MockRateSource {
	return &MockRateSource{
		rates: make(map[domain.Currency]decimal.Decimal),
	}
}

// SetRate installs a known rate-to-base for a currency.
func (m *MockRateSource) SetRate(currency domain.Currency, toBase decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[currency] = toBase
}

func (m *MockRateSource) RateToBase(ctx context.Context, currency domain.Currency) usecase.ResolvedRate {
	if m.RateToBaseFunc != nil {
		return m.RateToBaseFunc(ctx, currency)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if toBase, ok := m.rates[currency.RoutingCurrency()]; ok {
		return usecase.ResolvedRate{
			Rate: domain.Rate{
				Currency:  currency,
				ToBase:    toBase,
				Source:    domain.RateSourceMarket,
				FetchedAt: time.Now().UTC(),
			},
			Known: true,
		}
	}
	return usecase.ResolvedRate{
		Rate: domain.Rate{
			Currency:  currency,
			ToBase:    decimal.NewFromInt(1),
			Source:    domain.RateSourceMarket,
			FetchedAt: time.Now().UTC(),
		},
		Known: false,
	}
}
