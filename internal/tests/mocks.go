package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"smartfare/internal/domain"
	"smartfare/internal/redis"
	"smartfare/internal/repository"
	"smartfare/internal/service"
	"smartfare/internal/verify"
)

// ──────────────────────────────────────────────
// MOCK ACCOUNT REPOSITORY
// ──────────────────────────────────────────────

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	// Counters for verification
	CreateCallCount int32
	DebitCallCount  int32
	EnrollCallCount int32

	// Error injection
	CreateError error
	DebitError  error
}

// NewMockAccountRepository creates a new mock account repository.
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// AddAccount adds an account to the mock repository.
func (m *MockAccountRepository) AddAccount(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *account
	return &copy, nil
}

func (m *MockAccountRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.Phone == phone {
			copy := *a
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		copy := *a
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockAccountRepository) Debit(ctx context.Context, id string, amount int64) error {
	atomic.AddInt32(&m.DebitCallCount, 1)
	if m.DebitError != nil {
		return m.DebitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if account.Balance < amount {
		return repository.ErrInsufficientFunds
	}
	account.Balance -= amount
	return nil
}

func (m *MockAccountRepository) SetFingerprintRegistered(ctx context.Context, id string) error {
	atomic.AddInt32(&m.EnrollCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.FingerprintRegistered = true
	return nil
}

// GetBalance returns an account's balance for test assertions.
func (m *MockAccountRepository) GetBalance(id string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if account, ok := m.accounts[id]; ok {
		return account.Balance
	}
	return 0
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		copy := *t
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockTripRepository) GetByAccountID(ctx context.Context, accountID string) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.AccountID == accountID {
			copy := *t
			result = append(result, &copy)
		}
	}
	return result, nil
}

// GetTrip returns trip for assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of persisted trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK DEBIT REPOSITORY
// ──────────────────────────────────────────────

// MockDebitRepository is a mock implementation of DebitRepository.
type MockDebitRepository struct {
	mu     sync.RWMutex
	debits map[string]*domain.Debit

	// Counters
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockDebitRepository creates a new mock debit repository.
func NewMockDebitRepository() *MockDebitRepository {
	return &MockDebitRepository{
		debits: make(map[string]*domain.Debit),
	}
}

func (m *MockDebitRepository) Create(ctx context.Context, debit *domain.Debit) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debits[debit.ID] = debit
	return nil
}

func (m *MockDebitRepository) GetByID(ctx context.Context, id string) (*domain.Debit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	debit, ok := m.debits[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *debit
	return &copy, nil
}

func (m *MockDebitRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Debit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.debits {
		if d.IdempotencyKey == key {
			copy := *d
			return &copy, nil
		}
	}
	return nil, nil // Not found, but not an error for idempotency check
}

func (m *MockDebitRepository) UpdateStatus(ctx context.Context, id string, status domain.DebitStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	debit, ok := m.debits[id]
	if !ok {
		return repository.ErrNotFound
	}
	debit.Status = status
	return nil
}

// GetDebitByTripID returns the debit for a trip.
func (m *MockDebitRepository) GetDebitByTripID(tripID string) *domain.Debit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.debits {
		if d.TripID == tripID {
			return d
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK WALLET
// ──────────────────────────────────────────────

// MockWallet implements the Debiter contract without a SQL transaction:
// it debits the mock account repository and records the outcome, including
// the insufficient-funds path where the debit is recorded as failed.
type MockWallet struct {
	mu       sync.Mutex
	accounts *MockAccountRepository
	debits   *MockDebitRepository
	nextID   int32

	// Counters
	ProcessCallCount int32

	// Error injection
	ProcessError error
}

// NewMockWallet creates a mock wallet over the given mock repositories.
func NewMockWallet(accounts *MockAccountRepository, debits *MockDebitRepository) *MockWallet {
	return &MockWallet{
		accounts: accounts,
		debits:   debits,
	}
}

func (m *MockWallet) ProcessDebit(ctx context.Context, req service.ProcessDebitRequest) (*domain.Debit, error) {
	atomic.AddInt32(&m.ProcessCallCount, 1)
	if m.ProcessError != nil {
		return nil, m.ProcessError
	}

	key := "debit:" + req.TripID
	if existing, _ := m.debits.GetByIdempotencyKey(ctx, key); existing != nil {
		return existing, nil
	}

	debit := &domain.Debit{
		ID:             fmt.Sprintf("debit-%d", atomic.AddInt32(&m.nextID, 1)),
		TripID:         req.TripID,
		AccountID:      req.AccountID,
		Amount:         req.Amount,
		Status:         domain.DebitStatusSuccess,
		IdempotencyKey: key,
		CreatedAt:      time.Now(),
	}

	err := m.accounts.Debit(ctx, req.AccountID, req.Amount)
	if errors.Is(err, repository.ErrInsufficientFunds) {
		debit.Status = domain.DebitStatusFailed
	} else if err != nil {
		return nil, err
	}

	if err := m.debits.Create(ctx, debit); err != nil {
		return nil, err
	}
	return debit, nil
}

// ──────────────────────────────────────────────
// MOCK FEED STORE
// ──────────────────────────────────────────────

// MockFeedStore is a mock implementation of FeedStoreInterface.
type MockFeedStore struct {
	mu        sync.RWMutex
	snapshots map[string]*redis.TravelSnapshot
	positions map[string][2]float64

	// Counters
	PublishCallCount        int32
	UpdatePositionCallCount int32
	RemovePositionCallCount int32

	// Error injection
	PublishError error
}

// NewMockFeedStore creates a new mock feed store.
func NewMockFeedStore() *MockFeedStore {
	return &MockFeedStore{
		snapshots: make(map[string]*redis.TravelSnapshot),
		positions: make(map[string][2]float64),
	}
}

func (m *MockFeedStore) PublishSnapshot(ctx context.Context, snap *redis.TravelSnapshot) error {
	atomic.AddInt32(&m.PublishCallCount, 1)
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.AccountID] = snap
	return nil
}

func (m *MockFeedStore) GetSnapshot(ctx context.Context, accountID string) (*redis.TravelSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[accountID]
	if !ok {
		return nil, nil
	}
	copy := *snap
	return &copy, nil
}

func (m *MockFeedStore) ClearSnapshot(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, accountID)
	return nil
}

func (m *MockFeedStore) UpdatePosition(ctx context.Context, accountID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdatePositionCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[accountID] = [2]float64{lat, lng}
	return nil
}

func (m *MockFeedStore) RemovePosition(ctx context.Context, accountID string) error {
	atomic.AddInt32(&m.RemovePositionCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, accountID)
	return nil
}

// LatestSnapshot returns the last published snapshot for assertions.
func (m *MockFeedStore) LatestSnapshot(accountID string) *redis.TravelSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[accountID]
}

// HasPosition checks whether a rider position is tracked.
func (m *MockFeedStore) HasPosition(accountID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.positions[accountID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireTravelLock(ctx context.Context, accountID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:travel:" + accountID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseTravelLock(ctx context.Context, accountID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:travel:"+accountID)
	return nil
}

// IsLocked checks whether an account lock is held (for test assertions).
func (m *MockLockStore) IsLocked(accountID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:travel:"+accountID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK VERIFICATION GATE
// ──────────────────────────────────────────────

// MockGate is a scriptable verification gate. Results are consumed in
// order; the last one repeats.
type MockGate struct {
	mu      sync.Mutex
	results []verify.Result
	err     error

	// Counters
	VerifyCallCount int32
}

// NewMockGate creates a gate that returns the given results in sequence.
func NewMockGate(results ...verify.Result) *MockGate {
	if len(results) == 0 {
		results = []verify.Result{{OK: true}}
	}
	return &MockGate{results: results}
}

// SetError makes subsequent verifications fail with err.
func (m *MockGate) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockGate) Verify(ctx context.Context) (verify.Result, error) {
	atomic.AddInt32(&m.VerifyCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return verify.Result{}, m.err
	}
	result := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return result, nil
}
