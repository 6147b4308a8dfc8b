package service

import (
	"context"

	"github.com/google/uuid"

	"smartfare/internal/domain"
	"smartfare/internal/redis"
	"smartfare/internal/repository"
)

// AccountService handles wallet account operations.
type AccountService struct {
	cacheStore  *redis.CacheStore
	accountRepo repository.AccountRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(cacheStore *redis.CacheStore, accountRepo repository.AccountRepository) *AccountService {
	return &AccountService{
		cacheStore:  cacheStore,
		accountRepo: accountRepo,
	}
}

// RegisterAccountRequest contains the parameters for account registration.
type RegisterAccountRequest struct {
	Name           string
	Phone          string
	OpeningBalance int64
}

// Register creates a new account. Biometric enrollment happens separately.
func (s *AccountService) Register(ctx context.Context, req RegisterAccountRequest) (*domain.Account, error) {
	account := &domain.Account{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Phone:   req.Phone,
		Balance: req.OpeningBalance,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// Get retrieves an account, reading through the cache.
func (s *AccountService) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	if accountID == "" {
		return nil, ErrInvalidAccountID
	}

	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetAccount(ctx, accountID)
		if err == nil && cached != nil {
			return &domain.Account{
				ID:                    cached.ID,
				Name:                  cached.Name,
				Phone:                 cached.Phone,
				Balance:               cached.Balance,
				FingerprintRegistered: cached.FingerprintRegistered,
			}, nil
		}
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetAccount(ctx, &redis.CachedAccount{
			ID:                    account.ID,
			Name:                  account.Name,
			Phone:                 account.Phone,
			Balance:               account.Balance,
			FingerprintRegistered: account.FingerprintRegistered,
		})
	}

	return account, nil
}

// GetByPhone retrieves an account by phone number.
func (s *AccountService) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return s.accountRepo.GetByPhone(ctx, phone)
}

// GetAll retrieves all accounts.
func (s *AccountService) GetAll(ctx context.Context) ([]*domain.Account, error) {
	return s.accountRepo.GetAll(ctx)
}

// EnrollFingerprint marks the account's biometric enrollment as complete.
// The capture itself happens on the device; the service records the outcome.
func (s *AccountService) EnrollFingerprint(ctx context.Context, accountID string) error {
	if accountID == "" {
		return ErrInvalidAccountID
	}

	if err := s.accountRepo.SetFingerprintRegistered(ctx, accountID); err != nil {
		return err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateAccount(ctx, accountID)
	}

	return nil
}

// InvalidateCache drops the cached copy of an account after its balance
// changes.
func (s *AccountService) InvalidateCache(ctx context.Context, accountID string) {
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateAccount(ctx, accountID)
	}
}
