package repository

import (
	"context"

	"smartfare/internal/domain"
)

// AccountRepository defines the persistence operations for wallet accounts.
type AccountRepository interface {
	// Create persists a new account.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// GetByPhone retrieves an account by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)

	// GetAll retrieves all accounts.
	GetAll(ctx context.Context) ([]*domain.Account, error)

	// Debit atomically subtracts amount from the account balance.
	// Returns ErrInsufficientFunds if the balance would go negative.
	Debit(ctx context.Context, id string, amount int64) error

	// SetFingerprintRegistered marks the account's biometric enrollment
	// as complete.
	SetFingerprintRegistered(ctx context.Context, id string) error
}
