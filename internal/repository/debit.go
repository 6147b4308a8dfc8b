package repository

import (
	"context"

	"smartfare/internal/domain"
)

// DebitRepository defines the persistence operations for wallet debits.
type DebitRepository interface {
	// Create persists a new debit.
	Create(ctx context.Context, debit *domain.Debit) error

	// GetByID retrieves a debit by ID.
	GetByID(ctx context.Context, id string) (*domain.Debit, error)

	// GetByIdempotencyKey retrieves a debit by idempotency key.
	// Returns nil if no debit exists for the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Debit, error)

	// UpdateStatus updates the status of a debit.
	UpdateStatus(ctx context.Context, id string, status domain.DebitStatus) error
}
