package repository

import (
	"context"

	"smartfare/internal/domain"
)

// TripRepository defines the persistence operations for completed trips.
// Active trips live in the travel engine; only finalized records reach
// storage.
type TripRepository interface {
	// Create persists a completed trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetAll retrieves recent trips, newest first.
	GetAll(ctx context.Context) ([]*domain.Trip, error)

	// GetByAccountID retrieves an account's trips, newest first.
	GetByAccountID(ctx context.Context, accountID string) ([]*domain.Trip, error)
}
