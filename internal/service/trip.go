package service

import (
	"context"

	"smartfare/internal/domain"
	"smartfare/internal/repository"
)

// TripService exposes completed trip history. Active trips live in the
// travel engine and are read through TravelService.
type TripService struct {
	tripRepo repository.TripRepository
}

// NewTripService creates a new TripService.
func NewTripService(tripRepo repository.TripRepository) *TripService {
	return &TripService{tripRepo: tripRepo}
}

// GetTrip retrieves a completed trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, tripID)
}

// GetAllTrips retrieves all completed trips.
func (s *TripService) GetAllTrips(ctx context.Context) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx)
}

// GetAccountTrips retrieves an account's completed trips.
func (s *TripService) GetAccountTrips(ctx context.Context, accountID string) ([]*domain.Trip, error) {
	if accountID == "" {
		return nil, ErrInvalidAccountID
	}
	return s.tripRepo.GetByAccountID(ctx, accountID)
}
