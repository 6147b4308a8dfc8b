package postgres

import (
	"context"
	"database/sql"
	"errors"

	"smartfare/internal/domain"
	"smartfare/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `
	id, account_id, status, pickup_location, drop_location,
	pickup_time, drop_time, distance_km, estimated_fare, actual_fare,
	pickup_verified, drop_verified
`

// Create persists a completed trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var dropTime sql.NullTime
	if !trip.DropTime.IsZero() {
		dropTime = sql.NullTime{Time: trip.DropTime, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.AccountID,
		trip.Status,
		trip.PickupLocation,
		trip.DropLocation,
		trip.PickupTime,
		dropTime,
		trip.Distance,
		trip.EstimatedFare,
		trip.ActualFare,
		trip.PickupVerified,
		trip.DropVerified,
	)
	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// GetAll retrieves recent trips, newest first.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY pickup_time DESC LIMIT 100`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrips(rows)
}

// GetByAccountID retrieves an account's trips, newest first.
func (r *TripRepository) GetByAccountID(ctx context.Context, accountID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE account_id = $1 ORDER BY pickup_time DESC LIMIT 100`
	rows, err := r.q.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrips(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var dropTime sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.AccountID,
		&trip.Status,
		&trip.PickupLocation,
		&trip.DropLocation,
		&trip.PickupTime,
		&dropTime,
		&trip.Distance,
		&trip.EstimatedFare,
		&trip.ActualFare,
		&trip.PickupVerified,
		&trip.DropVerified,
	)
	if err != nil {
		return nil, err
	}

	if dropTime.Valid {
		trip.DropTime = dropTime.Time
	}
	return &trip, nil
}

func collectTrips(rows *sql.Rows) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
