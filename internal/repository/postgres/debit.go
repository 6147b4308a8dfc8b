package postgres

import (
	"context"
	"database/sql"
	"errors"

	"smartfare/internal/domain"
	"smartfare/internal/repository"
)

// DebitRepository is a PostgreSQL implementation of repository.DebitRepository.
type DebitRepository struct {
	q Querier
}

// NewDebitRepository creates a new PostgreSQL debit repository.
func NewDebitRepository(db *sql.DB) *DebitRepository {
	return &DebitRepository{q: db}
}

// NewDebitRepositoryWithTx creates a debit repository using a transaction.
func NewDebitRepositoryWithTx(tx *sql.Tx) *DebitRepository {
	return &DebitRepository{q: tx}
}

// Create persists a new debit.
func (r *DebitRepository) Create(ctx context.Context, debit *domain.Debit) error {
	query := `
		INSERT INTO debits (id, trip_id, account_id, amount, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query,
		debit.ID,
		debit.TripID,
		debit.AccountID,
		debit.Amount,
		debit.Status,
		debit.IdempotencyKey,
	)
	return err
}

// GetByID retrieves a debit by ID.
func (r *DebitRepository) GetByID(ctx context.Context, id string) (*domain.Debit, error) {
	query := `
		SELECT id, trip_id, account_id, amount, status, idempotency_key, created_at
		FROM debits WHERE id = $1
	`

	var d domain.Debit
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.TripID, &d.AccountID, &d.Amount, &d.Status, &d.IdempotencyKey, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// GetByIdempotencyKey retrieves a debit by idempotency key.
// Returns nil if no debit exists for the key.
func (r *DebitRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Debit, error) {
	query := `
		SELECT id, trip_id, account_id, amount, status, idempotency_key, created_at
		FROM debits WHERE idempotency_key = $1
	`

	var d domain.Debit
	err := r.q.QueryRowContext(ctx, query, key).Scan(
		&d.ID, &d.TripID, &d.AccountID, &d.Amount, &d.Status, &d.IdempotencyKey, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// UpdateStatus updates the status of a debit.
func (r *DebitRepository) UpdateStatus(ctx context.Context, id string, status domain.DebitStatus) error {
	query := `UPDATE debits SET status = $1 WHERE id = $2`
	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure DebitRepository implements repository.DebitRepository.
var _ repository.DebitRepository = (*DebitRepository)(nil)
