package postgres

import (
	"context"
	"database/sql"
	"errors"

	"smartfare/internal/domain"
	"smartfare/internal/repository"
)

// AccountRepository is a PostgreSQL implementation of repository.AccountRepository.
type AccountRepository struct {
	q Querier
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{q: db}
}

// NewAccountRepositoryWithTx creates an account repository using a transaction.
func NewAccountRepositoryWithTx(tx *sql.Tx) *AccountRepository {
	return &AccountRepository{q: tx}
}

// Create persists a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, phone, balance, fingerprint_registered)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		account.ID,
		account.Name,
		account.Phone,
		account.Balance,
		account.FingerprintRegistered,
	)
	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, name, phone, balance, fingerprint_registered, created_at
		FROM accounts WHERE id = $1
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByPhone retrieves an account by phone number.
func (r *AccountRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	query := `
		SELECT id, name, phone, balance, fingerprint_registered, created_at
		FROM accounts WHERE phone = $1
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, phone))
}

// GetAll retrieves all accounts.
func (r *AccountRepository) GetAll(ctx context.Context) ([]*domain.Account, error) {
	query := `
		SELECT id, name, phone, balance, fingerprint_registered, created_at
		FROM accounts ORDER BY created_at DESC
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Phone, &a.Balance, &a.FingerprintRegistered, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

// Debit atomically subtracts amount from the account balance. The balance
// guard lives in the query so concurrent debits cannot overdraw.
func (r *AccountRepository) Debit(ctx context.Context, id string, amount int64) error {
	query := `
		UPDATE accounts SET balance = balance - $1
		WHERE id = $2 AND balance >= $1
	`
	result, err := r.q.ExecContext(ctx, query, amount, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	// Guarded update touched nothing: either the account does not exist
	// or the balance is too low.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return repository.ErrInsufficientFunds
}

// SetFingerprintRegistered marks the account's biometric enrollment as complete.
func (r *AccountRepository) SetFingerprintRegistered(ctx context.Context, id string) error {
	query := `UPDATE accounts SET fingerprint_registered = TRUE WHERE id = $1`
	result, err := r.q.ExecContext(ctx, query, id)
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

func (r *AccountRepository) scanOne(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Name, &a.Phone, &a.Balance, &a.FingerprintRegistered, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Ensure AccountRepository implements repository.AccountRepository.
var _ repository.AccountRepository = (*AccountRepository)(nil)
