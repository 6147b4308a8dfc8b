package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"smartfare/internal/domain"
	"smartfare/internal/repository"
	"smartfare/internal/repository/postgres"
)

// Debiter settles a completed trip's fare against the rider's wallet.
type Debiter interface {
	ProcessDebit(ctx context.Context, req ProcessDebitRequest) (*domain.Debit, error)
}

// WalletService debits wallet balances for completed trips.
type WalletService struct {
	db          *sql.DB
	debitRepo   repository.DebitRepository
	accountRepo repository.AccountRepository
}

// NewWalletService creates a new WalletService.
func NewWalletService(db *sql.DB, debitRepo repository.DebitRepository, accountRepo repository.AccountRepository) *WalletService {
	return &WalletService{
		db:          db,
		debitRepo:   debitRepo,
		accountRepo: accountRepo,
	}
}

// ProcessDebitRequest contains the parameters for a wallet debit.
type ProcessDebitRequest struct {
	TripID    string
	AccountID string
	Amount    int64
}

// ProcessDebit debits the fare for a trip exactly once. The debit record
// and the balance update commit in one transaction; repeated calls for
// the same trip return the original debit.
func (s *WalletService) ProcessDebit(ctx context.Context, req ProcessDebitRequest) (*domain.Debit, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.AccountID == "" {
		return nil, ErrInvalidAccountID
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidDebitAmount
	}

	idempotencyKey := fmt.Sprintf("debit:%s", req.TripID)

	existing, err := s.debitRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	debit := &domain.Debit{
		ID:             uuid.New().String(),
		TripID:         req.TripID,
		AccountID:      req.AccountID,
		Amount:         req.Amount,
		Status:         domain.DebitStatusPending,
		IdempotencyKey: idempotencyKey,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txDebitRepo := postgres.NewDebitRepositoryWithTx(tx)
	txAccountRepo := postgres.NewAccountRepositoryWithTx(tx)

	if err = txDebitRepo.Create(ctx, debit); err != nil {
		return nil, err
	}

	err = txAccountRepo.Debit(ctx, req.AccountID, req.Amount)
	if errors.Is(err, repository.ErrInsufficientFunds) {
		// The trip still completes; the debit is recorded as failed and
		// can be retried after a top-up.
		_ = tx.Rollback()
		err = nil

		debit.Status = domain.DebitStatusFailed
		if createErr := s.debitRepo.Create(ctx, debit); createErr != nil {
			return nil, createErr
		}
		return debit, nil
	}
	if err != nil {
		return nil, err
	}

	debit.Status = domain.DebitStatusSuccess
	if err = txDebitRepo.UpdateStatus(ctx, debit.ID, domain.DebitStatusSuccess); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return debit, nil
}

// GetDebit retrieves a debit by ID.
func (s *WalletService) GetDebit(ctx context.Context, debitID string) (*domain.Debit, error) {
	if debitID == "" {
		return nil, ErrInvalidDebitID
	}

	return s.debitRepo.GetByID(ctx, debitID)
}

// Ensure WalletService implements Debiter.
var _ Debiter = (*WalletService)(nil)
