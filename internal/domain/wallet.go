package domain

import "time"

// DebitStatus represents the current status of a wallet debit.
type DebitStatus string

const (
	DebitStatusPending DebitStatus = "PENDING"
	DebitStatusSuccess DebitStatus = "SUCCESS"
	DebitStatusFailed  DebitStatus = "FAILED"
)

// Debit represents a wallet balance debit for a completed trip.
type Debit struct {
	ID             string
	TripID         string
	AccountID      string
	Amount         int64
	Status         DebitStatus
	IdempotencyKey string
	CreatedAt      time.Time
}
