package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInsufficientFunds is returned when a balance debit would take an
	// account below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
