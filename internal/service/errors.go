package service

import "errors"

var (
	// ErrInvalidAccountID is returned when account ID is empty.
	ErrInvalidAccountID = errors.New("invalid account id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidDebitID is returned when debit ID is empty.
	ErrInvalidDebitID = errors.New("invalid debit id")

	// ErrInvalidDebitAmount is returned when a debit amount is not positive.
	ErrInvalidDebitAmount = errors.New("invalid debit amount")

	// ErrInvalidLocation is returned when a location label or coordinates
	// are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrFingerprintNotEnrolled is returned when travel is requested for an
	// account without completed biometric enrollment.
	ErrFingerprintNotEnrolled = errors.New("fingerprint not enrolled")

	// ErrInsufficientBalance is returned when the account balance is below
	// the minimum fare floor.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNoTravelSession is returned when a travel operation targets an
	// account with no session.
	ErrNoTravelSession = errors.New("no travel session")

	// ErrVerificationInProgress is returned when another verification or
	// settlement already holds the account's travel lock.
	ErrVerificationInProgress = errors.New("verification already in progress")

	// ErrLiveModeDisabled is returned when a device fix is pushed while
	// the service runs with the simulated position source.
	ErrLiveModeDisabled = errors.New("live position feed disabled")
)
