package engine

import "errors"

var (
	// ErrVerificationFailed is returned when the biometric gate denies a
	// pickup or drop verification. Retryable without limit.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrNoActiveTrip is returned when a drop operation is invoked with no
	// trip in the expected state. Indicates an out-of-sequence caller.
	ErrNoActiveTrip = errors.New("no active trip")

	// ErrTravelInProgress is returned when pickup is requested while a
	// previous travel session has not finished.
	ErrTravelInProgress = errors.New("travel already in progress")

	// ErrPickupNotRequested is returned when pickup verification is
	// attempted without a pending pickup.
	ErrPickupNotRequested = errors.New("pickup not requested")

	// ErrPositionSourceUnavailable is returned when the position source
	// cannot be started. Non-fatal: the caller may switch to the simulated
	// source and retry pickup verification.
	ErrPositionSourceUnavailable = errors.New("position source unavailable")

	// ErrInvalidPosition marks a malformed position sample. Such samples
	// are discarded and logged; they never abort the stream.
	ErrInvalidPosition = errors.New("invalid position sample")
)
