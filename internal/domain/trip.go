package domain

import "time"

// TripStatus represents the persisted status of a trip.
// The pending pickup/drop phases are engine states, not trip statuses.
type TripStatus string

const (
	TripStatusOngoing   TripStatus = "ONGOING"
	TripStatusCompleted TripStatus = "COMPLETED"
)

// Trip represents an active or completed trip. A trip is created only when
// pickup verification succeeds and is owned by the travel engine until
// completion, at which point ownership transfers to the caller that debits
// the wallet.
type Trip struct {
	ID             string
	AccountID      string
	Status         TripStatus
	PickupLocation string
	DropLocation   string
	PickupTime     time.Time
	DropTime       time.Time
	Distance       float64 // kilometers, full precision, non-decreasing while ONGOING
	EstimatedFare  int64
	ActualFare     int64 // snapshot of EstimatedFare, set only at completion
	PickupVerified bool
	DropVerified   bool
}

// Receipt represents a trip receipt generated at completion.
type Receipt struct {
	ID             string
	TripID         string
	AccountID      string
	PickupLocation string
	DropLocation   string
	DistanceKm     float64
	Fare           int64
	Duration       time.Duration
	StartedAt      time.Time
	EndedAt        time.Time
	CreatedAt      time.Time
}
