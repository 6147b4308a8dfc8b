package gps

import (
	"context"
	"errors"
	"time"

	"smartfare/internal/domain"
)

// Status represents the positioning status attached to each sample.
type Status string

const (
	StatusSearching Status = "SEARCHING"
	StatusLocked    Status = "LOCKED"
	StatusError     Status = "ERROR"
	StatusSimulated Status = "SIMULATED"
)

// Mode selects the position source implementation.
type Mode string

const (
	ModeLive      Mode = "live"
	ModeSimulated Mode = "simulated"
)

// Sample is a single position fix with its source status.
type Sample struct {
	Position domain.GeoPosition
	Status   Status
	At       time.Time
}

// Source produces position samples at irregular intervals.
//
// Cancel stops the source deterministically: once Cancel returns, no further
// samples are delivered on the subscription channel.
type Source interface {
	// Subscribe starts the source and returns its sample channel.
	// The channel is closed when the source is cancelled or ctx is done.
	Subscribe(ctx context.Context) (<-chan Sample, error)

	// Cancel stops the source. Safe to call more than once.
	Cancel()
}

var (
	// ErrSourceCancelled is returned when publishing to a cancelled source.
	ErrSourceCancelled = errors.New("position source cancelled")

	// ErrSourceUnavailable is returned when the positioning capability has
	// failed and the source is not producing samples until restarted.
	ErrSourceUnavailable = errors.New("position source unavailable")

	// ErrAlreadySubscribed is returned on a second Subscribe call.
	ErrAlreadySubscribed = errors.New("position source already subscribed")
)
