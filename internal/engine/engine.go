// Package engine implements the trip lifecycle state machine: the single
// owner of the active trip record, fed by a position source and gated by
// biometric verification at pickup and drop.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartfare/internal/domain"
	"smartfare/internal/fare"
	"smartfare/internal/geo"
	"smartfare/internal/gps"
	"smartfare/internal/verify"
)

// State is the engine's travel state. Only ONGOING and COMPLETED are
// reflected on the trip record; the rest are engine-only.
type State string

const (
	StateIdle      State = "IDLE"
	StatePickup    State = "PICKUP"
	StateOngoing   State = "ONGOING"
	StateDrop      State = "DROP"
	StateCompleted State = "COMPLETED"
)

// Snapshot is an immutable view of the travel session, published to the
// observer on every state change and every accepted position sample.
type Snapshot struct {
	AccountID    string
	State        State
	Trip         *domain.Trip // copy of the trip record, nil before pickup verification
	Position     domain.GeoPosition
	HasPosition  bool
	SourceStatus gps.Status
	DistanceKm   float64 // rounded for display; Trip.Distance keeps full precision
}

// Observer receives trip snapshots. It is invoked with the engine lock
// held to preserve snapshot ordering, so it must not call back into the
// engine.
type Observer func(Snapshot)

// Config contains the collaborators for a travel engine.
type Config struct {
	AccountID string

	// Gate performs biometric verification at pickup and drop.
	Gate verify.Gate

	// NewSource creates the position source for a trip. A source is
	// single-use: one is created per trip at pickup verification.
	NewSource func() gps.Source

	// Policy maps accumulated distance to fare. Zero value is replaced by
	// fare.DefaultPolicy.
	Policy fare.Policy

	// NoiseThresholdKm overrides the geo filter threshold when positive.
	NoiseThresholdKm float64

	// Observer receives snapshots. Optional.
	Observer Observer

	// NewID and Now are injectable for deterministic tests.
	NewID func() string
	Now   func() time.Time
}

// Engine is the trip state machine for a single rider session. All trip
// mutation is serialized through its mutex; position samples are applied
// one at a time, preserving the monotonic-distance invariant.
type Engine struct {
	mu sync.Mutex

	accountID string
	gate      verify.Gate
	newSource func() gps.Source
	policy    fare.Policy
	threshold float64
	observer  Observer
	newID     func() string
	now       func() time.Time

	state        State
	trip         *domain.Trip
	tracker      *geo.Tracker
	source       gps.Source
	sourceCancel context.CancelFunc
	sourceStatus gps.Status
}

// New creates an engine in the IDLE state.
func New(cfg Config) *Engine {
	if cfg.Policy == (fare.Policy{}) {
		cfg.Policy = fare.DefaultPolicy()
	}
	if cfg.NoiseThresholdKm <= 0 {
		cfg.NoiseThresholdKm = geo.DefaultNoiseThresholdKm
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.New().String() }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Engine{
		accountID: cfg.AccountID,
		gate:      cfg.Gate,
		newSource: cfg.NewSource,
		policy:    cfg.Policy,
		threshold: cfg.NoiseThresholdKm,
		observer:  cfg.Observer,
		newID:     cfg.NewID,
		now:       cfg.Now,
		state:     StateIdle,
	}
}

// State returns the current engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns the current session view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// RequestPickup moves IDLE to PICKUP: the rider intends to start a trip
// and awaits biometric verification. Account gating (enrollment, balance)
// is the caller's responsibility.
func (e *Engine) RequestPickup() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		return ErrTravelInProgress
	}

	e.state = StatePickup
	e.publishLocked()
	return nil
}

// ConfirmPickup attempts pickup verification. On gate success it creates
// the trip record, subscribes to the position source, and enters ONGOING.
// On denial the state stays PICKUP and the attempt may be retried.
func (e *Engine) ConfirmPickup(ctx context.Context, location string) error {
	e.mu.Lock()
	if e.state != StatePickup {
		e.mu.Unlock()
		return ErrPickupNotRequested
	}
	e.mu.Unlock()

	// Verification suspends the state machine; the lock is not held while
	// waiting on the external capability.
	result, err := e.gate.Verify(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if !result.OK {
		reason := result.Reason
		if reason == "" {
			reason = "fingerprint not recognized"
		}
		return fmt.Errorf("%w: %s", ErrVerificationFailed, reason)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// A concurrent attempt may have won while the gate was scanning.
	if e.state != StatePickup {
		return ErrPickupNotRequested
	}

	source := e.newSource()
	sourceCtx, cancel := context.WithCancel(context.Background())
	samples, err := source.Subscribe(sourceCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrPositionSourceUnavailable, err)
	}

	now := e.now()
	e.trip = &domain.Trip{
		ID:             e.newID(),
		AccountID:      e.accountID,
		Status:         domain.TripStatusOngoing,
		PickupLocation: location,
		PickupTime:     now,
		Distance:       0,
		EstimatedFare:  e.policy.Fare(0), // fare floor applies before any movement
		PickupVerified: true,
	}
	e.tracker = geo.NewTrackerWithThreshold(e.threshold)
	e.source = source
	e.sourceCancel = cancel
	e.sourceStatus = gps.StatusSearching
	e.state = StateOngoing

	go e.consume(samples)

	e.publishLocked()
	return nil
}

// consume applies the sample stream. A single goroutine per trip reads the
// channel, so no two samples race against the same trip.
func (e *Engine) consume(samples <-chan gps.Sample) {
	for sample := range samples {
		e.RecordPosition(sample)
	}
}

// RecordPosition applies one position sample. It is a silent no-op unless
// the engine is ONGOING; late samples from a cancelled source are
// discarded here.
func (e *Engine) RecordPosition(sample gps.Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateOngoing {
		return
	}

	if sample.Status != "" && sample.Status != e.sourceStatus {
		e.sourceStatus = sample.Status
		if sample.Status == gps.StatusError {
			// Capability failure carries no position; surface the status.
			e.publishLocked()
			return
		}
	}

	if !sample.Position.Valid() {
		log.Printf("discarding invalid position sample: %+v", sample.Position)
		return
	}

	_, accepted := e.tracker.Advance(sample.Position)
	if !accepted {
		// Reference moved, distance did not; nothing new to publish.
		return
	}

	e.trip.Distance = e.tracker.DistanceKm()
	e.trip.EstimatedFare = e.policy.Fare(e.trip.Distance)
	e.publishLocked()
}

// RequestDrop moves ONGOING to DROP. The position source is cancelled
// synchronously, so no sample can accrue distance after this returns.
func (e *Engine) RequestDrop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateOngoing {
		return ErrNoActiveTrip
	}

	e.stopSourceLocked()
	e.state = StateDrop
	e.publishLocked()
	return nil
}

// ConfirmDrop attempts drop verification. On gate success the trip is
// finalized (actual fare snapshots the estimate, distance freezes) and
// ownership of the record transfers to the caller; the engine's working
// copy is cleared. On denial the state stays DROP for retry.
func (e *Engine) ConfirmDrop(ctx context.Context, location string) (*domain.Trip, error) {
	e.mu.Lock()
	if e.state != StateDrop {
		e.mu.Unlock()
		return nil, ErrNoActiveTrip
	}
	e.mu.Unlock()

	result, err := e.gate.Verify(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if !result.OK {
		reason := result.Reason
		if reason == "" {
			reason = "fingerprint not recognized"
		}
		return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, reason)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateDrop {
		return nil, ErrNoActiveTrip
	}

	trip := e.trip
	trip.DropVerified = true
	trip.DropTime = e.now()
	trip.DropLocation = location
	trip.ActualFare = trip.EstimatedFare
	trip.Status = domain.TripStatusCompleted

	e.state = StateCompleted
	e.publishLocked()

	// Hand off: the completed record now belongs to the caller.
	e.trip = nil
	e.tracker = nil

	return trip, nil
}

// Reset returns the engine to IDLE for a new trip. Legal from COMPLETED,
// and from PICKUP when the rider abandons before any trip exists.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateCompleted && e.state != StatePickup {
		return ErrTravelInProgress
	}

	e.state = StateIdle
	e.trip = nil
	e.tracker = nil
	e.publishLocked()
	return nil
}

// stopSourceLocked cancels the position source. Cancellation is
// acknowledged before return: the source delivers nothing afterwards.
func (e *Engine) stopSourceLocked() {
	if e.sourceCancel != nil {
		e.sourceCancel()
		e.sourceCancel = nil
	}
	if e.source != nil {
		e.source.Cancel()
		e.source = nil
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		AccountID:    e.accountID,
		State:        e.state,
		SourceStatus: e.sourceStatus,
	}

	if e.trip != nil {
		tripCopy := *e.trip
		snap.Trip = &tripCopy
		snap.DistanceKm = geo.RoundKm(e.trip.Distance)
	}

	if e.tracker != nil {
		if pos, ok := e.tracker.LastPosition(); ok {
			snap.Position = pos
			snap.HasPosition = true
		}
	}

	return snap
}

func (e *Engine) publishLocked() {
	if e.observer != nil {
		e.observer(e.snapshotLocked())
	}
}
