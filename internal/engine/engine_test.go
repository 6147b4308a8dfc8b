package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"smartfare/internal/domain"
	"smartfare/internal/fare"
	"smartfare/internal/geo"
	"smartfare/internal/gps"
	"smartfare/internal/verify"
)

// scriptedGate returns canned verification results in order, repeating the
// last one once the script runs out.
type scriptedGate struct {
	mu      sync.Mutex
	results []verify.Result
	err     error
	calls   int
}

func (g *scriptedGate) Verify(ctx context.Context) (verify.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return verify.Result{}, g.err
	}
	if len(g.results) == 0 {
		return verify.Result{OK: true}, nil
	}
	r := g.results[0]
	if len(g.results) > 1 {
		g.results = g.results[1:]
	}
	return r, nil
}

// stubSource is a manually driven position source.
type stubSource struct {
	mu           sync.Mutex
	out          chan gps.Sample
	cancelled    bool
	cancelCount  int
	subscribeErr error
}

func newStubSource() *stubSource {
	return &stubSource{out: make(chan gps.Sample, 16)}
}

func (s *stubSource) Subscribe(ctx context.Context) (<-chan gps.Sample, error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	return s.out, nil
}

func (s *stubSource) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelCount++
	if s.cancelled {
		return
	}
	s.cancelled = true
	close(s.out)
}

func (s *stubSource) cancels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelCount
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix
	}
}

func newTestEngine(gate verify.Gate, source gps.Source, observer Observer) *Engine {
	return New(Config{
		AccountID: "acct-1",
		Gate:      gate,
		NewSource: func() gps.Source { return source },
		Observer:  observer,
		NewID:     sequentialIDs("trip-1"),
		Now:       fixedClock(time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)),
	})
}

func sampleAt(lat, lng float64) gps.Sample {
	return gps.Sample{
		Position: domain.GeoPosition{Lat: lat, Lng: lng},
		Status:   gps.StatusLocked,
		At:       time.Now(),
	}
}

func TestEngine_FullLifecycle(t *testing.T) {
	t.Parallel()

	gate := &scriptedGate{}
	source := newStubSource()
	eng := newTestEngine(gate, source, nil)
	ctx := context.Background()

	if eng.State() != StateIdle {
		t.Fatalf("expected IDLE, got %s", eng.State())
	}

	if err := eng.RequestPickup(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.State() != StatePickup {
		t.Fatalf("expected PICKUP, got %s", eng.State())
	}

	if err := eng.ConfirmPickup(ctx, "Central Station"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.State() != StateOngoing {
		t.Fatalf("expected ONGOING, got %s", eng.State())
	}

	snap := eng.Snapshot()
	if snap.Trip == nil {
		t.Fatal("expected trip record after pickup verification")
	}
	if !snap.Trip.PickupVerified || snap.Trip.PickupLocation != "Central Station" {
		t.Errorf("pickup fields not set: %+v", snap.Trip)
	}
	if snap.Trip.Distance != 0 {
		t.Errorf("new trip should start at zero distance: %+v", snap.Trip)
	}
	if snap.Trip.EstimatedFare != fare.DefaultPolicy().MinimumFare {
		t.Errorf("new trip should start at the fare floor: %+v", snap.Trip)
	}

	// Anchor fix plus real movement.
	eng.RecordPosition(sampleAt(0, 0))
	eng.RecordPosition(sampleAt(0, 0.01))

	snap = eng.Snapshot()
	wantKm := geo.HaversineKm(0, 0, 0, 0.01)
	if math.Abs(snap.Trip.Distance-wantKm) > 1e-9 {
		t.Errorf("expected distance %f, got %f", wantKm, snap.Trip.Distance)
	}
	if snap.Trip.EstimatedFare != fare.DefaultPolicy().Fare(wantKm) {
		t.Errorf("estimated fare not recomputed: %d", snap.Trip.EstimatedFare)
	}

	if err := eng.RequestDrop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.State() != StateDrop {
		t.Fatalf("expected DROP, got %s", eng.State())
	}
	if source.cancels() == 0 {
		t.Error("position source must be cancelled on entering DROP")
	}

	trip, err := eng.ConfirmDrop(ctx, "Airport")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.State() != StateCompleted {
		t.Fatalf("expected COMPLETED, got %s", eng.State())
	}
	if trip.Status != domain.TripStatusCompleted {
		t.Errorf("expected COMPLETED trip status, got %s", trip.Status)
	}
	if !trip.DropVerified || trip.DropLocation != "Airport" || trip.DropTime.IsZero() {
		t.Errorf("drop fields not set: %+v", trip)
	}
	if trip.ActualFare != trip.EstimatedFare {
		t.Errorf("actual fare must snapshot the estimate: %d vs %d", trip.ActualFare, trip.EstimatedFare)
	}

	// Ownership transferred; the engine's working copy is cleared.
	if eng.Snapshot().Trip != nil {
		t.Error("expected engine working copy to be cleared after handoff")
	}

	if err := eng.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.State() != StateIdle {
		t.Fatalf("expected IDLE after reset, got %s", eng.State())
	}
}

func TestEngine_PickupVerificationDenied(t *testing.T) {
	t.Parallel()

	gate := &scriptedGate{results: []verify.Result{
		{OK: false, Reason: "finger not recognized"},
		{OK: true},
	}}
	eng := newTestEngine(gate, newStubSource(), nil)
	ctx := context.Background()

	if err := eng.RequestPickup(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := eng.ConfirmPickup(ctx, "Stop A")
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if eng.State() != StatePickup {
		t.Errorf("denied verification must keep PICKUP, got %s", eng.State())
	}
	if eng.Snapshot().Trip != nil {
		t.Error("denied verification must not create a trip")
	}

	// Retry succeeds.
	if err := eng.ConfirmPickup(ctx, "Stop A"); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if eng.State() != StateOngoing {
		t.Errorf("expected ONGOING after retry, got %s", eng.State())
	}
}

func TestEngine_DropVerificationDeniedKeepsTripIntact(t *testing.T) {
	t.Parallel()

	gate := &scriptedGate{results: []verify.Result{
		{OK: true},
		{OK: false, Reason: "sensor timeout"},
		{OK: true},
	}}
	eng := newTestEngine(gate, newStubSource(), nil)
	ctx := context.Background()

	eng.RequestPickup()
	eng.ConfirmPickup(ctx, "Stop A")
	eng.RecordPosition(sampleAt(0, 0))
	eng.RecordPosition(sampleAt(0, 0.02))
	eng.RequestDrop()

	before := eng.Snapshot()

	_, err := eng.ConfirmDrop(ctx, "Stop B")
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if eng.State() != StateDrop {
		t.Errorf("denied drop must keep DROP, got %s", eng.State())
	}

	after := eng.Snapshot()
	if after.Trip == nil || after.Trip.Distance != before.Trip.Distance {
		t.Error("denied verification must not mutate the trip")
	}
	if after.Trip.DropVerified || after.Trip.ActualFare != 0 {
		t.Errorf("drop fields must stay unset on denial: %+v", after.Trip)
	}

	if _, err := eng.ConfirmDrop(ctx, "Stop B"); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
}

func TestEngine_OperationsOutOfSequence(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(&scriptedGate{}, newStubSource(), nil)
	ctx := context.Background()

	if err := eng.ConfirmPickup(ctx, "x"); !errors.Is(err, ErrPickupNotRequested) {
		t.Errorf("expected ErrPickupNotRequested, got %v", err)
	}
	if err := eng.RequestDrop(); !errors.Is(err, ErrNoActiveTrip) {
		t.Errorf("expected ErrNoActiveTrip, got %v", err)
	}
	if _, err := eng.ConfirmDrop(ctx, "x"); !errors.Is(err, ErrNoActiveTrip) {
		t.Errorf("expected ErrNoActiveTrip, got %v", err)
	}

	eng.RequestPickup()
	if err := eng.RequestPickup(); !errors.Is(err, ErrTravelInProgress) {
		t.Errorf("expected ErrTravelInProgress, got %v", err)
	}
}

func TestEngine_RecordPositionNoOpOutsideOngoing(t *testing.T) {
	t.Parallel()

	gate := &scriptedGate{}
	eng := newTestEngine(gate, newStubSource(), nil)
	ctx := context.Background()

	// IDLE: nothing to mutate, nothing to panic on.
	eng.RecordPosition(sampleAt(0, 0.5))

	eng.RequestPickup()
	eng.RecordPosition(sampleAt(0, 0.5)) // PICKUP: still a no-op

	eng.ConfirmPickup(ctx, "Stop A")
	eng.RecordPosition(sampleAt(0, 0))
	eng.RecordPosition(sampleAt(0, 0.01))
	distance := eng.Snapshot().Trip.Distance

	eng.RequestDrop()

	// Samples leaking through after cancellation must not alter distance.
	eng.RecordPosition(sampleAt(0, 0.5))
	if got := eng.Snapshot().Trip.Distance; got != distance {
		t.Errorf("distance changed in DROP state: %f vs %f", got, distance)
	}

	trip, err := eng.ConfirmDrop(ctx, "Stop B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	eng.RecordPosition(sampleAt(0, 1.0))
	if trip.Distance != distance {
		t.Errorf("completed trip distance changed: %f vs %f", trip.Distance, distance)
	}
}

func TestEngine_SourceUnavailableKeepsPickup(t *testing.T) {
	t.Parallel()

	source := newStubSource()
	source.subscribeErr = gps.ErrSourceUnavailable
	eng := newTestEngine(&scriptedGate{}, source, nil)
	ctx := context.Background()

	eng.RequestPickup()
	err := eng.ConfirmPickup(ctx, "Stop A")
	if !errors.Is(err, ErrPositionSourceUnavailable) {
		t.Fatalf("expected ErrPositionSourceUnavailable, got %v", err)
	}
	if eng.State() != StatePickup {
		t.Errorf("failed subscribe must keep PICKUP, got %s", eng.State())
	}
	if eng.Snapshot().Trip != nil {
		t.Error("failed subscribe must not create a trip")
	}
}

func TestEngine_InvalidSamplesDiscarded(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(&scriptedGate{}, newStubSource(), nil)
	ctx := context.Background()

	eng.RequestPickup()
	eng.ConfirmPickup(ctx, "Stop A")
	eng.RecordPosition(sampleAt(0, 0))

	eng.RecordPosition(sampleAt(91, 0))    // latitude out of range
	eng.RecordPosition(sampleAt(0, -181)) // longitude out of range

	if got := eng.Snapshot().Trip.Distance; got != 0 {
		t.Errorf("invalid samples must not accrue distance, got %f", got)
	}

	// The stream survives: a valid sample still accrues.
	eng.RecordPosition(sampleAt(0, 0.01))
	if got := eng.Snapshot().Trip.Distance; got == 0 {
		t.Error("valid sample after invalid ones should accrue distance")
	}
}

func TestEngine_NoiseFilteredEndToEnd(t *testing.T) {
	t.Parallel()

	var snapshots []Snapshot
	observer := func(s Snapshot) { snapshots = append(snapshots, s) }
	eng := newTestEngine(&scriptedGate{}, newStubSource(), observer)
	ctx := context.Background()

	eng.RequestPickup()
	eng.ConfirmPickup(ctx, "Stop A")

	// Anchor, sub-threshold jitter (~1.1 m), then real movement.
	eng.RecordPosition(sampleAt(0, 0))
	eng.RecordPosition(sampleAt(0, 0.00001))
	eng.RecordPosition(sampleAt(0, 0.01))

	snap := eng.Snapshot()

	// Distance measured from the drifted reference, not the anchor.
	wantKm := geo.HaversineKm(0, 0.00001, 0, 0.01)
	if math.Abs(snap.Trip.Distance-wantKm) > 1e-9 {
		t.Errorf("expected %f km, got %f", wantKm, snap.Trip.Distance)
	}

	wantFare := int64(math.Ceil(wantKm * 2))
	if wantFare < 5 {
		wantFare = 5
	}
	if snap.Trip.EstimatedFare != wantFare {
		t.Errorf("expected fare %d, got %d", wantFare, snap.Trip.EstimatedFare)
	}

	// Snapshots: pickup requested, ongoing, one accepted sample. The
	// anchor and the jitter publish nothing.
	if len(snapshots) != 3 {
		t.Errorf("expected 3 snapshots, got %d", len(snapshots))
	}
}

func TestEngine_DistanceMonotonicAcrossSamples(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(&scriptedGate{}, newStubSource(), nil)
	ctx := context.Background()

	eng.RequestPickup()
	eng.ConfirmPickup(ctx, "Stop A")

	fixes := []domain.GeoPosition{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.002},
		{Lat: 0, Lng: 0.002000001},
		{Lat: 0, Lng: 0.001}, // backtrack
		{Lat: 0.001, Lng: 0.001},
	}

	prev := 0.0
	for i, p := range fixes {
		eng.RecordPosition(gps.Sample{Position: p, Status: gps.StatusLocked})
		d := eng.Snapshot().Trip.Distance
		if d < prev {
			t.Fatalf("distance decreased at sample %d: %f < %f", i, d, prev)
		}
		prev = d
	}
}

func TestEngine_ResetOnlyFromCompletedOrPickup(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(&scriptedGate{}, newStubSource(), nil)
	ctx := context.Background()

	eng.RequestPickup()
	eng.ConfirmPickup(ctx, "Stop A")

	if err := eng.Reset(); !errors.Is(err, ErrTravelInProgress) {
		t.Errorf("reset from ONGOING must fail, got %v", err)
	}

	eng.RequestDrop()
	if err := eng.Reset(); !errors.Is(err, ErrTravelInProgress) {
		t.Errorf("reset from DROP must fail, got %v", err)
	}
}
