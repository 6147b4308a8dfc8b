package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartfare/internal/domain"
	"smartfare/internal/engine"
	"smartfare/internal/gps"
	"smartfare/internal/repository"
	"smartfare/internal/service"
	"smartfare/internal/verify"
)

// fixture wires a TravelService over mocks, matching the production
// wiring in cmd/server.
type fixture struct {
	accounts *MockAccountRepository
	trips    *MockTripRepository
	debits   *MockDebitRepository
	wallet   *MockWallet
	feed     *MockFeedStore
	locks    *MockLockStore
	gate     *MockGate

	accountService *service.AccountService
	travel         *service.TravelService
}

func newFixture(gate *MockGate, mode gps.Mode) *fixture {
	f := &fixture{
		accounts: NewMockAccountRepository(),
		trips:    NewMockTripRepository(),
		debits:   NewMockDebitRepository(),
		feed:     NewMockFeedStore(),
		locks:    NewMockLockStore(),
		gate:     gate,
	}
	f.wallet = NewMockWallet(f.accounts, f.debits)
	f.accountService = service.NewAccountService(nil, f.accounts)

	notifications := service.NewNotificationService()
	f.travel = service.NewTravelService(service.TravelConfig{
		Accounts:          f.accountService,
		TripRepo:          f.trips,
		Wallet:            f.wallet,
		Receipts:          service.NewReceiptService(notifications),
		Notifications:     notifications,
		FeedStore:         f.feed,
		LockStore:         f.locks,
		Gate:              gate,
		Mode:              mode,
		SimulatedInterval: 10 * time.Millisecond,
	})
	return f
}

func (f *fixture) addRider(id string, balance int64) {
	f.accounts.AddAccount(&domain.Account{
		ID:                    id,
		Name:                  "Rider",
		Phone:                 "01700000000",
		Balance:               balance,
		FingerprintRegistered: true,
	})
}

// waitUntil polls cond until it holds or the deadline passes. Position
// samples flow through a channel, so accrual is observed asynchronously.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTravelLifecycle_LiveMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(NewMockGate(), gps.ModeLive)
	f.addRider("acct-1", 100)

	snap, err := f.travel.BeginTravel(ctx, "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.State != engine.StatePickup {
		t.Fatalf("expected PICKUP, got %s", snap.State)
	}

	snap, err = f.travel.VerifyPickup(ctx, "acct-1", "Central Station")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.State != engine.StateOngoing {
		t.Fatalf("expected ONGOING, got %s", snap.State)
	}
	if snap.Trip == nil || !snap.Trip.PickupVerified {
		t.Fatalf("trip not created on pickup verification: %+v", snap.Trip)
	}
	if f.locks.IsLocked("acct-1") {
		t.Error("travel lock must be released after verification")
	}

	// Anchor fix plus real movement.
	if err := f.travel.PublishPosition(ctx, "acct-1", domain.GeoPosition{Lat: 23.78, Lng: 90.40}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.travel.PublishPosition(ctx, "acct-1", domain.GeoPosition{Lat: 23.78, Lng: 90.41}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitUntil(t, time.Second, func() bool {
		s := f.feed.LatestSnapshot("acct-1")
		return s != nil && s.DistanceKm > 0
	})
	if !f.feed.HasPosition("acct-1") {
		t.Error("rider position must be tracked while ongoing")
	}

	snap, err = f.travel.EndTravel(ctx, "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.State != engine.StateDrop {
		t.Fatalf("expected DROP, got %s", snap.State)
	}

	result, err := f.travel.VerifyDrop(ctx, "acct-1", "Airport")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Trip.Status != domain.TripStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", result.Trip.Status)
	}
	// ~1 km of movement stays under the fare floor.
	if result.Trip.ActualFare != 5 {
		t.Errorf("expected minimum fare 5, got %d", result.Trip.ActualFare)
	}

	if f.trips.CountTrips() != 1 {
		t.Errorf("expected 1 persisted trip, got %d", f.trips.CountTrips())
	}
	if result.Debit == nil || result.Debit.Status != domain.DebitStatusSuccess {
		t.Fatalf("expected successful debit, got %+v", result.Debit)
	}
	if got := f.accounts.GetBalance("acct-1"); got != 95 {
		t.Errorf("expected balance 95 after debit, got %d", got)
	}
	if result.Receipt == nil || result.Receipt.Fare != 5 {
		t.Errorf("expected receipt for fare 5, got %+v", result.Receipt)
	}
	if f.feed.HasPosition("acct-1") {
		t.Error("rider position must be removed after completion")
	}

	// The session is idle again and ready for the next trip.
	current, err := f.travel.CurrentTravel(ctx, "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.State != string(engine.StateIdle) {
		t.Errorf("expected IDLE after completion, got %s", current.State)
	}
	if _, err := f.travel.BeginTravel(ctx, "acct-1"); err != nil {
		t.Errorf("expected next trip to start, got %v", err)
	}
}

func TestBeginTravel_Gating(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(NewMockGate(), gps.ModeLive)

	f.accounts.AddAccount(&domain.Account{ID: "unenrolled", Balance: 100})
	if _, err := f.travel.BeginTravel(ctx, "unenrolled"); !errors.Is(err, service.ErrFingerprintNotEnrolled) {
		t.Errorf("expected ErrFingerprintNotEnrolled, got %v", err)
	}

	f.addRider("broke", 3)
	if _, err := f.travel.BeginTravel(ctx, "broke"); !errors.Is(err, service.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}

	if _, err := f.travel.BeginTravel(ctx, "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	f.addRider("acct-1", 100)
	if _, err := f.travel.BeginTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.travel.BeginTravel(ctx, "acct-1"); !errors.Is(err, engine.ErrTravelInProgress) {
		t.Errorf("expected ErrTravelInProgress on second begin, got %v", err)
	}
}

func TestVerifyPickup_DeniedThenRetry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gate := NewMockGate(
		verify.Result{OK: false, Reason: "finger smudged"},
		verify.Result{OK: true},
	)
	f := newFixture(gate, gps.ModeLive)
	f.addRider("acct-1", 100)

	if _, err := f.travel.BeginTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.travel.VerifyPickup(ctx, "acct-1", "Central Station")
	if !errors.Is(err, engine.ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if f.locks.IsLocked("acct-1") {
		t.Error("lock must be released after a denied attempt")
	}

	// Denial is retryable without limit.
	snap, err := f.travel.VerifyPickup(ctx, "acct-1", "Central Station")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if snap.State != engine.StateOngoing {
		t.Errorf("expected ONGOING after retry, got %s", snap.State)
	}
}

func TestVerifyPickup_LockHeld(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(NewMockGate(), gps.ModeLive)
	f.addRider("acct-1", 100)

	if _, err := f.travel.BeginTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.locks.ForceAcquireFailure = true
	_, err := f.travel.VerifyPickup(ctx, "acct-1", "Central Station")
	if !errors.Is(err, service.ErrVerificationInProgress) {
		t.Errorf("expected ErrVerificationInProgress, got %v", err)
	}
}

func TestVerifyDrop_DeniedKeepsTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gate := NewMockGate(
		verify.Result{OK: true},  // pickup
		verify.Result{OK: false}, // first drop attempt
		verify.Result{OK: true},  // retry
	)
	f := newFixture(gate, gps.ModeLive)
	f.addRider("acct-1", 100)

	mustBeginOngoing(t, f, "acct-1")

	if _, err := f.travel.EndTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.travel.VerifyDrop(ctx, "acct-1", "Airport")
	if !errors.Is(err, engine.ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if f.trips.CountTrips() != 0 {
		t.Error("denied drop must not persist the trip")
	}

	result, err := f.travel.VerifyDrop(ctx, "acct-1", "Airport")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if result.Trip.Status != domain.TripStatusCompleted {
		t.Errorf("expected COMPLETED after retry, got %s", result.Trip.Status)
	}
}

func TestVerifyDrop_InsufficientFundsStillCompletesTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(NewMockGate(), gps.ModeLive)
	f.addRider("acct-1", 6)

	mustBeginOngoing(t, f, "acct-1")

	// ~5.6 km pushes the fare above the wallet balance.
	if err := f.travel.PublishPosition(ctx, "acct-1", domain.GeoPosition{Lat: 0, Lng: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.travel.PublishPosition(ctx, "acct-1", domain.GeoPosition{Lat: 0, Lng: 0.05}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitUntil(t, time.Second, func() bool {
		s := f.feed.LatestSnapshot("acct-1")
		return s != nil && s.DistanceKm > 5
	})

	if _, err := f.travel.EndTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := f.travel.VerifyDrop(ctx, "acct-1", "Airport")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Trip.Status != domain.TripStatusCompleted {
		t.Errorf("trip must complete even when the debit fails, got %s", result.Trip.Status)
	}
	if f.trips.CountTrips() != 1 {
		t.Error("trip must be persisted even when the debit fails")
	}
	if result.Debit == nil || result.Debit.Status != domain.DebitStatusFailed {
		t.Fatalf("expected failed debit, got %+v", result.Debit)
	}
	if got := f.accounts.GetBalance("acct-1"); got != 6 {
		t.Errorf("balance must be untouched after failed debit, got %d", got)
	}
}

func TestPublishPosition_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(NewMockGate(), gps.ModeLive)
	f.addRider("acct-1", 100)

	err := f.travel.PublishPosition(ctx, "acct-1", domain.GeoPosition{Lat: 100, Lng: 0})
	if !errors.Is(err, service.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}

	err = f.travel.PublishPosition(ctx, "acct-1", domain.GeoPosition{Lat: 0, Lng: 0})
	if !errors.Is(err, service.ErrNoTravelSession) {
		t.Errorf("expected ErrNoTravelSession, got %v", err)
	}

	// A fix arriving after the trip has no consumer and is dropped silently.
	mustBeginOngoing(t, f, "acct-1")
	if _, err := f.travel.EndTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.travel.PublishPosition(ctx, "acct-1", domain.GeoPosition{Lat: 0, Lng: 0.01}); err != nil {
		t.Errorf("late fix must be a no-op, got %v", err)
	}
}

func TestCancelTravel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(NewMockGate(), gps.ModeLive)
	f.addRider("acct-1", 100)

	if _, err := f.travel.BeginTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.travel.CancelTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Abandoning a pending pickup frees the session for a fresh start.
	if _, err := f.travel.BeginTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("expected fresh begin after cancel, got %v", err)
	}

	// A verified trip cannot be cancelled, only dropped.
	if _, err := f.travel.VerifyPickup(ctx, "acct-1", "Central Station"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.travel.CancelTravel(ctx, "acct-1"); !errors.Is(err, engine.ErrTravelInProgress) {
		t.Errorf("expected ErrTravelInProgress, got %v", err)
	}
}

func TestCurrentTravel_NoSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(NewMockGate(), gps.ModeLive)

	if _, err := f.travel.CurrentTravel(ctx, "ghost"); !errors.Is(err, service.ErrNoTravelSession) {
		t.Errorf("expected ErrNoTravelSession, got %v", err)
	}
}

// mustBeginOngoing drives a rider to the ONGOING state.
func mustBeginOngoing(t *testing.T, f *fixture, accountID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.travel.BeginTravel(ctx, accountID); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := f.travel.VerifyPickup(ctx, accountID, "Central Station"); err != nil {
		t.Fatalf("pickup verification failed: %v", err)
	}
}
