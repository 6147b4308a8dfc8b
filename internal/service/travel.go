package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"smartfare/internal/domain"
	"smartfare/internal/engine"
	"smartfare/internal/fare"
	"smartfare/internal/gps"
	"smartfare/internal/redis"
	"smartfare/internal/repository"
	"smartfare/internal/verify"
)

// travelLockTTL bounds how long a crashed verification can hold the
// account's settlement lock.
const travelLockTTL = 30 * time.Second

// TravelConfig contains the collaborators for a TravelService.
type TravelConfig struct {
	Accounts      *AccountService
	TripRepo      repository.TripRepository
	Wallet        Debiter
	Receipts      *ReceiptService
	Notifications *NotificationService
	FeedStore     redis.FeedStoreInterface
	LockStore     redis.LockStoreInterface
	Gate          verify.Gate

	// Mode selects the position source for new trips.
	Mode gps.Mode

	// SimulatedInterval is the synthetic sample period in simulated mode.
	SimulatedInterval time.Duration

	// Policy maps distance to fare. Zero value is replaced by
	// fare.DefaultPolicy.
	Policy fare.Policy

	// NoiseThresholdKm overrides the geo filter threshold when positive.
	NoiseThresholdKm float64
}

// TravelService orchestrates travel sessions: one engine per rider,
// account gating at start, and wallet settlement at completion.
type TravelService struct {
	cfg TravelConfig

	mu       sync.Mutex
	sessions map[string]*travelSession
}

// travelSession is the per-rider state: the engine plus, in live mode,
// the push feed for the current trip.
type travelSession struct {
	engine *engine.Engine

	mu   sync.Mutex
	live *gps.LiveSource
}

// NewTravelService creates a new TravelService.
func NewTravelService(cfg TravelConfig) *TravelService {
	if cfg.Policy == (fare.Policy{}) {
		cfg.Policy = fare.DefaultPolicy()
	}
	if cfg.SimulatedInterval <= 0 {
		cfg.SimulatedInterval = gps.DefaultSimulatedInterval
	}
	if cfg.Mode == "" {
		cfg.Mode = gps.ModeLive
	}

	return &TravelService{
		cfg:      cfg,
		sessions: make(map[string]*travelSession),
	}
}

// BeginTravel moves the rider to the pickup-pending state. The account
// must have completed biometric enrollment and hold at least the minimum
// fare.
func (s *TravelService) BeginTravel(ctx context.Context, accountID string) (engine.Snapshot, error) {
	if accountID == "" {
		return engine.Snapshot{}, ErrInvalidAccountID
	}

	account, err := s.cfg.Accounts.Get(ctx, accountID)
	if err != nil {
		return engine.Snapshot{}, err
	}

	if !account.FingerprintRegistered {
		return engine.Snapshot{}, ErrFingerprintNotEnrolled
	}
	if account.Balance < s.cfg.Policy.MinimumFare {
		return engine.Snapshot{}, ErrInsufficientBalance
	}

	sess := s.session(accountID)
	if err := sess.engine.RequestPickup(); err != nil {
		return engine.Snapshot{}, err
	}

	return sess.engine.Snapshot(), nil
}

// VerifyPickup runs pickup verification and, on success, starts the trip
// and its position source.
func (s *TravelService) VerifyPickup(ctx context.Context, accountID, location string) (engine.Snapshot, error) {
	sess, err := s.lookup(accountID)
	if err != nil {
		return engine.Snapshot{}, err
	}

	release, err := s.acquireLock(ctx, accountID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	defer release()

	if err := sess.engine.ConfirmPickup(ctx, location); err != nil {
		return engine.Snapshot{}, err
	}

	snap := sess.engine.Snapshot()
	if s.cfg.Notifications != nil && snap.Trip != nil {
		_ = s.cfg.Notifications.NotifyTripStarted(ctx, snap.Trip)
	}

	return snap, nil
}

// PublishPosition feeds a live device fix into the current trip's source.
// Late fixes arriving after drop are discarded without error, matching
// the engine's no-op contract.
func (s *TravelService) PublishPosition(ctx context.Context, accountID string, pos domain.GeoPosition) error {
	if !pos.Valid() {
		return ErrInvalidLocation
	}

	sess, err := s.lookup(accountID)
	if err != nil {
		return err
	}

	if s.cfg.Mode != gps.ModeLive {
		return ErrLiveModeDisabled
	}

	live := sess.liveSource()
	if live == nil {
		// No trip consuming positions; same contract as a late sample.
		return nil
	}

	if err := live.Publish(pos); err != nil {
		if errors.Is(err, gps.ErrSourceCancelled) {
			return nil
		}
		return err
	}
	return nil
}

// EndTravel moves the trip to drop-pending and stops position accrual.
func (s *TravelService) EndTravel(ctx context.Context, accountID string) (engine.Snapshot, error) {
	sess, err := s.lookup(accountID)
	if err != nil {
		return engine.Snapshot{}, err
	}

	if err := sess.engine.RequestDrop(); err != nil {
		return engine.Snapshot{}, err
	}

	return sess.engine.Snapshot(), nil
}

// CompleteTravelResponse contains the result of drop verification.
type CompleteTravelResponse struct {
	Trip    *domain.Trip
	Debit   *domain.Debit
	Receipt *domain.Receipt
}

// VerifyDrop runs drop verification; on success the finalized trip is
// persisted, the fare is debited from the wallet, and the session returns
// to idle for the next trip.
func (s *TravelService) VerifyDrop(ctx context.Context, accountID, location string) (*CompleteTravelResponse, error) {
	sess, err := s.lookup(accountID)
	if err != nil {
		return nil, err
	}

	release, err := s.acquireLock(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer release()

	trip, err := sess.engine.ConfirmDrop(ctx, location)
	if err != nil {
		return nil, err
	}

	sess.setLiveSource(nil)

	if err := s.cfg.TripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	// Debit after the trip is durable. A failed debit does not undo the
	// trip; it is recorded and retried after a top-up.
	var debit *domain.Debit
	if s.cfg.Wallet != nil {
		debit, err = s.cfg.Wallet.ProcessDebit(ctx, ProcessDebitRequest{
			TripID:    trip.ID,
			AccountID: trip.AccountID,
			Amount:    trip.ActualFare,
		})
		if err != nil {
			debit = nil
		}
	}

	s.cfg.Accounts.InvalidateCache(ctx, accountID)

	if s.cfg.Notifications != nil {
		_ = s.cfg.Notifications.NotifyTripEnded(ctx, trip)
		if debit != nil {
			_ = s.cfg.Notifications.NotifyDebitResult(ctx, debit)
		}
	}

	var receipt *domain.Receipt
	if s.cfg.Receipts != nil {
		receipt, _ = s.cfg.Receipts.GenerateReceipt(ctx, trip)
	}

	if s.cfg.FeedStore != nil {
		_ = s.cfg.FeedStore.RemovePosition(ctx, accountID)
	}

	// Session returns to idle for the next trip; the final snapshot stays
	// readable until its TTL expires.
	_ = sess.engine.Reset()

	return &CompleteTravelResponse{
		Trip:    trip,
		Debit:   debit,
		Receipt: receipt,
	}, nil
}

// CancelTravel abandons a pickup that has not been verified yet.
func (s *TravelService) CancelTravel(ctx context.Context, accountID string) error {
	sess, err := s.lookup(accountID)
	if err != nil {
		return err
	}

	if err := sess.engine.Reset(); err != nil {
		return err
	}

	if s.cfg.FeedStore != nil {
		_ = s.cfg.FeedStore.ClearSnapshot(ctx, accountID)
	}
	return nil
}

// CurrentTravel returns the rider's latest snapshot.
func (s *TravelService) CurrentTravel(ctx context.Context, accountID string) (*redis.TravelSnapshot, error) {
	if accountID == "" {
		return nil, ErrInvalidAccountID
	}

	if s.cfg.FeedStore != nil {
		snap, err := s.cfg.FeedStore.GetSnapshot(ctx, accountID)
		if err == nil && snap != nil {
			return snap, nil
		}
	}

	s.mu.Lock()
	sess, ok := s.sessions[accountID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoTravelSession
	}

	snap := s.toWire(sess.engine.Snapshot())
	return snap, nil
}

// session returns the rider's session, creating one on first use.
func (s *TravelService) session(accountID string) *travelSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[accountID]; ok {
		return sess
	}

	sess := &travelSession{}
	sess.engine = engine.New(engine.Config{
		AccountID:        accountID,
		Gate:             s.cfg.Gate,
		NewSource:        func() gps.Source { return s.newSource(sess) },
		Policy:           s.cfg.Policy,
		NoiseThresholdKm: s.cfg.NoiseThresholdKm,
		Observer:         s.publish,
	})
	s.sessions[accountID] = sess
	return sess
}

func (s *TravelService) lookup(accountID string) (*travelSession, error) {
	if accountID == "" {
		return nil, ErrInvalidAccountID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[accountID]
	if !ok {
		return nil, ErrNoTravelSession
	}
	return sess, nil
}

// newSource creates the position source for a new trip. Sources are
// single-use; in live mode the session records the feed so device fixes
// can be pushed into it.
func (s *TravelService) newSource(sess *travelSession) gps.Source {
	if s.cfg.Mode == gps.ModeSimulated {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		return gps.NewSimulatedSource(domain.GeoPosition{}, s.cfg.SimulatedInterval, rng)
	}

	live := gps.NewLiveSource()
	sess.setLiveSource(live)
	return live
}

func (s *TravelService) acquireLock(ctx context.Context, accountID string) (func(), error) {
	if s.cfg.LockStore == nil {
		return func() {}, nil
	}

	ok, err := s.cfg.LockStore.AcquireTravelLock(ctx, accountID, travelLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVerificationInProgress
	}

	return func() {
		_ = s.cfg.LockStore.ReleaseTravelLock(context.Background(), accountID)
	}, nil
}

// publish is the engine observer: it mirrors each snapshot into Redis for
// UI polling and push delivery. It runs under the engine lock and must
// not call back into the engine.
func (s *TravelService) publish(snap engine.Snapshot) {
	if s.cfg.FeedStore == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_ = s.cfg.FeedStore.PublishSnapshot(ctx, s.toWire(snap))

	if snap.HasPosition {
		_ = s.cfg.FeedStore.UpdatePosition(ctx, snap.AccountID, snap.Position.Lat, snap.Position.Lng)
	}
}

func (s *TravelService) toWire(snap engine.Snapshot) *redis.TravelSnapshot {
	wire := &redis.TravelSnapshot{
		AccountID:    snap.AccountID,
		State:        string(snap.State),
		DistanceKm:   snap.DistanceKm,
		Lat:          snap.Position.Lat,
		Lng:          snap.Position.Lng,
		HasPosition:  snap.HasPosition,
		SourceStatus: string(snap.SourceStatus),
		UpdatedAt:    time.Now().Format(time.RFC3339),
	}

	if snap.Trip != nil {
		wire.TripID = snap.Trip.ID
		wire.TripStatus = string(snap.Trip.Status)
		wire.PickupLocation = snap.Trip.PickupLocation
		wire.DropLocation = snap.Trip.DropLocation
		wire.EstimatedFare = snap.Trip.EstimatedFare
		wire.ActualFare = snap.Trip.ActualFare
	}

	return wire
}

func (t *travelSession) setLiveSource(live *gps.LiveSource) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live = live
}

func (t *travelSession) liveSource() *gps.LiveSource {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}
