package tests

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"smartfare/internal/domain"
	"smartfare/internal/fare"
	"smartfare/internal/geo"
	"smartfare/internal/gps"
	"smartfare/internal/service"
)

func TestSimulatedMode_AccruesDistance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(NewMockGate(), gps.ModeSimulated)
	f.addRider("acct-1", 1000)

	mustBeginOngoing(t, f, "acct-1")

	// Pushing device fixes is rejected while the synthetic source runs.
	err := f.travel.PublishPosition(ctx, "acct-1", domain.GeoPosition{Lat: 0, Lng: 0})
	if !errors.Is(err, service.ErrLiveModeDisabled) {
		t.Errorf("expected ErrLiveModeDisabled, got %v", err)
	}

	// The synthetic feed moves the rider on its own.
	waitUntil(t, 2*time.Second, func() bool {
		s := f.feed.LatestSnapshot("acct-1")
		return s != nil && s.DistanceKm > 0
	})

	if _, err := f.travel.EndTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := f.travel.VerifyDrop(ctx, "acct-1", "Airport")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trip := result.Trip
	if trip.Distance <= 0 {
		t.Fatalf("expected accrued distance, got %f", trip.Distance)
	}
	if want := fare.DefaultPolicy().Fare(trip.Distance); trip.ActualFare != want {
		t.Errorf("fare policy violated: distance %f, fare %d, want %d", trip.Distance, trip.ActualFare, want)
	}
}

func TestZeroMovementFare(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(NewMockGate(), gps.ModeLive)
	f.addRider("acct-1", 100)

	mustBeginOngoing(t, f, "acct-1")

	if _, err := f.travel.EndTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := f.travel.VerifyDrop(ctx, "acct-1", "Central Station")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No movement at all still costs the fare floor.
	if result.Trip.Distance != 0 {
		t.Errorf("expected zero distance, got %f", result.Trip.Distance)
	}
	if result.Trip.ActualFare != 5 {
		t.Errorf("expected minimum fare 5, got %d", result.Trip.ActualFare)
	}
	if result.Debit == nil || result.Debit.Amount != 5 {
		t.Errorf("expected debit of 5, got %+v", result.Debit)
	}
}

func TestNoiseFilteredFare(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(NewMockGate(), gps.ModeLive)
	f.addRider("acct-1", 100)

	mustBeginOngoing(t, f, "acct-1")

	// Anchor, a ~1 m jitter fix, then real movement. The jitter must not
	// accrue but does advance the reference.
	fixes := []domain.GeoPosition{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.00001},
		{Lat: 0, Lng: 0.01},
	}
	for _, pos := range fixes {
		if err := f.travel.PublishPosition(ctx, "acct-1", pos); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	wantKm := geo.HaversineKm(0, 0.00001, 0, 0.01)
	waitUntil(t, time.Second, func() bool {
		s := f.feed.LatestSnapshot("acct-1")
		return s != nil && s.DistanceKm > 0
	})

	if _, err := f.travel.EndTravel(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := f.travel.VerifyDrop(ctx, "acct-1", "Airport")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(result.Trip.Distance-wantKm) > 1e-9 {
		t.Errorf("expected distance %f, got %f", wantKm, result.Trip.Distance)
	}
	if want := fare.DefaultPolicy().Fare(wantKm); result.Trip.ActualFare != want {
		t.Errorf("expected fare %d, got %d", want, result.Trip.ActualFare)
	}
}
