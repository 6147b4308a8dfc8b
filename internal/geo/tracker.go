package geo

import "smartfare/internal/domain"

// DefaultNoiseThresholdKm is the minimum movement (5 meters) between the
// reference position and a new fix for distance to accrue. Stationary GPS
// jitter stays below this and must not inflate the trip distance.
const DefaultNoiseThresholdKm = 0.005

// Tracker filters raw position fixes and accumulates great-circle distance.
//
// The reference position advances on every fix, accepted or not, so the
// current position stays fresh for display while sub-threshold jitter
// contributes nothing to the running total.
type Tracker struct {
	thresholdKm float64
	hasRef      bool
	ref         domain.GeoPosition
	totalKm     float64
}

// NewTracker creates a tracker with the default noise threshold.
func NewTracker() *Tracker {
	return NewTrackerWithThreshold(DefaultNoiseThresholdKm)
}

// NewTrackerWithThreshold creates a tracker with a custom noise threshold.
func NewTrackerWithThreshold(thresholdKm float64) *Tracker {
	return &Tracker{thresholdKm: thresholdKm}
}

// Advance feeds a new position fix into the tracker. It returns the delta
// from the previous reference position and whether the delta accrued to the
// total. The first fix anchors the reference and never accrues.
func (t *Tracker) Advance(p domain.GeoPosition) (deltaKm float64, accepted bool) {
	if !t.hasRef {
		t.ref = p
		t.hasRef = true
		return 0, false
	}

	deltaKm = HaversineKm(t.ref.Lat, t.ref.Lng, p.Lat, p.Lng)

	// Reference always follows the latest fix, even for rejected samples.
	t.ref = p

	if deltaKm < t.thresholdKm {
		return deltaKm, false
	}

	t.totalKm += deltaKm
	return deltaKm, true
}

// DistanceKm returns the accumulated distance at full precision.
func (t *Tracker) DistanceKm() float64 {
	return t.totalKm
}

// LastPosition returns the current reference position.
// ok is false until the first fix has been recorded.
func (t *Tracker) LastPosition() (domain.GeoPosition, bool) {
	return t.ref, t.hasRef
}
