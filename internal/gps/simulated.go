package gps

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"smartfare/internal/domain"
	"smartfare/internal/geo"
)

// DefaultSimulatedInterval is the tick period for synthetic samples.
const DefaultSimulatedInterval = 2 * time.Second

// SimulatedSource produces a synthetic sample on a fixed interval, moving
// the position eastward by a small pseudo-random step. Used when live
// positioning is unavailable and for deterministic testing (inject a
// seeded *rand.Rand).
type SimulatedSource struct {
	interval time.Duration
	start    domain.GeoPosition
	stepKm   func() float64

	mu         sync.Mutex
	out        chan Sample
	done       chan struct{}
	cancelled  bool
	subscribed bool
	now        func() time.Time
}

// NewSimulatedSource creates a simulated source starting at the given
// position. The rng drives the per-tick step so tests can seed it.
func NewSimulatedSource(start domain.GeoPosition, interval time.Duration, rng *rand.Rand) *SimulatedSource {
	if interval <= 0 {
		interval = DefaultSimulatedInterval
	}
	return &SimulatedSource{
		interval: interval,
		start:    start,
		stepKm: func() float64 {
			// 10-60 m per tick, roughly walking-to-bus speed at a 2 s period.
			return 0.01 + rng.Float64()*0.05
		},
		out:  make(chan Sample, feedBuffer),
		done: make(chan struct{}),
		now:  time.Now,
	}
}

// Subscribe starts the ticker goroutine and returns the sample channel.
func (s *SimulatedSource) Subscribe(ctx context.Context) (<-chan Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return nil, ErrSourceCancelled
	}
	if s.subscribed {
		return nil, ErrAlreadySubscribed
	}
	s.subscribed = true

	go s.run(ctx)

	return s.out, nil
}

func (s *SimulatedSource) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	pos := s.start
	for {
		select {
		case <-ctx.Done():
			s.Cancel()
			return
		case <-s.done:
			return
		case <-ticker.C:
			pos.Lng += kmToLngDegrees(s.stepKm(), pos.Lat)
			s.emit(Sample{Position: pos, Status: StatusSimulated, At: s.now()})
		}
	}
}

// emit sends under the lock so Cancel can guarantee no delivery after it
// returns. The send is non-blocking against a slow consumer.
func (s *SimulatedSource) emit(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return
	}
	select {
	case s.out <- sample:
	default:
	}
}

// Cancel stops the ticker and closes the sample channel.
func (s *SimulatedSource) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return
	}
	s.cancelled = true
	close(s.done)
	close(s.out)
}

// kmToLngDegrees converts an eastward distance to degrees of longitude at
// the given latitude.
func kmToLngDegrees(km, lat float64) float64 {
	return km * 180 / (math.Pi * geo.EarthRadiusKm * math.Cos(lat*math.Pi/180))
}

var _ Source = (*SimulatedSource)(nil)
