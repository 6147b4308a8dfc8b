package gps

import (
	"context"
	"sync"
	"time"

	"smartfare/internal/domain"
)

// feedBuffer bounds the subscription channel. Fixes beyond it are dropped;
// the consumer only needs a recent fix, not every fix.
const feedBuffer = 16

// LiveSource is a push-fed position source. The device (or its HTTP
// gateway) publishes fixes into the feed; subscribers consume them as
// samples. On a capability failure the source surfaces ERROR status and
// stops producing until restarted.
type LiveSource struct {
	mu         sync.Mutex
	out        chan Sample
	status     Status
	cancelled  bool
	subscribed bool
	now        func() time.Time
}

// NewLiveSource creates a live position source.
func NewLiveSource() *LiveSource {
	return &LiveSource{
		out:    make(chan Sample, feedBuffer),
		status: StatusSearching,
		now:    time.Now,
	}
}

// Subscribe returns the sample channel. The source starts in SEARCHING
// status until the first fix is published.
func (s *LiveSource) Subscribe(ctx context.Context) (<-chan Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return nil, ErrSourceCancelled
	}
	if s.subscribed {
		return nil, ErrAlreadySubscribed
	}
	s.subscribed = true

	// Cancel the source when the consumer's context ends.
	go func() {
		<-ctx.Done()
		s.Cancel()
	}()

	return s.out, nil
}

// Publish feeds a device fix into the source. Returns ErrSourceCancelled
// after cancellation and ErrSourceUnavailable while the source is in ERROR
// status awaiting a restart.
func (s *LiveSource) Publish(p domain.GeoPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return ErrSourceCancelled
	}
	if s.status == StatusError {
		return ErrSourceUnavailable
	}

	s.status = StatusLocked
	s.send(Sample{Position: p, Status: StatusLocked, At: s.now()})
	return nil
}

// Fail marks the positioning capability as failed. An ERROR sample is
// surfaced to the consumer and further publishes are rejected until Restart.
func (s *LiveSource) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled || s.status == StatusError {
		return
	}
	s.status = StatusError
	s.send(Sample{Status: StatusError, At: s.now()})
}

// Restart resumes a failed source, returning it to SEARCHING status.
func (s *LiveSource) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled || s.status != StatusError {
		return
	}
	s.status = StatusSearching
}

// Cancel stops the source and closes the sample channel. All sends happen
// under the same lock, so once Cancel returns no sample can be delivered.
func (s *LiveSource) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return
	}
	s.cancelled = true
	close(s.out)
}

// Status returns the current source status.
func (s *LiveSource) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// send is non-blocking; callers must hold s.mu.
func (s *LiveSource) send(sample Sample) {
	select {
	case s.out <- sample:
	default:
		// Consumer is behind; drop rather than block the publisher.
	}
}

var _ Source = (*LiveSource)(nil)
