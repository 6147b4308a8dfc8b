package verify

import (
	"context"
	"time"
)

// Result is the outcome of a biometric verification attempt.
type Result struct {
	OK     bool
	Reason string // human-readable failure reason, empty on success
}

// Gate is the biometric verification capability. The engine treats it as
// opaque: it only consumes the boolean outcome and the failure reason.
// Verification is retryable without limit; the caller may abandon.
type Gate interface {
	Verify(ctx context.Context) (Result, error)
}

// DeviceGate simulates the device fingerprint sensor: it reports presence
// after a scan latency. Used for wiring when no real sensor bridge is
// configured.
type DeviceGate struct {
	latency time.Duration
}

// NewDeviceGate creates a gate with the given scan latency.
func NewDeviceGate(latency time.Duration) *DeviceGate {
	return &DeviceGate{latency: latency}
}

// Verify waits out the scan latency and reports success, unless the
// context ends first.
func (g *DeviceGate) Verify(ctx context.Context) (Result, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Result{OK: true}, nil
}

var _ Gate = (*DeviceGate)(nil)
