package redis

import (
	"context"
	"time"
)

// FeedStoreInterface defines the interface for live travel snapshot operations.
type FeedStoreInterface interface {
	PublishSnapshot(ctx context.Context, snap *TravelSnapshot) error
	GetSnapshot(ctx context.Context, accountID string) (*TravelSnapshot, error)
	ClearSnapshot(ctx context.Context, accountID string) error
	UpdatePosition(ctx context.Context, accountID string, lat, lng float64) error
	RemovePosition(ctx context.Context, accountID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireTravelLock(ctx context.Context, accountID string, ttl time.Duration) (bool, error)
	ReleaseTravelLock(ctx context.Context, accountID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ FeedStoreInterface = (*FeedStore)(nil)
	_ LockStoreInterface = (*LockStore)(nil)
)
