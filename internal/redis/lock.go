package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireTravelLock attempts to acquire the settlement lock for the given
// account, so pickup/drop verification and the completion debit never run
// concurrently for one rider across instances.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireTravelLock(ctx context.Context, accountID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:travel:%s", accountID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseTravelLock releases the settlement lock for the given account.
func (s *LockStore) ReleaseTravelLock(ctx context.Context, accountID string) error {
	key := fmt.Sprintf("lock:travel:%s", accountID)

	return s.client.Del(ctx, key).Err()
}
