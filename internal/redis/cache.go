package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// AccountCacheTTL is short: the balance changes on every completed trip.
const AccountCacheTTL = 30 * time.Second

const accountCachePrefix = "cache:account:"

// CachedAccount represents a cached account entity.
type CachedAccount struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Phone                 string `json:"phone"`
	Balance               int64  `json:"balance"`
	FingerprintRegistered bool   `json:"fingerprint_registered"`
}

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetAccount retrieves an account from cache. Returns nil on a miss.
func (s *CacheStore) GetAccount(ctx context.Context, accountID string) (*CachedAccount, error) {
	data, err := s.client.Get(ctx, accountCachePrefix+accountID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var account CachedAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// SetAccount stores an account in cache.
func (s *CacheStore) SetAccount(ctx context.Context, account *CachedAccount) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, accountCachePrefix+account.ID, data, AccountCacheTTL).Err()
}

// InvalidateAccount removes an account from cache.
func (s *CacheStore) InvalidateAccount(ctx context.Context, accountID string) error {
	return s.client.Del(ctx, accountCachePrefix+accountID).Err()
}
