package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	travelSnapshotPrefix = "travel:snapshot:"
	travelFeedPrefix     = "travel:feed:"
	riderPositionKey     = "riders:positions"

	// SnapshotTTL bounds how long a stale snapshot survives a crashed
	// session before the UI falls back to "no active trip".
	SnapshotTTL = 5 * time.Minute
)

// TravelSnapshot is the wire form of an engine snapshot, stored for UI
// polling and published on the account's feed channel.
type TravelSnapshot struct {
	AccountID      string  `json:"account_id"`
	State          string  `json:"state"`
	TripID         string  `json:"trip_id,omitempty"`
	TripStatus     string  `json:"trip_status,omitempty"`
	PickupLocation string  `json:"pickup_location,omitempty"`
	DropLocation   string  `json:"drop_location,omitempty"`
	DistanceKm     float64 `json:"distance_km"`
	EstimatedFare  int64   `json:"estimated_fare"`
	ActualFare     int64   `json:"actual_fare,omitempty"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	HasPosition    bool    `json:"has_position"`
	SourceStatus   string  `json:"source_status,omitempty"`
	UpdatedAt      string  `json:"updated_at"`
}

// FeedStore handles live travel snapshots in Redis.
type FeedStore struct {
	client *redis.Client
}

// NewFeedStore creates a new FeedStore.
func NewFeedStore(client *redis.Client) *FeedStore {
	return &FeedStore{client: client}
}

// PublishSnapshot stores the latest snapshot for polling and pushes it on
// the account's Pub/Sub channel for live UI updates.
func (s *FeedStore) PublishSnapshot(ctx context.Context, snap *TravelSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, travelSnapshotPrefix+snap.AccountID, data, SnapshotTTL).Err(); err != nil {
		return err
	}

	return s.client.Publish(ctx, travelFeedPrefix+snap.AccountID, data).Err()
}

// GetSnapshot retrieves the latest snapshot for an account.
// Returns nil if no snapshot is stored.
func (s *FeedStore) GetSnapshot(ctx context.Context, accountID string) (*TravelSnapshot, error) {
	data, err := s.client.Get(ctx, travelSnapshotPrefix+accountID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var snap TravelSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ClearSnapshot removes an account's snapshot after the session ends.
func (s *FeedStore) ClearSnapshot(ctx context.Context, accountID string) error {
	return s.client.Del(ctx, travelSnapshotPrefix+accountID).Err()
}

// UpdatePosition stores the rider's current position using GEOADD.
func (s *FeedStore) UpdatePosition(ctx context.Context, accountID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, riderPositionKey, &redis.GeoLocation{
		Name:      accountID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// RemovePosition removes the rider from the geo index.
func (s *FeedStore) RemovePosition(ctx context.Context, accountID string) error {
	return s.client.ZRem(ctx, riderPositionKey, accountID).Err()
}
