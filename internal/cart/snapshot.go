package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"food-cart/internal/storage"
)

// DefaultSnapshotKey is the storage key the cart is persisted under
const DefaultSnapshotKey = "food-delivery-cart"

// ErrSnapshotCorrupt is returned when a stored snapshot cannot be decoded
var ErrSnapshotCorrupt = errors.New("cart snapshot is corrupt")

// Store persists and restores whole cart snapshots
type Store interface {
	LoadSnapshot(ctx context.Context) (*Aggregate, error)
	SaveSnapshot(ctx context.Context, a *Aggregate) error
}

// Encode serializes a snapshot. Timestamps are written as RFC 3339 strings.
func Encode(a *Aggregate) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot written by Encode. Derived totals are taken as
// stored; LoadSnapshot recomputes them.
func Decode(data []byte) (*Aggregate, error) {
	var a Aggregate
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if a.Restaurants == nil {
		a.Restaurants = make(map[string]*RestaurantCart)
	}
	return &a, nil
}

// KVStore stores snapshots in a storage.KV under a fixed key
type KVStore struct {
	kv  storage.KV
	key string
}

func NewKVStore(kv storage.KV, key string) *KVStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &KVStore{kv: kv, key: key}
}

// LoadSnapshot returns (nil, nil) when nothing has been stored yet
func (s *KVStore) LoadSnapshot(ctx context.Context) (*Aggregate, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", s.key, err)
	}
	return Decode(data)
}

func (s *KVStore) SaveSnapshot(ctx context.Context, a *Aggregate) error {
	data, err := Encode(a)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", s.key, err)
	}
	return nil
}
