package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pos/backend/internal/application/checkout"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/config"
)

const parkKeyPrefix = "pos:park:"

// RedisParkStore holds parked carts in Redis. Each cart is a JSON
// value under a tenant-scoped key with a TTL: expiry is Redis's job,
// so a cart never parked longer than the TTL simply vanishes.
type RedisParkStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisParkStore connects to Redis and returns a park store.
func NewRedisParkStore(cfg config.RedisConfig, ttl time.Duration) (*RedisParkStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisParkStoreWithClient(client, ttl), nil
}

// NewRedisParkStoreWithClient creates a store with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisParkStoreWithClient(client *redis.Client, ttl time.Duration) *RedisParkStore {
	if ttl <= 0 {
		ttl = checkout.DefaultParkTTL
	}
	return &RedisParkStore{client: client, ttl: ttl}
}

// Save stores the snapshot under its tenant-scoped key with the store TTL.
func (s *RedisParkStore) Save(ctx context.Context, sale *checkout.ParkedSale) error {
	payload, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("failed to serialize parked sale: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sale.TenantID, sale.Key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to park sale: %w", err)
	}
	return nil
}

// Load returns the snapshot, or shared.ErrNotFound when absent or expired.
func (s *RedisParkStore) Load(ctx context.Context, tenantID uuid.UUID, key string) (*checkout.ParkedSale, error) {
	payload, err := s.client.Get(ctx, s.key(tenantID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load parked sale: %w", err)
	}

	var sale checkout.ParkedSale
	if err := json.Unmarshal(payload, &sale); err != nil {
		return nil, fmt.Errorf("failed to deserialize parked sale: %w", err)
	}
	return &sale, nil
}

// Delete removes the snapshot. Deleting a missing key is not an error.
func (s *RedisParkStore) Delete(ctx context.Context, tenantID uuid.UUID, key string) error {
	if err := s.client.Del(ctx, s.key(tenantID, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete parked sale: %w", err)
	}
	return nil
}

// ListByStore scans the tenant's parked carts and returns those
// belonging to the store. Parked carts per tenant number at most a
// few dozen, so a SCAN over the tenant prefix is fine.
func (s *RedisParkStore) ListByStore(ctx context.Context, tenantID, storeID uuid.UUID) ([]checkout.ParkedSale, error) {
	pattern := parkKeyPrefix + tenantID.String() + ":*"
	result := make([]checkout.ParkedSale, 0)

	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			// Expired between SCAN and GET
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load parked sale: %w", err)
		}

		var sale checkout.ParkedSale
		if err := json.Unmarshal(payload, &sale); err != nil {
			return nil, fmt.Errorf("failed to deserialize parked sale: %w", err)
		}
		if sale.StoreID == storeID {
			result = append(result, sale)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan parked sales: %w", err)
	}
	return result, nil
}

// Close closes the Redis client.
func (s *RedisParkStore) Close() error {
	return s.client.Close()
}

func (s *RedisParkStore) key(tenantID uuid.UUID, key string) string {
	return parkKeyPrefix + tenantID.String() + ":" + key
}

var _ checkout.ParkStore = (*RedisParkStore)(nil)
