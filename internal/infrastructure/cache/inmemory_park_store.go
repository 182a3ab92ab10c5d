package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pos/backend/internal/application/checkout"
	"github.com/pos/backend/internal/domain/shared"
)

// InMemoryParkStore is a single-process park store for development
// and tests. Expiry is checked lazily on read.
type InMemoryParkStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]parkedItem
}

type parkedItem struct {
	sale      checkout.ParkedSale
	expiresAt time.Time
}

// NewInMemoryParkStore creates an in-memory park store.
func NewInMemoryParkStore(ttl time.Duration) *InMemoryParkStore {
	if ttl <= 0 {
		ttl = checkout.DefaultParkTTL
	}
	return &InMemoryParkStore{
		ttl:   ttl,
		items: make(map[string]parkedItem),
	}
}

// Save stores the snapshot under its tenant-scoped key.
func (s *InMemoryParkStore) Save(ctx context.Context, sale *checkout.ParkedSale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[s.key(sale.TenantID, sale.Key)] = parkedItem{
		sale:      *sale,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Load returns the snapshot, or shared.ErrNotFound when absent or expired.
func (s *InMemoryParkStore) Load(ctx context.Context, tenantID uuid.UUID, key string) (*checkout.ParkedSale, error) {
	s.mu.RLock()
	item, ok := s.items[s.key(tenantID, key)]
	s.mu.RUnlock()

	if !ok || time.Now().After(item.expiresAt) {
		return nil, shared.ErrNotFound
	}
	sale := item.sale
	return &sale, nil
}

// Delete removes the snapshot. Deleting a missing key is not an error.
func (s *InMemoryParkStore) Delete(ctx context.Context, tenantID uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, s.key(tenantID, key))
	return nil
}

// ListByStore returns all live snapshots for one store.
func (s *InMemoryParkStore) ListByStore(ctx context.Context, tenantID, storeID uuid.UUID) ([]checkout.ParkedSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	result := make([]checkout.ParkedSale, 0)
	for _, item := range s.items {
		if now.After(item.expiresAt) {
			continue
		}
		if item.sale.TenantID == tenantID && item.sale.StoreID == storeID {
			result = append(result, item.sale)
		}
	}
	return result, nil
}

func (s *InMemoryParkStore) key(tenantID uuid.UUID, key string) string {
	return tenantID.String() + ":" + key
}

var _ checkout.ParkStore = (*InMemoryParkStore)(nil)
