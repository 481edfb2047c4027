package security

import (
	"context"
	"sync"
	"time"

	"github.com/ManuelReschke/SaaSKit/internal/pkg/cache"
)

const denylistPrefix = "revoked_token:"

// CacheDenylist keeps revoked token ids in the Redis cache with a TTL.
type CacheDenylist struct{}

func (CacheDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return cache.Set(ctx, denylistPrefix+tokenID, 1, ttl)
}

func (CacheDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return cache.Exists(ctx, denylistPrefix+tokenID)
}

// MemoryDenylist is a process-local Denylist.
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: map[string]time.Time{}}
}

func (m *MemoryDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tokenID] = until
	return nil
}

func (m *MemoryDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.entries[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(m.entries, tokenID)
		return false, nil
	}
	return true, nil
}
