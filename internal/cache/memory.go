package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is the Cache used when no Redis address is configured.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

// entry with a zero expiresAt never expires.
type entry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	return e.value, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = entry{value: value, expiresAt: m.expiry(ttl)}
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *MemoryCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lookup(key); ok {
		return false, nil
	}
	m.data[key] = entry{value: []byte("locked"), expiresAt: m.expiry(ttl)}
	return true, nil
}

func (m *MemoryCache) Close() error {
	return nil
}

// expiry follows Redis: a non-positive ttl keeps the key until deleted.
func (m *MemoryCache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

// lookup drops expired entries. Callers hold mu.
func (m *MemoryCache) lookup(key string) (entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return entry{}, false
	}
	return e, true
}

var _ Cache = (*MemoryCache)(nil)
