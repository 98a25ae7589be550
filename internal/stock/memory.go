package stock

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache with the same semantics as the redis backend:
// IncrBy/DecrBy create missing keys at zero without a TTL, Init is a no-op when
// the key exists. It backs tests and single-node local runs.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memEntry

	// Now is swappable so tests can drive TTL expiry without sleeping.
	Now func() time.Time
}

type memEntry struct {
	val     int64
	expires time.Time // zero means no expiry
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]*memEntry{}, Now: time.Now}
}

func (m *Memory) live(key string) *memEntry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !e.expires.IsZero() && !m.Now().Before(e.expires) {
		delete(m.entries, key)
		return nil
	}
	return e
}

func (m *Memory) Init(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live(key) != nil {
		return nil
	}
	m.entries[key] = &memEntry{val: 0, expires: m.Now().Add(ttl)}
	return nil
}

func (m *Memory) IncrBy(_ context.Context, key string, n int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil {
		e = &memEntry{}
		m.entries[key] = e
	}
	e.val += n
	return e.val, nil
}

func (m *Memory) DecrBy(ctx context.Context, key string, n int64) (int64, error) {
	return m.IncrBy(ctx, key, -n)
}

func (m *Memory) Set(_ context.Context, key string, val int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = &memEntry{val: val, expires: m.Now().Add(ttl)}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.live(key); e != nil {
		return e.val, nil
	}
	return 0, nil
}
