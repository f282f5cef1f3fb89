package cache

import (
	"context"
	"sync"
	"time"
)

type memoryConfig struct {
	ttl        time.Duration
	maxEntries int
}

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is a process-local cache. Expired items are dropped on read and
// by Purge. When maxEntries is reached the entry closest to expiry is
// evicted.
type Memory[V any] struct {
	mu     sync.Mutex
	items  map[string]item[V]
	cfg    memoryConfig
	now    func() time.Time
	closed bool
}

// Option configures the in-memory backend.
type Option func(*memoryConfig)

// WithTTL sets the default lifetime. Default: 10 minutes.
func WithTTL(d time.Duration) Option {
	return func(c *memoryConfig) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithMaxEntries bounds the number of stored items. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *memoryConfig) {
		c.maxEntries = n
	}
}

// NewMemory creates an in-memory cache.
func NewMemory[V any](opts ...Option) *Memory[V] {
	cfg := memoryConfig{ttl: 10 * time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Memory[V]{
		items: make(map[string]item[V]),
		cfg:   cfg,
		now:   time.Now,
	}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	it, ok := m.items[key]
	if !ok {
		return zero, ErrNotFound
	}
	if m.now().After(it.expiresAt) {
		delete(m.items, key)
		return zero, ErrNotFound
	}
	return it.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl <= 0 {
		ttl = m.cfg.ttl
	}
	if _, exists := m.items[key]; !exists && m.cfg.maxEntries > 0 && len(m.items) >= m.cfg.maxEntries {
		m.evictLocked()
	}
	m.items[key] = item[V]{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Purge drops expired items and returns how many were removed.
func (m *Memory[V]) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for k, it := range m.items {
		if now.After(it.expiresAt) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored items, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	clear(m.items)
	return nil
}

func (m *Memory[V]) evictLocked() {
	var (
		victim string
		first  time.Time
	)
	for k, it := range m.items {
		if victim == "" || it.expiresAt.Before(first) {
			victim, first = k, it.expiresAt
		}
	}
	delete(m.items, victim)
}

var _ Cache[string] = (*Memory[string])(nil)
