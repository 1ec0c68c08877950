package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryProjection guarda un map de flags por subject en go-cache.
// Útil para desarrollo y testing.
type memoryProjection struct {
	prefix string
	ttl    time.Duration
	mu     sync.Mutex // serializa el read-modify-write de SetFlag
	c      *gocache.Cache
}

// NewMemory crea una proyección en memoria. ttl 0 = no expira.
func NewMemory(prefix string, ttl time.Duration) *memoryProjection {
	exp := ttl
	if exp <= 0 {
		exp = gocache.NoExpiration
	}
	return &memoryProjection{
		prefix: prefix,
		ttl:    exp,
		c:      gocache.New(exp, time.Minute),
	}
}

func (m *memoryProjection) SetFlag(_ context.Context, subjectID, flag string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(m.prefix, subjectID)
	flags := map[string]bool{}
	if v, ok := m.c.Get(k); ok {
		for f, b := range v.(map[string]bool) {
			flags[f] = b
		}
	}
	flags[flag] = value
	m.c.Set(k, flags, m.ttl)
	return nil
}

func (m *memoryProjection) Flags(_ context.Context, subjectID string) (map[string]bool, error) {
	out := map[string]bool{}
	if v, ok := m.c.Get(key(m.prefix, subjectID)); ok {
		for f, b := range v.(map[string]bool) {
			out[f] = b
		}
	}
	return out, nil
}

func (m *memoryProjection) Ping(context.Context) error { return nil }

func (m *memoryProjection) Close() error {
	m.c.Flush()
	return nil
}
