// Package blocklist holds the set of revoked token identifiers (JWT "jti").
// A token whose jti is in the set is rejected even before it expires. Each
// entry only needs to live as long as the token it revokes.
package blocklist

import (
	"context"
	"sync"
	"time"
)

// Blocklist is the revocation store consulted on every authenticated request.
// Implementations must be safe for concurrent use.
type Blocklist interface {
	// Add revokes jti until expiresAt. Adding the same jti again is a no-op.
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	// Contains reports whether jti has been revoked.
	Contains(ctx context.Context, jti string) (bool, error)
}

// Memory is a process-local blocklist guarded by a RWMutex. Expired entries
// are pruned on Add.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemory returns an empty in-process blocklist.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time), now: time.Now}
}

var _ Blocklist = (*Memory)(nil)

func (m *Memory) Add(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, k)
		}
	}
	if cur, ok := m.entries[jti]; !ok || expiresAt.After(cur) {
		m.entries[jti] = expiresAt
	}
	return nil
}

// Contains keeps reporting an entry after its expiry until it is pruned;
// by then the token itself fails expiry validation anyway.
func (m *Memory) Contains(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[jti]
	return ok, nil
}

// Len returns the number of tracked entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
