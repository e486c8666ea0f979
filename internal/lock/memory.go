package lock

import (
    "context"
    "strings"
    "sync"
    "time"
)

// MemoryManager is an in-process Manager with the same atomic
// set-if-absent contract as the Redis implementation.  It backs unit
// tests and single-node development setups; it offers no cross-process
// exclusion and must not be deployed behind more than one replica.
type MemoryManager struct {
    mu      sync.Mutex
    entries map[string]memoryEntry
}

type memoryEntry struct {
    holder    string
    expiresAt time.Time
}

// NewMemoryManager returns an empty in-memory lock table.
func NewMemoryManager() *MemoryManager {
    return &MemoryManager{entries: make(map[string]memoryEntry)}
}

// Acquire stores the key unless a non-expired entry already exists.
// Expired entries are reaped lazily on the next acquisition attempt,
// mirroring Redis key expiry from the caller's point of view.
func (m *MemoryManager) Acquire(_ context.Context, eventID, seatID uint64, holder string, ttl time.Duration) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    key := Key(eventID, seatID)
    if e, ok := m.entries[key]; ok && time.Now().Before(e.expiresAt) {
        return false, nil
    }
    m.entries[key] = memoryEntry{holder: holder, expiresAt: time.Now().Add(ttl)}
    return true, nil
}

// Release deletes the given keys; missing keys are ignored.
func (m *MemoryManager) Release(_ context.Context, keys ...string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, k := range keys {
        delete(m.entries, k)
    }
    return nil
}

// TTL reports the remaining lifetime of a key.  Missing or expired keys
// yield a negative duration, mirroring the Redis -2 convention.
func (m *MemoryManager) TTL(_ context.Context, key string) (time.Duration, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    e, ok := m.entries[key]
    if !ok || !time.Now().Before(e.expiresAt) {
        return -2 * time.Second, nil
    }
    return time.Until(e.expiresAt), nil
}

// Inspect lists live lock entries.
func (m *MemoryManager) Inspect(_ context.Context) ([]Info, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    infos := []Info{}
    now := time.Now()
    for k, e := range m.entries {
        if !strings.HasPrefix(k, "lock:") || !now.Before(e.expiresAt) {
            continue
        }
        infos = append(infos, Info{Key: k, Holder: e.holder, TTL: time.Until(e.expiresAt)})
    }
    return infos, nil
}
