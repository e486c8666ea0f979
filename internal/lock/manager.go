// Package lock implements the distributed reservation locks that
// arbitrate concurrent booking attempts.  One key exists per
// (event, seat) pair while a reservation attempt is in flight; the key
// value identifies the holder.  Locks are TTL-bounded so a crashed
// process can never pin a seat forever.  The durable event_seats.status
// column remains the source of truth for seat ownership; these locks only
// prevent two concurrent attempts from both believing a seat is free.
package lock

import (
    "context"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// Manager is the contract the booking state machine depends on.  It is
// injected rather than accessed as a process-wide singleton so tests can
// substitute an in-memory implementation with the same atomic
// set-if-absent semantics.
type Manager interface {
    // Acquire sets the lock key for (eventID, seatID) only if it is
    // absent and returns whether the caller now holds it.  A false
    // return with a nil error means another attempt holds the seat;
    // callers must surface "seat unavailable" and must not retry
    // automatically.  A non-nil error means the lock store could not be
    // reached and the reservation attempt has to fail.
    Acquire(ctx context.Context, eventID, seatID uint64, holder string, ttl time.Duration) (bool, error)

    // Release deletes the given keys unconditionally.  Deleting an
    // absent key is not an error; Release is safe to call on every exit
    // path, including after a partial acquisition.
    Release(ctx context.Context, keys ...string) error

    // TTL reports the remaining lifetime of a lock key.  It exists for
    // diagnostics only and must not feed business logic.
    TTL(ctx context.Context, key string) (time.Duration, error)

    // Inspect lists all live reservation locks.  Diagnostics only.
    Inspect(ctx context.Context) ([]Info, error)
}

// Info describes one live lock for diagnostic listings.
type Info struct {
    Key    string        `json:"key"`
    Holder string        `json:"holder"`
    TTL    time.Duration `json:"ttl"`
}

// Key builds the store key for one seat of one event.  The shape is
// shared with the sweeper's log lines and the admin lock listing.
func Key(eventID, seatID uint64) string {
    return fmt.Sprintf("lock:%d:%d", eventID, seatID)
}

// RedisManager is the production Manager backed by a shared Redis
// instance.  SET NX EX gives the atomic check-and-set; DEL gives the
// idempotent batch release.
type RedisManager struct {
    client *redis.Client
}

// NewRedisManager returns a Manager backed by the given client.  The
// client must be non-nil; connection failures surface per-call.
func NewRedisManager(client *redis.Client) *RedisManager {
    if client == nil {
        panic("nil redis client passed to NewRedisManager")
    }
    return &RedisManager{client: client}
}

// Acquire implements Manager using SET key holder NX EX ttl.
func (m *RedisManager) Acquire(ctx context.Context, eventID, seatID uint64, holder string, ttl time.Duration) (bool, error) {
    ok, err := m.client.SetNX(ctx, Key(eventID, seatID), holder, ttl).Result()
    if err != nil {
        return false, fmt.Errorf("lock store: %w", err)
    }
    return ok, nil
}

// Release implements Manager.  DEL on missing keys is a no-op in Redis,
// which gives the idempotency the contract requires.
func (m *RedisManager) Release(ctx context.Context, keys ...string) error {
    if len(keys) == 0 {
        return nil
    }
    if err := m.client.Del(ctx, keys...).Err(); err != nil {
        return fmt.Errorf("lock store: %w", err)
    }
    return nil
}

// TTL implements Manager.
func (m *RedisManager) TTL(ctx context.Context, key string) (time.Duration, error) {
    d, err := m.client.TTL(ctx, key).Result()
    if err != nil {
        return 0, fmt.Errorf("lock store: %w", err)
    }
    return d, nil
}

// Inspect walks lock:* with SCAN and reads holder and TTL for each key.
// Keys may expire between the scan and the reads; vanished keys are
// skipped rather than reported as errors.
func (m *RedisManager) Inspect(ctx context.Context) ([]Info, error) {
    infos := []Info{}
    iter := m.client.Scan(ctx, 0, "lock:*", 100).Iterator()
    for iter.Next(ctx) {
        key := iter.Val()
        holder, err := m.client.Get(ctx, key).Result()
        if err == redis.Nil {
            continue
        }
        if err != nil {
            return nil, fmt.Errorf("lock store: %w", err)
        }
        ttl, err := m.client.TTL(ctx, key).Result()
        if err != nil {
            return nil, fmt.Errorf("lock store: %w", err)
        }
        infos = append(infos, Info{Key: key, Holder: holder, TTL: ttl})
    }
    if err := iter.Err(); err != nil {
        return nil, fmt.Errorf("lock store: %w", err)
    }
    return infos, nil
}
