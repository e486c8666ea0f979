package service

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/iliyamo/event-ticketing/internal/repository"
)

// ExpiredBookingStore lists PENDING bookings whose reservation window has
// elapsed. Implemented by repository.BookingRepo.
type ExpiredBookingStore interface {
    FindExpiredPending(ctx context.Context, cutoff time.Time) ([]uint64, error)
}

// BookingCanceller cancels a single booking. Implemented by
// BookingService; the sweeper leans on Cancel's PENDING-only precondition
// so racing a concurrent confirm or a second sweeper degrades to a
// harmless ErrInvalidState instead of corrupting state.
type BookingCanceller interface {
    Cancel(ctx context.Context, bookingID uint64, reason string) (*StatusResult, error)
}

// Sweeper is the background process that enforces the reservation
// window. It reads the bookings table on every tick, so it needs no
// in-memory timers and survives process restarts; a booking reserved
// before a crash is picked up by the first sweep after recovery.
type Sweeper struct {
    store     ExpiredBookingStore
    canceller BookingCanceller
    window    time.Duration
    interval  time.Duration
    now       func() time.Time
}

// NewSweeper constructs a Sweeper. window is how long a booking may stay
// PENDING; interval is the sweep cadence.
func NewSweeper(store ExpiredBookingStore, canceller BookingCanceller, window, interval time.Duration) *Sweeper {
    if store == nil || canceller == nil {
        panic("nil dependency passed to NewSweeper")
    }
    if window <= 0 {
        window = 180 * time.Second
    }
    if interval <= 0 {
        interval = 30 * time.Second
    }
    return &Sweeper{
        store:     store,
        canceller: canceller,
        window:    window,
        interval:  interval,
        now:       func() time.Time { return time.Now().UTC() },
    }
}

// Run sweeps on a fixed interval until the context is cancelled. It is
// meant to be started once from main as a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()

    log.Printf("sweeper: started (window=%s interval=%s)", s.window, s.interval)
    for {
        select {
        case <-ctx.Done():
            log.Printf("sweeper: stopped")
            return
        case <-ticker.C:
            s.SweepOnce(ctx)
        }
    }
}

// SweepOnce cancels every PENDING booking older than the reservation
// window. Errors on individual bookings are logged and skipped so one
// bad booking cannot stall the rest of the sweep. It returns the number
// of bookings cancelled, which also serves the manual admin trigger.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
    cutoff := s.now().Add(-s.window)
    ids, err := s.store.FindExpiredPending(ctx, cutoff)
    if err != nil {
        log.Printf("sweeper: listing expired bookings failed: %v", err)
        return 0
    }
    if len(ids) == 0 {
        return 0
    }
    log.Printf("sweeper: found %d expired bookings", len(ids))
    cancelled := 0
    for _, id := range ids {
        if _, err := s.canceller.Cancel(ctx, id, ReasonAutoExpired); err != nil {
            if errors.Is(err, repository.ErrInvalidState) {
                // Confirmed or cancelled between the scan and now.
                continue
            }
            log.Printf("sweeper: cancelling booking %d failed: %v", id, err)
            continue
        }
        cancelled++
        log.Printf("sweeper: booking %d expired, seats released", id)
    }
    return cancelled
}
