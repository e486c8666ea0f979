// Package service holds the booking state machine, the expiry sweeper and
// the payment gateway adapter. The state machine is the single owner of
// consistency between seat status, booking status and payment records:
// every transition runs inside one database transaction, guarded by the
// short-lived per-seat Redis locks during the reserve race window.
package service

import (
    "context"
    "database/sql"
    "fmt"
    "log"
    "sort"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/event-ticketing/internal/lock"
    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

// MaxSeatsPerBooking caps how many seats one booking may claim.
const MaxSeatsPerBooking = 20

// ReasonAutoExpired is recorded on payments written when the sweeper
// cancels a booking whose reservation window elapsed.
const ReasonAutoExpired = "AUTO_EXPIRED"

// ConfirmedPublisher receives a notification after a booking commit
// confirms. Publishing is best effort: a broker outage never fails the
// confirmation it reports on.
type ConfirmedPublisher interface {
    PublishBookingConfirmed(ctx context.Context, bookingID, eventID, userID uint64, totalAmount, transactionRef string)
}

// ReserveResult is returned to the caller after a successful Reserve.
type ReserveResult struct {
    BookingID   uint64          `json:"booking_id"`
    TotalAmount decimal.Decimal `json:"total_amount"`
    Status      string          `json:"status"`
}

// StatusResult is returned by Confirm and Cancel.
type StatusResult struct {
    BookingID      uint64 `json:"booking_id"`
    Status         string `json:"status"`
    TransactionRef string `json:"transaction_ref"`
}

// BookingService drives the PENDING -> CONFIRMED / CANCELLED lifecycle.
// All dependencies are injected; tests substitute an in-memory lock
// manager and a mocked database.
type BookingService struct {
    db         *sql.DB
    events     *repository.EventRepo
    eventSeats *repository.EventSeatRepo
    bookings   *repository.BookingRepo
    payments   *repository.PaymentRepo
    locker     lock.Manager
    publisher  ConfirmedPublisher // optional
    lockTTL    time.Duration
    now        func() time.Time
}

// NewBookingService constructs a BookingService. The publisher may be
// nil; every other dependency must be non-nil.
func NewBookingService(
    db *sql.DB,
    events *repository.EventRepo,
    eventSeats *repository.EventSeatRepo,
    bookings *repository.BookingRepo,
    payments *repository.PaymentRepo,
    locker lock.Manager,
    publisher ConfirmedPublisher,
    lockTTL time.Duration,
) *BookingService {
    if db == nil || events == nil || eventSeats == nil || bookings == nil || payments == nil || locker == nil {
        panic("nil dependency passed to NewBookingService")
    }
    if lockTTL <= 0 {
        lockTTL = 180 * time.Second
    }
    return &BookingService{
        db:         db,
        events:     events,
        eventSeats: eventSeats,
        bookings:   bookings,
        payments:   payments,
        locker:     locker,
        publisher:  publisher,
        lockTTL:    lockTTL,
        now:        func() time.Time { return time.Now().UTC() },
    }
}

// validateSeatSelection rejects empty, oversized or duplicated seat
// selections before any store is touched, and returns the ids sorted
// ascending. The fixed acquisition order prevents two requests with
// overlapping seat sets from deadlocking against each other.
func validateSeatSelection(seatIDs []uint64) ([]uint64, error) {
    if len(seatIDs) == 0 {
        return nil, fmt.Errorf("%w: seat_ids is required", repository.ErrValidation)
    }
    if len(seatIDs) > MaxSeatsPerBooking {
        return nil, fmt.Errorf("%w: at most %d seats per booking", repository.ErrValidation, MaxSeatsPerBooking)
    }
    sorted := make([]uint64, len(seatIDs))
    copy(sorted, seatIDs)
    sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
    for i, id := range sorted {
        if id == 0 {
            return nil, fmt.Errorf("%w: seat ids must be positive", repository.ErrValidation)
        }
        if i > 0 && sorted[i-1] == id {
            return nil, fmt.Errorf("%w: duplicate seat id %d", repository.ErrValidation, id)
        }
    }
    return sorted, nil
}

// Reserve creates a PENDING booking for the given seats. Per-seat locks
// are acquired in ascending seat order before the transaction opens and
// released on every exit path: they cover only the critical window
// between validation and commit, not the full PENDING lifetime. Losing a
// lock race surfaces as ErrSeatUnavailable; an unreachable lock store
// surfaces as ErrStoreUnavailable and the reservation never proceeds
// without mutual exclusion.
func (s *BookingService) Reserve(ctx context.Context, eventID, userID uint64, seatIDs []uint64) (*ReserveResult, error) {
    seatIDs, err := validateSeatSelection(seatIDs)
    if err != nil {
        return nil, err
    }

    bookable, err := s.events.Bookable(ctx, eventID, s.now())
    if err != nil {
        return nil, err
    }
    if !bookable {
        return nil, fmt.Errorf("%w: event %d is inactive or finished", repository.ErrEventNotBookable, eventID)
    }

    holder := strconv.FormatUint(userID, 10)
    acquired := make([]string, 0, len(seatIDs))
    defer func() {
        if len(acquired) > 0 {
            if relErr := s.locker.Release(context.WithoutCancel(ctx), acquired...); relErr != nil {
                // TTL expiry reclaims the keys if this delete is lost.
                log.Printf("booking: releasing %d seat locks failed: %v", len(acquired), relErr)
            }
        }
    }()
    for _, sid := range seatIDs {
        ok, err := s.locker.Acquire(ctx, eventID, sid, holder, s.lockTTL)
        if err != nil {
            return nil, fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
        }
        if !ok {
            return nil, fmt.Errorf("%w: seat %d is held by another booking attempt", repository.ErrSeatUnavailable, sid)
        }
        acquired = append(acquired, lock.Key(eventID, sid))
    }

    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    seats, err := s.eventSeats.ValidateAvailableTx(ctx, tx, eventID, seatIDs)
    if err != nil {
        return nil, err
    }

    total := decimal.Zero
    eventSeatIDs := make([]uint64, 0, len(seats))
    for _, es := range seats {
        total = total.Add(es.Price)
        eventSeatIDs = append(eventSeatIDs, es.ID)
    }

    booking := &model.Booking{
        EventID:     eventID,
        UserID:      userID,
        TotalAmount: total,
        Status:      model.BookingPending,
    }
    if err := s.bookings.CreateTx(ctx, tx, booking); err != nil {
        return nil, err
    }
    if err := s.bookings.CreateSeatsBulkTx(ctx, tx, booking.ID, eventSeatIDs); err != nil {
        return nil, err
    }
    if err := s.eventSeats.TransitionTx(ctx, tx, eventSeatIDs, model.SeatAvailable, model.SeatLocked); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
    }
    committed = true

    return &ReserveResult{
        BookingID:   booking.ID,
        TotalAmount: total,
        Status:      model.BookingPending,
    }, nil
}

// Confirm settles a PENDING booking: one transaction writes a SUCCESS
// payment, flips the booking to CONFIRMED and the seats to BOOKED. A
// booking that is already terminal fails with ErrInvalidState; nothing is
// double-written. When transactionRef is empty a TXN_ reference is
// generated, matching the shape gateways return.
func (s *BookingService) Confirm(ctx context.Context, bookingID uint64, transactionRef string) (*StatusResult, error) {
    if transactionRef == "" {
        transactionRef = NewTransactionRef()
    }
    if err := s.transition(ctx, bookingID, model.BookingConfirmed, model.PaymentSuccess, model.SeatBooked, transactionRef); err != nil {
        return nil, err
    }
    if s.publisher != nil {
        if b, err := s.statusForPublish(ctx, bookingID); err == nil {
            s.publisher.PublishBookingConfirmed(context.WithoutCancel(ctx),
                bookingID, b.eventID, b.userID, b.total.StringFixed(2), transactionRef)
        }
    }
    return &StatusResult{BookingID: bookingID, Status: model.BookingConfirmed, TransactionRef: transactionRef}, nil
}

// Cancel voids a PENDING booking: one transaction writes a FAILED payment
// carrying the reason as its transaction reference, flips the booking to
// CANCELLED and the seats back to AVAILABLE. Cancelling a terminal
// booking fails with ErrInvalidState, which is what makes the sweeper
// safe to run concurrently with in-flight confirms.
func (s *BookingService) Cancel(ctx context.Context, bookingID uint64, reason string) (*StatusResult, error) {
    if reason == "" {
        reason = "USER_CANCELLED"
    }
    if err := s.transition(ctx, bookingID, model.BookingCancelled, model.PaymentFailed, model.SeatAvailable, reason); err != nil {
        return nil, err
    }
    return &StatusResult{BookingID: bookingID, Status: model.BookingCancelled, TransactionRef: reason}, nil
}

// transition performs the shared confirm/cancel transaction: load the
// booking with a row lock, require PENDING, append the payment row, CAS
// the booking status and move the seats LOCKED -> toSeatStatus.
func (s *BookingService) transition(ctx context.Context, bookingID uint64, toBookingStatus, paymentStatus, toSeatStatus, transactionRef string) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    booking, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
    if err != nil {
        return err
    }
    if booking.Status != model.BookingPending {
        return fmt.Errorf("%w: booking %d is %s", repository.ErrInvalidState, bookingID, booking.Status)
    }

    payment := &model.Payment{
        BookingID:      booking.ID,
        UserID:         booking.UserID,
        Amount:         booking.TotalAmount,
        Status:         paymentStatus,
        TransactionRef: &transactionRef,
    }
    if err := s.payments.CreateTx(ctx, tx, payment); err != nil {
        return err
    }
    if err := s.bookings.UpdateStatusTx(ctx, tx, booking.ID, model.BookingPending, toBookingStatus); err != nil {
        return err
    }
    eventSeatIDs, err := s.bookings.EventSeatIDsTx(ctx, tx, booking.ID)
    if err != nil {
        return err
    }
    if err := s.eventSeats.TransitionTx(ctx, tx, eventSeatIDs, model.SeatLocked, toSeatStatus); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
    }
    committed = true
    return nil
}

// GetStatus returns the booking joined with its most recent payment.
func (s *BookingService) GetStatus(ctx context.Context, bookingID uint64) (*repository.StatusDetail, error) {
    return s.payments.GetStatusDetail(ctx, bookingID)
}

// publishInfo carries the fields the confirmed-event payload needs.
type publishInfo struct {
    eventID uint64
    userID  uint64
    total   decimal.Decimal
}

// statusForPublish re-reads the confirmed booking outside the committed
// transaction to build the broker payload.
func (s *BookingService) statusForPublish(ctx context.Context, bookingID uint64) (*publishInfo, error) {
    const q = `SELECT event_id, user_id, total_amount FROM bookings WHERE id = ?`
    var info publishInfo
    if err := s.db.QueryRowContext(ctx, q, bookingID).Scan(&info.eventID, &info.userID, &info.total); err != nil {
        return nil, err
    }
    return &info, nil
}

// NewTransactionRef builds a gateway-style reference: TXN_ followed by 12
// uppercase hex characters.
func NewTransactionRef() string {
    hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
    return "TXN_" + hex[:12]
}
