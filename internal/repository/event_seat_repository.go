package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// EventSeatRepo is the seat state store: it owns the durable
// per-(event, seat) status rows. Status moves only AVAILABLE -> LOCKED ->
// BOOKED (or back to AVAILABLE on cancellation), always inside the
// caller's transaction, and always through a compare-and-swap update so
// a concurrent transition can never be clobbered silently.
type EventSeatRepo struct {
    db *sql.DB
}

// NewEventSeatRepo returns a new EventSeatRepo bound to the provided database.
func NewEventSeatRepo(db *sql.DB) *EventSeatRepo { return &EventSeatRepo{db: db} }

// placeholders builds "?, ?, ?" for n values.
func placeholders(n int) string {
    return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// CreateForEventTx materializes one event_seats row per venue seat at the
// event's default price. Called from event creation inside the same
// transaction that inserts the event itself.
func (r *EventSeatRepo) CreateForEventTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatIDs []uint64, price decimal.Decimal) error {
    if len(seatIDs) == 0 {
        return nil
    }
    query := `INSERT INTO event_seats (event_id, seat_id, price, status) VALUES `
    args := make([]interface{}, 0, len(seatIDs)*4)
    for i, sid := range seatIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, eventID, sid, price, model.SeatAvailable)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ValidateAvailableTx loads the event_seats rows for the requested seats
// with row-level locks (FOR UPDATE) and verifies every one of them is
// AVAILABLE. It fails with ErrSeatUnavailable when the returned set is
// smaller than requested -- a seat id that does not belong to the event
// -- or when any row is LOCKED or BOOKED. The returned slice carries the
// prices used to fix the booking total.
func (r *EventSeatRepo) ValidateAvailableTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatIDs []uint64) ([]model.EventSeat, error) {
    if len(seatIDs) == 0 {
        return nil, fmt.Errorf("%w: no seats requested", ErrValidation)
    }
    query := `SELECT id, event_id, seat_id, price, status, version FROM event_seats WHERE event_id = ? AND seat_id IN (` +
        placeholders(len(seatIDs)) + `) FOR UPDATE`
    args := make([]interface{}, 0, len(seatIDs)+1)
    args = append(args, eventID)
    for _, sid := range seatIDs {
        args = append(args, sid)
    }
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seats []model.EventSeat
    for rows.Next() {
        var es model.EventSeat
        if err := rows.Scan(&es.ID, &es.EventID, &es.SeatID, &es.Price, &es.Status, &es.Version); err != nil {
            return nil, err
        }
        seats = append(seats, es)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(seats) != len(seatIDs) {
        return nil, fmt.Errorf("%w: one or more seats do not exist for this event", ErrSeatUnavailable)
    }
    for _, es := range seats {
        if es.Status != model.SeatAvailable {
            return nil, fmt.Errorf("%w: seat %d is %s", ErrSeatUnavailable, es.SeatID, es.Status)
        }
    }
    return seats, nil
}

// TransitionTx moves the given event_seats rows from one status to
// another inside the caller's transaction. The WHERE predicate carries
// the expected current status, so the affected-row count doubles as the
// optimistic-concurrency check: when it differs from len(ids) another
// transaction changed a row since it was read, and the whole operation
// must roll back.
func (r *EventSeatRepo) TransitionTx(ctx context.Context, tx *sql.Tx, ids []uint64, fromStatus, toStatus string) error {
    if len(ids) == 0 {
        return nil
    }
    query := `UPDATE event_seats SET status = ?, version = version + 1 WHERE id IN (` +
        placeholders(len(ids)) + `) AND status = ?`
    args := make([]interface{}, 0, len(ids)+2)
    args = append(args, toStatus)
    for _, id := range ids {
        args = append(args, id)
    }
    args = append(args, fromStatus)
    res, err := tx.ExecContext(ctx, query, args...)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected != int64(len(ids)) {
        return fmt.Errorf("%w: expected %d seats in status %s, matched %d",
            ErrSeatUnavailable, len(ids), fromStatus, affected)
    }
    return nil
}

// ListByEvent returns every availability row for an event together with
// its physical seat label, for the public availability listing.
func (r *EventSeatRepo) ListByEvent(ctx context.Context, eventID uint64) ([]SeatAvailability, error) {
    const q = `SELECT es.id, es.seat_id, s.row_label, s.seat_number, es.price, es.status
               FROM event_seats es
               JOIN seats s ON s.id = es.seat_id
               WHERE es.event_id = ?
               ORDER BY s.row_label, s.seat_number`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []SeatAvailability
    for rows.Next() {
        var sa SeatAvailability
        if err := rows.Scan(&sa.EventSeatID, &sa.SeatID, &sa.RowLabel, &sa.SeatNumber, &sa.Price, &sa.Status); err != nil {
            return nil, err
        }
        out = append(out, sa)
    }
    return out, rows.Err()
}

// SeatAvailability is one row of the public availability listing.
type SeatAvailability struct {
    EventSeatID uint64          `json:"event_seat_id"`
    SeatID      uint64          `json:"seat_id"`
    RowLabel    string          `json:"row_label"`
    SeatNumber  uint32          `json:"seat_number"`
    Price       decimal.Decimal `json:"price"`
    Status      string          `json:"status"`
}

// UpdatePrice changes the price of one event seat. Only future bookings
// observe the new price; committed totals were fixed at reservation time.
// Returns ErrSeatUnavailable when the row does not exist.
func (r *EventSeatRepo) UpdatePrice(ctx context.Context, eventID, seatID uint64, price decimal.Decimal) error {
    const q = `UPDATE event_seats SET price = ? WHERE event_id = ? AND seat_id = ?`
    res, err := r.db.ExecContext(ctx, q, price, eventID, seatID)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        return fmt.Errorf("%w: no such seat for this event", ErrSeatUnavailable)
    }
    return nil
}
