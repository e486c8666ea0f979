package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// BookingRepo provides data access to the bookings and booking_seats
// tables. Status writes go through compare-and-swap updates keyed on the
// expected current status; the booking state machine treats a zero
// affected-row count as "someone else transitioned this booking first".
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a new booking within the provided transaction and
// populates the generated ID on the passed model.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (event_id, user_id, total_amount, status) VALUES (?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, b.EventID, b.UserID, b.TotalAmount, b.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// CreateSeatsBulkTx inserts the booking_seats join rows for one booking
// in a single statement. Passing an empty slice has no effect.
func (r *BookingRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, bookingID uint64, eventSeatIDs []uint64) error {
    if len(eventSeatIDs) == 0 {
        return nil
    }
    query := `INSERT INTO booking_seats (booking_id, event_seat_id) VALUES `
    args := make([]interface{}, 0, len(eventSeatIDs)*2)
    for i, esID := range eventSeatIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?)"
        args = append(args, bookingID, esID)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetForUpdateTx loads one booking with a row lock so a concurrent
// Confirm, Cancel or sweep on the same booking serializes behind this
// transaction. Returns ErrBookingNotFound when absent.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
    const q = `SELECT id, event_id, user_id, total_amount, status, created_at, updated_at
               FROM bookings WHERE id = ? FOR UPDATE`
    var b model.Booking
    err := tx.QueryRowContext(ctx, q, id).Scan(
        &b.ID, &b.EventID, &b.UserID, &b.TotalAmount, &b.Status, &b.CreatedAt, &b.UpdatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    return &b, nil
}

// UpdateStatusTx moves a booking from one status to another. The WHERE
// predicate carries the expected current status; when no row matches the
// booking was already transitioned and the caller must treat the
// operation as invalid rather than overwrite a terminal state.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, fromStatus, toStatus string) error {
    const q = `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`
    res, err := tx.ExecContext(ctx, q, toStatus, id, fromStatus)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected != 1 {
        return ErrInvalidState
    }
    return nil
}

// EventSeatIDsTx returns the event_seats row ids claimed by a booking,
// for the seat status transition that accompanies confirm and cancel.
func (r *BookingRepo) EventSeatIDsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]uint64, error) {
    const q = `SELECT event_seat_id FROM booking_seats WHERE booking_id = ?`
    rows, err := tx.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// FindExpiredPending returns ids of PENDING bookings created before the
// given cutoff. The sweeper cancels each one individually so a failure
// on one booking cannot abort the whole sweep.
func (r *BookingRepo) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]uint64, error) {
    const q = `SELECT id FROM bookings WHERE status = ? AND created_at < ?`
    rows, err := r.db.QueryContext(ctx, q, model.BookingPending, cutoff.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// BookingDetail is one row of a user's booking list, joined with event
// and venue names plus the seat labels claimed by the booking.
type BookingDetail struct {
    ID          uint64          `json:"id"`
    EventID     uint64          `json:"event_id"`
    EventTitle  string          `json:"event_title"`
    VenueName   string          `json:"venue_name"`
    StartTime   time.Time       `json:"start_time"`
    EndTime     time.Time       `json:"end_time"`
    Seats       []string        `json:"seats"`
    TotalAmount decimal.Decimal `json:"total_amount"`
    Status      string          `json:"status"`
    CreatedAt   time.Time       `json:"created_at"`
}

// ListByUser returns all bookings made by a user, newest first, each
// carrying its seat labels.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
    const q = `SELECT b.id, b.event_id, e.title, v.name, e.start_time, e.end_time, b.total_amount, b.status, b.created_at
               FROM bookings b
               JOIN events e ON e.id = b.event_id
               JOIN venues v ON v.id = e.venue_id
               WHERE b.user_id = ?
               ORDER BY b.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var details []BookingDetail
    for rows.Next() {
        var d BookingDetail
        if err := rows.Scan(&d.ID, &d.EventID, &d.EventTitle, &d.VenueName,
            &d.StartTime, &d.EndTime, &d.TotalAmount, &d.Status, &d.CreatedAt); err != nil {
            return nil, err
        }
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    for i := range details {
        labels, err := r.seatLabels(ctx, details[i].ID)
        if err != nil {
            return nil, err
        }
        details[i].Seats = labels
    }
    return details, nil
}

// seatLabels returns the human-readable seat labels (e.g. A1) for a booking.
func (r *BookingRepo) seatLabels(ctx context.Context, bookingID uint64) ([]string, error) {
    const q = `SELECT CONCAT(s.row_label, s.seat_number)
               FROM booking_seats bs
               JOIN event_seats es ON es.id = bs.event_seat_id
               JOIN seats s ON s.id = es.seat_id
               WHERE bs.booking_id = ?
               ORDER BY s.row_label, s.seat_number`
    rows, err := r.db.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    labels := []string{}
    for rows.Next() {
        var l string
        if err := rows.Scan(&l); err != nil {
            return nil, err
        }
        labels = append(labels, l)
    }
    return labels, rows.Err()
}
