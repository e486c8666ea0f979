package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo provides data access to the events table. Events are created
// by admins together with their per-seat availability rows; customers
// only ever read them. All timestamps are stored in UTC.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the provided database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span events and event_seats.
func (r *EventRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new event within the provided transaction and
// populates the generated ID on the passed model. The caller commits or
// rolls back; event seat generation happens in the same transaction.
func (r *EventRepo) CreateTx(ctx context.Context, tx *sql.Tx, ev *model.Event) error {
    const q = `INSERT INTO events (venue_id, title, description, default_price, start_time, end_time, is_active, created_by)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        ev.VenueID, ev.Title, ev.Description, ev.DefaultPrice,
        ev.StartTime.UTC(), ev.EndTime.UTC(), ev.IsActive, ev.CreatedBy)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    ev.ID = uint64(id)
    return nil
}

// GetByID returns a single event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
    const q = `SELECT id, venue_id, title, description, default_price, start_time, end_time, is_active, created_by, created_at, updated_at
               FROM events WHERE id = ?`
    var ev model.Event
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &ev.ID, &ev.VenueID, &ev.Title, &ev.Description, &ev.DefaultPrice,
        &ev.StartTime, &ev.EndTime, &ev.IsActive, &ev.CreatedBy,
        &ev.CreatedAt, &ev.UpdatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrEventNotFound
    }
    if err != nil {
        return nil, err
    }
    return &ev, nil
}

// ListUpcoming returns active events whose end time is still in the
// future, newest first, with simple offset pagination.
func (r *EventRepo) ListUpcoming(ctx context.Context, offset, limit int) ([]model.Event, error) {
    const q = `SELECT id, venue_id, title, description, default_price, start_time, end_time, is_active, created_by, created_at, updated_at
               FROM events
               WHERE is_active = 1 AND end_time > UTC_TIMESTAMP()
               ORDER BY start_time ASC
               LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, q, limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var events []model.Event
    for rows.Next() {
        var ev model.Event
        if err := rows.Scan(
            &ev.ID, &ev.VenueID, &ev.Title, &ev.Description, &ev.DefaultPrice,
            &ev.StartTime, &ev.EndTime, &ev.IsActive, &ev.CreatedBy,
            &ev.CreatedAt, &ev.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        events = append(events, ev)
    }
    return events, rows.Err()
}

// Bookable reports whether the event accepts new reservations: it must
// exist, be active, and its end time must still be ahead of now.
// A missing event yields ErrEventNotFound so callers can distinguish
// "no such event" from "event closed".
func (r *EventRepo) Bookable(ctx context.Context, id uint64, now time.Time) (bool, error) {
    ev, err := r.GetByID(ctx, id)
    if err != nil {
        return false, err
    }
    if !ev.IsActive {
        return false, nil
    }
    return now.UTC().Before(ev.EndTime), nil
}
