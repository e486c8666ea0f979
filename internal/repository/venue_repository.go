package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// VenueRepo provides data access to the venues and seats tables. A
// venue's physical seat grid is generated once at creation time; events
// reference these seats through their own event_seats rows.
type VenueRepo struct {
    db *sql.DB
}

// NewVenueRepo returns a new VenueRepo bound to the provided database.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// DB exposes the underlying handle so callers can create the venue and
// its seats in one transaction.
func (r *VenueRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a venue within the provided transaction and populates
// the generated ID.
func (r *VenueRepo) CreateTx(ctx context.Context, tx *sql.Tx, v *model.Venue) error {
    const q = `INSERT INTO venues (name, address, row_count, seats_per_row) VALUES (?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, v.Name, v.Address, v.RowCount, v.SeatsPerRow)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    v.ID = uint64(id)
    return nil
}

// GenerateSeatsTx bulk-inserts the physical seat grid for a venue: rows
// labelled A, B, C... each holding seatsPerRow numbered seats. Row count
// is capped at 26 single-letter rows, which covers every venue in scope.
func (r *VenueRepo) GenerateSeatsTx(ctx context.Context, tx *sql.Tx, venueID uint64, rowCount, seatsPerRow uint32) error {
    if rowCount == 0 || seatsPerRow == 0 {
        return fmt.Errorf("%w: layout must have at least one row and one seat", ErrValidation)
    }
    if rowCount > 26 {
        return fmt.Errorf("%w: at most 26 rows supported", ErrValidation)
    }
    query := `INSERT INTO seats (venue_id, row_label, seat_number) VALUES `
    args := make([]interface{}, 0, int(rowCount*seatsPerRow)*3)
    first := true
    for row := uint32(0); row < rowCount; row++ {
        label := string(rune('A' + row))
        for n := uint32(1); n <= seatsPerRow; n++ {
            if !first {
                query += ","
            }
            first = false
            query += "(?, ?, ?)"
            args = append(args, venueID, label, n)
        }
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetByID returns a single venue or ErrVenueNotFound.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*model.Venue, error) {
    const q = `SELECT id, name, address, row_count, seats_per_row, created_at, updated_at FROM venues WHERE id = ?`
    var v model.Venue
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &v.ID, &v.Name, &v.Address, &v.RowCount, &v.SeatsPerRow, &v.CreatedAt, &v.UpdatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrVenueNotFound
    }
    if err != nil {
        return nil, err
    }
    return &v, nil
}

// List returns all venues.
func (r *VenueRepo) List(ctx context.Context) ([]model.Venue, error) {
    const q = `SELECT id, name, address, row_count, seats_per_row, created_at, updated_at FROM venues ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var venues []model.Venue
    for rows.Next() {
        var v model.Venue
        if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.RowCount, &v.SeatsPerRow, &v.CreatedAt, &v.UpdatedAt); err != nil {
            return nil, err
        }
        venues = append(venues, v)
    }
    return venues, rows.Err()
}

// SeatIDsTx returns the ids of every physical seat in a venue, used when
// materializing event_seats for a new event.
func (r *VenueRepo) SeatIDsTx(ctx context.Context, tx *sql.Tx, venueID uint64) ([]uint64, error) {
    const q = `SELECT id FROM seats WHERE venue_id = ? ORDER BY id`
    rows, err := tx.QueryContext(ctx, q, venueID)
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
