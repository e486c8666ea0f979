package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// PaymentRepo provides data access to the payments table. Payments are
// append-only audit rows written as a side effect of booking transitions;
// nothing here ever mutates seats or bookings.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the provided database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx appends a payment row within the provided transaction and
// populates the generated ID.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
    const q = `INSERT INTO payments (booking_id, user_id, amount, status, transaction_ref) VALUES (?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, p.BookingID, p.UserID, p.Amount, p.Status, p.TransactionRef)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    return nil
}

// StatusDetail joins a booking with its most recent payment for the
// caller-facing status endpoint. Payment fields are nil when no payment
// row exists yet (a booking still PENDING).
type StatusDetail struct {
    BookingID      uint64          `json:"booking_id"`
    Status         string          `json:"status"`
    TotalAmount    decimal.Decimal `json:"total_amount"`
    PaymentStatus  *string         `json:"payment_status"`
    TransactionRef *string         `json:"transaction_ref"`
    CreatedAt      time.Time       `json:"created_at"`
}

// GetStatusDetail returns the booking joined with its latest payment, or
// ErrBookingNotFound.
func (r *PaymentRepo) GetStatusDetail(ctx context.Context, bookingID uint64) (*StatusDetail, error) {
    const q = `SELECT b.id, b.status, b.total_amount, p.status, p.transaction_ref, b.created_at
               FROM bookings b
               LEFT JOIN payments p ON p.booking_id = b.id
               WHERE b.id = ?
               ORDER BY p.created_at DESC, p.id DESC
               LIMIT 1`
    var d StatusDetail
    err := r.db.QueryRowContext(ctx, q, bookingID).Scan(
        &d.BookingID, &d.Status, &d.TotalAmount, &d.PaymentStatus, &d.TransactionRef, &d.CreatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    return &d, nil
}
