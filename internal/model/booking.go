package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Booking statuses.  PENDING bookings hold their seats in LOCKED state
// until payment resolves or the reservation window elapses.  CONFIRMED
// and CANCELLED are terminal; no further transition is valid.
const (
    BookingPending   = "PENDING"
    BookingConfirmed = "CONFIRMED"
    BookingCancelled = "CANCELLED"
)

// Payment statuses.  Payments are audit records written as a side effect
// of booking transitions; they never drive seat or booking state.  A row
// is only ever written with its final verdict, so there is no pending
// payment status.
const (
    PaymentSuccess = "SUCCESS"
    PaymentFailed  = "FAILED"
)

// Booking is a user's claim on a set of seats for one event.  The total
// amount is the exact decimal sum of the seat prices at reservation time
// and never changes afterwards, even when seat prices are edited later.
//
// Fields:
//  ID          – primary key identifier.
//  EventID     – event being booked.
//  UserID      – user who made the booking.
//  TotalAmount – fixed decimal total for all seats.
//  Status      – PENDING, CONFIRMED or CANCELLED.
//  CreatedAt   – creation timestamp (UTC).
//  UpdatedAt   – last update timestamp (UTC).
type Booking struct {
    ID          uint64          // bookings.id
    EventID     uint64          // bookings.event_id
    UserID      uint64          // bookings.user_id
    TotalAmount decimal.Decimal // bookings.total_amount (DECIMAL(10,2))
    Status      string          // bookings.status
    CreatedAt   time.Time       // bookings.created_at
    UpdatedAt   time.Time       // bookings.updated_at
}

// BookingSeat joins a booking to one event seat.  Rows are created
// atomically with the booking and retained for audit after the booking
// reaches a terminal state; seat availability is tracked on event_seats.
//
// Fields:
//  ID          – primary key identifier.
//  BookingID   – owning booking.
//  EventSeatID – the (event, seat) row claimed by the booking.
//  CreatedAt   – creation timestamp.
type BookingSeat struct {
    ID          uint64    // booking_seats.id
    BookingID   uint64    // booking_seats.booking_id
    EventSeatID uint64    // booking_seats.event_seat_id
    CreatedAt   time.Time // booking_seats.created_at
}

// Payment records one attempt to settle a booking.  A booking may have
// several payment rows over its life; the most recent one is reported by
// the status endpoint.
//
// Fields:
//  ID             – primary key identifier.
//  BookingID      – booking being paid for.
//  UserID         – user who owns the booking.
//  Amount         – charged amount, equal to the booking total.
//  Status         – SUCCESS or FAILED.
//  TransactionRef – gateway reference, or a cancellation reason for
//                   FAILED rows (e.g. AUTO_EXPIRED).
//  CreatedAt      – creation timestamp.
type Payment struct {
    ID             uint64          // payments.id
    BookingID      uint64          // payments.booking_id
    UserID         uint64          // payments.user_id
    Amount         decimal.Decimal // payments.amount (DECIMAL(10,2))
    Status         string          // payments.status
    TransactionRef *string         // payments.transaction_ref (nullable)
    CreatedAt      time.Time       // payments.created_at
}
