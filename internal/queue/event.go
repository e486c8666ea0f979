// Package queue defines the booking.confirmed message payload, the
// publisher that emits it and the background consumer that records it.
package queue

// BookingConfirmedEvent is published when a booking is successfully
// confirmed. It carries enough for downstream consumers to log or notify
// without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID      uint64 `json:"booking_id"`
    EventID        uint64 `json:"event_id"`
    UserID         uint64 `json:"user_id"`
    TotalAmount    string `json:"total_amount"`
    TransactionRef string `json:"transaction_ref"`
    ConfirmedAt    string `json:"confirmed_at"`
}
