package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Event seat statuses.  Transitions happen only through the booking state
// machine or the expiry sweeper, always inside a transaction.
const (
    SeatAvailable = "AVAILABLE"
    SeatLocked    = "LOCKED"
    SeatBooked    = "BOOKED"
)

// Event is a ticketed occurrence at a venue.  Seats for the event are
// materialized in event_seats when the event is created.  An event is
// bookable while it is active and its end time has not passed.
//
// Fields:
//  ID           – primary key identifier.
//  VenueID      – venue hosting the event.
//  Title        – display title.
//  Description  – optional long description.
//  DefaultPrice – price applied to every generated event seat.
//  StartTime    – when the event starts (UTC).
//  EndTime      – when the event ends (UTC); bookings close at this time.
//  IsActive     – whether the event accepts bookings.
//  CreatedBy    – user who created the event.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Event struct {
    ID           uint64          // events.id
    VenueID      uint64          // events.venue_id
    Title        string          // events.title
    Description  *string         // events.description (nullable)
    DefaultPrice decimal.Decimal // events.default_price (DECIMAL(10,2))
    StartTime    time.Time       // events.start_time
    EndTime      time.Time       // events.end_time
    IsActive     bool            // events.is_active
    CreatedBy    uint64          // events.created_by
    CreatedAt    time.Time       // events.created_at
    UpdatedAt    time.Time       // events.updated_at
}

// EventSeat is the durable availability record for one physical seat at
// one event.  Exactly one row exists per (event, seat) pair.  The status
// column is the source of truth for seat ownership; the Redis lock only
// arbitrates the race window before a transaction commits.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – the event this availability row belongs to.
//  SeatID    – the physical seat being sold.
//  Price     – current price; bookings snapshot it into total_amount.
//  Status    – AVAILABLE, LOCKED or BOOKED.
//  Version   – bumped on every status transition (optimistic check).
//  UpdatedAt – last modification timestamp.
type EventSeat struct {
    ID        uint64          // event_seats.id
    EventID   uint64          // event_seats.event_id
    SeatID    uint64          // event_seats.seat_id
    Price     decimal.Decimal // event_seats.price (DECIMAL(10,2))
    Status    string          // event_seats.status
    Version   uint32          // event_seats.version
    UpdatedAt time.Time       // event_seats.updated_at
}
