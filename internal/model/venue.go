package model

import "time"

// Venue is a physical location whose seats are laid out once and shared
// by every event hosted there.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – venue name.
//  Address     – street address (nullable).
//  RowCount    – number of seat rows in the layout.
//  SeatsPerRow – seats generated per row.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Venue struct {
    ID          uint64    // venues.id
    Name        string    // venues.name
    Address     *string   // venues.address (nullable)
    RowCount    uint32    // venues.row_count
    SeatsPerRow uint32    // venues.seats_per_row
    CreatedAt   time.Time // venues.created_at
    UpdatedAt   time.Time // venues.updated_at
}

// Seat is one physical position in a venue, identified by a row label
// and a seat number (e.g. A1).  Availability per event lives in
// event_seats, not here.
//
// Fields:
//  ID         – primary key identifier.
//  VenueID    – owning venue.
//  RowLabel   – row letter(s), A..Z.
//  SeatNumber – 1-based position within the row.
type Seat struct {
    ID         uint64 // seats.id
    VenueID    uint64 // seats.venue_id
    RowLabel   string // seats.row_label
    SeatNumber uint32 // seats.seat_number
}
