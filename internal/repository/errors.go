// Package repository defines error types that are reused across multiple
// repositories and by the booking service. These sentinel values allow
// higher layers such as handlers to distinguish between different failure
// scenarios and pick the right HTTP status: a seat lost to a concurrent
// buyer (ErrSeatUnavailable) must read differently to the client than a
// malformed request (ErrValidation) or a double confirm (ErrInvalidState).
package repository

import "errors"

// ErrValidation is returned for structurally bad input: an empty or
// oversized seat selection, duplicate seat ids, zero ids. Handlers
// translate this into HTTP 400.
var ErrValidation = errors.New("validation failed")

// ErrSeatUnavailable is returned when a requested seat does not exist for
// the event, is not AVAILABLE, or is held by a concurrent reservation
// attempt. Handlers translate this into HTTP 409 so clients can offer a
// different seat, distinct from plain validation errors.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrEventNotBookable is returned when the event exists but is inactive
// or already finished. Handlers translate this into HTTP 422.
var ErrEventNotBookable = errors.New("event not bookable")

// ErrInvalidState is returned when an operation targets a booking that is
// already terminal, including double confirms and double cancels.
// Handlers translate this into HTTP 409.
var ErrInvalidState = errors.New("invalid booking state")

// ErrEventNotFound is returned when the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when the referenced booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrVenueNotFound is returned when the referenced venue does not exist.
var ErrVenueNotFound = errors.New("venue not found")

// ErrStoreUnavailable is returned when the lock store or the database
// cannot be reached. The request fails and is not retried by the core;
// callers may retry. Handlers translate this into HTTP 503.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrEmailExists is returned when registering with an email that is
// already taken. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user matches the given credentials
// or identifier.
var ErrUserNotFound = errors.New("user not found")
