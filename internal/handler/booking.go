package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/repository"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// BookingHandler exposes the reserve/cancel/list surface of the booking
// state machine. Confirmation goes through the payment handler, which
// owns the gateway call.
type BookingHandler struct {
    Bookings    *service.BookingService
    BookingRepo *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler. Both dependencies must
// be non-nil.
func NewBookingHandler(svc *service.BookingService, repo *repository.BookingRepo) *BookingHandler {
    if svc == nil || repo == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: svc, BookingRepo: repo}
}

type reserveReq struct {
    EventID uint64   `json:"event_id"`
    SeatIDs []uint64 `json:"seat_ids"`
}

type cancelReq struct {
    Reason string `json:"reason"`
}

// Reserve handles POST /v1/bookings/reserve. On success the booking is
// PENDING and the client has the reservation window to complete payment.
func (h *BookingHandler) Reserve(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req reserveReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.EventID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
    }
    result, err := h.Bookings.Reserve(c.Request().Context(), req.EventID, uid, req.SeatIDs)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusCreated, result)
}

// Cancel handles POST /v1/bookings/:id/cancel for a user-initiated
// cancellation of a PENDING booking.
func (h *BookingHandler) Cancel(c echo.Context) error {
    if _, err := getUserID(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req cancelReq
    _ = c.Bind(&req) // reason is optional
    result, err := h.Bookings.Cancel(c.Request().Context(), id, req.Reason)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, result)
}

// ListMyBookings handles GET /v1/my-bookings: all bookings created by
// the current user with event, venue and seat details.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    details, err := h.BookingRepo.ListByUser(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": details})
}
