package handler

import (
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/lock"
    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/repository"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// PaymentHandler drives the payment leg of the booking lifecycle: it
// charges the gateway for a PENDING booking and feeds the verdict into
// Confirm or Cancel. It also exposes the status read and the admin
// diagnostics (live locks, manual sweep).
type PaymentHandler struct {
    Bookings *service.BookingService
    Gateway  service.PaymentGateway
    Locker   lock.Manager
    Sweeper  *service.Sweeper
}

// NewPaymentHandler constructs a PaymentHandler. All dependencies must
// be non-nil.
func NewPaymentHandler(svc *service.BookingService, gw service.PaymentGateway, locker lock.Manager, sweeper *service.Sweeper) *PaymentHandler {
    if svc == nil || gw == nil || locker == nil || sweeper == nil {
        panic("nil dependency passed to NewPaymentHandler")
    }
    return &PaymentHandler{Bookings: svc, Gateway: gw, Locker: locker, Sweeper: sweeper}
}

// ProcessPayment handles POST /v1/payments/process/:id. The gateway call
// happens before any transaction opens; a declined charge cancels the
// booking with the gateway's reference as the reason. Terminal bookings
// are rejected up front so a real gateway is never charged for a booking
// that can no longer be confirmed.
func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
    if _, err := getUserID(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()

    // The amount charged is the booking total fixed at reservation time.
    detail, err := h.Bookings.GetStatus(ctx, id)
    if err != nil {
        return writeServiceError(c, err)
    }
    if detail.Status != model.BookingPending {
        return writeServiceError(c, fmt.Errorf("%w: booking %d is %s", repository.ErrInvalidState, id, detail.Status))
    }

    verdict, err := h.Gateway.Charge(ctx, id, detail.TotalAmount, nil)
    if err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
    }

    if verdict.Approved {
        result, err := h.Bookings.Confirm(ctx, id, verdict.TransactionRef)
        if err != nil {
            return writeServiceError(c, err)
        }
        return c.JSON(http.StatusOK, echo.Map{
            "booking_id":      result.BookingID,
            "status":          result.Status,
            "transaction_ref": result.TransactionRef,
            "message":         "payment successful and booking confirmed",
        })
    }

    result, err := h.Bookings.Cancel(ctx, id, verdict.TransactionRef)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusPaymentRequired, echo.Map{
        "booking_id":      result.BookingID,
        "status":          result.Status,
        "transaction_ref": result.TransactionRef,
        "message":         "payment failed and booking cancelled",
    })
}

// GetStatus handles GET /v1/payments/status/:id: the booking joined with
// its most recent payment.
func (h *PaymentHandler) GetStatus(c echo.Context) error {
    if _, err := getUserID(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    detail, err := h.Bookings.GetStatus(c.Request().Context(), id)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// ListLocks handles GET /v1/admin/locks (ADMIN). Diagnostics only: it
// lists live reservation locks with holders and TTLs.
func (h *PaymentHandler) ListLocks(c echo.Context) error {
    infos, err := h.Locker.Inspect(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "lock store unavailable"})
    }
    return c.JSON(http.StatusOK, echo.Map{"count": len(infos), "locks": infos})
}

// TriggerCleanup handles POST /v1/admin/cleanup (ADMIN): a manual run of
// the expiry sweep. The periodic sweeper remains authoritative; this
// endpoint only exists for operators.
func (h *PaymentHandler) TriggerCleanup(c echo.Context) error {
    cancelled := h.Sweeper.SweepOnce(c.Request().Context())
    return c.JSON(http.StatusOK, echo.Map{"cancelled": cancelled})
}
