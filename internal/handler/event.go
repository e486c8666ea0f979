package handler

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

// EventHandler exposes event management and browsing. Event creation
// materializes one event_seats row per venue seat at the default price,
// all inside one transaction.
type EventHandler struct {
    Events     *repository.EventRepo
    EventSeats *repository.EventSeatRepo
    Venues     *repository.VenueRepo
}

// NewEventHandler constructs an EventHandler with the provided
// repositories. All dependencies must be non-nil.
func NewEventHandler(e *repository.EventRepo, es *repository.EventSeatRepo, v *repository.VenueRepo) *EventHandler {
    if e == nil || es == nil || v == nil {
        panic("nil repository passed to NewEventHandler")
    }
    return &EventHandler{Events: e, EventSeats: es, Venues: v}
}

type createEventReq struct {
    VenueID      uint64  `json:"venue_id"`
    Title        string  `json:"title"`
    Description  *string `json:"description"`
    DefaultPrice string  `json:"default_price"`
    StartTime    string  `json:"start_time"` // RFC3339
    EndTime      string  `json:"end_time"`   // RFC3339
}

// CreateEvent handles POST /v1/events (ADMIN).
func (h *EventHandler) CreateEvent(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createEventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Title == "" || req.VenueID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and venue_id are required"})
    }
    price, err := decimal.NewFromString(req.DefaultPrice)
    if err != nil || price.IsNegative() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid default_price"})
    }
    start, err := time.Parse(time.RFC3339, req.StartTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_time"})
    }
    end, err := time.Parse(time.RFC3339, req.EndTime)
    if err != nil || !end.After(start) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_time"})
    }

    ctx := c.Request().Context()
    if _, err := h.Venues.GetByID(ctx, req.VenueID); err != nil {
        if errors.Is(err, repository.ErrVenueNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    tx, err := h.Events.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    event := &model.Event{
        VenueID:      req.VenueID,
        Title:        req.Title,
        Description:  req.Description,
        DefaultPrice: price,
        StartTime:    start.UTC(),
        EndTime:      end.UTC(),
        IsActive:     true,
        CreatedBy:    uid,
    }
    if err := h.Events.CreateTx(ctx, tx, event); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
    }
    seatIDs, err := h.Venues.SeatIDsTx(ctx, tx, req.VenueID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load venue seats"})
    }
    if err := h.EventSeats.CreateForEventTx(ctx, tx, event.ID, seatIDs, price); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate event seats"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.JSON(http.StatusCreated, echo.Map{
        "id":         event.ID,
        "title":      event.Title,
        "seat_count": len(seatIDs),
    })
}

// ListEvents handles GET /v1/events with optional ?offset and ?limit.
func (h *EventHandler) ListEvents(c echo.Context) error {
    offset, _ := strconv.Atoi(c.QueryParam("offset"))
    limit, _ := strconv.Atoi(c.QueryParam("limit"))
    if offset < 0 {
        offset = 0
    }
    if limit <= 0 || limit > 100 {
        limit = 10
    }
    events, err := h.Events.ListUpcoming(c.Request().Context(), offset, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// GetEvent handles GET /v1/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    event, err := h.Events.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrEventNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": event})
}

// GetEventSeats handles GET /v1/events/:id/seats: the public
// availability listing used to build seat pickers.
func (h *EventHandler) GetEventSeats(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx := c.Request().Context()
    if _, err := h.Events.GetByID(ctx, id); err != nil {
        if errors.Is(err, repository.ErrEventNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    seats, err := h.EventSeats.ListByEvent(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": seats})
}

type updatePriceReq struct {
    SeatID uint64 `json:"seat_id"`
    Price  string `json:"price"`
}

// UpdateSeatPrice handles PATCH /v1/events/:id/seats/price (ADMIN).
// Already-reserved bookings keep the total fixed at their reservation
// time; only future reservations observe the new price.
func (h *EventHandler) UpdateSeatPrice(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    var req updatePriceReq
    if err := c.Bind(&req); err != nil || req.SeatID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    price, err := decimal.NewFromString(req.Price)
    if err != nil || price.IsNegative() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
    }
    if err := h.EventSeats.UpdatePrice(c.Request().Context(), id, req.SeatID, price); err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"event_id": id, "seat_id": req.SeatID, "price": price})
}
