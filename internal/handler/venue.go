package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

// VenueHandler exposes venue management for admins and venue browsing
// for everyone. Creating a venue also generates its physical seat grid
// in the same transaction.
type VenueHandler struct {
    Venues *repository.VenueRepo
}

// NewVenueHandler constructs a VenueHandler.
func NewVenueHandler(v *repository.VenueRepo) *VenueHandler {
    if v == nil {
        panic("nil repository passed to NewVenueHandler")
    }
    return &VenueHandler{Venues: v}
}

type createVenueReq struct {
    Name        string  `json:"name"`
    Address     *string `json:"address"`
    RowCount    uint32  `json:"row_count"`
    SeatsPerRow uint32  `json:"seats_per_row"`
}

// CreateVenue handles POST /v1/venues (ADMIN). The venue row and its
// seat grid are committed atomically; a failed grid insert leaves no
// orphaned venue behind.
func (h *VenueHandler) CreateVenue(c echo.Context) error {
    var req createVenueReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }
    ctx := c.Request().Context()
    tx, err := h.Venues.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    venue := &model.Venue{
        Name:        req.Name,
        Address:     req.Address,
        RowCount:    req.RowCount,
        SeatsPerRow: req.SeatsPerRow,
    }
    if err := h.Venues.CreateTx(ctx, tx, venue); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create venue"})
    }
    if err := h.Venues.GenerateSeatsTx(ctx, tx, venue.ID, req.RowCount, req.SeatsPerRow); err != nil {
        if errors.Is(err, repository.ErrValidation) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate seats"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.JSON(http.StatusCreated, echo.Map{
        "id":         venue.ID,
        "name":       venue.Name,
        "seat_count": req.RowCount * req.SeatsPerRow,
    })
}

// ListVenues handles GET /v1/venues.
func (h *VenueHandler) ListVenues(c echo.Context) error {
    venues, err := h.Venues.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load venues"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": venues})
}

// GetVenue handles GET /v1/venues/:id.
func (h *VenueHandler) GetVenue(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
    }
    venue, err := h.Venues.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrVenueNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load venue"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": venue})
}
