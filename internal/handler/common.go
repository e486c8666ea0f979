package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/repository"
)

// getUserID extracts the authenticated user's id from the context where
// JWTAuth stored the subject claim. Numeric claims arrive as float64
// after JSON decoding inside the JWT library.
func getUserID(c echo.Context) (uint64, error) {
    switch v := c.Get("user_id").(type) {
    case float64:
        if v > 0 {
            return uint64(v), nil
        }
    case uint64:
        if v > 0 {
            return v, nil
        }
    case string:
        if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
            return id, nil
        }
    }
    return 0, errors.New("unauthorized")
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}

// writeServiceError maps the service/repository error taxonomy onto HTTP
// responses. Seat contention (409) is deliberately distinct from bad
// input (400) so clients can tell "pick another seat" apart from "fix
// your request".
func writeServiceError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, repository.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrSeatUnavailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrInvalidState):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrEventNotBookable):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrEventNotFound),
        errors.Is(err, repository.ErrBookingNotFound),
        errors.Is(err, repository.ErrVenueNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrStoreUnavailable):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
