package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework for routing

    "github.com/iliyamo/event-ticketing/internal/handler"    // handlers implementing the endpoints
    "github.com/iliyamo/event-ticketing/internal/middleware" // JWT authentication and role enforcement
    "github.com/iliyamo/event-ticketing/internal/model"      // role constants
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication endpoints. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints: venues,
// upcoming events and per-event seat availability. Guests can inspect
// what is on sale before registering.
func RegisterPublic(e *echo.Echo, v *handler.VenueHandler, ev *handler.EventHandler) {
    e.GET("/v1/venues", v.ListVenues)
    e.GET("/v1/venues/:id", v.GetVenue)
    e.GET("/v1/events", ev.ListEvents)
    e.GET("/v1/events/:id", ev.GetEvent)
    // Seat availability for a specific event. Status values are
    // AVAILABLE, LOCKED or BOOKED.
    e.GET("/v1/events/:id/seats", ev.GetEventSeats)
}

// RegisterBooking registers the authenticated booking and payment
// endpoints plus the ADMIN-only management and diagnostics routes.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, v *handler.VenueHandler, ev *handler.EventHandler, jwtSecret string) {
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleCustomer))

    // Booking lifecycle: reserve seats, pay, or walk away.
    auth.POST("/bookings/reserve", b.Reserve)
    auth.POST("/bookings/:id/cancel", b.Cancel)
    auth.GET("/my-bookings", b.ListMyBookings)
    auth.POST("/payments/process/:id", p.ProcessPayment)
    auth.GET("/payments/status/:id", p.GetStatus)

    // Management and diagnostics.
    admin := e.Group("/v1")
    admin.Use(middleware.JWTAuth(jwtSecret))
    admin.Use(middleware.RequireRole(model.RoleAdmin))
    admin.POST("/venues", v.CreateVenue)
    admin.POST("/events", ev.CreateEvent)
    admin.PATCH("/events/:id/seats/price", ev.UpdateSeatPrice)
    admin.GET("/admin/locks", p.ListLocks)
    admin.POST("/admin/cleanup", p.TriggerCleanup)
}
