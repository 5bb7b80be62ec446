package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Ashwinpatel7/Eazyvenue/internal/handler"
)

// RegisterVenues registers venue management and calendar endpoints under
// /v1/venues.
func RegisterVenues(e *echo.Echo, h *handler.VenueHandler, mw Middlewares) {
	g := e.Group("/v1/venues")

	// ---- Venues ----
	g.GET("", h.ListVenues, mw.reads()...)
	g.GET("/:id", h.GetVenue, mw.reads()...)
	g.POST("", h.CreateVenue, mw.writes()...)
	g.PUT("/:id", h.UpdateVenue, mw.writes()...)
	g.DELETE("/:id", h.DeleteVenue, mw.writes()...)

	// ---- Calendar ----
	// Availability is never cached: a stale "true" would invite a booking
	// that then fails.
	g.GET("/:id/availability", h.Availability)
	g.POST("/:id/blocks", h.BlockVenue, mw.writes()...)
	g.DELETE("/:id/blocks", h.UnblockVenue, mw.writes()...)
}
