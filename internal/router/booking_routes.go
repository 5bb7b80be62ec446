package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Ashwinpatel7/Eazyvenue/internal/handler"
)

// RegisterBookings registers the reservation endpoints under /v1/bookings.
// Booking reads are not cached because their status changes on every
// lifecycle transition.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, mw Middlewares) {
	g := e.Group("/v1/bookings")
	g.GET("", h.ListBookings)
	g.GET("/:id", h.GetBooking)
	g.POST("", h.CreateBooking, mw.writes()...)
	g.PATCH("/:id", h.UpdateBookingStatus, mw.writes()...)
	g.DELETE("/:id", h.CancelBooking, mw.writes()...)
}
