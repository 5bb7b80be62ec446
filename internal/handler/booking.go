package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ashwinpatel7/Eazyvenue/internal/lifecycle"
	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
	"github.com/Ashwinpatel7/Eazyvenue/internal/service"
)

// BookingHandler serves /v1/bookings.
type BookingHandler struct {
	Reservations *service.ReservationService
}

// ListBookings handles GET /v1/bookings, optionally filtered by ?venueId=.
// Each item carries a summary of its venue.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	items, err := h.Reservations.ListBookingDetails(c.Request().Context(), c.QueryParam("venueId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	b, err := h.Reservations.GetBookingDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// CreateBooking handles POST /v1/bookings.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var body struct {
		VenueID string        `json:"venueId"`
		Contact model.Contact `json:"contact"`
		Start   time.Time     `json:"start"`
		End     time.Time     `json:"end"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.VenueID == "" {
		return badRequest(c, "venueId is required")
	}
	b, err := h.Reservations.CreateBooking(c.Request().Context(), body.VenueID, body.Contact, body.Start, body.End)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// UpdateBookingStatus handles PATCH /v1/bookings/:id with {"status": "..."}.
func (h *BookingHandler) UpdateBookingStatus(c echo.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	status, err := lifecycle.ParseStatus(body.Status)
	if err != nil {
		return writeError(c, err)
	}
	b, err := h.Reservations.UpdateBookingStatus(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// CancelBooking handles DELETE /v1/bookings/:id. The booking is kept with
// status cancelled and its window is released.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	b, err := h.Reservations.CancelBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Booking cancelled successfully",
		"booking": b,
	})
}
