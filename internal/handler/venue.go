package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ashwinpatel7/Eazyvenue/internal/service"
)

// VenueHandler serves /v1/venues.
type VenueHandler struct {
	Venues       *service.VenueService
	Reservations *service.ReservationService
}

// ListVenues handles GET /v1/venues.
func (h *VenueHandler) ListVenues(c echo.Context) error {
	items, err := h.Venues.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// GetVenue handles GET /v1/venues/:id.
func (h *VenueHandler) GetVenue(c echo.Context) error {
	v, err := h.Venues.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// CreateVenue handles POST /v1/venues.
func (h *VenueHandler) CreateVenue(c echo.Context) error {
	var body service.VenueInput
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	v, err := h.Venues.Create(c.Request().Context(), body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// UpdateVenue handles PUT /v1/venues/:id. Blocked intervals in the body are
// ignored.
func (h *VenueHandler) UpdateVenue(c echo.Context) error {
	var body service.VenueInput
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	v, err := h.Venues.Update(c.Request().Context(), c.Param("id"), body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// DeleteVenue handles DELETE /v1/venues/:id.
func (h *VenueHandler) DeleteVenue(c echo.Context) error {
	if err := h.Venues.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Availability handles GET /v1/venues/:id/availability?start=&end=.
func (h *VenueHandler) Availability(c echo.Context) error {
	start, end, err := windowFromQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	ok, err := h.Reservations.CheckAvailability(c.Request().Context(), c.Param("id"), start, end)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"available": ok})
}

// BlockVenue handles POST /v1/venues/:id/blocks.
func (h *VenueHandler) BlockVenue(c echo.Context) error {
	var body struct {
		Start  time.Time `json:"start"`
		End    time.Time `json:"end"`
		Reason string    `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	v, err := h.Reservations.BlockVenue(c.Request().Context(), c.Param("id"), body.Start, body.End, body.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// UnblockVenue handles DELETE /v1/venues/:id/blocks?start=&end=.
func (h *VenueHandler) UnblockVenue(c echo.Context) error {
	start, end, err := windowFromQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	v, err := h.Reservations.UnblockVenue(c.Request().Context(), c.Param("id"), start, end)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
