// Package handler exposes the venue and reservation services over HTTP.
package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ashwinpatel7/Eazyvenue/internal/interval"
	"github.com/Ashwinpatel7/Eazyvenue/internal/lifecycle"
	"github.com/Ashwinpatel7/Eazyvenue/internal/lock"
	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
	"github.com/Ashwinpatel7/Eazyvenue/internal/service"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrVenueNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrBlockNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrInvalidWindow),
		errors.Is(err, interval.ErrInvalidInterval),
		errors.Is(err, lifecycle.ErrUnknownStatus),
		errors.Is(err, model.ErrInvalidContact),
		errors.Is(err, service.ErrInvalidVenue):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrVenueUnavailable),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, service.ErrVenueInUse):
		return http.StatusConflict
	case errors.Is(err, lock.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": "..."}. Internal failures are logged
// and reported with a generic message.
func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		log.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
		msg = "internal error"
	case http.StatusServiceUnavailable:
		msg = "venue is busy, retry later"
	}
	return c.JSON(status, map[string]string{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
