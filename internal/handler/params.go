package handler

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
)

// windowFromQuery parses the RFC 3339 start and end query parameters.
func windowFromQuery(c echo.Context) (time.Time, time.Time, error) {
	rawStart, rawEnd := c.QueryParam("start"), c.QueryParam("end")
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, errors.New("start and end are required")
	}
	start, err := time.Parse(time.RFC3339Nano, rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start must be an RFC 3339 timestamp")
	}
	end, err := time.Parse(time.RFC3339Nano, rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end must be an RFC 3339 timestamp")
	}
	return start, end, nil
}
