package lifecycle

import (
	"errors"

	"github.com/Ashwinpatel7/Eazyvenue/internal/interval"
)

// ErrInvalidWindow is returned when a booking window has no positive length.
var ErrInvalidWindow = errors.New("invalid booking window: start must be before end")

// ErrInvalidRate is returned for a negative hourly rate.
var ErrInvalidRate = errors.New("invalid hourly rate: must not be negative")

// ComputePrice returns pricePerHour multiplied by the window length in hours.
// Windows built as struct literals are re-validated.
func ComputePrice(pricePerHour float64, w interval.Window) (float64, error) {
	hours := interval.DurationHours(w)
	if hours <= 0 {
		return 0, ErrInvalidWindow
	}
	if pricePerHour < 0 {
		return 0, ErrInvalidRate
	}
	return pricePerHour * hours, nil
}
