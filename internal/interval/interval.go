// Package interval models half-open time windows [Start, End) with
// millisecond resolution. Every availability decision in the service goes
// through Overlaps, so two windows conflict exactly when they share an
// instant; windows that only touch end-to-start do not conflict.
package interval

import (
	"errors"
	"time"
)

// ErrInvalidInterval is returned when a window would not have Start strictly
// before End.
var ErrInvalidInterval = errors.New("invalid interval: start must be before end")

// millisPerHour converts a duration in milliseconds to hours.
const millisPerHour = 3_600_000

// Window is a closed-open time range. Start is inclusive, End is exclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New builds a Window after normalising both bounds to UTC at millisecond
// precision. It fails with ErrInvalidInterval when start >= end.
func New(start, end time.Time) (Window, error) {
	w := Window{Start: Normalize(start), End: Normalize(end)}
	if !w.Start.Before(w.End) {
		return Window{}, ErrInvalidInterval
	}
	return w, nil
}

// Normalize truncates t to millisecond resolution in UTC. Stored windows and
// request windows are compared only after normalisation.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Overlaps reports whether a and b share at least one instant.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Overlaps is the method form of the package-level predicate.
func (w Window) Overlaps(other Window) bool { return Overlaps(w, other) }

// Equal reports whether both bounds are the same instant.
func (w Window) Equal(other Window) bool {
	return w.Start.Equal(other.Start) && w.End.Equal(other.End)
}

// Valid reports whether Start is strictly before End.
func (w Window) Valid() bool { return w.Start.Before(w.End) }

// DurationMillis returns the window length in whole milliseconds.
func (w Window) DurationMillis() int64 {
	return w.End.UnixMilli() - w.Start.UnixMilli()
}

// DurationHours converts the window length from milliseconds to fractional
// hours. Price computation depends on this conversion, so it lives here once.
func DurationHours(w Window) float64 {
	return float64(w.DurationMillis()) / millisPerHour
}
