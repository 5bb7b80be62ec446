package service

import (
	"errors"
	"fmt"
)

var (
	// ErrVenueNotFound is returned when the referenced venue does not exist.
	ErrVenueNotFound = errors.New("venue not found")
	// ErrBookingNotFound is returned when the referenced booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrVenueUnavailable is returned when the requested window overlaps a
	// blocked interval of the venue.
	ErrVenueUnavailable = errors.New("venue is not available for the requested window")
	// ErrVenueInUse is returned when deleting a venue that still has
	// bookings which are not cancelled.
	ErrVenueInUse = errors.New("venue has active bookings")
	// ErrInvalidVenue is returned when venue fields fail validation.
	ErrInvalidVenue = errors.New("invalid venue")
	// ErrBlockNotFound is returned when no administrative block matches the
	// window being unblocked.
	ErrBlockNotFound = errors.New("no block matches the window")
	// ErrPersistence is matched by every *PersistenceError.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError reports a failed write to the store. When a unit of work
// fails halfway the service undoes the write that succeeded; if that undo
// also fails, Fatal is set and Rollback holds the undo error.
type PersistenceError struct {
	Op       string
	Err      error
	Rollback error
	Fatal    bool
}

func (e *PersistenceError) Error() string {
	if e.Fatal {
		return fmt.Sprintf("%s: %v (rollback failed: %v)", e.Op, e.Err, e.Rollback)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersistence) hold for every PersistenceError.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
