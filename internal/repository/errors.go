// Package repository persists venues and bookings. The sentinel errors
// below let the service layer distinguish failure scenarios without
// knowing which store is in use.
package repository

import "errors"

// ErrNotFound is returned when a venue or booking lookup matches no record.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete cannot be performed because of
// dependent records, such as deleting a venue that still has active
// bookings. Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
