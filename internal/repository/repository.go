package repository

import (
	"context"
	"time"

	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
)

// VenueRepository stores venues. A venue and its blocked intervals are one
// record: Save replaces both atomically.
type VenueRepository interface {
	FindByID(ctx context.Context, id string) (model.Venue, error)
	FindAll(ctx context.Context) ([]model.Venue, error)
	Save(ctx context.Context, v model.Venue) error
	// Delete removes the venue. It returns ErrConflict while the venue has
	// bookings that are not cancelled.
	Delete(ctx context.Context, id string) error
}

// BookingFilter narrows FindAll. Zero values match everything.
type BookingFilter struct {
	VenueID string
}

// BookingRepository stores bookings. Delete exists only so a creation whose
// calendar write failed can be compensated; committed bookings are never
// deleted.
type BookingRepository interface {
	FindByID(ctx context.Context, id string) (model.Booking, error)
	FindAll(ctx context.Context, f BookingFilter) ([]model.Booking, error)
	Save(ctx context.Context, b model.Booking) error
	Delete(ctx context.Context, id string) error
}

// toMillis and fromMillis map the zero time to 0. They are used for
// created/updated stamps, where the zero time means "unset".
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// windowMillis and windowFromMillis convert window bounds without a zero
// sentinel, so an instant at the Unix epoch survives a round trip.
func windowMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func windowFromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
