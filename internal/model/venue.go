package model

import (
	"time"

	"github.com/Ashwinpatel7/Eazyvenue/internal/interval"
)

// Address is the postal address of a venue. All parts are optional.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// BlockedInterval marks a window during which a venue cannot be booked.
// Reason is informational only; availability checks ignore it.
//
// Fields:
//
//	Start, End – the blocked window, [Start, End).
//	Reason     – "Booked" for reservations, free text for block-outs.
//	BookingID  – the booking that owns the entry, empty for block-outs.
type BlockedInterval struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Reason    string    `json:"reason"`
	BookingID string    `json:"bookingId,omitempty"`
}

// Window returns the blocked range as an interval.Window.
func (b BlockedInterval) Window() interval.Window {
	return interval.Window{Start: b.Start, End: b.End}
}

// Venue is a bookable place. BlockedIntervals is maintained by the
// reservation service and is never taken from client input.
//
// Fields:
//
//	ID               – opaque identifier (UUID string).
//	Name             – display name, required.
//	Description      – free text.
//	Address          – postal address.
//	Capacity         – number of guests, non-negative.
//	Amenities        – list of amenity labels.
//	PricePerHour     – hourly rate, non-negative.
//	Images           – image URLs.
//	BlockedIntervals – unavailable windows in insertion order.
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last update timestamp.
type Venue struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Address          Address           `json:"address"`
	Capacity         int               `json:"capacity"`
	Amenities        []string          `json:"amenities"`
	PricePerHour     float64           `json:"pricePerHour"`
	Images           []string          `json:"images"`
	BlockedIntervals []BlockedInterval `json:"blockedIntervals"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate slices without touching
// the original.
func (v Venue) Clone() Venue {
	out := v
	out.Amenities = append([]string(nil), v.Amenities...)
	out.Images = append([]string(nil), v.Images...)
	out.BlockedIntervals = append([]BlockedInterval(nil), v.BlockedIntervals...)
	return out
}
