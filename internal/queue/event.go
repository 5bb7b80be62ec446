// Package queue carries booking events over RabbitMQ and turns them into
// audit log lines.
package queue

import "time"

// Event types published after a booking change has been committed.
const (
	EventBookingCreated       = "booking.created"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingStatusChanged = "booking.status_changed"
)

// BookingEvent describes one committed booking change. It contains enough
// information for the audit consumer to write a line without querying the
// primary store.
type BookingEvent struct {
	Type         string    `json:"type"`
	BookingID    string    `json:"booking_id"`
	VenueID      string    `json:"venue_id"`
	VenueName    string    `json:"venue_name"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Status       string    `json:"status"`
	TotalPrice   float64   `json:"total_price"`
	OccurredAt   time.Time `json:"occurred_at"`
}
