package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/Ashwinpatel7/Eazyvenue/internal/interval"
	"github.com/Ashwinpatel7/Eazyvenue/internal/lifecycle"
)

// ErrInvalidContact is returned when a booking contact lacks a name or has a
// malformed email address.
var ErrInvalidContact = errors.New("invalid contact: name and a valid email are required")

// Contact identifies the person who made a booking.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Normalize trims whitespace and lower-cases the email.
func (c Contact) Normalize() Contact {
	return Contact{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		Phone: strings.TrimSpace(c.Phone),
	}
}

// Validate checks that the name is present and the email is a bare address
// such as "ana@example.com" (display names are rejected).
func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidContact
	}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return ErrInvalidContact
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return ErrInvalidContact
	}
	return nil
}

// Booking records a reservation of one venue for one window. Bookings are
// never removed once committed; cancellation only changes Status.
//
// Fields:
//
//	ID         – opaque identifier (UUID string).
//	VenueID    – the reserved venue.
//	Contact    – who booked.
//	Window     – reserved range, Start < End.
//	TotalPrice – venue rate times hours, fixed at creation.
//	Status     – pending, confirmed or cancelled.
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last status change.
type Booking struct {
	ID         string           `json:"id"`
	VenueID    string           `json:"venueId"`
	Contact    Contact          `json:"contact"`
	Window     interval.Window  `json:"window"`
	TotalPrice float64          `json:"totalPrice"`
	Status     lifecycle.Status `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// Active reports whether the booking still holds its window.
func (b Booking) Active() bool { return b.Status != lifecycle.StatusCancelled }
