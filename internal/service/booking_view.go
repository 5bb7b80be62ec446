package service

import (
	"context"
	"errors"

	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
	"github.com/Ashwinpatel7/Eazyvenue/internal/repository"
)

// VenueSummary is the part of a venue shown with each booking.
type VenueSummary struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Address model.Address `json:"address"`
}

// BookingDetail is a booking together with a summary of its venue. Venue is
// nil when the venue record no longer exists.
type BookingDetail struct {
	model.Booking
	Venue *VenueSummary `json:"venue,omitempty"`
}

// GetBookingDetail returns one booking with its venue summary.
func (s *ReservationService) GetBookingDetail(ctx context.Context, bookingID string) (BookingDetail, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return BookingDetail{}, err
	}
	out, err := s.withVenues(ctx, []model.Booking{b})
	if err != nil {
		return BookingDetail{}, err
	}
	return out[0], nil
}

// ListBookingDetails is ListBookings with each booking's venue summary.
func (s *ReservationService) ListBookingDetails(ctx context.Context, venueID string) ([]BookingDetail, error) {
	bookings, err := s.ListBookings(ctx, venueID)
	if err != nil {
		return nil, err
	}
	return s.withVenues(ctx, bookings)
}

// withVenues attaches venue summaries, reading each venue once.
func (s *ReservationService) withVenues(ctx context.Context, bookings []model.Booking) ([]BookingDetail, error) {
	summaries := make(map[string]*VenueSummary)
	out := make([]BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		summary, seen := summaries[b.VenueID]
		if !seen {
			v, err := s.venues.FindByID(ctx, b.VenueID)
			switch {
			case err == nil:
				summary = &VenueSummary{ID: v.ID, Name: v.Name, Address: v.Address}
			case errors.Is(err, repository.ErrNotFound):
			default:
				return nil, &PersistenceError{Op: "load venue " + b.VenueID, Err: err}
			}
			summaries[b.VenueID] = summary
		}
		out = append(out, BookingDetail{Booking: b, Venue: summary})
	}
	return out, nil
}
