// Package service implements venue administration and the reservation
// workflow. Every operation that reads a venue calendar and then writes
// runs under the venue's lock, so two requests for the same venue never
// interleave their check and their write.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ashwinpatel7/Eazyvenue/internal/calendar"
	"github.com/Ashwinpatel7/Eazyvenue/internal/interval"
	"github.com/Ashwinpatel7/Eazyvenue/internal/lifecycle"
	"github.com/Ashwinpatel7/Eazyvenue/internal/lock"
	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
	"github.com/Ashwinpatel7/Eazyvenue/internal/queue"
	"github.com/Ashwinpatel7/Eazyvenue/internal/repository"
)

const (
	tracerName      = "github.com/Ashwinpatel7/Eazyvenue/internal/service"
	rollbackTimeout = 10 * time.Second
	// ReasonBlocked is recorded for administrative blocks created without
	// a reason.
	ReasonBlocked = "Unavailable"
)

// Option customises a service at construction time.
type Option func(*options)

type options struct {
	events EventPublisher
	now    func() time.Time
	newID  func() string
}

// WithEvents publishes booking events through p after each committed change.
func WithEvents(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces uuid.NewString for new record ids.
func WithIDGenerator(f func() string) Option {
	return func(o *options) { o.newID = f }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ReservationService creates, cancels and transitions bookings while keeping
// each venue's calendar consistent with its bookings.
type ReservationService struct {
	venues   repository.VenueRepository
	bookings repository.BookingRepository
	locker   lock.Locker
	events   EventPublisher
	now      func() time.Time
	newID    func() string
	tracer   trace.Tracer
}

// NewReservationService wires the service to its store and lock.
func NewReservationService(venues repository.VenueRepository, bookings repository.BookingRepository, locker lock.Locker, opts ...Option) *ReservationService {
	o := buildOptions(opts)
	return &ReservationService{
		venues:   venues,
		bookings: bookings,
		locker:   locker,
		events:   o.events,
		now:      o.now,
		newID:    o.newID,
		tracer:   otel.Tracer(tracerName),
	}
}

// CreateBooking reserves [start, end) of a venue for contact. The booking
// is stored as pending with its price fixed, and the window is blocked in
// the venue calendar. Either both writes are kept or neither is.
func (s *ReservationService) CreateBooking(ctx context.Context, venueID string, contact model.Contact, start, end time.Time) (b model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.CreateBooking",
		trace.WithAttributes(attribute.String("venue.id", venueID)))
	defer func() { endSpan(span, err) }()

	if _, err := s.venues.FindByID(ctx, venueID); err != nil {
		return model.Booking{}, venueLookupErr(venueID, err)
	}
	w, err := interval.New(start, end)
	if err != nil {
		return model.Booking{}, fmt.Errorf("%w: %w", lifecycle.ErrInvalidWindow, err)
	}
	contact = contact.Normalize()
	if err := contact.Validate(); err != nil {
		return model.Booking{}, err
	}

	b, venueName, err := s.createLocked(ctx, venueID, contact, w)
	if err != nil {
		return model.Booking{}, err
	}
	span.SetAttributes(attribute.String("booking.id", b.ID))

	s.publish(ctx, queue.EventBookingCreated, b, venueName)
	return b, nil
}

// createLocked is the unit of work of CreateBooking. The venue lock is
// released before it returns.
func (s *ReservationService) createLocked(ctx context.Context, venueID string, contact model.Contact, w interval.Window) (model.Booking, string, error) {
	unlock, err := s.lockVenue(ctx, venueID)
	if err != nil {
		return model.Booking{}, "", err
	}
	defer unlock()

	venue, err := s.venues.FindByID(ctx, venueID)
	if err != nil {
		return model.Booking{}, "", venueLookupErr(venueID, err)
	}
	cal := calendar.For(&venue)
	if !cal.IsAvailable(w) {
		return model.Booking{}, "", ErrVenueUnavailable
	}
	price, err := lifecycle.ComputePrice(venue.PricePerHour, w)
	if err != nil {
		return model.Booking{}, "", err
	}

	now := interval.Normalize(s.now())
	b := model.Booking{
		ID:         s.newID(),
		VenueID:    venueID,
		Contact:    contact,
		Window:     w,
		TotalPrice: price,
		Status:     lifecycle.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.bookings.Save(ctx, b); err != nil {
		return model.Booking{}, "", &PersistenceError{Op: "save booking " + b.ID, Err: err}
	}

	cal.BlockFor(w, calendar.ReasonBooked, b.ID)
	venue.UpdatedAt = now
	if err := s.venues.Save(ctx, venue); err != nil {
		return model.Booking{}, "", s.rollback(ctx, "block window for booking "+b.ID, err, func(ctx context.Context) error {
			return s.bookings.Delete(ctx, b.ID)
		})
	}
	return b, venue.Name, nil
}

// CancelBooking moves a pending or confirmed booking to cancelled and frees
// its window in the venue calendar. Cancelling a cancelled booking fails
// with lifecycle.ErrInvalidTransition.
func (s *ReservationService) CancelBooking(ctx context.Context, bookingID string) (b model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.CancelBooking",
		trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	var venueName string
	err = s.withBooking(ctx, bookingID, func(cur model.Booking) error {
		var cerr error
		b, venueName, cerr = s.cancelLocked(ctx, cur)
		return cerr
	})
	if err != nil {
		return model.Booking{}, err
	}

	s.publish(ctx, queue.EventBookingCancelled, b, venueName)
	return b, nil
}

// UpdateBookingStatus applies the lifecycle transition table. Moving to
// confirmed leaves the calendar untouched; moving to cancelled behaves
// exactly like CancelBooking.
func (s *ReservationService) UpdateBookingStatus(ctx context.Context, bookingID string, status lifecycle.Status) (b model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.UpdateBookingStatus",
		trace.WithAttributes(
			attribute.String("booking.id", bookingID),
			attribute.String("booking.status", status.String()),
		))
	defer func() { endSpan(span, err) }()

	if !status.Valid() {
		return model.Booking{}, lifecycle.ErrUnknownStatus
	}

	if status == lifecycle.StatusCancelled {
		return s.CancelBooking(ctx, bookingID)
	}

	err = s.withBooking(ctx, bookingID, func(cur model.Booking) error {
		next, terr := lifecycle.Transition(cur.Status, status)
		if terr != nil {
			return fmt.Errorf("booking %s: %w", cur.ID, terr)
		}
		cur.Status = next
		cur.UpdatedAt = interval.Normalize(s.now())
		if serr := s.bookings.Save(ctx, cur); serr != nil {
			return &PersistenceError{Op: "save booking " + cur.ID, Err: serr}
		}
		b = cur
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}

	s.publish(ctx, queue.EventBookingStatusChanged, b, s.venueName(ctx, b.VenueID))
	return b, nil
}

// GetBooking returns one booking.
func (s *ReservationService) GetBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, bookingLookupErr(bookingID, err)
	}
	return b, nil
}

// ListBookings returns all bookings, or the bookings of one venue when
// venueID is not empty.
func (s *ReservationService) ListBookings(ctx context.Context, venueID string) ([]model.Booking, error) {
	if venueID != "" {
		if _, err := s.venues.FindByID(ctx, venueID); err != nil {
			return nil, venueLookupErr(venueID, err)
		}
	}
	out, err := s.bookings.FindAll(ctx, repository.BookingFilter{VenueID: venueID})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

// CheckAvailability reports whether [start, end) is free at the venue. The
// answer is a snapshot; only CreateBooking guarantees the window.
func (s *ReservationService) CheckAvailability(ctx context.Context, venueID string, start, end time.Time) (bool, error) {
	venue, err := s.venues.FindByID(ctx, venueID)
	if err != nil {
		return false, venueLookupErr(venueID, err)
	}
	w, err := interval.New(start, end)
	if err != nil {
		return false, fmt.Errorf("%w: %w", lifecycle.ErrInvalidWindow, err)
	}
	return calendar.For(&venue).IsAvailable(w), nil
}

// BlockVenue marks [start, end) unavailable for a non-booking reason such
// as maintenance. The window must be free.
func (s *ReservationService) BlockVenue(ctx context.Context, venueID string, start, end time.Time, reason string) (v model.Venue, err error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.BlockVenue",
		trace.WithAttributes(attribute.String("venue.id", venueID)))
	defer func() { endSpan(span, err) }()

	w, err := interval.New(start, end)
	if err != nil {
		return model.Venue{}, fmt.Errorf("%w: %w", lifecycle.ErrInvalidWindow, err)
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = ReasonBlocked
	}

	unlock, err := s.lockVenue(ctx, venueID)
	if err != nil {
		return model.Venue{}, err
	}
	defer unlock()

	venue, err := s.venues.FindByID(ctx, venueID)
	if err != nil {
		return model.Venue{}, venueLookupErr(venueID, err)
	}
	cal := calendar.For(&venue)
	if !cal.IsAvailable(w) {
		return model.Venue{}, ErrVenueUnavailable
	}
	cal.Block(w, reason)
	venue.UpdatedAt = interval.Normalize(s.now())
	if err := s.venues.Save(ctx, venue); err != nil {
		return model.Venue{}, &PersistenceError{Op: "save venue " + venueID, Err: err}
	}
	return venue, nil
}

// UnblockVenue removes administrative blocks whose bounds equal [start, end)
// exactly. Entries owned by bookings are kept; those are freed only by
// cancelling the booking.
func (s *ReservationService) UnblockVenue(ctx context.Context, venueID string, start, end time.Time) (v model.Venue, err error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.UnblockVenue",
		trace.WithAttributes(attribute.String("venue.id", venueID)))
	defer func() { endSpan(span, err) }()

	w, err := interval.New(start, end)
	if err != nil {
		return model.Venue{}, fmt.Errorf("%w: %w", lifecycle.ErrInvalidWindow, err)
	}

	unlock, err := s.lockVenue(ctx, venueID)
	if err != nil {
		return model.Venue{}, err
	}
	defer unlock()

	venue, err := s.venues.FindByID(ctx, venueID)
	if err != nil {
		return model.Venue{}, venueLookupErr(venueID, err)
	}
	if calendar.For(&venue).Release("", w) == 0 {
		return model.Venue{}, ErrBlockNotFound
	}
	venue.UpdatedAt = interval.Normalize(s.now())
	if err := s.venues.Save(ctx, venue); err != nil {
		return model.Venue{}, &PersistenceError{Op: "save venue " + venueID, Err: err}
	}
	return venue, nil
}

// cancelLocked cancels b and returns it with the venue name. The caller
// holds the lock of b.VenueID and b is the stored copy read under that lock.
func (s *ReservationService) cancelLocked(ctx context.Context, b model.Booking) (model.Booking, string, error) {
	next, err := lifecycle.Transition(b.Status, lifecycle.StatusCancelled)
	if err != nil {
		return model.Booking{}, "", fmt.Errorf("booking %s: %w", b.ID, err)
	}

	venue, err := s.venues.FindByID(ctx, b.VenueID)
	venueMissing := errors.Is(err, repository.ErrNotFound)
	if err != nil && !venueMissing {
		return model.Booking{}, "", &PersistenceError{Op: "load venue " + b.VenueID, Err: err}
	}

	prev := b
	now := interval.Normalize(s.now())
	b.Status = next
	b.UpdatedAt = now
	if err := s.bookings.Save(ctx, b); err != nil {
		return model.Booking{}, "", &PersistenceError{Op: "save booking " + b.ID, Err: err}
	}

	if venueMissing {
		log.Printf("reservation: venue %s of booking %s no longer exists; nothing to release", b.VenueID, b.ID)
		return b, "", nil
	}

	if calendar.For(&venue).Release(b.ID, b.Window) == 0 {
		log.Printf("reservation: booking %s held no calendar entry at venue %s", b.ID, b.VenueID)
	}
	venue.UpdatedAt = now
	if err := s.venues.Save(ctx, venue); err != nil {
		return model.Booking{}, "", s.rollback(ctx, "release window of booking "+b.ID, err, func(ctx context.Context) error {
			return s.bookings.Save(ctx, prev)
		})
	}

	return b, venue.Name, nil
}

// lockBooking finds a booking, locks its venue and re-reads the booking
// under the lock.
func (s *ReservationService) lockBooking(ctx context.Context, bookingID string) (model.Booking, func(), error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, nil, bookingLookupErr(bookingID, err)
	}
	unlock, err := s.lockVenue(ctx, b.VenueID)
	if err != nil {
		return model.Booking{}, nil, err
	}
	b, err = s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		unlock()
		return model.Booking{}, nil, bookingLookupErr(bookingID, err)
	}
	return b, unlock, nil
}

// withBooking runs fn on the stored booking while its venue is locked.
func (s *ReservationService) withBooking(ctx context.Context, bookingID string, fn func(model.Booking) error) error {
	b, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(b)
}

func (s *ReservationService) lockVenue(ctx context.Context, venueID string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, venueLockKey(venueID))
	if err != nil {
		return nil, fmt.Errorf("lock venue %s: %w", venueID, err)
	}
	return unlock, nil
}

// rollback undoes the first half of a unit of work after the second half
// failed with cause. The undo runs even if ctx has been cancelled.
func (s *ReservationService) rollback(ctx context.Context, op string, cause error, undo func(context.Context) error) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if rerr := undo(rctx); rerr != nil {
		log.Printf("FATAL reservation: %s failed (%v) and rollback failed (%v); booking and calendar disagree", op, cause, rerr)
		return &PersistenceError{Op: op, Err: cause, Rollback: rerr, Fatal: true}
	}
	log.Printf("reservation: %s failed (%v); rolled back", op, cause)
	return &PersistenceError{Op: op, Err: cause}
}

func (s *ReservationService) venueName(ctx context.Context, venueID string) string {
	v, err := s.venues.FindByID(ctx, venueID)
	if err != nil {
		return ""
	}
	return v.Name
}

func venueLockKey(venueID string) string { return "venue:" + venueID }

func venueLookupErr(venueID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrVenueNotFound, venueID)
	}
	return &PersistenceError{Op: "load venue " + venueID, Err: err}
}

func bookingLookupErr(bookingID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}
	return &PersistenceError{Op: "load booking " + bookingID, Err: err}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
