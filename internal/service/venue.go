package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ashwinpatel7/Eazyvenue/internal/interval"
	"github.com/Ashwinpatel7/Eazyvenue/internal/lock"
	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
	"github.com/Ashwinpatel7/Eazyvenue/internal/repository"
)

// VenueInput holds the descriptive fields of a venue accepted from
// clients. Blocked intervals are never part of it.
type VenueInput struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Address      model.Address `json:"address"`
	Capacity     int           `json:"capacity"`
	Amenities    []string      `json:"amenities"`
	PricePerHour float64       `json:"pricePerHour"`
	Images       []string      `json:"images"`
}

func (in VenueInput) normalize() VenueInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Amenities = compact(in.Amenities)
	in.Images = compact(in.Images)
	return in
}

func (in VenueInput) validate() error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidVenue)
	case in.Capacity < 0:
		return fmt.Errorf("%w: capacity must not be negative", ErrInvalidVenue)
	case in.PricePerHour < 0:
		return fmt.Errorf("%w: pricePerHour must not be negative", ErrInvalidVenue)
	}
	return nil
}

func (in VenueInput) applyTo(v *model.Venue) {
	v.Name = in.Name
	v.Description = in.Description
	v.Address = in.Address
	v.Capacity = in.Capacity
	v.Amenities = in.Amenities
	v.PricePerHour = in.PricePerHour
	v.Images = in.Images
}

// VenueService manages venue records. Updates and deletes take the venue
// lock so they cannot overwrite a calendar change made by a concurrent
// booking.
type VenueService struct {
	venues repository.VenueRepository
	locker lock.Locker
	now    func() time.Time
	newID  func() string
}

// NewVenueService wires the service to its store and lock.
func NewVenueService(venues repository.VenueRepository, locker lock.Locker, opts ...Option) *VenueService {
	o := buildOptions(opts)
	return &VenueService{venues: venues, locker: locker, now: o.now, newID: o.newID}
}

// Create stores a new venue with an empty calendar.
func (s *VenueService) Create(ctx context.Context, in VenueInput) (model.Venue, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return model.Venue{}, err
	}
	now := interval.Normalize(s.now())
	v := model.Venue{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	in.applyTo(&v)
	if err := s.venues.Save(ctx, v); err != nil {
		return model.Venue{}, &PersistenceError{Op: "save venue " + v.ID, Err: err}
	}
	return v, nil
}

// Get returns one venue including its blocked intervals.
func (s *VenueService) Get(ctx context.Context, id string) (model.Venue, error) {
	v, err := s.venues.FindByID(ctx, id)
	if err != nil {
		return model.Venue{}, venueLookupErr(id, err)
	}
	return v, nil
}

// List returns every venue ordered by creation time.
func (s *VenueService) List(ctx context.Context) ([]model.Venue, error) {
	out, err := s.venues.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return out, nil
}

// Update replaces the descriptive fields of a venue. The calendar is kept
// as stored.
func (s *VenueService) Update(ctx context.Context, id string, in VenueInput) (model.Venue, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return model.Venue{}, err
	}

	unlock, err := s.locker.Lock(ctx, venueLockKey(id))
	if err != nil {
		return model.Venue{}, fmt.Errorf("lock venue %s: %w", id, err)
	}
	defer unlock()

	v, err := s.venues.FindByID(ctx, id)
	if err != nil {
		return model.Venue{}, venueLookupErr(id, err)
	}
	in.applyTo(&v)
	v.UpdatedAt = interval.Normalize(s.now())
	if err := s.venues.Save(ctx, v); err != nil {
		return model.Venue{}, &PersistenceError{Op: "save venue " + id, Err: err}
	}
	return v, nil
}

// Delete removes a venue. It fails with ErrVenueInUse while the venue has
// bookings that are not cancelled.
func (s *VenueService) Delete(ctx context.Context, id string) error {
	unlock, err := s.locker.Lock(ctx, venueLockKey(id))
	if err != nil {
		return fmt.Errorf("lock venue %s: %w", id, err)
	}
	defer unlock()

	switch err := s.venues.Delete(ctx, id); {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrVenueNotFound, id)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %s", ErrVenueInUse, id)
	default:
		return &PersistenceError{Op: "delete venue " + id, Err: err}
	}
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
