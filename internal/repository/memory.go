package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
)

// MemoryStore keeps venues and bookings in process memory. Values are
// copied on the way in and out so callers never share slices with the
// store. It backs DB_DRIVER=memory and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	venues   map[string]model.Venue
	bookings map[string]model.Booking
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		venues:   make(map[string]model.Venue),
		bookings: make(map[string]model.Booking),
	}
}

// Venues returns a VenueRepository view of the store.
func (s *MemoryStore) Venues() VenueRepository { return memoryVenues{s} }

// Bookings returns a BookingRepository view of the store.
func (s *MemoryStore) Bookings() BookingRepository { return memoryBookings{s} }

type memoryVenues struct{ s *MemoryStore }

func (m memoryVenues) FindByID(_ context.Context, id string) (model.Venue, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	v, ok := m.s.venues[id]
	if !ok {
		return model.Venue{}, ErrNotFound
	}
	return v.Clone(), nil
}

func (m memoryVenues) FindAll(_ context.Context) ([]model.Venue, error) {
	m.s.mu.RLock()
	out := make([]model.Venue, 0, len(m.s.venues))
	for _, v := range m.s.venues {
		out = append(out, v.Clone())
	}
	m.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m memoryVenues) Save(_ context.Context, v model.Venue) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.venues[v.ID] = v.Clone()
	return nil
}

func (m memoryVenues) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.venues[id]; !ok {
		return ErrNotFound
	}
	for _, b := range m.s.bookings {
		if b.VenueID == id && b.Active() {
			return ErrConflict
		}
	}
	delete(m.s.venues, id)
	return nil
}

type memoryBookings struct{ s *MemoryStore }

func (m memoryBookings) FindByID(_ context.Context, id string) (model.Booking, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	b, ok := m.s.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return b, nil
}

func (m memoryBookings) FindAll(_ context.Context, f BookingFilter) ([]model.Booking, error) {
	m.s.mu.RLock()
	var out []model.Booking
	for _, b := range m.s.bookings {
		if f.VenueID != "" && b.VenueID != f.VenueID {
			continue
		}
		out = append(out, b)
	}
	m.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m memoryBookings) Save(_ context.Context, b model.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.bookings[b.ID] = b
	return nil
}

func (m memoryBookings) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.bookings, id)
	return nil
}
