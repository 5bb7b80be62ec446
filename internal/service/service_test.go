package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ashwinpatel7/Eazyvenue/internal/lock"
	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
	"github.com/Ashwinpatel7/Eazyvenue/internal/queue"
	"github.com/Ashwinpatel7/Eazyvenue/internal/repository"
)

var errInjected = errors.New("injected failure")

// faultyVenues wraps a VenueRepository and fails Save when failSave says so.
type faultyVenues struct {
	repository.VenueRepository
	mu       sync.Mutex
	failSave func(v model.Venue) error
}

func (f *faultyVenues) Save(ctx context.Context, v model.Venue) error {
	f.mu.Lock()
	fail := f.failSave
	f.mu.Unlock()
	if fail != nil {
		if err := fail(v); err != nil {
			return err
		}
	}
	return f.VenueRepository.Save(ctx, v)
}

func (f *faultyVenues) setFailSave(fn func(v model.Venue) error) {
	f.mu.Lock()
	f.failSave = fn
	f.mu.Unlock()
}

// faultyBookings wraps a BookingRepository with injectable Save and Delete
// failures.
type faultyBookings struct {
	repository.BookingRepository
	failSave   func(b model.Booking) error
	failDelete error
}

func (f *faultyBookings) Save(ctx context.Context, b model.Booking) error {
	if f.failSave != nil {
		if err := f.failSave(b); err != nil {
			return err
		}
	}
	return f.BookingRepository.Save(ctx, b)
}

func (f *faultyBookings) Delete(ctx context.Context, id string) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	return f.BookingRepository.Delete(ctx, id)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	venues   *faultyVenues
	bookings *faultyBookings
	events   *recordingPublisher
	svc      *ReservationService
	admin    *VenueService
	ticks    atomic.Int64
}

var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	f := &fixture{
		venues:   &faultyVenues{VenueRepository: store.Venues()},
		bookings: &faultyBookings{BookingRepository: store.Bookings()},
		events:   &recordingPublisher{},
	}
	var ids atomic.Int64
	opts := []Option{
		WithEvents(f.events),
		WithClock(func() time.Time { return epoch.Add(time.Duration(f.ticks.Add(1)) * time.Second) }),
		WithIDGenerator(func() string { return fmt.Sprintf("id-%d", ids.Add(1)) }),
	}
	locker := lock.NewKeyedMutex(time.Second)
	f.svc = NewReservationService(f.venues, f.bookings, locker, opts...)
	f.admin = NewVenueService(f.venues, locker, opts...)
	return f
}

func (f *fixture) addVenue(t *testing.T, pricePerHour float64) model.Venue {
	t.Helper()
	v, err := f.admin.Create(context.Background(), VenueInput{Name: "Grand Hall", Capacity: 100, PricePerHour: pricePerHour})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}
	return v
}

func (f *fixture) venue(t *testing.T, id string) model.Venue {
	t.Helper()
	v, err := f.venues.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load venue %s: %v", id, err)
	}
	return v
}

func (f *fixture) allBookings(t *testing.T) []model.Booking {
	t.Helper()
	out, err := f.bookings.FindAll(context.Background(), repository.BookingFilter{})
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	return out
}

func at(hour, minute int) time.Time {
	return time.Date(2024, time.January, 1, hour, minute, 0, 0, time.UTC)
}

var ana = model.Contact{Name: "Ana", Email: "ana@example.com"}
