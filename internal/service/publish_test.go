package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Ashwinpatel7/Eazyvenue/internal/lifecycle"
	"github.com/Ashwinpatel7/Eazyvenue/internal/lock"
	"github.com/Ashwinpatel7/Eazyvenue/internal/queue"
	"github.com/Ashwinpatel7/Eazyvenue/internal/repository"
)

// stalledPublisher blocks the first Publish until release is closed or the
// publish context ends. Later calls return at once.
type stalledPublisher struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newStalledPublisher() *stalledPublisher {
	return &stalledPublisher{entered: make(chan struct{}), release: make(chan struct{})}
}

func (p *stalledPublisher) Publish(ctx context.Context, _ queue.BookingEvent) error {
	first := false
	p.once.Do(func() {
		first = true
		close(p.entered)
	})
	if !first {
		return nil
	}
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSlowBrokerDoesNotHoldVenueLock(t *testing.T) {
	store := repository.NewMemoryStore()
	locker := lock.NewKeyedMutex(200 * time.Millisecond)
	pub := newStalledPublisher()

	admin := NewVenueService(store.Venues(), locker)
	svc := NewReservationService(store.Venues(), store.Bookings(), locker, WithEvents(pub))
	ctx := context.Background()

	v, err := admin.Create(ctx, VenueInput{Name: "Grand Hall", PricePerHour: 100})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.CreateBooking(ctx, v.ID, ana, at(10, 0), at(12, 0))
		done <- err
	}()

	select {
	case <-pub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first booking never reached the publisher")
	}

	second, err := svc.CreateBooking(ctx, v.ID, ana, at(12, 0), at(13, 0))
	if err != nil {
		t.Fatalf("second booking while first event is in flight: %v", err)
	}
	if _, err := svc.UpdateBookingStatus(ctx, second.ID, lifecycle.StatusConfirmed); err != nil {
		t.Fatalf("confirm while first event is in flight: %v", err)
	}
	if _, err := admin.Update(ctx, v.ID, VenueInput{Name: "Grand Hall", PricePerHour: 120}); err != nil {
		t.Fatalf("venue update while first event is in flight: %v", err)
	}

	close(pub.release)
	if err := <-done; err != nil {
		t.Fatalf("first booking: %v", err)
	}
}
