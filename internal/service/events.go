package service

import (
	"context"
	"log"
	"time"

	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
	"github.com/Ashwinpatel7/Eazyvenue/internal/queue"
)

// EventPublisher delivers booking events after a change is committed.
// *queue.Publisher implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

const publishTimeout = 5 * time.Second

// publish sends a best-effort event. Failures are logged and never change
// the outcome of the operation that produced the event.
func (s *ReservationService) publish(ctx context.Context, typ string, b model.Booking, venueName string) {
	if s.events == nil {
		return
	}
	ev := queue.BookingEvent{
		Type:         typ,
		BookingID:    b.ID,
		VenueID:      b.VenueID,
		VenueName:    venueName,
		ContactName:  b.Contact.Name,
		ContactEmail: b.Contact.Email,
		Start:        b.Window.Start,
		End:          b.Window.End,
		Status:       b.Status.String(),
		TotalPrice:   b.TotalPrice,
		OccurredAt:   b.UpdatedAt,
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		log.Printf("reservation: publish %s for booking %s failed: %v", typ, b.ID, err)
	}
}
