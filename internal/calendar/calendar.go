// Package calendar answers availability questions for a single venue and
// edits its blocked-interval list. It does not lock and does not persist;
// the reservation service serialises check-then-act sequences per venue and
// saves the venue afterwards.
package calendar

import (
	"github.com/Ashwinpatel7/Eazyvenue/internal/interval"
	"github.com/Ashwinpatel7/Eazyvenue/internal/model"
)

// ReasonBooked is the reason recorded for entries created by bookings.
const ReasonBooked = "Booked"

// Calendar wraps the blocked intervals of one venue. It edits the venue it
// was created from in place.
type Calendar struct {
	venue *model.Venue
}

// For returns the calendar of v. Mutations are written to v.BlockedIntervals.
func For(v *model.Venue) *Calendar {
	return &Calendar{venue: v}
}

// Entries returns the blocked intervals in insertion order.
func (c *Calendar) Entries() []model.BlockedInterval {
	return c.venue.BlockedIntervals
}

// IsAvailable reports whether w overlaps none of the blocked intervals.
func (c *Calendar) IsAvailable(w interval.Window) bool {
	return len(c.Conflicts(w)) == 0
}

// Conflicts returns the entries that overlap w.
func (c *Calendar) Conflicts(w interval.Window) []model.BlockedInterval {
	var out []model.BlockedInterval
	for _, b := range c.venue.BlockedIntervals {
		if interval.Overlaps(b.Window(), w) {
			out = append(out, b)
		}
	}
	return out
}

// Block appends w with the given reason. It does not check availability.
func (c *Calendar) Block(w interval.Window, reason string) {
	c.BlockFor(w, reason, "")
}

// BlockFor appends w and tags the entry with the booking that owns it.
func (c *Calendar) BlockFor(w interval.Window, reason, bookingID string) {
	c.venue.BlockedIntervals = append(c.venue.BlockedIntervals, model.BlockedInterval{
		Start:     w.Start,
		End:       w.End,
		Reason:    reason,
		BookingID: bookingID,
	})
}

// Unblock removes every entry whose bounds equal w exactly and returns how
// many were removed. Entries that merely overlap w are kept.
func (c *Calendar) Unblock(w interval.Window) int {
	return c.removeWhere(func(b model.BlockedInterval) bool {
		return b.Window().Equal(w)
	})
}

// Release frees the window held by a booking. Entries tagged with bookingID
// are removed; when none carry the tag (rows written before tagging existed)
// it falls back to the exact-window match on untagged entries only, so
// another booking's entry with the same bounds is never removed.
func (c *Calendar) Release(bookingID string, w interval.Window) int {
	removed := c.removeWhere(func(b model.BlockedInterval) bool {
		return bookingID != "" && b.BookingID == bookingID
	})
	if removed > 0 {
		return removed
	}
	return c.removeWhere(func(b model.BlockedInterval) bool {
		return b.BookingID == "" && b.Window().Equal(w)
	})
}

func (c *Calendar) removeWhere(match func(model.BlockedInterval) bool) int {
	kept := c.venue.BlockedIntervals[:0:0]
	removed := 0
	for _, b := range c.venue.BlockedIntervals {
		if match(b) {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	if removed > 0 {
		c.venue.BlockedIntervals = kept
	}
	return removed
}
