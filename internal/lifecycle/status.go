// Package lifecycle holds the booking state machine and the price rule.
//
// A booking starts pending, may be confirmed, and may be cancelled from
// either of those states. Cancelled is terminal.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition is returned for any move outside the transition table.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrUnknownStatus is returned when parsing a status name that is not one of
// pending, confirmed or cancelled.
var ErrUnknownStatus = errors.New("unknown booking status")

// Status is the closed set of booking states. The zero value is not a valid
// status, so an unset field is caught by Valid and by the JSON codec.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusConfirmed
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusPending:   "pending",
	StatusConfirmed: "confirmed",
	StatusCancelled: "cancelled",
}

// transitions lists the allowed target states for each source state.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: nil,
}

// String returns the lower-case wire name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Valid reports whether s is one of the three named states.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool { return s == StatusCancelled }

// ParseStatus maps a wire name to a Status. Matching ignores case and
// surrounding whitespace.
func ParseStatus(raw string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// MarshalText encodes the status as its wire name.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a wire name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the new status.
func Transition(from, to Status) (Status, error) {
	if !to.Valid() {
		return from, fmt.Errorf("%w: unknown target %s", ErrInvalidTransition, to)
	}
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}
