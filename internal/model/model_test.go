package model

import (
	"errors"
	"testing"
	"time"
)

func TestContactValidate(t *testing.T) {
	cases := []struct {
		name    string
		contact Contact
		ok      bool
	}{
		{"valid", Contact{Name: "Ana", Email: "ana@example.com"}, true},
		{"valid with phone", Contact{Name: "Ana", Email: "ana@example.com", Phone: "+1 555 0100"}, true},
		{"missing name", Contact{Email: "ana@example.com"}, false},
		{"blank name", Contact{Name: "   ", Email: "ana@example.com"}, false},
		{"missing email", Contact{Name: "Ana"}, false},
		{"no at sign", Contact{Name: "Ana", Email: "ana.example.com"}, false},
		{"no domain dot", Contact{Name: "Ana", Email: "ana@localhost"}, false},
		{"display name", Contact{Name: "Ana", Email: "Ana <ana@example.com>"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.contact.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidContact) {
				t.Fatalf("expected ErrInvalidContact, got %v", err)
			}
		})
	}
}

func TestContactNormalize(t *testing.T) {
	c := Contact{Name: "  Ana ", Email: " Ana@Example.COM ", Phone: " 123 "}.Normalize()
	if c.Name != "Ana" || c.Email != "ana@example.com" || c.Phone != "123" {
		t.Fatalf("unexpected normalized contact %+v", c)
	}
}

func TestVenueCloneIsDeep(t *testing.T) {
	start := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	v := Venue{
		ID:               "v1",
		Amenities:        []string{"wifi"},
		BlockedIntervals: []BlockedInterval{{Start: start, End: start.Add(time.Hour), Reason: "Booked"}},
	}
	c := v.Clone()
	c.Amenities[0] = "parking"
	c.BlockedIntervals[0].Reason = "Maintenance"
	c.BlockedIntervals = append(c.BlockedIntervals, BlockedInterval{})

	if v.Amenities[0] != "wifi" {
		t.Fatalf("clone shares amenities backing array")
	}
	if v.BlockedIntervals[0].Reason != "Booked" || len(v.BlockedIntervals) != 1 {
		t.Fatalf("clone shares blocked intervals: %+v", v.BlockedIntervals)
	}
}
