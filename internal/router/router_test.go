package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Ashwinpatel7/Eazyvenue/internal/config"
	"github.com/Ashwinpatel7/Eazyvenue/internal/handler"
	"github.com/Ashwinpatel7/Eazyvenue/internal/lock"
	"github.com/Ashwinpatel7/Eazyvenue/internal/middleware"
	"github.com/Ashwinpatel7/Eazyvenue/internal/repository"
	"github.com/Ashwinpatel7/Eazyvenue/internal/service"
)

func newAPI(t *testing.T, mw Middlewares) *echo.Echo {
	t.Helper()
	store := repository.NewMemoryStore()
	locker := lock.NewKeyedMutex(time.Second)
	venues := service.NewVenueService(store.Venues(), locker)
	reservations := service.NewReservationService(store.Venues(), store.Bookings(), locker)

	e := echo.New()
	RegisterRoutes(e)
	RegisterVenues(e, &handler.VenueHandler{Venues: venues, Reservations: reservations}, mw)
	RegisterBookings(e, &handler.BookingHandler{Reservations: reservations}, mw)
	return e
}

func call(t *testing.T, e *echo.Echo, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, code, rec.Body.String())
	}
}

type bookingBody struct {
	ID         string  `json:"id"`
	VenueID    string  `json:"venueId"`
	TotalPrice float64 `json:"totalPrice"`
	Status     string  `json:"status"`
}

type venueBody struct {
	ID               string `json:"id"`
	BlockedIntervals []struct {
		Reason    string `json:"reason"`
		BookingID string `json:"bookingId"`
	} `json:"blockedIntervals"`
}

func createVenue(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := call(t, e, http.MethodPost, "/v1/venues", map[string]any{
		"name":         "Grand Hall",
		"capacity":     120,
		"pricePerHour": 100,
		"address":      map[string]string{"city": "Pune"},
	})
	expect(t, rec, http.StatusCreated)
	var v venueBody
	decode(t, rec, &v)
	return v.ID
}

func bookingRequest(venueID, start, end string) map[string]any {
	return map[string]any{
		"venueId": venueID,
		"contact": map[string]string{"name": "Ana", "email": "ana@example.com"},
		"start":   start,
		"end":     end,
	}
}

func TestHealth(t *testing.T) {
	e := newAPI(t, Middlewares{})
	rec := call(t, e, http.MethodGet, "/healthz", nil)
	expect(t, rec, http.StatusOK)
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	e := newAPI(t, Middlewares{})
	venueID := createVenue(t, e)

	rec := call(t, e, http.MethodPost, "/v1/bookings",
		bookingRequest(venueID, "2024-06-01T10:00:00Z", "2024-06-01T12:00:00Z"))
	expect(t, rec, http.StatusCreated)
	var b bookingBody
	decode(t, rec, &b)
	if b.Status != "pending" || b.TotalPrice != 200 || b.VenueID != venueID {
		t.Fatalf("unexpected booking %+v", b)
	}

	// Overlapping request loses; the back-to-back one fits.
	rec = call(t, e, http.MethodPost, "/v1/bookings",
		bookingRequest(venueID, "2024-06-01T11:00:00Z", "2024-06-01T13:00:00Z"))
	expect(t, rec, http.StatusConflict)

	rec = call(t, e, http.MethodGet,
		"/v1/venues/"+venueID+"/availability?start=2024-06-01T12:00:00Z&end=2024-06-01T13:00:00Z", nil)
	expect(t, rec, http.StatusOK)
	var avail struct {
		Available bool `json:"available"`
	}
	decode(t, rec, &avail)
	if !avail.Available {
		t.Fatal("window adjacent to a booking reported unavailable")
	}

	rec = call(t, e, http.MethodPatch, "/v1/bookings/"+b.ID, map[string]string{"status": "confirmed"})
	expect(t, rec, http.StatusOK)
	decode(t, rec, &b)
	if b.Status != "confirmed" {
		t.Fatalf("status = %q after confirm", b.Status)
	}

	rec = call(t, e, http.MethodPatch, "/v1/bookings/"+b.ID, map[string]string{"status": "pending"})
	expect(t, rec, http.StatusConflict)

	rec = call(t, e, http.MethodDelete, "/v1/bookings/"+b.ID, nil)
	expect(t, rec, http.StatusOK)
	var cancelled struct {
		Message string      `json:"message"`
		Booking bookingBody `json:"booking"`
	}
	decode(t, rec, &cancelled)
	if cancelled.Message != "Booking cancelled successfully" || cancelled.Booking.Status != "cancelled" {
		t.Fatalf("unexpected cancel response %+v", cancelled)
	}

	rec = call(t, e, http.MethodDelete, "/v1/bookings/"+b.ID, nil)
	expect(t, rec, http.StatusConflict)

	rec = call(t, e, http.MethodGet, "/v1/venues/"+venueID, nil)
	expect(t, rec, http.StatusOK)
	var v venueBody
	decode(t, rec, &v)
	if len(v.BlockedIntervals) != 0 {
		t.Fatalf("calendar not released: %+v", v.BlockedIntervals)
	}

	rec = call(t, e, http.MethodGet, "/v1/bookings?venueId="+venueID, nil)
	expect(t, rec, http.StatusOK)
	var list struct {
		Items []struct {
			bookingBody
			Venue *venueSummaryBody `json:"venue"`
		} `json:"items"`
	}
	decode(t, rec, &list)
	if len(list.Items) != 1 || list.Items[0].Status != "cancelled" {
		t.Fatalf("cancelled booking should remain listed: %+v", list.Items)
	}
	if sv := list.Items[0].Venue; sv == nil || sv.ID != venueID || sv.Name != "Grand Hall" || sv.Address.City != "Pune" {
		t.Fatalf("listed booking lacks venue summary: %+v", sv)
	}

	rec = call(t, e, http.MethodGet, "/v1/bookings/"+b.ID, nil)
	expect(t, rec, http.StatusOK)
	var one struct {
		bookingBody
		Venue *venueSummaryBody `json:"venue"`
	}
	decode(t, rec, &one)
	if one.ID != b.ID || one.Venue == nil || one.Venue.Name != "Grand Hall" {
		t.Fatalf("booking read lacks venue summary: %+v", one)
	}
}

type venueSummaryBody struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address struct {
		City string `json:"city"`
	} `json:"address"`
}

func TestErrorMapping(t *testing.T) {
	e := newAPI(t, Middlewares{})
	venueID := createVenue(t, e)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown venue", http.MethodPost, "/v1/bookings",
			bookingRequest("missing", "2024-06-01T10:00:00Z", "2024-06-01T11:00:00Z"), http.StatusNotFound},
		{"missing venue id", http.MethodPost, "/v1/bookings",
			bookingRequest("", "2024-06-01T10:00:00Z", "2024-06-01T11:00:00Z"), http.StatusBadRequest},
		{"empty window", http.MethodPost, "/v1/bookings",
			bookingRequest(venueID, "2024-06-01T10:00:00Z", "2024-06-01T10:00:00Z"), http.StatusBadRequest},
		{"bad contact", http.MethodPost, "/v1/bookings", map[string]any{
			"venueId": venueID,
			"contact": map[string]string{"name": "Ana", "email": "not-an-email"},
			"start":   "2024-06-01T10:00:00Z",
			"end":     "2024-06-01T11:00:00Z",
		}, http.StatusBadRequest},
		{"unknown booking", http.MethodGet, "/v1/bookings/nope", nil, http.StatusNotFound},
		{"unknown status", http.MethodPatch, "/v1/bookings/nope", map[string]string{"status": "archived"}, http.StatusBadRequest},
		{"list unknown venue", http.MethodGet, "/v1/bookings?venueId=missing", nil, http.StatusNotFound},
		{"unknown venue read", http.MethodGet, "/v1/venues/missing", nil, http.StatusNotFound},
		{"invalid venue", http.MethodPost, "/v1/venues", map[string]any{"name": " "}, http.StatusBadRequest},
		{"availability without window", http.MethodGet, "/v1/venues/" + venueID + "/availability", nil, http.StatusBadRequest},
		{"availability bad timestamp", http.MethodGet,
			"/v1/venues/" + venueID + "/availability?start=tomorrow&end=2024-06-01T11:00:00Z", nil, http.StatusBadRequest},
		{"unblock nothing", http.MethodDelete,
			"/v1/venues/" + venueID + "/blocks?start=2024-06-01T10:00:00Z&end=2024-06-01T11:00:00Z", nil, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, e, tc.method, tc.path, tc.body)
			expect(t, rec, tc.want)
			var body map[string]string
			decode(t, rec, &body)
			if strings.TrimSpace(body["error"]) == "" {
				t.Fatalf("missing error message in %s", rec.Body.String())
			}
		})
	}
}

func TestVenueBlocksOverHTTP(t *testing.T) {
	e := newAPI(t, Middlewares{})
	venueID := createVenue(t, e)

	rec := call(t, e, http.MethodPost, "/v1/venues/"+venueID+"/blocks", map[string]string{
		"start":  "2024-06-01T08:00:00Z",
		"end":    "2024-06-01T09:00:00Z",
		"reason": "Maintenance",
	})
	expect(t, rec, http.StatusCreated)
	var v venueBody
	decode(t, rec, &v)
	if len(v.BlockedIntervals) != 1 || v.BlockedIntervals[0].Reason != "Maintenance" {
		t.Fatalf("unexpected calendar %+v", v.BlockedIntervals)
	}

	rec = call(t, e, http.MethodPost, "/v1/bookings",
		bookingRequest(venueID, "2024-06-01T08:30:00Z", "2024-06-01T10:00:00Z"))
	expect(t, rec, http.StatusConflict)

	rec = call(t, e, http.MethodDelete,
		"/v1/venues/"+venueID+"/blocks?start=2024-06-01T08:00:00Z&end=2024-06-01T09:00:00Z", nil)
	expect(t, rec, http.StatusOK)

	rec = call(t, e, http.MethodPost, "/v1/bookings",
		bookingRequest(venueID, "2024-06-01T08:30:00Z", "2024-06-01T10:00:00Z"))
	expect(t, rec, http.StatusCreated)
	var b bookingBody
	decode(t, rec, &b)

	// A booking's own entry cannot be removed as an administrative block.
	rec = call(t, e, http.MethodDelete,
		"/v1/venues/"+venueID+"/blocks?start=2024-06-01T08:30:00Z&end=2024-06-01T10:00:00Z", nil)
	expect(t, rec, http.StatusNotFound)

	rec = call(t, e, http.MethodDelete, "/v1/venues/"+venueID, nil)
	expect(t, rec, http.StatusConflict)

	expect(t, call(t, e, http.MethodDelete, "/v1/bookings/"+b.ID, nil), http.StatusOK)
	expect(t, call(t, e, http.MethodDelete, "/v1/venues/"+venueID, nil), http.StatusNoContent)
	expect(t, call(t, e, http.MethodGet, "/v1/venues/"+venueID, nil), http.StatusNotFound)
}

func TestVenueUpdateOverHTTP(t *testing.T) {
	e := newAPI(t, Middlewares{})
	venueID := createVenue(t, e)

	rec := call(t, e, http.MethodPut, "/v1/venues/"+venueID, map[string]any{"name": "Small Hall", "pricePerHour": 40})
	expect(t, rec, http.StatusOK)
	var v struct {
		Name         string  `json:"name"`
		PricePerHour float64 `json:"pricePerHour"`
	}
	decode(t, rec, &v)
	if v.Name != "Small Hall" || v.PricePerHour != 40 {
		t.Fatalf("update not applied: %+v", v)
	}

	rec = call(t, e, http.MethodGet, "/v1/venues", nil)
	expect(t, rec, http.StatusOK)
	var list struct {
		Items []venueBody `json:"items"`
	}
	decode(t, rec, &list)
	if len(list.Items) != 1 || list.Items[0].ID != venueID {
		t.Fatalf("unexpected venue list %+v", list.Items)
	}
}

func TestBookingInvalidatesCachedVenue(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cc := config.CacheConfig{
		Enabled:      true,
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
		Methods:      map[string]bool{http.MethodGet: true},
	}
	e := newAPI(t, Middlewares{
		Cache:      middleware.NewResponseCache(cc, rdb),
		Invalidate: middleware.NewCacheInvalidator(cc, rdb),
	})
	venueID := createVenue(t, e)

	call(t, e, http.MethodGet, "/v1/venues/"+venueID, nil)
	if rec := call(t, e, http.MethodGet, "/v1/venues/"+venueID, nil); rec.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("expected cached venue, X-Cache=%q", rec.Header().Get("X-Cache"))
	}

	expect(t, call(t, e, http.MethodPost, "/v1/bookings",
		bookingRequest(venueID, "2024-06-01T10:00:00Z", "2024-06-01T12:00:00Z")), http.StatusCreated)

	rec := call(t, e, http.MethodGet, "/v1/venues/"+venueID, nil)
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("venue served stale after booking, X-Cache=%q", rec.Header().Get("X-Cache"))
	}
	var v venueBody
	decode(t, rec, &v)
	if len(v.BlockedIntervals) != 1 || v.BlockedIntervals[0].BookingID == "" {
		t.Fatalf("fresh venue lacks booking entry: %+v", v.BlockedIntervals)
	}
}
