package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/nicofratini/prospeo-bolt/internal/integration/calcom"
)

type fakeBookingClient struct {
	availabilityFn func(ctx context.Context, p calcom.AvailabilityParams) (json.RawMessage, error)
	bookingsFn     func(ctx context.Context, p calcom.BookingsParams) (json.RawMessage, error)
	createFn       func(ctx context.Context, req calcom.BookingRequest) (*calcom.Booking, error)
	cancelFn       func(ctx context.Context, id, reason string) error
	eventTypesFn   func(ctx context.Context) ([]calcom.EventType, error)
}

func (f *fakeBookingClient) Availability(ctx context.Context, p calcom.AvailabilityParams) (json.RawMessage, error) {
	return f.availabilityFn(ctx, p)
}
func (f *fakeBookingClient) Bookings(ctx context.Context, p calcom.BookingsParams) (json.RawMessage, error) {
	return f.bookingsFn(ctx, p)
}
func (f *fakeBookingClient) CreateBooking(ctx context.Context, req calcom.BookingRequest) (*calcom.Booking, error) {
	return f.createFn(ctx, req)
}
func (f *fakeBookingClient) CancelBooking(ctx context.Context, id, reason string) error {
	return f.cancelFn(ctx, id, reason)
}
func (f *fakeBookingClient) EventTypes(ctx context.Context) ([]calcom.EventType, error) {
	return f.eventTypesFn(ctx)
}

func TestAvailabilityRequiresWindow(t *testing.T) {
	h := NewCalcomHandler(&fakeBookingClient{})

	c, _ := newTestContext(http.MethodGet, "/v1/calcom/availability?dateFrom=2026-09-01", "")
	asSession(c, ownerID)
	wantStatusErr(t, h.Availability(c), http.StatusBadRequest)
}

func TestAvailabilityRelaysRawBody(t *testing.T) {
	raw := json.RawMessage(`{"busy":[],"timeZone":"Europe/Paris"}`)
	cal := &fakeBookingClient{
		availabilityFn: func(ctx context.Context, p calcom.AvailabilityParams) (json.RawMessage, error) {
			if p.DateFrom != "2026-09-01" || p.DateTo != "2026-09-07" {
				t.Fatalf("window not forwarded: %+v", p)
			}
			return raw, nil
		},
	}
	h := NewCalcomHandler(cal)

	c, rec := newTestContext(http.MethodGet,
		"/v1/calcom/availability?dateFrom=2026-09-01&dateTo=2026-09-07", "")
	asSession(c, ownerID)
	if err := h.Availability(c); err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if rec.Body.String() != string(raw) {
		t.Fatalf("body not relayed verbatim: %s", rec.Body.String())
	}
}

func TestCreateBookingUpstreamStatusPassesThrough(t *testing.T) {
	cal := &fakeBookingClient{
		createFn: func(ctx context.Context, req calcom.BookingRequest) (*calcom.Booking, error) {
			return nil, &calcom.APIError{Status: http.StatusConflict, Message: "slot no longer available"}
		},
	}
	h := NewCalcomHandler(cal)

	c, _ := newTestContext(http.MethodPost, "/v1/calcom/bookings",
		`{"event_type_id":42,"start":"2026-09-01T10:00:00Z","end":"2026-09-01T10:30:00Z","time_zone":"Europe/Paris","name":"Nico","email":"nico@example.com"}`)
	asSession(c, ownerID)
	ae := wantStatusErr(t, h.CreateBooking(c), http.StatusConflict)
	if ae.Message != "slot no longer available" {
		t.Fatalf("message = %q", ae.Message)
	}
}

func TestCancelBookingForwardsReason(t *testing.T) {
	var gotID, gotReason string
	cal := &fakeBookingClient{
		cancelFn: func(ctx context.Context, id, reason string) error {
			gotID, gotReason = id, reason
			return nil
		},
	}
	h := NewCalcomHandler(cal)

	c, rec := newTestContext(http.MethodDelete, "/?reason=double+booked", "")
	c.SetParamNames("id")
	c.SetParamValues("bkg_123")
	asSession(c, ownerID)
	if err := h.CancelBooking(c); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if gotID != "bkg_123" || gotReason != "double booked" {
		t.Fatalf("id=%q reason=%q", gotID, gotReason)
	}
}

func TestEventTypesTransportFailureIs502(t *testing.T) {
	cal := &fakeBookingClient{
		eventTypesFn: func(ctx context.Context) ([]calcom.EventType, error) {
			return nil, errors.New("dial tcp: timeout")
		},
	}
	h := NewCalcomHandler(cal)

	c, _ := newTestContext(http.MethodGet, "/v1/calcom/event-types", "")
	asSession(c, ownerID)
	wantStatusErr(t, h.EventTypes(c), http.StatusBadGateway)
}
