// Package calcom is a typed client for the Cal.com v1 API. It covers the
// four operations the application proxies: availability, booking listing,
// booking creation and cancellation, plus event-type discovery. Remote
// failures surface as *APIError carrying the upstream status so the HTTP
// layer can pass it through; transport failures stay plain errors and map
// to 502 upstream of here.
package calcom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// APIError is a non-2xx answer from Cal.com.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calcom: upstream status %d: %s", e.Status, e.Message)
}

// Client calls the Cal.com API with a server-held key. Construct once and
// share; the embedded http.Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New returns a client for the given base URL (e.g. https://api.cal.com/v1).
func New(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// AvailabilityParams filter the availability window.
type AvailabilityParams struct {
	DateFrom    string
	DateTo      string
	EventTypeID string
}

// Availability fetches raw availability for the key's account. The
// response is passed through untyped; the application does not interpret
// it, only relays it.
func (c *Client) Availability(ctx context.Context, p AvailabilityParams) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("dateFrom", p.DateFrom)
	q.Set("dateTo", p.DateTo)
	if p.EventTypeID != "" {
		q.Set("eventTypeId", p.EventTypeID)
	}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/availability", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BookingsParams filter the booking listing.
type BookingsParams struct {
	DateFrom string
	DateTo   string
	Status   string
}

// Bookings lists bookings, relayed untyped like Availability.
func (c *Client) Bookings(ctx context.Context, p BookingsParams) (json.RawMessage, error) {
	q := url.Values{}
	if p.DateFrom != "" {
		q.Set("dateFrom", p.DateFrom)
	}
	if p.DateTo != "" {
		q.Set("dateTo", p.DateTo)
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/bookings", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Attendee describes who the booking is for.
type Attendee struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Notes    string   `json:"notes,omitempty"`
	Guests   []string `json:"guests,omitempty"`
	Location *struct {
		OptionValue string `json:"optionValue"`
		Value       string `json:"value"`
	} `json:"location,omitempty"`
}

// BookingRequest is the payload for creating a booking.
type BookingRequest struct {
	EventTypeID int                    `json:"eventTypeId"`
	Start       string                 `json:"start"`
	End         string                 `json:"end"`
	TimeZone    string                 `json:"timeZone"`
	Language    string                 `json:"language,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Responses   Attendee               `json:"responses"`
}

// Booking is the created-booking answer.
type Booking struct {
	UID         string   `json:"uid"`
	EventTypeID int      `json:"eventTypeId"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	TimeZone    string   `json:"timeZone"`
	Status      string   `json:"status"` // ACCEPTED | PENDING | REJECTED | CANCELLED
	Location    *string  `json:"location,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// CreateBooking creates a booking and returns Cal.com's view of it.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*Booking, error) {
	var out Booking
	if err := c.do(ctx, http.MethodPost, "/bookings", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelBooking cancels one booking, optionally with a reason.
func (c *Client) CancelBooking(ctx context.Context, id, reason string) error {
	var body any
	if reason != "" {
		body = map[string]string{"cancellationReason": reason}
	}
	return c.do(ctx, http.MethodDelete, "/bookings/"+url.PathEscape(id), nil, body, nil)
}

// EventType is one bookable meeting template.
type EventType struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	Length      int     `json:"length"`
	Hidden      bool    `json:"hidden"`
	Price       int     `json:"price"`
	Currency    string  `json:"currency"`
}

// EventTypes lists the account's event types.
func (c *Client) EventTypes(ctx context.Context) ([]EventType, error) {
	var out struct {
		EventTypes []EventType `json:"event_types"`
	}
	if err := c.do(ctx, http.MethodGet, "/event-types", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.EventTypes, nil
}

// do performs one authenticated round trip. 2xx bodies decode into out
// (when non-nil); anything 4xx/5xx becomes an *APIError with the remote's
// message when one is parseable.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr *bytes.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(bs)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: "request failed"}
		var remote struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&remote) == nil && remote.Message != "" {
			apiErr.Message = remote.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
