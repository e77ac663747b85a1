package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
	"github.com/nicofratini/prospeo-bolt/internal/integration/calcom"
	"github.com/nicofratini/prospeo-bolt/internal/validate"
)

// bookingClient is the Cal.com surface the proxy endpoints need.
type bookingClient interface {
	Availability(ctx context.Context, p calcom.AvailabilityParams) (json.RawMessage, error)
	Bookings(ctx context.Context, p calcom.BookingsParams) (json.RawMessage, error)
	CreateBooking(ctx context.Context, req calcom.BookingRequest) (*calcom.Booking, error)
	CancelBooking(ctx context.Context, id, reason string) error
	EventTypes(ctx context.Context) ([]calcom.EventType, error)
}

// CalcomHandler proxies the scheduling provider. The API key stays
// server-side; clients talk to these routes with their own session only.
// Responses from the provider are relayed, not reinterpreted.
type CalcomHandler struct {
	cal bookingClient
}

func NewCalcomHandler(cal bookingClient) *CalcomHandler { return &CalcomHandler{cal: cal} }

// Availability relays the provider's availability window.
// GET /v1/calcom/availability?dateFrom&dateTo&eventTypeId
func (h *CalcomHandler) Availability(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	p := calcom.AvailabilityParams{
		DateFrom:    c.QueryParam("dateFrom"),
		DateTo:      c.QueryParam("dateTo"),
		EventTypeID: c.QueryParam("eventTypeId"),
	}
	if p.DateFrom == "" || p.DateTo == "" {
		return apperr.BadRequest("dateFrom and dateTo are required")
	}
	raw, err := h.cal.Availability(c.Request().Context(), p)
	if err != nil {
		return mapCalErr(err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// Bookings relays the provider's booking list.
// GET /v1/calcom/bookings?dateFrom&dateTo&status
func (h *CalcomHandler) Bookings(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	raw, err := h.cal.Bookings(c.Request().Context(), calcom.BookingsParams{
		DateFrom: c.QueryParam("dateFrom"),
		DateTo:   c.QueryParam("dateTo"),
		Status:   c.QueryParam("status"),
	})
	if err != nil {
		return mapCalErr(err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

type createBookingRequest struct {
	EventTypeID int     `json:"event_type_id" validate:"required,gt=0"`
	Start       string  `json:"start" validate:"required"`
	End         string  `json:"end" validate:"required"`
	TimeZone    string  `json:"time_zone" validate:"required"`
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Email       string  `json:"email" validate:"required,email"`
	Notes       *string `json:"notes" validate:"omitempty,max=2000"`
}

// CreateBooking books a slot with the provider on behalf of the caller.
// POST /v1/calcom/bookings
func (h *CalcomHandler) CreateBooking(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	var req createBookingRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}

	attendee := calcom.Attendee{Name: req.Name, Email: req.Email}
	if req.Notes != nil {
		attendee.Notes = *req.Notes
	}
	booking, err := h.cal.CreateBooking(c.Request().Context(), calcom.BookingRequest{
		EventTypeID: req.EventTypeID,
		Start:       req.Start,
		End:         req.End,
		TimeZone:    req.TimeZone,
		Language:    "en",
		Responses:   attendee,
	})
	if err != nil {
		return mapCalErr(err)
	}
	return c.JSON(http.StatusCreated, booking)
}

// CancelBooking cancels one booking, relaying the optional reason.
// DELETE /v1/calcom/bookings/:id?reason=
func (h *CalcomHandler) CancelBooking(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	id, err := pathParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.cal.CancelBooking(c.Request().Context(), id, c.QueryParam("reason")); err != nil {
		return mapCalErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// EventTypes lists the bookable meeting templates. Cached like voices.
// GET /v1/calcom/event-types
func (h *CalcomHandler) EventTypes(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	types, err := h.cal.EventTypes(c.Request().Context())
	if err != nil {
		return mapCalErr(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event_types": types})
}

// mapCalErr passes a known upstream status through and turns transport
// failures into 502.
func mapCalErr(err error) error {
	var ae *calcom.APIError
	if errors.As(err, &ae) {
		return apperr.Upstream(ae.Status, ae.Message)
	}
	return apperr.Upstream(0, "scheduling provider unavailable")
}
