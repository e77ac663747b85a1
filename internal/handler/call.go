package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
	"github.com/nicofratini/prospeo-bolt/internal/repository"
	"github.com/nicofratini/prospeo-bolt/internal/validate"
)

// callStore is the data access the call endpoints need.
type callStore interface {
	Search(ctx context.Context, q repository.CallSearch) ([]repository.CallSummary, int64, error)
	GetByIDAndOwner(ctx context.Context, id, userID string) (*repository.CallDetail, error)
}

// CallHandler serves the read-only call-history surface. Calls are written
// by the ingestion consumer only; these endpoints list and inspect them.
type CallHandler struct {
	calls callStore
}

func NewCallHandler(calls callStore) *CallHandler { return &CallHandler{calls: calls} }

var callStatuses = map[string]bool{
	"completed":   true,
	"missed":      true,
	"failed":      true,
	"in-progress": true,
}

// List returns one page of the caller's history, filtered conjunctively by
// the optional query parameters.
// GET /v1/calls?page&limit&startDate&endDate&status&propertyId&search
func (h *CallHandler) List(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	page := validate.ParsePagination(c)

	q := repository.CallSearch{
		UserID:     id.UserID,
		Status:     c.QueryParam("status"),
		PropertyID: c.QueryParam("propertyId"),
		Search:     c.QueryParam("search"),
		Limit:      page.Limit,
		Offset:     page.Offset(),
	}
	if q.Status != "" && !callStatuses[q.Status] {
		return apperr.BadRequest("status must be one of: completed, missed, failed, in-progress")
	}
	if q.StartDate, err = parseDateParam(c, "startDate"); err != nil {
		return err
	}
	if q.EndDate, err = parseDateParam(c, "endDate"); err != nil {
		return err
	}

	calls, total, err := h.calls.Search(c.Request().Context(), q)
	if err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"calls": calls,
		"pagination": echo.Map{
			"page":        page.Page,
			"limit":       page.Limit,
			"total":       total,
			"total_pages": validate.TotalPages(total, page.Limit),
		},
	})
}

// Get fetches one owned call with its joined property and agent summaries.
// GET /v1/calls/:id
func (h *CallHandler) Get(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	callID, err := pathParam(c, "id")
	if err != nil {
		return err
	}
	d, err := h.calls.GetByIDAndOwner(c.Request().Context(), callID, id.UserID)
	if err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, d)
}

// parseDateParam accepts a calendar date or a full RFC 3339 timestamp.
func parseDateParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.BadRequest(name + " must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}
