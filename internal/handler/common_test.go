package handler

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
	"github.com/nicofratini/prospeo-bolt/internal/validate"
)

const (
	ownerID   = "11111111-1111-4111-8111-111111111111"
	otherID   = "22222222-2222-4222-8222-222222222222"
	sampleUID = "33333333-3333-4333-8333-333333333333"
)

// newTestContext builds an Echo context with the real validator attached,
// so binding behaves exactly as in production.
func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validate.New()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asSession plants the identity claims the JWT middleware would set.
func asSession(c echo.Context, userID string) {
	c.Set("user_id", userID)
	c.Set("email", "owner@example.com")
	c.Set("name", "Owner")
}

// wantStatusErr asserts err is an apperr.Error with the given status.
func wantStatusErr(t *testing.T, err error, status int) *apperr.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error with status %d, got nil", status)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %T: %v", err, err)
	}
	if ae.Status != status {
		t.Fatalf("status = %d (%q), want %d", ae.Status, ae.Message, status)
	}
	return ae
}
