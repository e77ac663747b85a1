// Package apperr defines the error taxonomy shared by every endpoint and
// the single Echo error handler that maps it onto HTTP responses. Handlers
// return these errors instead of writing status codes themselves, so the
// 401/400/404/409/502/500 mapping lives in exactly one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Error carries an HTTP status alongside a client-safe message. Err holds
// the underlying cause for logging; it is never serialized to the client.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Unauthorized signals a missing or invalid session.
func Unauthorized() *Error {
	return &Error{Status: http.StatusUnauthorized, Message: "unauthorized"}
}

// Validation joins per-field messages with ", " in the order the rules were
// declared, so clients see a stable 400 body.
func Validation(msgs []string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: strings.Join(msgs, ", ")}
}

// BadRequest reports a malformed request outside schema validation
// (unparseable body, bad path parameter).
func BadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// NotFound covers both "no such row" and "row owned by someone else"; the
// two are deliberately indistinguishable so existence never leaks to
// non-owners.
func NotFound(resource string) *Error {
	return &Error{Status: http.StatusNotFound, Message: resource + " not found"}
}

// Conflict reports a unique-constraint violation.
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg}
}

// Upstream maps a third-party failure. A known remote status passes
// through; anything else becomes a 502.
func Upstream(status int, msg string) *Error {
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	if msg == "" {
		msg = "upstream service failed"
	}
	return &Error{Status: status, Message: msg}
}

// Internal wraps an unexpected local failure. The cause is kept for the
// log; the client only ever sees the generic message.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "an unexpected error occurred", Err: err}
}

// HTTPErrorHandler renders the taxonomy as {"error": message}. Errors that
// already carry a status are passed through unchanged; everything else is
// logged and reported as a 500 with no internal detail.
func HTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "an unexpected error occurred"

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = ae.Status
			msg = ae.Message
			if status >= 500 {
				log.Error("request failed",
					zap.String("method", c.Request().Method),
					zap.String("path", c.Path()),
					zap.Error(err))
			}
		case errors.As(err, &he):
			status = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(status)
			}
		default:
			log.Error("unhandled error",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, echo.Map{"error": msg})
	}
}
