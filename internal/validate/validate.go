// Package validate is the single input-validation layer for the API.
// Request bodies are bound strictly (unknown fields rejected, no silent
// coercion) and checked against declarative struct-tag rules; every
// violated rule yields one human-readable message, joined in field
// declaration order. Pagination parameters are clamped here as well.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
)

// Validator adapts go-playground/validator to Echo's Validator interface.
type Validator struct {
	v *validator.Validate
}

// New builds the shared Validator. Field names in messages come from the
// json tag so clients recognize them.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate checks a bound struct against its tags. All violations are
// collected into one 400 error with comma-joined messages; the order
// follows the struct's field declarations, so it is stable across calls.
func (va *Validator) Validate(i interface{}) error {
	err := va.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return apperr.Validation(msgs)
}

// message renders one violated rule as a client-facing sentence.
func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "uuid", "uuid4":
		return field + " must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(fe.Param()), ", "))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "datetime":
		return field + " must be a valid ISO datetime"
	case "dive":
		return field + " contains an invalid element"
	default:
		return field + " is invalid"
	}
}

// BindBody decodes a JSON body into dst and runs tag validation. Unknown
// fields fail with 400 rather than being dropped, so malformed payloads
// never coerce into something that merely looks valid.
func BindBody(c echo.Context, dst interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("request body is required")
		}
		return apperr.BadRequest("invalid request body")
	}
	return c.Validate(dst)
}

// Pagination defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
)

// Pagination is the clamped page window of a list request.
type Pagination struct {
	Page  int
	Limit int
}

// Offset is the row offset of the window.
func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

// ParsePagination reads page/limit query parameters and clamps them:
// page >= 1, limit within [1, MaxLimit]. Absent or non-numeric values fall
// back to the defaults.
func ParsePagination(c echo.Context) Pagination {
	p := Pagination{Page: DefaultPage, Limit: DefaultLimit}
	if raw := c.QueryParam("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.Page = n
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.Limit = n
		}
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// TotalPages computes ceil(total/limit); zero items means zero pages.
func TotalPages(total int64, limit int) int64 {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
